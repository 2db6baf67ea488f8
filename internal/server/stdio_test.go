package server_test

import (
	"bufio"
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"

	"github.com/dshills/easel/internal/server"
)

func runStdio(t *testing.T, input string) []gjson.Result {
	t.Helper()
	var out bytes.Buffer
	err := server.ServeStdio(context.Background(), newDispatcher(t), strings.NewReader(input), &out, 0, nil)
	require.NoError(t, err)

	var replies []gjson.Result
	sc := bufio.NewScanner(&out)
	for sc.Scan() {
		require.True(t, gjson.Valid(sc.Text()), "invalid reply line %q", sc.Text())
		replies = append(replies, gjson.Parse(sc.Text()))
	}
	return replies
}

func TestServeStdio(t *testing.T) {
	input := strings.Join([]string{
		`{"id":1,"cmd":"echo","args":{"msg":"one"}}`,
		``,
		`{"id":"two","cmd":"echo","args":{}}`,
		`{"id":3,"cmd":"nope"}`,
		`not json`,
		`{"id":5}`,
		`{"id":6,"cmd":"boom"}`,
	}, "\n")

	replies := runStdio(t, input)
	require.Len(t, replies, 6)

	assert.Equal(t, int64(1), replies[0].Get("id").Int())
	assert.True(t, replies[0].Get("ok").Bool())
	assert.Equal(t, "one", replies[0].Get("data.msg").String())

	assert.Equal(t, "two", replies[1].Get("id").String())
	assert.Equal(t, "invalid_argument", replies[1].Get("error.code").String())

	assert.Equal(t, int64(3), replies[2].Get("id").Int())
	assert.Equal(t, "unknown_command", replies[2].Get("error.code").String())

	assert.Equal(t, gjson.Null, replies[3].Get("id").Type)
	assert.Equal(t, "invalid_argument", replies[3].Get("error.code").String())

	assert.Equal(t, int64(5), replies[4].Get("id").Int())
	assert.Contains(t, replies[4].Get("error.message").String(), "cmd")

	assert.Equal(t, int64(6), replies[5].Get("id").Int())
	assert.Equal(t, "internal", replies[5].Get("error.code").String())
}

func TestServeStdio_Canceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var out bytes.Buffer
	err := server.ServeStdio(ctx, newDispatcher(t), strings.NewReader(`{"id":1,"cmd":"echo","args":{"msg":"x"}}`+"\n"), &out, 0, nil)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, out.Len())
}

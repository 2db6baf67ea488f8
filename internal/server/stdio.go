package server

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"

	"github.com/dshills/easel/internal/dispatcher"
)

// ServeStdio reads newline-delimited requests from r and writes one reply
// line per request to w, in order:
//
//	{"id":1,"cmd":"undo","args":{}}
//	{"id":1,"ok":true,"data":{...}}
//
// It returns nil at EOF. Cancellation is observed between requests.
func ServeStdio(ctx context.Context, d Dispatcher, r io.Reader, w io.Writer, maxLine int, logger *slog.Logger) error {
	if maxLine <= 0 {
		maxLine = DefaultMaxBodyBytes
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	logger = logger.With("component", "stdio")

	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), maxLine)
	out := bufio.NewWriter(w)

	for sc.Scan() {
		if err := ctx.Err(); err != nil {
			return err
		}
		line := sc.Bytes()
		if len(bytes.TrimSpace(line)) == 0 {
			continue
		}

		reply := handleLine(ctx, d, line)
		if _, err := out.Write(append(reply, '\n')); err != nil {
			return fmt.Errorf("write reply: %w", err)
		}
		if err := out.Flush(); err != nil {
			return fmt.Errorf("write reply: %w", err)
		}
	}
	if err := sc.Err(); err != nil {
		logger.Error("read requests", "error", err)
		return fmt.Errorf("read requests: %w", err)
	}
	return nil
}

// handleLine dispatches one request line and returns the reply line.
func handleLine(ctx context.Context, d Dispatcher, line []byte) []byte {
	if !gjson.ValidBytes(line) {
		return withID(dispatcher.Failure(dispatcher.InvalidArgument("request is not valid JSON")), "null")
	}
	req := gjson.ParseBytes(line)
	if !req.IsObject() {
		return withID(dispatcher.Failure(dispatcher.InvalidArgument("request must be a JSON object")), "null")
	}

	id := req.Get("id")
	rawID := "null"
	if id.Exists() {
		rawID = id.Raw
	}

	cmd := req.Get("cmd")
	if cmd.Type != gjson.String || cmd.Str == "" {
		return withID(dispatcher.Failure(dispatcher.InvalidArgument("missing cmd")), rawID)
	}

	var args []byte
	if a := req.Get("args"); a.Exists() {
		args = []byte(a.Raw)
	}
	res := d.Dispatch(ctx, cmd.Str, args)
	return withID(res.JSON(), rawID)
}

func withID(envelope []byte, rawID string) []byte {
	out, err := sjson.SetRawBytes(envelope, "id", []byte(rawID))
	if err != nil {
		return envelope
	}
	return out
}

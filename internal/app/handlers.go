package app

import (
	"context"
	"image"

	"github.com/tidwall/gjson"

	"github.com/dshills/easel/internal/canvas"
	"github.com/dshills/easel/internal/codec"
	"github.com/dshills/easel/internal/dispatcher"
	"github.com/dshills/easel/internal/event"
	"github.com/dshills/easel/internal/history"
)

// Command names understood by the dispatcher.
const (
	CmdPushState    = "push_state"
	CmdUndo         = "undo"
	CmdRedo         = "redo"
	CmdHistoryState = "history_state"
	CmdClearHistory = "clear_history"
	CmdSaveImage    = "save_image"
	CmdLoadImage    = "load_image"
	CmdDrawShape    = "draw_shape"
	CmdRunScript    = "run_script"
)

type stateReply struct {
	State      history.State `json:"state"`
	Reset      bool          `json:"reset"`
	SnapshotID string        `json:"snapshot_id,omitempty"`
}

// transitionReply answers undo and redo. Snapshot is null when nothing
// moved.
type transitionReply struct {
	Snapshot *string       `json:"snapshot"`
	Moved    bool          `json:"moved"`
	Reset    bool          `json:"reset"`
	State    history.State `json:"state"`
}

type pathReply struct {
	Path string `json:"path"`
}

type imageReply struct {
	Data string `json:"data"`
}

// registerHandlers registers every command with d.
func (app *Application) registerHandlers(d *dispatcher.Dispatcher) error {
	cmds := []struct {
		name string
		fn   func(context.Context, dispatcher.Args) (any, error)
	}{
		{CmdPushState, app.pushState},
		{CmdUndo, app.undo},
		{CmdRedo, app.redo},
		{CmdHistoryState, app.historyState},
		{CmdClearHistory, app.clearHistory},
		{CmdSaveImage, app.saveImage},
		{CmdLoadImage, app.loadImage},
		{CmdDrawShape, app.drawShape},
		{CmdRunScript, app.runScript},
	}
	for _, c := range cmds {
		if err := d.RegisterFunc(c.name, c.fn); err != nil {
			return err
		}
	}
	return nil
}

func (app *Application) pushState(ctx context.Context, args dispatcher.Args) (any, error) {
	raw, err := args.RequireString("snapshot")
	if err != nil {
		return nil, err
	}
	snap, err := codec.ParseSnapshot(raw)
	if err != nil {
		return nil, err
	}

	tr := app.history.Record(snap)
	app.afterHistory(ctx, CmdPushState, tr)
	return stateReply{State: tr.State, Reset: tr.Reset, SnapshotID: snap.ID.String()}, nil
}

func (app *Application) undo(ctx context.Context, args dispatcher.Args) (any, error) {
	cur, ok, err := optionalSnapshot(args, "current")
	if err != nil {
		return nil, err
	}

	var tr history.Transition[codec.Snapshot]
	if ok {
		tr = app.history.UndoWith(cur)
	} else {
		tr = app.history.Undo()
	}
	app.afterHistory(ctx, CmdUndo, tr)
	return newTransitionReply(tr), nil
}

func (app *Application) redo(ctx context.Context, args dispatcher.Args) (any, error) {
	cur, ok, err := optionalSnapshot(args, "current")
	if err != nil {
		return nil, err
	}

	var tr history.Transition[codec.Snapshot]
	if ok {
		tr = app.history.RedoWith(cur)
	} else {
		tr = app.history.Redo()
	}
	app.afterHistory(ctx, CmdRedo, tr)
	return newTransitionReply(tr), nil
}

func newTransitionReply(tr history.Transition[codec.Snapshot]) transitionReply {
	r := transitionReply{Moved: tr.Moved, Reset: tr.Reset, State: tr.State}
	if tr.Moved {
		url := tr.Current.DataURL()
		r.Snapshot = &url
	}
	return r
}

func (app *Application) historyState(context.Context, dispatcher.Args) (any, error) {
	return stateReply{State: app.history.State()}, nil
}

func (app *Application) clearHistory(ctx context.Context, _ dispatcher.Args) (any, error) {
	app.history.Clear()
	st := app.history.State()
	app.metrics.SetHistoryDepth(st.UndoDepth, st.RedoDepth)
	app.publish(ctx, event.TopicHistoryChanged, event.HistoryChanged{
		Command: CmdClearHistory,
		Moved:   true,
		State:   st,
	})
	return stateReply{State: st}, nil
}

// saveImage writes a data URL to disk. The bytes are written as sent
// unless the file extension asks for another encodable format, in which
// case the image is re-encoded.
func (app *Application) saveImage(ctx context.Context, args dispatcher.Args) (any, error) {
	path, err := args.RequireString("path")
	if err != nil {
		return nil, err
	}
	raw, err := args.RequireString("data")
	if err != nil {
		return nil, err
	}
	snap, err := codec.ParseSnapshot(raw)
	if err != nil {
		return nil, err
	}

	mime := codec.MIMEFromPath(path)
	var written string
	if mime != snap.MIME && codec.CanEncode(mime) {
		img, err := snap.Image()
		if err != nil {
			return nil, err
		}
		written, err = app.store.Save(path, img)
		if err != nil {
			return nil, NewOperationError(CmdSaveImage, path, err)
		}
	} else {
		mime = snap.MIME
		written, err = app.store.SaveBytes(path, snap.Data)
		if err != nil {
			return nil, NewOperationError(CmdSaveImage, path, err)
		}
	}

	app.logger.Info("image saved", "path", written, "mime", mime)
	app.publish(ctx, event.TopicCanvasSaved, event.CanvasFile{Path: written, MIME: mime, Size: len(snap.Data)})
	return pathReply{Path: written}, nil
}

// loadImage returns a stored file as a data URL labelled by its extension.
func (app *Application) loadImage(ctx context.Context, args dispatcher.Args) (any, error) {
	path, err := args.RequireString("path")
	if err != nil {
		return nil, err
	}
	data, err := app.store.LoadBytes(path)
	if err != nil {
		return nil, NewOperationError(CmdLoadImage, path, err)
	}

	mime := codec.MIMEFromPath(path)
	app.publish(ctx, event.TopicCanvasLoaded, event.CanvasFile{Path: path, MIME: mime, Size: len(data)})
	return imageReply{Data: codec.FormatDataURL(mime, data)}, nil
}

// drawShape rasterizes one primitive onto the current canvas, or a blank
// one, and returns the result as a PNG data URL. It does not touch the
// history; the front-end pushes the result when it commits the edit.
func (app *Application) drawShape(_ context.Context, args dispatcher.Args) (any, error) {
	name, err := args.RequireString("shape")
	if err != nil {
		return nil, err
	}
	kind, err := canvas.ParseKind(name)
	if err != nil {
		return nil, err
	}

	var xy [4]int
	for i, keys := range [4][2]string{
		{"startX", "start_x"},
		{"startY", "start_y"},
		{"endX", "end_x"},
		{"endY", "end_y"},
	} {
		if xy[i], err = args.RequireUint(firstPresent(args, keys[0], keys[1])); err != nil {
			return nil, err
		}
	}

	colorArg, err := args.RequireString("color")
	if err != nil {
		return nil, err
	}
	col, err := canvas.ParseColor(colorArg)
	if err != nil {
		return nil, err
	}

	// Line width is accepted for compatibility and otherwise ignored.
	if key := firstPresent(args, "lineWidth", "line_width"); args.Has(key) {
		if _, err := args.RequireUint(key); err != nil {
			return nil, err
		}
	}

	base, err := optionalCanvas(args)
	if err != nil {
		return nil, err
	}

	shape := canvas.Shape{
		Kind: kind,
		From: image.Pt(xy[0], xy[1]),
		To:   image.Pt(xy[2], xy[3]),
	}
	if err := shape.Validate(); err != nil {
		return nil, err
	}

	url, err := codec.Encode(canvas.Render(base, shape, col))
	if err != nil {
		return nil, err
	}
	return imageReply{Data: url}, nil
}

func (app *Application) runScript(ctx context.Context, args dispatcher.Args) (any, error) {
	source, err := args.RequireString("source")
	if err != nil {
		return nil, err
	}
	base, err := optionalCanvas(args)
	if err != nil {
		return nil, err
	}

	img, err := app.scriptRunner().Run(ctx, source, base)
	if err != nil {
		return nil, err
	}
	url, err := codec.Encode(img)
	if err != nil {
		return nil, err
	}
	return imageReply{Data: url}, nil
}

// firstPresent returns the first key that is set, or the first key when
// none is.
func firstPresent(args dispatcher.Args, keys ...string) string {
	for _, k := range keys {
		if args.Has(k) {
			return k
		}
	}
	return keys[0]
}

// optionalSnapshot parses an optional data URL argument.
func optionalSnapshot(args dispatcher.Args, key string) (codec.Snapshot, bool, error) {
	if !args.Has(key) {
		return codec.Snapshot{}, false, nil
	}
	v := args.Get(key)
	if v.Type != gjson.String {
		return codec.Snapshot{}, false, dispatcher.InvalidArgument("argument %q must be a string", key)
	}
	snap, err := codec.ParseSnapshot(v.Str)
	if err != nil {
		return codec.Snapshot{}, false, err
	}
	return snap, true, nil
}

// optionalCanvas decodes the current_png argument, or returns nil for a
// blank canvas.
func optionalCanvas(args dispatcher.Args) (*image.RGBA, error) {
	key := firstPresent(args, "current_png", "currentPng")
	if !args.Has(key) {
		return nil, nil
	}
	v, ok := args.String(key)
	if !ok {
		return nil, dispatcher.InvalidArgument("argument %q must be a string", key)
	}
	return codec.Decode(v)
}

package app

import (
	"context"

	"github.com/dshills/easel/internal/codec"
	"github.com/dshills/easel/internal/dispatcher"
	"github.com/dshills/easel/internal/event"
	"github.com/dshills/easel/internal/history"
)

// afterHistory reports a history transition. It runs after the history
// lock has been released.
func (app *Application) afterHistory(ctx context.Context, command string, tr history.Transition[codec.Snapshot]) {
	app.metrics.SetHistoryDepth(tr.State.UndoDepth, tr.State.RedoDepth)

	if tr.Reset {
		app.logger.Warn("history stack was inconsistent and has been reset",
			"command", command,
			"resets", tr.State.Resets,
			"undo_depth", tr.State.UndoDepth,
		)
		app.metrics.HistoryReset()
		app.publish(ctx, event.TopicHistoryReset, event.HistoryReset{Command: command, State: tr.State})
	}

	payload := event.HistoryChanged{Command: command, Moved: tr.Moved, State: tr.State}
	if tr.Moved {
		payload.SnapshotID = tr.Current.ID.String()
	}
	app.publish(ctx, event.TopicHistoryChanged, payload)
}

// publish sends an event, logging rather than failing the command when the
// bus refuses it.
func (app *Application) publish(ctx context.Context, topic event.Topic, payload any) {
	if err := app.bus.Publish(context.WithoutCancel(ctx), event.New(topic, payload)); err != nil {
		app.logger.Debug("event not published", "topic", topic, "error", err)
	}
}

// unknownCommandLabel is the metrics label for commands with no handler.
const unknownCommandLabel = "_unknown"

// observeCommand records dispatch results in Prometheus.
func (app *Application) observeCommand(_ context.Context, r dispatcher.Result) {
	command := r.Command
	if r.Err != nil && r.Err.Code == dispatcher.CodeUnknownCommand {
		command = unknownCommandLabel
	}
	app.metrics.ObserveCommand(command, r.Status(), r.Duration, r.Panicked)
}

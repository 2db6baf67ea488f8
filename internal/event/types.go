package event

import "github.com/dshills/easel/internal/history"

// Topics published by the application.
const (
	TopicHistoryChanged Topic = "history.changed"
	TopicHistoryReset   Topic = "history.reset"
	TopicCanvasSaved    Topic = "canvas.saved"
	TopicCanvasLoaded   Topic = "canvas.loaded"
	TopicConfigReloaded Topic = "config.reloaded"
)

// HistoryChanged is the payload of TopicHistoryChanged. It is published
// after every command that touches the history, including no-ops, so
// viewers can refresh their undo/redo controls.
type HistoryChanged struct {
	Command    string        `json:"command"`
	Moved      bool          `json:"moved"`
	SnapshotID string        `json:"snapshot_id,omitempty"`
	State      history.State `json:"state"`
}

// HistoryReset is the payload of TopicHistoryReset.
type HistoryReset struct {
	Command string        `json:"command"`
	State   history.State `json:"state"`
}

// CanvasFile is the payload of TopicCanvasSaved and TopicCanvasLoaded.
type CanvasFile struct {
	Path string `json:"path"`
	MIME string `json:"mime"`
	Size int    `json:"size"`
}

// ConfigReloaded is the payload of TopicConfigReloaded.
type ConfigReloaded struct {
	Path    string   `json:"path"`
	Applied []string `json:"applied"`
}

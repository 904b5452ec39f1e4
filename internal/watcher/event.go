package watcher

import "time"

// EventType is the kind of file system change.
type EventType int

const (
	// EventAdded is emitted once a file stops changing.
	EventAdded EventType = iota
	// EventRemoved is emitted when a file is deleted.
	EventRemoved
)

func (t EventType) String() string {
	switch t {
	case EventAdded:
		return "added"
	case EventRemoved:
		return "removed"
	default:
		return "unknown"
	}
}

// Event is a settled file system change.
type Event struct {
	Type    EventType
	Path    string
	Size    int64
	ModTime time.Time
}

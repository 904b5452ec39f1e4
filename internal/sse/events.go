// Package sse implements Server-Sent Events for pushing change notifications to display surfaces.
package sse

import (
	"time"

	"github.com/coursepilot/coursepilot/internal/domain"
)

// EventType represents the type of SSE Event.
type EventType string

const (
	// EventStorageChanged is raised by every local-tier write.
	EventStorageChanged EventType = "storage.changed"
	// EventStatsUpdated follows a recorded completion.
	EventStatsUpdated EventType = "stats.updated"
	// EventNoteAdded follows a created note.
	EventNoteAdded EventType = "note.added"
	// EventNoteDeleted follows a removed note.
	EventNoteDeleted EventType = "note.deleted"
	// EventProgressUpdated relays a controller progress report.
	EventProgressUpdated EventType = "progress.updated"
	// EventNotice carries a user-visible message.
	EventNotice EventType = "notice"
	// EventOpenNoteEntry asks a surface to open note entry for the pending note.
	EventOpenNoteEntry EventType = "note.entry_requested"
	// EventHeartbeat represents a connection keepalive event.
	EventHeartbeat EventType = "heartbeat"
)

// AllEventTypes lists every event a client may subscribe to.
var AllEventTypes = []EventType{
	EventStorageChanged,
	EventStatsUpdated,
	EventNoteAdded,
	EventNoteDeleted,
	EventProgressUpdated,
	EventNotice,
	EventOpenNoteEntry,
	EventHeartbeat,
}

// Event represents an SSE event to be sent to clients.
type Event struct {
	Timestamp time.Time `json:"timestamp"`
	Data      any       `json:"data"`
	Type      EventType `json:"type"`
}

// StorageChangedEventData names the keys touched by one store write.
type StorageChangedEventData struct {
	Namespace string   `json:"namespace"`
	Keys      []string `json:"keys"`
	Removed   bool     `json:"removed,omitempty"`
}

// StatsUpdatedEventData carries the stats after a completion.
type StatsUpdatedEventData struct {
	Stats domain.StatsView `json:"stats"`
}

// NoteAddedEventData carries the created note.
type NoteAddedEventData struct {
	Note domain.Note `json:"note"`
}

// NoteDeletedEventData identifies the removed note.
type NoteDeletedEventData struct {
	NoteID   string `json:"noteId"`
	VideoURL string `json:"videoUrl"`
}

// ProgressEventData is a progress report tagged with its source tab.
type ProgressEventData struct {
	domain.Progress
	TabID string `json:"tabId,omitempty"`
}

// HeartbeatEventData is the data payload for heartbeat events.
type HeartbeatEventData struct {
	ServerTime time.Time `json:"server_time"`
}

// NewStorageChangedEvent creates a storage.changed event.
func NewStorageChangedEvent(namespace string, keys []string, removed bool) Event {
	return Event{
		Type:      EventStorageChanged,
		Data:      StorageChangedEventData{Namespace: namespace, Keys: keys, Removed: removed},
		Timestamp: time.Now(),
	}
}

// NewStatsUpdatedEvent creates a stats.updated event.
func NewStatsUpdatedEvent(stats domain.StatsView) Event {
	return Event{
		Type:      EventStatsUpdated,
		Data:      StatsUpdatedEventData{Stats: stats},
		Timestamp: time.Now(),
	}
}

// NewNoteAddedEvent creates a note.added event.
func NewNoteAddedEvent(note domain.Note) Event {
	return Event{
		Type:      EventNoteAdded,
		Data:      NoteAddedEventData{Note: note},
		Timestamp: time.Now(),
	}
}

// NewNoteDeletedEvent creates a note.deleted event.
func NewNoteDeletedEvent(videoURL, noteID string) Event {
	return Event{
		Type:      EventNoteDeleted,
		Data:      NoteDeletedEventData{NoteID: noteID, VideoURL: videoURL},
		Timestamp: time.Now(),
	}
}

// NewProgressEvent creates a progress.updated event.
func NewProgressEvent(tabID string, p domain.Progress) Event {
	return Event{
		Type:      EventProgressUpdated,
		Data:      ProgressEventData{Progress: p, TabID: tabID},
		Timestamp: time.Now(),
	}
}

// NewNoticeEvent creates a notice event.
func NewNoticeEvent(n domain.Notice) Event {
	return Event{
		Type:      EventNotice,
		Data:      n,
		Timestamp: time.Now(),
	}
}

// NewOpenNoteEntryEvent creates a note.entry_requested event.
func NewOpenNoteEntryEvent(p domain.PendingNote) Event {
	return Event{
		Type:      EventOpenNoteEntry,
		Data:      p,
		Timestamp: time.Now(),
	}
}

// NewHeartbeatEvent creates a heartbeat event.
func NewHeartbeatEvent() Event {
	return Event{
		Type:      EventHeartbeat,
		Data:      HeartbeatEventData{ServerTime: time.Now()},
		Timestamp: time.Now(),
	}
}

// ParseEventTypes maps names to known event types, skipping unknown ones.
func ParseEventTypes(names []string) []EventType {
	var out []EventType
	for _, name := range names {
		for _, t := range AllEventTypes {
			if string(t) == name {
				out = append(out, t)
				break
			}
		}
	}
	return out
}

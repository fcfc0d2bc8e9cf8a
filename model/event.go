package model

// LibraryEventType classifies a change in the ringtone folders.
type LibraryEventType string

const (
	LibraryEventCreated LibraryEventType = "created"
	LibraryEventRemoved LibraryEventType = "removed"
	LibraryEventChanged LibraryEventType = "changed"
)

// LibraryEvent is pushed to websocket clients when a ringtone file changes.
type LibraryEvent struct {
	Type      LibraryEventType `json:"type"`
	Folder    string           `json:"folder"`
	Filename  string           `json:"filename"`
	Timestamp int64            `json:"timestamp"`
}

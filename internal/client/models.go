// Package client is the room-participant side of the shared playlist: an
// HTTP store for mutations, a live subscription over websocket, and an
// in-memory view of the queue that stays consistent as events arrive.
package client

import "encoding/json"

// Entry mirrors the playlist rows the backend serves.
type Entry struct {
	ID            string `json:"id"`
	URL           string `json:"url"`
	Title         string `json:"title"`
	ThumbnailURL  string `json:"thumbnailUrl"`
	DurationLabel string `json:"durationLabel"`
	AddedAt       int64  `json:"addedAt"`
	AddedBy       string `json:"addedBy"`
	SortOrder     *int   `json:"sortOrder,omitempty"`
}

const (
	EventEntryAdded   = "entry.added"
	EventEntryUpdated = "entry.updated"
	EventEntryDeleted = "entry.deleted"
)

// envelope is the wire frame events arrive in. The payload is decoded
// lazily because its shape depends on the event type.
type envelope struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

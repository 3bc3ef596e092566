package playlist

// Entry is one queued video. Content fields are fetched once at creation
// time and never refreshed; only SortOrder is ever rewritten afterwards.
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

const anonymousLabel = "anonymous"

// Change-feed event types published to the broadcast channel.
const (
	EventEntryAdded   = "entry.added"
	EventEntryUpdated = "entry.updated"
	EventEntryDeleted = "entry.deleted"
)

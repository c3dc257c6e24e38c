package domain

import (
	"time"
)

// Post is a local content item. Content is stored entity-escaped.
// URI is canonical and embeds the storage-assigned id; it is written
// in the same transaction as the insert, so the placeholder value is
// never visible outside the repository.
type Post struct {
	ID      int64     `json:"id"`
	URI     string    `json:"uri"`
	ActorID int64     `json:"actor_id"`
	Content string    `json:"content"`
	URL     *string   `json:"url,omitempty"`
	Created time.Time `json:"created"`
	// Joined fields
	ActorHandle string  `json:"actor_handle,omitempty"`
	ActorName   *string `json:"actor_name,omitempty"`
	ActorURL    *string `json:"actor_url,omitempty"`
}

package domain

import (
	"time"
)

// Actor is an identity in the federated graph, local or remote.
// UserID is set only for the local actor. URI is the natural key:
// remote actors are upserted on it and never duplicated.
type Actor struct {
	ID             int64     `json:"id"`
	UserID         *int64    `json:"user_id,omitempty"`
	URI            string    `json:"uri"`
	Handle         string    `json:"handle"`
	Name           *string   `json:"name,omitempty"`
	InboxURL       string    `json:"inbox_url"`
	SharedInboxURL *string   `json:"shared_inbox_url,omitempty"`
	URL            *string   `json:"url,omitempty"`
	Created        time.Time `json:"created"`
}

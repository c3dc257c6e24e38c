package service

import (
	"github.com/plumefed/plume/internal/domain"
)

// Notifier pushes node events to connected UI sessions. Calls must not
// block; a nil Notifier disables push entirely.
type Notifier interface {
	NotifyNewPost(post *domain.Post)
	NotifyNewFollower(handle string)
}

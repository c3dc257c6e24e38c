package domain

import (
	"time"
)

// Follow is a directed edge follower → following between actor rows.
// The pair is unique at the storage level; inserting an existing edge
// is a no-op.
type Follow struct {
	FollowerID  int64     `json:"follower_id"`
	FollowingID int64     `json:"following_id"`
	Created     time.Time `json:"created"`
}

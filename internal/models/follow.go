package models

import (
	"time"
)

// FollowEdge is a directed follower->followed relation, unique per pair. The
// follower fields snapshot the follower's profile when the edge was created so
// a follower list renders without joining profiles.
type FollowEdge struct {
	ID         uint   `gorm:"primaryKey" json:"id"`
	FollowerID string `gorm:"type:uuid;not null;uniqueIndex:idx_follow_pair;index" json:"follower_id"`
	FollowedID string `gorm:"type:uuid;not null;uniqueIndex:idx_follow_pair;index" json:"followed_id"`

	FollowerName    string `gorm:"size:128;not null" json:"follower_name"`
	FollowerHandle  string `gorm:"size:128" json:"follower_handle"`
	FollowerPicture string `gorm:"size:512" json:"follower_picture"`

	CreatedAt time.Time `json:"created_at"`
}

// TableName keeps the historical table name used by the product database.
func (FollowEdge) TableName() string { return "follow_edges" }

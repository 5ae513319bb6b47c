package models

import (
	"time"
)

// LikeEdge records that a user liked a post, unique per pair. Its presence is
// the liked boolean; per-post counts are derived by aggregation so the count
// can never drift from the edges.
type LikeEdge struct {
	ID     uint   `gorm:"primaryKey" json:"id"`
	UserID string `gorm:"type:uuid;not null;uniqueIndex:idx_like_pair;index" json:"user_id"`
	PostID uint   `gorm:"not null;uniqueIndex:idx_like_pair;index" json:"post_id"`

	CreatedAt time.Time `json:"created_at"`
}

// TableName keeps the historical table name used by the product database.
func (LikeEdge) TableName() string { return "like_edges" }

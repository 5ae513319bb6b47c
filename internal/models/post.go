package models

import (
	"time"
)

// Post is an immutable feed entry owned by its author. The author fields are a
// denormalized snapshot taken at creation time: a later rename or avatar change
// does not rewrite existing posts.
type Post struct {
	ID       uint   `gorm:"primaryKey" json:"id"`
	Title    string `gorm:"size:120;not null" json:"title"`
	Content  string `gorm:"type:text;not null" json:"content"`
	ImageURL string `gorm:"size:512" json:"image_url,omitempty"`

	AuthorID      string `gorm:"type:uuid;not null;index" json:"author_id"`
	AuthorName    string `gorm:"size:128;not null" json:"author_name"`
	AuthorPicture string `gorm:"size:512" json:"author_picture"`
	AuthorHandle  string `gorm:"size:128;index" json:"author_handle"`

	Comments []Comment `gorm:"foreignKey:PostID;constraint:OnDelete:CASCADE" json:"comments"`

	// LikeCount and Liked are computed per request, never persisted.
	LikeCount int64 `gorm:"-" json:"like_count"`
	Liked     bool  `gorm:"-" json:"liked"`

	CreatedAt time.Time `gorm:"index" json:"created_at"`
}

// Comment is embedded in a post's payload. Like posts it carries an author
// snapshot instead of a live join.
type Comment struct {
	ID     uint `gorm:"primaryKey" json:"id"`
	PostID uint `gorm:"not null;index" json:"post_id"`

	AuthorID      string `gorm:"type:uuid;not null" json:"author_id"`
	AuthorName    string `gorm:"size:128;not null" json:"author_name"`
	AuthorPicture string `gorm:"size:512" json:"author_picture"`

	Content   string    `gorm:"size:1000;not null" json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

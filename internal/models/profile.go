package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Profile is a user's public identity. The Handle column holds the normalized
// form of DisplayName (lowercase, diacritics folded, separators collapsed) and
// backs both uniqueness checks and user search.
type Profile struct {
	ID          string `gorm:"primaryKey;type:uuid" json:"id"`
	DisplayName string `gorm:"size:128;not null" json:"display_name"`
	Handle      string `gorm:"size:128;uniqueIndex;not null" json:"handle"`
	Bio         string `gorm:"size:500" json:"bio"`
	BannerURL   string `gorm:"size:512" json:"banner_url"`
	PictureURL  string `gorm:"size:512" json:"picture_url"`

	SocialLinks datatypes.JSONMap `json:"social_links"`
	Preferences datatypes.JSONMap `json:"preferences"`

	FollowerCount  int64 `gorm:"default:0" json:"follower_count"`
	FollowingCount int64 `gorm:"default:0" json:"following_count"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// BeforeCreate ensures a UUID is present before persisting.
func (p *Profile) BeforeCreate(tx *gorm.DB) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	return nil
}

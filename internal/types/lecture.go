package types

import (
	"time"

	"github.com/google/uuid"
)

type Lecture struct {
	ID       uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	CourseID uuid.UUID `gorm:"type:uuid;not null;index" json:"course_id"`
	Course   *Course   `gorm:"constraint:OnDelete:CASCADE;foreignKey:CourseID;references:ID" json:"-"`
	Title    string    `gorm:"column:title;not null" json:"title"`

	// Position preserves the append order within the owning course.
	Position int `gorm:"column:position;not null;default:0" json:"position"`

	VideoURL     string `gorm:"column:video_url" json:"video_url"`
	VideoAssetID string `gorm:"column:video_asset_id" json:"video_asset_id"`

	IsPreviewFree bool `gorm:"column:is_preview_free;not null;default:false" json:"is_preview_free"`

	CreatedAt time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}

func (Lecture) TableName() string { return "lecture" }

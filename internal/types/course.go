package types

import (
	"time"

	"github.com/google/uuid"
)

const (
	CourseLevelBeginner = "Beginner"
	CourseLevelMedium   = "Medium"
	CourseLevelAdvance  = "Advance"
)

type Course struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	CreatorID   uuid.UUID `gorm:"type:uuid;not null;index" json:"creator_id"`
	Creator     *User     `gorm:"constraint:OnDelete:CASCADE;foreignKey:CreatorID;references:ID" json:"creator,omitempty"`
	Title       string    `gorm:"column:title;not null" json:"title"`
	Subtitle    string    `gorm:"column:subtitle" json:"subtitle"`
	Description string    `gorm:"column:description" json:"description"`
	Category    string    `gorm:"column:category;not null;index" json:"category"`
	Level       string    `gorm:"column:level" json:"level"`

	// Major currency units; 0 means the instructor has not priced the
	// course yet and checkout is refused.
	Price int64 `gorm:"column:price;not null;default:0" json:"price"`

	ThumbnailURL     string `gorm:"column:thumbnail_url" json:"thumbnail_url"`
	ThumbnailAssetID string `gorm:"column:thumbnail_asset_id" json:"-"`
	IsPublished      bool   `gorm:"column:is_published;not null;default:false" json:"is_published"`

	Lectures []*Lecture `gorm:"foreignKey:CourseID;references:ID" json:"lectures,omitempty"`

	// Mutated only by webhook reconciliation, set-union semantics.
	EnrolledStudents []*User `gorm:"many2many:course_enrolled_student" json:"enrolled_students,omitempty"`

	CreatedAt time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}

func (Course) TableName() string { return "course" }

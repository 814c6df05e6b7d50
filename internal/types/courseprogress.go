package types

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// LectureView is one entry of the per-lecture progress array embedded in
// CourseProgress.
type LectureView struct {
	LectureID uuid.UUID `json:"lecture_id"`
	Viewed    bool      `json:"viewed"`
}

// CourseProgress holds one row per (user, course); the composite unique
// index deduplicates racing first inserts.
type CourseProgress struct {
	ID        uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	UserID    uuid.UUID      `gorm:"type:uuid;not null;index:idx_user_course,unique" json:"user_id"`
	User      *User          `gorm:"constraint:OnDelete:CASCADE;foreignKey:UserID;references:ID" json:"-"`
	CourseID  uuid.UUID      `gorm:"type:uuid;not null;index:idx_user_course,unique" json:"course_id"`
	Course    *Course        `gorm:"constraint:OnDelete:CASCADE;foreignKey:CourseID;references:ID" json:"-"`
	Completed bool           `gorm:"column:completed;not null;default:false" json:"completed"`
	Lectures  datatypes.JSON `gorm:"column:lectures;type:jsonb" json:"lectures"`
	CreatedAt time.Time      `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time      `gorm:"not null" json:"updated_at"`
}

func (CourseProgress) TableName() string { return "course_progress" }

func (cp *CourseProgress) Views() ([]LectureView, error) {
	if len(cp.Lectures) == 0 {
		return []LectureView{}, nil
	}
	var views []LectureView
	if err := json.Unmarshal(cp.Lectures, &views); err != nil {
		return nil, err
	}
	return views, nil
}

func (cp *CourseProgress) SetViews(views []LectureView) error {
	raw, err := json.Marshal(views)
	if err != nil {
		return err
	}
	cp.Lectures = datatypes.JSON(raw)
	return nil
}

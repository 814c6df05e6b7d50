package types

import (
	"time"

	"github.com/google/uuid"
)

const (
	RoleInstructor = "instructor"
	RoleStudent    = "student"
)

type User struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Email     string    `gorm:"uniqueIndex;not null;column:email" json:"email"`
	Password  string    `gorm:"not null;column:password" json:"-"`
	Name      string    `gorm:"not null;column:name" json:"name"`
	Role      string    `gorm:"not null;default:'student';column:role" json:"role"`
	PhotoURL  string    `gorm:"column:photo_url" json:"photo_url"`
	CreatedAt time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`

	// Mutated only by webhook reconciliation, set-union semantics.
	EnrolledCourses []*Course `gorm:"many2many:user_enrolled_course" json:"enrolled_courses,omitempty"`
}

func (User) TableName() string { return "user" }

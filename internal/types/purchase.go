package types

import (
	"time"

	"github.com/google/uuid"
)

const (
	PurchaseStatusPending  = "pending"
	PurchaseStatusComplete = "complete"
	PurchaseStatusFailed   = "failed"
)

// Purchase records one checkout attempt. Rows are never deleted; the
// payment session id is the correlation key against the gateway and is
// unique so a redelivered event always resolves to the same row.
type Purchase struct {
	ID       uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	CourseID uuid.UUID `gorm:"type:uuid;not null;index" json:"course_id"`
	Course   *Course   `gorm:"foreignKey:CourseID;references:ID" json:"course,omitempty"`
	UserID   uuid.UUID `gorm:"type:uuid;not null;index" json:"user_id"`
	User     *User     `gorm:"foreignKey:UserID;references:ID" json:"-"`

	// Major currency units. Overwritten by the gateway-reported total
	// during reconciliation.
	Amount int64 `gorm:"column:amount;not null" json:"amount"`

	Status           string `gorm:"column:status;not null;default:'pending'" json:"status"`
	PaymentSessionID string `gorm:"uniqueIndex;not null;column:payment_session_id" json:"payment_session_id"`

	CreatedAt time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}

func (Purchase) TableName() string { return "purchase" }

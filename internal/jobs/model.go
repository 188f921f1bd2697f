package jobs

import "time"

const TypeWelcomeEmail = "WELCOME_EMAIL"

type Job struct {
	ID     uint64 `gorm:"primaryKey"`
	UserID uint64 `gorm:"index;not null"`

	Type    string `gorm:"type:text;not null"` // WELCOME_EMAIL
	Payload []byte `gorm:"type:jsonb;not null"`

	RunAt  time.Time `gorm:"index;not null"`
	Status string    `gorm:"index;not null;default:'PENDING'"` // PENDING/RUNNING/DONE/FAILED

	Attempts    int `gorm:"not null;default:0"`
	MaxAttempts int `gorm:"not null;default:8"`

	LockedBy *string    `gorm:"type:text"`
	LockedAt *time.Time `gorm:"type:timestamptz"`

	LastError *string `gorm:"type:text"`

	CreatedAt time.Time
	UpdatedAt time.Time
}

// welcomePayload is what EnqueueWelcome stores and the worker reads back.
type welcomePayload struct {
	UserID   uint64 `json:"user_id"`
	Email    string `json:"email"`
	FullName string `json:"full_name"`
}

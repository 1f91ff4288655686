package entities

import (
	"time"

	"gorm.io/gorm"
)

// KeepToken stores an encrypted Google master token for one Keep account.
type KeepToken struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`

	// Email is the Google account the token belongs to
	Email string `gorm:"type:varchar(255);not null;uniqueIndex" json:"email"`

	// MasterToken is the base64-encoded AES-256-GCM ciphertext of the master token
	MasterToken string `gorm:"type:text;not null" json:"-"`

	// DeviceID is the android id the master token was issued to. Google
	// rejects OAuth exchanges from a different device id.
	DeviceID string `gorm:"type:varchar(32);not null" json:"device_id"`

	LastUsedAt *time.Time `json:"last_used_at,omitempty"`
}

func (KeepToken) TableName() string {
	return "keep_tokens"
}

// DecryptedKeepToken is a KeepToken with its secret in plain text.
type DecryptedKeepToken struct {
	Email       string
	MasterToken string
	DeviceID    string
	LastUsedAt  *time.Time
}

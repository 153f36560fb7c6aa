// Package entity defines the domain entities for the auth feature.
package entity

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// User represents a registered account.
// It carries the credential state the auth flows operate on.
type User struct {
	// ID is an opaque identifier (UUIDv4) assigned on creation.
	ID string `gorm:"primaryKey;size:36"`

	// Email is the login identifier. It is stored lower-cased and must be
	// unique across all users.
	Email string `gorm:"uniqueIndex;size:255;not null"`

	// HashedPassword is the encoded password hash. Never the plaintext.
	HashedPassword string `gorm:"size:255;not null"`

	// ConfirmedEmail is set once the user redeems an email-confirmation token.
	ConfirmedEmail bool `gorm:"not null;default:false"`

	// LastLogin is the time of the last successful authentication, nil until then.
	LastLogin *time.Time

	CreatedAt time.Time
	UpdatedAt time.Time
}

// BeforeCreate assigns a fresh ID when the caller left it empty.
func (u *User) BeforeCreate(_ *gorm.DB) error {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	return nil
}

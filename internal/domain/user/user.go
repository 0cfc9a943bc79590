package user

import (
	"time"

	"github.com/google/uuid"
)

// User exists so versions carry created_by / last_updated_by attribution.
// Emails are stored lower-cased; uniqueness is therefore case-insensitive.
type User struct {
	ID           uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	Email        string    `gorm:"column:email;not null;uniqueIndex" json:"email"`
	PasswordHash string    `gorm:"column:password_hash;not null" json:"-"`
	Name         string    `gorm:"column:name" json:"name"`
	Active       bool      `gorm:"column:active;not null;default:true" json:"active"`

	CreatedAt time.Time `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;default:now()" json:"updated_at"`
}

func (User) TableName() string { return "app_user" }

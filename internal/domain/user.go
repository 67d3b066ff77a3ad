package domain

import (
	"time"

	"github.com/google/uuid" // UUID generation for primary keys
	"gorm.io/gorm"           // GORM ORM library
)

// User Model
type User struct {
	ID          string    `gorm:"primaryKey;size:36" json:"id"`    // Primary key (UUID)
	Email       string    `gorm:"unique;not null" json:"email"`    // Unique email address
	Password    string    `gorm:"not null" json:"-"`               // Hashed password, never serialized
	FirstName   string    `json:"first_name"`                      // Optional first name
	LastName    string    `json:"last_name"`                       // Optional last name
	PhoneNumber string    `json:"phone_number"`                    // Optional phone number
	Role        string    `gorm:"default:user" json:"role"`        // Role: user or admin
	Account     Account   `gorm:"constraint:OnUpdate:CASCADE,OnDelete:SET NULL;" json:"account,omitempty"` // One-to-one relationship with Account
	CreatedAt   time.Time `json:"created_at"`                      // Timestamp of creation
	UpdatedAt   time.Time `json:"updated_at"`                      // Timestamp of last update
}

// BeforeCreate assigns a UUID primary key when none is set
func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == "" {
		u.ID = uuid.NewString() // Generate a new UUID
	}
	return nil
}

package domain

import (
	"time"

	"github.com/google/uuid" // UUID generation for primary keys
	"gorm.io/gorm"           // GORM ORM library
)

// Account status values
const (
	AccountStatusActive    = "active"    // Account can charge and pay
	AccountStatusSuspended = "suspended" // Account temporarily disabled
	AccountStatusLocked    = "locked"    // Account locked by an operator
)

// Balance limits in yen
const (
	BalanceCap   = 200000 // Maximum balance an account may hold
	MaxChargeYen = 50000  // Maximum amount of a single charge
)

// Account Model: the balance-holding record of a transit card
type Account struct {
	ID         string    `gorm:"primaryKey;size:36" json:"id"`           // Primary key (UUID)
	UserID     string    `gorm:"uniqueIndex;size:36" json:"user_id"`     // Foreign key to User (one account per user)
	Balance    int       `gorm:"not null;default:0" json:"balance"`      // Current balance in yen, 0..BalanceCap
	CardNumber string    `gorm:"size:32" json:"card_number"`             // Display card number
	Status     string    `gorm:"size:16;default:active" json:"status"`   // active, suspended or locked
	CreatedAt  time.Time `json:"created_at"`                             // Timestamp of creation
	UpdatedAt  time.Time `json:"updated_at"`                             // Timestamp of last update
}

// BeforeCreate assigns a UUID primary key when none is set
func (a *Account) BeforeCreate(tx *gorm.DB) error {
	if a.ID == "" {
		a.ID = uuid.NewString() // Generate a new UUID
	}
	return nil
}

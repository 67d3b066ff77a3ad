package domain

import (
	"time"

	"github.com/google/uuid" // UUID generation for primary keys
	"gorm.io/gorm"           // GORM ORM library
)

// CommuterPass status values
const (
	PassStatusActive   = "active"   // Pass is valid for travel
	PassStatusExpired  = "expired"  // Pass reached its end date
	PassStatusCanceled = "canceled" // Pass canceled by the holder
)

// CommuterPass Model: a purchased commuter pass for a station pair
type CommuterPass struct {
	ID           string    `gorm:"primaryKey;size:36" json:"id"`         // Primary key (UUID)
	AccountID    string    `gorm:"index;size:36" json:"account_id"`      // Foreign key to Account
	StartStation string    `gorm:"not null" json:"start_station"`        // Departure station
	EndStation   string    `gorm:"not null" json:"end_station"`          // Arrival station
	RouteName    string    `json:"route_name"`                           // Optional route label
	StartDate    time.Time `json:"start_date"`                           // First day of validity
	EndDate      time.Time `json:"end_date"`                             // Last day of validity
	Price        int       `gorm:"not null" json:"price"`                // Price paid in yen
	Status       string    `gorm:"size:16;default:active" json:"status"` // active, expired or canceled
	CreatedAt    time.Time `json:"created_at"`                           // Timestamp of creation
	UpdatedAt    time.Time `json:"updated_at"`                           // Timestamp of last update
}

// BeforeCreate assigns a UUID primary key when none is set
func (p *CommuterPass) BeforeCreate(tx *gorm.DB) error {
	if p.ID == "" {
		p.ID = uuid.NewString() // Generate a new UUID
	}
	return nil
}

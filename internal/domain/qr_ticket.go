package domain

import (
	"time"

	"github.com/google/uuid" // UUID generation for primary keys
	"gorm.io/gorm"           // GORM ORM library
)

// QRTicket status values
const (
	TicketStatusIssued   = "issued"   // Ticket issued, not yet used
	TicketStatusUsed     = "used"     // Ticket consumed at a gate
	TicketStatusExpired  = "expired"  // Ticket passed its expiry
	TicketStatusCanceled = "canceled" // Ticket canceled and refunded
)

// QRTicket Model: a single-ride ticket presented as a QR code
type QRTicket struct {
	ID           string    `gorm:"primaryKey;size:36" json:"id"`         // Primary key (UUID)
	AccountID    string    `gorm:"index;size:36" json:"account_id"`      // Foreign key to Account
	TicketCode   string    `gorm:"uniqueIndex;size:32" json:"ticket_code"` // Unique human-readable ticket code
	IssueDate    time.Time `json:"issue_date"`                           // When the ticket was issued
	ExpiryDate   time.Time `json:"expiry_date"`                          // End of the issuance day
	StartStation string    `json:"start_station"`                        // Departure station
	EndStation   string    `json:"end_station"`                          // Arrival station
	Fare         int       `gorm:"not null" json:"fare"`                 // Fare paid in yen
	Status       string    `gorm:"size:16;default:issued" json:"status"` // issued, used, expired or canceled
	CreatedAt    time.Time `json:"created_at"`                           // Timestamp of creation
	UpdatedAt    time.Time `json:"updated_at"`                           // Timestamp of last update
}

// BeforeCreate assigns a UUID primary key when none is set
func (t *QRTicket) BeforeCreate(tx *gorm.DB) error {
	if t.ID == "" {
		t.ID = uuid.NewString() // Generate a new UUID
	}
	return nil
}

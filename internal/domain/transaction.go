package domain

import (
	"time"

	"github.com/google/uuid" // UUID generation for primary keys
	"gorm.io/gorm"           // GORM ORM library
)

// Transaction type values
const (
	TransactionTypeCharge          = "charge"            // Real charge (reserved, unused by the demo flows)
	TransactionTypeFare            = "fare"              // QR ticket fare debit
	TransactionTypePurchase        = "purchase"          // Generic purchase debit
	TransactionTypeCommuterPassBuy = "commuter_pass_buy" // Commuter pass purchase debit
	TransactionTypeDemoCharge      = "demo_charge"       // Demo charge credit
	TransactionTypeDemoPurchase    = "demo_purchase"     // Demo purchase debit
)

// Transaction Model: append-only audit record of a balance mutation.
// Amounts are signed: positive for credits, negative for debits.
type Transaction struct {
	ID              string    `gorm:"primaryKey;size:36" json:"id"`      // Primary key (UUID)
	AccountID       string    `gorm:"index;size:36" json:"account_id"`   // Foreign key to Account
	Type            string    `gorm:"size:32;not null" json:"type"`      // Transaction type
	Amount          int       `gorm:"not null" json:"amount"`            // Signed amount in yen
	Description     string    `json:"description"`                       // Optional human-readable description
	Location        string    `json:"location"`                          // Optional location label
	TransactionDate time.Time `gorm:"index" json:"transaction_date"`     // When the mutation happened
	CreatedAt       time.Time `json:"created_at"`                        // Timestamp of creation
	UpdatedAt       time.Time `json:"updated_at"`                        // Timestamp of last update
}

// BeforeCreate assigns a UUID primary key when none is set
func (t *Transaction) BeforeCreate(tx *gorm.DB) error {
	if t.ID == "" {
		t.ID = uuid.NewString() // Generate a new UUID
	}
	return nil
}

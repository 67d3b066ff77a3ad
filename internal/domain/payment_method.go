package domain

import (
	"time"

	"github.com/google/uuid" // UUID generation for primary keys
	"gorm.io/gorm"           // GORM ORM library
)

// PaymentMethod type values
const (
	PaymentTypeCreditCard  = "credit_card"     // Credit card
	PaymentTypePayPay      = "e_money_paypay"  // PayPay e-money
	PaymentTypeLinePay     = "e_money_linepay" // LINE Pay e-money
	PaymentTypeVirtualCard = "virtual_card"    // Virtual card
)

// PaymentMethod Model: a registered way to fund charges.
// Only a display label in the demo flows; no real money moves through it.
// At most one method per user may have IsDefault set.
type PaymentMethod struct {
	ID          string    `gorm:"primaryKey;size:36" json:"id"`       // Primary key (UUID)
	UserID      string    `gorm:"index;size:36" json:"user_id"`       // Foreign key to User
	Type        string    `gorm:"size:32;not null" json:"type"`       // Payment method type
	DisplayName string    `json:"display_name"`                       // Optional display name
	IsDefault   bool      `gorm:"default:false" json:"is_default"`    // Whether this is the default method
	CreatedAt   time.Time `json:"created_at"`                         // Timestamp of creation
	UpdatedAt   time.Time `json:"updated_at"`                         // Timestamp of last update
}

// BeforeCreate assigns a UUID primary key when none is set
func (m *PaymentMethod) BeforeCreate(tx *gorm.DB) error {
	if m.ID == "" {
		m.ID = uuid.NewString() // Generate a new UUID
	}
	return nil
}

// PaymentTypeDisplayName returns the label shown for a payment method type
func PaymentTypeDisplayName(t string) string {
	switch t {
	case PaymentTypeCreditCard:
		return "Credit Card"
	case PaymentTypePayPay:
		return "PayPay"
	case PaymentTypeLinePay:
		return "LINE Pay"
	case PaymentTypeVirtualCard:
		return "Virtual Card"
	default:
		return t // Fall back to the raw type string
	}
}

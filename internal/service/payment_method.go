package service

import (
	"fmt" // Error wrapping

	"transit_card/internal/domain" // Importing domain models

	"gorm.io/gorm" // GORM ORM library
)

// PaymentMethodService manages a user's registered payment methods. These are
// display records only; no money moves through them.
type PaymentMethodService struct {
	db *gorm.DB // Injected store handle
}

// NewPaymentMethodService creates a PaymentMethodService backed by db
func NewPaymentMethodService(db *gorm.DB) *PaymentMethodService {
	return &PaymentMethodService{db: db}
}

// validPaymentType reports whether t is a known payment method type
func validPaymentType(t string) bool {
	switch t {
	case domain.PaymentTypeCreditCard, domain.PaymentTypePayPay,
		domain.PaymentTypeLinePay, domain.PaymentTypeVirtualCard:
		return true
	}
	return false
}

// List returns the user's payment methods, default first, then newest first
func (s *PaymentMethodService) List(userID string) ([]domain.PaymentMethod, error) {
	var methods []domain.PaymentMethod
	if err := s.db.Where("user_id = ?", userID).
		Order("is_default desc").
		Order("created_at desc").
		Find(&methods).Error; err != nil {
		return nil, fmt.Errorf("fetch payment methods: %w", err)
	}
	return methods, nil
}

// GetDefault returns the user's default payment method, or nil when none is
// set. Having no default is not an error.
func (s *PaymentMethodService) GetDefault(userID string) (*domain.PaymentMethod, error) {
	var method domain.PaymentMethod
	err := s.db.Where("user_id = ? AND is_default = ?", userID, true).First(&method).Error
	if err == gorm.ErrRecordNotFound {
		return nil, nil // No default set
	}
	if err != nil {
		return nil, fmt.Errorf("fetch default payment method: %w", err)
	}
	return &method, nil
}

// Add registers a payment method. When isDefault is set, every other method
// of the user is cleared first so at most one default exists; clear and
// insert run in one store transaction.
func (s *PaymentMethodService) Add(userID, methodType, displayName string, isDefault bool) (*domain.PaymentMethod, error) {
	if !validPaymentType(methodType) {
		return nil, ErrInvalidPaymentType
	}
	method := domain.PaymentMethod{
		UserID:      userID,
		Type:        methodType,
		DisplayName: displayName,
		IsDefault:   isDefault,
	}
	err := s.db.Transaction(func(tx *gorm.DB) error {
		if isDefault {
			// Clear any existing default before setting a new one
			if err := tx.Model(&domain.PaymentMethod{}).
				Where("user_id = ?", userID).
				Update("is_default", false).Error; err != nil {
				return fmt.Errorf("clear default payment methods: %w", err)
			}
		}
		if err := tx.Create(&method).Error; err != nil {
			return fmt.Errorf("create payment method: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &method, nil
}

// Delete removes one of the user's payment methods
func (s *PaymentMethodService) Delete(userID, paymentMethodID string) error {
	res := s.db.Where("id = ? AND user_id = ?", paymentMethodID, userID).
		Delete(&domain.PaymentMethod{})
	if res.Error != nil {
		return fmt.Errorf("delete payment method: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrPaymentMethodNotFound
	}
	return nil
}

// SetDefault makes the given method the user's only default. The clear and
// set writes run in one store transaction, and the set is scoped to the user
// so a foreign method id never matches.
func (s *PaymentMethodService) SetDefault(userID, paymentMethodID string) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		// Clear any existing default
		if err := tx.Model(&domain.PaymentMethod{}).
			Where("user_id = ?", userID).
			Update("is_default", false).Error; err != nil {
			return fmt.Errorf("clear default payment methods: %w", err)
		}
		// Set the new default, verifying the method belongs to the user
		res := tx.Model(&domain.PaymentMethod{}).
			Where("id = ? AND user_id = ?", paymentMethodID, userID).
			Update("is_default", true)
		if res.Error != nil {
			return fmt.Errorf("set default payment method: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return ErrPaymentMethodNotFound // Rolls the clear back
		}
		return nil
	})
}

package service

import (
	"errors"
	"testing"

	"transit_card/internal/domain"

	"github.com/google/uuid"
)

func TestAddPaymentMethod_SingleDefault(t *testing.T) {
	db := setupTestDB(t)
	methods := NewPaymentMethodService(db)
	userID := uuid.NewString()

	first, err := methods.Add(userID, domain.PaymentTypeCreditCard, "My Visa", true)
	if err != nil {
		t.Fatalf("Add failed: %v", err)
	}
	if !first.IsDefault {
		t.Error("Expected the first method to be default")
	}
	// Adding a second default clears the first
	second, err := methods.Add(userID, domain.PaymentTypePayPay, "", true)
	if err != nil {
		t.Fatalf("Add failed: %v", err)
	}
	if !second.IsDefault {
		t.Error("Expected the second method to be default")
	}
	var defaults int64
	db.Model(&domain.PaymentMethod{}).Where("user_id = ? AND is_default = ?", userID, true).Count(&defaults)
	if defaults != 1 {
		t.Errorf("Expected exactly one default, got %d", defaults)
	}
	got, err := methods.GetDefault(userID)
	if err != nil {
		t.Fatalf("GetDefault failed: %v", err)
	}
	if got == nil || got.ID != second.ID {
		t.Errorf("Expected default %q, got %+v", second.ID, got)
	}
}

func TestAddPaymentMethod_RejectsUnknownType(t *testing.T) {
	db := setupTestDB(t)
	methods := NewPaymentMethodService(db)

	if _, err := methods.Add(uuid.NewString(), "cash", "", false); !errors.Is(err, ErrInvalidPaymentType) {
		t.Fatalf("Expected ErrInvalidPaymentType, got %v", err)
	}
}

func TestGetDefault_NoneSet(t *testing.T) {
	db := setupTestDB(t)
	methods := NewPaymentMethodService(db)
	userID := uuid.NewString()

	if _, err := methods.Add(userID, domain.PaymentTypeLinePay, "", false); err != nil {
		t.Fatalf("Add failed: %v", err)
	}
	got, err := methods.GetDefault(userID)
	if err != nil {
		t.Fatalf("GetDefault failed: %v", err)
	}
	if got != nil {
		t.Errorf("Expected no default, got %+v", got)
	}
}

func TestSetDefault_ScopedToOwner(t *testing.T) {
	db := setupTestDB(t)
	methods := NewPaymentMethodService(db)
	owner := uuid.NewString()
	stranger := uuid.NewString()

	method, err := methods.Add(owner, domain.PaymentTypeVirtualCard, "", false)
	if err != nil {
		t.Fatalf("Add failed: %v", err)
	}
	// A different user cannot claim the method as their default
	if err := methods.SetDefault(stranger, method.ID); !errors.Is(err, ErrPaymentMethodNotFound) {
		t.Fatalf("Expected ErrPaymentMethodNotFound, got %v", err)
	}
	if err := methods.SetDefault(owner, method.ID); err != nil {
		t.Fatalf("SetDefault failed: %v", err)
	}
	got, err := methods.GetDefault(owner)
	if err != nil {
		t.Fatalf("GetDefault failed: %v", err)
	}
	if got == nil || got.ID != method.ID {
		t.Errorf("Expected default %q, got %+v", method.ID, got)
	}
}

func TestDeletePaymentMethod(t *testing.T) {
	db := setupTestDB(t)
	methods := NewPaymentMethodService(db)
	userID := uuid.NewString()

	method, err := methods.Add(userID, domain.PaymentTypeCreditCard, "", false)
	if err != nil {
		t.Fatalf("Add failed: %v", err)
	}
	// A stranger cannot delete it
	if err := methods.Delete(uuid.NewString(), method.ID); !errors.Is(err, ErrPaymentMethodNotFound) {
		t.Fatalf("Expected ErrPaymentMethodNotFound, got %v", err)
	}
	if err := methods.Delete(userID, method.ID); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	list, err := methods.List(userID)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(list) != 0 {
		t.Errorf("Expected no methods left, got %d", len(list))
	}
}

func TestList_DefaultFirst(t *testing.T) {
	db := setupTestDB(t)
	methods := NewPaymentMethodService(db)
	userID := uuid.NewString()

	if _, err := methods.Add(userID, domain.PaymentTypeCreditCard, "Visa", false); err != nil {
		t.Fatalf("Add failed: %v", err)
	}
	def, err := methods.Add(userID, domain.PaymentTypePayPay, "PayPay", true)
	if err != nil {
		t.Fatalf("Add failed: %v", err)
	}
	if _, err := methods.Add(userID, domain.PaymentTypeLinePay, "LINE Pay", false); err != nil {
		t.Fatalf("Add failed: %v", err)
	}

	list, err := methods.List(userID)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(list) != 3 {
		t.Fatalf("Expected 3 methods, got %d", len(list))
	}
	if list[0].ID != def.ID {
		t.Errorf("Expected the default method first, got %q", list[0].Type)
	}
}

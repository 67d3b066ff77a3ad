package service

import (
	"fmt"  // Error wrapping
	"time" // Transaction timestamps

	"transit_card/internal/domain" // Importing domain models

	"github.com/sirupsen/logrus" // Logging library
	"gorm.io/gorm"               // GORM ORM library
)

// DefaultTransactionLimit caps how many history rows a single read returns.
const DefaultTransactionLimit = 50

// AccountService carries the ledger operations on an account's balance.
// The store handle is injected so tests can substitute an in-memory database.
type AccountService struct {
	db *gorm.DB // Injected store handle
}

// NewAccountService creates an AccountService backed by db
func NewAccountService(db *gorm.DB) *AccountService {
	return &AccountService{db: db}
}

// ChargeResult is the outcome of a successful balance mutation. Warning is
// set when the mutation committed but the history record could not be
// written: balance and ledger are then inconsistent, which is tolerated.
type ChargeResult struct {
	NewBalance  int                 `json:"new_balance"`           // Balance after the mutation
	Transaction *domain.Transaction `json:"transaction,omitempty"` // Recorded history row, if any
	Warning     string              `json:"warning,omitempty"`     // Non-fatal history-loss warning
}

// GetAccount returns the account owned by userID
func (s *AccountService) GetAccount(userID string) (*domain.Account, error) {
	var account domain.Account
	if err := s.db.Where("user_id = ?", userID).First(&account).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, ErrAccountNotFound
		}
		return nil, fmt.Errorf("fetch account: %w", err)
	}
	return &account, nil
}

// GetAccountByID returns the account with the given id
func (s *AccountService) GetAccountByID(accountID string) (*domain.Account, error) {
	var account domain.Account
	if err := s.db.First(&account, "id = ?", accountID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, ErrAccountNotFound
		}
		return nil, fmt.Errorf("fetch account: %w", err)
	}
	return &account, nil
}

// GetTransactions returns the account's history, newest first. A limit of
// zero or anything above DefaultTransactionLimit is clamped to the default.
func (s *AccountService) GetTransactions(accountID string, limit int) ([]domain.Transaction, error) {
	if limit <= 0 || limit > DefaultTransactionLimit {
		limit = DefaultTransactionLimit // Clamp to the default row count
	}
	var transactions []domain.Transaction
	if err := s.db.Where("account_id = ?", accountID).
		Order("transaction_date desc").
		Limit(limit).
		Find(&transactions).Error; err != nil {
		return nil, fmt.Errorf("fetch transactions: %w", err)
	}
	return transactions, nil
}

// Charge increases the account balance by amount yen. The balance write is a
// single conditional update so two concurrent charges cannot lose an update
// or push the balance over the cap. Rejections happen before any write.
func (s *AccountService) Charge(accountID string, amount int, paymentMethodID string) (*ChargeResult, error) {
	// Amount validation
	if amount <= 0 {
		return nil, ErrInvalidAmount
	}
	if amount > domain.MaxChargeYen {
		return nil, ErrChargeLimitExceeded
	}
	// Credit the balance only while the cap holds
	res := s.db.Model(&domain.Account{}).
		Where("id = ? AND balance + ? <= ?", accountID, amount, domain.BalanceCap).
		Update("balance", gorm.Expr("balance + ?", amount))
	if res.Error != nil {
		return nil, fmt.Errorf("update balance: %w", res.Error)
	}
	// Zero rows matched: the account is missing or the cap was hit
	if res.RowsAffected == 0 {
		if _, err := s.GetAccountByID(accountID); err != nil {
			return nil, err // Account does not exist
		}
		return nil, ErrBalanceCapExceeded
	}
	// Read back the committed balance
	account, err := s.GetAccountByID(accountID)
	if err != nil {
		return nil, err
	}
	result := &ChargeResult{NewBalance: account.Balance}
	// Record the charge in the history ledger
	description := "Demo charge"
	if paymentMethodID != "" {
		description = "Demo charge (via payment method)"
	}
	transaction := domain.Transaction{
		AccountID:       accountID,
		Type:            domain.TransactionTypeDemoCharge,
		Amount:          amount, // Credits are positive
		Description:     description,
		TransactionDate: time.Now(),
	}
	if err := s.db.Create(&transaction).Error; err != nil {
		// The balance is already committed; history loss is tolerated
		logrus.WithFields(logrus.Fields{
			"account_id": accountID,
			"amount":     amount,
			"error":      err.Error(),
		}).Warn("Charge committed but history recording failed")
		result.Warning = "transaction history could not be recorded, but the charge completed"
		return result, nil
	}
	result.Transaction = &transaction
	return result, nil
}

// validDebitType reports whether t is a known debit classification. The
// history ledger is append-only, so unknown types are rejected before the
// write rather than cleaned up after.
func validDebitType(t string) bool {
	switch t {
	case domain.TransactionTypeFare,
		domain.TransactionTypePurchase,
		domain.TransactionTypeCommuterPassBuy,
		domain.TransactionTypeDemoPurchase:
		return true
	}
	return false
}

// Pay decreases the account balance by amount yen and records a history row
// with the given type, description and optional location. The debit is a
// conditional update guarded by the available balance.
func (s *AccountService) Pay(accountID string, amount int, description, txType, location string) (*ChargeResult, error) {
	// Amount validation
	if amount <= 0 {
		return nil, ErrInvalidAmount
	}
	if !validDebitType(txType) {
		return nil, ErrInvalidTransactionType
	}
	// Debit the balance only while funds suffice
	res := s.db.Model(&domain.Account{}).
		Where("id = ? AND balance >= ?", accountID, amount).
		Update("balance", gorm.Expr("balance - ?", amount))
	if res.Error != nil {
		return nil, fmt.Errorf("update balance: %w", res.Error)
	}
	// Zero rows matched: the account is missing or funds are short
	if res.RowsAffected == 0 {
		if _, err := s.GetAccountByID(accountID); err != nil {
			return nil, err // Account does not exist
		}
		return nil, ErrInsufficientBalance
	}
	// Read back the committed balance
	account, err := s.GetAccountByID(accountID)
	if err != nil {
		return nil, err
	}
	result := &ChargeResult{NewBalance: account.Balance}
	transaction := domain.Transaction{
		AccountID:       accountID,
		Type:            txType,
		Amount:          -amount, // Debits are negative
		Description:     description,
		Location:        location,
		TransactionDate: time.Now(),
	}
	if err := s.db.Create(&transaction).Error; err != nil {
		// The balance is already committed; history loss is tolerated
		logrus.WithFields(logrus.Fields{
			"account_id": accountID,
			"amount":     amount,
			"type":       txType,
			"error":      err.Error(),
		}).Warn("Payment committed but history recording failed")
		result.Warning = "transaction history could not be recorded, but the payment completed"
		return result, nil
	}
	result.Transaction = &transaction
	return result, nil
}

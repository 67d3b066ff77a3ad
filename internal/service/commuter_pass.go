package service

import (
	"fmt"  // Error wrapping
	"time" // Pass validity dates

	"transit_card/internal/domain" // Importing domain models
	"transit_card/internal/fare"   // Pass price calculation

	"github.com/sirupsen/logrus" // Logging library
	"gorm.io/gorm"               // GORM ORM library
)

// CommuterPassService sells and manages commuter passes.
type CommuterPassService struct {
	db *gorm.DB // Injected store handle
}

// NewCommuterPassService creates a CommuterPassService backed by db
func NewCommuterPassService(db *gorm.DB) *CommuterPassService {
	return &CommuterPassService{db: db}
}

// PurchaseResult is the outcome of a successful pass purchase
type PurchaseResult struct {
	Pass       *domain.CommuterPass `json:"commuter_pass"`     // The purchased pass
	NewBalance int                  `json:"new_balance"`       // Balance after the debit
	Warning    string               `json:"warning,omitempty"` // Non-fatal history-loss warning
}

// Purchase debits the pass price and creates an active pass running from now
// for the tier's day span. Debit and pass insert run in one store
// transaction, so a failed insert leaves the balance at its pre-debit value.
// The history record is written afterward; its failure is a warning only.
func (s *CommuterPassService) Purchase(accountID, startStation, endStation, routeName string, duration fare.PassDuration) (*PurchaseResult, error) {
	if !duration.Valid() {
		return nil, ErrInvalidDuration
	}
	price := fare.CalculatePassPrice(startStation, endStation, duration)
	var (
		pass       domain.CommuterPass
		newBalance int
	)
	err := s.db.Transaction(func(tx *gorm.DB) error {
		// Debit the balance only while funds suffice
		res := tx.Model(&domain.Account{}).
			Where("id = ? AND balance >= ?", accountID, price).
			Update("balance", gorm.Expr("balance - ?", price))
		if res.Error != nil {
			return fmt.Errorf("update balance: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			// Distinguish a missing account from an underfunded one
			var account domain.Account
			if err := tx.Select("balance").First(&account, "id = ?", accountID).Error; err != nil {
				return ErrAccountNotFound
			}
			return fmt.Errorf("%w (required: ¥%d, balance: ¥%d)", ErrInsufficientBalance, price, account.Balance)
		}
		now := time.Now()
		pass = domain.CommuterPass{
			AccountID:    accountID,
			StartStation: startStation,
			EndStation:   endStation,
			RouteName:    routeName,
			StartDate:    now,
			EndDate:      now.AddDate(0, 0, duration.Days()),
			Price:        price,
			Status:       domain.PassStatusActive,
		}
		if err := tx.Create(&pass).Error; err != nil {
			return fmt.Errorf("create commuter pass: %w", err) // Rolls the debit back
		}
		// Capture the balance as committed by this transaction
		var account domain.Account
		if err := tx.Select("balance").First(&account, "id = ?", accountID).Error; err != nil {
			return fmt.Errorf("fetch account: %w", err)
		}
		newBalance = account.Balance
		return nil
	})
	if err != nil {
		logrus.WithFields(logrus.Fields{
			"account_id":    accountID,
			"start_station": startStation,
			"end_station":   endStation,
			"price":         price,
			"error":         err.Error(),
		}).Error("Commuter pass purchase failed")
		return nil, err
	}
	result := &PurchaseResult{Pass: &pass, NewBalance: newBalance}
	// Record the purchase in the history ledger
	transaction := domain.Transaction{
		AccountID:       accountID,
		Type:            domain.TransactionTypeCommuterPassBuy,
		Amount:          -price, // Debits are negative
		Description:     fmt.Sprintf("Commuter pass: %s → %s (%s)", startStation, endStation, duration.Label()),
		TransactionDate: time.Now(),
	}
	if err := s.db.Create(&transaction).Error; err != nil {
		logrus.WithFields(logrus.Fields{
			"account_id": accountID,
			"pass_id":    pass.ID,
			"error":      err.Error(),
		}).Warn("Pass purchased but history recording failed")
		result.Warning = "transaction history could not be recorded, but the pass was purchased"
	}
	return result, nil
}

// Cancel marks a pass canceled. No refund is credited.
func (s *CommuterPassService) Cancel(passID string) error {
	res := s.db.Model(&domain.CommuterPass{}).
		Where("id = ?", passID).
		Update("status", domain.PassStatusCanceled)
	if res.Error != nil {
		return fmt.Errorf("cancel commuter pass: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrPassNotFound
	}
	return nil
}

// GetPasses returns all of the account's passes, newest first
func (s *CommuterPassService) GetPasses(accountID string) ([]domain.CommuterPass, error) {
	var passes []domain.CommuterPass
	if err := s.db.Where("account_id = ?", accountID).
		Order("created_at desc").
		Find(&passes).Error; err != nil {
		return nil, fmt.Errorf("fetch commuter passes: %w", err)
	}
	return passes, nil
}

// GetActivePasses returns the account's active passes, soonest to expire first
func (s *CommuterPassService) GetActivePasses(accountID string) ([]domain.CommuterPass, error) {
	var passes []domain.CommuterPass
	if err := s.db.Where("account_id = ? AND status = ?", accountID, domain.PassStatusActive).
		Order("end_date asc").
		Find(&passes).Error; err != nil {
		return nil, fmt.Errorf("fetch commuter passes: %w", err)
	}
	return passes, nil
}

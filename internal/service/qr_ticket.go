package service

import (
	"fmt"  // Error wrapping
	"time" // Issue and expiry dates

	"transit_card/internal/domain" // Importing domain models
	"transit_card/internal/fare"   // Fare calculation and ticket codes

	"github.com/sirupsen/logrus" // Logging library
	"gorm.io/gorm"               // GORM ORM library
)

// QRTicketService issues and transitions single-ride QR tickets.
type QRTicketService struct {
	db *gorm.DB // Injected store handle
}

// NewQRTicketService creates a QRTicketService backed by db
func NewQRTicketService(db *gorm.DB) *QRTicketService {
	return &QRTicketService{db: db}
}

// IssueResult is the outcome of a successful ticket issuance
type IssueResult struct {
	Ticket     *domain.QRTicket `json:"ticket"`            // The issued ticket
	NewBalance int              `json:"new_balance"`       // Balance after the fare debit
	Warning    string           `json:"warning,omitempty"` // Non-fatal history-loss warning
}

// CancelResult is the outcome of a ticket cancellation
type CancelResult struct {
	RefundAmount int    `json:"refund_amount"`     // Yen credited back, zero if the refund failed
	Warning      string `json:"warning,omitempty"` // Non-fatal refund-failure warning
}

// endOfDay returns the last instant of t's calendar day
func endOfDay(t time.Time) time.Time {
	year, month, day := t.Date()
	return time.Date(year, month, day, 23, 59, 59, 999_000_000, t.Location()) // 999 ms in nanoseconds
}

// Issue debits the fare for the station pair and creates an issued ticket
// valid until the end of the current day. The debit and the ticket insert run
// in one store transaction: if the insert fails the debit never commits, so
// the balance is back at its pre-debit value. Only the history record is
// written outside that unit, and its failure is a non-fatal warning.
func (s *QRTicketService) Issue(accountID, startStation, endStation string) (*IssueResult, error) {
	rideFare := fare.CalculateFare(startStation, endStation)
	var (
		ticket     domain.QRTicket
		newBalance int
	)
	err := s.db.Transaction(func(tx *gorm.DB) error {
		// Debit the balance only while funds suffice
		res := tx.Model(&domain.Account{}).
			Where("id = ? AND balance >= ?", accountID, rideFare).
			Update("balance", gorm.Expr("balance - ?", rideFare))
		if res.Error != nil {
			return fmt.Errorf("update balance: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			// Distinguish a missing account from an underfunded one
			var account domain.Account
			if err := tx.Select("balance").First(&account, "id = ?", accountID).Error; err != nil {
				return ErrAccountNotFound
			}
			return fmt.Errorf("%w (required: ¥%d, balance: ¥%d)", ErrInsufficientBalance, rideFare, account.Balance)
		}
		now := time.Now()
		ticket = domain.QRTicket{
			AccountID:    accountID,
			TicketCode:   fare.GenerateTicketCode(),
			IssueDate:    now,
			ExpiryDate:   endOfDay(now), // Valid until the last train of the day
			StartStation: startStation,
			EndStation:   endStation,
			Fare:         rideFare,
			Status:       domain.TicketStatusIssued,
		}
		if err := tx.Create(&ticket).Error; err != nil {
			return fmt.Errorf("create qr ticket: %w", err) // Rolls the debit back
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
			"fare":          rideFare,
			"error":         err.Error(),
		}).Error("QR ticket issuance failed")
		return nil, err
	}
	result := &IssueResult{Ticket: &ticket, NewBalance: newBalance}
	// Record the fare debit in the history ledger
	transaction := domain.Transaction{
		AccountID:       accountID,
		Type:            domain.TransactionTypeFare,
		Amount:          -rideFare, // Debits are negative
		Description:     fmt.Sprintf("QR ticket: %s → %s", startStation, endStation),
		TransactionDate: time.Now(),
	}
	if err := s.db.Create(&transaction).Error; err != nil {
		logrus.WithFields(logrus.Fields{
			"account_id": accountID,
			"ticket_id":  ticket.ID,
			"error":      err.Error(),
		}).Warn("Ticket issued but history recording failed")
		result.Warning = "transaction history could not be recorded, but the ticket was issued"
	}
	return result, nil
}

// Use transitions a ticket from issued to used. The ticket must belong to
// accountID, and the update is conditional on the current status, so a
// foreign, used, expired or canceled ticket never matches and the call fails
// without touching it. No balance movement happens here.
func (s *QRTicketService) Use(ticketID, accountID string) error {
	res := s.db.Model(&domain.QRTicket{}).
		Where("id = ? AND account_id = ? AND status = ?", ticketID, accountID, domain.TicketStatusIssued).
		Update("status", domain.TicketStatusUsed)
	if res.Error != nil {
		return fmt.Errorf("use qr ticket: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrTicketNotIssued // Missing, or not in issued state
	}
	return nil
}

// Cancel voids an issued ticket and refunds its fare to the account. The
// ticket must belong to accountID, so one holder can never cancel another
// holder's ticket and pocket the refund. If the refund write fails the ticket
// stays canceled and the failure is reported as a warning: the resulting
// inconsistency is logged as critical and not retried.
func (s *QRTicketService) Cancel(ticketID, accountID string) (*CancelResult, error) {
	// Fetch the ticket while it is still cancelable, scoped to its owner
	var ticket domain.QRTicket
	if err := s.db.Where("id = ? AND account_id = ? AND status = ?", ticketID, accountID, domain.TicketStatusIssued).
		First(&ticket).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, ErrTicketNotIssued
		}
		return nil, fmt.Errorf("fetch qr ticket: %w", err)
	}
	// Void the ticket, still conditional on the owner and the issued state
	res := s.db.Model(&domain.QRTicket{}).
		Where("id = ? AND account_id = ? AND status = ?", ticketID, accountID, domain.TicketStatusIssued).
		Update("status", domain.TicketStatusCanceled)
	if res.Error != nil {
		return nil, fmt.Errorf("cancel qr ticket: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, ErrTicketNotIssued // Raced with a use or another cancel
	}
	// Credit the fare back, guarded by the balance cap
	refund := s.db.Model(&domain.Account{}).
		Where("id = ? AND balance + ? <= ?", accountID, ticket.Fare, domain.BalanceCap).
		Update("balance", gorm.Expr("balance + ?", ticket.Fare))
	if refund.Error != nil || refund.RowsAffected == 0 {
		// The ticket is already canceled; the holder keeps no refund
		fields := logrus.Fields{
			"ticket_id":  ticketID,
			"account_id": accountID,
			"fare":       ticket.Fare,
		}
		if refund.Error != nil {
			fields["error"] = refund.Error.Error()
		}
		logrus.WithFields(fields).Error("Critical: ticket canceled but refund failed")
		return &CancelResult{
			RefundAmount: 0,
			Warning:      "refund failed, but the ticket was canceled",
		}, nil
	}
	return &CancelResult{RefundAmount: ticket.Fare}, nil
}

// GetTickets returns all of the account's tickets, newest first
func (s *QRTicketService) GetTickets(accountID string) ([]domain.QRTicket, error) {
	var tickets []domain.QRTicket
	if err := s.db.Where("account_id = ?", accountID).
		Order("issue_date desc").
		Find(&tickets).Error; err != nil {
		return nil, fmt.Errorf("fetch qr tickets: %w", err)
	}
	return tickets, nil
}

// GetActiveTickets returns the account's issued tickets, newest first
func (s *QRTicketService) GetActiveTickets(accountID string) ([]domain.QRTicket, error) {
	var tickets []domain.QRTicket
	if err := s.db.Where("account_id = ? AND status = ?", accountID, domain.TicketStatusIssued).
		Order("issue_date desc").
		Find(&tickets).Error; err != nil {
		return nil, fmt.Errorf("fetch qr tickets: %w", err)
	}
	return tickets, nil
}

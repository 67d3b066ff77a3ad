package service

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"transit_card/internal/domain"
	"transit_card/internal/fare"
)

func TestIssue_DebitsFareAndCreatesTicket(t *testing.T) {
	db := setupTestDB(t)
	account := createTestAccount(t, db, 10000)
	tickets := NewQRTicketService(db)

	rideFare := fare.CalculateFare("Tokyo", "Shinjuku")
	result, err := tickets.Issue(account.ID, "Tokyo", "Shinjuku")
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}
	if result.NewBalance != 10000-rideFare {
		t.Errorf("Expected balance %d, got %d", 10000-rideFare, result.NewBalance)
	}
	ticket := result.Ticket
	if ticket.Status != domain.TicketStatusIssued {
		t.Errorf("Expected status issued, got %q", ticket.Status)
	}
	if ticket.Fare != rideFare {
		t.Errorf("Expected fare %d, got %d", rideFare, ticket.Fare)
	}
	if !strings.HasPrefix(ticket.TicketCode, "QR-") {
		t.Errorf("Expected QR- ticket code prefix, got %q", ticket.TicketCode)
	}
	// Expiry is the end of the issuance day
	if ticket.ExpiryDate.Before(ticket.IssueDate) {
		t.Error("Expiry precedes issue date")
	}
	iy, im, id := ticket.IssueDate.Date()
	ey, em, ed := ticket.ExpiryDate.Date()
	if iy != ey || im != em || id != ed {
		t.Errorf("Expiry %v not on issuance day %v", ticket.ExpiryDate, ticket.IssueDate)
	}
	// A fare debit was recorded
	var tx domain.Transaction
	if err := db.First(&tx, "account_id = ?", account.ID).Error; err != nil {
		t.Fatalf("Expected a fare transaction: %v", err)
	}
	if tx.Type != domain.TransactionTypeFare {
		t.Errorf("Expected type fare, got %q", tx.Type)
	}
	if tx.Amount != -rideFare {
		t.Errorf("Expected amount %d, got %d", -rideFare, tx.Amount)
	}
}

func TestIssue_RejectsInsufficientBalance(t *testing.T) {
	db := setupTestDB(t)
	account := createTestAccount(t, db, 0)
	tickets := NewQRTicketService(db)

	_, err := tickets.Issue(account.ID, "Tokyo", "Shinjuku")
	if !errors.Is(err, ErrInsufficientBalance) {
		t.Fatalf("Expected ErrInsufficientBalance, got %v", err)
	}
	if !strings.Contains(err.Error(), "required") {
		t.Errorf("Expected required/available detail in %q", err.Error())
	}
	var count int64
	db.Model(&domain.QRTicket{}).Count(&count)
	if count != 0 {
		t.Errorf("Expected no tickets, found %d", count)
	}
}

func TestIssue_RollsBackDebitWhenTicketInsertFails(t *testing.T) {
	db := setupTestDB(t)
	account := createTestAccount(t, db, 10000)
	tickets := NewQRTicketService(db)

	// Make the ticket insert fail after the debit
	if err := db.Migrator().DropTable(&domain.QRTicket{}); err != nil {
		t.Fatalf("Failed to drop qr_tickets table: %v", err)
	}
	if _, err := tickets.Issue(account.ID, "Tokyo", "Shinjuku"); err == nil {
		t.Fatal("Expected issuance to fail")
	}
	if got := accountBalance(t, db, account.ID); got != 10000 {
		t.Errorf("Expected balance restored to 10000, got %d", got)
	}
}

func TestIssue_HistoryFailureIsNonFatal(t *testing.T) {
	db := setupTestDB(t)
	account := createTestAccount(t, db, 10000)
	tickets := NewQRTicketService(db)

	// Make only the history insert fail
	if err := db.Migrator().DropTable(&domain.Transaction{}); err != nil {
		t.Fatalf("Failed to drop transactions table: %v", err)
	}
	result, err := tickets.Issue(account.ID, "Tokyo", "Shinjuku")
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}
	if result.Warning == "" {
		t.Error("Expected a history-loss warning")
	}
	var count int64
	db.Model(&domain.QRTicket{}).Count(&count)
	if count != 1 {
		t.Errorf("Expected the ticket to exist, found %d", count)
	}
}

func TestUse_TransitionsOnlyIssuedTickets(t *testing.T) {
	db := setupTestDB(t)
	account := createTestAccount(t, db, 10000)
	tickets := NewQRTicketService(db)

	result, err := tickets.Issue(account.ID, "Ueno", "Akihabara")
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}
	if err := tickets.Use(result.Ticket.ID, account.ID); err != nil {
		t.Fatalf("Use failed: %v", err)
	}
	var ticket domain.QRTicket
	if err := db.First(&ticket, "id = ?", result.Ticket.ID).Error; err != nil {
		t.Fatalf("Failed to fetch ticket: %v", err)
	}
	if ticket.Status != domain.TicketStatusUsed {
		t.Errorf("Expected status used, got %q", ticket.Status)
	}
	// A second use must fail and leave the status alone
	if err := tickets.Use(result.Ticket.ID, account.ID); !errors.Is(err, ErrTicketNotIssued) {
		t.Fatalf("Expected ErrTicketNotIssued, got %v", err)
	}
	if err := tickets.Use("missing", account.ID); !errors.Is(err, ErrTicketNotIssued) {
		t.Fatalf("Expected ErrTicketNotIssued for unknown id, got %v", err)
	}
}

func TestUse_RejectsForeignTickets(t *testing.T) {
	db := setupTestDB(t)
	holder := createTestAccount(t, db, 10000)
	other := createTestAccount(t, db, 10000)
	tickets := NewQRTicketService(db)

	issued, err := tickets.Issue(holder.ID, "Ueno", "Akihabara")
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}
	// Another account must not be able to mark the ticket used
	if err := tickets.Use(issued.Ticket.ID, other.ID); !errors.Is(err, ErrTicketNotIssued) {
		t.Fatalf("Expected ErrTicketNotIssued, got %v", err)
	}
	var ticket domain.QRTicket
	if err := db.First(&ticket, "id = ?", issued.Ticket.ID).Error; err != nil {
		t.Fatalf("Failed to fetch ticket: %v", err)
	}
	if ticket.Status != domain.TicketStatusIssued {
		t.Errorf("Expected status issued, got %q", ticket.Status)
	}
}

func TestCancel_RefundsFare(t *testing.T) {
	db := setupTestDB(t)
	account := createTestAccount(t, db, 10000)
	tickets := NewQRTicketService(db)

	issued, err := tickets.Issue(account.ID, "Shibuya", "Ikebukuro")
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}
	result, err := tickets.Cancel(issued.Ticket.ID, account.ID)
	if err != nil {
		t.Fatalf("Cancel failed: %v", err)
	}
	if result.RefundAmount != issued.Ticket.Fare {
		t.Errorf("Expected refund %d, got %d", issued.Ticket.Fare, result.RefundAmount)
	}
	if result.Warning != "" {
		t.Errorf("Unexpected warning: %q", result.Warning)
	}
	if got := accountBalance(t, db, account.ID); got != 10000 {
		t.Errorf("Expected balance restored to 10000, got %d", got)
	}
	var ticket domain.QRTicket
	if err := db.First(&ticket, "id = ?", issued.Ticket.ID).Error; err != nil {
		t.Fatalf("Failed to fetch ticket: %v", err)
	}
	if ticket.Status != domain.TicketStatusCanceled {
		t.Errorf("Expected status canceled, got %q", ticket.Status)
	}
}

func TestCancel_RejectsForeignTickets(t *testing.T) {
	db := setupTestDB(t)
	holder := createTestAccount(t, db, 10000)
	other := createTestAccount(t, db, 0)
	tickets := NewQRTicketService(db)

	issued, err := tickets.Issue(holder.ID, "Shibuya", "Ikebukuro")
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}
	// Another account must not be able to cancel the ticket and take the refund
	if _, err := tickets.Cancel(issued.Ticket.ID, other.ID); !errors.Is(err, ErrTicketNotIssued) {
		t.Fatalf("Expected ErrTicketNotIssued, got %v", err)
	}
	var ticket domain.QRTicket
	if err := db.First(&ticket, "id = ?", issued.Ticket.ID).Error; err != nil {
		t.Fatalf("Failed to fetch ticket: %v", err)
	}
	if ticket.Status != domain.TicketStatusIssued {
		t.Errorf("Expected status issued, got %q", ticket.Status)
	}
	if got := accountBalance(t, db, other.ID); got != 0 {
		t.Errorf("Expected no refund credited, balance %d", got)
	}
	if got := accountBalance(t, db, holder.ID); got != 10000-issued.Ticket.Fare {
		t.Errorf("Expected holder balance untouched at %d, got %d", 10000-issued.Ticket.Fare, got)
	}
}

func TestCancel_RejectsNonIssuedTickets(t *testing.T) {
	db := setupTestDB(t)
	account := createTestAccount(t, db, 10000)
	tickets := NewQRTicketService(db)

	issued, err := tickets.Issue(account.ID, "Shinagawa", "Yokohama")
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}
	if err := tickets.Use(issued.Ticket.ID, account.ID); err != nil {
		t.Fatalf("Use failed: %v", err)
	}
	if _, err := tickets.Cancel(issued.Ticket.ID, account.ID); !errors.Is(err, ErrTicketNotIssued) {
		t.Fatalf("Expected ErrTicketNotIssued, got %v", err)
	}
}

func TestGetActiveTickets_FiltersIssuedOnly(t *testing.T) {
	db := setupTestDB(t)
	account := createTestAccount(t, db, 10000)
	tickets := NewQRTicketService(db)

	first, err := tickets.Issue(account.ID, "Kawasaki", "Omiya")
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}
	if _, err := tickets.Issue(account.ID, "Omiya", "Kawasaki"); err != nil {
		t.Fatalf("Issue failed: %v", err)
	}
	if err := tickets.Use(first.Ticket.ID, account.ID); err != nil {
		t.Fatalf("Use failed: %v", err)
	}

	active, err := tickets.GetActiveTickets(account.ID)
	if err != nil {
		t.Fatalf("GetActiveTickets failed: %v", err)
	}
	if len(active) != 1 {
		t.Fatalf("Expected 1 active ticket, got %d", len(active))
	}
	if active[0].Status != domain.TicketStatusIssued {
		t.Errorf("Expected issued ticket, got %q", active[0].Status)
	}
	all, err := tickets.GetTickets(account.ID)
	if err != nil {
		t.Fatalf("GetTickets failed: %v", err)
	}
	if len(all) != 2 {
		t.Errorf("Expected 2 tickets in total, got %d", len(all))
	}
}

func TestQRCodeData_PayloadShape(t *testing.T) {
	db := setupTestDB(t)
	account := createTestAccount(t, db, 10000)
	tickets := NewQRTicketService(db)

	issued, err := tickets.Issue(account.ID, "Tokyo", "Yokohama")
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}
	payload, err := QRCodeData(issued.Ticket)
	if err != nil {
		t.Fatalf("QRCodeData failed: %v", err)
	}
	var decoded map[string]any
	if err := json.Unmarshal([]byte(payload), &decoded); err != nil {
		t.Fatalf("Payload is not valid JSON: %v", err)
	}
	for _, key := range []string{"code", "from", "to", "fare", "expiry", "issued"} {
		if _, ok := decoded[key]; !ok {
			t.Errorf("Payload missing key %q", key)
		}
	}
	if len(decoded) != 6 {
		t.Errorf("Expected exactly 6 keys, got %d", len(decoded))
	}
	if decoded["code"] != issued.Ticket.TicketCode {
		t.Errorf("Expected code %q, got %v", issued.Ticket.TicketCode, decoded["code"])
	}
	if int(decoded["fare"].(float64)) != issued.Ticket.Fare {
		t.Errorf("Expected fare %d, got %v", issued.Ticket.Fare, decoded["fare"])
	}
}

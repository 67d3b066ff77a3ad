package service

import (
	"testing"

	"transit_card/internal/domain"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// setupTestDB opens an in-memory sqlite store with the full schema migrated.
// The pool is pinned to one connection so every query sees the same database.
func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("Failed to get sql.DB: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	err = db.AutoMigrate(
		&domain.User{},
		&domain.Account{},
		&domain.Transaction{},
		&domain.CommuterPass{},
		&domain.QRTicket{},
		&domain.PaymentMethod{},
	)
	if err != nil {
		t.Fatalf("Failed to migrate test schema: %v", err)
	}
	t.Cleanup(func() { sqlDB.Close() })
	return db
}

// createTestAccount inserts an active account holding balance yen
func createTestAccount(t *testing.T, db *gorm.DB, balance int) *domain.Account {
	t.Helper()
	account := domain.Account{
		UserID:     uuid.NewString(),
		Balance:    balance,
		CardNumber: "7000-0000-0000-0001",
		Status:     domain.AccountStatusActive,
	}
	if err := db.Create(&account).Error; err != nil {
		t.Fatalf("Failed to create test account: %v", err)
	}
	return &account
}

// accountBalance reads the committed balance of an account
func accountBalance(t *testing.T, db *gorm.DB, accountID string) int {
	t.Helper()
	var account domain.Account
	if err := db.First(&account, "id = ?", accountID).Error; err != nil {
		t.Fatalf("Failed to fetch account: %v", err)
	}
	return account.Balance
}

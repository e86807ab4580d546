package ledgercheck

import (
	"context"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/mojisejr/oeng-api/internal/modules/coach/models"
	"github.com/mojisejr/oeng-api/internal/modules/coach/repositories"
)

func newCheckerDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	sqlDB, _ := db.DB()
	sqlDB.SetMaxOpenConns(1)
	if err := db.AutoMigrate(&models.User{}, &models.CreditTransaction{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func seedUser(t *testing.T, db *gorm.DB, credits int) *models.User {
	t.Helper()
	user := &models.User{Email: uuid.NewString() + "@example.com", Name: "u", PasswordHash: "x"}
	if err := db.Create(user).Error; err != nil {
		t.Fatal(err)
	}
	if credits > 0 {
		ledger := repositories.NewLedgerRepo(db)
		if _, err := ledger.Add(context.Background(), user.ID, credits, models.TxTypeBonus, "seed", nil); err != nil {
			t.Fatal(err)
		}
	}
	return user
}

func TestRunCleanLedger(t *testing.T) {
	db := newCheckerDB(t)
	seedUser(t, db, 3)
	seedUser(t, db, 0)

	drifts, err := NewChecker(db, nil).Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(drifts) != 0 {
		t.Errorf("drifts = %+v, want none", drifts)
	}
}

func TestRunDetectsTamperedBalance(t *testing.T) {
	db := newCheckerDB(t)
	seedUser(t, db, 3)
	tampered := seedUser(t, db, 5)

	// Balance written outside the ledger operations.
	if err := db.Model(&models.User{}).Where("id = ?", tampered.ID).
		Update("credit_balance", 50).Error; err != nil {
		t.Fatal(err)
	}

	drifts, err := NewChecker(db, nil).Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(drifts) != 1 {
		t.Fatalf("drifts = %d, want 1", len(drifts))
	}
	d := drifts[0]
	if d.UserID != tampered.ID.String() {
		t.Errorf("drift user = %s, want %s", d.UserID, tampered.ID)
	}
	if d.Balance != 50 || d.Replayed != 5 {
		t.Errorf("balance/replayed = %d/%d, want 50/5", d.Balance, d.Replayed)
	}
	if !d.LatestAfterLoaded || d.LatestAfter != 5 {
		t.Errorf("latest_after = %d (loaded=%v), want 5", d.LatestAfter, d.LatestAfterLoaded)
	}
}

func TestRunDetectsPhantomEntry(t *testing.T) {
	db := newCheckerDB(t)
	user := seedUser(t, db, 3)

	// Entry appended without mutating the balance.
	phantom := &models.CreditTransaction{
		UserID:       user.ID,
		Type:         models.TxTypeAdd,
		Amount:       10,
		BalanceAfter: 13,
		Description:  "phantom",
	}
	if err := db.Create(phantom).Error; err != nil {
		t.Fatal(err)
	}

	drifts, err := NewChecker(db, nil).Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(drifts) != 1 {
		t.Fatalf("drifts = %d, want 1", len(drifts))
	}
	if drifts[0].Replayed != 13 || drifts[0].Balance != 3 {
		t.Errorf("replayed/balance = %d/%d, want 13/3", drifts[0].Replayed, drifts[0].Balance)
	}
}

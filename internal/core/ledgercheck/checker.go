package ledgercheck

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/mojisejr/oeng-api/internal/metrics"
	"github.com/mojisejr/oeng-api/internal/shared/utils"
)

// Checker replays the ledger and compares it with the live balances. The
// balance column is a materialized cache of the ledger's running sum, so
// any disagreement means a write slipped past the ledger operations.
type Checker struct {
	db      *gorm.DB
	metrics *metrics.LedgerMetrics
}

// NewChecker creates a new ledger checker. metrics may be nil (tests).
func NewChecker(db *gorm.DB, m *metrics.LedgerMetrics) *Checker {
	return &Checker{db: db, metrics: m}
}

// Drift describes one user whose ledger disagrees with the live balance.
type Drift struct {
	UserID            string
	Balance           int
	Replayed          int
	LatestAfter       int
	LatestAfterLoaded bool
}

// Run audits every user and returns the drifting ones. Read-only.
func (c *Checker) Run(ctx context.Context) ([]Drift, error) {
	type row struct {
		ID       string
		Balance  int
		Replayed int
	}

	var rows []row
	err := c.db.WithContext(ctx).Raw(`
		SELECT u.id AS id, u.credit_balance AS balance, COALESCE(SUM(t.amount), 0) AS replayed
		FROM users u
		LEFT JOIN credit_transactions t ON t.user_id = u.id
		GROUP BY u.id, u.credit_balance`).Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("ledger replay query failed: %w", err)
	}

	var drifts []Drift
	for _, r := range rows {
		d := Drift{UserID: r.ID, Balance: r.Balance, Replayed: r.Replayed}

		var latest struct {
			BalanceAfter int
		}
		res := c.db.WithContext(ctx).Raw(`
			SELECT balance_after
			FROM credit_transactions
			WHERE user_id = ?
			ORDER BY created_at DESC
			LIMIT 1`, r.ID).Scan(&latest)
		if res.Error == nil && res.RowsAffected > 0 {
			d.LatestAfter = latest.BalanceAfter
			d.LatestAfterLoaded = true
		}

		if r.Replayed != r.Balance || (d.LatestAfterLoaded && d.LatestAfter != r.Balance) {
			drifts = append(drifts, d)
			utils.LogError("Ledger drift detected", nil, map[string]interface{}{
				"user_id":      d.UserID,
				"balance":      d.Balance,
				"replayed":     d.Replayed,
				"latest_after": d.LatestAfter,
			})
		}
	}

	if c.metrics != nil {
		c.metrics.LedgerDriftUsers.Set(float64(len(drifts)))
	}

	utils.LogInfo("Ledger audit finished", map[string]interface{}{
		"users":    len(rows),
		"drifting": len(drifts),
	})

	return drifts, nil
}

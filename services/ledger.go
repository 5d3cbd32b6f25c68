package services

import (
	"context"
	"database/sql"
	"fmt"

	"greenloop/models"
)

// DefaultTransactionWindow caps the recent-transactions listing for the UI.
const DefaultTransactionWindow = 10

// LedgerService reads the append-only transactions log. It never mutates it;
// appends happen inside the lifecycle and redemption transactions.
type LedgerService struct {
	db *sql.DB
}

func NewLedgerService(db *sql.DB) *LedgerService {
	return &LedgerService{db: db}
}

// Balance returns max(sum(earned) - sum(redeemed), 0) for the user,
// derived from the full ledger.
func (s *LedgerService) Balance(ctx context.Context, userID int64) (int, error) {
	balance, err := balanceOf(ctx, s.db, userID)
	if err != nil {
		return 0, fmt.Errorf("failed to derive balance for user %d: %w", userID, err)
	}
	return balance, nil
}

// RecentTransactions returns the newest-first window of ledger entries.
func (s *LedgerService) RecentTransactions(ctx context.Context, userID int64, limit int) ([]models.Transaction, error) {
	if limit <= 0 {
		limit = DefaultTransactionWindow
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, user_id, type, amount, description, created_at
		FROM transactions
		WHERE user_id = ?
		ORDER BY created_at DESC, id DESC
		LIMIT ?`, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list transactions for user %d: %w", userID, err)
	}
	defer rows.Close()

	transactions := []models.Transaction{}
	for rows.Next() {
		var t models.Transaction
		if err := rows.Scan(&t.ID, &t.UserID, &t.Type, &t.Amount, &t.Description, &t.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan transaction: %w", err)
		}
		transactions = append(transactions, t)
	}
	return transactions, rows.Err()
}

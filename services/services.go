// Package services holds the domain services of the greenloop backend.
// Every point-affecting event is an append to the transactions ledger; user
// balances are always derived from it, never stored separately.
package services

import (
	"context"
	"database/sql"
	"errors"

	"github.com/apex/log"
)

// Validation failures surfaced to callers as user-visible rejections,
// distinct from persistence failures.
var (
	ErrInsufficientPoints = errors.New("insufficient points or invalid reward")
	ErrAlreadyClaimed     = errors.New("task already claimed")
	ErrNotCollector       = errors.New("only the claiming collector may verify")
	ErrVerificationFailed = errors.New("verification failed")
	ErrInvalidTransition  = errors.New("report is not in a verifiable state")
	ErrNotFound           = errors.New("not found")
)

func logResult(operation string, result sql.Result, err error) {
	if err != nil {
		log.Errorf("Error in %s: %v", operation, err)
	} else {
		rowsAffected, _ := result.RowsAffected()
		log.Infof("%s: %d rows affected", operation, rowsAffected)
	}
}

// querier is satisfied by both *sql.DB and *sql.Tx so balance derivation and
// ledger appends can run inside or outside a transaction.
type querier interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// balanceOf derives the spendable balance from the ledger: earned types add,
// redeemed subtracts, clamped at zero for display.
func balanceOf(ctx context.Context, q querier, userID int64) (int, error) {
	var sum int
	err := q.QueryRowContext(ctx, `
		SELECT COALESCE(SUM(CASE WHEN type LIKE 'earned%' THEN amount ELSE -amount END), 0)
		FROM transactions
		WHERE user_id = ?`, userID).Scan(&sum)
	if err != nil {
		return 0, err
	}
	if sum < 0 {
		sum = 0
	}
	return sum, nil
}

func appendTransaction(ctx context.Context, q querier, userID int64, txType string, amount int, description string) error {
	result, err := q.ExecContext(ctx, `
		INSERT INTO transactions (user_id, type, amount, description)
		VALUES (?, ?, ?, ?)`, userID, txType, amount, description)
	logResult("appendTransaction", result, err)
	return err
}

func insertNotification(ctx context.Context, q querier, userID int64, message, notifType string) error {
	result, err := q.ExecContext(ctx, `
		INSERT INTO notifications (user_id, message, type)
		VALUES (?, ?, ?)`, userID, message, notifType)
	logResult("insertNotification", result, err)
	return err
}

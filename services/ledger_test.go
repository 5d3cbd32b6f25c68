package services

import (
	"context"
	"database/sql"
	"fmt"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jknair0/beforeeach"
)

var (
	db   *sql.DB
	mock sqlmock.Sqlmock
)

func setUp() {
	db, mock, _ = sqlmock.New()
}

func tearDown() {
	db.Close()
}

var it = beforeeach.Create(setUp, tearDown)

func TestBalance(t *testing.T) {
	it(func() {
		testCases := []struct {
			name          string
			sum           int
			queryError    bool
			expectBalance int
			expectError   bool
		}{
			{
				name:          "Earned minus redeemed",
				sum:           35,
				expectBalance: 35,
			}, {
				name:          "No transactions",
				sum:           0,
				expectBalance: 0,
			}, {
				name:          "Over-redeemed balance clamps to zero",
				sum:           -5,
				expectBalance: 0,
			}, {
				name:        "Query failure",
				queryError:  true,
				expectError: true,
			},
		}

		for _, testCase := range testCases {
			setUp()
			if testCase.queryError {
				mock.ExpectQuery("SELECT COALESCE").
					WithArgs(int64(1)).
					WillReturnError(fmt.Errorf("db is down"))
			} else {
				mock.ExpectQuery("SELECT COALESCE").
					WithArgs(int64(1)).
					WillReturnRows(sqlmock.NewRows([]string{"sum"}).AddRow(testCase.sum))
			}

			s := NewLedgerService(db)
			balance, err := s.Balance(context.Background(), 1)
			if testCase.expectError != (err != nil) {
				t.Errorf("%s, Balance(): expected error: %v, got error: %v", testCase.name, testCase.expectError, err)
			}
			if balance != testCase.expectBalance {
				t.Errorf("%s, Balance(): expected %d, got %d", testCase.name, testCase.expectBalance, balance)
			}
			if err := mock.ExpectationsWereMet(); err != nil {
				t.Errorf("%s, unmet expectations: %v", testCase.name, err)
			}
		}
	})
}

func TestRecentTransactions(t *testing.T) {
	it(func() {
		now := time.Now()
		mock.ExpectQuery("SELECT id, user_id, type, amount, description, created_at").
			WithArgs(int64(1), 10).
			WillReturnRows(sqlmock.NewRows(
				[]string{"id", "user_id", "type", "amount", "description", "created_at"}).
				AddRow(3, 1, "redeemed", 20, "Redeemed: Tote Bag", now).
				AddRow(2, 1, "earned_collect", 41, "Points earned for collecting waste", now).
				AddRow(1, 1, "earned_report", 10, "Points earned for reporting waste", now))

		s := NewLedgerService(db)
		transactions, err := s.RecentTransactions(context.Background(), 1, 0)
		if err != nil {
			t.Fatalf("RecentTransactions(): unexpected error: %v", err)
		}
		if len(transactions) != 3 {
			t.Fatalf("RecentTransactions(): expected 3 entries, got %d", len(transactions))
		}
		if transactions[0].Type != "redeemed" || transactions[0].Amount != 20 {
			t.Errorf("RecentTransactions(): unexpected first entry: %+v", transactions[0])
		}
		if err := mock.ExpectationsWereMet(); err != nil {
			t.Errorf("unmet expectations: %v", err)
		}
	})
}

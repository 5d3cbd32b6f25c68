package services

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
)

func TestUserStats(t *testing.T) {
	it(func() {
		mock.ExpectQuery("SELECT COUNT").
			WithArgs(int64(1)).
			WillReturnRows(sqlmock.NewRows([]string{"cnt"}).AddRow(5))
		mock.ExpectQuery("SELECT COUNT").
			WithArgs(int64(1)).
			WillReturnRows(sqlmock.NewRows([]string{"cnt"}).AddRow(2))
		mock.ExpectQuery("SELECT COALESCE").
			WithArgs(int64(1)).
			WillReturnRows(sqlmock.NewRows([]string{"sum"}).AddRow(70))

		s := NewStatsService(db)
		stats, err := s.UserStats(context.Background(), 1)
		if err != nil {
			t.Fatalf("UserStats(): unexpected error: %v", err)
		}
		if stats.ReportsSubmitted != 5 || stats.WastesCollected != 2 || stats.PointsEarned != 70 {
			t.Errorf("UserStats(): unexpected stats: %+v", stats)
		}
		if stats.AvgPointsPerAct != "10.00" {
			t.Errorf("UserStats(): expected avg 10.00, got %s", stats.AvgPointsPerAct)
		}
		if err := mock.ExpectationsWereMet(); err != nil {
			t.Errorf("unmet expectations: %v", err)
		}
	})
}

func TestUserStatsNoActivity(t *testing.T) {
	it(func() {
		mock.ExpectQuery("SELECT COUNT").
			WithArgs(int64(1)).
			WillReturnRows(sqlmock.NewRows([]string{"cnt"}).AddRow(0))
		mock.ExpectQuery("SELECT COUNT").
			WithArgs(int64(1)).
			WillReturnRows(sqlmock.NewRows([]string{"cnt"}).AddRow(0))
		mock.ExpectQuery("SELECT COALESCE").
			WithArgs(int64(1)).
			WillReturnRows(sqlmock.NewRows([]string{"sum"}).AddRow(0))

		s := NewStatsService(db)
		stats, err := s.UserStats(context.Background(), 1)
		if err != nil {
			t.Fatalf("UserStats(): unexpected error: %v", err)
		}
		if stats.AvgPointsPerAct != "0.00" {
			t.Errorf("UserStats(): expected avg 0.00, got %s", stats.AvgPointsPerAct)
		}
		if err := mock.ExpectationsWereMet(); err != nil {
			t.Errorf("unmet expectations: %v", err)
		}
	})
}

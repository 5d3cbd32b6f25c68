package services

import (
	"context"
	"database/sql"
	"fmt"

	"greenloop/models"

	"github.com/shopspring/decimal"
)

// StatsService derives per-user impact figures from the reports, collection
// records and the ledger.
type StatsService struct {
	db *sql.DB
}

func NewStatsService(db *sql.DB) *StatsService {
	return &StatsService{db: db}
}

// UserStats returns a user's submitted report count, verified collection
// count, total earned points and the exact average points per point-earning
// action.
func (s *StatsService) UserStats(ctx context.Context, userID int64) (*models.ImpactStats, error) {
	stats := &models.ImpactStats{UserID: userID}

	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM reports WHERE user_id = ?`, userID).Scan(&stats.ReportsSubmitted)
	if err != nil {
		return nil, fmt.Errorf("failed to count reports for user %d: %w", userID, err)
	}

	err = s.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM collected_wastes WHERE collector_id = ?`, userID).Scan(&stats.WastesCollected)
	if err != nil {
		return nil, fmt.Errorf("failed to count collected wastes for user %d: %w", userID, err)
	}

	err = s.db.QueryRowContext(ctx, `
		SELECT COALESCE(SUM(amount), 0)
		FROM transactions
		WHERE user_id = ? AND type LIKE 'earned%'`, userID).Scan(&stats.PointsEarned)
	if err != nil {
		return nil, fmt.Errorf("failed to sum earned points for user %d: %w", userID, err)
	}

	actions := stats.ReportsSubmitted + stats.WastesCollected
	if actions > 0 {
		avg := decimal.NewFromInt(int64(stats.PointsEarned)).
			Div(decimal.NewFromInt(int64(actions)))
		stats.AvgPointsPerAct = avg.StringFixed(2)
	} else {
		stats.AvgPointsPerAct = "0.00"
	}

	return stats, nil
}

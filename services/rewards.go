package services

import (
	"context"
	"database/sql"
	"fmt"

	"greenloop/metrics"
	"greenloop/models"

	"github.com/apex/log"
)

// Mailer delivers an email copy of a notification. Best effort; a mail
// failure never fails the operation that produced the notification.
type Mailer interface {
	SendNotification(toEmail, toName, message string) error
}

// RewardService lists the catalog and executes point redemption against it.
type RewardService struct {
	db     *sql.DB
	mailer Mailer
}

func NewRewardService(db *sql.DB, mailer Mailer) *RewardService {
	return &RewardService{db: db, mailer: mailer}
}

// AvailableRewards returns the available catalog entries, prefixed with a
// synthetic "Your Points" entry whose cost equals the caller's live balance.
func (s *RewardService) AvailableRewards(ctx context.Context, userID int64) ([]models.Reward, error) {
	balance, err := balanceOf(ctx, s.db, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to derive balance for user %d: %w", userID, err)
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, cost, description, collection_info
		FROM rewards
		WHERE is_available = true
		ORDER BY cost ASC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list rewards: %w", err)
	}
	defer rows.Close()

	rewards := []models.Reward{{
		ID:             models.RewardIDAllPoints,
		Name:           "Your Points",
		Cost:           balance,
		Description:    "Redeem your earned points",
		CollectionInfo: "Points earned from reporting and collecting waste",
	}}
	for rows.Next() {
		var r models.Reward
		if err := rows.Scan(&r.ID, &r.Name, &r.Cost, &r.Description, &r.CollectionInfo); err != nil {
			return nil, fmt.Errorf("failed to scan reward: %w", err)
		}
		rewards = append(rewards, r)
	}
	return rewards, rows.Err()
}

// Redeem converts points into a reward. The balance is derived from the
// ledger inside a serializable transaction, so validation and the redeemed
// append cannot diverge. Reward id 0 redeems the full balance.
func (s *RewardService) Redeem(ctx context.Context, p models.Principal, rewardID int64) (*models.RedeemResponse, error) {
	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelSerializable})
	if err != nil {
		log.Errorf("Error creating transaction: %v", err)
		return nil, err
	}
	defer tx.Rollback()

	balance, err := balanceOf(ctx, tx, p.UserID)
	if err != nil {
		return nil, fmt.Errorf("failed to derive balance for user %d: %w", p.UserID, err)
	}

	resp := &models.RedeemResponse{RewardID: rewardID}
	var message string

	if rewardID == models.RewardIDAllPoints {
		// Zero out the full balance unconditionally; the logged magnitude is
		// the amount present immediately before zeroing.
		if err := appendTransaction(ctx, tx, p.UserID, models.TxRedeemed, balance,
			fmt.Sprintf("Redeemed all points: %d", balance)); err != nil {
			metrics.RedemptionsTotal.WithLabelValues("error").Inc()
			return nil, err
		}
		resp.Name = "Your Points"
		resp.Points = balance
		resp.Balance = 0
		message = fmt.Sprintf("You've redeemed all your points (%d)!", balance)
	} else {
		var name string
		var cost int
		err := tx.QueryRowContext(ctx, `
			SELECT name, cost
			FROM rewards
			WHERE id = ? AND is_available = true`, rewardID).Scan(&name, &cost)
		if err == sql.ErrNoRows {
			metrics.RedemptionsTotal.WithLabelValues("rejected").Inc()
			return nil, ErrInsufficientPoints
		}
		if err != nil {
			return nil, fmt.Errorf("failed to look up reward %d: %w", rewardID, err)
		}
		if balance < cost {
			metrics.RedemptionsTotal.WithLabelValues("rejected").Inc()
			return nil, ErrInsufficientPoints
		}
		if err := appendTransaction(ctx, tx, p.UserID, models.TxRedeemed, cost,
			fmt.Sprintf("Redeemed: %s", name)); err != nil {
			metrics.RedemptionsTotal.WithLabelValues("error").Inc()
			return nil, err
		}
		resp.Name = name
		resp.Points = cost
		resp.Balance = balance - cost
		message = fmt.Sprintf("You've redeemed %d points for %s!", cost, name)
	}

	if err := insertNotification(ctx, tx, p.UserID, message, "reward"); err != nil {
		metrics.RedemptionsTotal.WithLabelValues("error").Inc()
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		metrics.RedemptionsTotal.WithLabelValues("error").Inc()
		return nil, err
	}

	metrics.RedemptionsTotal.WithLabelValues("ok").Inc()
	log.Infof("User %d redeemed %d points for %q", p.UserID, resp.Points, resp.Name)

	if s.mailer != nil {
		if err := s.mailer.SendNotification(p.Email, p.Name, message); err != nil {
			log.Warnf("Failed to send redemption email to %s: %v", p.Email, err)
		}
	}

	return resp, nil
}

package services

import (
	"context"
	"database/sql"
	"fmt"

	"greenloop/models"
)

// NotificationService reads and acknowledges the notifications the lifecycle
// and redemption flows create. The UI polls Unread on an interval.
type NotificationService struct {
	db *sql.DB
}

func NewNotificationService(db *sql.DB) *NotificationService {
	return &NotificationService{db: db}
}

// Unread lists a user's unread notifications in insertion order.
func (s *NotificationService) Unread(ctx context.Context, userID int64) ([]models.Notification, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, user_id, message, type, is_read, created_at
		FROM notifications
		WHERE user_id = ? AND is_read = false
		ORDER BY id ASC`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list notifications for user %d: %w", userID, err)
	}
	defer rows.Close()

	notifications := []models.Notification{}
	for rows.Next() {
		var n models.Notification
		if err := rows.Scan(&n.ID, &n.UserID, &n.Message, &n.Type, &n.IsRead, &n.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan notification: %w", err)
		}
		notifications = append(notifications, n)
	}
	return notifications, rows.Err()
}

// MarkRead flips the read flag. Only the owning user's rows are touched.
func (s *NotificationService) MarkRead(ctx context.Context, userID, notificationID int64) error {
	result, err := s.db.ExecContext(ctx, `
		UPDATE notifications
		SET is_read = true
		WHERE id = ? AND user_id = ?`, notificationID, userID)
	logResult("markNotificationRead", result, err)
	if err != nil {
		return fmt.Errorf("failed to mark notification %d as read: %w", notificationID, err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrNotFound
	}
	return nil
}

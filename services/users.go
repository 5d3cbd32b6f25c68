package services

import (
	"context"
	"database/sql"
	"fmt"

	"greenloop/models"

	"github.com/apex/log"
)

type UserService struct {
	db *sql.DB
}

func NewUserService(db *sql.DB) *UserService {
	return &UserService{db: db}
}

// GetOrCreate looks up a user by email and creates the row on first sight of
// an authenticated identity. Idempotent; the email column is unique.
func (s *UserService) GetOrCreate(ctx context.Context, email, name string) (*models.User, error) {
	user, err := s.getByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if user != nil {
		return user, nil
	}

	result, err := s.db.ExecContext(ctx, `
		INSERT INTO users (email, name)
		VALUES (?, ?)
		ON DUPLICATE KEY UPDATE name = name`, email, name)
	logResult("createUser", result, err)
	if err != nil {
		return nil, fmt.Errorf("failed to create user %s: %w", email, err)
	}

	user, err = s.getByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, fmt.Errorf("user %s vanished after insert", email)
	}
	log.Infof("User %d resolved for %s", user.ID, email)
	return user, nil
}

func (s *UserService) getByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	err := s.db.QueryRowContext(ctx, `
		SELECT id, email, name, created_at
		FROM users
		WHERE email = ?`, email).Scan(&user.ID, &user.Email, &user.Name, &user.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user by email: %w", err)
	}
	return &user, nil
}

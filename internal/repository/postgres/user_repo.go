package postgres

import (
	"context"
	"database/sql"
	"errors"

	"rafflepay/internal/domain"
)

func (s *Store) GetUser(ctx context.Context, id string) (*domain.User, error) {
	query := `
		SELECT id, email, username
		FROM users
		WHERE id = $1
	`
	u := &domain.User{}
	err := s.DB.QueryRowContext(ctx, query, id).Scan(&u.ID, &u.Email, &u.Username)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrUserNotFound
		}
		return nil, err
	}
	return u, nil
}

// UpsertUser inserts the user or refreshes the contact details of an existing id.
func (s *Store) UpsertUser(ctx context.Context, u *domain.User) error {
	query := `
		INSERT INTO users (id, email, username)
		VALUES ($1, $2, $3)
		ON CONFLICT (id) DO UPDATE SET email = EXCLUDED.email, username = EXCLUDED.username
	`
	_, err := s.DB.ExecContext(ctx, query, u.ID, u.Email, u.Username)
	return err
}

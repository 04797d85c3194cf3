// Copyright 2025 The TestLegion Authors
// Licensed under the EUPL-1.2

package repository

import (
	"context"

	"github.com/testlegion/testlegion/internal/models"
)

// CreateUser inserts a new user row. The email column carries a UNIQUE
// constraint, so a duplicate insert fails without mutating the store.
func (r *Repository) CreateUser(ctx context.Context, user *models.User) error {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO users (email, hashed_password, is_verified) VALUES (?, ?, ?)`,
		user.Email, user.HashedPassword, user.IsVerified)
	if err != nil {
		return err
	}

	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	user.ID = id
	return nil
}

// GetUserByID retrieves a user by ID.
func (r *Repository) GetUserByID(ctx context.Context, id int64) (*models.User, error) {
	var user models.User
	if err := r.db.GetContext(ctx, &user, `SELECT * FROM users WHERE id = ?`, id); err != nil {
		return nil, wrapError(err)
	}
	return &user, nil
}

// GetUserByEmail retrieves a user by email address.
func (r *Repository) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	if err := r.db.GetContext(ctx, &user, `SELECT * FROM users WHERE email = ?`, email); err != nil {
		return nil, wrapError(err)
	}
	return &user, nil
}

// SetUserVerified marks a user's email address as confirmed.
func (r *Repository) SetUserVerified(ctx context.Context, id int64) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE users SET is_verified = 1, updated_at = CURRENT_TIMESTAMP WHERE id = ?`, id)
	return err
}

// UpdateUserPassword replaces a user's password digest.
func (r *Repository) UpdateUserPassword(ctx context.Context, id int64, hashedPassword string) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE users SET hashed_password = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		hashedPassword, id)
	return err
}

// CountUsers returns the total number of users.
func (r *Repository) CountUsers(ctx context.Context) (int64, error) {
	var count int64
	if err := r.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM users`); err != nil {
		return 0, err
	}
	return count, nil
}

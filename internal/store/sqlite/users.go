package sqlite

import (
	"context"
	"database/sql"

	"github.com/bookclubapp/bookclub-server/internal/domain"
	"github.com/bookclubapp/bookclub-server/internal/store"
)

// userColumns must match the scan order in scanUser.
const userColumns = `id, email, password_hash, display_name, last_login_at, created_at, updated_at`

func scanUser(row scanner) (*domain.User, error) {
	var (
		u           domain.User
		lastLoginAt sql.NullString
		createdAt   string
		updatedAt   string
	)

	if err := row.Scan(&u.ID, &u.Email, &u.PasswordHash, &u.DisplayName, &lastLoginAt, &createdAt, &updatedAt); err != nil {
		return nil, err
	}

	var err error
	if u.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	if u.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, err
	}
	last, err := parseNullableTime(lastLoginAt)
	if err != nil {
		return nil, err
	}
	if last != nil {
		u.LastLoginAt = *last
	}
	return &u, nil
}

// CreateUser inserts a user. Emails are unique case-insensitively.
func (s *Store) CreateUser(ctx context.Context, user *domain.User) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO users (id, email, email_lower, password_hash, display_name, last_login_at, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		user.ID,
		user.Email,
		domain.NormalizeEmail(user.Email),
		user.PasswordHash,
		user.DisplayName,
		nullZeroTime(user.LastLoginAt),
		formatTime(user.CreatedAt),
		formatTime(user.UpdatedAt),
	)
	if isUniqueViolation(err) {
		return store.ErrEmailExists
	}
	return err
}

// GetUser retrieves a user by ID.
func (s *Store) GetUser(ctx context.Context, id string) (*domain.User, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE id = ?`, id)
	u, err := scanUser(row)
	if isNoRows(err) {
		return nil, store.ErrUserNotFound
	}
	return u, err
}

// GetUserByEmail retrieves a user by email, ignoring case.
func (s *Store) GetUserByEmail(ctx context.Context, email string) (*domain.User, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE email_lower = ?`, domain.NormalizeEmail(email))
	u, err := scanUser(row)
	if isNoRows(err) {
		return nil, store.ErrUserNotFound
	}
	return u, err
}

// UpdateUser performs a full row update.
func (s *Store) UpdateUser(ctx context.Context, user *domain.User) error {
	result, err := s.db.ExecContext(ctx, `
		UPDATE users SET
			email = ?,
			email_lower = ?,
			password_hash = ?,
			display_name = ?,
			last_login_at = ?,
			updated_at = ?
		WHERE id = ?`,
		user.Email,
		domain.NormalizeEmail(user.Email),
		user.PasswordHash,
		user.DisplayName,
		nullZeroTime(user.LastLoginAt),
		formatTime(user.UpdatedAt),
		user.ID,
	)
	if isUniqueViolation(err) {
		return store.ErrEmailExists
	}
	if err != nil {
		return err
	}
	return expectAffected(result, store.ErrUserNotFound)
}

// DeleteUser hard-deletes a user. Books, sessions and the profile cascade.
func (s *Store) DeleteUser(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM users WHERE id = ?`, id)
	if err != nil {
		return err
	}
	return expectAffected(result, store.ErrUserNotFound)
}

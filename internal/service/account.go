package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/bookclubapp/bookclub-server/internal/auth"
	"github.com/bookclubapp/bookclub-server/internal/domain"
	domainerrors "github.com/bookclubapp/bookclub-server/internal/errors"
	"github.com/bookclubapp/bookclub-server/internal/store"
)

// AccountService handles credential changes and account removal.
// Every operation re-authenticates with the current password.
type AccountService struct {
	store    store.Store
	sessions *SessionService
	index    BookIndex
	logger   *slog.Logger
}

// NewAccountService creates an account service. index may be nil.
func NewAccountService(store store.Store, sessions *SessionService, index BookIndex, logger *slog.Logger) *AccountService {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &AccountService{store: store, sessions: sessions, index: index, logger: logger}
}

// GetAccount returns the signed-in user.
func (s *AccountService) GetAccount(ctx context.Context, ownerID string) (*domain.User, error) {
	if err := requireOwner(ctx, ownerID); err != nil {
		return nil, err
	}
	user, err := s.store.GetUser(ctx, ownerID)
	if err != nil {
		if errors.Is(err, store.ErrUserNotFound) {
			return nil, domainerrors.NotAuthenticated("account no longer exists")
		}
		return nil, fmt.Errorf("get user: %w", err)
	}
	return user, nil
}

// ChangePasswordRequest carries the current and new password.
type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password" validate:"required"`
	NewPassword     string `json:"new_password" validate:"required,max=1024"`
}

// ChangeEmailRequest carries the current password and the new address.
type ChangeEmailRequest struct {
	Password string `json:"password" validate:"required"`
	NewEmail string `json:"new_email" validate:"required,email,max=254"`
}

// DeleteAccountRequest confirms account removal.
type DeleteAccountRequest struct {
	Password string `json:"password" validate:"required"`
}

// ChangePassword replaces the password and signs out every other session.
// keepSessionID is the caller's own session, which stays valid.
func (s *AccountService) ChangePassword(ctx context.Context, ownerID, keepSessionID string, req ChangePasswordRequest) (int, error) {
	if err := requireOwner(ctx, ownerID); err != nil {
		return 0, err
	}
	if err := validate.Validate(req); err != nil {
		return 0, err
	}

	user, err := s.reauthenticate(ctx, ownerID, req.CurrentPassword)
	if err != nil {
		return 0, err
	}
	if err := requireStrongPassword(req.NewPassword); err != nil {
		return 0, err
	}

	hash, err := auth.HashPassword(req.NewPassword)
	if err != nil {
		if errors.Is(err, auth.ErrPasswordTooLong) {
			return 0, domainerrors.Validation("password is too long")
		}
		return 0, fmt.Errorf("hash password: %w", err)
	}
	user.PasswordHash = hash
	user.Touch()
	if err := s.store.UpdateUser(ctx, user); err != nil {
		return 0, fmt.Errorf("save user: %w", err)
	}

	revoked, err := s.sessions.RevokeOtherSessions(ctx, ownerID, keepSessionID)
	if err != nil {
		return 0, err
	}

	s.logger.Info("password changed", "user_id", ownerID, "sessions_revoked", revoked)
	return revoked, nil
}

// ChangeEmail moves the account to a new address.
func (s *AccountService) ChangeEmail(ctx context.Context, ownerID string, req ChangeEmailRequest) (*domain.User, error) {
	if err := requireOwner(ctx, ownerID); err != nil {
		return nil, err
	}
	if err := validate.Validate(req); err != nil {
		return nil, err
	}

	user, err := s.reauthenticate(ctx, ownerID, req.Password)
	if err != nil {
		return nil, err
	}

	email := strings.TrimSpace(req.NewEmail)
	if domain.NormalizeEmail(email) == domain.NormalizeEmail(user.Email) {
		user.Email = email
	} else {
		existing, err := s.store.GetUserByEmail(ctx, email)
		switch {
		case err == nil && existing.ID != ownerID:
			return nil, domainerrors.AlreadyExists("email already in use")
		case err != nil && !errors.Is(err, store.ErrUserNotFound):
			return nil, fmt.Errorf("lookup email: %w", err)
		}
		user.Email = email
	}

	user.Touch()
	if err := s.store.UpdateUser(ctx, user); err != nil {
		if errors.Is(err, store.ErrEmailExists) {
			return nil, domainerrors.AlreadyExists("email already in use")
		}
		return nil, fmt.Errorf("save user: %w", err)
	}

	s.logger.Info("email changed", "user_id", ownerID)
	return user, nil
}

// DeleteAccount removes the user together with books, reviews, profile and
// sessions, then drops their search index entries.
func (s *AccountService) DeleteAccount(ctx context.Context, ownerID string, req DeleteAccountRequest) error {
	if err := requireOwner(ctx, ownerID); err != nil {
		return err
	}
	if err := validate.Validate(req); err != nil {
		return err
	}
	if _, err := s.reauthenticate(ctx, ownerID, req.Password); err != nil {
		return err
	}

	if err := s.store.DeleteUser(ctx, ownerID); err != nil {
		return fmt.Errorf("delete user: %w", notFoundAs(err, "account not found"))
	}

	if s.index != nil {
		removed, err := s.index.DeleteOwner(context.WithoutCancel(ctx), ownerID)
		if err != nil {
			s.logger.Warn("failed to remove books from index", "user_id", ownerID, "error", err)
		} else {
			s.logger.Debug("removed books from index", "user_id", ownerID, "count", removed)
		}
	}

	s.logger.Info("account deleted", "user_id", ownerID)
	return nil
}

func (s *AccountService) reauthenticate(ctx context.Context, ownerID, password string) (*domain.User, error) {
	user, err := s.store.GetUser(ctx, ownerID)
	if err != nil {
		if errors.Is(err, store.ErrUserNotFound) {
			return nil, domainerrors.NotAuthenticated("account no longer exists")
		}
		return nil, fmt.Errorf("get user: %w", err)
	}
	valid, err := auth.VerifyPassword(user.PasswordHash, password)
	if err != nil {
		return nil, fmt.Errorf("verify password: %w", err)
	}
	if !valid {
		return nil, domainerrors.InvalidCredentials("current password is incorrect")
	}
	return user, nil
}

package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/bookclubapp/bookclub-server/internal/auth"
	"github.com/bookclubapp/bookclub-server/internal/domain"
	domainerrors "github.com/bookclubapp/bookclub-server/internal/errors"
	"github.com/bookclubapp/bookclub-server/internal/id"
	"github.com/bookclubapp/bookclub-server/internal/store"
)

// AuthOptions are the registration policy knobs.
type AuthOptions struct {
	OpenRegistration bool
}

// AuthService handles registration, login and token verification.
// It is the identity collaborator: every owner ID the other services
// receive comes from VerifyAccessToken.
type AuthService struct {
	store          store.Store
	tokenService   *auth.TokenService
	sessionService *SessionService
	opts           AuthOptions
	logger         *slog.Logger
}

// NewAuthService creates a new authentication service.
func NewAuthService(
	store store.Store,
	tokenService *auth.TokenService,
	sessionService *SessionService,
	opts AuthOptions,
	logger *slog.Logger,
) *AuthService {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &AuthService{
		store:          store,
		tokenService:   tokenService,
		sessionService: sessionService,
		opts:           opts,
		logger:         logger,
	}
}

// RegisterRequest contains user registration data.
type RegisterRequest struct {
	Email       string `json:"email" validate:"required,email,max=254"`
	Password    string `json:"password" validate:"required,max=1024"`
	DisplayName string `json:"display_name" validate:"omitempty,max=100"`
}

// LoginRequest contains user credentials.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// RefreshRequest contains the refresh token to rotate.
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

// AuthResponse contains authentication tokens and user data.
type AuthResponse struct {
	User *domain.User `json:"user"`
	SessionResponse
}

// CheckPassword reports which password requirements are met.
func (s *AuthService) CheckPassword(password string) domain.PasswordCheck {
	return domain.ValidatePassword(password)
}

// requireStrongPassword rejects passwords that fail any requirement,
// returning the full checklist as details.
func requireStrongPassword(password string) error {
	check := domain.ValidatePassword(password)
	if check.IsValid {
		return nil
	}
	return domainerrors.ValidationWithDetails(check.Message(), check)
}

// Register creates an account, its default profile and a first session.
func (s *AuthService) Register(ctx context.Context, req RegisterRequest, client ClientInfo) (*AuthResponse, error) {
	if err := validate.Validate(req); err != nil {
		return nil, err
	}
	if !s.opts.OpenRegistration {
		return nil, domainerrors.Forbidden("registration is not open")
	}
	if err := requireStrongPassword(req.Password); err != nil {
		return nil, err
	}

	passwordHash, err := auth.HashPassword(req.Password)
	if err != nil {
		if errors.Is(err, auth.ErrPasswordTooLong) {
			return nil, domainerrors.Validation("password is too long")
		}
		return nil, fmt.Errorf("hash password: %w", err)
	}

	userID, err := id.Generate(id.PrefixUser)
	if err != nil {
		return nil, fmt.Errorf("generate user ID: %w", err)
	}

	now := time.Now()
	user := &domain.User{
		Timestamps:   domain.Timestamps{ID: userID},
		Email:        strings.TrimSpace(req.Email),
		PasswordHash: passwordHash,
		DisplayName:  strings.TrimSpace(req.DisplayName),
		LastLoginAt:  now,
	}
	user.InitTimestamps()

	if err := s.store.CreateUser(ctx, user); err != nil {
		if errors.Is(err, store.ErrEmailExists) {
			return nil, domainerrors.AlreadyExists("email already in use")
		}
		return nil, fmt.Errorf("create user: %w", err)
	}

	if err := s.store.SaveProfile(ctx, domain.NewUserProfile(userID, user.Name())); err != nil {
		s.logger.Warn("failed to create default profile", "user_id", userID, "error", err)
	}

	sessionResp, err := s.sessionService.CreateSession(ctx, user, client)
	if err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}

	s.logger.Info("user registered", "user_id", userID)

	return &AuthResponse{User: user, SessionResponse: *sessionResp}, nil
}

// Login authenticates a user and creates a new session.
func (s *AuthService) Login(ctx context.Context, req LoginRequest, client ClientInfo) (*AuthResponse, error) {
	if err := validate.Validate(req); err != nil {
		return nil, err
	}

	user, err := s.authenticate(ctx, req.Email, req.Password)
	if err != nil {
		return nil, err
	}

	user.LastLoginAt = time.Now()
	if auth.DefaultHashParams.NeedsRehash(user.PasswordHash) {
		if hash, err := auth.HashPassword(req.Password); err == nil {
			user.PasswordHash = hash
		}
	}
	user.Touch()
	if err := s.store.UpdateUser(ctx, user); err != nil {
		s.logger.Warn("failed to update user after login", "user_id", user.ID, "error", err)
	}

	sessionResp, err := s.sessionService.CreateSession(ctx, user, client)
	if err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}

	s.logger.Info("user logged in", "user_id", user.ID)

	return &AuthResponse{User: user, SessionResponse: *sessionResp}, nil
}

// authenticate checks credentials without revealing whether the email exists.
func (s *AuthService) authenticate(ctx context.Context, email, password string) (*domain.User, error) {
	user, err := s.store.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, store.ErrUserNotFound) {
			return nil, domainerrors.InvalidCredentials("invalid email or password")
		}
		return nil, fmt.Errorf("lookup user: %w", err)
	}
	return user, s.verifyPassword(user, password)
}

func (s *AuthService) verifyPassword(user *domain.User, password string) error {
	valid, err := auth.VerifyPassword(user.PasswordHash, password)
	if err != nil {
		return fmt.Errorf("verify password: %w", err)
	}
	if !valid {
		return domainerrors.InvalidCredentials("invalid email or password")
	}
	return nil
}

// RefreshTokens generates new tokens using a refresh token.
// The old refresh token is invalidated (token rotation).
func (s *AuthService) RefreshTokens(ctx context.Context, req RefreshRequest, client ClientInfo) (*AuthResponse, error) {
	if err := validate.Validate(req); err != nil {
		return nil, err
	}

	sessionResp, user, err := s.sessionService.RefreshSession(ctx, req.RefreshToken, client)
	if err != nil {
		return nil, err
	}
	return &AuthResponse{User: user, SessionResponse: *sessionResp}, nil
}

// Logout revokes a session, invalidating its refresh token.
func (s *AuthService) Logout(ctx context.Context, sessionID string) error {
	return s.sessionService.DeleteSession(ctx, sessionID)
}

// VerifyAccessToken validates a token and returns the associated user.
// Used by authentication middleware. Every failure is NotAuthenticated.
func (s *AuthService) VerifyAccessToken(ctx context.Context, tokenString string) (*domain.User, *auth.AccessClaims, error) {
	if tokenString == "" {
		return nil, nil, domainerrors.NotAuthenticated("missing access token")
	}

	claims, err := s.tokenService.VerifyAccessToken(tokenString)
	if err != nil {
		return nil, nil, domainerrors.NotAuthenticated("invalid or expired access token").WithCause(err)
	}

	user, err := s.store.GetUser(ctx, claims.OwnerID)
	if err != nil {
		if errors.Is(err, store.ErrUserNotFound) {
			return nil, nil, domainerrors.NotAuthenticated("account no longer exists")
		}
		return nil, nil, fmt.Errorf("get user: %w", err)
	}

	return user, claims, nil
}

// CurrentOwner resolves the owner ID carried by an access token.
func (s *AuthService) CurrentOwner(ctx context.Context, tokenString string) (string, error) {
	user, _, err := s.VerifyAccessToken(ctx, tokenString)
	if err != nil {
		return "", err
	}
	return user.ID, nil
}

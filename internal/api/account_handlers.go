package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/bookclubapp/bookclub-server/internal/service"
)

func (s *Server) registerAccountRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "changePassword",
		Method:      http.MethodPut,
		Path:        "/api/v1/account/password",
		Summary:     "Change password",
		Description: "Changes the password after re-checking the current one. Other sessions are signed out.",
		Tags:        []string{"Account"},
		Security:    bearerSecurity,
	}, s.handleChangePassword)

	huma.Register(s.api, huma.Operation{
		OperationID: "changeEmail",
		Method:      http.MethodPut,
		Path:        "/api/v1/account/email",
		Summary:     "Change email",
		Description: "Changes the sign-in email after re-checking the password",
		Tags:        []string{"Account"},
		Security:    bearerSecurity,
	}, s.handleChangeEmail)

	huma.Register(s.api, huma.Operation{
		OperationID:   "deleteAccount",
		Method:        http.MethodDelete,
		Path:          "/api/v1/account",
		Summary:       "Delete account",
		Description:   "Deletes the account with all books, reviews, profile and sessions",
		Tags:          []string{"Account"},
		Security:      bearerSecurity,
		DefaultStatus: http.StatusNoContent,
	}, s.handleDeleteAccount)
}

// === DTOs ===

// ChangePasswordRequest is the request body for a password change.
type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password" doc:"Current password"`
	NewPassword     string `json:"new_password" doc:"New password"`
}

// ChangePasswordInput wraps the password change for Huma.
type ChangePasswordInput struct {
	Body ChangePasswordRequest
}

// ChangePasswordResponse reports the effect of a password change.
type ChangePasswordResponse struct {
	Message         string `json:"message" doc:"Result message"`
	RevokedSessions int    `json:"revoked_sessions" doc:"Number of other sessions signed out"`
}

// ChangePasswordOutput wraps the response for Huma.
type ChangePasswordOutput struct {
	Body ChangePasswordResponse
}

// ChangeEmailRequest is the request body for an email change.
type ChangeEmailRequest struct {
	Password string `json:"password" doc:"Current password"`
	NewEmail string `json:"new_email" doc:"New email address"`
}

// ChangeEmailInput wraps the email change for Huma.
type ChangeEmailInput struct {
	Body ChangeEmailRequest
}

// DeleteAccountRequest is the request body for deleting an account.
type DeleteAccountRequest struct {
	Password string `json:"password" doc:"Current password"`
}

// DeleteAccountInput wraps the deletion request for Huma.
type DeleteAccountInput struct {
	Body DeleteAccountRequest
}

// === Handlers ===

func (s *Server) handleChangePassword(ctx context.Context, input *ChangePasswordInput) (*ChangePasswordOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}

	revoked, err := s.services.Account.ChangePassword(ctx, userID, getSessionID(ctx), service.ChangePasswordRequest{
		CurrentPassword: input.Body.CurrentPassword,
		NewPassword:     input.Body.NewPassword,
	})
	if err != nil {
		return nil, err
	}
	return &ChangePasswordOutput{Body: ChangePasswordResponse{
		Message:         "password changed",
		RevokedSessions: revoked,
	}}, nil
}

func (s *Server) handleChangeEmail(ctx context.Context, input *ChangeEmailInput) (*UserOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}

	user, err := s.services.Account.ChangeEmail(ctx, userID, service.ChangeEmailRequest{
		Password: input.Body.Password,
		NewEmail: input.Body.NewEmail,
	})
	if err != nil {
		return nil, err
	}
	return &UserOutput{Body: mapUserResponse(user)}, nil
}

func (s *Server) handleDeleteAccount(ctx context.Context, input *DeleteAccountInput) (*struct{}, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}

	if err := s.services.Account.DeleteAccount(ctx, userID, service.DeleteAccountRequest{
		Password: input.Body.Password,
	}); err != nil {
		return nil, err
	}
	return nil, nil //nolint:nilnil // 204 No Content
}

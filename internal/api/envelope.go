package api

import (
	"errors"
	"strconv"

	"github.com/danielgtaylor/huma/v2"

	domainerrors "github.com/bookclubapp/bookclub-server/internal/errors"
)

// EnvelopeVersion is the wire version of the response envelope.
// Clients reject envelopes with a version they do not know.
const EnvelopeVersion = 1

// APIEnvelope wraps every successful response and simple errors.
type APIEnvelope struct { //nolint:revive // API prefix is intentional for clarity
	Version int    `json:"v"`
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
}

// APIErrorEnvelope carries a coded error.
type APIErrorEnvelope struct { //nolint:revive // API prefix is intentional for clarity
	Version int    `json:"v"`
	Success bool   `json:"success"`
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

// EnvelopeTransformer is a huma transformer that wraps response bodies.
func EnvelopeTransformer(_ huma.Context, status string, v any) (any, error) {
	code, _ := strconv.Atoi(status)
	isError := code >= 400

	if err, ok := v.(error); ok {
		var apiErr *APIError
		if !errors.As(err, &apiErr) {
			var domainErr *domainerrors.Error
			if errors.As(err, &domainErr) {
				apiErr = newAPIError(code, domainErr.Message, domainErr)
				if domainErr.Code == domainerrors.CodeInternal {
					apiErr.Message = "internal server error"
				}
			}
		}
		if apiErr != nil && apiErr.Code != "" {
			return APIErrorEnvelope{
				Version: EnvelopeVersion,
				Code:    apiErr.Code,
				Message: apiErr.Message,
				Details: apiErr.Details,
			}, nil
		}
		return APIEnvelope{Version: EnvelopeVersion, Error: err.Error()}, nil
	}

	if isError {
		return APIEnvelope{Version: EnvelopeVersion, Error: "request failed", Data: v}, nil
	}
	return APIEnvelope{Version: EnvelopeVersion, Success: true, Data: v}, nil
}

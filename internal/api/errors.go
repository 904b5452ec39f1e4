package api

import (
	"errors"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	domainerrors "github.com/coursepilot/coursepilot/internal/errors"
	"github.com/coursepilot/coursepilot/internal/http/response"
)

// APIError implements huma.StatusError with the domain error fields.
type APIError struct { //nolint:revive // API prefix is intentional for clarity
	status  int
	Code    string `json:"code" doc:"Machine-readable error code"`
	Message string `json:"message" doc:"Human-readable error message"`
	Details any    `json:"details,omitempty" doc:"Additional error details"`
}

func (e *APIError) Error() string {
	return e.Message
}

// GetStatus implements huma.StatusError.
func (e *APIError) GetStatus() int {
	return e.status
}

// RegisterErrorHandler makes huma build every error from the domain error
// taxonomy. Call it after creating the huma.API and before serving.
func RegisterErrorHandler() {
	huma.NewError = func(status int, message string, errs ...error) huma.StatusError {
		for _, err := range errs {
			var domainErr *domainerrors.Error
			if errors.As(err, &domainErr) {
				return &APIError{
					status:  domainErr.HTTPStatus(),
					Code:    string(domainErr.Code),
					Message: domainErr.Message,
					Details: domainErr.Details,
				}
			}
		}

		apiErr := &APIError{status: status, Code: statusToCode(status), Message: message}
		if details := detailMessages(errs); len(details) > 0 {
			apiErr.Details = details
		}
		return apiErr
	}
}

// detailMessages keeps huma's own request validation messages.
func detailMessages(errs []error) []string {
	var out []string
	for _, err := range errs {
		if err != nil {
			out = append(out, err.Error())
		}
	}
	return out
}

func statusToCode(status int) string {
	switch status {
	case http.StatusBadRequest, http.StatusUnprocessableEntity:
		return string(domainerrors.CodeValidation)
	case http.StatusNotFound:
		return string(domainerrors.CodeNotFound)
	case http.StatusTooManyRequests:
		return response.CodeRateLimited
	case http.StatusServiceUnavailable:
		return string(domainerrors.CodeTargetUnavailable)
	default:
		return string(domainerrors.CodeInternal)
	}
}

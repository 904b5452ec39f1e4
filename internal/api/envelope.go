package api

import (
	"strconv"

	"github.com/danielgtaylor/huma/v2"

	"github.com/coursepilot/coursepilot/internal/http/response"
)

// EnvelopeTransformer wraps every huma response body in response.Envelope.
func EnvelopeTransformer(_ huma.Context, status string, v any) (any, error) {
	if apiErr, ok := v.(*APIError); ok {
		return response.Failure(apiErr.Code, apiErr.Message, apiErr.Details), nil
	}
	if code, err := strconv.Atoi(status); err == nil && code >= 400 {
		if se, ok := v.(huma.StatusError); ok {
			return response.Failure(statusToCode(code), se.Error(), nil), nil
		}
	}
	return response.OK(v), nil
}

package codecheck

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/sashabaranov/go-openai"
	"google.golang.org/api/googleapi"
)

// Provider is an AI oracle that answers a single prompt with text.
type Provider interface {
	Name() string
	Complete(ctx context.Context, system, prompt string) (string, error)
}

// ErrEmptyResponse is returned when the oracle answers without any text.
var ErrEmptyResponse = errors.New("ai provider returned no content")

// statusCode extracts the HTTP status carried by a provider error, or 0.
func statusCode(err error) int {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return apiErr.HTTPStatusCode
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return reqErr.HTTPStatusCode
	}
	var gErr *googleapi.Error
	if errors.As(err, &gErr) {
		return gErr.Code
	}
	var sErr *statusError
	if errors.As(err, &sErr) {
		return sErr.code
	}
	return 0
}

func isRetryable(err error) bool {
	switch statusCode(err) {
	case http.StatusTooManyRequests,
		http.StatusInternalServerError,
		http.StatusBadGateway,
		http.StatusServiceUnavailable,
		http.StatusGatewayTimeout:
		return true
	}
	return false
}

type statusError struct {
	code int
	msg  string
}

func (e *statusError) Error() string { return fmt.Sprintf("status %d: %s", e.code, e.msg) }

// StatusError builds an error that carries an HTTP status, for providers without a typed error.
func StatusError(code int, msg string) error { return &statusError{code: code, msg: msg} }

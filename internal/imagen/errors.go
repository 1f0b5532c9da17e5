package imagen

import (
	"errors"
	"fmt"
)

var (
	ErrMissingAPIKey = errors.New("image generation API key not configured")
	ErrEmptyPrompt   = errors.New("prompt must not be empty")
	ErrUnauthorized  = errors.New("access denied by image generation service")
	ErrModelNotFound = errors.New("model not found or not supported")
	ErrRateLimited   = errors.New("image generation rate limit exceeded")
	ErrNoImage       = errors.New("service returned no image (possibly blocked by safety filters)")
)

// ServiceError is any other non-success response from the provider.
type ServiceError struct {
	StatusCode int
	Message    string
}

func (e *ServiceError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("image generation failed: http status %d", e.StatusCode)
	}
	return fmt.Sprintf("image generation failed: http status %d: %s", e.StatusCode, e.Message)
}

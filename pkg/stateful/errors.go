package stateful

import (
	"errors"
	"fmt"
	"net/http"
)

// NotFoundError reports an unknown resource, or an unknown item when ID is set.
type NotFoundError struct {
	Resource string
	ID       string
}

func (e *NotFoundError) Error() string {
	if e.ID == "" {
		return fmt.Sprintf("resource %q not found", e.Resource)
	}
	return fmt.Sprintf("%s %q not found", e.Resource, e.ID)
}

func (e *NotFoundError) StatusCode() int { return http.StatusNotFound }

// Hint suggests how to fix the request.
func (e *NotFoundError) Hint() string {
	if e.ID == "" {
		return fmt.Sprintf("No type is configured with the name %q.", e.Resource)
	}
	return fmt.Sprintf("List %s to see which ids exist.", e.Resource)
}

// ValidationError is returned when a request body cannot be used as an entity.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

func (e *ValidationError) StatusCode() int { return http.StatusBadRequest }

func (e *ValidationError) Hint() string {
	return "Send a JSON object as the request body."
}

// PayloadTooLargeError is returned when a body exceeds the configured limit.
type PayloadTooLargeError struct {
	MaxSize int64
}

func (e *PayloadTooLargeError) Error() string {
	return fmt.Sprintf("request body exceeds %d bytes", e.MaxSize)
}

func (e *PayloadTooLargeError) StatusCode() int { return http.StatusRequestEntityTooLarge }

func (e *PayloadTooLargeError) Hint() string {
	return fmt.Sprintf("Keep request bodies under %d bytes.", e.MaxSize)
}

// ToErrorResponse maps err onto the body the backend writes for it.
func ToErrorResponse(err error) *ErrorResponse {
	var (
		notFound   *NotFoundError
		validation *ValidationError
		tooLarge   *PayloadTooLargeError
	)
	switch {
	case errors.As(err, &notFound):
		return &ErrorResponse{
			Error:      "resource not found",
			Resource:   notFound.Resource,
			ID:         notFound.ID,
			StatusCode: notFound.StatusCode(),
			Hint:       notFound.Hint(),
		}
	case errors.As(err, &validation):
		return &ErrorResponse{
			Error:      "invalid request",
			Detail:     validation.Message,
			StatusCode: validation.StatusCode(),
			Hint:       validation.Hint(),
		}
	case errors.As(err, &tooLarge):
		return &ErrorResponse{
			Error:      "payload too large",
			Detail:     tooLarge.Error(),
			StatusCode: tooLarge.StatusCode(),
			Hint:       tooLarge.Hint(),
		}
	}
	return &ErrorResponse{
		Error:      "internal error",
		Detail:     err.Error(),
		StatusCode: http.StatusInternalServerError,
	}
}

package blog

import "errors"

var (
	ErrNotFound      = errors.New("post not found")
	ErrDuplicateSlug = errors.New("a post with this slug already exists")
)

// ValidationError reports a bad or missing input field.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Field + ": " + e.Message
}

func invalid(field, msg string) error {
	return &ValidationError{Field: field, Message: msg}
}

package extractionModel

import "errors"

var (
	ErrNotFound          = errors.New("not found")
	ErrConflict          = errors.New("job already running")
	ErrValidation        = errors.New("validation error")
	ErrSecurityViolation = errors.New("path escapes extraction root")
	ErrSubprocessFailure = errors.New("extraction tool failed")
)

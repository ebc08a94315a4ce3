package errors

import "errors"

var (
	ErrChallengeNotFound  = errors.New("challenge not found")
	ErrCompletionNotFound = errors.New("completion not found")
	ErrInvalidReport      = errors.New("invalid completion report")
	ErrInvalidChallenge   = errors.New("invalid challenge definition")
	ErrInvalidInput       = errors.New("invalid input")
	ErrWriteConflict      = errors.New("write conflict")
)

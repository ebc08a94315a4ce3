package errors

import "errors"

var (
	ErrProgramNotFound     = errors.New("program not found")
	ErrEnrollmentNotFound  = errors.New("enrollment not found")
	ErrProgramNotPublished = errors.New("program is not available for enrollment")
	ErrProgramFull         = errors.New("program is full")
	ErrAlreadyEnrolled     = errors.New("already enrolled in this program")
	ErrNotFreeProgram      = errors.New("program is not free to join")
	ErrCheckoutNotFound    = errors.New("checkout not found")
	ErrPaymentUnavailable  = errors.New("payment provider is unavailable")
	ErrInvalidInput        = errors.New("invalid enrollment input")
	ErrWriteConflict       = errors.New("transient write conflict")
)

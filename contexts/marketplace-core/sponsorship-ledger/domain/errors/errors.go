package errors

import "errors"

var (
	ErrRuleNotFound            = errors.New("support rule not found")
	ErrAllocationNotFound      = errors.New("allocation not found")
	ErrQuotaExhausted          = errors.New("sponsorship quota exhausted")
	ErrInvalidRuleInput        = errors.New("invalid support rule input")
	ErrContributionCapExceeded = errors.New("contribution exceeds cap")
	ErrInvalidTransition       = errors.New("invalid rule status transition")
	ErrInvalidInput            = errors.New("invalid input")
	ErrWriteConflict           = errors.New("write conflict")
)

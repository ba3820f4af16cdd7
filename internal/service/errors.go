package service

import (
	"errors"
	"fmt"

	"partyroom/internal/selector"
)

var (
	ErrNotFound          = errors.New("session not found")
	ErrDuplicateName     = errors.New("player name already taken")
	ErrInvalidTransition = errors.New("invalid session transition")
	ErrEmptyPool         = selector.ErrEmptyPool
	ErrStorage           = errors.New("storage failure")
	ErrInvalidInput      = errors.New("invalid input")
)

// Wire reasons reported to the caller that triggered an error
const (
	ReasonNotFound          = "not_found"
	ReasonDuplicate         = "duplicate"
	ReasonInvalidTransition = "invalid_transition"
	ReasonEmptyPool         = "empty_pool"
	ReasonStorage           = "storage_failure"
	ReasonInvalidRequest    = "invalid_request"
	ReasonInternal          = "internal"
)

// Reason maps an error to its wire reason
func Reason(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrNotFound):
		return ReasonNotFound
	case errors.Is(err, ErrDuplicateName):
		return ReasonDuplicate
	case errors.Is(err, ErrInvalidTransition):
		return ReasonInvalidTransition
	case errors.Is(err, ErrEmptyPool):
		return ReasonEmptyPool
	case errors.Is(err, ErrStorage):
		return ReasonStorage
	case errors.Is(err, ErrInvalidInput):
		return ReasonInvalidRequest
	default:
		return ReasonInternal
	}
}

func storageErr(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrStorage, op, err)
}

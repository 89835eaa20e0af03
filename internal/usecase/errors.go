package usecase

import (
	"errors"

	"github.com/riskibarqy/sportsfeed/internal/parser"
)

var (
	ErrInvalidInput          = errors.New("invalid input")
	ErrNotFound              = errors.New("resource not found")
	ErrUnauthorized          = errors.New("unauthorized")
	ErrDependencyUnavailable = errors.New("dependency unavailable")
	ErrPersistence           = errors.New("persistence failure")
	ErrMaxAttempts           = errors.New("max attempts exceeded")

	// ErrParse is the parser sentinel so both packages match the same failures.
	ErrParse = parser.ErrParse
)

package matcher

import "github.com/pkg/errors"

var (
	ErrInvalidBreadth = errors.New("breadth must be at least 1")
	ErrStopped        = errors.New("worker stopped")
)

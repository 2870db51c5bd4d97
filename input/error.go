package input

import (
	"github.com/perlin-network/matcher/mentor"
	"github.com/pkg/errors"
)

var (
	ErrBlankName     = errors.New("name must not be blank")
	ErrNoPreferences = mentor.ErrNoPreferences
	ErrMalformed     = errors.New("input is malformed")
)

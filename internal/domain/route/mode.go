package route

import (
	"fmt"
	"strings"

	"github.com/tripseat/service-booking/internal/platform/apperr"
)

// Mode is the kind of vehicle serving a route.
type Mode string

const (
	ModeBus   Mode = "bus"
	ModeTrain Mode = "train"
)

// IsValid reports whether m is a known mode.
func (m Mode) IsValid() bool {
	switch m {
	case ModeBus, ModeTrain:
		return true
	}
	return false
}

// ParseMode converts s into a Mode, ignoring case.
func ParseMode(s string) (Mode, error) {
	m := Mode(strings.ToLower(strings.TrimSpace(s)))
	if !m.IsValid() {
		return "", apperr.Validation(fmt.Sprintf("invalid route mode: %q", s))
	}
	return m, nil
}

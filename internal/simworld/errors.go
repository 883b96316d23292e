package simworld

import "errors"

// Sentinel error kinds shared by World and simmanager.Manager (spec §7).
// These are wrapped with context via fmt.Errorf("...: %w", ...) and
// matched with errors.Is by internal/control.
var (
	ErrNotFound               = errors.New("not found")
	ErrInvalidInput           = errors.New("invalid input")
	ErrInvalidStateTransition = errors.New("invalid state transition")
	ErrCapacityExhausted      = errors.New("capacity exhausted")
)

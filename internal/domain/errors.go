package domain

import "errors"

// Sentinel errors used across layers.
var (
	ErrNotFound            = errors.New("not found")
	ErrNoActiveRecipe      = errors.New("no active recipe")
	ErrStepOutOfRange      = errors.New("step out of range")
	ErrNoMoreSteps         = errors.New("no more steps in recipe")
	ErrAtFirstStep         = errors.New("already at the first step")
	ErrSessionPaused       = errors.New("session is paused")
	ErrUpstreamUnavailable = errors.New("language model unavailable")
	ErrNotImplemented      = errors.New("not implemented")
)

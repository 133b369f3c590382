package playtest

import "time"

// Defaults applied to zero-valued Config fields.
const (
	DefaultSessions          = 20
	DefaultWorkers           = 4
	DefaultTimeout           = 10 * time.Second
	DefaultChangeProbability = 0.1
	DefaultBackProbability   = 0.05

	// stepsPerFigure bounds the moves spent on one figure before a session
	// is considered stuck.
	stepsPerFigure = 20
	maxErrorBody   = 4 << 10
)

// Package playtest drives complete quiz sessions against a running server
// and checks every results payload it gets back.
package playtest

import (
	"time"

	"github.com/okian/eraquiz/pkg/logger"
)

// Config holds configuration for a playtest run.
type Config struct {
	BaseURL  string        // Base URL of the service
	Sessions int           // Number of sessions to play
	Workers  int           // Number of sessions played at once
	Timeout  time.Duration // HTTP request timeout
	Seed     uint64        // Seed for answer choices; 0 picks one from the clock

	// ChangeProbability is the chance of changing an answer on reveal.
	ChangeProbability float64
	// BackProbability is the chance of stepping back on reveal.
	BackProbability float64

	Logger logger.Logger
}

// Stats holds run statistics.
type Stats struct {
	SessionsPlayed    int
	SessionsCompleted int
	SessionsFailed    int
	Violations        int
	Requests          int64
	StartTime         time.Time
	EndTime           time.Time
	Duration          time.Duration
}

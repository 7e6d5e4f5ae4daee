package smoke

import (
	"errors"
	"fmt"
	"time"
)

// ErrInvalidConfig is returned by Validate.
var ErrInvalidConfig = errors.New("invalid smoke config")

// Config holds configuration for a smoke run.
type Config struct {
	BaseURL string        // Base URL of the service
	Users   int           // Number of users to register, log in and predict for
	Workers int           // Number of concurrent workers
	Timeout time.Duration // HTTP request timeout
	Verbose bool          // Enable verbose logging
}

// Validate checks that the run can make progress.
func (c *Config) Validate() error {
	if c.BaseURL == "" {
		return fmt.Errorf("%w: base URL is required", ErrInvalidConfig)
	}
	if c.Users < 0 {
		return fmt.Errorf("%w: users must not be negative, got %d", ErrInvalidConfig, c.Users)
	}
	if c.Workers < 1 {
		return fmt.Errorf("%w: workers must be at least 1, got %d", ErrInvalidConfig, c.Workers)
	}
	return nil
}

// Stats holds run statistics.
type Stats struct {
	UsersRegistered    int
	LoginsSucceeded    int
	PredictionsOK      int
	PredictionsInvalid int
	Failures           int
	StartTime          time.Time
	EndTime            time.Time
	Duration           time.Duration
}

// MatchState is one prediction form submission.
type MatchState struct {
	BattingTeam    string
	BowlingTeam    string
	Overs          float64
	Runs           int
	Wickets        int
	RunsInPrev5    int
	WicketsInPrev5 int
}

// Package model contains domain models passed between layers.
package model

import "time"

// User is a registered identity. Users are created once and never updated.
type User struct {
	ID           string    // surrogate id (uuid)
	Username     string    // unique, case-sensitive
	PasswordHash string    // self-describing adaptive hash
	CreatedAt    time.Time // registration time, UTC
}

// MatchState captures the in-progress innings submitted on the prediction form.
type MatchState struct {
	BattingTeam     string
	BowlingTeam     string
	Runs            int
	Wickets         int
	Overs           float64
	RunsLastFive    int // runs in the previous five overs
	WicketsLastFive int // wickets in the previous five overs
}

// Prediction is the outcome of one model call.
type Prediction struct {
	Score float64 // raw model output
	Lower int
	Upper int
}

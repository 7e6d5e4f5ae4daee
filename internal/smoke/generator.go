package smoke

import (
	"math/rand/v2"

	"github.com/google/uuid"

	"github.com/okian/inningscast/internal/domain/features"
)

// newUsername returns a unique, collision-free username.
func newUsername() string {
	return "smoke-" + uuid.NewString()
}

// newPassword returns a random password well under the bcrypt limit.
func newPassword() string {
	return uuid.NewString()[:18]
}

// randomMatchState builds a plausible state after at least five overs.
func randomMatchState() MatchState {
	teams := features.Teams
	bat := rand.IntN(len(teams))
	bowl := rand.IntN(len(teams) - 1)
	if bowl >= bat {
		bowl++
	}

	completed := 5 + rand.IntN(15)
	balls := rand.IntN(6)
	overs := float64(completed) + float64(balls)/10

	runs := completed*(5+rand.IntN(6)) + rand.IntN(6)
	wickets := rand.IntN(8)
	runsPrev5 := min(runs, 25+rand.IntN(40))
	wicketsPrev5 := min(wickets, rand.IntN(4))

	return MatchState{
		BattingTeam:    teams[bat],
		BowlingTeam:    teams[bowl],
		Overs:          overs,
		Runs:           runs,
		Wickets:        wickets,
		RunsInPrev5:    runsPrev5,
		WicketsInPrev5: wicketsPrev5,
	}
}

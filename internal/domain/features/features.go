// Package features turns a match state into the model's input vector.
//
// The column order is the order the regression was trained on. The model
// cannot detect a reordering, so Teams and the scalar order must not change
// without retraining.
package features

import "github.com/okian/inningscast/internal/domain/model"

// Teams is the closed, ordered set of franchises used for both one-hot blocks.
var Teams = []string{
	"Chennai Super Kings",
	"Delhi Capitals",
	"Delhi Daredevils",
	"Gujarat Lions",
	"Gujarat Titans",
	"Kings XI Punjab",
	"Kolkata Knight Riders",
	"Lucknow Super Giants",
	"Mumbai Indians",
	"Punjab Kings",
	"Rajasthan Royals",
	"Royal Challengers Bangalore",
	"Royal Challengers Bengaluru",
	"Sunrisers Hyderabad",
}

// scalarColumns are emitted first, in this order.
var scalarColumns = []string{"runs", "wickets", "overs", "runs_last_5", "wickets_last_5"}

// Length is the number of columns in a Vector.
var Length = len(scalarColumns) + 2*len(Teams)

// Vector is the fixed-order numeric model input.
type Vector []float64

// Build emits the scalar match fields followed by the batting and bowling
// one-hot blocks. A team outside Teams yields an all-zero block.
func Build(s model.MatchState) Vector {
	v := make(Vector, 0, Length)
	v = append(v,
		float64(s.Runs),
		float64(s.Wickets),
		s.Overs,
		float64(s.RunsLastFive),
		float64(s.WicketsLastFive),
	)
	v = appendOneHot(v, s.BattingTeam)
	v = appendOneHot(v, s.BowlingTeam)
	return v
}

func appendOneHot(v Vector, team string) Vector {
	for _, t := range Teams {
		if t == team {
			v = append(v, 1)
		} else {
			v = append(v, 0)
		}
	}
	return v
}

// ColumnNames returns the canonical column names in vector order.
func ColumnNames() []string {
	names := make([]string, 0, Length)
	names = append(names, scalarColumns...)
	for _, t := range Teams {
		names = append(names, "bat_team_"+t)
	}
	for _, t := range Teams {
		names = append(names, "bowl_team_"+t)
	}
	return names
}

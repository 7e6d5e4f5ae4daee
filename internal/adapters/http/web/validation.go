package web

import (
	"math"
	"net/http"
	"strconv"
	"strings"

	"github.com/okian/inningscast/internal/domain/model"
)

// Field names as posted by the forms.
const (
	fieldUsername       = "username"
	fieldPassword       = "password"
	fieldBattingTeam    = "batting_team"
	fieldBowlingTeam    = "bowling_team"
	fieldOvers          = "overs"
	fieldRuns           = "runs"
	fieldWickets        = "wickets"
	fieldRunsInPrev5    = "runs_in_prev_5"
	fieldWicketsInPrev5 = "wickets_in_prev_5"
	formBodyField       = "body"
)

const (
	reasonRequired      = "field required"
	reasonNotInteger    = "value is not a valid integer"
	reasonNotNumber     = "value is not a valid number"
	reasonMalformedBody = "malformed form body"
)

// form reads url-encoded or multipart bodies and reports fields in the order
// they are requested.
type form struct {
	r *http.Request
}

func parseForm(r *http.Request) (form, error) {
	ct := r.Header.Get("Content-Type")
	var err error
	if strings.HasPrefix(ct, "multipart/form-data") {
		err = r.ParseMultipartForm(1 << 20)
	} else {
		err = r.ParseForm()
	}
	if err != nil {
		return form{}, &ValidationError{Field: formBodyField, Reason: reasonMalformedBody}
	}
	return form{r: r}, nil
}

func (f form) text(name string) (string, error) {
	v := f.r.PostForm.Get(name)
	if v == "" {
		return "", &ValidationError{Field: name, Reason: reasonRequired}
	}
	return v, nil
}

func (f form) integer(name string) (int, error) {
	v, err := f.text(name)
	if err != nil {
		return 0, err
	}
	n, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil {
		return 0, &ValidationError{Field: name, Reason: reasonNotInteger}
	}
	return n, nil
}

func (f form) number(name string) (float64, error) {
	v, err := f.text(name)
	if err != nil {
		return 0, err
	}
	x, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
	if err != nil || math.IsNaN(x) || math.IsInf(x, 0) {
		return 0, &ValidationError{Field: name, Reason: reasonNotNumber}
	}
	return x, nil
}

type credentials struct {
	Username string
	Password string
}

func parseCredentials(r *http.Request) (credentials, error) {
	f, err := parseForm(r)
	if err != nil {
		return credentials{}, err
	}
	var c credentials
	if c.Username, err = f.text(fieldUsername); err != nil {
		return credentials{}, err
	}
	if c.Password, err = f.text(fieldPassword); err != nil {
		return credentials{}, err
	}
	return c, nil
}

// parseMatchState validates the prediction form in declaration order and
// stops at the first bad field.
func parseMatchState(r *http.Request) (model.MatchState, error) {
	f, err := parseForm(r)
	if err != nil {
		return model.MatchState{}, err
	}
	var s model.MatchState
	if s.BattingTeam, err = f.text(fieldBattingTeam); err != nil {
		return model.MatchState{}, err
	}
	if s.BowlingTeam, err = f.text(fieldBowlingTeam); err != nil {
		return model.MatchState{}, err
	}
	if s.Overs, err = f.number(fieldOvers); err != nil {
		return model.MatchState{}, err
	}
	if s.Runs, err = f.integer(fieldRuns); err != nil {
		return model.MatchState{}, err
	}
	if s.Wickets, err = f.integer(fieldWickets); err != nil {
		return model.MatchState{}, err
	}
	if s.RunsLastFive, err = f.integer(fieldRunsInPrev5); err != nil {
		return model.MatchState{}, err
	}
	if s.WicketsLastFive, err = f.integer(fieldWicketsInPrev5); err != nil {
		return model.MatchState{}, err
	}
	return s, nil
}

// Package scoring wraps the pre-trained score regression behind a Scorer.
package scoring

import (
	"context"
	"fmt"
	"math"

	"github.com/okian/inningscast/internal/domain/features"
	"github.com/okian/inningscast/internal/domain/types"
)

// Display window offsets around the floored score.
const (
	lowerOffset = 10
	upperOffset = 5
)

// Input is the vector handed to the model.
type Input struct {
	Features features.Vector
}

// Result contains the raw model output.
type Result struct {
	Score float64
}

// Scorer computes a score from a feature vector. Implementations are
// read-only after construction and safe for concurrent use.
type Scorer interface {
	Score(ctx context.Context, in Input) (Result, error)
}

// Option applies a configuration option to a LinearModel.
type Option func(*LinearModel)

// WithName labels the model for logs and stats.
func WithName(name string) Option {
	return func(m *LinearModel) {
		if name != "" {
			m.name = name
		}
	}
}

// LinearModel is an ordinary least squares regression: intercept + coef·x.
type LinearModel struct {
	name         string
	intercept    float64
	coefficients []float64
}

var _ Scorer = (*LinearModel)(nil)

// NewLinearModel builds a model whose coefficients line up with features.Length.
func NewLinearModel(intercept float64, coefficients []float64, opts ...Option) (*LinearModel, error) {
	if len(coefficients) != features.Length {
		return nil, fmt.Errorf("%w: %d coefficients, want %d", ErrInvalidModel, len(coefficients), features.Length)
	}
	for i, c := range coefficients {
		if math.IsNaN(c) || math.IsInf(c, 0) {
			return nil, fmt.Errorf("%w: coefficient %d is not finite", ErrInvalidModel, i)
		}
	}
	m := &LinearModel{
		name:         "linear",
		intercept:    intercept,
		coefficients: append([]float64(nil), coefficients...),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m, nil
}

// Name returns the model label.
func (m *LinearModel) Name() string {
	return m.name
}

// Score evaluates the regression. There is no retry and no fallback.
func (m *LinearModel) Score(_ context.Context, in Input) (Result, error) {
	if len(in.Features) != len(m.coefficients) {
		return Result{}, fmt.Errorf("%w: got %d features, want %d", ErrShape, len(in.Features), len(m.coefficients))
	}
	score := m.intercept
	for i, x := range in.Features {
		score += m.coefficients[i] * x
	}
	return Result{Score: score}, nil
}

// ToDisplayRange maps a raw score to the shown window:
// floor(score)-10 .. floor(score)+5.
func ToDisplayRange(score float64) types.ScoreRange {
	base := int(math.Floor(score))
	return types.ScoreRange{
		Lower: base - lowerOffset,
		Upper: base + upperOffset,
	}
}

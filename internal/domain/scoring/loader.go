package scoring

import (
	"fmt"
	"os"
	"slices"

	"gopkg.in/yaml.v3"

	"github.com/okian/inningscast/internal/domain/features"
)

// artifact is the on-disk model description. JSON is valid YAML, so both work.
type artifact struct {
	Name         string    `yaml:"name"`
	Intercept    float64   `yaml:"intercept"`
	Features     []string  `yaml:"features"`
	Coefficients []float64 `yaml:"coefficients"`
}

// Load reads a model artifact from path.
func Load(path string) (*LinearModel, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read model %s: %w", path, err)
	}
	return Parse(raw)
}

// Parse decodes an artifact and checks it against the feature layout.
func Parse(raw []byte) (*LinearModel, error) {
	var a artifact
	if err := yaml.Unmarshal(raw, &a); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidModel, err)
	}
	if len(a.Features) > 0 && !slices.Equal(a.Features, features.ColumnNames()) {
		return nil, fmt.Errorf("%w: declared feature order does not match the vector layout", ErrInvalidModel)
	}
	return NewLinearModel(a.Intercept, a.Coefficients, WithName(a.Name))
}

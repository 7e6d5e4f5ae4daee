package scoring

import "errors"

// Sentinel kinds for model errors.
var (
	ErrInvalidModel = errors.New("invalid model artifact")
	ErrShape        = errors.New("feature vector shape mismatch")
)

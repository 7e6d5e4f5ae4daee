package smoke

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
)

var (
	lowerRe = regexp.MustCompile(`id="lower-limit">(-?\d+)<`)
	upperRe = regexp.MustCompile(`id="upper-limit">(-?\d+)<`)
)

// ErrNoRange means the result page did not contain both limits.
var ErrNoRange = errors.New("result page has no score range")

// parseRange extracts the displayed limits from a result page.
func parseRange(body string) (lower, upper int, err error) {
	lm := lowerRe.FindStringSubmatch(body)
	um := upperRe.FindStringSubmatch(body)
	if lm == nil || um == nil {
		return 0, 0, ErrNoRange
	}
	lower, _ = strconv.Atoi(lm[1])
	upper, _ = strconv.Atoi(um[1])
	return lower, upper, nil
}

// verifyRange checks the fixed offsets around the floored score.
func verifyRange(lower, upper int) error {
	if upper-lower != rangeWidth {
		return fmt.Errorf("range %d..%d has width %d, want %d", lower, upper, upper-lower, rangeWidth)
	}
	return nil
}

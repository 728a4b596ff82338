package algo

import (
	"errors"
	"fmt"
)

var ErrInvalidSpeed = errors.New("algo: walking speed must be positive")

// DefaultSpeedScale converts speeds given per 1000 time units into the
// per-time-unit distance used by edge weights.
const DefaultSpeedScale = 1.0 / 1000

// SlowestSpeed returns the smallest speed multiplied by scale.
func SlowestSpeed(speeds []int, scale float64) (float64, error) {
	if len(speeds) == 0 {
		return 0, fmt.Errorf("%w: no speeds given", ErrInvalidSpeed)
	}
	if scale <= 0 {
		return 0, fmt.Errorf("%w: scale=%v", ErrInvalidSpeed, scale)
	}
	slowest := speeds[0]
	for _, s := range speeds {
		if s <= 0 {
			return 0, fmt.Errorf("%w: %d", ErrInvalidSpeed, s)
		}
		slowest = min(slowest, s)
	}
	return float64(slowest) * scale, nil
}

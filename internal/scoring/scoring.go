// Package scoring computes per-question points from correctness and answer
// speed. It is pure and idempotent: the same inputs always yield the same
// points, so a retried reveal cannot double-award.
package scoring

import "math"

// Default point constants, matching the classic base-plus-speed-bonus rule.
const (
	DefaultBasePoints  = 500
	DefaultBonusPoints = 500
)

// Config carries the scoring constants. The zero value falls back to the
// defaults.
type Config struct {
	BasePoints  int
	BonusPoints int
}

func (c Config) withDefaults() Config {
	if c.BasePoints == 0 {
		c.BasePoints = DefaultBasePoints
	}
	if c.BonusPoints == 0 {
		c.BonusPoints = DefaultBonusPoints
	}
	return c
}

// Score returns the points awarded for one answer. Incorrect answers score 0.
// Correct answers earn the base plus a speed bonus decaying linearly from the
// full bonus at elapsed=0 to zero at the time limit. Elapsed is clamped to
// [0, limit] before use, so the result is always within [base, base+bonus].
func Score(cfg Config, correct bool, elapsedSeconds float64, timeLimitSeconds int) int {
	if !correct || timeLimitSeconds <= 0 {
		return 0
	}
	cfg = cfg.withDefaults()

	limit := float64(timeLimitSeconds)
	elapsed := elapsedSeconds
	if elapsed < 0 {
		elapsed = 0
	}
	if elapsed > limit {
		elapsed = limit
	}

	bonus := float64(cfg.BonusPoints) * (limit - elapsed) / limit
	return int(math.Round(float64(cfg.BasePoints) + bonus))
}

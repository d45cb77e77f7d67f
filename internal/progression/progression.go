// Package progression implements a double-progression strength training
// planner: climb a fixed rep range on success, add weight and restart the
// range when the ceiling is hit, deload after repeated failure.
//
// The package is pure — no I/O, no stored state. Callers hydrate a State
// from storage, apply PlanNext once per completed session, and persist the
// result themselves.
package progression

// DeloadThreshold is the number of consecutive failed sessions that triggers
// a deload. It is a fixed design constant, not configurable per exercise.
const DeloadThreshold = 3

// State is the full prescription for a single exercise. Weights are in kg.
type State struct {
	Name              string  `json:"name"`
	WeightKg          float64 `json:"weight_kg"`
	Reps              int     `json:"reps"`
	RepLow            int     `json:"rep_low"`
	RepHigh           int     `json:"rep_high"`
	RepIncrement      int     `json:"rep_increment"`
	WeightIncrementKg float64 `json:"weight_increment_kg"`
	DeloadKg          float64 `json:"deload_kg"`
	Failures          int     `json:"failures"`
}

// PlanNext computes the prescription for the next session given the outcome
// of the one just completed. It returns a new State and never mutates s;
// only WeightKg, Reps and Failures may differ from the input.
//
// On success the failure streak always clears. Below the rep ceiling the
// reps climb by RepIncrement at constant weight; at or above the ceiling the
// weight increases by WeightIncrementKg and the reps restart at RepLow.
//
// On failure the streak grows, and the session that reaches DeloadThreshold
// drops the weight by DeloadKg and clears the streak in the same call. Reps
// are untouched by a deload. No floor is applied to the weight — a deload
// larger than the current load yields a negative value, which callers should
// surface as a data-quality warning rather than clamp silently.
func PlanNext(s State, success bool) State {
	next := s

	if success {
		next.Failures = 0
		if s.Reps < s.RepHigh {
			next.Reps = s.Reps + s.RepIncrement
		} else {
			next.WeightKg = s.WeightKg + s.WeightIncrementKg
			next.Reps = s.RepLow
		}
		return next
	}

	next.Failures = s.Failures + 1
	if next.Failures >= DeloadThreshold {
		next.WeightKg = s.WeightKg - s.DeloadKg
		next.Failures = 0
	}
	return next
}

// Replay folds PlanNext over an ordered outcome log, returning the state
// after each session. The seed itself is not included in the result. Useful
// for offline recomputation of a historical progression from its log.
func Replay(seed State, outcomes []bool) []State {
	if len(outcomes) == 0 {
		return nil
	}
	states := make([]State, 0, len(outcomes))
	cur := seed
	for _, success := range outcomes {
		cur = PlanNext(cur, success)
		states = append(states, cur)
	}
	return states
}

package progression

import (
	"errors"
	"fmt"
)

// Validation sentinels. Ingestion layers match on these with errors.Is to
// report which constraint a record violated.
var (
	ErrEmptyName        = errors.New("exercise name is empty")
	ErrInvalidRange     = errors.New("rep range low exceeds high")
	ErrInvalidIncrement = errors.New("increment must be positive")
	ErrNegativeWeight   = errors.New("weight must not be negative")
	ErrNegativeFailures = errors.New("failure count must not be negative")
	ErrRepsOutOfRange   = errors.New("reps outside rep range")
)

// Validate checks the construction invariants on a State. It is meant to run
// at ingestion (CSV load, API create), not inside PlanNext — the engine
// assumes validated input and computes unconditionally.
func (s State) Validate() error {
	if s.Name == "" {
		return ErrEmptyName
	}
	if s.WeightKg < 0 {
		return fmt.Errorf("%s: %w (%.2f)", s.Name, ErrNegativeWeight, s.WeightKg)
	}
	if s.RepLow > s.RepHigh {
		return fmt.Errorf("%s: %w (%d > %d)", s.Name, ErrInvalidRange, s.RepLow, s.RepHigh)
	}
	if s.RepIncrement <= 0 {
		return fmt.Errorf("%s: rep_increment: %w (%d)", s.Name, ErrInvalidIncrement, s.RepIncrement)
	}
	if s.WeightIncrementKg <= 0 {
		return fmt.Errorf("%s: weight_increment: %w (%.2f)", s.Name, ErrInvalidIncrement, s.WeightIncrementKg)
	}
	if s.DeloadKg <= 0 {
		return fmt.Errorf("%s: deload: %w (%.2f)", s.Name, ErrInvalidIncrement, s.DeloadKg)
	}
	if s.Failures < 0 {
		return fmt.Errorf("%s: %w (%d)", s.Name, ErrNegativeFailures, s.Failures)
	}
	if s.Reps < s.RepLow || s.Reps > s.RepHigh {
		return fmt.Errorf("%s: %w (%d not in [%d,%d])", s.Name, ErrRepsOutOfRange, s.Reps, s.RepLow, s.RepHigh)
	}
	return nil
}

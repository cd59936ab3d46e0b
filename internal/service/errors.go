package service

import (
	"errors"
	"fmt"
)

// Sentinel errors for the engine's failure taxonomy. Only ValidationError
// aborts a request; everything else degrades with an explicit status.
var (
	// ErrBudgetExhausted terminates the generation retry loop. The caller
	// still receives the best admissible draft seen, if any.
	ErrBudgetExhausted = errors.New("generation attempt budget exhausted")

	// ErrNoAdmissibleDraft means the budget ran out without a single draft
	// passing the dietary filter, so there is nothing safe to return.
	ErrNoAdmissibleDraft = errors.New("no admissible draft produced")

	// ErrNutrientNotFound is returned by a NutrientLookup when the database
	// has no entry for an ingredient.
	ErrNutrientNotFound = errors.New("nutrient data not found")
)

// ValidationError reports an out-of-range or malformed profile field. It is
// fatal to the request that carries the profile.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid profile: %s: %s", e.Field, e.Message)
}

// DietaryViolation reports why a recipe failed the dietary filter. Violating
// candidates are excluded, never escalated.
type DietaryViolation struct {
	Constraint string
	Ingredient string
}

func (e *DietaryViolation) Error() string {
	if e.Ingredient != "" {
		return fmt.Sprintf("dietary violation: %s (ingredient %q)", e.Constraint, e.Ingredient)
	}
	return fmt.Sprintf("dietary violation: %s", e.Constraint)
}

// LookupUnresolved reports a single ingredient whose nutrition could not be
// resolved. It degrades the estimate's confidence but never aborts it.
type LookupUnresolved struct {
	Ingredient string
	Err        error
}

func (e *LookupUnresolved) Error() string {
	return fmt.Sprintf("nutrient lookup unresolved for %q: %v", e.Ingredient, e.Err)
}

func (e *LookupUnresolved) Unwrap() error { return e.Err }

// GenerationAttemptFailed wraps one failed iteration of the retry loop.
// Timeouts and malformed model output both land here and count against the
// attempt budget.
type GenerationAttemptFailed struct {
	Attempt int
	Err     error
}

func (e *GenerationAttemptFailed) Error() string {
	return fmt.Sprintf("generation attempt %d failed: %v", e.Attempt, e.Err)
}

func (e *GenerationAttemptFailed) Unwrap() error { return e.Err }

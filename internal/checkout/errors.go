package checkout

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrEmptyCart        = errors.New("checkout: cart is empty")
	ErrSubmitInProgress = errors.New("checkout: submission already in progress")
	ErrNotFinalStep     = errors.New("checkout: submit is only allowed on the review step")
	ErrFirstStep        = errors.New("checkout: already on the first step")
	ErrLastStep         = errors.New("checkout: already on the last step")
	ErrComplete         = errors.New("checkout: order already placed")
	ErrClosed           = errors.New("checkout: workflow closed")
)

// ValidationError names the required fields a step is missing.
type ValidationError struct {
	Step   StepName
	Fields []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("checkout: %s step missing %s", e.Step, strings.Join(e.Fields, ", "))
}

// SubmitError wraps a failed order placement.
type SubmitError struct {
	Err error
}

func (e *SubmitError) Error() string { return "checkout: place order: " + e.Err.Error() }

func (e *SubmitError) Unwrap() error { return e.Err }

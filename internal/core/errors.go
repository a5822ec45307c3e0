package core

import (
	"errors"
	"strings"

	"navisolcore/pkg/domain"
)

// Sentinel errors surfaced by service operations. Callers match with
// errors.Is to map them onto transport-level responses.
var (
	ErrProjectNotFound       = errors.New("project not found")
	ErrQuoteNotFound         = errors.New("quote not found")
	ErrCertificationNotFound = errors.New("certification not found")
	ErrNotEditable           = errors.New("configuration is not editable in the current status")
	ErrConfirmationRequired  = errors.New("milestone transition requires confirmation")
)

// InvalidTransitionError carries the full validation report for a rejected
// lifecycle transition.
type InvalidTransitionError struct {
	Report TransitionReport
}

func (e InvalidTransitionError) Error() string {
	if len(e.Report.Errors) == 0 {
		return "invalid transition"
	}
	return strings.Join(e.Report.Errors, "; ")
}

// ValidationError carries every accumulated input violation so callers can
// present them all at once.
type ValidationError struct {
	Check domain.Check
}

func (e ValidationError) Error() string {
	if len(e.Check.Errors) == 0 {
		return "validation failed"
	}
	return strings.Join(e.Check.Errors, "; ")
}

// checkErr converts a failed check into a ValidationError, or nil when the
// check passed.
func checkErr(c domain.Check) error {
	if c.OK() {
		return nil
	}
	return ValidationError{Check: c}
}

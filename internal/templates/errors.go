package templates

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrUnresolvedReference is matched by every *ResolutionError.
	ErrUnresolvedReference = errors.New("templates: unresolved reference")
	// ErrReferenceCycle is matched by every *CycleError.
	ErrReferenceCycle = errors.New("templates: reference cycle")
	// ErrTooManyPasses is returned when substitution keeps producing new
	// placeholders after the configured number of passes.
	ErrTooManyPasses = errors.New("templates: too many substitution passes")
)

// ResolutionError reports a placeholder whose group or key does not exist.
// Reference holds the placeholder exactly as written in the template.
type ResolutionError struct {
	Reference string
	Group     string
	Key       string
	// MissingGroup is true when the group itself is absent.
	MissingGroup bool
}

func (e *ResolutionError) Error() string {
	if e.MissingGroup {
		return fmt.Sprintf("templates: unresolved reference %s: group %q not found", e.Reference, e.Group)
	}
	return fmt.Sprintf("templates: unresolved reference %s: key %q not found in group %q", e.Reference, e.Key, e.Group)
}

func (e *ResolutionError) Unwrap() error {
	return ErrUnresolvedReference
}

// CycleError reports references that expand into themselves. Chain lists the
// references in expansion order, ending with the repeated one.
type CycleError struct {
	Chain []string
}

func (e *CycleError) Error() string {
	return "templates: reference cycle " + strings.Join(e.Chain, " -> ")
}

func (e *CycleError) Unwrap() error {
	return ErrReferenceCycle
}

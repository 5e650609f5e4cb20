package planner

import (
	"fmt"
	"strings"
)

// ConstraintError reports malformed planning parameters at the boundary
// where structured data enters the core. Values are never silently coerced.
type ConstraintError struct {
	Field  string
	Value  interface{}
	Reason string
}

func (e *ConstraintError) Error() string {
	return fmt.Sprintf("constraint violation on %s=%v: %s", e.Field, e.Value, e.Reason)
}

// NotFoundError reports a referenced track that is not in the catalog.
type NotFoundError struct {
	Resource string
	ID       string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %q not found in catalog", e.Resource, e.ID)
}

// FinalizeError aborts the transition to the finalized state; the plan
// remains a draft.
type FinalizeError struct {
	Errors []string
}

func (e *FinalizeError) Error() string {
	return "plan failed validation at finalize: " + strings.Join(e.Errors, "; ")
}

// RevisionFailedError surfaces an AI revision failure. Revision has no
// deterministic equivalent, so the underlying failure is fatal for the phase.
type RevisionFailedError struct {
	Cause error
}

func (e *RevisionFailedError) Error() string {
	return fmt.Sprintf("revision failed: %v", e.Cause)
}

func (e *RevisionFailedError) Unwrap() error {
	return e.Cause
}

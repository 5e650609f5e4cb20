package agent

import "fmt"

// ParseError reports that a collaborator response could not be reduced to
// the expected structured shape. Field and Value are set when a specific
// field was present but mistyped or out of range.
type ParseError struct {
	Reason string
	Field  string
	Value  string
}

func (e *ParseError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("unparseable AI response: %s (field %q, value %q)", e.Reason, e.Field, e.Value)
	}
	return fmt.Sprintf("unparseable AI response: %s", e.Reason)
}

package params

import (
	"fmt"
	"math"
)

// Severity indicates whether a finding makes a record unusable or is
// merely informational.
type Severity int

const (
	SeverityError   Severity = iota // not a finite number
	SeverityWarning                 // outside the advisory range
)

func (s Severity) String() string {
	switch s {
	case SeverityError:
		return "error"
	case SeverityWarning:
		return "warning"
	default:
		return fmt.Sprintf("Severity(%d)", int(s))
	}
}

// Issue describes a single validation finding.
type Issue struct {
	Field    Field
	Value    float64
	Message  string
	Severity Severity
}

func (i Issue) Error() string {
	return fmt.Sprintf("[%s] %s: %s", i.Severity, i.Field, i.Message)
}

// Validate reports fields that are not finite or fall outside their range.
// Ranges are advisory: generators accept any finite record, so hosts
// decide what to do with warnings. Validate never mutates the record.
func (r Record) Validate() []Issue {
	var issues []Issue
	for _, info := range fieldTable {
		v := *info.ref(&r)
		switch {
		case math.IsNaN(v) || math.IsInf(v, 0):
			issues = append(issues, Issue{
				Field:    info.Field,
				Value:    v,
				Message:  "value is not a finite number",
				Severity: SeverityError,
			})
		case !info.Range.Contains(v):
			issues = append(issues, Issue{
				Field:    info.Field,
				Value:    v,
				Message:  fmt.Sprintf("%g is outside [%g, %g]", v, info.Range.Min, info.Range.Max),
				Severity: SeverityWarning,
			})
		}
	}
	return issues
}

// HasErrors reports whether any issue is an error.
func HasErrors(issues []Issue) bool {
	for _, i := range issues {
		if i.Severity == SeverityError {
			return true
		}
	}
	return false
}

// Clamp returns a copy with every field limited to its range. Non-finite
// values are replaced by the field's default.
func (r Record) Clamp() Record {
	def := Defaults()
	for _, info := range fieldTable {
		p := info.ref(&r)
		if math.IsNaN(*p) || math.IsInf(*p, 0) {
			*p = *info.ref(&def)
			continue
		}
		*p = info.Range.Clamp(*p)
	}
	return r
}

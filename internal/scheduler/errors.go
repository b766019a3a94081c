package scheduler

import (
	"fmt"
	"strings"
)

// InputProblem pinpoints a single contract violation in a roster or timetable.
type InputProblem struct {
	Entity  string `json:"entity"`
	ID      string `json:"id,omitempty"`
	Field   string `json:"field,omitempty"`
	Message string `json:"message"`
}

func (p InputProblem) String() string {
	var b strings.Builder
	b.WriteString(p.Entity)
	if p.ID != "" {
		b.WriteString(" ")
		b.WriteString(p.ID)
	}
	if p.Field != "" {
		b.WriteString(".")
		b.WriteString(p.Field)
	}
	b.WriteString(": ")
	b.WriteString(p.Message)
	return b.String()
}

// InputError is returned before any search starts when the supplied snapshot is malformed or
// contradictory. It is never retried by the engine.
type InputError struct {
	Problems []InputProblem `json:"problems"`
}

// Error implements the error interface.
func (e *InputError) Error() string {
	if e == nil || len(e.Problems) == 0 {
		return "invalid roster"
	}
	if len(e.Problems) == 1 {
		return "invalid roster: " + e.Problems[0].String()
	}
	return fmt.Sprintf("invalid roster: %s (and %d more)", e.Problems[0].String(), len(e.Problems)-1)
}

func (e *InputError) add(entity, id, field, format string, args ...any) {
	e.Problems = append(e.Problems, InputProblem{
		Entity:  entity,
		ID:      id,
		Field:   field,
		Message: fmt.Sprintf(format, args...),
	})
}

func (e *InputError) orNil() error {
	if len(e.Problems) == 0 {
		return nil
	}
	return e
}

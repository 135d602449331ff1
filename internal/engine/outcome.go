package engine

import (
	"encoding/json"
	"errors"

	"transport-benchmark/internal/catalog"
	"transport-benchmark/internal/database"
	"transport-benchmark/internal/generator"
)

// Status says whether an IUD run finished all three phases.
type Status int

const (
	Completed Status = iota
	Aborted
)

func (s Status) String() string {
	if s == Completed {
		return "completed"
	}
	return "aborted"
}

// Error kinds reported by KindOf.
const (
	KindUnknownEntity       = "unknown_entity"
	KindNoAvailableParent   = "no_available_parent"
	KindConstraintViolation = "constraint_violation"
	KindBackendFailure      = "backend_failure"
)

// KindOf classifies err into one of the error kinds. It returns "" for nil.
func KindOf(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, catalog.ErrUnknownEntity):
		return KindUnknownEntity
	case errors.Is(err, generator.ErrNoAvailableParent):
		return KindNoAvailableParent
	case errors.Is(err, database.ErrConstraintViolation):
		return KindConstraintViolation
	}
	return KindBackendFailure
}

// Outcome is how an IUD run ended. The transaction is rolled back either way.
type Outcome struct {
	Status Status
	Err    error
}

func newOutcome(err error) Outcome {
	if err != nil {
		return Outcome{Status: Aborted, Err: err}
	}
	return Outcome{Status: Completed}
}

func (o Outcome) Completed() bool { return o.Status == Completed }

func (o Outcome) Kind() string { return KindOf(o.Err) }

func (o Outcome) String() string {
	if o.Status == Completed {
		return o.Status.String()
	}
	return o.Status.String() + " (" + o.Kind() + "): " + o.Err.Error()
}

func (o Outcome) MarshalJSON() ([]byte, error) {
	out := struct {
		Status string `json:"status"`
		Kind   string `json:"kind,omitempty"`
		Error  string `json:"error,omitempty"`
	}{Status: o.Status.String(), Kind: o.Kind()}
	if o.Err != nil {
		out.Error = o.Err.Error()
	}
	return json.Marshal(out)
}

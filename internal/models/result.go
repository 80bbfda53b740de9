package models

import "time"

// Outcome is the final disposition of one group within a run.
type Outcome string

const (
	OutcomeCreated        Outcome = "created"
	OutcomeUpdated        Outcome = "updated"
	OutcomeNoOp           Outcome = "noop"
	OutcomePartialFailure Outcome = "partial_failure"
	OutcomeFailed         Outcome = "failed"
)

// ErrorKind classifies group failures. Validation and rejection errors
// are never retried; transient errors are retried up to a bound before
// the group is reported failed.
type ErrorKind string

const (
	ErrKindNone            ErrorKind = ""
	ErrKindValidation      ErrorKind = "validation"
	ErrKindData            ErrorKind = "data"
	ErrKindTransientRemote ErrorKind = "transient_remote"
	ErrKindRemoteRejection ErrorKind = "remote_rejection"
	ErrKindNotFound        ErrorKind = "not_found"
)

// GroupResult records the per-group output of a sync run. It is the
// persisted observability surface of the system.
type GroupResult struct {
	GroupID     string
	Outcome     Outcome
	PlatformID  string
	Fingerprint string
	ErrorKind   ErrorKind
	Message     string
	Variants    int
	Metafields  int
}

// RunSummary aggregates group results for one sync run.
type RunSummary struct {
	RunID      string
	StartedAt  time.Time
	FinishedAt time.Time
	Results    []*GroupResult

	Created        int
	Updated        int
	NoOp           int
	PartialFailure int
	Failed         int
}

// Add appends a group result and updates the outcome counters.
func (s *RunSummary) Add(r *GroupResult) {
	s.Results = append(s.Results, r)
	switch r.Outcome {
	case OutcomeCreated:
		s.Created++
	case OutcomeUpdated:
		s.Updated++
	case OutcomeNoOp:
		s.NoOp++
	case OutcomePartialFailure:
		s.PartialFailure++
	case OutcomeFailed:
		s.Failed++
	}
}

// Total returns the number of groups processed.
func (s *RunSummary) Total() int {
	return len(s.Results)
}

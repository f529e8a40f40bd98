package domain

import (
	"fmt"
	"time"

	"github.com/G-Research/jobstats/pkg/userlog"
)

// The errors below describe anomalies found while applying events. None of them stop aggregation;
// they are returned alongside an Applied outcome so the caller can report them.

// ErrInvalidDuration is returned when a usage duration does not have the form "<label> <days> <hh>:<mm>:<ss>".
type ErrInvalidDuration struct {
	Value string
}

func (err *ErrInvalidDuration) Error() string {
	return fmt.Sprintf("invalid duration %q", err.Value)
}

// ErrDuplicateSubmission is returned when a job is submitted more than once.
// The first submission time is kept.
type ErrDuplicateSubmission struct {
	JobId     userlog.JobId
	Submitted time.Time
	Ignored   time.Time
}

func (err *ErrDuplicateSubmission) Error() string {
	return fmt.Sprintf(
		"job %s submitted again at %s; keeping submission time %s",
		err.JobId, err.Ignored.Format(userlog.TimeFormat), err.Submitted.Format(userlog.TimeFormat),
	)
}

// ErrRepeatedTermination is returned when a job terminates more than once.
// Resource usage from the latest termination replaces the earlier values.
type ErrRepeatedTermination struct {
	JobId        userlog.JobId
	Terminations int
}

func (err *ErrRepeatedTermination) Error() string {
	return fmt.Sprintf("job %s terminated %d times; keeping values of the latest termination", err.JobId, err.Terminations)
}

// ErrUnknownTermination is returned for a termination event without a TerminatedNormally flag.
// Such terminations count towards the total but neither the normal nor the abnormal count.
type ErrUnknownTermination struct {
	JobId userlog.JobId
}

func (err *ErrUnknownTermination) Error() string {
	return fmt.Sprintf("job %s terminated without a TerminatedNormally flag; not classified as normal or abnormal", err.JobId)
}

// AnomalyType gives a short, stable name for an anomaly, used to label metrics.
func AnomalyType(err error) string {
	switch err.(type) {
	case *ErrInvalidDuration:
		return "invalid_duration"
	case *ErrDuplicateSubmission:
		return "duplicate_submission"
	case *ErrRepeatedTermination:
		return "repeated_termination"
	case *ErrUnknownTermination:
		return "unknown_termination"
	default:
		return "other"
	}
}

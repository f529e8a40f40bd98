package domain

import (
	"time"

	"github.com/G-Research/jobstats/internal/common/pointer"
	"github.com/G-Research/jobstats/pkg/userlog"
)

// Resource holds the requested, allocated and used amounts of one resource as reported by the
// latest termination event. Nil means the log never reported the value.
type Resource struct {
	Requested *float64
	Allocated *float64
	Used      *float64
}

// JobStats accumulates the statistics of a single job over all of its events.
//
// Counters are incremented once per matching event. CpuSeconds, BytesSent, BytesReceived, ExitCode and
// the resources are replaced on every termination. ImageSize is replaced on every image size update.
// Submitted is only ever set by the first submission.
type JobStats struct {
	JobId userlog.JobId
	// Base names of the logs that reported events for this job, in the order they were first seen.
	Sources   []string
	Submitted *time.Time

	Executions           int
	Evictions            int
	Terminations         int
	NormalTerminations   int
	AbnormalTerminations int
	ShadowExceptions     int
	Aborts               int
	Suspends             int
	Unsuspends           int
	Holds                int
	Releases             int
	Disconnects          int
	Reconnects           int
	ReconnectFailures    int
	FileTransferStarts   int

	CpuSeconds    *int64
	BytesSent     *int64
	BytesReceived *int64
	ExitCode      *int64
	Cpus          Resource
	Disk          Resource // KiB
	Memory        Resource // MiB
	ImageSize     *int64   // KiB
}

func NewJobStats(jobId userlog.JobId) *JobStats {
	return &JobStats{JobId: jobId}
}

func (s *JobStats) addSource(source string) {
	for _, existing := range s.Sources {
		if existing == source {
			return
		}
	}
	s.Sources = append(s.Sources, source)
}

// Submit records the submission time. Later submissions leave it unchanged and return ErrDuplicateSubmission.
func (s *JobStats) Submit(at time.Time) error {
	if s.Submitted != nil {
		return &ErrDuplicateSubmission{JobId: s.JobId, Submitted: *s.Submitted, Ignored: at}
	}
	s.Submitted = pointer.Time(at)
	return nil
}

func (s *JobStats) Execute()         { s.Executions++ }
func (s *JobStats) Evict()           { s.Evictions++ }
func (s *JobStats) ShadowException() { s.ShadowExceptions++ }
func (s *JobStats) Abort()           { s.Aborts++ }
func (s *JobStats) Suspend()         { s.Suspends++ }
func (s *JobStats) Unsuspend()       { s.Unsuspends++ }
func (s *JobStats) Hold()            { s.Holds++ }
func (s *JobStats) Release()         { s.Releases++ }
func (s *JobStats) Disconnect()      { s.Disconnects++ }
func (s *JobStats) Reconnect()       { s.Reconnects++ }
func (s *JobStats) FailReconnect()   { s.ReconnectFailures++ }
func (s *JobStats) StartTransfer()   { s.FileTransferStarts++ }

// UpdateImageSize records the latest image size. Sizes are expected to grow over the life of a job,
// so the last value seen is taken as the peak; this is not checked.
func (s *JobStats) UpdateImageSize(kib int64) {
	s.ImageSize = pointer.Pointer(kib)
}

// Termination carries the values of a termination event that replace those of any earlier termination.
type Termination struct {
	// Nil when the event did not say whether the job terminated normally.
	Normally      *bool
	ExitCode      *int64
	CpuSeconds    *int64
	BytesSent     int64
	BytesReceived int64
	Cpus          Resource
	Disk          Resource
	Memory        Resource
}

// Terminate applies a termination. Every call counts, but only the values of the latest call are kept.
func (s *JobStats) Terminate(t Termination) []error {
	var anomalies []error
	s.Terminations++
	if s.Terminations > 1 {
		anomalies = append(anomalies, &ErrRepeatedTermination{JobId: s.JobId, Terminations: s.Terminations})
	}
	switch {
	case t.Normally == nil:
		anomalies = append(anomalies, &ErrUnknownTermination{JobId: s.JobId})
	case *t.Normally:
		s.NormalTerminations++
	default:
		s.AbnormalTerminations++
	}

	s.ExitCode = t.ExitCode
	s.CpuSeconds = t.CpuSeconds
	s.BytesSent = pointer.Pointer(t.BytesSent)
	s.BytesReceived = pointer.Pointer(t.BytesReceived)
	s.Cpus = t.Cpus
	s.Disk = t.Disk
	s.Memory = t.Memory
	return anomalies
}

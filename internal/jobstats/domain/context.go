package domain

import (
	"github.com/hashicorp/go-multierror"
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"

	"github.com/G-Research/jobstats/pkg/userlog"
)

// SkipTally counts the events that did not update any job, by outcome and by event kind.
type SkipTally struct {
	ByOutcome map[Outcome]int
	ByKind    map[Outcome]map[userlog.EventKind]int
}

func newSkipTally() SkipTally {
	return SkipTally{
		ByOutcome: make(map[Outcome]int, 2),
		ByKind:    make(map[Outcome]map[userlog.EventKind]int, 2),
	}
}

func (t SkipTally) record(outcome Outcome, kind userlog.EventKind) {
	t.ByOutcome[outcome]++
	byKind, ok := t.ByKind[outcome]
	if !ok {
		byKind = make(map[userlog.EventKind]int)
		t.ByKind[outcome] = byKind
	}
	byKind[kind]++
}

// Total returns the number of skipped events.
func (t SkipTally) Total() int {
	total := 0
	for _, n := range t.ByOutcome {
		total += n
	}
	return total
}

// Kinds returns the kinds skipped with the given outcome, in ascending code order.
func (t SkipTally) Kinds(outcome Outcome) []userlog.EventKind {
	kinds := maps.Keys(t.ByKind[outcome])
	slices.Sort(kinds)
	return kinds
}

// StatsContext keeps track of the statistics of every job seen while processing a stream of events.
// It is not threadsafe and is expected to only ever be used in a single thread.
type StatsContext struct {
	jobs  map[userlog.JobId]*JobStats
	skips SkipTally
}

func NewStatsContext() *StatsContext {
	return &StatsContext{
		jobs:  make(map[userlog.JobId]*JobStats, 64),
		skips: newSkipTally(),
	}
}

// ProcessEvent routes event to the statistics of its job, creating them on the job's first event.
// source names the log the event was read from. The returned error lists anomalies only;
// the event has been fully processed either way.
func (c *StatsContext) ProcessEvent(source string, event *userlog.Event) (Outcome, error) {
	stats, exists := c.jobs[event.JobId]
	if !exists {
		stats = NewJobStats(event.JobId)
		c.jobs[event.JobId] = stats
	}
	if source != "" {
		stats.addSource(source)
	}

	outcome, err := Route(stats, event)
	if outcome.Skipped() {
		c.skips.record(outcome, event.Kind)
	}
	return outcome, err
}

// GetJobStats returns the statistics of one job, or nil if no event was seen for it.
func (c *StatsContext) GetJobStats(jobId userlog.JobId) *JobStats {
	return c.jobs[jobId]
}

// GetJobs returns the statistics of all jobs. The map is owned by the context and must not be
// modified while events are still being processed.
func (c *StatsContext) GetJobs() map[userlog.JobId]*JobStats {
	return c.jobs
}

func (c *StatsContext) NumberOfJobs() int {
	return len(c.jobs)
}

func (c *StatsContext) Skipped() SkipTally {
	return c.skips
}

// Anomalies flattens the error returned by ProcessEvent into the individual anomalies.
func Anomalies(err error) []error {
	if err == nil {
		return nil
	}
	if merr, ok := err.(*multierror.Error); ok {
		return merr.WrappedErrors()
	}
	return []error{err}
}

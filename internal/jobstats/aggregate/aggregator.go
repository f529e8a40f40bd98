package aggregate

import (
	"fmt"
	"io"
	"path/filepath"

	"github.com/hashicorp/go-multierror"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/G-Research/jobstats/internal/jobstats/domain"
	"github.com/G-Research/jobstats/internal/jobstats/metrics"
	"github.com/G-Research/jobstats/pkg/userlog"
)

// ErrSourceUnreadable is reported for a log that could not be opened or read to the end.
// Events read from the log before the failure are kept.
type ErrSourceUnreadable struct {
	Source string
	Err    error
}

func (err *ErrSourceUnreadable) Error() string {
	return fmt.Sprintf("error reading %s: %s", err.Source, err.Err)
}

func (err *ErrSourceUnreadable) Unwrap() error {
	return err.Err
}

// SourceSummary describes how processing of one log went.
type SourceSummary struct {
	Source          string
	Events          int
	MalformedEvents int
	Err             error
}

// Result is the outcome of aggregating a set of logs.
type Result struct {
	Context   *domain.StatsContext
	Sources   []SourceSummary
	Anomalies int
	// Nil if every log was read successfully, otherwise a *multierror.Error of *ErrSourceUnreadable.
	Failures error
}

// Aggregator reads job logs one after the other into a single StatsContext.
type Aggregator struct {
	Opener  userlog.Opener
	Log     log.FieldLogger
	Metrics *metrics.Metrics
}

func New(opener userlog.Opener, logger log.FieldLogger, m *metrics.Metrics) *Aggregator {
	if logger == nil {
		logger = log.StandardLogger()
	}
	if m == nil {
		m = metrics.New()
	}
	return &Aggregator{
		Opener:  opener,
		Log:     logger,
		Metrics: m,
	}
}

// Run processes sources in order. Each log is opened, drained and closed before the next is opened.
// A log that cannot be read is reported and skipped; it never stops the remaining logs from being processed.
// Events for the same job found in different logs are merged into one set of statistics.
func (a *Aggregator) Run(sources []string, ctx *domain.StatsContext) *Result {
	if ctx == nil {
		ctx = domain.NewStatsContext()
	}
	result := &Result{Context: ctx}
	var failures *multierror.Error

	for _, source := range sources {
		summary := a.processSource(source, ctx, result)
		result.Sources = append(result.Sources, summary)
		if summary.Err != nil {
			failures = multierror.Append(failures, summary.Err)
			a.Metrics.RecordSourceFailed()
			a.Log.WithField("source", source).Error(summary.Err)
		} else {
			a.Metrics.RecordSourceRead()
		}
	}

	a.Metrics.SetJobs(ctx.NumberOfJobs())
	result.Failures = failures.ErrorOrNil()
	return result
}

func (a *Aggregator) processSource(source string, ctx *domain.StatsContext, result *Result) (summary SourceSummary) {
	summary.Source = source
	logger := a.Log.WithField("source", source)
	name := filepath.Base(source)

	reader, err := a.Opener.Open(source)
	if err != nil {
		summary.Err = &ErrSourceUnreadable{Source: source, Err: err}
		return
	}
	defer func() {
		if err := reader.Close(); err != nil {
			logger.WithError(err).Warn("error closing log")
		}
	}()

	for {
		event, err := reader.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			var malformed *userlog.ErrMalformedEvent
			if errors.As(err, &malformed) {
				summary.MalformedEvents++
				a.Metrics.RecordMalformedEvent()
				logger.Warn(malformed)
				continue
			}
			summary.Err = &ErrSourceUnreadable{Source: source, Err: err}
			return
		}

		summary.Events++
		if event.Kind.Known() {
			a.Metrics.RecordEvent(event.Kind.String())
		} else {
			a.Metrics.RecordEvent("unknown")
		}
		outcome, err := ctx.ProcessEvent(name, event)
		if outcome.Skipped() {
			a.Metrics.RecordSkip(outcome.String())
			logger.WithField("job", event.JobId.String()).Debugf("%s event %s", outcome, event.Kind)
		}
		for _, anomaly := range domain.Anomalies(err) {
			result.Anomalies++
			a.Metrics.RecordAnomaly(domain.AnomalyType(anomaly))
			logger.WithField("job", event.JobId.String()).Warn(anomaly)
		}
	}
	logger.Debugf("read %d events", summary.Events)
	return
}

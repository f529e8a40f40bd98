package jobstats

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/G-Research/jobstats/internal/common/logging"
	"github.com/G-Research/jobstats/internal/common/util"
	"github.com/G-Research/jobstats/internal/jobstats/aggregate"
	"github.com/G-Research/jobstats/internal/jobstats/build"
	"github.com/G-Research/jobstats/internal/jobstats/configuration"
	"github.com/G-Research/jobstats/internal/jobstats/domain"
	"github.com/G-Research/jobstats/internal/jobstats/metrics"
	"github.com/G-Research/jobstats/internal/jobstats/report"
	"github.com/G-Research/jobstats/pkg/userlog"
)

type App struct {
	// Parameters passed to the CLI by the user.
	Params *configuration.Params
	// Out receives the report when no output file is configured. Defaults to standard out,
	// but can be overridden in tests to make assertions on the application's output.
	Out io.Writer
	// Opener turns log paths into event readers. Nil means logs are read from disk in Params.LogFormat.
	Opener userlog.Opener
	// Log receives diagnostics. It never writes to Out.
	Log log.FieldLogger
}

// New instantiates an App with default parameters, writing to standard out and logging through the
// standard logger.
func New() *App {
	return &App{
		Params: &configuration.Params{
			Format:    report.FormatCsv,
			LogFormat: userlog.FormatAuto,
			LogLevel:  "info",
		},
		Out: os.Stdout,
		Log: log.StandardLogger(),
	}
}

// Run aggregates the job logs at sources and writes one report row per job.
// Unreadable logs are reported and skipped. If no job was found at all "no data" is logged and nothing
// is written. Errors are only returned when the report or the metrics file could not be written.
func (a *App) Run(sources []string) error {
	m := metrics.New()
	result := aggregate.New(a.opener(), a.Log, m).Run(sources, nil)
	a.logSummary(sources, result)

	table, err := report.Build(result.Context.GetJobs())
	switch {
	case errors.Is(err, report.ErrNoData):
		a.Log.Warn("no data")
	case err != nil:
		return err
	default:
		if err := a.writeReport(table); err != nil {
			return err
		}
	}

	if a.Params.ShowSkipped {
		a.logSkipped(result.Context.Skipped())
	}

	if a.Params.MetricsFile != "" {
		if err := m.WriteToTextfile(a.Params.MetricsFile); err != nil {
			return err
		}
		a.Log.Debugf("wrote metrics to %s", a.Params.MetricsFile)
	}
	return nil
}

// Dictionary prints a description of every report column.
func (a *App) Dictionary(asYaml bool) error {
	return report.WriteDictionary(a.Out, asYaml)
}

// Version prints build information (e.g., current git commit) to the app output.
func (a *App) Version() error {
	w := util.NewTabbedStringBuilder(1, 1, 1, ' ', 0)
	w.Writef("Version:\t%s\n", build.ReleaseVersion)
	w.Writef("Commit:\t%s\n", build.GitCommit)
	w.Writef("Go version:\t%s\n", build.GoVersion)
	w.Writef("Built:\t%s\n", build.BuildTime)
	_, err := io.WriteString(a.Out, w.String())
	return errors.WithStack(err)
}

func (a *App) opener() userlog.Opener {
	if a.Opener != nil {
		return a.Opener
	}
	return &userlog.FileOpener{Format: a.Params.LogFormat}
}

func (a *App) writeReport(table *report.Table) (err error) {
	if a.Params.Output == "" {
		return report.Write(a.Out, table, a.Params.Format)
	}

	f, err := os.Create(a.Params.Output)
	if err != nil {
		return errors.Wrap(err, "error creating report file")
	}
	defer func() {
		if closeErr := f.Close(); closeErr != nil && err == nil {
			err = errors.Wrapf(closeErr, "error closing %s", a.Params.Output)
		}
	}()
	if err := report.Write(f, table, a.Params.Format); err != nil {
		return errors.WithMessagef(err, "error writing %s", a.Params.Output)
	}
	a.Log.Infof("wrote %d jobs to %s", len(table.Rows), a.Params.Output)
	return nil
}

func (a *App) logSummary(sources []string, result *aggregate.Result) {
	events, malformed, failed := 0, 0, 0
	for _, s := range result.Sources {
		events += s.Events
		malformed += s.MalformedEvents
		if s.Err != nil {
			failed++
			logging.WithStacktrace(a.Log, s.Err).Debug("source failure detail")
		}
	}
	a.Log.Infof(
		"read %d events for %d jobs from %d of %d logs (%d malformed events, %d anomalies)",
		events, result.Context.NumberOfJobs(), len(sources)-failed, len(sources), malformed, result.Anomalies,
	)
}

func (a *App) logSkipped(skips domain.SkipTally) {
	a.Log.Infof(
		"skipped %d events (%s %d, %s %d)",
		skips.Total(), domain.Ignored, skips.ByOutcome[domain.Ignored], domain.Suppressed, skips.ByOutcome[domain.Suppressed],
	)
	for _, outcome := range []domain.Outcome{domain.Ignored, domain.Suppressed} {
		kinds := skips.Kinds(outcome)
		if len(kinds) == 0 {
			continue
		}
		counts := make([]string, len(kinds))
		for i, kind := range kinds {
			counts[i] = fmt.Sprintf("%s=%d", kind, skips.ByKind[outcome][kind])
		}
		a.Log.WithField("outcome", outcome.String()).Infof("skipped by kind: %s", strings.Join(counts, " "))
	}
}

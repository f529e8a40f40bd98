package report

import (
	"strconv"
	"strings"
	"time"

	"github.com/G-Research/jobstats/internal/common/pointer"
	"github.com/G-Research/jobstats/internal/jobstats/domain"
	"github.com/G-Research/jobstats/pkg/userlog"
)

// Column is one field of the report. Value renders the field for a job; unset values render as "".
type Column struct {
	Name    string
	Help    string
	Numeric bool
	Value   func(*domain.JobStats) string
}

var columns = []Column{
	{
		Name:  "job_id",
		Help:  "Job identity as cluster.process",
		Value: func(s *domain.JobStats) string { return s.JobId.String() },
	},
	{
		Name:  "log_file",
		Help:  "Base names of the logs the job's events were read from, separated by ;",
		Value: func(s *domain.JobStats) string { return strings.Join(s.Sources, ";") },
	},
	{
		Name:  "submitted",
		Help:  "Time of the first submission event (" + userlog.TimeFormat + ")",
		Value: func(s *domain.JobStats) string { return pointer.Format(s.Submitted, formatTime) },
	},
	counter("executions", "Number of times the job started executing", func(s *domain.JobStats) int { return s.Executions }),
	counter("evictions", "Number of times the job was evicted from a machine", func(s *domain.JobStats) int { return s.Evictions }),
	counter("terminations", "Number of termination events", func(s *domain.JobStats) int { return s.Terminations }),
	counter("normal_terminations", "Terminations where the job exited by itself", func(s *domain.JobStats) int { return s.NormalTerminations }),
	counter("abnormal_terminations", "Terminations where the job was killed by a signal", func(s *domain.JobStats) int { return s.AbnormalTerminations }),
	counter("shadow_exceptions", "Number of shadow exceptions", func(s *domain.JobStats) int { return s.ShadowExceptions }),
	counter("aborts", "Number of times the job was aborted", func(s *domain.JobStats) int { return s.Aborts }),
	counter("suspends", "Number of times the job was suspended", func(s *domain.JobStats) int { return s.Suspends }),
	counter("unsuspends", "Number of times the job was unsuspended", func(s *domain.JobStats) int { return s.Unsuspends }),
	counter("holds", "Number of times the job was held", func(s *domain.JobStats) int { return s.Holds }),
	counter("releases", "Number of times the job was released from hold", func(s *domain.JobStats) int { return s.Releases }),
	counter("disconnects", "Number of times the job lost contact with its execute machine", func(s *domain.JobStats) int { return s.Disconnects }),
	counter("reconnects", "Number of successful reconnections", func(s *domain.JobStats) int { return s.Reconnects }),
	counter("reconnect_failures", "Number of failed reconnections", func(s *domain.JobStats) int { return s.ReconnectFailures }),
	counter("file_transfer_starts", "Number of input or output file transfers started", func(s *domain.JobStats) int { return s.FileTransferStarts }),
	integer("cpu_seconds", "User plus system CPU seconds of the last run, from the latest termination", func(s *domain.JobStats) *int64 { return s.CpuSeconds }),
	integer("bytes_sent", "Bytes sent by the job during the last run", func(s *domain.JobStats) *int64 { return s.BytesSent }),
	integer("bytes_received", "Bytes received by the job during the last run", func(s *domain.JobStats) *int64 { return s.BytesReceived }),
	integer("exit_code", "Return value of the latest normal termination", func(s *domain.JobStats) *int64 { return s.ExitCode }),
	decimal("request_cpus", "CPUs requested", func(s *domain.JobStats) *float64 { return s.Cpus.Requested }),
	decimal("allocated_cpus", "CPUs allocated", func(s *domain.JobStats) *float64 { return s.Cpus.Allocated }),
	decimal("used_cpus", "CPUs used", func(s *domain.JobStats) *float64 { return s.Cpus.Used }),
	decimal("request_disk_kb", "Disk requested in KiB", func(s *domain.JobStats) *float64 { return s.Disk.Requested }),
	decimal("allocated_disk_kb", "Disk allocated in KiB", func(s *domain.JobStats) *float64 { return s.Disk.Allocated }),
	decimal("used_disk_kb", "Disk used in KiB", func(s *domain.JobStats) *float64 { return s.Disk.Used }),
	decimal("request_memory_mb", "Memory requested in MiB", func(s *domain.JobStats) *float64 { return s.Memory.Requested }),
	decimal("allocated_memory_mb", "Memory allocated in MiB", func(s *domain.JobStats) *float64 { return s.Memory.Allocated }),
	decimal("used_memory_mb", "Peak memory used in MiB", func(s *domain.JobStats) *float64 { return s.Memory.Used }),
	integer("image_size_kb", "Latest reported image size in KiB", func(s *domain.JobStats) *int64 { return s.ImageSize }),
}

// Columns returns the report columns in output order.
func Columns() []Column {
	result := make([]Column, len(columns))
	copy(result, columns)
	return result
}


func counter(name, help string, get func(*domain.JobStats) int) Column {
	return Column{
		Name:    name,
		Help:    help,
		Numeric: true,
		Value:   func(s *domain.JobStats) string { return strconv.Itoa(get(s)) },
	}
}

func integer(name, help string, get func(*domain.JobStats) *int64) Column {
	return Column{
		Name:    name,
		Help:    help,
		Numeric: true,
		Value:   func(s *domain.JobStats) string { return pointer.Format(get(s), formatInt) },
	}
}

func decimal(name, help string, get func(*domain.JobStats) *float64) Column {
	return Column{
		Name:    name,
		Help:    help,
		Numeric: true,
		Value:   func(s *domain.JobStats) string { return pointer.Format(get(s), formatFloat) },
	}
}

func formatInt(v int64) string {
	return strconv.FormatInt(v, 10)
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func formatTime(t time.Time) string {
	return t.Format(userlog.TimeFormat)
}

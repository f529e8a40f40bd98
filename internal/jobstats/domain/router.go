package domain

import (
	"github.com/hashicorp/go-multierror"

	"github.com/G-Research/jobstats/internal/common/pointer"
	"github.com/G-Research/jobstats/pkg/userlog"
)

// Outcome says what routing did with an event.
type Outcome int

const (
	// Applied means the event updated the job's statistics.
	Applied Outcome = iota
	// Suppressed means the event was recognised but deliberately not counted.
	Suppressed
	// Ignored means the event kind is not one the statistics model.
	Ignored
)

var outcomeNames = map[Outcome]string{
	Applied:    "applied",
	Suppressed: "suppressed",
	Ignored:    "ignored",
}

func (o Outcome) String() string {
	return outcomeNames[o]
}

// Skipped reports whether the event left the statistics untouched.
func (o Outcome) Skipped() bool {
	return o != Applied
}

type handler func(stats *JobStats, event *userlog.Event) (Outcome, error)

// Kinds that are recognised but never counted. There are none at the moment.
var suppressedKinds = map[userlog.EventKind]bool{}

var handlers = map[userlog.EventKind]handler{
	userlog.Submit:          submit,
	userlog.Execute:         count((*JobStats).Execute),
	userlog.Evicted:         count((*JobStats).Evict),
	userlog.Terminated:      terminate,
	userlog.ImageSize:       updateImageSize,
	userlog.ShadowException: count((*JobStats).ShadowException),
	userlog.Aborted:         count((*JobStats).Abort),
	userlog.Suspended:       count((*JobStats).Suspend),
	userlog.Unsuspended:     count((*JobStats).Unsuspend),
	userlog.Held:            count((*JobStats).Hold),
	userlog.Released:        count((*JobStats).Release),
	userlog.Disconnected:    count((*JobStats).Disconnect),
	userlog.Reconnected:     count((*JobStats).Reconnect),
	userlog.ReconnectFailed: count((*JobStats).FailReconnect),
	userlog.FileTransfer:    startTransfer,
}

// Route applies event to stats according to its kind.
// A non-nil error describes anomalies met while applying the event; the event has still been applied.
func Route(stats *JobStats, event *userlog.Event) (Outcome, error) {
	if suppressedKinds[event.Kind] {
		return Suppressed, nil
	}
	h, ok := handlers[event.Kind]
	if !ok {
		return Ignored, nil
	}
	return h(stats, event)
}

func count(increment func(*JobStats)) handler {
	return func(stats *JobStats, _ *userlog.Event) (Outcome, error) {
		increment(stats)
		return Applied, nil
	}
}

func submit(stats *JobStats, event *userlog.Event) (Outcome, error) {
	if err := stats.Submit(event.Time); err != nil {
		return Applied, err
	}
	return Applied, nil
}

func updateImageSize(stats *JobStats, event *userlog.Event) (Outcome, error) {
	size, ok := event.Int("Size")
	if !ok {
		return Suppressed, nil
	}
	stats.UpdateImageSize(size)
	return Applied, nil
}

// Only the start of a transfer is counted, so queued and finished transfers are suppressed.
func startTransfer(stats *JobStats, event *userlog.Event) (Outcome, error) {
	t, ok := event.Int("Type")
	if !ok {
		return Suppressed, nil
	}
	switch userlog.FileTransferType(t) {
	case userlog.TransferInputStarted, userlog.TransferOutputStarted:
		stats.StartTransfer()
		return Applied, nil
	default:
		return Suppressed, nil
	}
}

func terminate(stats *JobStats, event *userlog.Event) (Outcome, error) {
	var result *multierror.Error
	t := Termination{
		Cpus:   resourceFromEvent(event, "Cpus"),
		Disk:   resourceFromEvent(event, "Disk"),
		Memory: resourceFromEvent(event, "Memory"),
	}
	if normally, ok := event.Bool("TerminatedNormally"); ok {
		t.Normally = pointer.Pointer(normally)
	}
	if exitCode, ok := event.Int("ReturnValue"); ok {
		t.ExitCode = pointer.Pointer(exitCode)
	}
	if sent, ok := event.Int("SentBytes"); ok {
		t.BytesSent = sent
	}
	if received, ok := event.Int("ReceivedBytes"); ok {
		t.BytesReceived = received
	}
	if usage, ok := event.Str("RunRemoteUsage"); ok {
		seconds, err := ParseUsage(usage)
		if err != nil {
			result = multierror.Append(result, err)
		} else {
			t.CpuSeconds = pointer.Pointer(seconds)
		}
	}
	result = multierror.Append(result, stats.Terminate(t)...)
	return Applied, result.ErrorOrNil()
}

// resourceFromEvent reads the Request<name>, <name> and <name>Usage attributes.
func resourceFromEvent(event *userlog.Event, name string) Resource {
	var r Resource
	if v, ok := event.Float("Request" + name); ok {
		r.Requested = pointer.Pointer(v)
	}
	if v, ok := event.Float(name); ok {
		r.Allocated = pointer.Pointer(v)
	}
	if v, ok := event.Float(name + "Usage"); ok {
		r.Used = pointer.Pointer(v)
	}
	return r
}

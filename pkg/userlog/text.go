package userlog

import (
	"bufio"
	"io"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
)

const eventTerminator = "..."

var (
	headerRegex       = regexp.MustCompile(`^(\d{3}) \((\d+)\.(\d+)\.(\d+)\) (\d{4}-\d{2}-\d{2} \d{2}:\d{2}:\d{2}(?:\.\d+)?|\d{2}/\d{2} \d{2}:\d{2}:\d{2}) ?(.*)$`)
	flagLineRegex     = regexp.MustCompile(`^\((\d+)\) (.*)$`)
	returnValueRegex  = regexp.MustCompile(`^Normal termination \(return value (-?\d+)\)`)
	signalRegex       = regexp.MustCompile(`^Abnormal termination \(signal (\d+)\)`)
	coreFileRegex     = regexp.MustCompile(`^Corefile in: (.*)$`)
	numericLabelRegex = regexp.MustCompile(`^(-?\d+(?:\.\d+)?)\s+-\s+(.+)$`)
	usageLabelRegex   = regexp.MustCompile(`^(.+?)\s+-\s+(.+ Usage)$`)
	resourceHeadRegex = regexp.MustCompile(`^Partitionable Resources\s*:`)
	resourceRowRegex  = regexp.MustCompile(`^([A-Za-z][A-Za-z0-9]*)(?:\s*\([^)]*\))?\s*:\s*(.*)$`)
	holdCodeRegex     = regexp.MustCompile(`^Code (-?\d+) Subcode (-?\d+)$`)
	assignmentRegex   = regexp.MustCompile(`^([A-Za-z_][A-Za-z0-9_]*) = (.*)$`)
	colonPairRegex    = regexp.MustCompile(`^([A-Za-z][A-Za-z ]*?): (.*)$`)
	reconnectToRegex  = regexp.MustCompile(`^(?:Trying to reconnect to|Can not reconnect to) (\S+?),? (<[^>]*>|rescheduling job)`)
	sizeUpdateRegex   = regexp.MustCompile(`^Image size of job updated: (\d+)`)
	tokenRegex        = regexp.MustCompile(`\S+`)
)

// Labels of "value - label" lines that map to a differently named field.
var labelledFields = map[string]string{
	"Run Bytes Sent By Job":           "SentBytes",
	"Run Bytes Received By Job":       "ReceivedBytes",
	"Total Bytes Sent By Job":         "TotalSentBytes",
	"Total Bytes Received By Job":     "TotalReceivedBytes",
	"MemoryUsage of job (MB)":         "MemoryUsage",
	"ResidentSetSize of job (KB)":     "ResidentSetSize",
	"ProportionalSetSize of job (KB)": "ProportionalSetSize",
}

// Labels of "label: value" lines.
var colonFields = map[string]string{
	"SlotName":               "SlotName",
	"startd address":         "StartdAddr",
	"starter address":        "StarterAddr",
	"Transferring to host":   "Host",
	"Transferring from host": "Host",
}

// Kinds whose first free text body line is the reason for the event.
var reasonKinds = map[EventKind]bool{
	Aborted:         true,
	Held:            true,
	Released:        true,
	Disconnected:    true,
	ReconnectFailed: true,
}

// textReader decodes the classic line based user log format:
//
//	005 (1234.000.000) 2023-05-10 10:05:00 Job terminated.
//		(1) Normal termination (return value 0)
//	...
type textReader struct {
	scanner  *bufio.Scanner
	closer   io.Closer
	line     int
	location *time.Location
	// Year assumed for timestamps written without one (MM/DD hh:mm:ss).
	defaultYear int
}

func newTextReader(r io.Reader, closer io.Closer) *textReader {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	return &textReader{
		scanner:     scanner,
		closer:      closer,
		location:    time.Local,
		defaultYear: time.Now().Year(),
	}
}

func (r *textReader) Close() error {
	return r.closer.Close()
}

func (r *textReader) Next() (*Event, error) {
	header, ok := r.nextNonBlank()
	if !ok {
		if err := r.scanner.Err(); err != nil {
			return nil, errors.WithStack(err)
		}
		return nil, io.EOF
	}
	headerLine := r.line

	var body []string
	for r.scanner.Scan() {
		r.line++
		line := r.scanner.Text()
		if strings.TrimSpace(line) == eventTerminator {
			break
		}
		body = append(body, line)
	}
	if err := r.scanner.Err(); err != nil {
		return nil, errors.WithStack(err)
	}

	event, err := r.parseHeader(header)
	if err != nil {
		return nil, &ErrMalformedEvent{Line: headerLine, Message: err.Error()}
	}
	parseBody(event, body)
	return event, nil
}

func (r *textReader) nextNonBlank() (string, bool) {
	for r.scanner.Scan() {
		r.line++
		line := r.scanner.Text()
		if strings.TrimSpace(line) != "" {
			return line, true
		}
	}
	return "", false
}

func (r *textReader) parseHeader(line string) (*Event, error) {
	m := headerRegex.FindStringSubmatch(strings.TrimRight(line, "\r"))
	if m == nil {
		return nil, errors.Errorf("unrecognised event header %q", line)
	}
	code, _ := strconv.Atoi(m[1])
	cluster, err := strconv.ParseInt(m[2], 10, 64)
	if err != nil {
		return nil, errors.Wrapf(err, "invalid cluster in %q", line)
	}
	proc, err := strconv.ParseInt(m[3], 10, 64)
	if err != nil {
		return nil, errors.Wrapf(err, "invalid proc in %q", line)
	}
	subproc, err := strconv.ParseInt(m[4], 10, 64)
	if err != nil {
		return nil, errors.Wrapf(err, "invalid subproc in %q", line)
	}
	ts, err := r.parseTime(m[5])
	if err != nil {
		return nil, err
	}

	event := &Event{
		Kind:    EventKind(code),
		JobId:   JobId{Cluster: cluster, Proc: proc},
		Subproc: subproc,
		Time:    ts,
		Fields:  make(map[string]interface{}),
	}
	parseHeaderText(event, strings.TrimSpace(m[6]))
	return event, nil
}

func (r *textReader) parseTime(s string) (time.Time, error) {
	if strings.Contains(s, "/") {
		t, err := time.ParseInLocation("01/02 15:04:05", s, r.location)
		if err != nil {
			return time.Time{}, errors.WithStack(err)
		}
		return t.AddDate(r.defaultYear-t.Year(), 0, 0), nil
	}
	t, err := time.ParseInLocation("2006-01-02 15:04:05", s, r.location)
	if err != nil {
		return time.Time{}, errors.WithStack(err)
	}
	return t, nil
}

func parseHeaderText(e *Event, text string) {
	if text == "" {
		return
	}
	switch e.Kind {
	case Submit:
		if host, ok := afterPrefix(text, "Job submitted from host:"); ok {
			e.set("SubmitHost", host)
		}
	case Execute:
		if host, ok := afterPrefix(text, "Job executing on host:"); ok {
			e.set("ExecuteHost", host)
		}
	case ImageSize:
		if m := sizeUpdateRegex.FindStringSubmatch(text); m != nil {
			e.set("Size", parseLiteral(m[1]))
		}
	case Reconnected:
		if name, ok := afterPrefix(text, "Job reconnected to"); ok {
			e.set("StartdName", name)
		}
	case FileTransfer:
		if t := fileTransferTypeFromText(text); t != TransferNone {
			e.set("Type", int64(t))
		}
	}
}

func fileTransferTypeFromText(text string) FileTransferType {
	lower := strings.ToLower(text)
	input := strings.Contains(lower, "input")
	output := strings.Contains(lower, "output")
	switch {
	case strings.Contains(lower, "queued") && input:
		return TransferInputQueued
	case strings.Contains(lower, "queued") && output:
		return TransferOutputQueued
	case strings.HasPrefix(lower, "started") && input:
		return TransferInputStarted
	case strings.HasPrefix(lower, "started") && output:
		return TransferOutputStarted
	case strings.HasPrefix(lower, "finished") && input:
		return TransferInputFinished
	case strings.HasPrefix(lower, "finished") && output:
		return TransferOutputFinished
	default:
		return TransferNone
	}
}

func parseBody(e *Event, body []string) {
	var resourceColumns []resourceColumn
	var messages []string

	for _, raw := range body {
		line := strings.TrimSpace(raw)
		if line == "" {
			continue
		}

		if resourceColumns != nil {
			if m := resourceRowRegex.FindStringSubmatch(line); m != nil {
				setResourceRow(e, m[1], resourceColumns, afterColon(raw))
				continue
			}
			resourceColumns = nil
		}

		if resourceHeadRegex.MatchString(line) {
			resourceColumns = resourceColumnsOf(afterColon(raw))
			continue
		}
		if m := flagLineRegex.FindStringSubmatch(line); m != nil {
			if parseFlagLine(e, m[1] == "1", m[2]) {
				continue
			}
		}
		if m := numericLabelRegex.FindStringSubmatch(line); m != nil {
			setLabelled(e, m[2], parseLiteral(m[1]))
			continue
		}
		if m := usageLabelRegex.FindStringSubmatch(line); m != nil {
			e.set(strings.ReplaceAll(m[2], " ", ""), m[1])
			continue
		}
		if m := holdCodeRegex.FindStringSubmatch(line); m != nil && e.Kind == Held {
			e.set("HoldReasonCode", parseLiteral(m[1]))
			e.set("HoldReasonSubCode", parseLiteral(m[2]))
			continue
		}
		if m := assignmentRegex.FindStringSubmatch(line); m != nil {
			e.set(m[1], parseLiteral(m[2]))
			continue
		}
		if m := reconnectToRegex.FindStringSubmatch(line); m != nil {
			e.set("StartdName", m[1])
			if strings.HasPrefix(m[2], "<") {
				e.set("StartdAddr", m[2])
			}
			continue
		}
		if m := colonPairRegex.FindStringSubmatch(line); m != nil {
			if name, ok := colonFields[m[1]]; ok {
				e.set(name, m[2])
				continue
			}
		}

		if reasonKinds[e.Kind] && !e.Has("Reason") {
			e.set("Reason", line)
			if e.Kind == Held {
				e.set("HoldReason", line)
			}
		}
		messages = append(messages, line)
	}

	if len(messages) > 0 {
		e.set("Message", strings.Join(messages, "\n"))
	}
}

// parseFlagLine handles "(N) text" lines. It returns false if the text is not recognised.
func parseFlagLine(e *Event, set bool, text string) bool {
	switch {
	case strings.HasPrefix(text, "Normal termination"):
		e.set("TerminatedNormally", true)
		if m := returnValueRegex.FindStringSubmatch(text); m != nil {
			e.set("ReturnValue", parseLiteral(m[1]))
		}
	case strings.HasPrefix(text, "Abnormal termination"):
		e.set("TerminatedNormally", false)
		if m := signalRegex.FindStringSubmatch(text); m != nil {
			e.set("TerminatedBySignal", parseLiteral(m[1]))
		}
	case strings.HasPrefix(text, "Corefile in:"):
		if m := coreFileRegex.FindStringSubmatch(text); m != nil {
			e.set("CoreFile", m[1])
		}
	case strings.HasPrefix(text, "No core file"):
	case strings.HasPrefix(text, "Job was checkpointed"), strings.HasPrefix(text, "Job was not checkpointed"):
		e.set("Checkpointed", set)
	default:
		return false
	}
	return true
}

func setLabelled(e *Event, label string, value interface{}) {
	if name, ok := labelledFields[label]; ok {
		e.set(name, value)
		return
	}
	e.set(strings.ReplaceAll(label, " ", ""), value)
}

// resourceColumn is a heading of the partitionable resources table. Offsets are relative to the colon
// that separates the resource names from the table.
type resourceColumn struct {
	name       string
	start, end int
}

func resourceColumnsOf(text string) []resourceColumn {
	var columns []resourceColumn
	for _, span := range tokenRegex.FindAllStringIndex(text, -1) {
		columns = append(columns, resourceColumn{name: text[span[0]:span[1]], start: span[0], end: span[1]})
	}
	return columns
}

// setResourceRow maps one row of the partitionable resources table onto fields, e.g. the Cpus row yields
// CpusUsage, RequestCpus and Cpus. Cells may be blank, so each value is matched to the heading it sits under.
func setResourceRow(e *Event, name string, columns []resourceColumn, text string) {
	spans := tokenRegex.FindAllStringIndex(text, -1)
	cells := make(map[string]string, len(spans))
	for _, span := range spans {
		column := columnUnder(columns, span[0], span[1])
		if _, taken := cells[column]; taken {
			// Not aligned with the headings: fall back to reading the values in order.
			cells = make(map[string]string, len(spans))
			for i, span := range spans {
				if i < len(columns) {
					cells[columns[i].name] = text[span[0]:span[1]]
				}
			}
			break
		}
		cells[column] = text[span[0]:span[1]]
	}

	for column, value := range cells {
		var field string
		switch column {
		case "Usage":
			field = name + "Usage"
		case "Request":
			field = "Request" + name
		case "Allocated":
			field = name
		default:
			field = column + name
		}
		e.set(field, parseLiteral(value))
	}
}

// columnUnder returns the heading overlapping the span [start, end) the most, or the closest one.
func columnUnder(columns []resourceColumn, start, end int) string {
	best, bestOverlap := "", 0
	for i, c := range columns {
		overlap := minInt(end, c.end) - maxInt(start, c.start)
		if i == 0 || overlap > bestOverlap {
			best, bestOverlap = c.name, overlap
		}
	}
	return best
}

func afterColon(s string) string {
	if i := strings.Index(s, ":"); i >= 0 {
		return s[i+1:]
	}
	return s
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

func afterPrefix(s, prefix string) (string, bool) {
	if !strings.HasPrefix(s, prefix) {
		return "", false
	}
	return strings.TrimSpace(strings.TrimPrefix(s, prefix)), true
}

// parseLiteral converts a textual attribute value into an int64, float64, bool or unquoted string.
func parseLiteral(s string) interface{} {
	s = strings.TrimSpace(s)
	if i, err := strconv.ParseInt(s, 10, 64); err == nil {
		return i
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return f
	}
	switch strings.ToLower(s) {
	case "true":
		return true
	case "false":
		return false
	}
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		if unquoted, err := strconv.Unquote(s); err == nil {
			return unquoted
		}
		return s[1 : len(s)-1]
	}
	return s
}

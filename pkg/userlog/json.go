package userlog

import (
	"bufio"
	"bytes"
	"encoding/json"
	"io"
	"strings"
	"time"

	"github.com/pkg/errors"
)

// Attributes describing the event itself rather than its payload.
var envelopeAttributes = map[string]bool{
	"MyType":          true,
	"EventTypeNumber": true,
	"Cluster":         true,
	"Proc":            true,
	"Subproc":         true,
	"EventTime":       true,
}

var jsonTimeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
}

// jsonReader decodes logs holding one JSON object per event. Objects may be written on a single line,
// several to a line, or pretty printed across several lines, optionally separated by "..." lines.
type jsonReader struct {
	scanner *bufio.Scanner
	closer  io.Closer
	line    int
	// Start of the next object, read while recovering from a truncated one.
	pending     string
	pendingLine int
	// Objects decoded from the current buffer but not yet returned.
	queued []decoded
}

type decoded struct {
	event *Event
	err   error
}

func newJsonReader(r io.Reader, closer io.Closer) *jsonReader {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 4*1024*1024)
	return &jsonReader{
		scanner: scanner,
		closer:  closer,
	}
}

func (r *jsonReader) Close() error {
	return r.closer.Close()
}

func (r *jsonReader) Next() (*Event, error) {
	if len(r.queued) > 0 {
		return r.pop()
	}
	var buf bytes.Buffer
	startLine := 0
	if r.pending != "" {
		buf.WriteString(r.pending)
		buf.WriteByte('\n')
		startLine = r.pendingLine
		r.pending = ""
		if json.Valid(buf.Bytes()) {
			return r.decode(buf.Bytes(), startLine)
		}
	}
	for r.scanner.Scan() {
		r.line++
		line := strings.TrimSpace(r.scanner.Text())
		if line == "" {
			continue
		}
		if line == eventTerminator {
			if buf.Len() == 0 {
				continue
			}
			return r.decode(buf.Bytes(), startLine)
		}
		if buf.Len() == 0 {
			startLine = r.line
		} else if strings.HasPrefix(line, "{") {
			// Events are flat objects, so a line opening a new object means the buffered one was cut short.
			r.pending, r.pendingLine = line, r.line
			return r.decode(buf.Bytes(), startLine)
		}
		buf.WriteString(line)
		buf.WriteByte('\n')
		if json.Valid(buf.Bytes()) {
			return r.decode(buf.Bytes(), startLine)
		}
	}
	if err := r.scanner.Err(); err != nil {
		return nil, errors.WithStack(err)
	}
	if buf.Len() > 0 {
		return r.decode(buf.Bytes(), startLine)
	}
	return nil, io.EOF
}

// decode queues every object held in data and returns the first.
func (r *jsonReader) decode(data []byte, line int) (*Event, error) {
	decoder := json.NewDecoder(bytes.NewReader(data))
	decoder.UseNumber()
	for {
		var attributes map[string]interface{}
		err := decoder.Decode(&attributes)
		if err == io.EOF {
			break
		}
		if err != nil {
			// The rest of the buffer can't be resynchronised.
			r.queued = append(r.queued, decoded{err: &ErrMalformedEvent{Line: line, Message: err.Error()}})
			break
		}
		event, err := eventFromAttributes(attributes)
		if err != nil {
			r.queued = append(r.queued, decoded{err: &ErrMalformedEvent{Line: line, Message: err.Error()}})
			continue
		}
		r.queued = append(r.queued, decoded{event: event})
	}
	if len(r.queued) == 0 {
		return r.Next()
	}
	return r.pop()
}

func (r *jsonReader) pop() (*Event, error) {
	next := r.queued[0]
	r.queued = r.queued[1:]
	return next.event, next.err
}

func eventFromAttributes(attributes map[string]interface{}) (*Event, error) {
	event := &Event{Fields: make(map[string]interface{}, len(attributes))}

	kind, err := kindFromAttributes(attributes)
	if err != nil {
		return nil, err
	}
	event.Kind = kind

	cluster, ok := numberAttribute(attributes, "Cluster")
	if !ok {
		return nil, errors.New("missing Cluster")
	}
	proc, ok := numberAttribute(attributes, "Proc")
	if !ok {
		return nil, errors.New("missing Proc")
	}
	event.JobId = JobId{Cluster: cluster, Proc: proc}
	event.Subproc, _ = numberAttribute(attributes, "Subproc")

	if raw, ok := attributes["EventTime"].(string); ok {
		ts, err := parseJsonTime(raw)
		if err != nil {
			return nil, err
		}
		event.Time = ts
	}

	for name, value := range attributes {
		if envelopeAttributes[name] {
			continue
		}
		if v, ok := normaliseJsonValue(value); ok {
			event.Fields[name] = v
		}
	}
	return event, nil
}

func kindFromAttributes(attributes map[string]interface{}) (EventKind, error) {
	if code, ok := numberAttribute(attributes, "EventTypeNumber"); ok {
		return EventKind(code), nil
	}
	if name, ok := attributes["MyType"].(string); ok {
		if kind, ok := ParseEventKind(name); ok {
			return kind, nil
		}
		return 0, errors.Errorf("unknown MyType %q", name)
	}
	return 0, errors.New("missing EventTypeNumber and MyType")
}

func numberAttribute(attributes map[string]interface{}, name string) (int64, bool) {
	n, ok := attributes[name].(json.Number)
	if !ok {
		return 0, false
	}
	i, err := n.Int64()
	if err != nil {
		return 0, false
	}
	return i, true
}

func parseJsonTime(s string) (time.Time, error) {
	for _, layout := range jsonTimeLayouts {
		if t, err := time.ParseInLocation(layout, s, time.Local); err == nil {
			return t, nil
		}
	}
	return time.Time{}, errors.Errorf("invalid EventTime %q", s)
}

// normaliseJsonValue maps decoded JSON onto the value types used by Event.Fields.
// Nested objects and arrays are dropped.
func normaliseJsonValue(value interface{}) (interface{}, bool) {
	switch v := value.(type) {
	case json.Number:
		if i, err := v.Int64(); err == nil {
			return i, true
		}
		if f, err := v.Float64(); err == nil {
			return f, true
		}
		return nil, false
	case bool, string:
		return v, true
	default:
		return nil, false
	}
}

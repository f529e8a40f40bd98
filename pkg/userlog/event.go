package userlog

import (
	"fmt"
	"time"
)

// JobId identifies a job by its cluster and process number.
type JobId struct {
	Cluster int64
	Proc    int64
}

// String formats the id as cluster.process, e.g. "1234.0".
func (id JobId) String() string {
	return fmt.Sprintf("%d.%d", id.Cluster, id.Proc)
}

// Event is a single entry of a job user log.
// Fields holds the kind specific attributes; values are int64, float64, bool or string.
// A key missing from Fields means the attribute was not present in the log.
type Event struct {
	Kind    EventKind
	JobId   JobId
	Subproc int64
	Time    time.Time
	Fields  map[string]interface{}
}

func (e *Event) String() string {
	return fmt.Sprintf("%s %s %s", e.Kind, e.JobId, e.Time.Format(TimeFormat))
}

// TimeFormat is the layout used when printing event timestamps.
const TimeFormat = "2006-01-02T15:04:05"

// Has reports whether the event carries the named field.
func (e *Event) Has(name string) bool {
	_, ok := e.Fields[name]
	return ok
}

// Int returns the named field as an integer.
// Floats are truncated; strings and bools are not converted.
func (e *Event) Int(name string) (int64, bool) {
	switch v := e.Fields[name].(type) {
	case int64:
		return v, true
	case int:
		return int64(v), true
	case float64:
		return int64(v), true
	default:
		return 0, false
	}
}

// Float returns the named field as a float.
func (e *Event) Float(name string) (float64, bool) {
	switch v := e.Fields[name].(type) {
	case float64:
		return v, true
	case int64:
		return float64(v), true
	case int:
		return float64(v), true
	default:
		return 0, false
	}
}

// Bool returns the named field as a bool.
func (e *Event) Bool(name string) (bool, bool) {
	v, ok := e.Fields[name].(bool)
	return v, ok
}

// Str returns the named field as a string.
func (e *Event) Str(name string) (string, bool) {
	v, ok := e.Fields[name].(string)
	return v, ok
}

func (e *Event) set(name string, value interface{}) {
	if e.Fields == nil {
		e.Fields = make(map[string]interface{})
	}
	e.Fields[name] = value
}

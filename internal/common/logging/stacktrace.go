package logging

import (
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

const Stacktrace = "stacktrace"

type stackTracer interface {
	StackTrace() errors.StackTrace
}

type causer interface {
	Cause() error
}

type unwrapper interface {
	Unwrap() error
}

// WithStacktrace adds err and, if one was recorded, the stack trace of the innermost pkg/errors error to logger.
func WithStacktrace(logger log.FieldLogger, err error) *log.Entry {
	entry := logger.WithError(err)
	if stack := ExtractStack(err); stack != nil {
		entry = entry.WithField(Stacktrace, stack)
	}
	return entry
}

// ExtractStack follows Cause and Unwrap until it finds an error carrying a stack trace.
func ExtractStack(err error) errors.StackTrace {
	switch e := err.(type) {
	case nil:
		return nil
	case stackTracer:
		return e.StackTrace()
	case causer:
		return ExtractStack(e.Cause())
	case unwrapper:
		return ExtractStack(e.Unwrap())
	default:
		return nil
	}
}

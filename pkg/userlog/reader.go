package userlog

import (
	"bufio"
	"compress/gzip"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/hashicorp/go-multierror"
	"github.com/pkg/errors"
)

// Format selects the decoder used for a log.
type Format string

const (
	FormatAuto Format = "auto"
	FormatText Format = "text"
	FormatJson Format = "json"
)

var validFormats = map[Format]bool{
	FormatAuto: true,
	FormatText: true,
	FormatJson: true,
}

// ParseFormat converts a user supplied string into a Format.
func ParseFormat(s string) (Format, error) {
	f := Format(strings.ToLower(strings.TrimSpace(s)))
	if f == "" {
		return FormatAuto, nil
	}
	if !validFormats[f] {
		return "", errors.Errorf("unknown log format %q; valid formats are auto, text and json", s)
	}
	return f, nil
}

// ErrMalformedEvent is returned by EventReader.Next when a single entry of the log could not be decoded.
// The reader stays usable and the next call to Next continues after the bad entry.
type ErrMalformedEvent struct {
	Line    int
	Message string
}

func (err *ErrMalformedEvent) Error() string {
	return fmt.Sprintf("malformed event at line %d: %s", err.Line, err.Message)
}

// EventReader yields the events of one log in file order.
// Next returns io.EOF once the log is exhausted.
type EventReader interface {
	Next() (*Event, error)
	Close() error
}

// Opener turns a source identifier into an EventReader.
type Opener interface {
	Open(source string) (EventReader, error)
}

// FileOpener opens logs from the local filesystem.
// Gzip compressed files are detected from their magic bytes and decompressed transparently.
type FileOpener struct {
	Format Format
}

func (o *FileOpener) Open(path string) (EventReader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	r, err := NewReader(f, o.Format)
	if err != nil {
		_ = f.Close()
		return nil, errors.Wrapf(err, "error opening %s", path)
	}
	return r, nil
}

// NewReader wraps rc in a decoder for the given format.
// Closing the returned reader closes rc.
func NewReader(rc io.ReadCloser, format Format) (EventReader, error) {
	br := bufio.NewReader(rc)
	closers := []io.Closer{rc}

	magic, err := br.Peek(2)
	if err != nil && err != io.EOF {
		return nil, errors.WithStack(err)
	}
	if len(magic) == 2 && magic[0] == 0x1f && magic[1] == 0x8b {
		gz, err := gzip.NewReader(br)
		if err != nil {
			return nil, errors.WithStack(err)
		}
		closers = append([]io.Closer{gz}, closers...)
		br = bufio.NewReader(gz)
	}

	if format == "" || format == FormatAuto {
		format, err = detectFormat(br)
		if err != nil {
			return nil, err
		}
	}

	c := &multiCloser{closers: closers}
	switch format {
	case FormatText:
		return newTextReader(br, c), nil
	case FormatJson:
		return newJsonReader(br, c), nil
	default:
		return nil, errors.Errorf("unknown log format %q", format)
	}
}

// detectFormat looks at the first non blank byte: JSON logs start with an object, text logs with an event code.
func detectFormat(br *bufio.Reader) (Format, error) {
	for n := 1; ; n++ {
		b, err := br.Peek(n)
		if len(b) < n {
			if err != nil && err != io.EOF {
				return "", errors.WithStack(err)
			}
			// Empty log, any decoder will report EOF straight away.
			return FormatText, nil
		}
		switch c := b[n-1]; {
		case c == ' ' || c == '\t' || c == '\r' || c == '\n':
			continue
		case c == '{':
			return FormatJson, nil
		default:
			return FormatText, nil
		}
	}
}

type multiCloser struct {
	closers []io.Closer
}

func (m *multiCloser) Close() error {
	var result *multierror.Error
	for _, c := range m.closers {
		if err := c.Close(); err != nil {
			result = multierror.Append(result, err)
		}
	}
	return result.ErrorOrNil()
}

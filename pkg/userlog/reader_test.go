package userlog

import (
	"bytes"
	"compress/gzip"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type trackingCloser struct {
	io.Reader
	closed bool
}

func (c *trackingCloser) Close() error {
	c.closed = true
	return nil
}

func gzipped(t *testing.T, s string) []byte {
	t.Helper()
	var buf bytes.Buffer
	w := gzip.NewWriter(&buf)
	_, err := w.Write([]byte(s))
	require.NoError(t, err)
	require.NoError(t, w.Close())
	return buf.Bytes()
}

func TestNewReader_DetectsFormat(t *testing.T) {
	tests := map[string]struct {
		input    string
		expected interface{}
	}{
		"text":             {input: textLog, expected: &textReader{}},
		"json":             {input: jsonLog, expected: &jsonReader{}},
		"json after blank": {input: "\n\n  " + jsonLog, expected: &jsonReader{}},
		"empty":            {input: "", expected: &textReader{}},
	}
	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			r, err := NewReader(io.NopCloser(strings.NewReader(tc.input)), FormatAuto)
			require.NoError(t, err)
			assert.IsType(t, tc.expected, r)
		})
	}
}

func TestNewReader_EmptyLog(t *testing.T) {
	r, err := NewReader(io.NopCloser(strings.NewReader("")), "")
	require.NoError(t, err)
	_, err = r.Next()
	assert.Equal(t, io.EOF, err)
}

func TestNewReader_Gzip(t *testing.T) {
	for name, log := range map[string]string{"text": textLog, "json": jsonLog} {
		t.Run(name, func(t *testing.T) {
			plain, err := NewReader(io.NopCloser(strings.NewReader(log)), FormatAuto)
			require.NoError(t, err)
			compressed, err := NewReader(io.NopCloser(bytes.NewReader(gzipped(t, log))), FormatAuto)
			require.NoError(t, err)

			assert.Equal(t, readAll(t, plain), readAll(t, compressed))
		})
	}
}

func TestNewReader_ClosesUnderlyingReader(t *testing.T) {
	rc := &trackingCloser{Reader: bytes.NewReader(gzipped(t, textLog))}
	r, err := NewReader(rc, FormatText)
	require.NoError(t, err)
	require.NoError(t, r.Close())
	assert.True(t, rc.closed)
}

func TestNewReader_UnknownFormat(t *testing.T) {
	_, err := NewReader(io.NopCloser(strings.NewReader(textLog)), Format("xml"))
	assert.Error(t, err)
}

func TestParseFormat(t *testing.T) {
	f, err := ParseFormat("")
	require.NoError(t, err)
	assert.Equal(t, FormatAuto, f)

	f, err = ParseFormat(" JSON ")
	require.NoError(t, err)
	assert.Equal(t, FormatJson, f)

	_, err = ParseFormat("yaml")
	assert.Error(t, err)
}

func TestFileOpener(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "job.log.gz")
	require.NoError(t, os.WriteFile(path, gzipped(t, textLog), 0o644))

	opener := &FileOpener{Format: FormatAuto}
	r, err := opener.Open(path)
	require.NoError(t, err)
	defer r.Close()
	assert.Len(t, readAll(t, r), 8)

	_, err = opener.Open(filepath.Join(dir, "missing.log"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestEventKind(t *testing.T) {
	assert.Equal(t, "JobTerminatedEvent", Terminated.String())
	assert.Equal(t, "UnknownEvent(99)", EventKind(99).String())
	assert.True(t, DataflowJobSkipped.Known())
	assert.False(t, EventKind(-1).Known())

	kind, ok := ParseEventKind("FileTransferEvent")
	assert.True(t, ok)
	assert.Equal(t, FileTransfer, kind)
	_, ok = ParseEventKind("NoSuchEvent")
	assert.False(t, ok)

	for code := 0; code <= 46; code++ {
		kind := EventKind(code)
		require.True(t, kind.Known(), code)
		parsed, ok := ParseEventKind(kind.String())
		require.True(t, ok)
		assert.Equal(t, kind, parsed)
	}
}

func TestEvent_Accessors(t *testing.T) {
	e := &Event{Fields: map[string]interface{}{
		"i": int64(3),
		"f": 2.5,
		"b": true,
		"s": "x",
	}}

	i, ok := e.Int("i")
	assert.True(t, ok)
	assert.Equal(t, int64(3), i)
	i, ok = e.Int("f")
	assert.True(t, ok)
	assert.Equal(t, int64(2), i)
	_, ok = e.Int("s")
	assert.False(t, ok)

	f, ok := e.Float("i")
	assert.True(t, ok)
	assert.Equal(t, 3.0, f)

	b, ok := e.Bool("b")
	assert.True(t, ok)
	assert.True(t, b)

	s, ok := e.Str("s")
	assert.True(t, ok)
	assert.Equal(t, "x", s)

	assert.True(t, e.Has("s"))
	assert.False(t, e.Has("missing"))
	assert.Equal(t, "1234.5", JobId{Cluster: 1234, Proc: 5}.String())
}

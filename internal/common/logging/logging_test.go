package logging

import (
	"bytes"
	"fmt"
	"testing"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfigureLogging(t *testing.T) {
	original := log.StandardLogger().Out
	defer ConfigureLogging(original, log.InfoLevel)

	var buf bytes.Buffer
	ConfigureLogging(&buf, log.WarnLevel)
	log.Info("hidden")
	log.WithField("source", "a.log").Warn("shown")

	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "msg=shown")
	assert.Contains(t, buf.String(), "source=a.log")
}

func TestSetLevel(t *testing.T) {
	defer log.SetLevel(log.InfoLevel)

	require.NoError(t, SetLevel("debug"))
	assert.Equal(t, log.DebugLevel, log.GetLevel())
	assert.Error(t, SetLevel("loud"))
	assert.Equal(t, log.DebugLevel, log.GetLevel())
}

type wrapped struct {
	err error
}

func (w *wrapped) Error() string { return fmt.Sprintf("wrapped: %s", w.err) }
func (w *wrapped) Unwrap() error { return w.err }

func TestWithStacktrace(t *testing.T) {
	logger, hook := test.NewNullLogger()

	err := &wrapped{err: errors.Wrap(errors.New("root"), "context")}
	WithStacktrace(logger, err).Error("failed")

	entry := hook.LastEntry()
	require.NotNil(t, entry)
	assert.Equal(t, err, entry.Data[log.ErrorKey])
	assert.NotNil(t, entry.Data[Stacktrace])

	WithStacktrace(logger, fmt.Errorf("plain")).Error("failed")
	_, ok := hook.LastEntry().Data[Stacktrace]
	assert.False(t, ok)
}

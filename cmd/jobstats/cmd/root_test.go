package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/mitchellh/go-homedir"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v2"

	"github.com/G-Research/jobstats/internal/jobstats"
	"github.com/G-Research/jobstats/internal/jobstats/report"
	"github.com/G-Research/jobstats/pkg/userlog"
)

const testLog = `000 (42.000.000) 2023-05-10 10:00:00 Job submitted from host: <10.0.0.1:9618>
...
001 (42.000.000) 2023-05-10 10:00:03 Job executing on host: <10.0.0.2:9618>
...
`

type recordingOpener struct {
	opened []string
}

func (o *recordingOpener) Open(source string) (userlog.EventReader, error) {
	o.opened = append(o.opened, source)
	return nil, os.ErrNotExist
}

func setup(t *testing.T) (*jobstats.App, *bytes.Buffer) {
	t.Helper()
	homedir.DisableCache = true
	t.Setenv("HOME", t.TempDir())

	logger, _ := test.NewNullLogger()
	out := &bytes.Buffer{}
	app := jobstats.New()
	app.Out = out
	app.Log = logger
	return app, out
}

func execute(t *testing.T, app *jobstats.App, args ...string) error {
	t.Helper()
	cmd := rootCmd(app, viper.New())
	cmd.SetArgs(args)
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	return cmd.Execute()
}

func writeLog(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "job.log")
	require.NoError(t, os.WriteFile(path, []byte(testLog), 0o644))
	return path
}

func TestRootCmd_WritesCsv(t *testing.T) {
	app, out := setup(t)

	require.NoError(t, execute(t, app, writeLog(t)))

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.Len(t, lines, 2)
	assert.True(t, strings.HasPrefix(lines[0], "job_id,log_file,submitted,executions,"))
	assert.True(t, strings.HasPrefix(lines[1], "42.0,job.log,2023-05-10T10:00:00,1,"))
}

func TestRootCmd_AcceptsLogsAsArguments(t *testing.T) {
	app, out := setup(t)
	cfg := filepath.Join(t.TempDir(), "jobstats.yaml")
	require.NoError(t, os.WriteFile(cfg, []byte("format: csv\n"), 0o644))
	first := writeLog(t)
	second := filepath.Join(t.TempDir(), "other.log")
	require.NoError(t, os.WriteFile(second, []byte(testLog), 0o644))

	require.NoError(t, execute(t, app, "--config", cfg, first, second))

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.Len(t, lines, 2)
	assert.True(t, strings.HasPrefix(lines[1], "42.0,job.log;other.log,"), lines[1])
}

func TestRootCmd_Flags(t *testing.T) {
	app, out := setup(t)
	metricsFile := filepath.Join(t.TempDir(), "run.prom")

	require.NoError(t, execute(t, app, "-s", "--format", "table", "--log-format", "text", "--metrics-file", metricsFile, writeLog(t)))

	assert.True(t, app.Params.ShowSkipped)
	assert.Equal(t, report.FormatTable, app.Params.Format)
	assert.Equal(t, userlog.FormatText, app.Params.LogFormat)
	assert.True(t, strings.HasPrefix(out.String(), "job_id  "))
	assert.FileExists(t, metricsFile)
}

func TestRootCmd_DictionaryDoesNotOpenLogs(t *testing.T) {
	app, out := setup(t)
	opener := &recordingOpener{}
	app.Opener = opener

	require.NoError(t, execute(t, app, "-d", "a.log", "b.log"))

	assert.Empty(t, opener.opened)
	assert.Contains(t, out.String(), "file_transfer_starts")
}

func TestRootCmd_RequiresLogs(t *testing.T) {
	app, _ := setup(t)
	assert.Error(t, execute(t, app))
}

func TestRootCmd_NoDataIsNotAnError(t *testing.T) {
	app, out := setup(t)
	opener := &recordingOpener{}
	app.Opener = opener

	require.NoError(t, execute(t, app, "missing-1.log", "missing-2.log"))

	assert.Equal(t, []string{"missing-1.log", "missing-2.log"}, opener.opened)
	assert.Zero(t, out.Len())
}

func TestRootCmd_InvalidFormat(t *testing.T) {
	app, _ := setup(t)
	assert.Error(t, execute(t, app, "--format", "pdf", "a.log"))
	assert.Error(t, execute(t, app, "--format", "xlsx", "a.log"))
}

func TestRootCmd_ConfigFile(t *testing.T) {
	app, out := setup(t)
	cfg := filepath.Join(t.TempDir(), "jobstats.yaml")
	require.NoError(t, os.WriteFile(cfg, []byte("format: table\nshowSkipped: true\n"), 0o644))

	require.NoError(t, execute(t, app, "--config", cfg, writeLog(t)))

	assert.True(t, app.Params.ShowSkipped)
	assert.True(t, strings.HasPrefix(out.String(), "job_id  "))
}

func TestRootCmd_FlagOverridesConfigFile(t *testing.T) {
	app, out := setup(t)
	cfg := filepath.Join(t.TempDir(), "jobstats.yaml")
	require.NoError(t, os.WriteFile(cfg, []byte("format: table\n"), 0o644))

	require.NoError(t, execute(t, app, "--config", cfg, "--format", "csv", writeLog(t)))

	assert.True(t, strings.HasPrefix(out.String(), "job_id,"))
}

func TestColumnsCmd(t *testing.T) {
	app, out := setup(t)
	require.NoError(t, execute(t, app, "columns", "--yaml"))

	var docs []map[string]string
	require.NoError(t, yaml.Unmarshal(out.Bytes(), &docs))
	require.Len(t, docs, 32)
	assert.Equal(t, "job_id", docs[0]["name"])
}

func TestVersionCmd(t *testing.T) {
	app, out := setup(t)
	require.NoError(t, execute(t, app, "version"))
	assert.Contains(t, out.String(), "Commit:")
}

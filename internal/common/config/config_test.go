package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/mitchellh/go-homedir"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type colour string

func parseColour(s string) (colour, error) {
	c := colour(strings.ToLower(s))
	if c != "red" && c != "blue" {
		return "", errors.Errorf("unknown colour %q", s)
	}
	return c, nil
}

type testConfig struct {
	Name    string        `validate:"required"`
	Colour  colour        `validate:"oneof=red blue"`
	Timeout time.Duration `validate:"gte=0"`
	Retries int           `validate:"gte=0,lte=5"`
}

func TestReadConfigFile_ExplicitFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.yaml")
	require.NoError(t, os.WriteFile(path, []byte("name: reports\ncolour: RED\ntimeout: 5s\n"), 0o644))

	v := viper.New()
	require.NoError(t, ReadConfigFile(v, path, ".unused.yaml"))

	var c testConfig
	require.NoError(t, Unmarshal(v, &c, StringParserHook(parseColour)))
	assert.Equal(t, testConfig{Name: "reports", Colour: "red", Timeout: 5 * time.Second}, c)
}

func TestReadConfigFile_MissingExplicitFile(t *testing.T) {
	v := viper.New()
	err := ReadConfigFile(v, filepath.Join(t.TempDir(), "missing.yaml"), ".unused.yaml")
	assert.Error(t, err)
}

func TestReadConfigFile_MissingDefaultFile(t *testing.T) {
	homedir.DisableCache = true
	t.Setenv("HOME", t.TempDir())
	v := viper.New()
	assert.NoError(t, ReadConfigFile(v, "", ".does-not-exist.yaml"))
}

func TestReadConfigFile_DefaultFile(t *testing.T) {
	homedir.DisableCache = true
	home := t.TempDir()
	t.Setenv("HOME", home)
	require.NoError(t, os.WriteFile(filepath.Join(home, ".testconfig.yaml"), []byte("name: from-home\ncolour: blue\n"), 0o644))

	v := viper.New()
	require.NoError(t, ReadConfigFile(v, "", ".testconfig.yaml"))
	assert.Equal(t, "from-home", v.GetString("name"))
}

func TestUnmarshal_HookError(t *testing.T) {
	v := viper.New()
	v.Set("name", "x")
	v.Set("colour", "green")

	var c testConfig
	assert.Error(t, Unmarshal(v, &c, StringParserHook(parseColour)))
}

func TestValidate(t *testing.T) {
	hook := test.NewGlobal()
	defer log.StandardLogger().ReplaceHooks(make(log.LevelHooks))

	assert.NoError(t, Validate(&testConfig{Name: "x", Colour: "red"}))
	assert.Empty(t, hook.AllEntries())

	err := Validate(&testConfig{Colour: "red", Retries: 9})
	assert.Error(t, err)
	var messages []string
	for _, entry := range hook.AllEntries() {
		messages = append(messages, entry.Message)
	}
	assert.ElementsMatch(t, []string{
		"ConfigError: Field Name is required but was not found",
		"ConfigError: Field Retries has invalid value 9: lte",
	}, messages)
}

package configuration

import (
	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"

	"github.com/G-Research/jobstats/internal/common/config"
	"github.com/G-Research/jobstats/internal/jobstats/report"
	"github.com/G-Research/jobstats/pkg/userlog"
)

// DefaultConfigFile is looked up in the user's home directory when no --config is given.
const DefaultConfigFile = ".jobstats.yaml"

// Params holds every user-customizable setting. Each can be given as a flag or, under the same name as its
// mapstructure tag, in the config file.
type Params struct {
	// Print skipped event counts after the report.
	ShowSkipped bool `mapstructure:"showSkipped"`
	// Print the column dictionary instead of processing logs.
	Dictionary bool `mapstructure:"dictionary"`
	// Report format.
	Format report.Format `mapstructure:"format" validate:"oneof=csv table xlsx"`
	// Path the report is written to; standard output if empty. Required for xlsx.
	Output string `mapstructure:"output" validate:"required_if=Format xlsx"`
	// Format of the job logs.
	LogFormat userlog.Format `mapstructure:"logFormat" validate:"oneof=auto text json"`
	// If set, run counters are written here in the Prometheus text format.
	MetricsFile string `mapstructure:"metricsFile"`
	LogLevel    string `mapstructure:"logLevel" validate:"oneof=trace debug info warn warning error fatal panic"`
}

// SetDefaults registers the default value of every setting with v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("showSkipped", false)
	v.SetDefault("dictionary", false)
	v.SetDefault("format", string(report.FormatCsv))
	v.SetDefault("output", "")
	v.SetDefault("logFormat", string(userlog.FormatAuto))
	v.SetDefault("metricsFile", "")
	v.SetDefault("logLevel", "info")
}

// Hooks converts config strings into report and log formats.
func Hooks() []mapstructure.DecodeHookFunc {
	return []mapstructure.DecodeHookFunc{
		config.StringParserHook(report.ParseFormat),
		config.StringParserHook(userlog.ParseFormat),
	}
}

// Load decodes and validates the settings held by v.
func Load(v *viper.Viper) (*Params, error) {
	params := &Params{}
	if err := config.Unmarshal(v, params, Hooks()...); err != nil {
		return nil, err
	}
	return params, nil
}

package cmd

import (
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/G-Research/jobstats/internal/common/config"
	"github.com/G-Research/jobstats/internal/common/logging"
	"github.com/G-Research/jobstats/internal/jobstats"
	"github.com/G-Research/jobstats/internal/jobstats/configuration"
)

// Flag names mapped to the config file keys they override.
var flagKeys = map[string]string{
	"show-skipped": "showSkipped",
	"dictionary":   "dictionary",
	"format":       "format",
	"output":       "output",
	"log-format":   "logFormat",
	"metrics-file": "metricsFile",
	"log-level":    "logLevel",
}

// RootCmd is the root Cobra command that gets called from the main func.
// All other sub-commands should be registered here.
func RootCmd() *cobra.Command {
	return rootCmd(jobstats.New(), viper.New())
}

func rootCmd(app *jobstats.App, v *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "jobstats [flags] <log>...",
		Short: "jobstats summarises job user logs into one report row per job.",
		Long: `jobstats reads one or more job user logs, in the classic text format or as JSON,
optionally gzip compressed, and writes one row of statistics per job.

Events for the same job found in several logs are merged. Logs that cannot be read
are reported on stderr and skipped.

Persistent settings can be saved in a config file using the flag names in camel case:
format: table
showSkipped: true
logLevel: debug

The location of this file can be passed in using the --config argument.
If not provided, $HOME/.jobstats.yaml is used.`,
		Args:         cobra.ArbitraryArgs,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return initParams(cmd, v, app)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			if app.Params.Dictionary {
				return app.Dictionary(false)
			}
			if len(args) == 0 {
				return errors.New("at least one log is required")
			}
			return app.Run(args)
		},
	}

	cmd.PersistentFlags().String("config", "", "Config file (default $HOME/"+configuration.DefaultConfigFile+").")
	cmd.PersistentFlags().String("log-level", "info", "Log level: debug, info, warn or error.")
	cmd.Flags().BoolP("show-skipped", "s", false, "Print counts of skipped events after the report.")
	cmd.Flags().BoolP("dictionary", "d", false, "Print the column dictionary and exit without reading any log.")
	cmd.Flags().String("format", "csv", "Report format: csv, table or xlsx.")
	cmd.Flags().StringP("output", "o", "", "Write the report to this file instead of standard out. Required for xlsx.")
	cmd.Flags().String("log-format", "auto", "Format of the logs: auto, text or json.")
	cmd.Flags().String("metrics-file", "", "Write run counters to this file in the Prometheus text format.")

	configuration.SetDefaults(v)
	bindFlags(v, cmd.PersistentFlags())
	bindFlags(v, cmd.Flags())

	cmd.AddCommand(
		columnsCmd(app),
		versionCmd(app),
	)

	return cmd
}

func bindFlags(v *viper.Viper, flags *pflag.FlagSet) {
	flags.VisitAll(func(flag *pflag.Flag) {
		if key, ok := flagKeys[flag.Name]; ok {
			// Only fails for a nil flag.
			_ = v.BindPFlag(key, flag)
		}
	})
}

// Print the column dictionary.
func columnsCmd(app *jobstats.App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "columns",
		Short: "Describe the report columns.",
		RunE: func(cmd *cobra.Command, args []string) error {
			asYaml, err := cmd.Flags().GetBool("yaml")
			if err != nil {
				return err
			}
			return app.Dictionary(asYaml)
		},
	}
	cmd.Flags().Bool("yaml", false, "Print the dictionary as YAML.")
	return cmd
}

// Print version info and exit.
func versionCmd(app *jobstats.App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "version",
		Short: "Print version.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.Version()
		},
	}
	return cmd
}

// initParams loads the config file, applies flags on top of it and validates the result.
func initParams(cmd *cobra.Command, v *viper.Viper, app *jobstats.App) error {
	cfgFile, err := cmd.Flags().GetString("config")
	if err != nil {
		return err
	}
	if err := config.ReadConfigFile(v, cfgFile, configuration.DefaultConfigFile); err != nil {
		return err
	}
	params, err := configuration.Load(v)
	if err != nil {
		return err
	}
	if err := logging.SetLevel(params.LogLevel); err != nil {
		return err
	}
	app.Params = params
	return nil
}

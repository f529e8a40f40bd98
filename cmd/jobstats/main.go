package main

import (
	"os"

	"github.com/G-Research/jobstats/cmd/jobstats/cmd"
	"github.com/G-Research/jobstats/internal/common/logging"
)

// Config is handled by cmd/root.go
func main() {
	logging.ConfigureCommandLineLogging()
	err := cmd.RootCmd().Execute()
	if err != nil {
		os.Exit(1)
	}
}

package main

import (
	"fmt"
	"os"

	"github.com/alecthomas/kong"

	"github.com/pombredanne/pullpo/internal/cmd"
	"github.com/pombredanne/pullpo/internal/config"
	"github.com/pombredanne/pullpo/internal/domain"
	"github.com/pombredanne/pullpo/version"
)

// Exit codes reported to calling scripts and schedulers
const (
	exitOK            = 0
	exitUnexpected    = 1
	exitConfiguration = 2
	exitRemote        = 3
	exitRateLimit     = 4
)

func main() {
	// Load settings from $PULLPO_HOME/settings.json
	settings, err := config.LoadSettings()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: failed to load settings: %v\n", err)
		settings = &config.Settings{} // Use empty settings
	}

	// Parse CLI arguments with Kong
	// Container is created in CLI.AfterApply() after logging is initialized
	var cli cmd.CLI
	cli.SetSettings(settings) // Set settings before parsing
	ctx := kong.Parse(&cli,
		kong.Name("pullpo"),
		kong.Description(version.Tagline),
		kong.Vars{
			"version": version.Info(),
		},
		kong.UsageOnError(),
		kong.Bind(&cli),
	)
	defer cli.Close()

	// Execute the selected command
	if err := ctx.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(exitCode(err))
	}
}

// exitCode maps a sync failure to the process exit code
func exitCode(err error) int {
	switch domain.KindOf(err) {
	case domain.FailureConfiguration:
		return exitConfiguration
	case domain.FailureAuthentication, domain.FailureNotFound:
		return exitRemote
	case domain.FailureRateLimit:
		return exitRateLimit
	default:
		return exitUnexpected
	}
}

package cmd

import (
	"fmt"
	"os"

	"github.com/alecthomas/kong"

	"github.com/pombredanne/pullpo/internal/config"
	"github.com/pombredanne/pullpo/internal/logging"
)

// CLI represents the command-line interface structure
type CLI struct {
	Version     kong.VersionFlag `help:"Show version information"`
	Debug       bool             `help:"Enable debug logging to file" short:"d"`
	DebugFile   string           `help:"Custom path for debug log file (disables automatic cleanup)"`
	MaxLogFiles int              `help:"Maximum number of log files to keep (0 = unlimited)" default:"1000"`
	Token       string           `help:"GitHub API token" env:"PULLPO_TOKEN"`
	Database    string           `help:"Path to the SQLite database file" name:"db"`

	Sync   SyncCmd   `cmd:"sync" help:"Sync pull request activity for an owner or repository"`
	Repos  ReposCmd  `cmd:"repos" help:"List synced repositories and their status"`
	Daemon DaemonCmd `cmd:"daemon" help:"Run periodic syncs until interrupted"`

	// Internal fields (not flags)
	Container *Container       `kong:"-"`
	settings  *config.Settings `kong:"-"`
}

// SetSettings sets the settings on the CLI struct
func (c *CLI) SetSettings(settings *config.Settings) {
	c.settings = settings
}

// AfterApply initializes logging after CLI parsing and applies settings
func (c *CLI) AfterApply() error {
	// Apply settings with proper precedence: CLI flags > env vars > settings.json > defaults
	// Only apply if flag is at default value and env var is not set

	if c.settings != nil {
		if c.MaxLogFiles == 1000 {
			if _, hasEnv := os.LookupEnv("PULLPO_MAX_LOG_FILES"); !hasEnv {
				if c.settings.MaxLogFiles != nil {
					c.MaxLogFiles = *c.settings.MaxLogFiles
				}
			}
		}

		if !c.Debug {
			if _, hasEnv := os.LookupEnv("PULLPO_DEBUG"); !hasEnv {
				if c.settings.Debug != nil && *c.settings.Debug {
					c.Debug = true
				}
			}
		}

		if c.Token == "" {
			c.Token = c.settings.Token
		}

		if c.Database == "" {
			c.Database = c.settings.DatabasePath
		}
	}

	if c.Database == "" {
		c.Database = config.GetDBPath()
	}

	// Initialize logging first and get the log file path
	logFilePath, err := logging.Initialize(c.Debug, c.DebugFile, c.MaxLogFiles)
	if err != nil {
		return err
	}

	// Propagate debug settings so the GORM logger and any subprocesses see them
	if c.Debug || c.DebugFile != "" {
		os.Setenv("PULLPO_DEBUG", "1")
		if logFilePath != "" {
			os.Setenv("PULLPO_DEBUG_FILE", logFilePath)
		}
	}
	if c.MaxLogFiles != 1000 {
		os.Setenv("PULLPO_MAX_LOG_FILES", fmt.Sprintf("%d", c.MaxLogFiles))
	}

	// Create container AFTER logging is initialized so adapters can log
	// during their setup
	container, err := NewContainer(c.Token, c.Database)
	if err != nil {
		return fmt.Errorf("failed to initialize container: %w", err)
	}
	c.Container = container

	return nil
}

// Close closes all resources held by the CLI
func (c *CLI) Close() error {
	if c.Container != nil {
		return c.Container.Close()
	}
	return nil
}

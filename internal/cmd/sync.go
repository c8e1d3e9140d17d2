package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/pombredanne/pullpo/internal/domain"
	"github.com/pombredanne/pullpo/internal/logging"
	"github.com/pombredanne/pullpo/internal/services"
)

// SyncCmd runs one ingestion pass
type SyncCmd struct {
	Owner string `arg:"" help:"Account whose repositories to sync"`
	Repo  string `arg:"" optional:"" help:"Restrict the sync to a single repository"`

	BatchSize int    `help:"Pull requests per checkpoint flush" default:"10"`
	Newest    bool   `help:"Scan most recently updated pull requests first"`
	Since     string `help:"Override the stored cursor (RFC3339 timestamp)"`
}

// Run executes the sync command
func (s *SyncCmd) Run(cli *CLI) error {
	if cli.Token == "" {
		return domain.NewSyncError(domain.FailureConfiguration,
			fmt.Errorf("no GitHub token configured (use --token, PULLPO_TOKEN, or settings.json)"))
	}

	// Apply BatchSize setting with proper precedence
	if s.BatchSize == 10 && cli.settings != nil && cli.settings.BatchSize != nil {
		s.BatchSize = *cli.settings.BatchSize
	}

	var since *time.Time
	if s.Since != "" {
		parsed, err := time.Parse(time.RFC3339, s.Since)
		if err != nil {
			return domain.NewSyncError(domain.FailureConfiguration,
				fmt.Errorf("invalid --since value %q: %w", s.Since, err))
		}
		utc := parsed.UTC()
		since = &utc
	}

	logging.Logger.Info("Starting sync",
		"owner", s.Owner, "repo", s.Repo,
		"batch_size", s.BatchSize, "newest", s.Newest, "since", s.Since)

	report, err := cli.Container.SyncService.Sync(context.Background(), s.Owner, services.SyncOptions{
		BatchSize:   s.BatchSize,
		NewestFirst: s.Newest,
		Repo:        s.Repo,
		Since:       since,
	})

	printReport(report)
	return err
}

func printReport(report *services.Report) {
	for _, repo := range report.Repositories {
		status := ""
		if repo.Aborted {
			status = " (aborted)"
		}
		fmt.Printf("%s: %d pull requests in %d batches, %d skipped%s\n",
			repo.FullName, repo.Synced, repo.Batches, repo.Skipped, status)
	}
	fmt.Printf("Total: %d pull requests, %d skipped, %d users\n",
		report.Synced, report.Skipped, report.Users)
}

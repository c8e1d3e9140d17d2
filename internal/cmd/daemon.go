package cmd

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-co-op/gocron/v2"
	"golang.org/x/sync/errgroup"

	"github.com/pombredanne/pullpo/internal/domain"
	"github.com/pombredanne/pullpo/internal/logging"
	"github.com/pombredanne/pullpo/internal/services"
)

// DaemonCmd runs periodic syncs until interrupted
type DaemonCmd struct {
	Owner string `arg:"" help:"Account whose repositories to sync"`
	Repo  string `arg:"" optional:"" help:"Restrict the sync to a single repository"`

	BatchSize int           `help:"Pull requests per checkpoint flush" default:"10"`
	Interval  time.Duration `help:"Time between sync passes" default:"1h"`
	Newest    bool          `help:"Scan most recently updated pull requests first"`
}

// Run executes the daemon command
func (d *DaemonCmd) Run(cli *CLI) error {
	if cli.Token == "" {
		return domain.NewSyncError(domain.FailureConfiguration,
			fmt.Errorf("no GitHub token configured (use --token, PULLPO_TOKEN, or settings.json)"))
	}

	if d.BatchSize == 10 && cli.settings != nil && cli.settings.BatchSize != nil {
		d.BatchSize = *cli.settings.BatchSize
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	scheduler, err := gocron.NewScheduler()
	if err != nil {
		return fmt.Errorf("failed to create scheduler: %w", err)
	}

	syncPass := func() {
		logging.Logger.Info("Daemon sync pass starting", "owner", d.Owner, "repo", d.Repo)
		report, err := cli.Container.SyncService.Sync(ctx, d.Owner, services.SyncOptions{
			BatchSize:   d.BatchSize,
			NewestFirst: d.Newest,
			Repo:        d.Repo,
		})
		if err != nil {
			// Rate limits and transient remote failures resolve themselves;
			// the next pass resumes from the flushed cursor
			logging.Logger.Error("Daemon sync pass failed", "error", err)
			return
		}
		logging.Logger.Info("Daemon sync pass finished",
			"synced", report.Synced, "skipped", report.Skipped)
	}

	_, err = scheduler.NewJob(
		gocron.DurationJob(d.Interval),
		gocron.NewTask(syncPass),
		gocron.WithStartAt(gocron.WithStartImmediately()),
	)
	if err != nil {
		return fmt.Errorf("failed to schedule sync job: %w", err)
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		scheduler.Start()
		<-ctx.Done()
		logging.Logger.Info("Daemon shutting down")
		return scheduler.Shutdown()
	})

	fmt.Printf("Syncing %s every %s. Press Ctrl+C to stop.\n", d.Owner, d.Interval)
	return g.Wait()
}

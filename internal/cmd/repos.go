package cmd

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"
)

// ReposCmd lists synced repositories
type ReposCmd struct{}

// Run executes the repos command
func (r *ReposCmd) Run(cli *CLI) error {
	summaries, err := cli.Container.Store.Repositories(context.Background())
	if err != nil {
		return err
	}

	if len(summaries) == 0 {
		fmt.Println("No repositories synced yet. Run 'pullpo sync OWNER' first.")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "REPOSITORY\tPULL REQUESTS\tLAST SYNCED")
	for _, s := range summaries {
		lastSynced := "never"
		if s.LastSyncedAt != nil {
			lastSynced = s.LastSyncedAt.Format("2006-01-02 15:04:05")
		}
		fmt.Fprintf(w, "%s\t%d\t%s\n", s.FullName, s.PullRequests, lastSynced)
	}
	return w.Flush()
}

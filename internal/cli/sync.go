package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/mjardine/gemsync/internal/core"
	"github.com/mjardine/gemsync/internal/media"
	"github.com/mjardine/gemsync/internal/models"
)

var (
	syncAll     bool
	syncDryRun  bool
	syncWorkers int
)

var syncCmd = &cobra.Command{
	Use:   "sync [<group-id>...]",
	Short: "Synchronize SKU groups to the catalog platform",
	Long: `Fetch the named SKU groups from the warranty database, build their
catalog products, and push the ones whose content changed. Groups
whose fingerprint matches the platform are skipped.

Examples:
  gemsync sync WB100 WB200          Sync two groups
  gemsync sync --all                Sync every known group
  gemsync sync --all --dry-run      Report what would change
  gemsync sync --workers 8 --all    Raise the concurrency bound`,
	Args: cobra.ArbitraryArgs,
	Run:  runSync,
}

func init() {
	syncCmd.Flags().BoolVar(&syncAll, "all", false, "Sync every group in the warranty database")
	syncCmd.Flags().BoolVar(&syncDryRun, "dry-run", false, "Report changes without dispatching them")
	syncCmd.Flags().IntVar(&syncWorkers, "workers", 0, "Concurrent group workers (default from config)")
}

func runSync(cmd *cobra.Command, args []string) {
	if !syncAll && len(args) == 0 {
		exitError("no groups given — name group IDs or pass --all")
	}
	if syncAll && len(args) > 0 {
		exitError("--all cannot be combined with explicit group IDs")
	}

	c := initFullContext()
	defer c.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pc := c.Config.Processing
	opts := core.Options{
		Workers:          pc.Workers,
		BatchThreshold:   pc.BatchThreshold,
		DryRun:           syncDryRun,
		BulkPollInterval: pc.BulkPollInterval(),
		BulkTimeout:      pc.BulkTimeout(),
	}
	if syncWorkers > 0 {
		opts.Workers = syncWorkers
	}

	engine := core.NewEngine(c.Source, c.Client, media.NopSource{}, c.Config.NewLogger(), opts)

	progress := func(r *models.GroupResult, done, total int) {
		fmt.Printf("\r  syncing %d/%d", done, total)
	}

	var summary *models.RunSummary
	var err error
	if syncAll {
		summary, err = engine.SyncAll(ctx, progress)
	} else {
		summary, err = engine.Run(ctx, args, progress)
	}
	fmt.Println() // newline after progress
	if err != nil {
		exitError("%v", err)
	}

	if !syncDryRun {
		if err := c.Store.SaveRun(summary); err != nil {
			exitError("failed to save run results: %v", err)
		}
	}

	printSummary(summary, syncDryRun)
	if summary.Failed > 0 || summary.PartialFailure > 0 {
		os.Exit(1)
	}
}

func printSummary(s *models.RunSummary, dryRun bool) {
	green := color.New(color.FgGreen)
	yellow := color.New(color.FgYellow)
	red := color.New(color.FgRed)

	if dryRun {
		yellow.Println("(dry run — nothing dispatched)")
	}
	fmt.Printf("Run %s: %d group(s) in %s\n",
		shortID(s.RunID), s.Total(), s.FinishedAt.Sub(s.StartedAt).Round(10*time.Millisecond))

	if s.Created > 0 {
		green.Printf("  created:  %d\n", s.Created)
	}
	if s.Updated > 0 {
		green.Printf("  updated:  %d\n", s.Updated)
	}
	if s.NoOp > 0 {
		fmt.Printf("  skipped:  %d (unchanged)\n", s.NoOp)
	}
	if s.PartialFailure > 0 {
		yellow.Printf("  partial:  %d\n", s.PartialFailure)
	}
	if s.Failed > 0 {
		red.Printf("  failed:   %d\n", s.Failed)
	}

	for _, r := range s.Results {
		switch r.Outcome {
		case models.OutcomePartialFailure:
			yellow.Printf("  ! %s: %s\n", r.GroupID, r.Message)
		case models.OutcomeFailed:
			red.Printf("  ✗ %s [%s]: %s\n", r.GroupID, r.ErrorKind, r.Message)
		}
	}
}

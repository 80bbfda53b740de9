package cli

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/mjardine/gemsync/internal/models"
)

var (
	resultsLimit int
	resultsGroup string
)

var resultsCmd = &cobra.Command{
	Use:   "results [<run-id>]",
	Short: "Show recorded sync runs",
	Long: `Without arguments, list recent runs. With a run ID, show that
run's per-group results. With --group, show one group's history
across runs.`,
	Args: cobra.MaximumNArgs(1),
	Run:  runResults,
}

func init() {
	resultsCmd.Flags().IntVarP(&resultsLimit, "limit", "n", 20, "Maximum entries to show")
	resultsCmd.Flags().StringVar(&resultsGroup, "group", "", "Show the history of one group")
}

func runResults(cmd *cobra.Command, args []string) {
	c := initContext()
	defer c.Close()

	if resultsGroup != "" {
		history, err := c.Store.GroupHistory(resultsGroup, resultsLimit)
		if err != nil {
			exitError("%v", err)
		}
		if len(history) == 0 {
			fmt.Printf("no results recorded for group %s\n", resultsGroup)
			return
		}
		for _, r := range history {
			printResult(r)
		}
		return
	}

	if len(args) == 1 {
		run, err := c.Store.GetRun(args[0])
		if err != nil {
			exitError("%v", err)
		}
		if run == nil {
			exitError("run %s not found", args[0])
		}
		printSummary(run, false)
		return
	}

	runs, err := c.Store.ListRuns(resultsLimit)
	if err != nil {
		exitError("%v", err)
	}
	if len(runs) == 0 {
		fmt.Println("no runs recorded")
		return
	}
	for _, r := range runs {
		fmt.Printf("%s  %s  total=%d created=%d updated=%d noop=%d partial=%d failed=%d\n",
			shortID(r.RunID),
			r.StartedAt.Local().Format("2006-01-02 15:04:05"),
			r.Created+r.Updated+r.NoOp+r.PartialFailure+r.Failed,
			r.Created, r.Updated, r.NoOp, r.PartialFailure, r.Failed)
	}
}

func printResult(r *models.GroupResult) {
	switch r.Outcome {
	case models.OutcomeFailed:
		color.New(color.FgRed).Printf("%s  %s", r.GroupID, r.Outcome)
	case models.OutcomePartialFailure:
		color.New(color.FgYellow).Printf("%s  %s", r.GroupID, r.Outcome)
	default:
		fmt.Printf("%s  %s", r.GroupID, r.Outcome)
	}
	if r.ErrorKind != models.ErrKindNone {
		fmt.Printf("  [%s] %s", r.ErrorKind, r.Message)
	}
	if r.PlatformID != "" {
		fmt.Printf("  %s", r.PlatformID)
	}
	fmt.Println()
}

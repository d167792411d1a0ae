package main

import (
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/cqeops/triage-cli/internal/model"
	"github.com/cqeops/triage-cli/internal/report"
	"github.com/cqeops/triage-cli/internal/store"
)

var bugsCmd = &cobra.Command{
	Use:   "bugs",
	Short: "Inspect and work tracked bugs",
	Long:  "Commands for listing tracked bugs and moving them through the review workflow.",
}

// -- bugs list --

var bugsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List tracked bugs",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		team, _ := cmd.Flags().GetString("team")
		status, _ := cmd.Flags().GetString("status")
		age, _ := cmd.Flags().GetString("age")
		limit, _ := cmd.Flags().GetInt("limit")

		bugs, err := st.ListBugs(ctx, store.BugFilter{
			Team:   model.Team(team),
			Status: model.BugStatus(status),
			Age:    model.BugAge(age),
			Limit:  limit,
		})
		if err != nil {
			return eris.Wrap(err, "bugs list")
		}

		if len(bugs) == 0 {
			fmt.Fprintln(os.Stderr, "No bugs found.")
			return nil
		}

		formatBugsList(os.Stdout, bugs)
		return nil
	},
}

func formatBugsList(w io.Writer, bugs []model.PersistedBug) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "TEAM\tPRI\tBUG ID\tFAILURE MODE\tSTATUS\tAGE\tTITLE")
	for _, b := range bugs {
		title := b.Title
		if len(title) > 48 {
			title = title[:48] + "..."
		}
		fmt.Fprintf(tw, "%s\t%d\t%s\t%s\t%s\t%s\t%s\n",
			b.Assignment, b.Priority, b.BugID, b.FailureMode,
			report.HumanLabel(string(b.Status)), report.HumanLabel(string(b.BugAge)), title,
		)
	}
	tw.Flush() //nolint:errcheck
}

// -- bugs show --

var bugsShowCmd = &cobra.Command{
	Use:   "show <bug-id>",
	Short: "Show one tracked bug",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		b, err := st.GetBug(ctx, args[0])
		if err != nil {
			return eris.Wrap(err, "bugs show")
		}

		tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintf(tw, "Bug ID:\t%s\n", b.BugID)
		fmt.Fprintf(tw, "Team:\t%s\n", b.Assignment)
		fmt.Fprintf(tw, "Priority:\t%d\n", b.Priority)
		fmt.Fprintf(tw, "Title:\t%s\n", b.Title)
		fmt.Fprintf(tw, "Failure Mode:\t%s\n", b.FailureMode)
		fmt.Fprintf(tw, "Status:\t%s\n", report.HumanLabel(string(b.Status)))
		fmt.Fprintf(tw, "Age:\t%s\n", report.HumanLabel(string(b.BugAge)))
		fmt.Fprintf(tw, "Comments:\t%d\n", b.CommentCount)
		fmt.Fprintf(tw, "SN:\t%s\n", b.SerialNumber)
		fmt.Fprintf(tw, "Product:\t%s\n", b.Product)
		fmt.Fprintf(tw, "Imported:\t%s\n", b.ImportDate)
		return eris.Wrap(tw.Flush(), "bugs show")
	},
}

// -- status transitions --

func statusCmd(use, short string, status model.BugStatus) *cobra.Command {
	return &cobra.Command{
		Use:   use + " <bug-id>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			st, err := initStore(ctx)
			if err != nil {
				return err
			}
			defer st.Close() //nolint:errcheck

			if err := st.UpdateBugStatus(ctx, args[0], status); err != nil {
				return eris.Wrapf(err, "bugs %s", use)
			}
			fmt.Printf("%s -> %s\n", args[0], status)
			return nil
		},
	}
}

func init() {
	bugsListCmd.Flags().String("team", "", "filter by team (GL, NT, PP)")
	bugsListCmd.Flags().String("status", "", "filter by status (active, in_progress, deprioritized, completed)")
	bugsListCmd.Flags().String("age", "", "filter by bug age (brand_new, existing_untouched, ...)")
	bugsListCmd.Flags().Int("limit", 0, "max rows (default 200)")

	bugsCmd.AddCommand(bugsListCmd)
	bugsCmd.AddCommand(bugsShowCmd)
	bugsCmd.AddCommand(statusCmd("start", "Move a bug to in progress", model.StatusInProgress))
	bugsCmd.AddCommand(statusCmd("complete", "Mark a bug completed", model.StatusCompleted))
	bugsCmd.AddCommand(statusCmd("deprioritize", "Deprioritize a bug", model.StatusDeprioritized))
	rootCmd.AddCommand(bugsCmd)
}

package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/TimurManjosov/leadgrade/internal/evaluation"
)

var scoreCmd = &cobra.Command{
	Use:   "score <lead-id>",
	Short: "Explain a lead's score",
	Long: `Show how each criterion and the email domain contributed to a lead's score.

Examples:
  leadgrade score ana
  leadgrade score ana --format json`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		printer, err := newPrinter(cmd)
		if err != nil {
			return err
		}

		var b evaluation.Breakdown
		if c := remoteClient(); c != nil {
			got, err := c.GetBreakdown(cmd.Context(), args[0])
			if err != nil {
				return fmt.Errorf("failed to get lead: %w", err)
			}
			b = *got
		} else {
			st, err := openStore(cmd.Context(), cmd)
			if err != nil {
				return err
			}
			defer st.Close()
			snap, err := st.Snapshot(cmd.Context())
			if err != nil {
				return err
			}
			if b, err = snap.Breakdown(args[0]); err != nil {
				return err
			}
		}

		if quiet {
			return nil
		}
		return printer.Breakdown(b)
	},
}

var qualifyCmd = &cobra.Command{
	Use:   "qualify <lead-id>",
	Short: "Mark a lead as manually qualified",
	Long: `Mark a lead as qualified regardless of its tier. The override is
permanent and repeating it has no further effect.

Examples:
  leadgrade qualify cy
  leadgrade qualify cy --server http://localhost:8080`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id := args[0]
		if c := remoteClient(); c != nil {
			l, err := c.Qualify(cmd.Context(), id)
			if err != nil {
				return fmt.Errorf("failed to qualify lead: %w", err)
			}
			say(cmd, "Lead %s qualified (tier %s)", l.ID, l.Tier)
			return nil
		}

		st, err := openStore(cmd.Context(), cmd)
		if err != nil {
			return err
		}
		defer st.Close()
		if err := st.MarkQualified(cmd.Context(), id); err != nil {
			return fmt.Errorf("failed to qualify lead: %w", err)
		}
		say(cmd, "Lead %s qualified", id)
		return nil
	},
}

var summaryCmd = &cobra.Command{
	Use:   "summary",
	Short: "Count leads by tier, qualification and segment",
	Long: `Summarize the evaluated population.

Examples:
  leadgrade summary
  leadgrade summary --format yaml`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		printer, err := newPrinter(cmd)
		if err != nil {
			return err
		}

		if c := remoteClient(); c != nil {
			counts, err := c.Summary(cmd.Context())
			if err != nil {
				return fmt.Errorf("failed to get summary: %w", err)
			}
			return printer.Counts(*counts)
		}

		st, err := openStore(cmd.Context(), cmd)
		if err != nil {
			return err
		}
		defer st.Close()
		snap, err := st.Snapshot(cmd.Context())
		if err != nil {
			return err
		}
		return printer.Counts(snap.Counts())
	},
}

func init() {
	rootCmd.AddCommand(scoreCmd)
	rootCmd.AddCommand(qualifyCmd)
	rootCmd.AddCommand(summaryCmd)
}

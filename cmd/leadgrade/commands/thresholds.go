package commands

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/TimurManjosov/leadgrade/internal/store"
	"github.com/TimurManjosov/leadgrade/internal/threshold"
	"github.com/TimurManjosov/leadgrade/internal/validation"
)

var thresholdsCmd = &cobra.Command{
	Use:   "thresholds",
	Short: "Show or edit tier thresholds",
	Long: `Show or edit the score thresholds that place leads in tiers.

Examples:
  leadgrade thresholds
  leadgrade thresholds set goodLead 75
  leadgrade thresholds set fairLeadMax 80 --policy clamp
  leadgrade thresholds tier excellent`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return showThresholds(cmd)
	},
}

var thresholdsShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show thresholds and the qualifying tier",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return showThresholds(cmd)
	},
}

var thresholdsSetCmd = &cobra.Command{
	Use:   "set <field> <value>",
	Short: "Edit one threshold",
	Long: `Edit one threshold. Fields: goodLead, fairLeadMin, fairLeadMax, poorLead.

Under the reject policy a value that breaks the ordering is refused. Under
the clamp policy it is pulled to the nearest valid value and the stored
value is reported.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireLocal(cmd); err != nil {
			return err
		}
		field, err := threshold.ParseField(args[0])
		if err != nil {
			return err
		}
		v, err := strconv.ParseFloat(args[1], 64)
		if err != nil {
			return fmt.Errorf("invalid threshold value %q", args[1])
		}

		st, err := openStore(cmd.Context(), cmd)
		if err != nil {
			return err
		}
		defer st.Close()
		stored, err := st.EditThreshold(cmd.Context(), field, v)
		if err != nil {
			if errors.Is(err, threshold.ErrThresholdOrder) {
				if verr := explainThreshold(cmd.Context(), st, field, v); verr != nil {
					return fmt.Errorf("failed to set %s: %w: %v", field, err, verr)
				}
			}
			return fmt.Errorf("failed to set %s: %w", field, err)
		}
		if stored != v {
			say(cmd, "%s clamped to %s", field, formatFloat(stored))
		} else {
			say(cmd, "%s set to %s", field, formatFloat(stored))
		}
		return nil
	},
}

var thresholdsTierCmd = &cobra.Command{
	Use:   "tier <tier>",
	Short: "Set the tier at which leads qualify",
	Long: `Set the minimum tier a lead needs to qualify automatically.
Poor is only available on the raw scale.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireLocal(cmd); err != nil {
			return err
		}
		tier, err := threshold.ParseTier(args[0])
		if err != nil {
			return err
		}

		st, err := openStore(cmd.Context(), cmd)
		if err != nil {
			return err
		}
		defer st.Close()
		if err := st.SetQualifyingTier(cmd.Context(), tier); err != nil {
			return fmt.Errorf("failed to set qualifying tier: %w", err)
		}
		say(cmd, "Leads qualify at tier %s", tier)
		return nil
	},
}

func showThresholds(cmd *cobra.Command) error {
	printer, err := newPrinter(cmd)
	if err != nil {
		return err
	}

	if c := remoteClient(); c != nil {
		cfg, err := c.Config(cmd.Context())
		if err != nil {
			return fmt.Errorf("failed to get thresholds: %w", err)
		}
		return printer.Thresholds(cfg.Thresholds, cfg.QualifyingTier)
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
	cfg := snap.Config()
	return printer.Thresholds(cfg.Thresholds, cfg.QualifyingTier)
}

// explainThreshold reports which fields the refused edit would have broken.
func explainThreshold(ctx context.Context, st store.Store, field threshold.Field, v float64) error {
	snap, err := st.Snapshot(ctx)
	if err != nil {
		return nil
	}
	return validationError(validation.ValidateThresholds(snap.Config().Thresholds.With(field, v)))
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func init() {
	rootCmd.AddCommand(thresholdsCmd)
	thresholdsCmd.AddCommand(thresholdsShowCmd)
	thresholdsCmd.AddCommand(thresholdsSetCmd)
	thresholdsCmd.AddCommand(thresholdsTierCmd)
}

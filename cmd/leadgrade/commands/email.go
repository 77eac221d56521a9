package commands

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/TimurManjosov/leadgrade/internal/emaildomain"
	"github.com/TimurManjosov/leadgrade/internal/validation"
)

var emailCmd = &cobra.Command{
	Use:   "email",
	Short: "Show or edit email domain tiers",
	Long: `Show or edit the tier given to each class of email domain.
Tiers are high (10 points), medium (5) and low (0).

Examples:
  leadgrade email
  leadgrade email set --personal low --abusive low`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return showEmail(cmd)
	},
}

var emailShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show email domain tiers",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return showEmail(cmd)
	},
}

var (
	emailCorporate string
	emailPersonal  string
	emailAbusive   string
)

var emailSetCmd = &cobra.Command{
	Use:   "set",
	Short: "Edit email domain tiers",
	Long: `Edit one or more email domain tiers. Unset flags keep their value.`,
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireLocal(cmd); err != nil {
			return err
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

		cfg := snap.Config().Email
		if emailCorporate != "" {
			cfg.Corporate = emaildomain.Tier(strings.ToLower(emailCorporate))
		}
		if emailPersonal != "" {
			cfg.Personal = emaildomain.Tier(strings.ToLower(emailPersonal))
		}
		if emailAbusive != "" {
			cfg.Abusive = emaildomain.Tier(strings.ToLower(emailAbusive))
		}
		if err := validationError(validation.ValidateEmailConfig(cfg)); err != nil {
			return err
		}

		if err := st.SetEmailConfig(cmd.Context(), cfg); err != nil {
			return fmt.Errorf("failed to set email tiers: %w", err)
		}
		say(cmd, "Email tiers: corporate %s, personal %s, abusive %s", cfg.Corporate, cfg.Personal, cfg.Abusive)
		return nil
	},
}

func showEmail(cmd *cobra.Command) error {
	printer, err := newPrinter(cmd)
	if err != nil {
		return err
	}

	if c := remoteClient(); c != nil {
		cfg, err := c.Config(cmd.Context())
		if err != nil {
			return fmt.Errorf("failed to get email tiers: %w", err)
		}
		return printer.Value(cfg.Email)
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
	return printer.Value(snap.Config().Email)
}

func init() {
	rootCmd.AddCommand(emailCmd)
	emailCmd.AddCommand(emailShowCmd)
	emailCmd.AddCommand(emailSetCmd)

	emailSetCmd.Flags().StringVar(&emailCorporate, "corporate", "", "Tier for corporate domains (high, medium, low)")
	emailSetCmd.Flags().StringVar(&emailPersonal, "personal", "", "Tier for free email providers")
	emailSetCmd.Flags().StringVar(&emailAbusive, "abusive", "", "Tier for disposable or invalid addresses")
}

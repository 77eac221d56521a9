package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/TimurManjosov/leadgrade/internal/rules"
	"github.com/TimurManjosov/leadgrade/internal/validation"
	"github.com/TimurManjosov/leadgrade/internal/workspace"
)

var catalogCmd = &cobra.Command{
	Use:   "catalog",
	Short: "List the criteria rules can reference",
	Long: `List the criteria rules can reference, with their value kind and options.

Examples:
  leadgrade catalog
  leadgrade catalog --format json`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		printer, err := newPrinter(cmd)
		if err != nil {
			return err
		}

		var criteria []rules.Criterion
		if c := remoteClient(); c != nil {
			if criteria, err = c.Catalog(cmd.Context()); err != nil {
				return fmt.Errorf("failed to get catalog: %w", err)
			}
		} else {
			st, err := openStore(cmd.Context(), cmd)
			if err != nil {
				return err
			}
			defer st.Close()
			if criteria, err = st.Catalog(cmd.Context()); err != nil {
				return err
			}
		}
		return printer.Criteria(criteria)
	},
}

var validateCmd = &cobra.Command{
	Use:   "validate <file>",
	Short: "Check a workspace file without loading it",
	Long: `Parse and validate a workspace file. Nothing is written.

Examples:
  leadgrade validate leadgrade.yaml
  leadgrade validate exported.yaml --scale raw`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return fmt.Errorf("configuration error: %w", err)
		}
		logger, err := newLogger(cmd, cfg)
		if err != nil {
			return err
		}

		data, err := os.ReadFile(args[0])
		if err != nil {
			return fmt.Errorf("failed to read %s: %w", args[0], err)
		}
		ws, err := workspace.Decode(data, cfg.Scale(), logger)
		if err != nil {
			return fmt.Errorf("%s: %w", args[0], err)
		}
		if err := validateWorkspace(ws); err != nil {
			return fmt.Errorf("%s: %w", args[0], err)
		}
		say(cmd, "%s is valid: %d criteria, %d segments, %d leads",
			args[0], ws.Config.RuleSet.Len(), len(ws.Segments), len(ws.Leads))
		return nil
	},
}

var exportOutput string

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Write the workspace as YAML",
	Long: `Write the current workspace document to stdout or a file.

Examples:
  leadgrade export
  leadgrade export --output backup.yaml`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireLocal(cmd); err != nil {
			return err
		}
		st, err := openStore(cmd.Context(), cmd)
		if err != nil {
			return err
		}
		defer st.Close()

		ws, err := st.Workspace()
		if err != nil {
			return err
		}
		data, err := workspace.Encode(ws)
		if err != nil {
			return err
		}
		if err := writeOutput(cmd, exportOutput, data); err != nil {
			return err
		}
		if exportOutput != "" && exportOutput != "-" {
			say(cmd, "Exported workspace to %s", exportOutput)
		}
		return nil
	},
}

var importCmd = &cobra.Command{
	Use:   "import <file>",
	Short: "Import leads from a workspace file",
	Long: `Validate a workspace file (YAML or JSON) and add its leads to the
current workspace. Leads with an existing id are replaced. The file's
rules, thresholds and segments are not imported.

Examples:
  leadgrade import leads.yaml`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireLocal(cmd); err != nil {
			return err
		}
		st, err := openStore(cmd.Context(), cmd)
		if err != nil {
			return err
		}
		defer st.Close()

		data, err := os.ReadFile(args[0])
		if err != nil {
			return fmt.Errorf("failed to read %s: %w", args[0], err)
		}
		cfg, err := loadConfig()
		if err != nil {
			return fmt.Errorf("configuration error: %w", err)
		}
		logger, err := newLogger(cmd, cfg)
		if err != nil {
			return err
		}
		src, err := workspace.Decode(data, cfg.Scale(), logger)
		if err != nil {
			return fmt.Errorf("%s: %w", args[0], err)
		}
		if err := validateWorkspace(src); err != nil {
			return fmt.Errorf("%s: %w", args[0], err)
		}

		for _, l := range src.Leads {
			if _, err := st.UpsertLead(cmd.Context(), l); err != nil {
				return fmt.Errorf("failed to import lead %s: %w", l.ID, err)
			}
		}
		say(cmd, "Imported %d leads from %s", len(src.Leads), args[0])
		return nil
	},
}

// validateWorkspace runs the field validators over a decoded document.
func validateWorkspace(ws *workspace.Workspace) error {
	result := validation.ValidateRuleSet(ws.Config.RuleSet)
	result.Merge(validation.ValidateThresholds(ws.Config.Thresholds))
	result.Merge(validation.ValidateEmailConfig(ws.Config.Email))
	return validationError(result)
}

func init() {
	rootCmd.AddCommand(catalogCmd)
	rootCmd.AddCommand(validateCmd)
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(importCmd)

	exportCmd.Flags().StringVarP(&exportOutput, "output", "o", "", "Output file (default stdout)")
}

package commands

import (
	"context"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/TimurManjosov/leadgrade/internal/cli"
	"github.com/TimurManjosov/leadgrade/internal/client"
	"github.com/TimurManjosov/leadgrade/internal/config"
	"github.com/TimurManjosov/leadgrade/internal/logging"
	"github.com/TimurManjosov/leadgrade/internal/store"
	"github.com/TimurManjosov/leadgrade/internal/validation"
)

var (
	// Global flags
	workspacePath string
	scale         string
	editPolicy    string
	serverURL     string
	format        string
	quiet         bool
	verbose       bool
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "leadgrade",
	Short: "Score, tier and segment sales leads",
	Long: `Leadgrade scores leads against a weighted rule set, places them in
tiers, and slices them into saved segments.

The session lives in a workspace YAML file (WORKSPACE_PATH, default
leadgrade.yaml). Every edit is validated and written back atomically.
With --server, read-only commands and qualify talk to a running
leadgrade server instead.

Examples:
  leadgrade leads --tier excellent
  leadgrade score ana
  leadgrade rules add region --value Europe --weight 8
  leadgrade thresholds set goodLead 75
  leadgrade segments create "EU customers" --filter region=Europe
  leadgrade leads --server http://localhost:8080 --format json`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command. Cancelling ctx aborts pending edits and
// remote calls.
func Execute(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}

func init() {
	// Global flags available to all commands
	rootCmd.PersistentFlags().StringVar(&workspacePath, "workspace", "", "Workspace file (overrides WORKSPACE_PATH)")
	rootCmd.PersistentFlags().StringVar(&scale, "scale", "", "Score scale: percent or raw (overrides SCORE_SCALE)")
	rootCmd.PersistentFlags().StringVar(&editPolicy, "policy", "", "Threshold edit policy: reject or clamp (overrides THRESHOLD_EDIT_POLICY)")
	rootCmd.PersistentFlags().StringVar(&serverURL, "server", "", "Base URL of a leadgrade server")
	rootCmd.PersistentFlags().StringVar(&format, "format", "table", "Output format (table, json, yaml)")
	rootCmd.PersistentFlags().BoolVar(&quiet, "quiet", false, "Suppress output")
	rootCmd.PersistentFlags().BoolVar(&verbose, "verbose", false, "Verbose output")
}

// loadConfig reads the environment and applies command-line overrides.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	cfg.StoreType = "file"
	cfg.LogFormat = "console"
	if workspacePath != "" {
		cfg.WorkspacePath = workspacePath
	}
	if scale != "" {
		cfg.ScoreScale = scale
	}
	if editPolicy != "" {
		cfg.ThresholdEditPolicy = editPolicy
	}
	switch {
	case verbose:
		cfg.LogLevel = "debug"
	case quiet:
		cfg.LogLevel = "error"
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func newLogger(cmd *cobra.Command, cfg *config.Config) (zerolog.Logger, error) {
	return logging.New(cfg.LogLevel, cfg.LogFormat, cmd.ErrOrStderr())
}

// openStore opens the workspace file named by the configuration.
func openStore(ctx context.Context, cmd *cobra.Command) (*store.FileStore, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, fmt.Errorf("configuration error: %w", err)
	}
	logger, err := newLogger(cmd, cfg)
	if err != nil {
		return nil, err
	}
	st, err := store.NewStore(ctx, store.Options{
		Type:           cfg.StoreType,
		Path:           cfg.WorkspacePath,
		Scale:          cfg.Scale(),
		Policy:         cfg.EditPolicy(),
		QualifyingTier: cfg.Tier(),
		Logger:         logger,
	})
	if err != nil {
		return nil, err
	}
	return st.(*store.FileStore), nil
}

// remoteClient returns a client when --server is set.
func remoteClient() *client.Client {
	if serverURL == "" {
		return nil
	}
	return client.NewClient(strings.TrimRight(serverURL, "/"))
}

// requireLocal rejects --server for commands that edit configuration.
func requireLocal(cmd *cobra.Command) error {
	if serverURL != "" {
		return fmt.Errorf("%s edits the workspace and cannot run against --server", cmd.CommandPath())
	}
	return nil
}

func newPrinter(cmd *cobra.Command) (cli.Printer, error) {
	f, err := cli.ParseFormat(format)
	if err != nil {
		return cli.Printer{}, err
	}
	return cli.Printer{W: cmd.OutOrStdout(), Format: f}, nil
}

// say prints a status line unless --quiet is set.
func say(cmd *cobra.Command, msg string, args ...any) {
	if !quiet {
		fmt.Fprintf(cmd.OutOrStdout(), msg+"\n", args...)
	}
}

// validationError flattens field errors into one error, sorted by field.
func validationError(v *validation.ValidationResult) error {
	if v.Valid {
		return nil
	}
	fields := make([]string, 0, len(v.Errors))
	for f := range v.Errors {
		fields = append(fields, f)
	}
	sort.Strings(fields)
	parts := make([]string, len(fields))
	for i, f := range fields {
		parts[i] = f + ": " + v.Errors[f]
	}
	return fmt.Errorf("validation failed: %s", strings.Join(parts, "; "))
}

// writeOutput writes data to path, or to stdout when path is empty or "-".
func writeOutput(cmd *cobra.Command, path string, data []byte) error {
	if path == "" || path == "-" {
		_, err := cmd.OutOrStdout().Write(data)
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}

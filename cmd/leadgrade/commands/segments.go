package commands

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/TimurManjosov/leadgrade/internal/validation"
)

var segmentsCmd = &cobra.Command{
	Use:   "segments",
	Short: "Manage saved segments",
	Long: `List, create and delete saved segments, and choose the active one.

The built-in segments "qualified" and "unqualified" always exist.`,
}

var segmentsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List segments with their lead counts",
	Long: `List segments with their lead counts.

Examples:
  leadgrade segments list
  leadgrade segments list --server http://localhost:8080`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		printer, err := newPrinter(cmd)
		if err != nil {
			return err
		}

		if c := remoteClient(); c != nil {
			resp, err := c.ListSegments(cmd.Context())
			if err != nil {
				return fmt.Errorf("failed to list segments: %w", err)
			}
			return printer.Segments(resp.Segments, resp.Active, resp.Counts)
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
		counts := snap.Counts()
		return printer.Segments(snap.Segments, snap.ActiveSegment, counts.BySegment)
	},
}

var (
	segmentFilters []string
	segmentColor   string
)

var segmentsCreateCmd = &cobra.Command{
	Use:   "create <name>",
	Short: "Save a segment",
	Long: `Save a segment that matches leads whose fields equal every filter.
Filter values true/false become booleans and numeric values become numbers.

Examples:
  leadgrade segments create "EU customers" --filter region=Europe --filter type=customer
  leadgrade segments create "Big accounts" --filter employees=250 --color #1565c0`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireLocal(cmd); err != nil {
			return err
		}
		filters, err := parseFilters(segmentFilters)
		if err != nil {
			return err
		}
		if err := validationError(validation.ValidateSegment(validation.SegmentValidationParams{
			Name:    args[0],
			Color:   segmentColor,
			Filters: filters,
		})); err != nil {
			return err
		}

		st, err := openStore(cmd.Context(), cmd)
		if err != nil {
			return err
		}
		defer st.Close()
		s, err := st.CreateSegment(cmd.Context(), args[0], filters, segmentColor)
		if err != nil {
			return fmt.Errorf("failed to create segment: %w", err)
		}
		say(cmd, "Created segment %s (%s)", s.ID, s.Name)
		return nil
	},
}

var segmentsDeleteCmd = &cobra.Command{
	Use:   "delete <segment-id>",
	Short: "Delete a segment",
	Long: `Delete a saved segment. Deleting the active segment clears the selection.

Examples:
  leadgrade segments delete 3f1c9d2e-8a4b-4c1d-9e2f-5a6b7c8d9e0f`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireLocal(cmd); err != nil {
			return err
		}
		if err := validationError(validation.ValidateSegmentDeletion(args[0])); err != nil {
			return err
		}

		st, err := openStore(cmd.Context(), cmd)
		if err != nil {
			return err
		}
		defer st.Close()
		if err := st.DeleteSegment(cmd.Context(), args[0]); err != nil {
			return fmt.Errorf("failed to delete segment: %w", err)
		}
		say(cmd, "Deleted segment %s", args[0])
		return nil
	},
}

var segmentsClear bool

var segmentsUseCmd = &cobra.Command{
	Use:   "use [segment-id]",
	Short: "Select the active segment",
	Long: `Select the segment that scopes lead listings by default.

Examples:
  leadgrade segments use qualified
  leadgrade segments use --clear`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireLocal(cmd); err != nil {
			return err
		}
		var id string
		switch {
		case segmentsClear && len(args) > 0:
			return fmt.Errorf("pass a segment id or --clear, not both")
		case segmentsClear:
		case len(args) == 1:
			id = args[0]
		default:
			return fmt.Errorf("a segment id or --clear is required")
		}

		st, err := openStore(cmd.Context(), cmd)
		if err != nil {
			return err
		}
		defer st.Close()
		if err := st.SetActiveSegment(cmd.Context(), id); err != nil {
			return fmt.Errorf("failed to select segment: %w", err)
		}
		if id == "" {
			say(cmd, "Active segment cleared")
		} else {
			say(cmd, "Active segment: %s", id)
		}
		return nil
	},
}

// parseFilters turns key=value pairs into segment filters.
func parseFilters(pairs []string) (map[string]any, error) {
	if len(pairs) == 0 {
		return nil, nil
	}
	filters := make(map[string]any, len(pairs))
	for _, p := range pairs {
		key, value, ok := strings.Cut(p, "=")
		if !ok || strings.TrimSpace(key) == "" {
			return nil, fmt.Errorf("invalid filter %q, expected key=value", p)
		}
		filters[strings.TrimSpace(key)] = parseScalar(value)
	}
	return filters, nil
}

func init() {
	rootCmd.AddCommand(segmentsCmd)
	segmentsCmd.AddCommand(segmentsListCmd)
	segmentsCmd.AddCommand(segmentsCreateCmd)
	segmentsCmd.AddCommand(segmentsDeleteCmd)
	segmentsCmd.AddCommand(segmentsUseCmd)

	segmentsCreateCmd.Flags().StringArrayVar(&segmentFilters, "filter", nil, "Filter key=value (repeatable)")
	segmentsCreateCmd.Flags().StringVar(&segmentColor, "color", "", "Display color, e.g. #1565c0")
	segmentsUseCmd.Flags().BoolVar(&segmentsClear, "clear", false, "Clear the active segment")
}

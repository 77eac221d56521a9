package commands

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/TimurManjosov/leadgrade/internal/cli"
	"github.com/TimurManjosov/leadgrade/internal/lead"
	"github.com/TimurManjosov/leadgrade/internal/query"
	"github.com/TimurManjosov/leadgrade/internal/validation"
)

var (
	leadsSegment   string
	leadsSearch    string
	leadsType      string
	leadsTier      string
	leadsQualified string
	leadsSort      string
	leadsDir       string
)

var leadsCmd = &cobra.Command{
	Use:   "leads",
	Short: "List evaluated leads",
	Long: `List leads with their score, tier and qualification.

Without --segment the active segment applies; --segment all ignores it.

Examples:
  leadgrade leads
  leadgrade leads --tier excellent --sort email --dir asc
  leadgrade leads --qualified unqualified --search acme
  leadgrade leads --segment all --format json`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		opts := query.Options{
			SegmentID:     leadsSegment,
			Search:        leadsSearch,
			Type:          leadsType,
			Tier:          leadsTier,
			Qualified:     leadsQualified,
			SortField:     leadsSort,
			SortDirection: query.Direction(leadsDir),
		}
		printer, err := newPrinter(cmd)
		if err != nil {
			return err
		}

		var leads []lead.Lead
		if c := remoteClient(); c != nil {
			resp, err := c.ListLeads(cmd.Context(), opts, "")
			if err != nil {
				return fmt.Errorf("failed to list leads: %w", err)
			}
			leads = resp.Leads
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
			if leads, err = snap.Query(opts); err != nil {
				return fmt.Errorf("failed to list leads: %w", err)
			}
		}

		if quiet {
			return nil
		}
		if len(leads) == 0 && printer.Format == cli.FormatTable {
			fmt.Fprintln(cmd.OutOrStdout(), "No leads found")
			return nil
		}
		return printer.Leads(leads)
	},
}

var (
	addLead       lead.Lead
	addEmployees  string
	addFounded    string
	addRevenue    string
	addAttributes map[string]string
)

var leadsAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Add or replace a lead",
	Long: `Add a lead to the workspace, or replace the lead with the same --id.
A blank id is generated.

Examples:
  leadgrade leads add --email ana@bigco.com --region Europe --industry Software
  leadgrade leads add --id ana --email ana@bigco.com --employees 250 --attr source=webinar`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireLocal(cmd); err != nil {
			return err
		}
		l := addLead
		if l.Email == "" {
			return fmt.Errorf("--email is required")
		}
		if l.ID != "" {
			if err := validationError(validation.ValidateID(l.ID)); err != nil {
				return err
			}
		}

		var err error
		if l.Employees, err = parseOptionalInt("employees", addEmployees); err != nil {
			return err
		}
		if l.FoundedYear, err = parseOptionalInt("founded-year", addFounded); err != nil {
			return err
		}
		if addRevenue != "" {
			if l.AnnualRevenue, err = strconv.ParseFloat(addRevenue, 64); err != nil {
				return fmt.Errorf("invalid --revenue %q", addRevenue)
			}
		}
		if len(addAttributes) > 0 {
			l.Attributes = make(map[string]any, len(addAttributes))
			for k, v := range addAttributes {
				l.Attributes[k] = parseScalar(v)
			}
		}

		st, err := openStore(cmd.Context(), cmd)
		if err != nil {
			return err
		}
		defer st.Close()

		saved, err := st.UpsertLead(cmd.Context(), l)
		if err != nil {
			return fmt.Errorf("failed to save lead: %w", err)
		}
		snap, err := st.Snapshot(cmd.Context())
		if err != nil {
			return err
		}
		evaluated, err := snap.Lead(saved.ID)
		if err != nil {
			return err
		}
		say(cmd, "Saved lead %s: score %s, tier %s", evaluated.ID, formatFloat(evaluated.Score), evaluated.Tier)
		return nil
	},
}

func parseOptionalInt(name, s string) (int, error) {
	if s == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("invalid --%s %q", name, s)
	}
	return n, nil
}

// parseScalar turns a flag value into a bool, a number or a string.
func parseScalar(s string) any {
	if b, err := strconv.ParseBool(s); err == nil {
		return b
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return f
	}
	return s
}

func init() {
	rootCmd.AddCommand(leadsCmd)
	leadsCmd.AddCommand(leadsAddCmd)

	leadsCmd.Flags().StringVar(&leadsSegment, "segment", "", "Segment id, or 'all' to ignore the active segment")
	leadsCmd.Flags().StringVar(&leadsSearch, "search", "", "Case-insensitive text search over email, region, industry and title")
	leadsCmd.Flags().StringVar(&leadsType, "type", "", "Lead type filter")
	leadsCmd.Flags().StringVar(&leadsTier, "tier", "", "Tier filter (excellent, good, fair, poor)")
	leadsCmd.Flags().StringVar(&leadsQualified, "qualified", "", "Qualification filter (all, qualified, unqualified)")
	leadsCmd.Flags().StringVar(&leadsSort, "sort", "", "Sort field (default score)")
	leadsCmd.Flags().StringVar(&leadsDir, "dir", "", "Sort direction: asc or desc (default desc)")

	f := leadsAddCmd.Flags()
	f.StringVar(&addLead.ID, "id", "", "Lead id")
	f.StringVar(&addLead.Email, "email", "", "Email address (required)")
	f.StringVar(&addLead.Type, "type", "", "Lead type")
	f.StringVar(&addLead.Region, "region", "", "Region")
	f.StringVar(&addLead.Country, "country", "", "Country code")
	f.StringVar(&addLead.Industry, "industry", "", "Industry")
	f.StringVar(&addLead.Title, "title", "", "Job title")
	f.StringVar(&addLead.Role, "role", "", "Role")
	f.StringVar(&addLead.CompanySize, "company-size", "", "Company size band, e.g. 51-200")
	f.StringVar(&addEmployees, "employees", "", "Number of employees")
	f.StringVar(&addFounded, "founded-year", "", "Year the company was founded")
	f.StringVar(&addRevenue, "revenue", "", "Annual revenue")
	f.StringToStringVar(&addAttributes, "attr", nil, "Custom attribute key=value (repeatable)")
}

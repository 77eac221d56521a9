package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/olekukonko/tablewriter"
	"gopkg.in/yaml.v3"

	"github.com/TimurManjosov/leadgrade/internal/emaildomain"
	"github.com/TimurManjosov/leadgrade/internal/evaluation"
	"github.com/TimurManjosov/leadgrade/internal/lead"
	"github.com/TimurManjosov/leadgrade/internal/rules"
	"github.com/TimurManjosov/leadgrade/internal/segment"
	"github.com/TimurManjosov/leadgrade/internal/snapshot"
	"github.com/TimurManjosov/leadgrade/internal/threshold"
	"github.com/TimurManjosov/leadgrade/internal/workspace"
)

// OutputFormat specifies the output format for CLI commands
type OutputFormat string

const (
	FormatTable OutputFormat = "table"
	FormatJSON  OutputFormat = "json"
	FormatYAML  OutputFormat = "yaml"
)

// ParseFormat validates a --format value.
func ParseFormat(s string) (OutputFormat, error) {
	switch f := OutputFormat(strings.ToLower(s)); f {
	case FormatTable, FormatJSON, FormatYAML:
		return f, nil
	}
	return "", fmt.Errorf("unsupported format: %s", s)
}

// Printer renders values to W in one format.
type Printer struct {
	W      io.Writer
	Format OutputFormat
}

// Leads outputs evaluated leads.
func (p Printer) Leads(leads []lead.Lead) error {
	return p.print(map[string][]lead.Lead{"leads": leads}, func() error {
		table := tablewriter.NewWriter(p.W)
		table.Header("ID", "Email", "Region", "Industry", "Score", "Tier", "Qualified")
		for _, l := range leads {
			qualified := yesNo(l.Qualified)
			if l.ManuallyQualified {
				qualified += " (manual)"
			}
			table.Append(
				truncate(l.ID, 12),
				l.Email,
				l.Region,
				l.Industry,
				formatScore(l.Score),
				l.Tier.Label(),
				qualified,
			)
		}
		return table.Render()
	})
}

// Breakdown outputs the per-criterion explanation of one lead's score.
func (p Printer) Breakdown(b evaluation.Breakdown) error {
	return p.print(b, func() error {
		fmt.Fprintf(p.W, "%s  %s\nscore %s (%s), %s\n\n",
			b.Lead.ID, b.Lead.Email, formatScore(b.Lead.Score), b.Lead.Tier.Label(), qualifiedText(b.Lead))

		table := tablewriter.NewWriter(p.W)
		table.Header("Criterion", "Matched", "Condition", "Points", "Max")
		table.Append(
			"Email domain ("+string(b.Result.Email.Class)+")",
			yesNo(b.Result.Email.Points > 0),
			string(b.Result.Email.Tier),
			strconv.Itoa(b.Result.Email.Points),
			strconv.Itoa(emaildomain.MaxPoints),
		)
		for _, c := range b.Result.Contributions {
			table.Append(
				c.Label,
				yesNo(c.Matched),
				truncate(c.ConditionID, 12),
				strconv.Itoa(c.Weight),
				strconv.Itoa(c.MaxWeight),
			)
		}
		if err := table.Render(); err != nil {
			return err
		}
		fmt.Fprintf(p.W, "total %d of %d\n", b.Result.Total, b.Result.MaxTotal)
		for _, s := range b.Result.Skipped {
			fmt.Fprintf(p.W, "skipped %s/%s: %s\n", s.CriterionID, s.ConditionID, s.Reason)
		}
		return nil
	})
}

// Segments outputs saved segments. The active one is marked with *.
func (p Printer) Segments(segs []segment.Segment, active string, counts map[string]int) error {
	return p.print(map[string]any{"segments": segs, "active": active, "counts": counts}, func() error {
		table := tablewriter.NewWriter(p.W)
		table.Header("", "ID", "Name", "Filters", "Color", "Leads")
		for _, s := range segs {
			marker := ""
			if s.ID == active {
				marker = "*"
			}
			table.Append(marker, truncate(s.ID, 12), s.Name, formatFilters(s.Filters), s.Color, strconv.Itoa(counts[s.ID]))
		}
		return table.Render()
	})
}

// Criteria outputs the catalog.
func (p Printer) Criteria(criteria []rules.Criterion) error {
	return p.print(map[string][]rules.Criterion{"criteria": criteria}, func() error {
		table := tablewriter.NewWriter(p.W)
		table.Header("ID", "Label", "Kind", "Options")
		for _, c := range criteria {
			table.Append(c.ID, c.Label, string(c.Kind), truncate(strings.Join(c.Options, ", "), 60))
		}
		return table.Render()
	})
}

// Rules outputs the rule set, one row per condition.
func (p Printer) Rules(rs rules.RuleSet) error {
	return p.print(map[string][]workspace.RuleDoc{"rules": workspace.EncodeRules(rs)}, func() error {
		table := tablewriter.NewWriter(p.W)
		table.Header("Criterion", "Condition", "Join", "Value", "Weight")
		for _, cr := range rs.Criteria {
			for _, c := range cr.Conditions {
				table.Append(
					cr.Criterion.ID,
					truncate(c.ID, 12),
					string(c.Combinator),
					formatValue(c.Value),
					strconv.Itoa(c.Weight),
				)
			}
		}
		return table.Render()
	})
}

// Thresholds outputs the tier thresholds and the qualifying tier.
func (p Printer) Thresholds(t threshold.Thresholds, qualifying threshold.Tier) error {
	return p.print(map[string]any{"thresholds": t, "qualifyingTier": qualifying}, func() error {
		table := tablewriter.NewWriter(p.W)
		table.Header("Field", "Value")
		table.Append("scale", string(t.Scale))
		table.Append("goodLead", formatScore(t.GoodLead))
		if t.Scale == threshold.ScaleRaw {
			table.Append("fairLeadMin", formatScore(t.FairLeadMin))
		}
		table.Append("fairLeadMax", formatScore(t.FairLeadMax))
		if t.Scale == threshold.ScaleRaw {
			table.Append("poorLead", formatScore(t.PoorLead))
		}
		table.Append("qualifyingTier", qualifying.Label())
		return table.Render()
	})
}

// Counts outputs a population summary.
func (p Printer) Counts(c snapshot.Counts) error {
	return p.print(c, func() error {
		table := tablewriter.NewWriter(p.W)
		table.Header("Bucket", "Leads")
		table.Append("total", strconv.Itoa(c.Total))
		table.Append("qualified", strconv.Itoa(c.Qualified))
		table.Append("unqualified", strconv.Itoa(c.Unqualified))
		tiers := make([]string, 0, len(c.ByTier))
		for t := range c.ByTier {
			tiers = append(tiers, t)
		}
		sort.Slice(tiers, func(i, j int) bool {
			return threshold.Rank(threshold.Tier(tiers[i])) > threshold.Rank(threshold.Tier(tiers[j]))
		})
		for _, t := range tiers {
			table.Append("tier "+t, strconv.Itoa(c.ByTier[t]))
		}
		return table.Render()
	})
}

// Value outputs any value; table format falls back to YAML.
func (p Printer) Value(v any) error {
	return p.print(v, func() error { return printYAML(p.W, v) })
}

func (p Printer) print(data any, table func() error) error {
	switch p.Format {
	case FormatJSON:
		return printJSON(p.W, data)
	case FormatYAML:
		return printYAML(p.W, data)
	case FormatTable, "":
		return table()
	default:
		return fmt.Errorf("unsupported format: %s", p.Format)
	}
}

func printJSON(w io.Writer, data any) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(data)
}

// printYAML goes through JSON first so derived lead fields, which the
// workspace file omits, still appear in command output.
func printYAML(w io.Writer, data any) error {
	raw, err := json.Marshal(data)
	if err != nil {
		return err
	}
	var generic any
	if err := json.Unmarshal(raw, &generic); err != nil {
		return err
	}
	encoder := yaml.NewEncoder(w)
	defer encoder.Close()
	encoder.SetIndent(2)
	return encoder.Encode(generic)
}

func formatValue(v rules.Value) string {
	switch val := v.(type) {
	case rules.ChoiceValue:
		return string(val)
	case rules.TextValue:
		return strconv.Quote(string(val))
	case rules.MultiChoiceValue:
		return truncate(strings.Join(val, " | "), 40)
	case rules.RangeValue:
		switch val.Op {
		case rules.RangeGreaterThan:
			return "> " + formatScore(val.Min)
		case rules.RangeLessThan:
			return "< " + formatScore(val.Max)
		default:
			return formatScore(val.Min) + " .. " + formatScore(val.Max)
		}
	}
	return ""
}

func formatFilters(filters map[string]any) string {
	if len(filters) == 0 {
		return "(all leads)"
	}
	keys := make([]string, 0, len(filters))
	for k := range filters {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = fmt.Sprintf("%s=%v", k, filters[k])
	}
	return truncate(strings.Join(parts, ", "), 40)
}

func formatScore(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func qualifiedText(l lead.Lead) string {
	switch {
	case l.ManuallyQualified:
		return "qualified (manual)"
	case l.Qualified:
		return "qualified"
	default:
		return "not qualified"
	}
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

func truncate(s string, n int) string {
	if len(s) > n {
		return s[:n-3] + "..."
	}
	return s
}

package commands

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/TimurManjosov/leadgrade/internal/rules"
	"github.com/TimurManjosov/leadgrade/internal/store"
	"github.com/TimurManjosov/leadgrade/internal/validation"
)

var rulesCmd = &cobra.Command{
	Use:   "rules",
	Short: "Manage the scoring rule set",
	Long: `List, add and remove weighted conditions on catalog criteria.`,
}

var rulesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List criteria and their conditions",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		printer, err := newPrinter(cmd)
		if err != nil {
			return err
		}

		if c := remoteClient(); c != nil {
			cfg, err := c.Config(cmd.Context())
			if err != nil {
				return fmt.Errorf("failed to get rules: %w", err)
			}
			return printer.Value(cfg.Rules)
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
		return printer.Rules(snap.Config().RuleSet)
	},
}

var (
	ruleValue      string
	ruleWeight     int
	ruleCombinator string
	ruleID         string
)

var rulesAddCmd = &cobra.Command{
	Use:   "add <criterion>",
	Short: "Add a condition to a criterion",
	Long: `Add a weighted condition to a catalog criterion. The criterion joins the
rule set with its first condition.

Value syntax depends on the criterion kind:
  choice, text   a single value            --value Europe
  multi_choice   comma-separated options   --value Software,Finance
  range          min..max, >n or <n        --value 50..500

Examples:
  leadgrade rules add region --value Europe --weight 8
  leadgrade rules add region --value "North America" --weight 6 --combinator or
  leadgrade rules add employees --value ">100" --weight 5`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireLocal(cmd); err != nil {
			return err
		}
		if ruleValue == "" {
			return fmt.Errorf("--value is required")
		}

		st, err := openStore(cmd.Context(), cmd)
		if err != nil {
			return err
		}
		defer st.Close()

		criteria, err := st.Catalog(cmd.Context())
		if err != nil {
			return err
		}
		var crit *rules.Criterion
		for i := range criteria {
			if criteria[i].ID == args[0] {
				crit = &criteria[i]
				break
			}
		}
		if crit == nil {
			return fmt.Errorf("%w: %q (see 'leadgrade catalog')", rules.ErrUnknownCriterion, args[0])
		}

		value, err := parseConditionValue(crit.Kind, ruleValue)
		if err != nil {
			return err
		}
		cond := rules.Condition{
			ID:         ruleID,
			Value:      value,
			Weight:     ruleWeight,
			Combinator: rules.Combinator(strings.ToLower(ruleCombinator)),
		}
		added, err := st.AddCondition(cmd.Context(), crit.ID, cond)
		if err != nil {
			if verr := explainCondition(cmd.Context(), st, *crit, cond); verr != nil {
				return fmt.Errorf("failed to add condition: %w: %v", err, verr)
			}
			return fmt.Errorf("failed to add condition: %w", err)
		}
		say(cmd, "Added condition %s to %s", added.ID, crit.ID)
		return nil
	},
}

var rulesRemoveCmd = &cobra.Command{
	Use:   "remove <criterion> <condition-id>",
	Short: "Remove a condition",
	Long: `Remove a condition. A criterion left without conditions leaves the rule set.

Examples:
  leadgrade rules remove region eu`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireLocal(cmd); err != nil {
			return err
		}
		st, err := openStore(cmd.Context(), cmd)
		if err != nil {
			return err
		}
		defer st.Close()

		removedCriterion, err := st.RemoveCondition(cmd.Context(), args[0], args[1])
		if err != nil {
			return fmt.Errorf("failed to remove condition: %w", err)
		}
		if removedCriterion {
			say(cmd, "Removed condition %s and criterion %s", args[1], args[0])
		} else {
			say(cmd, "Removed condition %s from %s", args[1], args[0])
		}
		return nil
	},
}

// explainCondition validates the rule set the refused condition would have
// produced and reports the offending criterion.
func explainCondition(ctx context.Context, st store.Store, crit rules.Criterion, cond rules.Condition) error {
	snap, err := st.Snapshot(ctx)
	if err != nil {
		return nil
	}
	if cond.ID == "" {
		cond.ID = "new"
	}
	proposed := snap.Config().RuleSet.Clone()
	if cr, ok := proposed.Criterion(crit.ID); ok {
		if cond.Combinator == rules.CombinatorNone {
			cond.Combinator = rules.CombinatorOr
		}
		cr.Conditions = append(cr.Conditions, cond)
	} else {
		cond.Combinator = rules.CombinatorNone
		proposed.Criteria = append(proposed.Criteria, rules.CriterionRule{Criterion: crit, Conditions: []rules.Condition{cond}})
	}
	return validationError(validation.ValidateRuleSet(proposed))
}

// parseConditionValue reads the command-line form of a condition value.
func parseConditionValue(kind rules.ValueKind, s string) (rules.Value, error) {
	s = strings.TrimSpace(s)
	switch kind {
	case rules.KindMultiChoice:
		var opts []any
		for _, part := range strings.Split(s, ",") {
			if part = strings.TrimSpace(part); part != "" {
				opts = append(opts, part)
			}
		}
		return rules.DecodeValue(kind, opts)

	case rules.KindRange:
		raw := map[string]any{}
		switch {
		case strings.HasPrefix(s, ">"):
			n, err := strconv.ParseFloat(strings.TrimSpace(s[1:]), 64)
			if err != nil {
				return nil, fmt.Errorf("%w: invalid range %q", rules.ErrSchemaMismatch, s)
			}
			raw["op"], raw["min"] = string(rules.RangeGreaterThan), n
		case strings.HasPrefix(s, "<"):
			n, err := strconv.ParseFloat(strings.TrimSpace(s[1:]), 64)
			if err != nil {
				return nil, fmt.Errorf("%w: invalid range %q", rules.ErrSchemaMismatch, s)
			}
			raw["op"], raw["max"] = string(rules.RangeLessThan), n
		default:
			lo, hi, ok := strings.Cut(s, "..")
			if !ok {
				return nil, fmt.Errorf("%w: range must be min..max, >n or <n, got %q", rules.ErrSchemaMismatch, s)
			}
			minV, err1 := strconv.ParseFloat(strings.TrimSpace(lo), 64)
			maxV, err2 := strconv.ParseFloat(strings.TrimSpace(hi), 64)
			if err1 != nil || err2 != nil {
				return nil, fmt.Errorf("%w: invalid range %q", rules.ErrSchemaMismatch, s)
			}
			raw["op"], raw["min"], raw["max"] = string(rules.RangeBetween), minV, maxV
		}
		return rules.DecodeValue(kind, raw)

	default:
		return rules.DecodeValue(kind, s)
	}
}

func init() {
	rootCmd.AddCommand(rulesCmd)
	rulesCmd.AddCommand(rulesListCmd)
	rulesCmd.AddCommand(rulesAddCmd)
	rulesCmd.AddCommand(rulesRemoveCmd)

	rulesAddCmd.Flags().StringVar(&ruleValue, "value", "", "Condition value (required)")
	rulesAddCmd.Flags().IntVar(&ruleWeight, "weight", 5, "Weight from 1 to 10")
	rulesAddCmd.Flags().StringVar(&ruleCombinator, "combinator", "", "How the condition joins earlier ones: and, or (default or)")
	rulesAddCmd.Flags().StringVar(&ruleID, "id", "", "Condition id (generated when empty)")
}

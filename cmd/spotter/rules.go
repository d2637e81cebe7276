package main

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/samber/lo"
	"github.com/spf13/cobra"

	"spotter/internal/config"
	"spotter/internal/engine"
	"spotter/internal/rule"
)

var rulesCmd = &cobra.Command{
	Use:   "rules",
	Short: "List the bundled rules and whether the configuration activates them",
	Args:  cobra.NoArgs,
	RunE:  runRules,
}

func init() {
	rulesCmd.Flags().String("format", "table", "output format (table|json)")
	rulesCmd.Flags().Bool("active", false, "list only active rules")
}

type ruleRow struct {
	RuleSet     string   `json:"rule_set"`
	ID          string   `json:"id"`
	Active      bool     `json:"active"`
	Autocorrect bool     `json:"autocorrect"`
	NeedsTypes  bool     `json:"needs_types"`
	Aliases     []string `json:"aliases,omitempty"`
	Description string   `json:"description"`
}

func runRules(cmd *cobra.Command, _ []string) error {
	format, err := cmd.Flags().GetString("format")
	if err != nil {
		return fmt.Errorf("failed to get format flag: %w", err)
	}
	onlyActive, err := cmd.Flags().GetBool("active")
	if err != nil {
		return fmt.Errorf("failed to get active flag: %w", err)
	}
	s, err := loadSession(cmd)
	if err != nil {
		return err
	}
	eng, err := engine.New(s.registry, s.user, engine.Options{})
	if err != nil {
		return err
	}
	rows, err := ruleRows(s.registry, eng)
	if err != nil {
		return err
	}
	if onlyActive {
		rows = lo.Filter(rows, func(r ruleRow, _ int) bool { return r.Active })
	}

	out := cmd.OutOrStdout()
	switch format {
	case "json":
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(rows)
	case "table":
		_, err := fmt.Fprintln(out, renderRuleTable(rows))
		return err
	default:
		return fmt.Errorf("unsupported format %q (must be table or json)", format)
	}
}

// ruleRows describes every registered rule. Active rules carry the
// metadata the engine resolved (aliases from the configuration included);
// inactive ones are instantiated with their defaults.
func ruleRows(reg *rule.Registry, eng *engine.Engine) ([]ruleRow, error) {
	active := lo.KeyBy(eng.Rules(), func(m rule.Meta) string { return m.RuleSet + "/" + m.ID })
	rows := make([]ruleRow, 0, reg.Len())
	for _, r := range reg.All() {
		meta, isActive := active[r.Key()]
		if !isActive {
			impl, err := r.New(config.Empty())
			if err != nil {
				return nil, fmt.Errorf("rule %s: %w", r.Key(), err)
			}
			meta = impl.Meta()
		}
		rows = append(rows, ruleRow{
			RuleSet:     r.RuleSet,
			ID:          r.ID,
			Active:      isActive,
			Autocorrect: meta.Autocorrect,
			NeedsTypes:  meta.NeedsTypes,
			Aliases:     meta.Aliases,
			Description: r.Description,
		})
	}
	return rows, nil
}

func renderRuleTable(rows []ruleRow) string {
	if len(rows) == 0 {
		return "No rules"
	}
	mark := func(b bool) string {
		if b {
			return "yes"
		}
		return ""
	}
	data := lo.Map(rows, func(r ruleRow, _ int) []string {
		return []string{r.RuleSet, r.ID, mark(r.Active), mark(r.Autocorrect), mark(r.NeedsTypes), r.Description}
	})
	t := table.New().
		Headers("SET", "RULE", "ACTIVE", "FIX", "TYPES", "DESCRIPTION").
		Rows(data...).
		BorderTop(false).
		BorderBottom(false).
		BorderLeft(false).
		BorderRight(false).
		BorderRow(false).
		BorderColumn(false).
		BorderHeader(false).
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("6")).Padding(0, 2, 0, 0)
			}
			return lipgloss.NewStyle().Padding(0, 2, 0, 0)
		})
	return strings.TrimRight(t.String(), "\n")
}

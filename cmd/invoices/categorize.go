package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/FACorreiaa/grocery-invoices/internal/domain/categorization"
)

var categorizeExplain bool

var categorizeCmd = &cobra.Command{
	Use:   "categorize <description>...",
	Short: "Print the category assigned to an item description",
	Long: `Print the category the rule engine assigns to each description.

With --explain the winning rule and any earlier rules whose exclusion
guard vetoed the description are listed too.

Examples:
  invoices categorize "Amul Taaza Toned Milk"
  invoices categorize --explain "Dairy Milk Silk Chocolate"`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		engine := categorization.Default()
		out := cmd.OutOrStdout()

		for _, desc := range args {
			if !categorizeExplain {
				fmt.Fprintf(out, "%s\t%s\n", desc, engine.Categorize(desc))
				continue
			}

			m := engine.Explain(desc)
			fmt.Fprintf(out, "%s\n  category: %s\n", desc, m.Category)
			if m.RuleIndex >= 0 && m.RuleIndex < engine.RuleCount() {
				fmt.Fprintf(out, "  rule:     #%d\n", m.RuleIndex+1)
			} else {
				fmt.Fprintf(out, "  rule:     none (fallback)\n")
			}
			if len(m.Vetoed) > 0 {
				rules := engine.Rules()
				names := make([]string, len(m.Vetoed))
				for i, idx := range m.Vetoed {
					names[i] = fmt.Sprintf("#%d %s", idx+1, rules[idx].Category)
				}
				fmt.Fprintf(out, "  vetoed:   %s\n", strings.Join(names, ", "))
			}
		}
		return nil
	},
}

func init() {
	categorizeCmd.Flags().BoolVar(&categorizeExplain, "explain", false, "show which rules matched or were excluded")
}

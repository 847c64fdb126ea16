package commands

import (
	"fmt"
	"path/filepath"
	"sort"

	"github.com/spf13/cobra"

	"github.com/bankfeed-dev/bankfeed/internal/model"
	"github.com/bankfeed-dev/bankfeed/internal/report"
	"github.com/bankfeed-dev/bankfeed/internal/store"
)

func newReportCommand() *cobra.Command {
	var dir string
	var month string
	var top int

	cmd := &cobra.Command{
		Use:   "report",
		Short: "Print the monthly spending summary",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			absDir, err := filepath.Abs(dir)
			if err != nil {
				return fmt.Errorf("resolving path: %w", err)
			}
			return runReport(cmd, absDir, month, top)
		},
	}

	cmd.Flags().StringVar(&dir, "dir", ".", "workspace directory")
	cmd.Flags().StringVar(&month, "month", "", "report month as YYYY-MM (default: most active month)")
	cmd.Flags().IntVar(&top, "top", 5, "number of expense categories to rank")

	return cmd
}

func runReport(cmd *cobra.Command, dir, month string, top int) error {
	if month != "" {
		if _, _, err := model.ParseMonthKey(month); err != nil {
			return fmt.Errorf("invalid month: %w", err)
		}
	}

	txs, err := store.NewCSVStore(dir).LoadTransactions(cmd.Context())
	if err != nil {
		return fmt.Errorf("loading transactions: %w", err)
	}

	agg := report.NewAggregator()
	agg.TopN = top
	printSummary(cmd, agg.Summarize(txs, month))
	return nil
}

func printSummary(cmd *cobra.Command, s model.MonthlySummary) {
	out := cmd.OutOrStdout()

	fmt.Fprintf(out, "Month:        %s\n", s.Month)
	fmt.Fprintf(out, "Transactions: %d\n", s.TransactionCount)
	fmt.Fprintf(out, "Income:       %s\n", s.Income.StringFixed(2))
	fmt.Fprintf(out, "Expenses:     %s\n", s.Expenses.StringFixed(2))
	fmt.Fprintf(out, "Balance:      %s\n", s.Balance.StringFixed(2))
	fmt.Fprintf(out, "Savings rate: %s%%\n", s.SavingsRate.StringFixed(1))

	if len(s.TopExpenses) > 0 {
		fmt.Fprintln(out, "\nTop expense categories:")
		for _, ct := range s.TopExpenses {
			fmt.Fprintf(out, "  %-18s %12s\n", ct.Category, ct.Total.StringFixed(2))
		}
	}

	if len(s.CategoryTotals) > len(s.TopExpenses) {
		var rest []model.Category
		for cat := range s.CategoryTotals {
			if !inTop(s.TopExpenses, cat) {
				rest = append(rest, cat)
			}
		}
		sort.Slice(rest, func(i, j int) bool { return rest[i] < rest[j] })
		if len(rest) > 0 {
			fmt.Fprintln(out, "\nOther activity:")
			for _, cat := range rest {
				fmt.Fprintf(out, "  %-18s %12s\n", cat, s.CategoryTotals[cat].StringFixed(2))
			}
		}
	}
}

func inTop(top []model.CategoryTotal, cat model.Category) bool {
	for _, ct := range top {
		if ct.Category == cat {
			return true
		}
	}
	return false
}

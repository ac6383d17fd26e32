package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"quantbt/internal/store"
	"quantbt/pkg/utils"
)

func newReportCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Inspect saved backtest runs",
		Long:  "List and inspect runs previously saved with 'quantbt run --save'.",
	}

	cmd.AddCommand(newReportListCmd(app))
	cmd.AddCommand(newReportShowCmd(app))

	return cmd
}

func newReportListCmd(app *App) *cobra.Command {
	var (
		strategyFilter string
		symbolFilter   string
		limit          int
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List saved runs",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			if app.Store == nil {
				return fmt.Errorf("results store unavailable")
			}

			runs, err := app.Store.ListRuns(cmd.Context(), store.RunFilter{
				Strategy: strategyFilter,
				Symbol:   symbolFilter,
				Limit:    limit,
			})
			if err != nil {
				return err
			}

			if output.IsJSON() {
				return output.JSON(runs)
			}
			if len(runs) == 0 {
				output.Dim("No saved runs")
				return nil
			}

			table := NewTable(output, "ID", "STRATEGY", "SYMBOL", "FINISHED", "FINAL NAV", "RETURN")
			for _, run := range runs {
				table.AddRow(
					run.ID,
					run.Strategy,
					run.Symbol,
					run.FinishedAt.Format("2006-01-02 15:04"),
					utils.FormatMoney(run.FinalNAV),
					output.FormatPercent(run.Metrics.TotalReturn),
				)
			}
			table.Render()
			return nil
		},
	}

	cmd.Flags().StringVar(&strategyFilter, "strategy", "", "filter by strategy name")
	cmd.Flags().StringVar(&symbolFilter, "symbol", "", "filter by symbol")
	cmd.Flags().IntVar(&limit, "limit", 20, "maximum runs to list")

	return cmd
}

func newReportShowCmd(app *App) *cobra.Command {
	var (
		showFills bool
		showChart bool
	)

	cmd := &cobra.Command{
		Use:   "show <run-id>",
		Short: "Show one saved run in detail",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			if app.Store == nil {
				return fmt.Errorf("results store unavailable")
			}

			run, err := app.Store.GetRun(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			if output.IsJSON() {
				return output.JSON(run)
			}

			output.Bold("Run %s", run.ID)
			output.Printf("  Strategy:       %s\n", run.Strategy)
			output.Printf("  Symbol:         %s\n", run.Symbol)
			output.Printf("  Started:        %s\n", run.StartedAt.Format("2006-01-02 15:04:05"))
			output.Printf("  Finished:       %s\n", run.FinishedAt.Format("2006-01-02 15:04:05"))
			output.Printf("  Starting Cash:  %s\n", utils.FormatMoney(run.StartingCash))
			output.Printf("  Final NAV:      %s\n", utils.FormatMoney(run.FinalNAV))
			output.Printf("  P&L:            %s\n", output.FormatPnL(run.FinalNAV-run.StartingCash))
			output.Println()

			m := run.Metrics
			output.Bold("Performance")
			if m.Empty() {
				output.Dim("  Not enough data points for metrics")
			} else {
				output.Printf("  Total Return:   %s\n", output.FormatPercent(m.TotalReturn))
				output.Printf("  CAGR:           %s\n", output.FormatPercent(m.CAGR))
				output.Printf("  Sharpe:         %.2f\n", m.Sharpe)
				output.Printf("  Sortino:        %.2f\n", m.Sortino)
				output.Printf("  Max Drawdown:   %s\n", output.Red(utils.FormatPercent(-m.MaxDrawdown)))
			}

			if showChart {
				curve, err := app.Store.GetEquityCurve(cmd.Context(), run.ID)
				if err != nil {
					return err
				}
				output.Println()
				output.Print("%s", EquityCurveASCII(curve, 60, 12))
			}

			if showFills {
				fills, err := app.Store.GetFills(cmd.Context(), run.ID)
				if err != nil {
					return err
				}
				output.Println()
				output.Bold("Fills (%d)", len(fills))
				table := NewTable(output, "TIME", "SYMBOL", "QTY", "PRICE", "FEE", "SLIPPAGE")
				for _, f := range fills {
					table.AddRow(
						f.Timestamp.Format("2006-01-02 15:04"),
						f.Symbol,
						utils.FormatQuantity(f.Quantity),
						fmt.Sprintf("%.2f", f.Price),
						fmt.Sprintf("%.2f", f.Fee),
						fmt.Sprintf("%.4f", f.Slippage),
					)
				}
				table.Render()
			}

			return nil
		},
	}

	cmd.Flags().BoolVar(&showFills, "fills", false, "include the fill log")
	cmd.Flags().BoolVar(&showChart, "chart", true, "include the equity curve chart")

	return cmd
}

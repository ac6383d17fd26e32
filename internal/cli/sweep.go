package cli

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"quantbt/internal/feed"
	"quantbt/internal/strategy"
	"quantbt/internal/sweep"
	"quantbt/pkg/utils"
)

type sweepFlags struct {
	data       string
	symbol     string
	quantity   float64
	cash       float64
	commission float64
	slippage   float64
	seed       int64
	periods    float64
	shorts     []int
	longs      []int
	workers    int
	top        int
}

func newSweepCmd(app *App) *cobra.Command {
	flags := &sweepFlags{}

	cmd := &cobra.Command{
		Use:   "sweep",
		Short: "Sweep SMA crossover windows over a CSV bar file",
		Long: `Sweep runs the SMA crossover strategy once per (short, long) window
pair and ranks the results by total return. Each run is fully isolated,
so the pairs execute in parallel without affecting determinism.`,
		Example: `  quantbt sweep --data bars.csv --symbol AAPL --short 5,10,20 --long 50,100`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSweep(cmd, app, flags)
		},
	}

	cmd.Flags().StringVar(&flags.data, "data", "", "CSV bar file (required)")
	cmd.Flags().StringVar(&flags.symbol, "symbol", "", "symbol to trade (required)")
	cmd.Flags().Float64Var(&flags.quantity, "quantity", 1, "order quantity per signal")
	cmd.Flags().Float64Var(&flags.cash, "cash", app.Config.Backtest.StartingCash, "starting cash")
	cmd.Flags().Float64Var(&flags.commission, "commission-bps", app.Config.Backtest.CommissionBPS, "commission in basis points")
	cmd.Flags().Float64Var(&flags.slippage, "slippage-bps", app.Config.Backtest.SlippageBPS, "fixed slippage in basis points")
	cmd.Flags().Int64Var(&flags.seed, "seed", app.Config.Backtest.Seed, "RNG seed for slippage jitter")
	cmd.Flags().Float64Var(&flags.periods, "periods-per-year", app.Config.Backtest.PeriodsPerYear, "annualization constant")
	cmd.Flags().IntSliceVar(&flags.shorts, "short", []int{5, 10, 20}, "short SMA windows")
	cmd.Flags().IntSliceVar(&flags.longs, "long", []int{50, 100, 200}, "long SMA windows")
	cmd.Flags().IntVar(&flags.workers, "workers", 0, "parallel workers (0 = NumCPU)")
	cmd.Flags().IntVar(&flags.top, "top", 10, "show only the top N results")
	cmd.MarkFlagRequired("data")
	cmd.MarkFlagRequired("symbol")

	return cmd
}

func runSweep(cmd *cobra.Command, app *App, flags *sweepFlags) error {
	output := NewOutput(cmd)

	events, err := feed.LoadBars(flags.data, flags.symbol)
	if err != nil {
		return err
	}

	var jobs []sweep.Job
	for _, short := range flags.shorts {
		for _, long := range flags.longs {
			if short >= long {
				continue
			}
			params := strategy.Params{
				"short_period": float64(short),
				"long_period":  float64(long),
			}
			strat, err := strategy.New("sma_crossover", flags.symbol, flags.quantity, params)
			if err != nil {
				return err
			}
			run := &runFlags{
				symbol:     flags.symbol,
				cash:       flags.cash,
				commission: flags.commission,
				slippage:   flags.slippage,
				seed:       flags.seed,
				periods:    flags.periods,
			}
			jobs = append(jobs, sweep.Job{
				Name:     fmt.Sprintf("sma %d/%d", short, long),
				Config:   engineConfig(app, run),
				Strategy: strat,
				Events:   events,
			})
		}
	}
	if len(jobs) == 0 {
		return fmt.Errorf("no valid window pairs: every short window must be below every long window")
	}

	app.Logger.Info().
		Int("jobs", len(jobs)).
		Int("workers", flags.workers).
		Msg("Starting sweep")

	outcomes := sweep.Run(cmd.Context(), jobs, flags.workers)

	sort.SliceStable(outcomes, func(i, j int) bool {
		return sweepReturn(outcomes[i]) > sweepReturn(outcomes[j])
	})
	if flags.top > 0 && len(outcomes) > flags.top {
		outcomes = outcomes[:flags.top]
	}

	if output.IsJSON() {
		return output.JSON(outcomes)
	}

	output.Bold("Sweep Results (%d jobs)", len(jobs))
	table := NewTable(output, "WINDOWS", "RETURN", "CAGR", "SHARPE", "MAX DD", "FILLS")
	for _, oc := range outcomes {
		if oc.Err != nil {
			table.AddRow(oc.Name, output.Red("error: "+oc.Err.Error()), "", "", "", "")
			continue
		}
		m := oc.Result.Metrics
		table.AddRow(
			oc.Name,
			output.FormatPercent(m.TotalReturn),
			utils.FormatPercent(m.CAGR),
			fmt.Sprintf("%.2f", m.Sharpe),
			utils.FormatPercent(-m.MaxDrawdown),
			fmt.Sprintf("%d", len(oc.Result.Fills)),
		)
	}
	table.Render()

	return nil
}

func sweepReturn(oc sweep.Outcome) float64 {
	if oc.Err != nil || oc.Result == nil {
		return -1e18
	}
	return oc.Result.Metrics.TotalReturn
}

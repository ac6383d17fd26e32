package cli

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"quantbt/internal/engine"
	"quantbt/internal/feed"
	"quantbt/internal/logging"
	"quantbt/internal/store"
	"quantbt/internal/strategy"
	"quantbt/pkg/utils"
)

// runFlags carries per-run overrides on top of the configured
// defaults.
type runFlags struct {
	data       string
	symbol     string
	strat      string
	quantity   float64
	cash       float64
	commission float64
	slippage   float64
	jitter     float64
	leverage   float64
	allowShort bool
	seed       int64
	periods    float64
	params     []string
	save       bool
	chart      bool
	fills      bool
}

func newRunCmd(app *App) *cobra.Command {
	flags := &runFlags{}

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run a backtest over a CSV bar file",
		Long: `Run replays a CSV file of OHLCV bars through a built-in strategy and
prints the performance summary.

Available strategies: sma_crossover, rsi_reversion, buy_and_hold.
Strategy parameters are passed as --param key=value pairs, e.g.
--param short_period=5 --param long_period=20.`,
		Example: `  quantbt run --data bars.csv --symbol AAPL --strategy sma_crossover
  quantbt run --data bars.csv --symbol AAPL --strategy rsi_reversion --param period=7 --save`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBacktest(cmd, app, flags)
		},
	}

	cmd.Flags().StringVar(&flags.data, "data", "", "CSV bar file (required)")
	cmd.Flags().StringVar(&flags.symbol, "symbol", "", "symbol to trade (required)")
	cmd.Flags().StringVar(&flags.strat, "strategy", "buy_and_hold", "strategy name")
	cmd.Flags().Float64Var(&flags.quantity, "quantity", 1, "order quantity per signal")
	cmd.Flags().Float64Var(&flags.cash, "cash", app.Config.Backtest.StartingCash, "starting cash")
	cmd.Flags().Float64Var(&flags.commission, "commission-bps", app.Config.Backtest.CommissionBPS, "commission in basis points")
	cmd.Flags().Float64Var(&flags.slippage, "slippage-bps", app.Config.Backtest.SlippageBPS, "fixed slippage in basis points")
	cmd.Flags().Float64Var(&flags.jitter, "jitter-bps", app.Config.Backtest.JitterBPS, "random slippage jitter in basis points")
	cmd.Flags().Float64Var(&flags.leverage, "max-leverage", app.Config.Backtest.MaxLeverage, "gross leverage cap (0 = unbounded)")
	cmd.Flags().BoolVar(&flags.allowShort, "allow-short", app.Config.Backtest.AllowShort, "allow short positions")
	cmd.Flags().Int64Var(&flags.seed, "seed", app.Config.Backtest.Seed, "RNG seed for slippage jitter")
	cmd.Flags().Float64Var(&flags.periods, "periods-per-year", app.Config.Backtest.PeriodsPerYear, "annualization constant")
	cmd.Flags().StringArrayVar(&flags.params, "param", nil, "strategy parameter key=value (repeatable)")
	cmd.Flags().BoolVar(&flags.save, "save", false, "persist the run to the results database")
	cmd.Flags().BoolVar(&flags.chart, "chart", true, "print the equity curve chart")
	cmd.Flags().BoolVar(&flags.fills, "fills", false, "print the fill log")
	cmd.MarkFlagRequired("data")
	cmd.MarkFlagRequired("symbol")

	return cmd
}

func runBacktest(cmd *cobra.Command, app *App, flags *runFlags) error {
	output := NewOutput(cmd)

	params, err := parseParams(flags.params)
	if err != nil {
		return err
	}

	strat, err := strategy.New(flags.strat, flags.symbol, flags.quantity, params)
	if err != nil {
		return err
	}

	events, err := feed.LoadBars(flags.data, flags.symbol)
	if err != nil {
		return err
	}

	cfg := engineConfig(app, flags)
	eng, err := engine.New(cfg)
	if err != nil {
		return err
	}

	startedAt := time.Now()
	runLog := logging.WithStrategy(logging.WithSymbol(app.Logger, flags.symbol), flags.strat)
	result, err := eng.Run(cmd.Context(), feed.NewSliceSource(events...), strat)
	if err != nil {
		return err
	}
	finishedAt := time.Now()

	finalNAV := flags.cash
	if n := len(result.Snapshots); n > 0 {
		finalNAV = result.Snapshots[n-1].NAV
	}
	logging.LogRunComplete(runLog, len(events), len(result.Fills), finalNAV, finishedAt.Sub(startedAt))

	if output.IsJSON() {
		return output.JSON(map[string]interface{}{
			"strategy": flags.strat,
			"symbol":   flags.symbol,
			"metrics":  result.Metrics,
			"fills":    result.Fills,
		})
	}

	printSummary(output, flags, result, len(events))

	if flags.chart && len(result.Snapshots) > 0 {
		output.Println()
		output.Print("%s", EquityCurveASCII(result.Snapshots, 60, 12))
	}

	if flags.fills && len(result.Fills) > 0 {
		output.Println()
		printFills(output, result)
	}

	if flags.save {
		if app.Store == nil {
			output.Warning("Results store unavailable, run not saved")
			return nil
		}
		id, err := saveRun(cmd, app, flags, result, startedAt, finishedAt)
		if err != nil {
			return err
		}
		runIDLog := logging.WithRunID(runLog, id)
		runIDLog.Debug().Msg("Run persisted")
		output.Println()
		output.Success("✓ Run saved: %s", id)
	}

	return nil
}

func engineConfig(app *App, flags *runFlags) engine.Config {
	cfg := engine.Config{
		StartingCash:   flags.cash,
		Symbols:        []string{flags.symbol},
		Commission:     engine.BPSCommission{BPS: flags.commission},
		AllowShort:     flags.allowShort,
		Seed:           flags.seed,
		MaxLeverage:    flags.leverage,
		PeriodsPerYear: flags.periods,
		Logger:         &app.Logger,
	}
	if flags.jitter > 0 {
		cfg.Slippage = engine.JitterSlippage{BPS: flags.slippage, JitterBPS: flags.jitter}
	} else if flags.slippage > 0 {
		cfg.Slippage = engine.BPSSlippage{BPS: flags.slippage}
	}
	return cfg
}

func parseParams(pairs []string) (strategy.Params, error) {
	if len(pairs) == 0 {
		return nil, nil
	}
	params := make(strategy.Params, len(pairs))
	for _, pair := range pairs {
		key, value, found := strings.Cut(pair, "=")
		if !found {
			return nil, fmt.Errorf("invalid --param %q, expected key=value", pair)
		}
		var f float64
		if _, err := fmt.Sscanf(value, "%g", &f); err != nil {
			return nil, fmt.Errorf("invalid --param value %q: %w", pair, err)
		}
		params[key] = f
	}
	return params, nil
}

func printSummary(output *Output, flags *runFlags, result *engine.Result, events int) {
	finalNAV := flags.cash
	if n := len(result.Snapshots); n > 0 {
		finalNAV = result.Snapshots[n-1].NAV
	}

	output.Bold("Backtest Summary")
	output.Printf("  Strategy:       %s\n", flags.strat)
	output.Printf("  Symbol:         %s\n", flags.symbol)
	output.Printf("  Events:         %d\n", events)
	output.Printf("  Fills:          %d\n", len(result.Fills))
	output.Printf("  Open Orders:    %d\n", len(result.OpenOrders))
	output.Printf("  Starting Cash:  %s\n", utils.FormatMoney(flags.cash))
	output.Printf("  Final NAV:      %s\n", utils.FormatMoney(finalNAV))
	output.Printf("  P&L:            %s\n", output.FormatPnL(finalNAV-flags.cash))
	output.Println()

	m := result.Metrics
	output.Bold("Performance")
	if m.Empty() {
		output.Dim("  Not enough data points for metrics")
		return
	}
	output.Printf("  Total Return:   %s\n", output.FormatPercent(m.TotalReturn))
	output.Printf("  CAGR:           %s\n", output.FormatPercent(m.CAGR))
	output.Printf("  Sharpe:         %.2f\n", m.Sharpe)
	output.Printf("  Sortino:        %.2f\n", m.Sortino)
	output.Printf("  Max Drawdown:   %s\n", output.Red(utils.FormatPercent(-m.MaxDrawdown)))
}

func printFills(output *Output, result *engine.Result) {
	table := NewTable(output, "TIME", "SYMBOL", "QTY", "PRICE", "FEE", "SLIPPAGE")
	for _, f := range result.Fills {
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

func saveRun(cmd *cobra.Command, app *App, flags *runFlags, result *engine.Result, startedAt, finishedAt time.Time) (string, error) {
	finalNAV := flags.cash
	if n := len(result.Snapshots); n > 0 {
		finalNAV = result.Snapshots[n-1].NAV
	}

	cfgJSON, err := json.Marshal(map[string]interface{}{
		"data":           flags.data,
		"quantity":       flags.quantity,
		"commission_bps": flags.commission,
		"slippage_bps":   flags.slippage,
		"jitter_bps":     flags.jitter,
		"max_leverage":   flags.leverage,
		"allow_short":    flags.allowShort,
		"seed":           flags.seed,
		"params":         flags.params,
	})
	if err != nil {
		return "", err
	}

	run := &store.RunRecord{
		ID:           fmt.Sprintf("%s-%s-%d", flags.strat, flags.symbol, startedAt.UnixNano()),
		Strategy:     flags.strat,
		Symbol:       flags.symbol,
		StartedAt:    startedAt,
		FinishedAt:   finishedAt,
		StartingCash: flags.cash,
		FinalNAV:     finalNAV,
		Metrics:      result.Metrics,
		Config:       string(cfgJSON),
	}

	if err := app.Store.SaveRun(cmd.Context(), run, result.Fills, result.Snapshots); err != nil {
		return "", err
	}
	return run.ID, nil
}

package cli

import (
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"quantbt/internal/config"
	"quantbt/internal/logging"
	"quantbt/internal/store"
)

// Version information
const (
	Version   = "0.1.0"
	BuildDate = "2026-09-01"
)

// App holds the application dependencies.
type App struct {
	Config *config.Config
	Logger zerolog.Logger
	Store  store.ResultStore
}

// NewRootCmd creates the root command for the CLI.
func NewRootCmd(cfg *config.Config, logger zerolog.Logger) *cobra.Command {
	app := &App{
		Config: cfg,
		Logger: logger,
	}

	dbPath := cfg.Storage.DBPath
	if dbPath == "" {
		dbPath = config.DefaultDBPath()
	}
	resultStore, err := store.NewSQLiteStore(dbPath)
	if err != nil {
		logger.Warn().Err(err).Msg("Failed to open results store, runs will not be saved")
	} else {
		app.Store = resultStore
		logger.Debug().Str("path", dbPath).Msg("Results store opened")
	}

	rootCmd := &cobra.Command{
		Use:   "quantbt",
		Short: "quantbt - deterministic event-driven backtester",
		Long: `quantbt replays historical market data through trading strategies and
reports fills, equity curves, and performance metrics.

Runs are fully deterministic: the same data, strategy, and seed always
produce the same fills and the same equity curve.

Use 'quantbt help <command>' for more information about a command.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			debug, _ := cmd.Flags().GetBool("debug")
			if debug {
				logging.SetDebugLevel()
				app.Logger = app.Logger.Level(zerolog.DebugLevel)
			}
			return nil
		},
	}

	// Global flags
	rootCmd.PersistentFlags().String("config", "", "config directory (default: ~/.config/quantbt)")
	rootCmd.PersistentFlags().Bool("json", false, "output in JSON format")
	rootCmd.PersistentFlags().Bool("debug", false, "enable debug logging")

	rootCmd.AddCommand(newVersionCmd())
	rootCmd.AddCommand(newConfigCmd(app))
	rootCmd.AddCommand(newRunCmd(app))
	rootCmd.AddCommand(newSweepCmd(app))
	rootCmd.AddCommand(newReportCmd(app))

	return rootCmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			output := NewOutput(cmd)
			if output.IsJSON() {
				output.JSON(map[string]string{
					"version":    Version,
					"build_date": BuildDate,
				})
			} else {
				output.Printf("quantbt v%s\n", Version)
				output.Dim("Build date: %s", BuildDate)
			}
		},
	}
}

func newConfigCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Configuration management",
		Long:  "View and manage application configuration.",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Show current configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			if output.IsJSON() {
				return output.JSON(app.Config)
			}
			showConfig(output, app.Config)
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "path",
		Short: "Show configuration directory path",
		Run: func(cmd *cobra.Command, args []string) {
			output := NewOutput(cmd)
			if output.IsJSON() {
				output.JSON(map[string]string{"path": config.DefaultConfigDir()})
			} else {
				output.Println(config.DefaultConfigDir())
			}
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "validate",
		Short: "Validate configuration files",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			if err := app.Config.Validate(); err != nil {
				output.Error("Configuration validation failed: %v", err)
				return err
			}
			if output.IsJSON() {
				output.JSON(map[string]bool{"valid": true})
			} else {
				output.Success("✓ Configuration is valid")
			}
			return nil
		},
	})

	return cmd
}

func showConfig(output *Output, cfg *config.Config) {
	output.Bold("Backtest Defaults")
	output.Printf("  Starting Cash:   %.2f\n", cfg.Backtest.StartingCash)
	output.Printf("  Commission:      %.1f bps\n", cfg.Backtest.CommissionBPS)
	output.Printf("  Slippage:        %.1f bps (+%.1f jitter)\n", cfg.Backtest.SlippageBPS, cfg.Backtest.JitterBPS)
	output.Printf("  Max Leverage:    %.1fx\n", cfg.Backtest.MaxLeverage)
	output.Printf("  Allow Short:     %v\n", cfg.Backtest.AllowShort)
	output.Printf("  Seed:            %d\n", cfg.Backtest.Seed)
	output.Printf("  Periods/Year:    %.0f\n", cfg.Backtest.PeriodsPerYear)
	output.Println()

	output.Bold("Storage")
	output.Printf("  DB Path:         %s\n", cfg.Storage.DBPath)
	output.Println()

	output.Bold("Logging")
	output.Printf("  Level:           %s\n", cfg.Logging.Level)
	output.Printf("  Console:         %v\n", cfg.Logging.Console)
	output.Printf("  File:            %v\n", cfg.Logging.File)
}

package config

import (
	"fmt"
	"os"
	"path/filepath"
)

const configTemplate = `# quantbt configuration

[backtest]
# Opening cash balance for each run
starting_cash = 100000.0
# Commission in basis points of notional
commission_bps = 0.0
# Fixed slippage in basis points, applied against the trade
slippage_bps = 0.0
# Extra uniform random slippage in basis points (seeded, reproducible)
jitter_bps = 0.0
# Gross leverage cap as a multiple of equity; 0 = unbounded
max_leverage = 0.0
# Allow positions to flip short
allow_short = false
# RNG seed for slippage jitter
seed = 1
# Annualization constant for Sharpe/Sortino/CAGR (252 = daily bars)
periods_per_year = 252.0

[storage]
# Results database path (empty = default under the config dir)
# db_path = ""

[logging]
# Log level: debug, info, warn, error
level = "info"
# Write logs to the console
console = true
# Write rotated logs under the config dir
file = true

[ui]
# Enable colored output
color_enabled = true
# Timestamp format for tables
time_format = "2006-01-02 15:04"
`

// createTemplateConfig writes a commented default config.toml so a
// first run leaves something editable behind.
func createTemplateConfig(configDir string) error {
	if err := os.MkdirAll(configDir, 0755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	path := filepath.Join(configDir, "config.toml")
	if _, err := os.Stat(path); err == nil {
		return nil
	}

	return os.WriteFile(path, []byte(configTemplate), 0644)
}

package commands

import (
	"github.com/spf13/cobra"

	"github.com/dproquant/tradecheck/internal/engine"
	"github.com/dproquant/tradecheck/pkg/config"
	"github.com/dproquant/tradecheck/pkg/logger"
)

var (
	// Global flags
	rulebookPath string
	verbose      bool
)

var rootCmd = &cobra.Command{
	Use:   "tradecheck",
	Short: "TradeCheck - D-Pro Protocol trade audit system",
	Long: `TradeCheck audits a trader's transaction history against the
D-Pro Protocol rulebook: KPIs, safety valves, night-session checks,
trading-DNA diagnosis, risk stress tests, capital-tier assessment and
incentive payouts.

Examples:
  tradecheck audit --file tradedata/trades.csv --capital 100000 --scale S1
  tradecheck serve
  tradecheck import --file tradedata/trades.csv
  tradecheck merge --trades closed.csv --transactions fills.csv`,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&rulebookPath, "rulebook", "", "rulebook YAML (default: built-in D-Pro V7.3)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}

// initDeps loads config and builds the logger and rulebook shared by all
// commands.
func initDeps() (*config.Config, *logger.Logger, *engine.Rulebook, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, nil, err
	}

	level := cfg.LogLevel
	if verbose {
		level = "debug"
	}
	log := logger.New(level, cfg.LogFormat)

	path := cfg.RulebookPath
	if rulebookPath != "" {
		path = rulebookPath
	}

	rb := engine.DefaultRulebook()
	if path != "" {
		rb, err = engine.LoadRulebook(path)
		if err != nil {
			return nil, nil, nil, err
		}
	}

	return cfg, log, rb, nil
}

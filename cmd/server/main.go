package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"salesdash/internal/config"
	"salesdash/internal/dashboard"
	"salesdash/internal/source"
)

var (
	cfgPath  string
	year     string
	products []string
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "salesdash",
		Short:         "Sales and profitability dashboard backend",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVarP(&cfgPath, "config", "c", "", "Path to a YAML config file")
	flags.String("data", "", "Dataset path or http(s) URL (overrides data.source)")
	flags.String("log-level", "", "Log level (overrides log.level)")
	flags.StringVar(&year, "year", "All", "Year filter")
	flags.StringSliceVar(&products, "product", nil, "Product filter, repeatable or comma separated")

	rootCmd.AddCommand(newServeCmd(), newChartCmd(), newKPIsCmd(), newOptionsCmd())
	return rootCmd
}

// setup resolves config (defaults < file < env < flags) and the logger.
func setup(cmd *cobra.Command) (*config.Config, zerolog.Logger, error) {
	v := config.New()
	if err := v.BindPFlag("data.source", cmd.Flags().Lookup("data")); err != nil {
		return nil, zerolog.Nop(), err
	}
	if err := v.BindPFlag("log.level", cmd.Flags().Lookup("log-level")); err != nil {
		return nil, zerolog.Nop(), err
	}

	cfg, err := config.Load(v, cfgPath)
	if err != nil {
		return nil, zerolog.Nop(), fmt.Errorf("failed to load config: %w", err)
	}

	level, err := zerolog.ParseLevel(strings.ToLower(cfg.Log.Level))
	if err != nil {
		return nil, zerolog.Nop(), fmt.Errorf("invalid log level %q: %w", cfg.Log.Level, err)
	}
	logger := zerolog.New(os.Stderr).Level(level).With().Timestamp().Logger()
	return cfg, logger, nil
}

func newLoader(cfg *config.Config) *source.Loader {
	return &source.Loader{Config: cfg.Data, Options: dashboard.LoadOptions()}
}

func selection() dashboard.Selection {
	return dashboard.Selection{Year: year, Products: products}
}

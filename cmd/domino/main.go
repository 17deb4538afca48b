// Command domino is the fixture-driven CLI for the field-subsystem
// resolvers: it loads a key=value fixture, drives one validate/inspect/
// resolve/collapse/execute operation against a domain, and prints the
// matching DOMINIUM_<SUBSYSTEM>_<COMMAND>_V1 output contract. Grounded on
// a single-binary cobra tree (cmd/synnergy/main.go): one root
// command, one subcommand tree per domain, each built by a function
// returning *cobra.Command.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/domino-sim/domino/pkg/config"
	"github.com/domino-sim/domino/pkg/logging"
	"github.com/domino-sim/domino/pkg/metrics"
)

var (
	runID      = uuid.NewString()
	collector  = metrics.NewCollector()
	logLevel   string
	configPath string
)

func main() {
	cfg, err := config.Load(os.Getenv("DOMINO_CONFIG"))
	if err != nil {
		fmt.Fprintf(os.Stderr, "domino: config: %v\n", err)
		os.Exit(2)
	}
	logLevel = cfg.Logging.Level

	rootCmd := &cobra.Command{
		Use:   "domino",
		Short: "Deterministic field-subsystem fixture runner",
	}
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", cfg.Logging.Level, "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to a domino config file (overrides discovery)")

	var metricsAddr string
	metricsEnabled := cfg.Metrics.Enabled
	rootCmd.PersistentFlags().StringVar(&metricsAddr, "metrics-addr", cfg.Metrics.Addr, "address to serve Prometheus metrics on")
	rootCmd.PersistentFlags().BoolVar(&metricsEnabled, "metrics", cfg.Metrics.Enabled, "serve Prometheus metrics for the lifetime of the command")

	rootCmd.PersistentPreRun = func(cmd *cobra.Command, args []string) {
		if configPath != "" {
			reloaded, err := config.Load(configPath)
			if err != nil {
				fmt.Fprintf(os.Stderr, "domino: config: %v\n", err)
				os.Exit(2)
			}
			cfg = reloaded
		}
		if metricsEnabled {
			go func() {
				if err := collector.Serve(context.Background(), metricsAddr); err != nil {
					fmt.Fprintf(os.Stderr, "domino: metrics server: %v\n", err)
				}
			}()
		}
	}

	rootCmd.AddCommand(energyCmd())
	rootCmd.AddCommand(heatCmd())
	rootCmd.AddCommand(fluidCmd())
	rootCmd.AddCommand(informationCmd())
	rootCmd.AddCommand(craftingCmd())
	rootCmd.AddCommand(worldCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(2)
	}
}

func newLog() *logrus.Entry {
	return logging.WithRunID(logging.New(logLevel), runID)
}

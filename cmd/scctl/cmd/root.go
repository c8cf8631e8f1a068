// Copyright 2026 the u-root Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"go.uber.org/zap/zapcore"

	"github.com/u-root/scbmc/config"
	"github.com/u-root/scbmc/pkg/bus"
	"github.com/u-root/scbmc/pkg/logger"
	"github.com/u-root/scbmc/pkg/metric"
)

var log = logger.LogContainer.GetSimpleLogger()

var (
	// Global flags
	configPath  string
	verbose     bool
	showMetrics bool
	retries     int

	cfg    *config.Config
	opener bus.Opener

	// Replaced in tests.
	fs     afero.Fs   = afero.NewOsFs()
	rawBus bus.Opener = bus.I2CDev{}
)

var rootCmd = &cobra.Command{
	Use:   "scctl",
	Short: "System controller for evaluation boards",
	Long: `Reads board identity EEPROMs, sets regulator voltages, and queries
optical transceivers, DIMMs and power sensors over I2C.

Examples:
  scctl eeprom                     # Summary of the on-board EEPROM
  scctl voltage set VADJ_FMC 1.2   # Program an output voltage
  scctl transceiver info QSFP1     # Transceiver identity and diagnostics
  scctl power domain PL            # Total power of a domain`,
	SilenceUsage:       true,
	SilenceErrors:      true,
	PersistentPreRunE:  setup,
	PersistentPostRunE: teardown,
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "TOML board description, built-in board if empty")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log every bus transaction")
	rootCmd.PersistentFlags().BoolVar(&showMetrics, "metrics", false, "print bus metrics after the command")
	rootCmd.PersistentFlags().IntVar(&retries, "retries", 0, "attempts per bus operation, overrides the board description")
}

func setup(cmd *cobra.Command, args []string) error {
	if verbose {
		logger.LogContainer.SetLevel(zapcore.DebugLevel)
	} else {
		logger.LogContainer.SetLevel(zapcore.InfoLevel)
	}

	cfg = config.DefaultConfig
	if configPath != "" {
		c, err := config.Load(fs, configPath)
		if err != nil {
			return err
		}
		cfg = c
	}
	logger.LogContainer.GetLogger().Debug("using board description",
		logger.LogContainer.String("board", cfg.Board),
		logger.LogContainer.String("config", configPath))

	opts := bus.RetryOpts{Attempts: cfg.Bus.Retries, Min: cfg.Bus.RetryMin, Max: cfg.Bus.RetryMax}
	if cmd.Flags().Changed("retries") {
		opts.Attempts = retries
	}
	opener = bus.Instrument(bus.WithRetry(rawBus, opts))
	return nil
}

func teardown(cmd *cobra.Command, args []string) error {
	if !showMetrics {
		return nil
	}
	return metric.Write(cmd.OutOrStdout())
}

func names(n int, name func(i int) string) []string {
	out := make([]string, n)
	for i := range out {
		out[i] = name(i)
	}
	return out
}

func unknown(kind, name string, valid []string) error {
	return fmt.Errorf("unknown %s %q, valid targets are %v", kind, name, valid)
}

// Copyright 2026 the u-root Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package cmd

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/u-root/scbmc/pkg/pmbus"
)

var voltageCmd = &cobra.Command{
	Use:   "voltage",
	Short: "Read and program regulator outputs",
}

var voltageListCmd = &cobra.Command{
	Use:   "list",
	Short: "List regulators",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		for _, r := range cfg.Regulators {
			fmt.Fprintln(cmd.OutOrStdout(), r.Name)
		}
		return nil
	},
}

var voltageGetCmd = &cobra.Command{
	Use:   "get NAME",
	Short: "Read the output voltage",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		r, err := regulator(args[0])
		if err != nil {
			return err
		}
		v, err := pmbus.NewController(opener, cfg.Quirks).GetVoltage(r)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Voltage(V):\t%.4f\n", v)
		return nil
	},
}

var voltageSetCmd = &cobra.Command{
	Use:   "set NAME VOLTS",
	Short: "Program the output voltage",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		r, err := regulator(args[0])
		if err != nil {
			return err
		}
		v, err := strconv.ParseFloat(args[1], 64)
		if err != nil {
			return fmt.Errorf("invalid voltage %q: %w", args[1], err)
		}
		return pmbus.NewController(opener, cfg.Quirks).SetVoltage(r, v)
	},
}

var voltageRestoreCmd = &cobra.Command{
	Use:   "restore NAME|all",
	Short: "Set outputs back to their typical voltage",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c := pmbus.NewController(opener, cfg.Quirks)
		if args[0] == "all" {
			for _, r := range cfg.Regulators {
				if err := c.RestoreDefault(r); err != nil {
					return err
				}
			}
			return nil
		}
		r, err := regulator(args[0])
		if err != nil {
			return err
		}
		return c.RestoreDefault(r)
	},
}

func init() {
	voltageCmd.AddCommand(voltageListCmd, voltageGetCmd, voltageSetCmd, voltageRestoreCmd)
	rootCmd.AddCommand(voltageCmd)
}

func regulator(name string) (pmbus.Regulator, error) {
	r, ok := cfg.Regulator(name)
	if !ok {
		return r, unknown("regulator", name, names(len(cfg.Regulators), func(i int) string { return cfg.Regulators[i].Name }))
	}
	return r, nil
}

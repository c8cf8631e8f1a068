// Copyright 2026 the u-root Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package cmd

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/u-root/scbmc/pkg/transceiver"
)

// Replaced in tests.
var newTransceivers = func() *transceiver.Controller {
	return transceiver.NewController(opener, nil)
}

var transceiverCmd = &cobra.Command{
	Use:     "transceiver",
	Aliases: []string{"sfp", "qsfp"},
	Short:   "Optical transceiver identity, diagnostics and power mode",
}

var transceiverListCmd = &cobra.Command{
	Use:   "list",
	Short: "List transceiver cages",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		for _, m := range cfg.Transceivers {
			fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\n", m.Name, m.Kind)
		}
		return nil
	},
}

var transceiverInfoCmd = &cobra.Command{
	Use:   "info NAME",
	Short: "Print identity and diagnostics",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		m, err := module(args[0])
		if err != nil {
			return err
		}
		info, err := newTransceivers().Info(m)
		if err != nil {
			return err
		}
		w := cmd.OutOrStdout()
		fmt.Fprintf(w, "Vendor:\t%s\n", info.Vendor)
		if m.Kind == transceiver.QSFP {
			fmt.Fprintf(w, "Part Number:\t%s\n", info.PartNumber)
		}
		fmt.Fprintf(w, "Serial Number:\t%s\n", info.SerialNumber)
		fmt.Fprintf(w, "Internal Temperature(C):\t%.3f\n", info.Temperature)
		fmt.Fprintf(w, "Supply Voltage(V):\t%.4f\n", info.Voltage)
		for _, a := range info.Alarms {
			fmt.Fprintf(w, "Status (%s):\t0x%x\n", a.Name, a.Value)
		}
		return nil
	},
}

var transceiverGetPowerModeCmd = &cobra.Command{
	Use:   "getpwm NAME",
	Short: "Read the power mode",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		m, err := module(args[0])
		if err != nil {
			return err
		}
		v, err := newTransceivers().PowerMode(m)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Power Mode:\t0x%x\n", v)
		return nil
	},
}

var transceiverSetPowerModeCmd = &cobra.Command{
	Use:   "setpwm NAME HEX",
	Short: "Write the power mode",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		m, err := module(args[0])
		if err != nil {
			return err
		}
		v, err := parseHex(args[1])
		if err != nil {
			return err
		}
		return newTransceivers().SetPowerMode(m, v)
	},
}

var transceiverGetOverrideCmd = &cobra.Command{
	Use:   "getpwmo NAME",
	Short: "Read the low power mode override of a QSFP",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		m, err := module(args[0])
		if err != nil {
			return err
		}
		v, err := newTransceivers().PowerModeOverride(m)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Power Mode Override:\t0x%x\n", v)
		return nil
	},
}

var transceiverSetOverrideCmd = &cobra.Command{
	Use:   "setpwmo NAME HEX",
	Short: "Write the low power mode override of a QSFP (0, 1 or 3)",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		m, err := module(args[0])
		if err != nil {
			return err
		}
		v, err := parseHex(args[1])
		if err != nil {
			return err
		}
		return newTransceivers().SetPowerModeOverride(m, v)
	},
}

func init() {
	transceiverCmd.AddCommand(transceiverListCmd, transceiverInfoCmd,
		transceiverGetPowerModeCmd, transceiverSetPowerModeCmd,
		transceiverGetOverrideCmd, transceiverSetOverrideCmd)
	rootCmd.AddCommand(transceiverCmd)
}

func module(name string) (transceiver.Module, error) {
	m, ok := cfg.Transceiver(name)
	if !ok {
		return m, unknown("transceiver", name, names(len(cfg.Transceivers), func(i int) string { return cfg.Transceivers[i].Name }))
	}
	return m, nil
}

// parseHex reads a register value, with or without a 0x prefix.
func parseHex(s string) (uint, error) {
	v, err := strconv.ParseUint(strings.TrimPrefix(strings.ToLower(s), "0x"), 16, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid value %q: %w", s, err)
	}
	return uint(v), nil
}

// Copyright 2026 the u-root Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/u-root/scbmc/pkg/power"
)

var powerCmd = &cobra.Command{
	Use:   "power",
	Short: "INA226 power sensors and power domains",
}

var powerListCmd = &cobra.Command{
	Use:   "list",
	Short: "List power sensors",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		for _, s := range cfg.PowerSensors {
			fmt.Fprintln(cmd.OutOrStdout(), s.Name)
		}
		return nil
	},
}

var powerGetCmd = &cobra.Command{
	Use:   "get NAME",
	Short: "Read voltage, current and power of a sensor",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, ok := cfg.PowerSensor(args[0])
		if !ok {
			return unknown("power sensor", args[0], names(len(cfg.PowerSensors), func(i int) string { return cfg.PowerSensors[i].Name }))
		}
		r, err := power.NewController(opener).Read(s)
		if err != nil {
			return err
		}
		w := cmd.OutOrStdout()
		fmt.Fprintf(w, "Voltage(V):\t%.4f\n", r.Volts)
		fmt.Fprintf(w, "Current(A):\t%.4f\n", r.Amps)
		fmt.Fprintf(w, "Power(W):\t%.4f\n", r.Watts)
		return nil
	},
}

var powerDomainCmd = &cobra.Command{
	Use:   "domain [NAME]",
	Short: "Total power of a domain, or list the domains",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(args) == 0 {
			for _, d := range cfg.PowerDomains {
				fmt.Fprintln(cmd.OutOrStdout(), d.Name)
			}
			return nil
		}
		d, ok := cfg.PowerDomain(args[0])
		if !ok {
			return unknown("power domain", args[0], names(len(cfg.PowerDomains), func(i int) string { return cfg.PowerDomains[i].Name }))
		}
		total, err := power.NewController(opener).Total(d, cfg.PowerSensor)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Power(W):\t%.4f\n", total)
		return nil
	},
}

func init() {
	powerCmd.AddCommand(powerListCmd, powerGetCmd, powerDomainCmd)
	rootCmd.AddCommand(powerCmd)
}

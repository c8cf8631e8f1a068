// Copyright 2026 the u-root Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/u-root/scbmc/pkg/spd"
)

var ddrCmd = &cobra.Command{
	Use:       "ddr [spd|temp]",
	Short:     "DIMM identity and temperature, both if no target is given",
	Args:      cobra.MatchAll(cobra.MaximumNArgs(1), cobra.OnlyValidArgs),
	ValidArgs: []string{"spd", "temp"},
	RunE:      runDDR,
}

func init() {
	rootCmd.AddCommand(ddrCmd)
}

func yesNo(b bool) string {
	if b {
		return "Yes"
	}
	return "No"
}

func runDDR(cmd *cobra.Command, args []string) error {
	target := ""
	if len(args) == 1 {
		target = args[0]
	}
	c := spd.NewController(opener)
	w := cmd.OutOrStdout()

	if target != "spd" {
		t, err := c.Temperature(cfg.DIMM)
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "Temperature(C):\t%.2f\n", t)
	}
	if target != "temp" {
		s, err := c.SPD(cfg.DIMM)
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "DDR4 SDRAM?\t%s\n", yesNo(s.DDR4))
		fmt.Fprintf(w, "Size:\t%s\n", s.Size())
		fmt.Fprintf(w, "Temp. Sensor?\t%s\n", yesNo(s.ThermalSensor))
	}
	return nil
}

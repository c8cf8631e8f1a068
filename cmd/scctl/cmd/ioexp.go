// Copyright 2026 the u-root Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package cmd

import (
	"fmt"
	"math"

	"github.com/spf13/cobra"

	"github.com/u-root/scbmc/pkg/hwerr"
	"github.com/u-root/scbmc/pkg/ioexp"
)

var ioexpCmd = &cobra.Command{
	Use:   "ioexp",
	Short: "TCA6416A IO expander pins",
}

var ioexpGetCmd = &cobra.Command{
	Use:       "get all|input|output",
	Short:     "Read the expander registers or the labelled pins",
	Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
	ValidArgs: []string{"all", "input", "output"},
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := expander()
		if err != nil {
			return err
		}
		c := ioexp.NewController(opener)
		w := cmd.OutOrStdout()
		var pins []ioexp.PinValue
		switch args[0] {
		case "all":
			s, err := c.State(e)
			if err != nil {
				return err
			}
			fmt.Fprintf(w, "Input GPIO:\t0x%x\n", s.Input)
			fmt.Fprintf(w, "Output GPIO:\t0x%x\n", s.Output)
			fmt.Fprintf(w, "Direction:\t0x%x\n", s.Direction)
			return nil
		case "input":
			pins, err = c.Inputs(e)
		case "output":
			pins, err = c.Outputs(e)
		}
		if err != nil {
			return err
		}
		for _, p := range pins {
			fmt.Fprintf(w, "%s:\t%d\n", p.Label, p.Value)
		}
		return nil
	},
}

var ioexpSetCmd = &cobra.Command{
	Use:       "set direction|output VALUE",
	Short:     "Write the direction or output register, VALUE in hex",
	Args:      cobra.ExactArgs(2),
	ValidArgs: []string{"direction", "output"},
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := expander()
		if err != nil {
			return err
		}
		v, err := parseHex(args[1])
		if err != nil {
			return err
		}
		if v > math.MaxUint16 {
			return &hwerr.ValidationError{Field: e.Name + " " + args[0], Value: fmt.Sprintf("0x%x", v), Msg: "exceeds 16 bits"}
		}
		c := ioexp.NewController(opener)
		switch args[0] {
		case "direction":
			return c.SetDirection(e, uint16(v))
		case "output":
			return c.SetOutput(e, uint16(v))
		}
		return fmt.Errorf("invalid register %q, valid registers are [direction output]", args[0])
	},
}

var ioexpRestoreCmd = &cobra.Command{
	Use:   "restore",
	Short: "Restore the directions and outputs of the board description",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := expander()
		if err != nil {
			return err
		}
		return ioexp.NewController(opener).Restore(e)
	},
}

func init() {
	ioexpCmd.AddCommand(ioexpGetCmd, ioexpSetCmd, ioexpRestoreCmd)
	rootCmd.AddCommand(ioexpCmd)
}

func expander() (ioexp.Expander, error) {
	if cfg.IOExpander.Name == "" {
		return ioexp.Expander{}, fmt.Errorf("board %s has no IO expander", cfg.Board)
	}
	return cfg.IOExpander, nil
}

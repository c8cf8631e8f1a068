// Copyright 2026 the u-root Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package cmd

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/u-root/scbmc/pkg/fru"
)

var areas = []string{"summary", "all", "common", "board", "multirecord"}

var eepromCmd = &cobra.Command{
	Use:       "eeprom [summary|all|common|board|multirecord]",
	Short:     "Decode the on-board EEPROM",
	Args:      cobra.MatchAll(cobra.MaximumNArgs(1), cobra.OnlyValidArgs),
	ValidArgs: areas,
	RunE:      runEEPROM,
}

var ebmCmd = &cobra.Command{
	Use:       "ebm all|common|board|multirecord",
	Short:     "Decode the daughter card EEPROM",
	Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
	ValidArgs: areas[1:],
	RunE: func(cmd *cobra.Command, args []string) error {
		if cfg.EBM.Name == "" {
			return fmt.Errorf("board %s has no daughter card EEPROM", cfg.Board)
		}
		buf, err := fru.Read(opener, cfg.EBM)
		if err != nil {
			return err
		}
		return printArea(cmd.OutOrStdout(), buf, args[0], cfg.EBM.PCIe)
	},
}

var fmcCmd = &cobra.Command{
	Use:   "fmc",
	Short: "Mezzanine card EEPROMs",
}

var fmcListCmd = &cobra.Command{
	Use:   "list",
	Short: "List plugged mezzanine cards",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		plugged, err := fru.List(opener, cfg.FMCs)
		if err != nil {
			return err
		}
		for _, p := range plugged {
			fmt.Fprintf(cmd.OutOrStdout(), "%s: %s %s\n", p.Source.Name, p.Manufacturer, p.ProductName)
		}
		return nil
	},
}

var fmcGetCmd = &cobra.Command{
	Use:   "get NAME [all|common|board|multirecord]",
	Short: "Decode the EEPROM of a mezzanine card",
	Args:  cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		src, err := fmcSource(args[0])
		if err != nil {
			return err
		}
		area := "all"
		if len(args) == 2 {
			area = args[1]
		}
		if area == "summary" {
			return fmt.Errorf("summary is only available for the on-board EEPROM")
		}
		buf, err := fru.Read(opener, src)
		if err != nil {
			return err
		}
		return printArea(cmd.OutOrStdout(), buf, area, src.PCIe)
	},
}

var fmcVadjCmd = &cobra.Command{
	Use:   "vadj NAME",
	Short: "Print the adjustable voltage range a mezzanine card accepts",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		src, err := fmcSource(args[0])
		if err != nil {
			return err
		}
		buf, err := fru.Read(opener, src)
		if err != nil {
			return err
		}
		records, err := fru.DecodeMultirecordArea(buf)
		if err != nil {
			return err
		}
		min, max, ok := fru.VadjRange(records)
		if !ok {
			return fmt.Errorf("%s has no voltage adjust record", src.Name)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Vadj Min(V):\t%.2f\nVadj Max(V):\t%.2f\n", min, max)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(eepromCmd, ebmCmd)
	fmcCmd.AddCommand(fmcListCmd, fmcGetCmd, fmcVadjCmd)
	rootCmd.AddCommand(fmcCmd)
}

func fmcSource(name string) (fru.Source, error) {
	for _, s := range cfg.FMCs {
		if s.Name == name {
			if !fru.Probe(opener, s) {
				return s, fmt.Errorf("%s is not plugged", name)
			}
			return s, nil
		}
	}
	return fru.Source{}, unknown("FMC", name, names(len(cfg.FMCs), func(i int) string { return cfg.FMCs[i].Name }))
}

func runEEPROM(cmd *cobra.Command, args []string) error {
	area := "summary"
	if len(args) == 1 {
		area = args[0]
	}
	src := cfg.OnboardEEPROM
	var buf []byte
	var err error
	if cfg.EEPROMPath != "" {
		size := src.Size
		if size == 0 {
			size = fru.DefaultImageSize
		}
		buf, err = fru.ReadFile(fs, cfg.EEPROMPath, size)
	} else {
		buf, err = fru.Read(opener, src)
	}
	if err != nil {
		return err
	}
	return printArea(cmd.OutOrStdout(), buf, area, src.PCIe)
}

func printArea(w io.Writer, buf []byte, area string, pcie bool) error {
	switch area {
	case "summary":
		s, err := fru.DecodeSummary(buf)
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "Language: %d\n", s.Language)
		fmt.Fprintf(w, "Manufacturing Date: %s\n", s.ManufacturedAt.Format("Mon Jan _2 15:04:05 2006"))
		fmt.Fprintf(w, "Manufacturer: %s\n", s.Manufacturer)
		fmt.Fprintf(w, "Product Name: %s\n", s.ProductName)
		fmt.Fprintf(w, "Board Serial Number: %s\n", s.SerialNumber)
		fmt.Fprintf(w, "Board Part Number: %s\n", s.PartNumber)
		fmt.Fprintf(w, "Board Revision: %s\n", s.Revision)
		fmt.Fprintf(w, "MAC Address 0: %s\n", s.MAC0)
		fmt.Fprintf(w, "MAC Address 1: %s\n", s.MAC1)
	case "all":
		dump(w, buf, 16)
	case "common":
		h, err := fru.DecodeCommonHeader(buf)
		if err != nil {
			return err
		}
		if err := h.Verify(); err != nil {
			log.Warnf("%v", err)
		}
		fmt.Fprintf(w, "Common Header Format Version: %02x\n", h.Version)
		fmt.Fprintf(w, "Internal Use Area Starting Offset: %02x\n", h.InternalUseOffset)
		fmt.Fprintf(w, "Chassis Info Area Starting Offset: %02x\n", h.ChassisInfoOffset)
		fmt.Fprintf(w, "Board Area Starting Offset: %02x\n", h.BoardOffset)
		fmt.Fprintf(w, "Product Info Area Starting Offset: %02x\n", h.ProductInfoOffset)
		fmt.Fprintf(w, "MultiRecord Area Starting Offset: %02x\n", h.MultirecordOffset)
		fmt.Fprintf(w, "Common Header Checksum: %02x\n", h.Checksum)
	case "board":
		b, err := fru.DecodeBoardArea(buf, pcie)
		if err != nil {
			return err
		}
		printBoard(w, b)
	case "multirecord":
		records, err := fru.DecodeMultirecordArea(buf)
		if err != nil {
			return err
		}
		for i := range records {
			printRecord(w, &records[i])
		}
	default:
		return fmt.Errorf("invalid EEPROM area %q, valid areas are %v", area, areas)
	}
	return nil
}

func dump(w io.Writer, buf []byte, width int) {
	fmt.Fprint(w, "    ")
	for i := 0; i < width; i++ {
		fmt.Fprintf(w, "%2x ", i)
	}
	for i, b := range buf {
		if i%width == 0 {
			fmt.Fprintf(w, "\n%02x: ", i)
		}
		fmt.Fprintf(w, "%02x ", b)
	}
	fmt.Fprintln(w)
}

func printBoard(w io.Writer, b *fru.BoardArea) {
	fmt.Fprintf(w, "Board Area Format Version: %02x\n", b.Version)
	fmt.Fprintf(w, "Board Area Length: %d\n", int(b.Length)*fru.AreaUnit)
	fmt.Fprintf(w, "Language Code: %d\n", b.Language)
	fmt.Fprintf(w, "Manufacturing Date: %s\n", b.ManufacturedAt.Format("Mon Jan _2 15:04:05 2006"))
	fmt.Fprintf(w, "Board Manufacturer: %s\n", b.Manufacturer)
	fmt.Fprintf(w, "Board Product Name: %s\n", b.ProductName)
	fmt.Fprintf(w, "Board Serial Number: %s\n", b.SerialNumber)
	fmt.Fprintf(w, "Board Part Number: %s\n", b.PartNumber)
	fmt.Fprintf(w, "FRU File ID: %s\n", b.FRUFileIDString())
	fmt.Fprintf(w, "Board Revision: %s\n", b.Revision)
	if b.PCIeInfo != "" {
		fmt.Fprintf(w, "PCIe Info: %s\n", b.PCIeInfo)
	}
	if b.UUID != "" {
		fmt.Fprintf(w, "UUID: %s\n", b.UUID)
	}
}

func printRecord(w io.Writer, r *fru.Record) {
	fmt.Fprintf(w, "%s Record (offset 0x%02x, %d bytes)\n", r.Type, r.Offset, r.Length)
	switch {
	case r.DC != nil:
		d := r.DC
		switch {
		case r.Type == fru.DCLoadRecord && d.VoltageAdjust():
			fmt.Fprintln(w, "  Output: Vadj")
		default:
			fmt.Fprintf(w, "  Output: %d\n", d.OutputNumber)
		}
		fmt.Fprintf(w, "  Nominal Voltage(V): %.2f\n", d.Nominal)
		fmt.Fprintf(w, "  Minimum Voltage(V): %.2f\n", d.Min)
		fmt.Fprintf(w, "  Maximum Voltage(V): %.2f\n", d.Max)
		fmt.Fprintf(w, "  Ripple and Noise(mV): %d\n", d.RippleNoise)
		fmt.Fprintf(w, "  Minimum Current(mA): %d\n", d.MinCurrent)
		fmt.Fprintf(w, "  Maximum Current(mA): %d\n", d.MaxCurrent)
	case r.MACID != nil:
		fmt.Fprintf(w, "  IANA: %06x\n", r.MACID.IANA)
		for i, mac := range r.MACID.MACs {
			fmt.Fprintf(w, "  MAC Address %d: %s\n", i, mac)
		}
	case r.Memory != nil:
		fmt.Fprintf(w, "  IANA: %06x\n", r.Memory.IANA)
		fmt.Fprintf(w, "  Memory Type: %s\n", r.Memory.MemoryType)
		fmt.Fprintf(w, "  Voltage Supply: %s\n", r.Memory.VoltageSupply)
	case r.VITA571 != nil:
		v := r.VITA571
		fmt.Fprintf(w, "  OUI: %06x\n", v.OUI)
		fmt.Fprintf(w, "  Subtype Version: %02x\n", v.SubtypeVersion)
		fmt.Fprintf(w, "  Connector Type: %02x\n", v.ConnectorType)
		fmt.Fprintf(w, "  P1 Bank A Signals: %d\n", v.P1BankA)
		fmt.Fprintf(w, "  P1 Bank B Signals: %d\n", v.P1BankB)
		fmt.Fprintf(w, "  P2 Bank A Signals: %d\n", v.P2BankA)
		fmt.Fprintf(w, "  P2 Bank B Signals: %d\n", v.P2BankB)
		fmt.Fprintf(w, "  P1 GBT Signals: %d\n", v.P1GBT)
		fmt.Fprintf(w, "  Max TCK(MHz): %d\n", v.MaxTCKMHz)
	}
	if err := r.VerifyChecksums(); err != nil {
		log.Warnf("%v", err)
	}
}

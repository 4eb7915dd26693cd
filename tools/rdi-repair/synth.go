// Copyright 2019 Radiation Detection and Imaging (RDI), LLC
// Use of this source code is governed by the BSD 3-clause
// license that can be found in the LICENSE file.

package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/rditech/rdi-repair/synth"
	"github.com/spf13/cobra"
)

var (
	synthSpec   = synth.DefaultSpec()
	synthPoints int
	synthKeys   []string
)

var synthCmd = &cobra.Command{
	Use:   "synth <dir>",
	Short: "Write a synthetic raw record with dropped frames and its metadata",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		dir := args[0]
		if err := os.MkdirAll(dir, 0755); err != nil {
			return err
		}

		raw := filepath.Join(dir, "scan"+cfg.Metadata.RawSuffix+".db")
		if err := synth.WriteRaw(raw, cfg.Raw.FrameKey, cfg.Raw.TimestampKey, synthSpec, logger); err != nil {
			return err
		}

		points := synthPoints
		if points == 0 {
			points = (synthSpec.Intended + cfg.Reconstruct.Average - 1) / cfg.Reconstruct.Average
		}
		docs := filepath.Join(dir, "scan"+cfg.Metadata.DocumentSuffix)
		f, err := os.Create(docs)
		if err != nil {
			return err
		}
		if err := synth.WriteDocuments(f, synthKeys, points); err != nil {
			f.Close()
			return err
		}
		if err := f.Close(); err != nil {
			return err
		}

		fmt.Fprintf(cmd.OutOrStdout(), "%s\n%s\n", raw, docs)
		return nil
	},
}

func init() {
	fs := synthCmd.Flags()
	fs.IntVar(&synthSpec.Intended, "frames", synthSpec.Intended, "frames the detector should have recorded")
	fs.IntVar(&synthSpec.Rows, "rows", synthSpec.Rows, "frame height")
	fs.IntVar(&synthSpec.Cols, "cols", synthSpec.Cols, "frame width")
	fs.IntSliceVar(&synthSpec.Dropped, "drop", synthSpec.Dropped, "logical indices of dropped frames")
	fs.Float64Var(&synthSpec.Cadence, "cadence", synthSpec.Cadence, "frame period in seconds")
	fs.IntVar(&synthPoints, "points", 0, "scan points in the metadata; 0 for one per window")
	fs.StringSliceVar(&synthKeys, "keys", []string{"sample_lift", "sample_translate", "beamline_energy", "ring_current"}, "positioners in the metadata")
}

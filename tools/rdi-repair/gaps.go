// Copyright 2019 Radiation Detection and Imaging (RDI), LLC
// Use of this source code is governed by the BSD 3-clause
// license that can be found in the LICENSE file.

package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/rditech/rdi-repair/data"
	"github.com/rditech/rdi-repair/plot"
	"github.com/rditech/rdi-repair/store"
	"github.com/spf13/cobra"
)

var (
	gapsFlags windowFlags
	plotPath  string
)

var gapsCmd = &cobra.Command{
	Use:   "gaps <raw>",
	Short: "Locate dropped frames from the frame timestamps",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := gapsFlags.apply(cmd, cfg); err != nil {
			return err
		}

		raw, cleanup, err := data.Fetch(cmd.Context(), args[0], cfg.GCS.Credentials)
		if err != nil {
			return err
		}
		defer cleanup()

		det, err := findGaps(cmd.Context(), raw)
		if det == nil {
			return err
		}
		printWarnings(cmd, det.Warnings)
		fmt.Fprintf(cmd.OutOrStdout(), "%d intervals, %d outliers, %d frames expected missing\ngaps: %v\n",
			len(det.Deltas), len(det.Outliers), det.Expected, []int(det.Gaps))

		if plotPath != "" {
			if perr := writePlot(plotPath, det); perr != nil {
				return errors.Join(err, perr)
			}
		}
		return err
	},
}

// findGaps runs the gap search over the timestamps of a local raw record.
// On an inconsistent gap count the Detection is returned with the error.
func findGaps(ctx context.Context, raw string) (*data.Detection, error) {
	var ts []float64
	err := store.With(raw, func(s *store.Store) error {
		var err error
		ts, err = s.ReadVector(cfg.Raw.TimestampKey)
		return err
	}, store.WithLogger(logger))
	if err != nil {
		return nil, err
	}
	return data.DetectGaps(ts, detectorParams(cfg))
}

func writePlot(path string, det *data.Detection) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := plot.WriteGapDiagnostics(f, det); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func init() {
	gapsFlags.registerDetector(gapsCmd)
	gapsCmd.Flags().IntVarP(&gapsFlags.average, "average", "a", 0, "window size, used as frames per scan point when --n-images is 0")
	gapsCmd.Flags().StringVar(&plotPath, "plot", "", "write a PNG of the interval diagnostics")
}

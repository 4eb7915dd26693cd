// Copyright 2019 Radiation Detection and Imaging (RDI), LLC
// Use of this source code is governed by the BSD 3-clause
// license that can be found in the LICENSE file.

package main

import (
	"fmt"

	"github.com/proio-org/go-proio"
	"github.com/rditech/rdi-repair/data"
	"github.com/rditech/rdi-repair/store"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	reconFlags  windowFlags
	stackPath   string
	stackKey    string
	proioPath   string
	compression int
)

var reconstructCmd = &cobra.Command{
	Use:   "reconstruct <raw>",
	Short: "Average the frame stack over windows that skip dropped frames",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := reconFlags.apply(cmd, cfg); err != nil {
			return err
		}
		if cmd.Flags().Changed("compression") {
			cfg.Export.Compression = compression
		}
		roi, err := data.ROIFromSlice(cfg.Reconstruct.ROI)
		if err != nil {
			return err
		}

		raw, cleanup, err := data.Fetch(cmd.Context(), args[0], cfg.GCS.Credentials)
		if err != nil {
			return err
		}
		defer cleanup()

		var gaps data.GapSet
		if given := reconFlags.gapSet(cmd); given != nil {
			if gaps, err = data.NewGapSet(given); err != nil {
				return err
			}
		} else {
			det, err := findGaps(cmd.Context(), raw)
			if err != nil {
				return err
			}
			printWarnings(cmd, det.Warnings)
			gaps = det.Gaps
		}
		logger.Info("reconstructing", zap.Ints("gaps", gaps))

		var st *data.Stack
		err = store.With(raw, func(s *store.Store) error {
			src, err := s.FrameSource(cfg.Raw.FrameKey)
			if err != nil {
				return err
			}
			st, err = data.Reconstruct(src, gaps, data.ReconstructOptions{
				Average: cfg.Reconstruct.Average,
				ROI:     roi,
				Logger:  logger,
			})
			return err
		}, store.WithLogger(logger))
		if err != nil {
			return err
		}
		printWarnings(cmd, st.Warnings)

		if err := store.WriteStack(stackPath, stackKey, st, store.WithLogger(logger)); err != nil {
			return err
		}
		if proioPath != "" {
			if err := exportStack(proioPath, st); err != nil {
				return err
			}
		}

		rows, cols := st.Shape()
		fmt.Fprintf(cmd.OutOrStdout(), "%s:%s: %d frames of %dx%d\n", stackPath, stackKey, st.Len(), rows, cols)
		return nil
	},
}

func exportStack(path string, st *data.Stack) error {
	writer, err := proio.Create(path)
	if err != nil {
		return err
	}
	if err := data.SetCompression(writer, cfg.Export.Compression); err != nil {
		writer.Close()
		return err
	}
	if err := data.ExportProio(writer, st); err != nil {
		writer.Close()
		return err
	}
	return writer.Close()
}

func init() {
	reconFlags.register(reconstructCmd)
	fs := reconstructCmd.Flags()
	fs.StringVarP(&stackPath, "output", "o", "", "store to write the frame stack to")
	fs.StringVar(&stackKey, "key", "data", "dataset key of the frame stack")
	fs.StringVar(&proioPath, "proio", "", "also export the stack as a proio stream")
	fs.IntVarP(&compression, "compression", "c", 1, "proio compression level: 0 for uncompressed, 1 for LZ4 compression, 2 for GZIP compression, 3 for LZMA compression")
	reconstructCmd.MarkFlagRequired("output")
}

// Copyright 2019 Radiation Detection and Imaging (RDI), LLC
// Use of this source code is governed by the BSD 3-clause
// license that can be found in the LICENSE file.

package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/rditech/rdi-repair/config"
	"github.com/rditech/rdi-repair/data"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	verbose    bool
	configPath string

	cfg    *config.Config
	logger *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "rdi-repair",
	Short: "Repair detector records with dropped frames",
	Long: `rdi-repair rebuilds detector records whose frame stream lost frames.

Dropped frames are located from the acquisition timestamps, the frame stack is
averaged over windows that skip them, and the result is written together with
the scan's positioner readings in the canonical beamline layout.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load(configPath)
		if err != nil {
			return err
		}
		if err := cfg.Validate(); err != nil {
			return fmt.Errorf("config %s: %w", configPath, err)
		}

		level, err := cfg.LogLevel()
		if err != nil {
			return err
		}
		if verbose {
			level = zapcore.DebugLevel
		}
		zc := zap.NewProductionConfig()
		zc.Level = zap.NewAtomicLevelAt(level)
		logger, err = zc.Build()
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

// windowFlags are the reconstruction settings shared by repair and
// reconstruct.
type windowFlags struct {
	average    int
	roi        []int
	gaps       []int
	eps        float64
	minSamples int
	nImages    int
}

func (f *windowFlags) register(cmd *cobra.Command) {
	fs := cmd.Flags()
	fs.IntVarP(&f.average, "average", "a", 0, "frames averaged into one output frame (default from config)")
	fs.IntSliceVar(&f.roi, "roi", nil, "region of interest row_min,row_max,col_min,col_max (default from config)")
	fs.IntSliceVar(&f.gaps, "gaps", nil, "logical indices of dropped frames; detected from timestamps if not given")
	f.registerDetector(cmd)
}

func (f *windowFlags) registerDetector(cmd *cobra.Command) {
	fs := cmd.Flags()
	fs.Float64Var(&f.eps, "eps", 0, "DBSCAN neighbourhood radius on standardized intervals (default from config)")
	fs.IntVar(&f.minSamples, "min-samples", 0, "DBSCAN core point density (default from config)")
	fs.IntVar(&f.nImages, "n-images", 0, "frames per scan point; 0 uses the window size")
}

// apply overlays the flags that were set on the config file values.
func (f *windowFlags) apply(cmd *cobra.Command, c *config.Config) error {
	fs := cmd.Flags()
	if fs.Changed("average") {
		c.Reconstruct.Average = f.average
	}
	if fs.Changed("roi") {
		c.Reconstruct.ROI = f.roi
	}
	if fs.Changed("eps") {
		c.Detector.Eps = f.eps
	}
	if fs.Changed("min-samples") {
		c.Detector.MinSamples = f.minSamples
	}
	if fs.Changed("n-images") {
		c.Detector.NImages = f.nImages
	}
	if c.Reconstruct.Average < 1 {
		return fmt.Errorf("%w: got %d", data.ErrInvalidAverage, c.Reconstruct.Average)
	}
	if _, err := data.ROIFromSlice(c.Reconstruct.ROI); err != nil {
		return err
	}
	return nil
}

func (f *windowFlags) gapSet(cmd *cobra.Command) []int {
	if !cmd.Flags().Changed("gaps") {
		return nil
	}
	if f.gaps == nil {
		return []int{}
	}
	return f.gaps
}

func detectorParams(c *config.Config) data.DetectorParams {
	p := data.DetectorParams{
		NImages:    c.Detector.NImages,
		Eps:        c.Detector.Eps,
		MinSamples: c.Detector.MinSamples,
		Logger:     logger,
	}
	if p.NImages == 0 {
		p.NImages = c.Reconstruct.Average
	}
	return p
}

func printWarnings(cmd *cobra.Command, ws data.Warnings) {
	for _, w := range ws {
		fmt.Fprintf(cmd.ErrOrStderr(), "warning (%s): %s\n", w.Kind, w.Message)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose logging")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "rdi-repair.yaml", "config file")

	rootCmd.AddCommand(repairCmd)
	rootCmd.AddCommand(gapsCmd)
	rootCmd.AddCommand(reconstructCmd)
	rootCmd.AddCommand(treeCmd)
	rootCmd.AddCommand(synthCmd)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		stop()
		os.Exit(1)
	}
}

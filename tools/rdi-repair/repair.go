// Copyright 2019 Radiation Detection and Imaging (RDI), LLC
// Use of this source code is governed by the BSD 3-clause
// license that can be found in the LICENSE file.

package main

import (
	"fmt"

	"github.com/go-redis/redis"
	"github.com/rditech/rdi-repair/lock"
	"github.com/rditech/rdi-repair/repair"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	repairFlags   windowFlags
	metadataPath  string
	outputPath    string
	keys          []string
	fallbackToAll bool
)

var repairCmd = &cobra.Command{
	Use:   "repair <raw>",
	Short: "Rebuild a raw record into the canonical layout",
	Long: `Rebuild a raw record into the canonical layout. The stages are:

` + repair.Pipeline().Describe(),
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := repairFlags.apply(cmd, cfg); err != nil {
			return err
		}
		if cmd.Flags().Changed("keys") {
			cfg.Metadata.Keys = keys
		}
		if cmd.Flags().Changed("fallback-to-all") {
			cfg.Metadata.FallbackToAll = fallbackToAll
		}

		opts, err := repair.OptionsFromConfig(cfg)
		if err != nil {
			return err
		}
		opts.Raw = args[0]
		opts.Metadata = metadataPath
		opts.Output = outputPath
		opts.Gaps = repairFlags.gapSet(cmd)
		opts.Logger = logger
		if opts.Output == "" {
			opts.Output = repair.DeriveOutputName(opts.Raw, opts.OutputSuffix)
		}

		if cfg.Lock.Addr != "" {
			client := redis.NewClient(&redis.Options{Addr: cfg.Lock.Addr})
			defer client.Close()
			l, err := lock.Acquire(client, lock.KeyFor(opts.Output), cfg.LockTTL())
			if err != nil {
				return err
			}
			logger.Debug("holding output lock", zap.String("key", l.Key()))
			defer func() {
				if err := l.Release(); err != nil {
					logger.Warn("releasing output lock", zap.Error(err))
				}
			}()
		}

		res, err := repair.Run(cmd.Context(), opts)
		if err != nil {
			return err
		}

		printWarnings(cmd, res.Warnings)
		rows, cols := res.Stack.Shape()
		fmt.Fprintf(cmd.OutOrStdout(), "%s: %d frames of %dx%d from %d recorded, %d dropped; %d positioners from %s\n",
			res.Output, res.Stack.Len(), rows, cols, res.Stack.Recorded, len(res.Stack.Gaps),
			len(res.Mapping.Placements), res.Metadata)
		return nil
	},
}

func init() {
	repairFlags.register(repairCmd)
	fs := repairCmd.Flags()
	fs.StringVarP(&metadataPath, "metadata", "m", "", "bluesky document list; derived from the raw name if empty")
	fs.StringVarP(&outputPath, "output", "o", "", "repaired record; <raw>_repaired<ext> if empty")
	fs.StringSliceVar(&keys, "keys", nil, "positioners to keep (default: all)")
	fs.BoolVar(&fallbackToAll, "fallback-to-all", false, "keep all positioners when a requested one is missing")
}

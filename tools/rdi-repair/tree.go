// Copyright 2019 Radiation Detection and Imaging (RDI), LLC
// Use of this source code is governed by the BSD 3-clause
// license that can be found in the LICENSE file.

package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/rditech/rdi-repair/data"
	"github.com/rditech/rdi-repair/store"
	"github.com/spf13/cobra"
)

var treeCmd = &cobra.Command{
	Use:   "tree <store>",
	Short: "Print the groups and datasets of a store",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path, cleanup, err := data.Fetch(cmd.Context(), args[0], cfg.GCS.Credentials)
		if err != nil {
			return err
		}
		defer cleanup()

		return store.With(path, func(s *store.Store) error {
			return printTree(cmd.OutOrStdout(), s)
		}, store.WithLogger(logger))
	},
}

func printTree(w io.Writer, s *store.Store) error {
	return s.Walk(func(depth int, n store.Node) error {
		indent := strings.Repeat("    ", depth)
		if n.Kind == store.KindGroup {
			_, err := fmt.Fprintf(w, "%s%s/\n", indent, n.Name)
			return err
		}
		_, err := fmt.Fprintf(w, "%s%s %v %s\n", indent, n.Name, n.Shape, n.DType)
		return err
	})
}

// Copyright 2019 Radiation Detection and Imaging (RDI), LLC
// Use of this source code is governed by the BSD 3-clause
// license that can be found in the LICENSE file.

package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/proio-org/go-proio"
	"github.com/rditech/rdi-repair/data"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&errOut)
	rootCmd.SetArgs(append([]string{"--config", filepath.Join(t.TempDir(), "none.yaml")}, args...))
	err := rootCmd.Execute()
	return out.String(), err
}

func TestCommands(t *testing.T) {
	t.Setenv("REDIS_ADDR", "")
	t.Setenv("RDI_REPAIR_LOG_LEVEL", "error")
	dir := t.TempDir()
	raw := filepath.Join(dir, "scan_0.db")

	out, err := execute(t, "synth", dir, "--frames", "60", "--rows", "4", "--cols", "4", "--drop", "17,41")
	require.NoError(t, err)
	assert.Contains(t, out, raw)
	assert.FileExists(t, filepath.Join(dir, "scan_documents.json"))

	png := filepath.Join(dir, "gaps.png")
	out, err = execute(t, "gaps", raw, "--plot", png)
	require.NoError(t, err)
	assert.Contains(t, out, "gaps: [17 41]")
	assert.FileExists(t, png)

	out, err = execute(t, "repair", raw)
	require.NoError(t, err)
	assert.Contains(t, out, "6 frames of 4x4 from 58 recorded, 2 dropped")

	out, err = execute(t, "tree", filepath.Join(dir, "scan_0_repaired.db"))
	require.NoError(t, err)
	assert.Contains(t, out, "entry1/\n")
	assert.Contains(t, out, "detector_1/\n")
	assert.Contains(t, out, "data [6 1 4 4] <f8\n")
	assert.Contains(t, out, "ring_current [6] <f8\n")

	stack := filepath.Join(dir, "stack.db")
	stream := filepath.Join(dir, "stack.proio")
	out, err = execute(t, "reconstruct", raw, "-o", stack, "--gaps", "17,41", "--average", "5", "--proio", stream)
	require.NoError(t, err)
	assert.Contains(t, out, "12 frames of 4x4")

	reader, err := proio.Open(stream)
	require.NoError(t, err)
	defer reader.Close()
	st, err := data.ImportProio(reader)
	require.NoError(t, err)
	assert.Equal(t, 12, st.Len())
	assert.Equal(t, 5, st.Average)
}

func TestRepairRejectsBadAverage(t *testing.T) {
	t.Setenv("REDIS_ADDR", "")
	raw := filepath.Join(t.TempDir(), "scan_0.db")
	_, err := execute(t, "repair", raw, "--average", "0")
	assert.ErrorIs(t, err, data.ErrInvalidAverage)
	_, statErr := os.Stat(raw)
	assert.True(t, os.IsNotExist(statErr))
}

// Copyright 2019 Radiation Detection and Imaging (RDI), LLC
// Use of this source code is governed by the BSD 3-clause
// license that can be found in the LICENSE file.

package repair

import (
	"fmt"
	"path"
	"strings"

	"github.com/rditech/rdi-repair/config"
	"github.com/rditech/rdi-repair/data"
	"go.uber.org/zap"
)

type Options struct {
	// Raw is the recorded detector store, a local path or gs:// object.
	Raw string
	// Metadata is the bluesky document list. Empty derives it from Raw.
	Metadata string
	// Output is where the repaired record goes. Empty derives it from Raw.
	Output string

	FrameKey     string
	TimestampKey string

	Average int
	ROI     data.ROI
	// Gaps are the logical indices of dropped frames. Nil detects them from
	// the frame timestamps with Detector.
	Gaps     []int
	Detector data.DetectorParams

	// Keys selects positioners from the metadata. Empty takes all of them.
	Keys []string
	// FallbackToAll takes all positioners when one of Keys is absent.
	FallbackToAll bool

	RawSuffix      string
	DocumentSuffix string
	OutputSuffix   string

	// Credentials is a service account key file used for gs:// locations.
	Credentials string
	Logger      *zap.Logger
}

func DefaultOptions() Options {
	// the default config always carries a well formed ROI
	opts, _ := OptionsFromConfig(config.DefaultConfig())
	return opts
}

// OptionsFromConfig fills everything but the locations from cfg. A
// malformed ROI is returned as a *data.ValidationError.
func OptionsFromConfig(cfg *config.Config) (Options, error) {
	roi, err := data.ROIFromSlice(cfg.Reconstruct.ROI)
	if err != nil {
		return Options{}, err
	}
	return Options{
		FrameKey:     cfg.Raw.FrameKey,
		TimestampKey: cfg.Raw.TimestampKey,
		Average:      cfg.Reconstruct.Average,
		ROI:          roi,
		Detector: data.DetectorParams{
			NImages:    cfg.Detector.NImages,
			Eps:        cfg.Detector.Eps,
			MinSamples: cfg.Detector.MinSamples,
		},
		Keys:           append([]string(nil), cfg.Metadata.Keys...),
		FallbackToAll:  cfg.Metadata.FallbackToAll,
		RawSuffix:      cfg.Metadata.RawSuffix,
		DocumentSuffix: cfg.Metadata.DocumentSuffix,
		OutputSuffix:   cfg.Output.Suffix,
		Credentials:    cfg.GCS.Credentials,
	}, nil
}

// DeriveMetadataName maps a raw record name to its metadata document by
// replacing rawSuffix and the extension with documentSuffix, e.g.
// scan_0.h5 to scan_documents.json.
func DeriveMetadataName(raw, rawSuffix, documentSuffix string) (string, bool) {
	stem := strings.TrimSuffix(raw, path.Ext(raw))
	if rawSuffix == "" || !strings.HasSuffix(stem, rawSuffix) || strings.HasSuffix(stem, "/"+rawSuffix) {
		return "", false
	}
	return strings.TrimSuffix(stem, rawSuffix) + documentSuffix, true
}

// DeriveOutputName inserts suffix before the extension of raw, e.g.
// scan_0.h5 to scan_0_repaired.h5.
func DeriveOutputName(raw, suffix string) string {
	ext := path.Ext(raw)
	return strings.TrimSuffix(raw, ext) + suffix + ext
}

// MissingMetadataSourceError is returned when no metadata document was given
// and none could be found next to the raw record.
type MissingMetadataSourceError struct {
	Raw   string
	Tried string
}

func (e *MissingMetadataSourceError) Error() string {
	if e.Tried == "" {
		return fmt.Sprintf("no metadata document given for %s and none can be derived from its name", e.Raw)
	}
	return fmt.Sprintf("no metadata document given for %s and %s does not exist", e.Raw, e.Tried)
}

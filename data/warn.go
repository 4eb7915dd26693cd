// Copyright 2019 Radiation Detection and Imaging (RDI), LLC
// Use of this source code is governed by the BSD 3-clause
// license that can be found in the LICENSE file.

package data

import (
	"go.uber.org/zap"
)

type WarningKind string

const (
	WarnROIClamped     WarningKind = "roi-clamped"
	WarnNonFinite      WarningKind = "non-finite"
	WarnMultiFrameGap  WarningKind = "multi-frame-gap"
	WarnLengthMismatch WarningKind = "length-mismatch"
	WarnKeyFallback    WarningKind = "key-fallback"
)

// Warning is an advisory signal attached to a still valid result.
type Warning struct {
	Kind    WarningKind
	Message string
}

type Warnings []Warning

// Add records a warning and logs it.
func (ws *Warnings) Add(logger *zap.Logger, kind WarningKind, msg string, fields ...zap.Field) {
	*ws = append(*ws, Warning{Kind: kind, Message: msg})
	if logger != nil {
		logger.Warn(msg, append(fields, zap.String("kind", string(kind)))...)
	}
}

func (ws Warnings) Count(kind WarningKind) int {
	n := 0
	for _, w := range ws {
		if w.Kind == kind {
			n++
		}
	}
	return n
}

func nopIfNil(logger *zap.Logger) *zap.Logger {
	if logger == nil {
		return zap.NewNop()
	}
	return logger
}

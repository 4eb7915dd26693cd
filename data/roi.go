// Copyright 2019 Radiation Detection and Imaging (RDI), LLC
// Use of this source code is governed by the BSD 3-clause
// license that can be found in the LICENSE file.

package data

import (
	"fmt"

	"go.uber.org/zap"
)

// ROI is a rectangular crop, half open on both axes: rows [RowMin, RowMax)
// and columns [ColMin, ColMax).
type ROI struct {
	RowMin, RowMax int
	ColMin, ColMax int
}

var DefaultROI = ROI{RowMin: 0, RowMax: 2048, ColMin: 0, ColMax: 2048}

// ROIFromSlice reads the [row_min, row_max, col_min, col_max] form used on
// the command line and in config files.
func ROIFromSlice(bounds []int) (ROI, error) {
	if len(bounds) != 4 {
		return ROI{}, invalid("roi", "need 4 bounds [row_min, row_max, col_min, col_max], got %d", len(bounds))
	}
	return ROI{RowMin: bounds[0], RowMax: bounds[1], ColMin: bounds[2], ColMax: bounds[3]}, nil
}

func (r ROI) Rows() int { return r.RowMax - r.RowMin }
func (r ROI) Cols() int { return r.ColMax - r.ColMin }

func (r ROI) String() string {
	return fmt.Sprintf("[%d:%d, %d:%d]", r.RowMin, r.RowMax, r.ColMin, r.ColMax)
}

// clamp fits the ROI to a rows x cols frame. An axis whose bounds exceed the
// frame is reset to the full axis and reported once.
func (r ROI) clamp(rows, cols int, logger *zap.Logger, ws *Warnings) (ROI, error) {
	out := r
	if axisExceeds(r.RowMin, r.RowMax, rows) {
		out.RowMin, out.RowMax = 0, rows
		ws.Add(logger, WarnROIClamped,
			fmt.Sprintf("roi rows [%d, %d) exceed frame height %d, using [0, %d)", r.RowMin, r.RowMax, rows, rows),
			zap.String("axis", "row"),
		)
	}
	if axisExceeds(r.ColMin, r.ColMax, cols) {
		out.ColMin, out.ColMax = 0, cols
		ws.Add(logger, WarnROIClamped,
			fmt.Sprintf("roi columns [%d, %d) exceed frame width %d, using [0, %d)", r.ColMin, r.ColMax, cols, cols),
			zap.String("axis", "col"),
		)
	}

	if out.Rows() <= 0 || out.Cols() <= 0 {
		return ROI{}, invalid("roi", "%v selects no pixels", r)
	}
	return out, nil
}

func axisExceeds(lo, hi, size int) bool {
	return lo < 0 || hi > size || lo > size
}

// Copyright 2019 Radiation Detection and Imaging (RDI), LLC
// Use of this source code is governed by the BSD 3-clause
// license that can be found in the LICENSE file.

package data

import (
	"errors"
	"fmt"
)

var ErrInvalidAverage = errors.New("average must be at least 1")

// ValidationError reports a configuration problem detected before any frame
// is read.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

func invalid(field, format string, args ...interface{}) error {
	return &ValidationError{Field: field, Reason: fmt.Sprintf(format, args...)}
}

// InconsistentGapCountError is returned by DetectGaps when the number of
// anomalous intervals differs from the number of frames that must be missing
// for the record to fill whole scan points. Retuning Eps usually helps.
type InconsistentGapCountError struct {
	Expected int
	Found    int
	Gaps     []int
}

func (e *InconsistentGapCountError) Error() string {
	return fmt.Sprintf("found %d missing frames %v but expected %d; adjust eps", e.Found, e.Gaps, e.Expected)
}

// MissingFrameCountMismatchError is returned when the frames skipped or read
// across all windows do not add up to the gap set and the recorded frames.
type MissingFrameCountMismatchError struct {
	Gaps     int
	Replaced int
	Recorded int
	Consumed int
}

func (e *MissingFrameCountMismatchError) Error() string {
	return fmt.Sprintf(
		"number of missing frames does not match the replacement: %d gaps, %d replaced, %d recorded, %d read",
		e.Gaps, e.Replaced, e.Recorded, e.Consumed,
	)
}

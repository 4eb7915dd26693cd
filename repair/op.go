// Copyright 2019 Radiation Detection and Imaging (RDI), LLC
// Use of this source code is governed by the BSD 3-clause
// license that can be found in the LICENSE file.

package repair

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"go.uber.org/zap"
)

// Stage is one step of the repair pipeline.
type Stage interface {
	GetDescription() string
	Run(ctx context.Context, j *job) error
}

// StageFunc adapts a function to Stage.
type StageFunc struct {
	Description string
	Func        func(ctx context.Context, j *job) error
	// Skip reports whether the stage has nothing to do for this job.
	Skip func(j *job) bool
}

func (s StageFunc) GetDescription() string { return s.Description }

func (s StageFunc) Run(ctx context.Context, j *job) error {
	if s.Skip != nil && s.Skip(j) {
		j.logger.Debug("skipping stage", zap.String("stage", s.Description))
		return nil
	}
	return s.Func(ctx, j)
}

type Stages []Stage

// Run executes the stages in order and stops at the first failure or when
// ctx is done.
func (stages Stages) Run(ctx context.Context, j *job) error {
	for i, s := range stages {
		if err := ctx.Err(); err != nil {
			return err
		}
		start := time.Now()
		if err := s.Run(ctx, j); err != nil {
			return fmt.Errorf("%s: %w", s.GetDescription(), err)
		}
		j.logger.Debug("stage done",
			zap.Int("stage", i),
			zap.String("description", s.GetDescription()),
			zap.Duration("elapsed", time.Since(start)),
		)
	}
	return nil
}

// Describe lists the stages as a numbered list for help output.
func (stages Stages) Describe() string {
	var desc string
	for i, s := range stages {
		desc += strconv.Itoa(i) + ") "
		desc += s.GetDescription()
		if i < len(stages)-1 {
			desc += "\n"
		}
	}
	return desc
}

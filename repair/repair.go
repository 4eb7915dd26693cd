// Copyright 2019 Radiation Detection and Imaging (RDI), LLC
// Use of this source code is governed by the BSD 3-clause
// license that can be found in the LICENSE file.

// Package repair rebuilds a detector record with dropped frames into the
// canonical beamline layout.
//
// The pipeline finds the dropped frames, reconstructs the frame stack over
// averaging windows, pairs the stack with the positioner readings of the
// scan's metadata document and writes everything into a fresh store.
package repair

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path"
	"path/filepath"

	"github.com/rditech/rdi-repair/data"
	"github.com/rditech/rdi-repair/metadata"
	"github.com/rditech/rdi-repair/schema"
	"github.com/rditech/rdi-repair/store"
	"go.uber.org/zap"
)

type Result struct {
	Output   string
	Metadata string
	Stack    *data.Stack
	// Detection is set when the gaps were inferred from timestamps.
	Detection *data.Detection
	Mapping   *schema.Mapping
	Warnings  data.Warnings
}

// job is the state threaded through the stages of one run.
type job struct {
	opts   Options
	logger *zap.Logger

	gaps     data.GapSet
	raw      string
	output   *data.Resource
	localOut string
	cleanups []func()

	record *metadata.Record
	result *Result
}

func (j *job) cleanup() {
	for i := len(j.cleanups) - 1; i >= 0; i-- {
		j.cleanups[i]()
	}
}

// Pipeline returns the stages Run executes.
func Pipeline() Stages {
	return Stages{
		StageFunc{Description: "Validate options", Func: validate},
		StageFunc{Description: "Fetch raw record", Func: fetchRaw},
		StageFunc{
			Description: "Detect dropped frames from frame timestamps",
			Func:        detectGaps,
			Skip:        func(j *job) bool { return j.gaps != nil },
		},
		StageFunc{Description: "Reconstruct frames over averaging windows", Func: reconstruct},
		StageFunc{Description: "Read positioners from metadata document", Func: readMetadata},
		StageFunc{Description: "Map positioners onto record layout", Func: mapSchema},
		StageFunc{Description: "Write repaired record", Func: writeOutput},
		StageFunc{
			Description: "Publish repaired record",
			Func:        publish,
			Skip:        func(j *job) bool { return j.output.IsLocal() },
		},
	}
}

// Run repairs one raw record.
func Run(ctx context.Context, opts Options) (*Result, error) {
	j := &job{
		opts:   opts,
		logger: opts.Logger,
		result: &Result{},
	}
	if j.logger == nil {
		j.logger = zap.NewNop()
	}
	j.opts.Detector.Logger = j.logger
	defer j.cleanup()

	if err := Pipeline().Run(ctx, j); err != nil {
		return nil, err
	}
	return j.result, nil
}

func validate(ctx context.Context, j *job) error {
	o := &j.opts
	if o.Average < 1 {
		return fmt.Errorf("%w: got %d", data.ErrInvalidAverage, o.Average)
	}
	if o.ROI.Rows() <= 0 || o.ROI.Cols() <= 0 {
		return &data.ValidationError{Field: "roi", Reason: fmt.Sprintf("%v selects no pixels", o.ROI)}
	}
	if o.Raw == "" {
		return &data.ValidationError{Field: "raw", Reason: "no raw record given"}
	}
	if o.FrameKey == "" || o.TimestampKey == "" {
		return &data.ValidationError{Field: "raw", Reason: "frame and timestamp dataset keys must be set"}
	}

	if o.Gaps != nil {
		gaps, err := data.NewGapSet(o.Gaps)
		if err != nil {
			return err
		}
		j.gaps = gaps
	} else {
		if o.Detector.NImages == 0 {
			o.Detector.NImages = o.Average
		}
		if err := o.Detector.Validate(); err != nil {
			return err
		}
	}

	if len(o.Keys) > 0 {
		if _, err := schema.Map(o.Keys, schema.Canonical()); err != nil {
			return err
		}
	}

	if o.Output == "" {
		if o.OutputSuffix == "" {
			return &data.ValidationError{Field: "output", Reason: "no output given and no suffix to derive one"}
		}
		o.Output = DeriveOutputName(o.Raw, o.OutputSuffix)
	}
	out, err := data.ParseResource(o.Output)
	if err != nil {
		return &data.ValidationError{Field: "output", Reason: err.Error()}
	}
	raw, err := data.ParseResource(o.Raw)
	if err != nil {
		return &data.ValidationError{Field: "raw", Reason: err.Error()}
	}
	if sameResource(raw, out) {
		return &data.ValidationError{Field: "output", Reason: fmt.Sprintf("%v would overwrite the raw record", out)}
	}
	j.output = out
	j.result.Output = out.String()
	return nil
}

func sameResource(a, b *data.Resource) bool {
	if a.IsLocal() && b.IsLocal() {
		absA, errA := filepath.Abs(a.Name)
		absB, errB := filepath.Abs(b.Name)
		return errA == nil && errB == nil && absA == absB
	}
	return *a == *b
}

func fetchRaw(ctx context.Context, j *job) error {
	local, cleanup, err := data.Fetch(ctx, j.opts.Raw, j.opts.Credentials)
	if err != nil {
		return err
	}
	j.cleanups = append(j.cleanups, cleanup)
	j.raw = local
	return nil
}

func detectGaps(ctx context.Context, j *job) error {
	var ts []float64
	err := store.With(j.raw, func(s *store.Store) error {
		var err error
		ts, err = s.ReadVector(j.opts.TimestampKey)
		return err
	}, store.WithLogger(j.logger))
	if err != nil {
		return err
	}

	det, err := data.DetectGaps(ts, j.opts.Detector)
	if det != nil {
		j.result.Detection = det
		j.result.Warnings = append(j.result.Warnings, det.Warnings...)
	}
	if err != nil {
		return err
	}
	j.gaps = det.Gaps
	if j.gaps == nil {
		j.gaps = data.GapSet{}
	}
	j.logger.Info("detected dropped frames", zap.Ints("gaps", j.gaps))
	return nil
}

func reconstruct(ctx context.Context, j *job) error {
	return store.With(j.raw, func(s *store.Store) error {
		src, err := s.FrameSource(j.opts.FrameKey)
		if err != nil {
			return err
		}
		st, err := data.Reconstruct(src, j.gaps, data.ReconstructOptions{
			Average: j.opts.Average,
			ROI:     j.opts.ROI,
			Logger:  j.logger,
		})
		if err != nil {
			return err
		}
		j.result.Stack = st
		j.result.Warnings = append(j.result.Warnings, st.Warnings...)

		rows, cols := st.Shape()
		j.logger.Info("reconstructed frames",
			zap.Int("recorded", st.Recorded),
			zap.Int("frames", st.Len()),
			zap.Int("rows", rows),
			zap.Int("cols", cols),
		)
		return nil
	}, store.WithLogger(j.logger))
}

func readMetadata(ctx context.Context, j *job) error {
	src := j.opts.Metadata
	if src == "" {
		derived, ok := DeriveMetadataName(j.opts.Raw, j.opts.RawSuffix, j.opts.DocumentSuffix)
		if !ok {
			return &MissingMetadataSourceError{Raw: j.opts.Raw}
		}
		exists, err := data.Exists(ctx, derived, j.opts.Credentials)
		if err != nil {
			return err
		}
		if !exists {
			return &MissingMetadataSourceError{Raw: j.opts.Raw, Tried: derived}
		}
		src = derived
	}

	local, cleanup, err := data.Fetch(ctx, src, j.opts.Credentials)
	if err != nil {
		return err
	}
	j.cleanups = append(j.cleanups, cleanup)

	rec, err := metadata.ParseFile(local)
	if err != nil {
		return err
	}
	j.result.Metadata = src

	sel, err := rec.Select(j.opts.Keys)
	var knf *metadata.KeyNotFoundError
	if errors.As(err, &knf) && j.opts.FallbackToAll {
		j.result.Warnings.Add(j.logger, data.WarnKeyFallback,
			fmt.Sprintf("%v; writing all %d positioners instead", err, rec.Len()),
			zap.String("key", knf.Key),
		)
		sel, err = rec, nil
	}
	if err != nil {
		return err
	}
	j.record = sel
	return nil
}

func mapSchema(ctx context.Context, j *job) error {
	m, err := schema.Map(j.record.Names(), schema.Canonical())
	if err != nil {
		return err
	}
	for _, p := range m.Placements {
		j.logger.Debug("placing positioner",
			zap.String("key", p.Key),
			zap.String("path", p.Path),
			zap.Bool("orphan", p.Orphan),
		)
	}
	j.result.Mapping = m
	return nil
}

func writeOutput(ctx context.Context, j *job) error {
	j.localOut = j.output.Name
	if !j.output.IsLocal() {
		dir, err := os.MkdirTemp("", "rdi-repair-")
		if err != nil {
			return err
		}
		j.cleanups = append(j.cleanups, func() { os.RemoveAll(dir) })
		j.localOut = filepath.Join(dir, path.Base(j.output.Name))
	}

	s, err := store.Create(j.localOut, store.WithLogger(j.logger))
	if err != nil {
		return err
	}
	defer s.Close()

	st := j.result.Stack
	for _, p := range j.result.Mapping.Placements {
		values := j.record.Values(p.Key)
		if len(values) != st.Len() {
			j.result.Warnings.Add(j.logger, data.WarnLengthMismatch,
				fmt.Sprintf("positioner %s has %d readings for %d frames", p.Key, len(values), st.Len()),
				zap.String("key", p.Key),
			)
		}
		ds := &store.Dataset{Shape: []int{len(values)}, Data: values}
		if err := s.WriteDataset(p.Path, ds); err != nil {
			return fmt.Errorf("writing %s: %w", p.Key, err)
		}
	}

	if err := s.WriteFrames(schema.DetectorDataPath, st, true); err != nil {
		return err
	}
	if err := s.Commit(); err != nil {
		return err
	}
	j.logger.Info("wrote repaired record", zap.String("output", j.localOut))
	return nil
}

func publish(ctx context.Context, j *job) error {
	if err := data.Publish(ctx, j.localOut, j.output.String(), j.opts.Credentials); err != nil {
		return err
	}
	j.logger.Info("published repaired record", zap.Stringer("output", j.output))
	return nil
}

// Copyright 2019 Radiation Detection and Imaging (RDI), LLC
// Use of this source code is governed by the BSD 3-clause
// license that can be found in the LICENSE file.

package data

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"github.com/golang/protobuf/ptypes/wrappers"
	"github.com/proio-org/go-proio"
	"gonum.org/v1/gonum/mat"
)

const (
	frameTag       = "Frame"
	placeholderTag = "Placeholder"
)

// ExportProio streams a reconstructed stack as proio events, one event per
// output frame. Frame geometry and the averaging window travel as stream
// metadata.
func ExportProio(writer *proio.Writer, st *Stack) error {
	rows, cols := st.Shape()
	for _, meta := range []struct {
		name  string
		value int
	}{
		{"Rows", rows},
		{"Cols", cols},
		{"Average", st.Average},
	} {
		if err := writer.PushMetadata(meta.name, uint64Bytes(uint64(meta.value))); err != nil {
			return fmt.Errorf("pushing %s metadata: %w", meta.name, err)
		}
	}

	for i, frame := range st.Frames {
		event := proio.NewEvent()
		event.AddEntry(frameTag, &wrappers.BytesValue{Value: EncodeFloats(Flatten(frame.Data))})
		if frame.Placeholder {
			event.AddEntry(placeholderTag, &wrappers.BoolValue{Value: true})
		}
		if err := writer.Push(event); err != nil {
			return fmt.Errorf("pushing frame %d: %w", i, err)
		}
	}
	return nil
}

// ImportProio reads back a stack written by ExportProio. Only frame values
// and placeholder flags survive the round trip.
func ImportProio(reader *proio.Reader) (*Stack, error) {
	st := &Stack{}
	for {
		event := reader.Next()
		if event == nil {
			if reader.Err != nil && !errors.Is(reader.Err, io.EOF) {
				return nil, reader.Err
			}
			break
		}

		rows, okR := metaUint64(event.Metadata["Rows"])
		cols, okC := metaUint64(event.Metadata["Cols"])
		if !okR || !okC {
			return nil, errors.New("stream is missing frame geometry metadata")
		}
		if avg, ok := metaUint64(event.Metadata["Average"]); ok {
			st.Average = int(avg)
		}

		ids := event.TaggedEntries(frameTag)
		if len(ids) != 1 {
			return nil, fmt.Errorf("event %d holds %d frames", len(st.Frames), len(ids))
		}
		entry, ok := event.GetEntry(ids[0]).(*wrappers.BytesValue)
		if !ok {
			return nil, fmt.Errorf("event %d: frame entry is not a byte buffer", len(st.Frames))
		}
		values, err := DecodeFloats(entry.Value)
		if err != nil {
			return nil, err
		}
		if len(values) != int(rows*cols) {
			return nil, fmt.Errorf("event %d: %d values for a %dx%d frame", len(st.Frames), len(values), rows, cols)
		}

		st.Frames = append(st.Frames, Frame{
			Data:        mat.NewDense(int(rows), int(cols), values),
			Placeholder: len(event.TaggedEntries(placeholderTag)) > 0,
		})
	}
	return st, nil
}

// SetCompression selects the bucket compression of writer: 0 for
// uncompressed, 1 for LZ4, 2 for GZIP and 3 for LZMA.
func SetCompression(writer *proio.Writer, level int) error {
	switch level {
	case 0:
		return writer.SetCompression(proio.UNCOMPRESSED)
	case 1:
		return writer.SetCompression(proio.LZ4)
	case 2:
		return writer.SetCompression(proio.GZIP)
	case 3:
		return writer.SetCompression(proio.LZMA)
	default:
		return fmt.Errorf("unknown compression level %d", level)
	}
}

func uint64Bytes(v uint64) []byte {
	buf := make([]byte, 8)
	binary.BigEndian.PutUint64(buf, v)
	return buf
}

func metaUint64(buf []byte) (uint64, bool) {
	if len(buf) != 8 {
		return 0, false
	}
	return binary.BigEndian.Uint64(buf), true
}

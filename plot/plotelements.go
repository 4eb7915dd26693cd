// Copyright 2019 Radiation Detection and Imaging (RDI), LLC
// Use of this source code is governed by the BSD 3-clause
// license that can be found in the LICENSE file.

package plot

import (
	"math"
	"strconv"

	"gonum.org/v1/plot"
)

// FuncScale normalizes axis values through Func, e.g. a clipped logarithm.
type FuncScale struct {
	Func func(float64) float64
}

func (s *FuncScale) Normalize(min, max, x float64) float64 {
	fMin := s.Func(min)
	span := s.Func(max) - fMin
	if span == 0 {
		return 0
	}
	return (s.Func(x) - fMin) / span
}

// Log10Min1 is log10 clipped at -1, so that empty histogram bins sit just
// below a count of one.
func Log10Min1(x float64) float64 {
	if x <= 0.1 {
		return -1
	}
	return math.Log10(x)
}

// RollTicks places about NSuggestedTicks labelled ticks on round values,
// with unlabelled minor ticks between them.
type RollTicks struct {
	NSuggestedTicks int
}

func (t RollTicks) Ticks(min, max float64) []plot.Tick {
	n := t.NSuggestedTicks
	if n < 2 {
		n = 4
	}
	if !(max > min) {
		return plot.DefaultTicks{}.Ticks(min, max)
	}

	major, minor := tickStep(max-min, n)
	prec := -int(math.Floor(math.Log10(major)))

	var ticks []plot.Tick
	for val := math.Ceil(min/major) * major; val <= max; val += major {
		v := round(val, prec)
		ticks = append(ticks, plot.Tick{Value: v, Label: strconv.FormatFloat(v, 'g', -1, 64)})
	}
	if len(ticks) == 0 {
		return plot.DefaultTicks{}.Ticks(min, max)
	}
	for val := math.Ceil(min/minor) * minor; val <= max; val += minor {
		if math.Abs(math.Remainder(val, major)) < minor/2 {
			continue
		}
		ticks = append(ticks, plot.Tick{Value: round(val, prec+1)})
	}
	return ticks
}

// stepMultiples snaps the leading digit of a raw tick spacing onto a
// multiple that divides evenly into minor ticks.
var stepMultiples = [10]int{1, 1, 2, 3, 4, 5, 6, 6, 8, 8}

// tickStep returns the labelled and unlabelled tick spacing for about n
// labels across span.
func tickStep(span float64, n int) (major, minor float64) {
	raw := span / float64(n-1)
	mag := math.Pow10(int(math.Floor(math.Log10(raw))))
	lead := int(raw / mag)
	if lead > 9 {
		lead, mag = 1, mag*10
	}
	mult := stepMultiples[lead]
	major = float64(mult) * mag

	switch mult {
	case 3, 6:
		return major, major / 3
	case 5:
		return major, major / 5
	}
	return major, major / 2
}

// round rounds x to prec decimal places; negative prec rounds to tens,
// hundreds and so on.
func round(x float64, prec int) float64 {
	if prec < 0 {
		pow := math.Pow10(-prec)
		return math.Round(x/pow) * pow
	}
	pow := math.Pow10(prec)
	r := math.Round(x*pow) / pow
	if r == 0 {
		return 0
	}
	return r
}

// LogTicks labels each decade and marks the integer multiples in between.
type LogTicks struct{}

func (LogTicks) Ticks(min, max float64) []plot.Tick {
	val := math.Pow10(int(math.Floor(Log10Min1(min))))
	top := math.Pow10(int(math.Ceil(Log10Min1(max))))
	var ticks []plot.Tick
	for val < top {
		ticks = append(ticks, plot.Tick{Value: val, Label: strconv.FormatFloat(val, 'g', 5, 64)})
		for i := 2; i < 10; i++ {
			ticks = append(ticks, plot.Tick{Value: val * float64(i)})
		}
		val *= 10
	}
	return append(ticks, plot.Tick{Value: val, Label: strconv.FormatFloat(val, 'g', 5, 64)})
}

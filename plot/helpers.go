// Copyright 2019 Radiation Detection and Imaging (RDI), LLC
// Use of this source code is governed by the BSD 3-clause
// license that can be found in the LICENSE file.

package plot

// MakeSmoother returns an exponential moving average seeded with init. Each
// call folds one new value in with weight alpha.
func MakeSmoother(alpha, init float64) func(float64) float64 {
	keep := 1.0 - alpha
	val := init
	return func(newVal float64) float64 {
		val = keep*val + alpha*newVal
		return val
	}
}

// smooth applies MakeSmoother over a whole series.
func smooth(values []float64, alpha float64) []float64 {
	if len(values) == 0 {
		return nil
	}
	s := MakeSmoother(alpha, values[0])
	out := make([]float64, len(values))
	for i, v := range values {
		out[i] = s(v)
	}
	return out
}

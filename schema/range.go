package schema

import (
	"errors"
	"math"
)

var (
	ErrInvalidRange = errors.New("starting value must be less than ending value")
	ErrInvalidCount = errors.New("count must be at least 1")
)

// RangeSpec is the compact form of an evenly spaced float sequence.
type RangeSpec struct {
	Start float64 `json:"start"`
	Stop  float64 `json:"stop"`
	Count int     `json:"count"`
}

// Expand materializes the samples of spec. A count of one yields [Start]
// and ignores Stop.
func Expand(spec RangeSpec) ([]float64, error) {
	if spec.Count < 1 {
		return nil, ErrInvalidCount
	}
	if spec.Count == 1 {
		return []float64{spec.Start}, nil
	}
	if !(spec.Start < spec.Stop) {
		return nil, ErrInvalidRange
	}

	step := (spec.Stop - spec.Start) / float64(spec.Count-1)
	// Nudge the upper bound so rounding in the division cannot drop the last sample.
	eps := 1e-15 * max(1, math.Abs(spec.Start), math.Abs(spec.Stop))
	n := int(math.Ceil((spec.Stop + eps - spec.Start) / step))
	n = max(1, min(n, spec.Count))

	samples := make([]float64, n)
	for i := range samples {
		samples[i] = spec.Start + float64(i)*step
	}
	return samples, nil
}

package jealloc

import (
	"fmt"
	"math"
	"strings"

	"github.com/dustin/go-humanize"
)

// HistogramBounds returns bucket bounds that are powers of two of the form
// [2^minExponent, ..., 2^maxExponent].
func HistogramBounds(minExponent, maxExponent uint32) []float64 {
	var bounds []float64
	for i := minExponent; i <= maxExponent; i++ {
		bounds = append(bounds, float64(int(1)<<i))
	}
	return bounds
}

// HistogramData holds a bucketed view of allocation sizes. It does no
// locking; MemTracker updates it under the registry mutex.
type HistogramData struct {
	Bounds         []float64
	Count          int64
	CountPerBucket []int64
	Min            int64
	Max            int64
	Sum            int64
}

// NewHistogramData returns a HistogramData with one overflow bucket past
// the last bound.
func NewHistogramData(bounds []float64) *HistogramData {
	return &HistogramData{
		Bounds:         bounds,
		CountPerBucket: make([]int64, len(bounds)+1),
		Max:            0,
		Min:            math.MaxInt64,
	}
}

// Update adds value to the histogram.
func (h *HistogramData) Update(value int64) {
	if value > h.Max {
		h.Max = value
	}
	if value < h.Min {
		h.Min = value
	}
	h.Sum += value
	h.Count++

	for index := 0; index <= len(h.Bounds); index++ {
		// The last bucket catches everything at or past the final bound.
		if index == len(h.Bounds) {
			h.CountPerBucket[index]++
			break
		}
		if value < int64(h.Bounds[index]) {
			h.CountPerBucket[index]++
			break
		}
	}
}

// Mean returns the average recorded value, or 0 before the first Update.
func (h *HistogramData) Mean() float64 {
	if h.Count == 0 {
		return 0
	}
	return float64(h.Sum) / float64(h.Count)
}

// String renders the non-empty buckets in a human-readable format.
func (h *HistogramData) String() string {
	if h == nil || h.Count == 0 {
		return "  -- empty --\n"
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "  Min: %d Max: %d Mean: %.2f\n", h.Min, h.Max, h.Mean())

	numBounds := len(h.Bounds)
	for index, count := range h.CountPerBucket {
		if count == 0 {
			continue
		}
		// The overflow bucket covers the range from the last bound up to
		// infinity, so it renders differently from the rest.
		if index == len(h.CountPerBucket)-1 {
			fmt.Fprintf(&sb, "  [%10s, %10s) %9d\n",
				humanize.IBytes(uint64(h.Bounds[numBounds-1])), "infinity", count)
			continue
		}
		lower := uint64(0)
		if index > 0 {
			lower = uint64(h.Bounds[index-1])
		}
		fmt.Fprintf(&sb, "  [%10s, %10s) %9d\n",
			humanize.IBytes(lower), humanize.IBytes(uint64(h.Bounds[index])), count)
	}
	return sb.String()
}

package jealloc

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestHistogramBounds(t *testing.T) {
	bounds := HistogramBounds(4, 8)
	require.Equal(t, []float64{16, 32, 64, 128, 256}, bounds)
}

func TestHistogramUpdate(t *testing.T) {
	h := NewHistogramData(HistogramBounds(4, 8))
	for _, v := range []int64{1, 16, 17, 300, 1 << 20} {
		h.Update(v)
	}
	require.Equal(t, int64(5), h.Count)
	require.Equal(t, int64(1), h.Min)
	require.Equal(t, int64(1<<20), h.Max)
	require.Equal(t, int64(1+16+17+300+1<<20), h.Sum)

	// 1 lands below the first bound; 16 and 17 in [16, 32); 300 and 1<<20
	// in the overflow bucket.
	require.Equal(t, int64(1), h.CountPerBucket[0])
	require.Equal(t, int64(2), h.CountPerBucket[1])
	require.Equal(t, int64(2), h.CountPerBucket[len(h.CountPerBucket)-1])
}

func TestHistogramString(t *testing.T) {
	h := NewHistogramData(HistogramBounds(4, 8))
	require.Contains(t, h.String(), "empty")

	h.Update(20)
	s := h.String()
	require.Contains(t, s, "Min: 20")
	require.Contains(t, s, "Max: 20")
	require.Contains(t, s, "Mean: 20.00")
}

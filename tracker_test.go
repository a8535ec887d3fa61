/*
 * Copyright 2025 Dgraph Labs, Inc. and Contributors
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package jealloc

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestTrackerRecordsSite(t *testing.T) {
	tr, h := newTracked()

	b := h.Alloc(32)
	recs := tr.Records()
	require.Len(t, recs, 1)
	require.Equal(t, 32, recs[0].Size)
	require.Equal(t, blockAddr(b), recs[0].Addr)
	require.Contains(t, recs[0].Site.File, "tracker_test.go")
	require.Contains(t, recs[0].Site.Func, "TestTrackerRecordsSite")
	h.Free(b)
}

func TestTrackerReallocSite(t *testing.T) {
	tr, h := newTracked()

	b := h.Alloc(8)
	b = h.Realloc(b, 64)
	recs := tr.Records()
	require.Len(t, recs, 1)
	require.Equal(t, 64, recs[0].Size)
	require.Contains(t, recs[0].Site.Func, "TestTrackerReallocSite")
	h.Free(b)
}

func TestTrackerSequence(t *testing.T) {
	tr, h := newTracked()

	b1 := h.Alloc(1)
	b2 := h.Alloc(2)
	b3 := h.Alloc(3)
	recs := tr.Records()
	require.Len(t, recs, 3)
	require.Less(t, recs[0].Seq, recs[1].Seq)
	require.Less(t, recs[1].Seq, recs[2].Seq)
	require.Equal(t, []int{1, 2, 3}, []int{recs[0].Size, recs[1].Size, recs[2].Size})

	h.Free(b1)
	h.Free(b2)
	h.Free(b3)
}

func TestTrackerMismatchedFree(t *testing.T) {
	tr := NewMemTracker()
	require.Panics(t, func() { tr.RecordFree(0xdead) })
}

func TestTrackerDoubleAlloc(t *testing.T) {
	tr := NewMemTracker()
	tr.RecordAlloc(0x1000, 8, Site{File: "a.go", Line: 1})
	require.Panics(t, func() {
		tr.RecordAlloc(0x1000, 16, Site{File: "b.go", Line: 2})
	})
}

func TestLeaksReport(t *testing.T) {
	tr, h := newTracked()

	require.NoError(t, tr.AssertNoLeaks())
	require.Contains(t, tr.Leaks(), "NO leaks")

	var bufs [][]byte
	for i := 0; i < 2; i++ {
		bufs = append(bufs, h.Alloc(100))
	}
	report := tr.Leaks()
	require.Contains(t, report, "2 leaked allocations")
	require.Contains(t, report, "tracker_test.go")
	require.Contains(t, report, "Allocation sizes")

	// Both blocks come from the same line, so they aggregate into one
	// site entry.
	require.Equal(t, 1, strings.Count(report, "leaked 2 times"))

	err := tr.AssertNoLeaks()
	require.Error(t, err)
	require.Contains(t, err.Error(), "live allocations")

	for _, b := range bufs {
		h.Free(b)
	}
	require.NoError(t, tr.AssertNoLeaks())
}

func TestSiteKey(t *testing.T) {
	a := Site{File: "x.go", Line: 10, Func: "f"}
	b := Site{File: "x.go", Line: 10, Func: "g"}
	c := Site{File: "x.go", Line: 11, Func: "f"}
	require.Equal(t, a.Key(), b.Key())
	require.NotEqual(t, a.Key(), c.Key())
}

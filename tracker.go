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
	"fmt"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/cespare/xxhash/v2"
	"github.com/dustin/go-humanize"
	"github.com/pkg/errors"
)

// Site identifies the call site an allocation was made from.
type Site struct {
	File string
	Line int
	Func string
}

func (s Site) String() string {
	return fmt.Sprintf("%s:%d (%s)", s.File, s.Line, s.Func)
}

// Key returns a stable aggregation key for the site, so leak reports can
// group blocks allocated from the same file and line.
func (s Site) Key() uint64 {
	return xxhash.Sum64String(s.File + ":" + strconv.Itoa(s.Line))
}

// Tracker receives one RecordAlloc per live block and exactly one matching
// RecordFree when the block is released. Implementations must be safe for
// concurrent use; the heap calls them from arbitrary goroutines without
// locking of its own.
type Tracker interface {
	RecordAlloc(addr uintptr, size int, site Site)
	RecordFree(addr uintptr)
}

// Record is one live allocation as seen by MemTracker.
type Record struct {
	Addr uintptr
	Size int
	Site Site
	Seq  uint64
}

// MemTracker is the default Tracker: a mutex-guarded registry of live
// blocks keyed by address, with per-site aggregation for leak reports and
// a histogram of every allocation size it has seen. Pass one to
// WithTracker; there is deliberately no package-level instance, so tests
// and subsystems get their own isolated registry.
type MemTracker struct {
	mu    sync.Mutex
	live  map[uintptr]Record
	seq   uint64
	bytes int64
	sizes *HistogramData
}

func NewMemTracker() *MemTracker {
	return &MemTracker{
		live:  make(map[uintptr]Record),
		sizes: NewHistogramData(HistogramBounds(4, 26)),
	}
}

func (t *MemTracker) RecordAlloc(addr uintptr, size int, site Site) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if prev, ok := t.live[addr]; ok {
		panic(fmt.Sprintf("jealloc: block %#x already live, allocated at %s", addr, prev.Site))
	}
	t.seq++
	t.live[addr] = Record{Addr: addr, Size: size, Site: site, Seq: t.seq}
	t.bytes += int64(size)
	t.sizes.Update(int64(size))
}

func (t *MemTracker) RecordFree(addr uintptr) {
	t.mu.Lock()
	defer t.mu.Unlock()
	r, ok := t.live[addr]
	if !ok {
		// A free the registry never saw is either a double free or a
		// foreign pointer. Both are programming errors.
		panic(fmt.Sprintf("jealloc: free of untracked block %#x", addr))
	}
	delete(t.live, addr)
	t.bytes -= int64(r.Size)
}

// NumLive returns the number of blocks currently registered.
func (t *MemTracker) NumLive() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.live)
}

// LiveBytes returns the requested bytes of all registered blocks.
func (t *MemTracker) LiveBytes() int64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.bytes
}

// Records returns a snapshot of the registry, ordered by allocation
// sequence.
func (t *MemTracker) Records() []Record {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]Record, 0, len(t.live))
	for _, r := range t.live {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Seq < out[j].Seq })
	return out
}

// Leaks returns a human-readable report of the blocks still live, grouped
// by call site, followed by the size histogram of every allocation this
// tracker has seen.
func (t *MemTracker) Leaks() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.leaksLocked()
}

func (t *MemTracker) leaksLocked() string {
	var sb strings.Builder
	if len(t.live) == 0 {
		sb.WriteString("NO leaks.\n")
	} else {
		fmt.Fprintf(&sb, "%d leaked allocations, %s total:\n",
			len(t.live), humanize.IBytes(uint64(t.bytes)))

		type group struct {
			site  Site
			count int
			bytes int64
		}
		groups := make(map[uint64]*group)
		for _, r := range t.live {
			g, ok := groups[r.Site.Key()]
			if !ok {
				g = &group{site: r.Site}
				groups[r.Site.Key()] = g
			}
			g.count++
			g.bytes += int64(r.Size)
		}
		sorted := make([]*group, 0, len(groups))
		for _, g := range groups {
			sorted = append(sorted, g)
		}
		sort.Slice(sorted, func(i, j int) bool { return sorted[i].bytes > sorted[j].bytes })
		for _, g := range sorted {
			fmt.Fprintf(&sb, "  %s leaked %d times (%s)\n",
				g.site, g.count, humanize.IBytes(uint64(g.bytes)))
		}
	}
	sb.WriteString("Allocation sizes:\n")
	sb.WriteString(t.sizes.String())
	return sb.String()
}

// AssertNoLeaks returns an error carrying the full leak report if any
// block is still registered. Meant for teardown paths and tests.
func (t *MemTracker) AssertNoLeaks() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if len(t.live) == 0 {
		return nil
	}
	return errors.Errorf("found %d live allocations (%s) at shutdown\n%s",
		len(t.live), humanize.IBytes(uint64(t.bytes)), t.leaksLocked())
}

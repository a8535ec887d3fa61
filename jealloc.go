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

// Package jealloc is a thin instrumentation layer over a manually managed
// heap. The heap itself lives outside this package: compile with
// `go build -tags=jemalloc` to serve allocations from jemalloc via cgo, or
// without the tag to use a fallback heap with the same surface. On top of
// the raw heap, an optional tracker tags every live block with a guard
// value past its payload, to catch a limited class of overflows, and keeps
// a registry of live allocations for leak accounting.
//
// Memory returned by an Allocator is not garbage collected. Every slice
// obtained from Alloc, Realloc or AllocAligned MUST be passed back to Free
// or Realloc exactly once. Failure to do so is a leak.
package jealloc

import (
	"sync/atomic"
	_ "unsafe"
)

// The go:linkname directive provides backdoor access to private functions
// in the runtime. Below we're accessing the throw function.

//go:linkname throw runtime.throw
func throw(s string)

// Allocator is the allocation facade exposed to the host. Both the bare
// and the instrumented variant satisfy it; WithTracker selects the latter.
//
// Allocators are safe for concurrent use from multiple goroutines,
// provided the configured Tracker is. The facade adds no locking of its
// own; concurrency safety is delegated to the raw heap and the tracker.
type Allocator interface {
	// Alloc returns a slice of length size backed by manually managed
	// memory. size 0 is legal. The slice MUST eventually be released by
	// passing it to Free or Realloc.
	Alloc(size int) []byte

	// Realloc resizes b to size bytes, preserving the block's content up
	// to the smaller of the old and new sizes. A nil b behaves like Alloc;
	// size 0 behaves like Free and returns nil. Under tracking the content
	// always moves to a fresh block; bytes beyond the old size are left
	// uninitialized.
	Realloc(b []byte, size int) []byte

	// AllocAligned is Alloc routed through the heap's aligned entry point.
	// align must be a power of two supported by the heap.
	AllocAligned(align, size int) []byte

	// Free releases b back to the heap. b must be a slice previously
	// returned by this Allocator, with its capacity intact. Passing nil
	// is a no-op.
	Free(b []byte)

	// DumpStats streams the heap's internal statistics report into buf,
	// truncating safely. It never writes past len(buf) and always
	// NUL-terminates within buf. Returns the number of bytes written,
	// excluding the terminator.
	DumpStats(buf []byte) int

	// Trim asks the heap to purge dirty pages back to the OS. Best effort.
	Trim()
}

type config struct {
	tracker Tracker
}

// Option configures an Allocator at construction time.
type Option func(*config)

// WithTracker enables per-allocation instrumentation: every live block
// gets a guard tag past its payload, and t sees one RecordAlloc per live
// block with exactly one matching RecordFree.
func WithTracker(t Tracker) Option {
	return func(c *config) { c.tracker = t }
}

// New returns an Allocator over the compiled-in heap. Without options it
// is a bare forwarding layer with no guard or registry overhead.
func New(opts ...Option) Allocator {
	var c config
	for _, opt := range opts {
		opt(&c)
	}
	if c.tracker == nil {
		return bareHeap{}
	}
	return &trackedHeap{tracker: c.tracker}
}

var numBytes int64

// NumAllocBytes returns the number of bytes currently outstanding across
// every Allocator in the process. The allocations could be served by
// jemalloc or by the fallback heap, depending upon the build tags.
func NumAllocBytes() int64 {
	return atomic.LoadInt64(&numBytes)
}

// DumpStatsString is a convenience wrapper around Allocator.DumpStats for
// callers that just want the report as a string. max bounds the report
// size in bytes.
func DumpStatsString(a Allocator, max int) string {
	buf := make([]byte, max)
	n := a.DumpStats(buf)
	return string(buf[:n])
}

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

import "runtime"

// trackedHeap brackets every heap transition with guard-tag bookkeeping
// and keeps the tracker's registry in sync: exactly one RecordAlloc per
// live block, exactly one RecordFree when the block dies. Every request
// is padded by guardSize bytes and the tag is stamped at the tail of the
// usable region.
//
// Realloc always allocates, copies and frees rather than resizing in
// place: the guard of the old block and the registry swap have to bracket
// the transfer, so the in-place fast path is not worth its complexity
// while tracking is on.
type trackedHeap struct {
	tracker Tracker
}

func (h *trackedHeap) Alloc(size int) []byte {
	return h.alloc(size, callerSite(1))
}

func (h *trackedHeap) Realloc(b []byte, size int) []byte {
	switch {
	case cap(b) == 0 && size == 0:
		return nil
	case cap(b) == 0:
		return h.alloc(size, callerSite(1))
	case size == 0:
		h.release(b)
		return nil
	}
	checkGuard(b)
	nb := h.alloc(size, callerSite(1))
	// Copies min(old payload, size). Bytes past the old payload stay
	// uninitialized, matching realloc semantics.
	copy(nb, full(b)[:payloadSize(b)])
	h.release(b)
	return nb
}

func (h *trackedHeap) AllocAligned(align, size int) []byte {
	b := rawAllocAligned(align, size+guardSize)[:size]
	writeGuard(b)
	h.tracker.RecordAlloc(blockAddr(b), size, callerSite(1))
	return b
}

func (h *trackedHeap) Free(b []byte) {
	if cap(b) == 0 {
		return
	}
	h.release(b)
}

func (h *trackedHeap) DumpStats(buf []byte) int { return dumpStats(buf) }

func (h *trackedHeap) Trim() { rawTrim() }

func (h *trackedHeap) alloc(size int, site Site) []byte {
	b := rawAlloc(size + guardSize)[:size]
	writeGuard(b)
	h.tracker.RecordAlloc(blockAddr(b), size, site)
	return b
}

func (h *trackedHeap) release(b []byte) {
	checkGuard(b)
	h.tracker.RecordFree(blockAddr(b))
	rawFree(b)
}

// callerSite captures the allocation site skip+1 frames above, for the
// tracker's registry. The C flavor of this layer takes __FILE__ and
// __LINE__ as arguments; runtime.Caller keeps the public surface clean.
func callerSite(skip int) Site {
	pc, file, line, ok := runtime.Caller(skip + 1)
	if !ok {
		return Site{File: "???"}
	}
	site := Site{File: file, Line: line}
	if fn := runtime.FuncForPC(pc); fn != nil {
		site.Func = fn.Name()
	}
	return site
}

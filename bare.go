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

// bareHeap is the lightweight path used when no tracker is configured.
// Requests go straight to the raw heap with no guard bytes and no
// registry, so an overflow goes undetected here.
type bareHeap struct{}

func (bareHeap) Alloc(size int) []byte {
	if size == 0 {
		return make([]byte, 0)
	}
	return rawAlloc(size)
}

func (bareHeap) Realloc(b []byte, size int) []byte {
	switch {
	case cap(b) == 0 && size == 0:
		return nil
	case cap(b) == 0:
		return rawAlloc(size)
	case size == 0:
		rawFree(b)
		return nil
	default:
		return rawRealloc(b, size)
	}
}

func (bareHeap) AllocAligned(align, size int) []byte {
	if size == 0 {
		return make([]byte, 0)
	}
	return rawAllocAligned(align, size)
}

func (bareHeap) Free(b []byte) {
	if cap(b) == 0 {
		return
	}
	rawFree(b)
}

func (bareHeap) DumpStats(buf []byte) int { return dumpStats(buf) }

func (bareHeap) Trim() { rawTrim() }

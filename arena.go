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

	"github.com/dustin/go-humanize"
)

// Arena amortizes the cost of small allocations by carving them out of
// bigger chunks taken from an Allocator. Carved memory is never moved, so
// it is safe to unsafe cast the returned bytes to Go struct pointers. An
// Arena is NOT safe for concurrent use.
type Arena struct {
	heap     Allocator
	pageSize int
	curBuf   int
	curIdx   int
	buffers  [][]byte
	size     uint64
}

const maxAlloc = 1 << 30

// NewArena creates an arena drawing chunks of at least sz bytes from heap.
func NewArena(heap Allocator, sz int) *Arena {
	return &Arena{heap: heap, pageSize: sz}
}

// Size returns the number of bytes handed out so far.
func (a *Arena) Size() uint64 {
	return a.size
}

func (a *Arena) MaxAlloc() int {
	return maxAlloc
}

// Allocate returns a zeroed slice of length sz carved from the current
// chunk, growing the arena when the chunk is exhausted.
func (a *Arena) Allocate(sz int) []byte {
	if sz >= maxAlloc {
		panic(fmt.Sprintf("jealloc: arena allocation of %d exceeds max allowed %d", sz, maxAlloc))
	}
	if len(a.buffers) == 0 {
		a.buffers = append(a.buffers, a.heap.Alloc(a.pageSize))
	}

	cb := a.buffers[a.curBuf]
	if len(cb) < a.curIdx+sz {
		for {
			a.pageSize *= 2 // Double the chunk size until it fits.
			if a.pageSize >= sz {
				break
			}
		}
		if a.pageSize > maxAlloc {
			a.pageSize = maxAlloc
		}
		a.buffers = append(a.buffers, a.heap.Alloc(a.pageSize))
		a.curBuf++
		a.curIdx = 0
		cb = a.buffers[a.curBuf]
	}

	slice := cb[a.curIdx : a.curIdx+sz]
	a.curIdx += sz
	a.size += uint64(sz)
	return slice
}

// Copy allocates len(b) bytes and copies b into them.
func (a *Arena) Copy(b []byte) []byte {
	out := a.Allocate(len(b))
	copy(out, b)
	return out
}

// Release returns every chunk to the heap. The arena must not be used
// afterwards; forgetting this call leaks the chunks.
func (a *Arena) Release() {
	for _, b := range a.buffers {
		a.heap.Free(b)
	}
	a.buffers = nil
	a.curBuf, a.curIdx, a.size = 0, 0, 0
}

func (a *Arena) String() string {
	return fmt.Sprintf("Arena of %d chunks, handed out %s",
		len(a.buffers), humanize.IBytes(a.size))
}

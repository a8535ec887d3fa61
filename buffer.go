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

	"github.com/pkg/errors"
)

// Buffer is the equivalent of bytes.Buffer without the ability to read,
// backed by an Allocator instead of the Go heap. It grows through Realloc,
// so content written so far is preserved across growth. It is NOT safe for
// concurrent use, and it MUST be Released to avoid leaking its block.
type Buffer struct {
	heap   Allocator
	buf    []byte
	offset int
	maxSz  int
}

// smallBufferSize is an initial allocation minimal capacity.
const smallBufferSize = 64

// NewBuffer creates a Buffer of size sz upfront, with no growth limit.
func NewBuffer(heap Allocator, sz int) *Buffer {
	b, err := NewBufferWith(heap, sz, 0)
	if err != nil {
		// Only the size/limit check can fail, and 0 means unlimited.
		panic(err)
	}
	return b
}

// NewBufferWith creates a Buffer of size sz upfront that never grows past
// maxSz. Zero sz or maxSz pick reasonable defaults; maxSz 0 means
// unlimited.
func NewBufferWith(heap Allocator, sz, maxSz int) (*Buffer, error) {
	if sz == 0 {
		sz = smallBufferSize
	}
	if maxSz > 0 && sz > maxSz {
		return nil, errors.Errorf("buffer size %d exceeds max size %d", sz, maxSz)
	}
	return &Buffer{
		heap:  heap,
		buf:   heap.Alloc(sz),
		maxSz: maxSz,
	}, nil
}

func (b *Buffer) IsEmpty() bool {
	return b.offset == 0
}

// Len returns the number of bytes written to the buffer so far.
func (b *Buffer) Len() int {
	return b.offset
}

// Bytes returns all the written bytes as a slice.
func (b *Buffer) Bytes() []byte {
	return b.buf[:b.offset]
}

// Grow ensures n more bytes fit without further allocation. Once at
// capacity, the block is reallocated to twice the current size plus n.
func (b *Buffer) Grow(n int) {
	if b.buf == nil {
		panic("jealloc.Buffer needs to be initialized before use")
	}
	if b.maxSz > 0 && b.offset+n > b.maxSz {
		panic(fmt.Sprintf("jealloc: buffer max size exceeded: %d, offset %d, grow %d",
			b.maxSz, b.offset, n))
	}
	if b.offset+n <= len(b.buf) {
		return
	}
	sz := 2*len(b.buf) + n
	if sz > maxAlloc {
		sz = maxAlloc
	}
	if b.maxSz > 0 && sz > b.maxSz {
		sz = b.maxSz
	}
	b.buf = b.heap.Realloc(b.buf, sz)
}

// Allocate returns a slice of size n from the buffer that can be written
// to directly. The slice MUST be used before further calls to Buffer.
func (b *Buffer) Allocate(n int) []byte {
	b.Grow(n)
	off := b.offset
	b.offset += n
	return b.buf[off:b.offset]
}

func (b *Buffer) Write(p []byte) (int, error) {
	copy(b.Allocate(len(p)), p)
	return len(p), nil
}

func (b *Buffer) WriteString(s string) {
	copy(b.Allocate(len(s)), s)
}

// Reset forgets the written content, keeping the block.
func (b *Buffer) Reset() {
	b.offset = 0
}

// Release returns the block to the heap. The buffer must not be used
// afterwards.
func (b *Buffer) Release() {
	b.heap.Free(b.buf)
	b.buf = nil
	b.offset = 0
}

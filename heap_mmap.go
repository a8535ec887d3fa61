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

//go:build !jemalloc && linux

package jealloc

import (
	"fmt"
	"os"
	"sync/atomic"
	"unsafe"

	"github.com/pkg/errors"
	"golang.org/x/sys/unix"
)

// The raw heap served by anonymous memory mappings, used on Linux when the
// binary is built without the jemalloc tag. A block's capacity is its
// exact usable size; the mapping behind it is that rounded up to whole
// pages. Anonymous mappings come back zero-filled, so the cgo zeroing
// dance of the jemalloc backend is not needed here.

var pageSize = os.Getpagesize()

func roundPages(n int) int {
	return (n + pageSize - 1) &^ (pageSize - 1)
}

func mmapChunk(size int) ([]byte, error) {
	addr, _, errno := unix.Syscall6(
		unix.SYS_MMAP,
		0,
		uintptr(size),
		uintptr(unix.PROT_READ|unix.PROT_WRITE),
		uintptr(unix.MAP_PRIVATE|unix.MAP_ANONYMOUS),
		^uintptr(0), // no fd
		0,
	)
	if errno != 0 {
		return nil, errors.Wrapf(errno, "cannot mmap %d bytes", size)
	}
	return unsafe.Slice((*byte)(unsafe.Pointer(addr)), size), nil
}

func munmapChunk(addr unsafe.Pointer, size int) {
	_, _, errno := unix.Syscall(unix.SYS_MUNMAP, uintptr(addr), uintptr(size), 0)
	if errno != 0 {
		panic(fmt.Sprintf("jealloc: munmap of %d bytes at %#x failed: %v",
			size, uintptr(addr), errno))
	}
}

// mremapChunk moves or resizes the mapping behind b to fit size bytes.
func mremapChunk(b []byte, size int) ([]byte, error) {
	addr, _, errno := unix.Syscall6(
		unix.SYS_MREMAP,
		uintptr(unsafe.Pointer(unsafe.SliceData(b))),
		uintptr(roundPages(cap(b))),
		uintptr(roundPages(size)),
		uintptr(unix.MREMAP_MAYMOVE),
		0, 0,
	)
	if errno != 0 {
		return nil, errors.Wrapf(errno, "cannot mremap %d to %d bytes", cap(b), size)
	}
	return unsafe.Slice((*byte)(unsafe.Pointer(addr)), size), nil
}

func rawAlloc(n int) []byte {
	data, err := mmapChunk(roundPages(n))
	if err != nil {
		throw("out of memory")
	}
	atomic.AddInt64(&numBytes, int64(n))
	return data[:n:n]
}

func rawAllocAligned(align, n int) []byte {
	if align <= 0 || align&(align-1) != 0 {
		panic(fmt.Sprintf("jealloc: alignment %d is not a power of two", align))
	}
	if align <= pageSize {
		// Mappings are page-aligned, which covers every smaller power of
		// two.
		return rawAlloc(n)
	}

	// Over-map by the alignment, then unmap the head and tail pages so the
	// block starts on an aligned boundary.
	mapped := roundPages(n)
	data, err := mmapChunk(mapped + align)
	if err != nil {
		throw("out of memory")
	}
	base := unsafe.Pointer(unsafe.SliceData(data))
	shift := 0
	if r := int(uintptr(base) % uintptr(align)); r != 0 {
		shift = align - r
	}
	if shift > 0 {
		munmapChunk(base, shift)
	}
	if tail := align - shift; tail > 0 {
		munmapChunk(unsafe.Add(base, shift+mapped), tail)
	}
	atomic.AddInt64(&numBytes, int64(n))
	return data[shift : shift+n : shift+n]
}

func rawRealloc(b []byte, n int) []byte {
	oldCap := cap(b)
	if nb, err := mremapChunk(full(b), n); err == nil {
		atomic.AddInt64(&numBytes, int64(n-oldCap))
		return nb
	}
	// Moving the mapping failed; fall back to map, copy, unmap.
	nb := rawAlloc(n)
	copy(nb, full(b))
	rawFree(b)
	return nb
}

func rawFree(b []byte) {
	munmapChunk(unsafe.Pointer(unsafe.SliceData(b)), roundPages(cap(b)))
	atomic.AddInt64(&numBytes, -int64(cap(b)))
}

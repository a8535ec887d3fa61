// Copyright 2025 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

//go:build jemalloc

package jealloc

/*
#cgo LDFLAGS: -L/usr/local/lib -Wl,-rpath,/usr/local/lib -ljemalloc -lm -lstdc++ -pthread -ldl
#include <stdint.h>
#include <stdlib.h>
#include <string.h>
#include <jemalloc/jemalloc.h>

// A small fixed arena count bounds the fragmentation/contention tradeoff.
const char *je_malloc_conf = "narenas:4";

extern void jeallocStatsSink(uintptr_t handle, char *msg);

static void jealloc_stats_cb(void *handle, const char *msg) {
	jeallocStatsSink((uintptr_t)handle, (char *)msg);
}

static void jealloc_stats_print(uintptr_t handle, const char *opts) {
	je_malloc_stats_print(jealloc_stats_cb, (void *)handle, opts);
}
*/
import "C"

import (
	"fmt"
	"runtime/cgo"
	"sync/atomic"
	"unsafe"
)

// The raw heap served by jemalloc. Compile jemalloc with
// ./configure --with-jemalloc-prefix="je_" and the Go program with
// `go build -tags=jemalloc` to enable this backend.
//
// The returned slices have the requested length and the block's usable
// size as capacity. jemalloc rounds requests up to a size class, so the
// capacity is often a little larger than the request.

// statsOpts selects the merged and abbreviated statistics report.
const statsOpts = "ma"

func rawAlloc(n int) []byte {
	// We need to be conscious of the Cgo pointer passing rules:
	//
	//   https://golang.org/cmd/cgo/#hdr-Passing_pointers
	//
	// Go code may store pointer values into this memory, so it has to be
	// zeroed in C before being handed to Go. Hence calloc over malloc.
	ptr := C.je_calloc(C.size_t(n), 1)
	if ptr == nil {
		// NB: throw is like panic, except it guarantees the process will
		// be terminated. The call below is exactly what the Go runtime
		// invokes when it cannot allocate memory.
		throw("out of memory")
	}
	usable := int(C.je_malloc_usable_size(ptr))
	atomic.AddInt64(&numBytes, int64(usable))
	return unsafe.Slice((*byte)(ptr), usable)[:n]
}

func rawAllocAligned(align, n int) []byte {
	ptr := C.je_aligned_alloc(C.size_t(align), C.size_t(n))
	if ptr == nil {
		// aligned_alloc also fails on an unsupported alignment; jemalloc
		// reports that through its own error channel before returning.
		throw("out of memory")
	}
	usable := int(C.je_malloc_usable_size(ptr))
	// Zero in C before Go sees it, same rule as rawAlloc.
	C.memset(ptr, 0, C.size_t(usable))
	atomic.AddInt64(&numBytes, int64(usable))
	return unsafe.Slice((*byte)(ptr), usable)[:n]
}

func rawRealloc(b []byte, n int) []byte {
	old := int64(cap(b))
	ptr := C.je_realloc(unsafe.Pointer(unsafe.SliceData(b)), C.size_t(n))
	if ptr == nil {
		throw("out of memory")
	}
	usable := int(C.je_malloc_usable_size(ptr))
	if usable > int(old) {
		// The grown region is uninitialized; zero it so Go code may store
		// pointers into it.
		C.memset(unsafe.Add(ptr, int(old)), 0, C.size_t(usable-int(old)))
	}
	atomic.AddInt64(&numBytes, int64(usable)-old)
	return unsafe.Slice((*byte)(ptr), usable)[:n]
}

func rawFree(b []byte) {
	C.je_free(unsafe.Pointer(unsafe.SliceData(b)))
	atomic.AddInt64(&numBytes, -int64(cap(b)))
}

func rawStatsPrint(sink func(string)) {
	h := cgo.NewHandle(sink)
	defer h.Delete()
	opts := C.CString(statsOpts)
	defer C.free(unsafe.Pointer(opts))
	C.jealloc_stats_print(C.uintptr_t(h), opts)
}

func rawTrim() {
	var narenas C.unsigned
	sz := C.size_t(unsafe.Sizeof(narenas))
	name := C.CString("arenas.narenas")
	C.je_mallctl(name, unsafe.Pointer(&narenas), &sz, nil, 0)
	C.free(unsafe.Pointer(name))

	// Arena index narenas addresses every arena at once.
	purge := C.CString(fmt.Sprintf("arena.%d.purge", uint(narenas)))
	C.je_mallctl(purge, nil, nil, nil, 0)
	C.free(unsafe.Pointer(purge))
}

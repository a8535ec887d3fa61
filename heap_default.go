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

//go:build !jemalloc && !linux

package jealloc

import (
	"fmt"
	"sync"
	"sync/atomic"
)

// The raw heap for platforms without jemalloc or anonymous mmap. Memory
// comes from the Go runtime. Live blocks are pinned in a registry so the
// GC cannot recycle an address while the facade still tracks it; rawFree
// unpins and lets the GC do the reclaiming.

var (
	pinMu  sync.Mutex
	pinned = map[uintptr][]byte{}
)

func pin(b []byte) []byte {
	pinMu.Lock()
	pinned[blockAddr(b)] = b
	pinMu.Unlock()
	atomic.AddInt64(&numBytes, int64(cap(b)))
	return b
}

func rawAlloc(n int) []byte {
	return pin(make([]byte, n))
}

func rawAllocAligned(align, n int) []byte {
	if align <= 0 || align&(align-1) != 0 {
		panic(fmt.Sprintf("jealloc: alignment %d is not a power of two", align))
	}
	buf := make([]byte, n+align)
	shift := 0
	if r := int(blockAddr(buf) % uintptr(align)); r != 0 {
		shift = align - r
	}
	return pin(buf[shift : shift+n : shift+n])
}

func rawRealloc(b []byte, n int) []byte {
	nb := rawAlloc(n)
	copy(nb, full(b))
	rawFree(b)
	return nb
}

func rawFree(b []byte) {
	pinMu.Lock()
	delete(pinned, blockAddr(b))
	pinMu.Unlock()
	atomic.AddInt64(&numBytes, -int64(cap(b)))
}

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

// memtest grows and shrinks a linked list of manually allocated nodes
// forever, to watch the heap's behavior under churn. Build with
// -tags=jemalloc to put jemalloc under test; interrupt to get a leak
// report.
package main

import (
	"fmt"
	"log"
	"math/rand"
	"os"
	"os/signal"
	"syscall"
	"time"
	"unsafe"

	"github.com/dustin/go-humanize"

	"github.com/dgraph-io/jealloc"
)

var (
	tracker = jealloc.NewMemTracker()
	heap    = jealloc.New(jealloc.WithTracker(tracker))

	lo, hi   = int64(1 << 30), int64(2 << 30)
	increase = true
	ticks    = 0
)

type S struct {
	key  uint64
	val  []byte
	next *S
	raw  []byte // the node's own block, capacity intact for Free
}

var ssz = int(unsafe.Sizeof(S{}))

func newS(sz int) *S {
	b := heap.Alloc(ssz)
	s := (*S)(unsafe.Pointer(&b[0]))
	s.raw = b
	s.val = heap.Alloc(sz)
	rand.Read(s.val)
	return s
}

func freeS(s *S) {
	heap.Free(s.val)
	heap.Free(s.raw)
}

func (s *S) allocateNext(sz int) {
	ns := newS(sz)
	s.next, ns.next = ns, s.next
}

func (s *S) deallocNext() {
	if s.next == nil {
		log.Fatal("next should not be nil")
	}
	next := s.next
	s.next = next.next
	freeS(next)
}

func memory() {
	curMem := jealloc.NumAllocBytes()
	if increase {
		if curMem > hi {
			increase = false
			heap.Trim()
		}
	} else {
		if curMem < lo {
			increase = true
		}
	}
	fmt.Printf("Current Memory: %s. Increase? %v\n",
		humanize.IBytes(uint64(curMem)), increase)

	ticks++
	if ticks%100 == 0 {
		fmt.Println(jealloc.DumpStatsString(heap, 64<<10))
	}
}

func viaLL(root *S, quit <-chan os.Signal) {
	ticker := time.NewTicker(10 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if increase {
				root.allocateNext(rand.Intn(1024) << 10)
			} else if root.next != nil {
				root.deallocNext()
			}
			memory()
		case <-quit:
			return
		}
	}
}

func main() {
	root := newS(1)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	viaLL(root, quit)

	for root.next != nil {
		root.deallocNext()
	}
	freeS(root)
	if err := tracker.AssertNoLeaks(); err != nil {
		log.Fatalf("%v", err)
	}
	fmt.Println(tracker.Leaks())
}

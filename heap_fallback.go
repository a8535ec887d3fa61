//go:build !jemalloc

package jealloc

import (
	"fmt"
	"runtime"
	"runtime/debug"

	"github.com/dustin/go-humanize"
)

// Statistics and trim for the non-jemalloc heaps. There is no native
// report to stream, so the sink gets a short summary of the Go runtime's
// view instead.

func rawStatsPrint(sink func(string)) {
	var ms runtime.MemStats
	runtime.ReadMemStats(&ms)
	sink("--- jealloc stats (built without jemalloc) ---\n")
	sink(fmt.Sprintf("manual bytes:  %s\n", humanize.IBytes(uint64(NumAllocBytes()))))
	sink(fmt.Sprintf("heap alloc:    %s\n", humanize.IBytes(ms.HeapAlloc)))
	sink(fmt.Sprintf("heap sys:      %s\n", humanize.IBytes(ms.HeapSys)))
	sink(fmt.Sprintf("heap idle:     %s\n", humanize.IBytes(ms.HeapIdle)))
	sink(fmt.Sprintf("heap released: %s\n", humanize.IBytes(ms.HeapReleased)))
	sink(fmt.Sprintf("gc cycles:     %d\n", ms.NumGC))
}

func rawTrim() {
	debug.FreeOSMemory()
}

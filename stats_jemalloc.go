//go:build jemalloc

package jealloc

/*
#include <stdint.h>
*/
import "C"

import "runtime/cgo"

// jeallocStatsSink receives one report fragment per call from
// je_malloc_stats_print. It lives in its own file because a file with an
// exported function must not define anything in its C preamble.
//
//export jeallocStatsSink
func jeallocStatsSink(handle C.uintptr_t, msg *C.char) {
	sink := cgo.Handle(handle).Value().(func(string))
	sink(C.GoString(msg))
}

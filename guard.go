package jealloc

import (
	"encoding/binary"
	"fmt"
	"unsafe"
)

// Every tracked block carries a 4-byte guard tag in the last bytes of its
// usable region, written at allocation time and verified whenever the block
// is released or resized. The usable region of a block is its slice
// capacity on every heap backend, so all of the region math lives here and
// works on the full-capacity reslice.
const (
	guardSize = 4
	guardTag  = 0x20170719
)

// full extends b over the block's entire usable region.
func full(b []byte) []byte {
	return b[:cap(b)]
}

// payloadSize returns the number of usable bytes below the guard tag.
func payloadSize(b []byte) int {
	return cap(b) - guardSize
}

// blockAddr returns the address the tracker keys this block by.
func blockAddr(b []byte) uintptr {
	return uintptr(unsafe.Pointer(unsafe.SliceData(b)))
}

func writeGuard(b []byte) {
	f := full(b)
	binary.LittleEndian.PutUint32(f[len(f)-guardSize:], guardTag)
}

// checkGuard verifies the tag stamped by writeGuard. A mismatch means
// something wrote past the payload; that is memory corruption and is not
// recoverable in-process, so this panics instead of returning an error.
func checkGuard(b []byte) {
	f := full(b)
	if got := binary.LittleEndian.Uint32(f[len(f)-guardSize:]); got != guardTag {
		panic(fmt.Sprintf("jealloc: guard tag overwritten at block %#x: got %#x, want %#x",
			blockAddr(b), got, uint32(guardTag)))
	}
}

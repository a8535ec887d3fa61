package jealloc

// dumpStats streams the heap's statistics report into buf through a
// fixed-capacity sink. The heap invokes the sink repeatedly with message
// fragments; the sink stops copying once the buffer is exhausted but does
// not error. One byte is reserved so the report is always NUL-terminated
// at or before len(buf)-1, mirroring the native contract this layer wraps.
func dumpStats(buf []byte) int {
	if len(buf) == 0 {
		return 0
	}
	room := buf[:len(buf)-1]
	n := 0
	rawStatsPrint(func(msg string) {
		if n >= len(room) {
			return
		}
		n += copy(room[n:], msg)
	})
	buf[n] = 0
	return n
}

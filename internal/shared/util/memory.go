package util

import "runtime"

// RuntimeStats reports the live heap in MiB and the goroutine count.
func RuntimeStats() (heapMB uint64, goroutines int) {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	return m.HeapAlloc >> 20, runtime.NumGoroutine()
}

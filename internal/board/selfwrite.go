package board

import "sync/atomic"

// SelfWriteFlag is the one bit of shared state between the saving side
// and the watcher: armed immediately before each application-initiated
// write, consumed by the first raw change event of the next coalescing
// window. Swap carries a full memory fence, so no further synchronization
// is needed across the two goroutines.
type SelfWriteFlag struct {
	armed atomic.Bool
}

func NewSelfWriteFlag() *SelfWriteFlag {
	return &SelfWriteFlag{}
}

// Arm marks the next filesystem change as our own.
func (f *SelfWriteFlag) Arm() {
	f.armed.Store(true)
}

// Consume atomically clears the flag and reports whether it was armed.
func (f *SelfWriteFlag) Consume() bool {
	return f.armed.Swap(false)
}

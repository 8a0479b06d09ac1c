// Package frame defines the in-memory slot a buffer pool instance manages:
// a fixed byte array plus the pin/dirty bookkeeping the replacer and
// flush path depend on. Grounded in the teacher's page.Page (internal/
// storage/page/page.go), split so that frame identity/latching lives here
// and on-disk (de)serialization lives in internal/disk.
package frame

import (
	"sync"

	"github.com/arran-oss/bufpool/internal/page"
)

// Frame is one slot of the buffer pool's fixed-size array. Every frame has
// its own RWMutex, matching the teacher's pattern of a latch per slot
// rather than one lock guarding all page contents (internal/storage/
// buffer/pool.go held a coarser lock; spec §3 calls for per-frame
// latching so readers of different pages never block each other).
type Frame struct {
	sync.RWMutex

	id       page.FrameID
	pageID   page.ID
	data     [page.Size]byte
	pinCount int32
	dirty    bool
	lsn      uint64
}

// New returns an empty frame at slot id, holding no page.
func New(id page.FrameID) *Frame {
	return &Frame{id: id, pageID: page.InvalidID}
}

// ID returns the frame's slot index, which never changes after New.
func (f *Frame) ID() page.FrameID { return f.id }

// PageID returns the id of the page currently resident in the frame.
// Callers must hold at least the frame's read latch.
func (f *Frame) PageID() page.ID { return f.pageID }

// PinCount returns the frame's current pin count. Callers must hold the
// instance latch (pin count is instance-owned bookkeeping, not
// content the per-frame latch protects).
func (f *Frame) PinCount() int32 { return f.pinCount }

// IsDirty reports whether the frame has been written since its last
// flush. Callers must hold at least the frame's read latch.
func (f *Frame) IsDirty() bool { return f.dirty }

// Data returns the frame's usable byte slice. Callers must hold the
// frame's read or write latch for as long as they examine or mutate the
// returned slice.
func (f *Frame) Data() []byte { return f.data[:] }

// LSN returns the log sequence number of the last record that dirtied
// this frame, or 0 if none has.
func (f *Frame) LSN() uint64 { return f.lsn }

// RLatch acquires the frame's read latch, allowing concurrent readers to
// share access to Data while excluding writers. RUnlock (promoted from
// the embedded RWMutex) releases it.
func (f *Frame) RLatch() { f.RLock() }

// WLatch acquires the frame's write latch, excluding all other readers
// and writers.
func (f *Frame) WLatch() { f.Lock() }

// WUnlock releases a previously-acquired write latch.
func (f *Frame) WUnlock() { f.Unlock() }

// SetLSN records the log sequence number associated with the frame's most
// recent mutation, per the WAL-before-data-page rule in spec §6.
func (f *Frame) SetLSN(lsn uint64) { f.lsn = lsn }

// Install resets the frame to hold a freshly-read or freshly-allocated
// page. Callers must hold the frame's write latch, and the instance latch
// unless the frame is reserved and reachable by no other caller.
func (f *Frame) Install(id page.ID, contents []byte) {
	f.pageID = id
	f.dirty = false
	f.pinCount = 0
	f.lsn = 0
	if contents != nil {
		copy(f.data[:], contents)
	} else {
		for i := range f.data {
			f.data[i] = 0
		}
	}
}

// Reset clears the frame back to empty. Callers must hold the frame's
// write latch, and the instance latch unless the frame is reserved and
// reachable by no other caller.
func (f *Frame) Reset() {
	f.pageID = page.InvalidID
	f.dirty = false
	f.pinCount = 0
	f.lsn = 0
}

// IncPin bumps the pin count by one. Callers must hold the instance
// latch.
func (f *Frame) IncPin() { f.pinCount++ }

// DecPin drops the pin count by one, floored at zero. Callers must hold
// the instance latch. It reports the pin count after decrementing.
func (f *Frame) DecPin() int32 {
	if f.pinCount > 0 {
		f.pinCount--
	}
	return f.pinCount
}

// MarkDirty sets the frame's dirty bit. It never clears it: per spec §9,
// a frame already dirty stays dirty until the next successful flush, even
// if unpinned with isDirty=false in the interim. Callers must hold the
// frame's write latch.
func (f *Frame) MarkDirty() { f.dirty = true }

// ClearDirty marks the frame clean. Callers must hold the instance latch
// and the frame's write latch, and must only call this immediately after
// a successful write-back. After an eviction write-back the dirty bit is
// cleared, never set (the source bug noted in DESIGN.md).
func (f *Frame) ClearDirty() { f.dirty = false }

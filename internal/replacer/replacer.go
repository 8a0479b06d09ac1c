// Package replacer implements the buffer pool's eviction policies. Both
// implementations satisfy the same narrow contract so an Instance can be
// configured with either at construction time, mirroring the teacher's
// own pool_lru.go / pool_clock.go split (internal/storage/buffer) behind
// a shared Replacer-like interface.
package replacer

import "github.com/arran-oss/bufpool/internal/page"

// Replacer tracks unpinned frames and chooses a victim for eviction. A
// frame only ever lives in a Replacer while its pin count is zero; the
// owning Instance is responsible for calling Pin/Unpin in lockstep with
// its own pin-count bookkeeping.
type Replacer interface {
	// Victim removes and returns the frame the policy selects for
	// eviction. ok is false if the replacer holds no frames.
	Victim() (page.FrameID, bool)

	// Pin removes id from the replacer's candidate set, if present. An
	// Instance calls this the moment a frame's pin count becomes
	// nonzero.
	Pin(id page.FrameID)

	// Unpin adds id to the replacer's candidate set. An Instance calls
	// this the moment a frame's pin count drops to zero.
	Unpin(id page.FrameID)

	// Size reports how many frames are currently eviction candidates.
	Size() int
}

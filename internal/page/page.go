// Package page defines the identifiers and fixed-size data unit shared by
// every layer of the buffer pool: the disk manager, the frame table, and
// the replacer all agree on these types.
package page

// ID identifies a page on disk. It is a signed 32-bit integer so that
// InvalidID can be represented as -1, per the routing invariant that ties
// an Instance-allocated ID to its owning shard (id mod K == instance
// index).
type ID int32

// InvalidID marks a frame that holds no page.
const InvalidID ID = -1

// FrameID is an instance-local slot index in [0, N).
type FrameID int

// Size is the fixed number of usable bytes in a page. Checksums and any
// other on-disk bookkeeping the disk manager needs live outside this
// budget, not inside it.
const Size = 4096

// Package disk provides the buffer pool's one external collaborator for
// durable bytes: an opaque, byte-level page store addressed by page.ID.
// Everything above this package (frames, replacers, the BPM instance)
// only ever sees the Manager interface.
package disk

import "github.com/arran-oss/bufpool/internal/page"

// Manager is the narrow disk-manager contract the BPM consumes (spec §6).
// Page-id allocation is deliberately absent: the BPM instance owns
// next_page_id arithmetic itself (see internal/buffer), so the disk
// manager is only ever told about a page id after the fact, to persist or
// release it.
type Manager interface {
	// ReadPage fills buf (which must be exactly page.Size bytes) with id's
	// last-written contents.
	ReadPage(id page.ID, buf []byte) error

	// WritePage persists buf (exactly page.Size bytes) as id's contents.
	WritePage(id page.ID, buf []byte) error

	// DeallocatePage notifies the disk layer that id's slot may be
	// reclaimed. This implementation does not shrink the backing file; it
	// only tracks the id as free for bookkeeping/metrics purposes.
	DeallocatePage(id page.ID) error

	// Close releases the manager's underlying resources.
	Close() error
}

package replacer

import (
	lru "github.com/hashicorp/golang-lru/v2/simplelru"

	"github.com/arran-oss/bufpool/internal/page"
)

// LRUReplacer is a Replacer backed by hashicorp/golang-lru's simplelru,
// the same generic LRU used for Go bustub ports in the example pack (see
// other_examples/bsnyl5-bustubgo__replacer.go, which wraps the
// non-generic lru.Cache the same way). Victim evicts the least-recently
// unpinned frame. Not internally locked: all calls occur under the
// owning Instance's latch, per spec §4.1.
type LRUReplacer struct {
	lru *lru.LRU[page.FrameID, struct{}]
}

var _ Replacer = (*LRUReplacer)(nil)

// NewLRU returns an LRUReplacer with room for capacity frames, one per
// slot in the owning instance's pool.
func NewLRU(capacity int) *LRUReplacer {
	// simplelru.NewLRU only errors when size <= 0 and no eviction
	// callback is supplied; callers always pass the instance's frame
	// count, which is validated positive before construction.
	l, _ := lru.NewLRU[page.FrameID, struct{}](capacity, nil)
	return &LRUReplacer{lru: l}
}

// Victim evicts and returns the least-recently-unpinned frame.
func (r *LRUReplacer) Victim() (page.FrameID, bool) {
	id, _, ok := r.lru.RemoveOldest()
	return id, ok
}

// Pin removes id from the candidate set.
func (r *LRUReplacer) Pin(id page.FrameID) {
	r.lru.Remove(id)
}

// Unpin marks id the most-recently-used eviction candidate. Add moves an
// already-present key to the most-recent end, so a frame already in the
// candidate set has its recency refreshed rather than duplicated or left
// stale, per spec §4.1's tie-break rule.
func (r *LRUReplacer) Unpin(id page.FrameID) {
	r.lru.Add(id, struct{}{})
}

// Size reports the number of frames currently eligible for eviction.
func (r *LRUReplacer) Size() int {
	return r.lru.Len()
}

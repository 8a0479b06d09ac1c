package replacer

import "github.com/arran-oss/bufpool/internal/page"

// clockState packs a frame's replacer bookkeeping into one byte, the same
// trick the example pack's CLOCK port uses (other_examples/
// thetarby-helindb__clock_replacer.go: PinnedBit / SecondChanceBit in a
// uint8) rather than two separate bool slices.
type clockState uint8

const (
	residentBit clockState = 1 << iota
	refBit
)

// ClockReplacer is a hand-rolled second-chance replacer. Unlike
// LRUReplacer it does not reorder its candidate list on Unpin; it only
// sets the reference bit, and Victim sweeps a circular hand clearing
// reference bits until it finds a frame with the bit already clear. This
// trades perfect recency ordering for O(1) Unpin at the cost of
// occasionally re-scanning frames, the classic CLOCK tradeoff. Not
// internally locked: all calls occur under the owning Instance's latch,
// per spec §4.1.
type ClockReplacer struct {
	state []clockState
	hand  int
	size  int
}

var _ Replacer = (*ClockReplacer)(nil)

// NewClock returns a ClockReplacer sized for capacity frames (ids in
// [0, capacity)).
func NewClock(capacity int) *ClockReplacer {
	return &ClockReplacer{state: make([]clockState, capacity)}
}

// Victim sweeps the clock hand looking for a resident frame whose
// reference bit is clear, clearing reference bits as it passes over them
// (the "second chance"). It never advances more than two full laps,
// which bounds the scan even under pathological reference patterns.
func (r *ClockReplacer) Victim() (page.FrameID, bool) {
	if r.size == 0 || len(r.state) == 0 {
		return 0, false
	}

	maxSteps := 2 * len(r.state)
	for steps := 0; steps < maxSteps; steps++ {
		i := r.hand
		r.hand = (r.hand + 1) % len(r.state)

		s := r.state[i]
		if s&residentBit == 0 {
			continue
		}
		if s&refBit != 0 {
			r.state[i] = s &^ refBit
			continue
		}

		r.state[i] = 0
		r.size--
		return page.FrameID(i), true
	}
	return 0, false
}

// Pin removes id from the candidate set.
func (r *ClockReplacer) Pin(id page.FrameID) {
	if int(id) < 0 || int(id) >= len(r.state) {
		return
	}
	if r.state[id]&residentBit != 0 {
		r.size--
	}
	r.state[id] = 0
}

// Unpin marks id a candidate with its reference bit set, giving it one
// free pass before the clock hand can evict it.
func (r *ClockReplacer) Unpin(id page.FrameID) {
	if int(id) < 0 || int(id) >= len(r.state) {
		return
	}
	if r.state[id]&residentBit == 0 {
		r.size++
	}
	r.state[id] = residentBit | refBit
}

// Size reports the number of frames currently eligible for eviction.
func (r *ClockReplacer) Size() int {
	return r.size
}

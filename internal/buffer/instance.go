// Package buffer implements the buffer pool manager: an Instance owning a
// fixed array of frames, and a ParallelBufferPool sharding page ids across
// several Instances. Grounded in the teacher's internal/storage/buffer
// package (pool.go, pool_lru.go, pool_clock.go), generalized to the
// pluggable-replacer, page-checksum, and singleflight-deduplicated-miss
// design this repository adds.
package buffer

import (
	"fmt"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/arran-oss/bufpool/internal/bpmerr"
	"github.com/arran-oss/bufpool/internal/disk"
	"github.com/arran-oss/bufpool/internal/frame"
	"github.com/arran-oss/bufpool/internal/metrics"
	"github.com/arran-oss/bufpool/internal/page"
	"github.com/arran-oss/bufpool/internal/replacer"
	"github.com/arran-oss/bufpool/internal/wal"
)

// ReplacerPolicy selects which eviction policy a new Instance uses.
type ReplacerPolicy int

const (
	// PolicyLRU evicts the least-recently-unpinned frame.
	PolicyLRU ReplacerPolicy = iota
	// PolicyClock evicts via a second-chance clock sweep.
	PolicyClock
)

// Option configures an Instance at construction time, the same small
// functional-options shape the teacher pack uses elsewhere for optional
// collaborators (e.g. sushant-115-gojodb's logger/telemetry wiring).
type Option func(*Instance)

// WithLogger attaches a structured logger. Defaults to a no-op logger.
func WithLogger(l *zap.Logger) Option {
	return func(inst *Instance) { inst.log = l }
}

// WithLogManager attaches a write-ahead-log collaborator. Defaults to
// wal.NoopManager.
func WithLogManager(m wal.Manager) Option {
	return func(inst *Instance) { inst.logMgr = m }
}

// WithMetrics attaches a metrics collector. Defaults to an unregistered
// Collector (instruments exist but are never scraped).
func WithMetrics(c *metrics.Collector) Option {
	return func(inst *Instance) { inst.metrics = c }
}

// WithReplacerPolicy selects the eviction policy. Defaults to PolicyLRU.
func WithReplacerPolicy(p ReplacerPolicy) Option {
	return func(inst *Instance) { inst.policy = p }
}

// Instance is one shard of the buffer pool: N frames, a page table, a
// free list, a replacer, and the instance-wide latch serializing access
// to all three plus next_page_id (spec §3, §5).
type Instance struct {
	mu sync.Mutex

	n             int
	k             int
	instanceIndex int
	nextPageID    page.ID

	disk   disk.Manager
	logMgr wal.Manager
	log    *zap.Logger

	frames    []*frame.Frame
	pageTable map[page.ID]page.FrameID
	freeList  []page.FrameID
	replacer  replacer.Replacer

	policy ReplacerPolicy

	metrics *metrics.Collector

	miss singleflight.Group
}

// New constructs an Instance with n frames, participating as shard
// instanceIndex of k total shards (k=1, instanceIndex=0 for a
// single-instance pool). next_page_id starts at instanceIndex and
// advances by k on every allocation, preserving the routing invariant of
// spec §3.
func New(n, k, instanceIndex int, dm disk.Manager, opts ...Option) (*Instance, error) {
	if n <= 0 {
		return nil, bpmerr.ErrInvalidPoolSize
	}
	if k <= 0 {
		return nil, bpmerr.ErrInvalidShardCount
	}
	if instanceIndex < 0 || instanceIndex >= k {
		return nil, fmt.Errorf("buffer: instance index %d out of range [0,%d)", instanceIndex, k)
	}

	inst := &Instance{
		n:             n,
		k:             k,
		instanceIndex: instanceIndex,
		nextPageID:    page.ID(instanceIndex),
		disk:          dm,
		logMgr:        wal.NoopManager{},
		log:           zap.NewNop(),
		pageTable:     make(map[page.ID]page.FrameID, n),
		frames:        make([]*frame.Frame, n),
	}

	for _, opt := range opts {
		opt(inst)
	}

	for i := 0; i < n; i++ {
		inst.frames[i] = frame.New(page.FrameID(i))
		inst.freeList = append(inst.freeList, page.FrameID(i))
	}

	switch inst.policy {
	case PolicyClock:
		inst.replacer = replacer.NewClock(n)
	default:
		inst.replacer = replacer.NewLRU(n)
	}

	if inst.metrics == nil {
		inst.metrics = metrics.New(nil, instanceIndex)
	}

	return inst, nil
}

// PoolSize returns the number of frames this Instance owns.
func (inst *Instance) PoolSize() int { return inst.n }

// allocatePageLocked returns next_page_id and advances it by k. Callers
// must hold mu.
func (inst *Instance) allocatePageLocked() page.ID {
	id := inst.nextPageID
	inst.nextPageID += page.ID(inst.k)
	if int(id)%inst.k != inst.instanceIndex {
		panic(fmt.Errorf("buffer: %w: %d mod %d != %d", bpmerr.ErrRoutingInvariant, id, inst.k, inst.instanceIndex))
	}
	return id
}

// reserveVictimLocked obtains a frame to (re)use: the free list first,
// else a replacer victim. If the chosen frame is dirty, it is written
// back to disk (and its LSN forced durable first) before being handed
// back clean and detached from the page table. Callers must hold mu.
func (inst *Instance) reserveVictimLocked() (page.FrameID, error) {
	if len(inst.freeList) > 0 {
		fid := inst.freeList[0]
		inst.freeList = inst.freeList[1:]
		return fid, nil
	}

	fid, ok := inst.replacer.Victim()
	if !ok {
		return 0, bpmerr.ErrAllFramesPinned
	}

	fr := inst.frames[fid]
	fr.Lock()
	if fr.IsDirty() {
		if err := inst.logMgr.ForceFlushUpTo(fr.LSN()); err != nil {
			fr.Unlock()
			// put the frame back as a candidate; we never removed it
			// from the page table so it is still a valid resident.
			inst.replacer.Unpin(fid)
			return 0, fmt.Errorf("buffer: force flush log before eviction: %w", err)
		}
		if err := inst.disk.WritePage(fr.PageID(), fr.Data()); err != nil {
			fr.Unlock()
			inst.replacer.Unpin(fid)
			inst.metrics.IOErrors.Inc()
			return 0, fmt.Errorf("buffer: write back evicted page %d: %w", fr.PageID(), err)
		}
		fr.ClearDirty()
		inst.metrics.DirtyWritebacks.Inc()
	}
	oldID := fr.PageID()
	fr.Unlock()

	delete(inst.pageTable, oldID)
	inst.metrics.Evictions.Inc()
	return fid, nil
}

// NewPage allocates a fresh page, evicting if necessary, and returns its
// id plus a pinned Frame handle. The returned frame is pinned once and
// marked dirty (spec §9: fresh pages are dirty to force initial
// persistence).
func (inst *Instance) NewPage() (page.ID, *frame.Frame, error) {
	inst.mu.Lock()
	defer inst.mu.Unlock()

	fid, err := inst.reserveVictimLocked()
	if err != nil {
		return page.InvalidID, nil, err
	}

	id := inst.allocatePageLocked()

	fr := inst.frames[fid]
	fr.Lock()
	fr.Install(id, nil)
	fr.IncPin()
	fr.MarkDirty()
	fr.Unlock()

	inst.pageTable[id] = fid
	inst.replacer.Pin(fid)
	inst.metrics.PagesAllocated.Inc()
	inst.metrics.PinnedFrames.Inc()
	inst.log.Debug("new page", zap.Int32("page_id", int32(id)), zap.Int("frame_id", int(fid)))

	return id, fr, nil
}

// FetchPage returns a pinned handle to page p, reading it from disk if
// it is not already resident. Concurrent fetch-misses for the same p are
// deduplicated via singleflight: exactly one caller performs the
// reservation and disk read, and every caller (leader and followers
// alike) increments the frame's pin count once the shared frame is
// ready.
func (inst *Instance) FetchPage(p page.ID) (*frame.Frame, error) {
	inst.mu.Lock()
	if fid, ok := inst.pageTable[p]; ok {
		fr := inst.frames[fid]
		fr.IncPin()
		inst.replacer.Pin(fid)
		if fr.PinCount() == 1 {
			inst.metrics.PinnedFrames.Inc()
		}
		inst.metrics.FetchHits.Inc()
		inst.mu.Unlock()
		inst.log.Debug("fetch hit", zap.Int32("page_id", int32(p)))
		return fr, nil
	}
	inst.mu.Unlock()

	inst.metrics.FetchMisses.Inc()

	key := fmt.Sprintf("%d", p)
	for {
		v, err, _ := inst.miss.Do(key, func() (interface{}, error) {
			return inst.completeFetchMiss(p)
		})
		if err != nil {
			return nil, err
		}
		fr := v.(*frame.Frame)

		inst.mu.Lock()
		if fid, ok := inst.pageTable[p]; ok && inst.frames[fid] == fr {
			fr.IncPin()
			inst.replacer.Pin(fid)
			if fr.PinCount() == 1 {
				inst.metrics.PinnedFrames.Inc()
			}
			inst.mu.Unlock()
			return fr, nil
		}
		// p was deleted or evicted between the miss resolving and this
		// pin; resolve it again rather than pin a frame that no longer
		// holds p.
		inst.mu.Unlock()
	}
}

// completeFetchMiss reserves a frame and reads p's bytes from disk,
// publishing the page-table entry only after the read succeeds. Delaying
// page-table visibility until the frame is fully loaded is what closes
// spec §9's fetch-miss/delete race: no other caller can ever observe
// page_table[p] pointing at a frame still mid-read, so there is no
// window for a concurrent delete_page(p) (or a hit-path pin) to act on
// a half-installed page. On a read failure the frame is returned to the
// free list untouched, per spec §7's fetch-miss rollback rule.
func (inst *Instance) completeFetchMiss(p page.ID) (*frame.Frame, error) {
	inst.mu.Lock()
	if fid, ok := inst.pageTable[p]; ok {
		// a prior singleflight generation already published p between
		// FetchPage's hit-check and this call; treat as a hit.
		fr := inst.frames[fid]
		inst.mu.Unlock()
		return fr, nil
	}

	fid, err := inst.reserveVictimLocked()
	if err != nil {
		inst.mu.Unlock()
		return nil, err
	}
	fr := inst.frames[fid]
	inst.mu.Unlock()

	// fr is now reserved but in neither the free list, the replacer, nor
	// the page table — a deliberate transient state no other caller can
	// reach, since reserveVictimLocked already removed it from its prior
	// home.
	fr.Lock()
	buf := make([]byte, page.Size)
	if err := inst.disk.ReadPage(p, buf); err != nil {
		fr.Reset()
		fr.Unlock()

		inst.mu.Lock()
		inst.freeList = append(inst.freeList, fid)
		inst.metrics.IOErrors.Inc()
		inst.mu.Unlock()

		return nil, fmt.Errorf("buffer: fetch page %d: %w", p, err)
	}
	fr.Install(p, buf)
	fr.Unlock()

	inst.mu.Lock()
	inst.pageTable[p] = fid
	inst.mu.Unlock()

	inst.log.Debug("fetch miss resolved", zap.Int32("page_id", int32(p)), zap.Int("frame_id", int(fid)))
	return fr, nil
}

// UnpinPage decrements p's pin count, marking the frame dirty if
// isDirty is true (sticky: never clears an already-dirty frame). When
// the pin count reaches zero, the frame becomes a replacer candidate
// again. Returns false if p is not resident or already has a zero pin
// count.
func (inst *Instance) UnpinPage(p page.ID, isDirty bool) bool {
	inst.mu.Lock()
	defer inst.mu.Unlock()

	fid, ok := inst.pageTable[p]
	if !ok {
		return false
	}
	fr := inst.frames[fid]
	if fr.PinCount() == 0 {
		return false
	}

	fr.Lock()
	if isDirty {
		fr.MarkDirty()
	}
	fr.Unlock()

	remaining := fr.DecPin()
	if remaining == 0 {
		inst.replacer.Unpin(fid)
		inst.metrics.PinnedFrames.Dec()
	}
	return true
}

// FlushPage writes p's current bytes to disk and clears its dirty bit.
// Flushing does not change pin count or page-table membership, and is
// legal on an unpinned page. Returns bpmerr.ErrPageNotResident if p is
// not resident.
func (inst *Instance) FlushPage(p page.ID) error {
	inst.mu.Lock()
	defer inst.mu.Unlock()
	return inst.flushLocked(p)
}

// flushLocked implements FlushPage. Callers must hold mu; the instance
// latch is held across the disk write itself (see DESIGN.md for why this
// differs from FetchPage's latch-free I/O).
func (inst *Instance) flushLocked(p page.ID) error {
	fid, ok := inst.pageTable[p]
	if !ok {
		return bpmerr.ErrPageNotResident
	}
	fr := inst.frames[fid]

	fr.Lock()
	defer fr.Unlock()

	if err := inst.logMgr.ForceFlushUpTo(fr.LSN()); err != nil {
		return fmt.Errorf("buffer: force flush log before page flush %d: %w", p, err)
	}
	if err := inst.disk.WritePage(p, fr.Data()); err != nil {
		inst.metrics.IOErrors.Inc()
		return fmt.Errorf("buffer: flush page %d: %w", p, err)
	}
	fr.ClearDirty()
	return nil
}

// FlushAllPages flushes every resident frame. No ordering guarantee is
// made between frames. Errors for individual frames are collected and
// joined; flushing continues past the first failure.
func (inst *Instance) FlushAllPages() error {
	inst.mu.Lock()
	defer inst.mu.Unlock()

	var errs []error
	for p := range inst.pageTable {
		if err := inst.flushLocked(p); err != nil {
			errs = append(errs, err)
		}
	}
	return joinErrors(errs)
}

// DeletePage removes page p from the pool. If p is not resident the call
// vacuously succeeds. If p is pinned, the call fails. Otherwise p's disk
// storage is deallocated, its frame reset, and the frame returned to the
// free list.
func (inst *Instance) DeletePage(p page.ID) (bool, error) {
	inst.mu.Lock()
	defer inst.mu.Unlock()

	fid, ok := inst.pageTable[p]
	if !ok {
		return true, nil
	}
	fr := inst.frames[fid]
	if fr.PinCount() != 0 {
		return false, nil
	}

	if err := inst.disk.DeallocatePage(p); err != nil {
		inst.metrics.IOErrors.Inc()
		return false, fmt.Errorf("buffer: deallocate page %d: %w", p, err)
	}

	delete(inst.pageTable, p)
	inst.replacer.Pin(fid) // idempotent removal from candidate set

	fr.Lock()
	fr.Reset()
	fr.Unlock()

	inst.freeList = append(inst.freeList, fid)
	inst.metrics.PagesDeleted.Inc()
	return true, nil
}

func joinErrors(errs []error) error {
	if len(errs) == 0 {
		return nil
	}
	msg := errs[0].Error()
	for _, e := range errs[1:] {
		msg += "; " + e.Error()
	}
	return fmt.Errorf("%s", msg)
}

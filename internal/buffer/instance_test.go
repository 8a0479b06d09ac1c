package buffer

import (
	"bytes"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arran-oss/bufpool/internal/bpmerr"
	"github.com/arran-oss/bufpool/internal/frame"
	"github.com/arran-oss/bufpool/internal/page"
)

// memDisk is an in-memory disk.Manager for tests, grounded in the
// teacher's own habit of exercising the buffer package against simple
// fakes rather than a real file (internal/storage/buffer/pool_test.go).
type memDisk struct {
	mu        sync.Mutex
	pages     map[page.ID][]byte
	reads     map[page.ID]int
	writes    map[page.ID]int
	deletions map[page.ID]int
	failRead  map[page.ID]bool
}

func newMemDisk() *memDisk {
	return &memDisk{
		pages:     make(map[page.ID][]byte),
		reads:     make(map[page.ID]int),
		writes:    make(map[page.ID]int),
		deletions: make(map[page.ID]int),
		failRead:  make(map[page.ID]bool),
	}
}

func (d *memDisk) ReadPage(id page.ID, buf []byte) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.reads[id]++
	if d.failRead[id] {
		return fmt.Errorf("memdisk: forced read failure for %d", id)
	}
	data, ok := d.pages[id]
	if !ok {
		// unwritten pages read as zero, matching a freshly truncated file.
		for i := range buf {
			buf[i] = 0
		}
		return nil
	}
	copy(buf, data)
	return nil
}

func (d *memDisk) WritePage(id page.ID, buf []byte) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.writes[id]++
	cp := make([]byte, len(buf))
	copy(cp, buf)
	d.pages[id] = cp
	return nil
}

func (d *memDisk) DeallocatePage(id page.ID) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.deletions[id]++
	delete(d.pages, id)
	return nil
}

func (d *memDisk) Close() error { return nil }

func (d *memDisk) readCount(id page.ID) int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.reads[id]
}

func (d *memDisk) writeCount(id page.ID) int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.writes[id]
}

func newTestInstance(t *testing.T, n int) (*Instance, *memDisk) {
	t.Helper()
	dm := newMemDisk()
	inst, err := New(n, 1, 0, dm)
	require.NoError(t, err)
	return inst, dm
}

// scenario 1: exhaustion.
func TestInstance_Exhaustion(t *testing.T) {
	inst, _ := newTestInstance(t, 10)

	for i := 0; i < 10; i++ {
		id, fr, err := inst.NewPage()
		require.NoError(t, err)
		assert.Equal(t, page.ID(i), id)
		assert.NotNil(t, fr)
	}

	_, _, err := inst.NewPage()
	require.ErrorIs(t, err, bpmerr.ErrAllFramesPinned)

	assert.True(t, inst.UnpinPage(0, false))

	id, _, err := inst.NewPage()
	require.NoError(t, err)
	assert.Equal(t, page.ID(10), id)
}

// scenario 2: dirty eviction and write-back round trip.
func TestInstance_DirtyEviction(t *testing.T) {
	inst, dm := newTestInstance(t, 10)

	id0, fr0, err := inst.NewPage()
	require.NoError(t, err)

	want := bytes.Repeat([]byte("A"), page.Size)
	fr0.Lock()
	copy(fr0.Data(), want)
	fr0.Unlock()
	require.True(t, inst.UnpinPage(id0, true))

	// exhaust the remaining 9 frames plus one more to force eviction of
	// the now-unpinned id0.
	for i := 0; i < 10; i++ {
		id, _, err := inst.NewPage()
		require.NoError(t, err)
		require.True(t, inst.UnpinPage(id, false))
	}

	require.Equal(t, 1, dm.writeCount(id0), "eviction of a dirty frame must write back exactly once")

	fr, err := inst.FetchPage(id0)
	require.NoError(t, err)
	assert.True(t, bytes.Equal(want, fr.Data()))
	inst.UnpinPage(id0, false)
}

// scenario 3: delete refused while pinned, then allowed.
func TestInstance_DeleteRefusedWhilePinned(t *testing.T) {
	inst, dm := newTestInstance(t, 4)

	id, _, err := inst.NewPage()
	require.NoError(t, err)
	require.True(t, inst.UnpinPage(id, false))

	fr, err := inst.FetchPage(id)
	require.NoError(t, err)
	assert.NotNil(t, fr)

	ok, err := inst.DeletePage(id)
	require.NoError(t, err)
	assert.False(t, ok)

	require.True(t, inst.UnpinPage(id, false))

	ok, err = inst.DeletePage(id)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 1, dm.deletions[id])
}

// scenario 4: unpin of an already-unpinned page fails.
func TestInstance_UnpinOfUnpinnedFails(t *testing.T) {
	inst, _ := newTestInstance(t, 4)

	id, _, err := inst.NewPage()
	require.NoError(t, err)

	assert.True(t, inst.UnpinPage(id, false))
	assert.False(t, inst.UnpinPage(id, false))
}

// dirty stickiness: an unpin with is_dirty=false must not clear dirty.
func TestInstance_DirtyStickiness(t *testing.T) {
	inst, dm := newTestInstance(t, 2)

	id, _, err := inst.NewPage()
	require.NoError(t, err)
	require.True(t, inst.UnpinPage(id, true))

	fr, err := inst.FetchPage(id)
	require.NoError(t, err)
	assert.True(t, fr.IsDirty())
	require.True(t, inst.UnpinPage(id, false))

	fr2, err := inst.FetchPage(id)
	require.NoError(t, err)
	assert.True(t, fr2.IsDirty(), "dirty must remain sticky across a clean unpin")
	inst.UnpinPage(id, false)

	require.NoError(t, inst.FlushPage(id))
	assert.Equal(t, 1, dm.writeCount(id))
}

// fetch-miss rollback: a disk read failure must return the frame to the
// free list rather than leaving a half-installed page-table entry.
func TestInstance_FetchMissRollsBackOnIOError(t *testing.T) {
	inst, dm := newTestInstance(t, 2)
	dm.failRead[page.ID(7)] = true

	_, err := inst.FetchPage(7)
	require.Error(t, err)

	id, _, err := inst.NewPage()
	require.NoError(t, err)
	assert.Equal(t, page.ID(0), id)

	id2, _, err := inst.NewPage()
	require.NoError(t, err)
	assert.Equal(t, page.ID(1), id2, "both frames must still be available after the rollback")
}

// scenario 6: concurrent fetch of the same absent page deduplicates to
// exactly one disk read and pin_count equal to the number of callers.
func TestInstance_ConcurrentFetchSamePageDeduplicates(t *testing.T) {
	inst, dm := newTestInstance(t, 4)

	const callers = 32
	var wg sync.WaitGroup
	frames := make([]*frame.Frame, callers)

	wg.Add(callers)
	for i := 0; i < callers; i++ {
		go func(i int) {
			defer wg.Done()
			fr, err := inst.FetchPage(42)
			require.NoError(t, err)
			frames[i] = fr
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 1, dm.readCount(42))

	fid, ok := inst.pageTable[42]
	require.True(t, ok)
	fr := inst.frames[fid]
	assert.EqualValues(t, callers, fr.PinCount())

	for _, f := range frames {
		assert.Equal(t, fr.PinCount(), f.PinCount())
	}
}

package buffer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arran-oss/bufpool/internal/disk"
	"github.com/arran-oss/bufpool/internal/page"
)

func newTestParallel(t *testing.T, n, k int) (*ParallelBufferPool, []*memDisk) {
	t.Helper()
	disks := make([]*memDisk, k)
	p, err := NewParallel(n, k, func(i int) disk.Manager {
		disks[i] = newMemDisk()
		return disks[i]
	})
	require.NoError(t, err)
	return p, disks
}

// scenario 5: routing with K=4.
func TestParallel_RoutingK4(t *testing.T) {
	p, _ := newTestParallel(t, 4, 4)

	seenOwners := map[int]bool{}
	for i := 0; i < 4; i++ {
		id, _, err := p.NewPage()
		require.NoError(t, err)
		assert.Equal(t, int(id)%4, p.owner(id))
		seenOwners[p.owner(id)] = true
	}
	assert.Len(t, seenOwners, 4, "four NewPage calls starting at rotating offsets should hit all four instances")

	id, _, err := p.NewPage()
	require.NoError(t, err)
	fr, err := p.FetchPage(id)
	require.NoError(t, err)
	assert.NotNil(t, fr)
	assert.True(t, p.UnpinPage(id, false))
}

func TestParallel_PoolSize(t *testing.T) {
	p, _ := newTestParallel(t, 10, 4)
	assert.Equal(t, 40, p.PoolSize())
}

func TestParallel_FlushAllPagesForwardsToEveryShard(t *testing.T) {
	p, disks := newTestParallel(t, 4, 3)

	ids := make([]page.ID, 0, 3)
	for i := 0; i < 3; i++ {
		id, _, err := p.NewPage()
		require.NoError(t, err)
		require.True(t, p.UnpinPage(id, true))
		ids = append(ids, id)
	}

	require.NoError(t, p.FlushAllPages())

	for _, id := range ids {
		d := disks[p.owner(id)]
		assert.Equal(t, 1, d.writeCount(id))
	}
}

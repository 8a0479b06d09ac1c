package frame

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/arran-oss/bufpool/internal/page"
)

func TestNewFrameIsEmpty(t *testing.T) {
	f := New(page.FrameID(3))
	assert.Equal(t, page.FrameID(3), f.ID())
	assert.Equal(t, page.InvalidID, f.PageID())
	assert.False(t, f.IsDirty())
	assert.EqualValues(t, 0, f.PinCount())
	assert.Len(t, f.Data(), page.Size)
}

func TestInstallResetsState(t *testing.T) {
	f := New(page.FrameID(0))
	f.WLatch()
	f.Install(page.ID(5), nil)
	f.IncPin()
	f.MarkDirty()
	f.WUnlock()

	assert.Equal(t, page.ID(5), f.PageID())
	assert.True(t, f.IsDirty())
	assert.EqualValues(t, 1, f.PinCount())

	f.WLatch()
	f.Reset()
	f.WUnlock()

	assert.Equal(t, page.InvalidID, f.PageID())
	assert.False(t, f.IsDirty())
	assert.EqualValues(t, 0, f.PinCount())
}

func TestDirtyIsStickyUntilCleared(t *testing.T) {
	f := New(page.FrameID(0))
	f.WLatch()
	f.Install(page.ID(1), nil)
	f.MarkDirty()
	f.WUnlock()

	assert.True(t, f.IsDirty())

	f.WLatch()
	f.ClearDirty()
	f.WUnlock()
	assert.False(t, f.IsDirty())
}

func TestDecPinFlooredAtZero(t *testing.T) {
	f := New(page.FrameID(0))
	assert.EqualValues(t, 0, f.DecPin())
	f.IncPin()
	assert.EqualValues(t, 0, f.DecPin())
}

func TestInstallCopiesContents(t *testing.T) {
	f := New(page.FrameID(0))
	contents := make([]byte, page.Size)
	contents[0] = 0xAB

	f.WLatch()
	f.Install(page.ID(2), contents)
	f.WUnlock()

	f.RLatch()
	defer f.RUnlock()
	assert.Equal(t, byte(0xAB), f.Data()[0])
}

package raid_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/deploymenttheory/go-zraid/internal/raid"
	"github.com/deploymenttheory/go-zraid/internal/types"
)

// Concat routes by cumulative backend size: with four backends of
// 8 zones x 0x100000 each, logical 0x900000 is backend 1 at 0x100000.
func TestConcatRouting(t *testing.T) {
	dev, mems := openRaid(t, types.RaidModeConcat, 4, 8)

	payload := pattern(0x900000, testBlockSize)
	n, err := dev.Write(payload, 0x900000)
	require.NoError(t, err)
	require.Equal(t, len(payload), n)

	// the bytes landed on backend 1 at its zone 1 start
	got := make([]byte, testBlockSize)
	rn, err := mems[1].Read(got, 0x100000, false)
	require.NoError(t, err)
	require.Equal(t, testBlockSize, rn)
	assert.Equal(t, payload, got)

	// the other backends stayed untouched
	empty := make([]byte, testBlockSize)
	rn, err = mems[0].Read(got, 0x100000, false)
	require.NoError(t, err)
	require.Equal(t, testBlockSize, rn)
	assert.Equal(t, empty, got)

	// and the logical read round-trips
	rn, err = dev.Read(got, 0x900000, false)
	require.NoError(t, err)
	require.Equal(t, testBlockSize, rn)
	assert.Equal(t, payload, got)
}

// Requests spanning two backends' territory are refused, not split.
func TestConcatCrossBackendRejected(t *testing.T) {
	dev, _ := openRaid(t, types.RaidModeConcat, 4, 8)

	boundary := uint64(8) * testZoneSize // end of backend 0
	buf := make([]byte, 2*testBlockSize)

	_, err := dev.Read(buf, boundary-testBlockSize, false)
	require.Error(t, err)
	assert.ErrorIs(t, err, raid.ErrCrossesBackend)

	_, err = dev.Write(buf, boundary-testBlockSize)
	require.Error(t, err)
	assert.ErrorIs(t, err, raid.ErrCrossesBackend)
}

func TestConcatOutOfRange(t *testing.T) {
	dev, _ := openRaid(t, types.RaidModeConcat, 4, 8)

	buf := make([]byte, testBlockSize)
	_, err := dev.Read(buf, uint64(32)*testZoneSize, false)
	require.Error(t, err)
	assert.ErrorIs(t, err, raid.ErrOutOfRange)
}

func TestConcatListZones(t *testing.T) {
	dev, _ := openRaid(t, types.RaidModeConcat, 4, 8)

	zones, err := dev.ListZones()
	require.NoError(t, err)
	assert.Equal(t, 32, zones.ZoneCount())

	// descriptors keep backend-relative offsets: the first zone of each
	// backend reports start 0
	assert.Equal(t, uint64(0), zones.At(0).Start)
	assert.Equal(t, uint64(0), zones.At(8).Start)
}

// Zone administrative ops and predicates resolve to the containing
// backend.
func TestConcatZoneOps(t *testing.T) {
	dev, mems := openRaid(t, types.RaidModeConcat, 4, 8)

	// zone 9 lives on backend 1 as its zone 1
	logicalStart := uint64(9) * testZoneSize
	payload := pattern(logicalStart, testBlockSize)
	_, err := dev.Write(payload, logicalStart)
	require.NoError(t, err)

	zones, err := dev.ListZones()
	require.NoError(t, err)
	assert.True(t, dev.ZoneIsSwr(zones, 9))
	assert.True(t, dev.ZoneIsOpen(zones, 9))
	assert.Equal(t, uint64(0x100000)+testBlockSize, dev.ZoneWp(zones, 9))

	offline, maxCap, err := dev.Reset(logicalStart)
	require.NoError(t, err)
	assert.False(t, offline)
	assert.Equal(t, uint64(testZoneSize), maxCap)

	zl, err := mems[1].ListZones()
	require.NoError(t, err)
	assert.Equal(t, types.ZoneCondEmpty, zl.At(1).Cond)

	require.NoError(t, dev.Finish(logicalStart))
	zl, err = mems[1].ListZones()
	require.NoError(t, err)
	assert.Equal(t, types.ZoneCondFull, zl.At(1).Cond)
}

package raid_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/deploymenttheory/go-zraid/internal/interfaces"
	"github.com/deploymenttheory/go-zraid/internal/raid"
	"github.com/deploymenttheory/go-zraid/internal/types"
)

// faultyBackend injects failures into selected operations.
type faultyBackend struct {
	interfaces.ZonedBackend
	failReset bool
	failWrite bool
}

var errInjected = errors.New("injected backend failure")

func (f *faultyBackend) Reset(pos uint64) (bool, uint64, error) {
	if f.failReset {
		return false, 0, errInjected
	}
	return f.ZonedBackend.Reset(pos)
}

func (f *faultyBackend) Write(p []byte, pos uint64) (int, error) {
	if f.failWrite {
		return 0, errInjected
	}
	return f.ZonedBackend.Write(p, pos)
}

// A mirrored write goes to every backend at the same position.
func TestMirrorWriteFanOut(t *testing.T) {
	dev, mems := openRaid(t, types.RaidModeMirror, 4, 8)

	payload := pattern(0, testBlockSize)
	n, err := dev.Write(payload, 0)
	require.NoError(t, err)
	require.Equal(t, len(payload), n)

	for i, m := range mems {
		got := make([]byte, testBlockSize)
		rn, err := m.Read(got, 0, false)
		require.NoError(t, err)
		require.Equal(t, testBlockSize, rn)
		assert.Equal(t, payload, got, "backend %d", i)

		zl, err := m.ListZones()
		require.NoError(t, err)
		assert.Equal(t, uint64(testBlockSize), zl.At(0).WP, "backend %d", i)
	}
}

// Reads are served by backend 0.
func TestMirrorReadFromFirstBackend(t *testing.T) {
	dev, _ := openRaid(t, types.RaidModeMirror, 4, 8)

	payload := pattern(0, 2*testBlockSize)
	_, err := dev.Write(payload, 0)
	require.NoError(t, err)

	got := make([]byte, len(payload))
	n, err := dev.Read(got, 0, false)
	require.NoError(t, err)
	require.Equal(t, len(payload), n)
	assert.Equal(t, payload, got)
}

// A reset fans out to all backends; the first failure is returned and
// already-reset backends stay reset.
func TestMirrorResetFanOutFailure(t *testing.T) {
	backends, mems := newMemBackends(t, 4, 8)
	backends[2] = &faultyBackend{ZonedBackend: backends[2], failReset: true}

	dev, err := raid.NewRaidDevice(types.RaidModeMirror, backends, nil)
	require.NoError(t, err)
	_, _, err = dev.Open(false, false)
	require.NoError(t, err)

	payload := pattern(0, testBlockSize)
	_, err = dev.Write(payload, 0)
	require.NoError(t, err)

	_, _, err = dev.Reset(0)
	require.Error(t, err)
	assert.ErrorIs(t, err, errInjected)

	// backends before the failing one were reset, later ones were not
	zl, err := mems[0].ListZones()
	require.NoError(t, err)
	assert.Equal(t, uint64(0), zl.At(0).WP)
	zl, err = mems[3].ListZones()
	require.NoError(t, err)
	assert.Equal(t, uint64(testBlockSize), zl.At(0).WP)
}

func TestMirrorResetFanOut(t *testing.T) {
	dev, mems := openRaid(t, types.RaidModeMirror, 4, 8)

	payload := pattern(0, testBlockSize)
	_, err := dev.Write(payload, 0)
	require.NoError(t, err)

	offline, maxCap, err := dev.Reset(0)
	require.NoError(t, err)
	assert.False(t, offline)
	assert.Equal(t, uint64(testZoneSize), maxCap)

	for i, m := range mems {
		zl, err := m.ListZones()
		require.NoError(t, err)
		assert.Equal(t, uint64(0), zl.At(0).WP, "backend %d", i)
	}
}

func TestMirrorWriteFailurePropagates(t *testing.T) {
	backends, _ := newMemBackends(t, 2, 8)
	backends[1] = &faultyBackend{ZonedBackend: backends[1], failWrite: true}

	dev, err := raid.NewRaidDevice(types.RaidModeMirror, backends, nil)
	require.NoError(t, err)
	_, _, err = dev.Open(false, false)
	require.NoError(t, err)

	_, err = dev.Write(pattern(0, testBlockSize), 0)
	require.Error(t, err)
	assert.ErrorIs(t, err, errInjected)
}

// Mirror geometry and zone table are backend 0's verbatim.
func TestMirrorListZones(t *testing.T) {
	dev, _ := openRaid(t, types.RaidModeMirror, 4, 8)

	zones, err := dev.ListZones()
	require.NoError(t, err)
	require.Equal(t, 8, zones.ZoneCount())
	assert.Equal(t, uint64(testZoneSize), zones.At(0).Capacity)
	assert.True(t, dev.ZoneIsSwr(zones, 0))
	assert.True(t, dev.ZoneIsWritable(zones, 0))
	assert.False(t, dev.ZoneIsOpen(zones, 0))
}

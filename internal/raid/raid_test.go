package raid_test

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/deploymenttheory/go-zraid/internal/device"
	"github.com/deploymenttheory/go-zraid/internal/interfaces"
	"github.com/deploymenttheory/go-zraid/internal/raid"
	"github.com/deploymenttheory/go-zraid/internal/types"
)

const (
	testBlockSize = 4096
	testZoneSize  = 0x100000 // backend zone size
)

func memConfig(nrZones uint32) *device.ZonedConfig {
	return &device.ZonedConfig{
		BlockSize:      testBlockSize,
		ZoneSize:       testZoneSize,
		NrZones:        nrZones,
		MaxActiveZones: 14,
		MaxOpenZones:   14,
	}
}

// newMemBackends builds n simulated backends with identical geometry.
func newMemBackends(t *testing.T, n int, nrZones uint32) ([]interfaces.ZonedBackend, []*device.MemZoned) {
	t.Helper()
	mems := make([]*device.MemZoned, n)
	backends := make([]interfaces.ZonedBackend, n)
	for i := 0; i < n; i++ {
		m, err := device.NewMemZoned(fmt.Sprintf("mem:d%d", i), memConfig(nrZones))
		require.NoError(t, err)
		mems[i] = m
		backends[i] = m
	}
	return backends, mems
}

// openRaid assembles and opens a raid device over fresh backends.
func openRaid(t *testing.T, mode types.RaidMode, n int, nrZones uint32) (*raid.RaidDevice, []*device.MemZoned) {
	t.Helper()
	backends, mems := newMemBackends(t, n, nrZones)
	dev, err := raid.NewRaidDevice(mode, backends, nil)
	require.NoError(t, err)
	_, _, err = dev.Open(false, false)
	require.NoError(t, err)
	return dev, mems
}

// pattern fills a buffer with a deterministic byte sequence seeded by
// the logical position, so backend placement can be checked byte for
// byte.
func pattern(pos uint64, size int) []byte {
	p := make([]byte, size)
	for i := range p {
		p[i] = byte((pos + uint64(i)) * 7)
	}
	return p
}

func TestNewRaidDeviceValidation(t *testing.T) {
	backends, _ := newMemBackends(t, 2, 8)

	_, err := raid.NewRaidDevice(types.RaidModeStripe, nil, nil)
	assert.Error(t, err, "no backends")

	_, err = raid.NewRaidDevice(types.RaidModeNone, backends, nil)
	assert.Error(t, err, "passthrough is not a main mode")

	dev, err := raid.NewRaidDevice(types.RaidModeStripe, backends, nil)
	require.NoError(t, err)
	assert.Equal(t, types.RaidModeStripe, dev.MainMode())
}

func TestFilename(t *testing.T) {
	dev, _ := openRaid(t, types.RaidModeStripe, 4, 8)
	assert.Equal(t, "raid0:mem:d0,mem:d1,mem:d2,mem:d3", dev.Filename())

	dev, _ = openRaid(t, types.RaidModeMirror, 2, 8)
	assert.Equal(t, "raid1:mem:d0,mem:d1", dev.Filename())

	dev, _ = openRaid(t, types.RaidModeConcat, 2, 8)
	assert.Equal(t, "raidc:mem:d0,mem:d1", dev.Filename())

	dev, _ = openRaid(t, types.RaidModeAuto, 4, 8)
	assert.Equal(t, "raida:mem:d0,mem:d1,mem:d2,mem:d3", dev.Filename())
}

func TestGeometryDerivation(t *testing.T) {
	tests := []struct {
		mode     types.RaidMode
		zoneSize uint64
		nrZones  uint32
	}{
		{types.RaidModeConcat, testZoneSize, 32},
		{types.RaidModeMirror, testZoneSize, 8},
		{types.RaidModeStripe, 4 * testZoneSize, 8},
		{types.RaidModeAuto, 4 * testZoneSize, 8},
	}
	for _, tt := range tests {
		t.Run("raid"+tt.mode.String(), func(t *testing.T) {
			dev, _ := openRaid(t, tt.mode, 4, 8)
			assert.Equal(t, uint32(testBlockSize), dev.BlockSize())
			assert.Equal(t, tt.zoneSize, dev.ZoneSize())
			assert.Equal(t, tt.nrZones, dev.NrZones())
		})
	}
}

func TestGeometryMismatchFailsOpen(t *testing.T) {
	a, err := device.NewMemZoned("mem:a", memConfig(8))
	require.NoError(t, err)
	b, err := device.NewMemZoned("mem:b", memConfig(16))
	require.NoError(t, err)

	dev, err := raid.NewRaidDevice(types.RaidModeStripe, []interfaces.ZonedBackend{a, b}, nil)
	require.NoError(t, err)

	_, _, err = dev.Open(false, false)
	require.Error(t, err)
	assert.ErrorIs(t, err, raid.ErrGeometryMismatch)
}

func TestZoneLimitsAreMinimumAcrossBackends(t *testing.T) {
	cfgA := memConfig(8)
	cfgA.MaxActiveZones = 8
	cfgA.MaxOpenZones = 12
	cfgB := memConfig(8)
	cfgB.MaxActiveZones = 14
	cfgB.MaxOpenZones = 6

	a, err := device.NewMemZoned("mem:a", cfgA)
	require.NoError(t, err)
	b, err := device.NewMemZoned("mem:b", cfgB)
	require.NoError(t, err)

	dev, err := raid.NewRaidDevice(types.RaidModeMirror, []interfaces.ZonedBackend{a, b}, nil)
	require.NoError(t, err)

	maxActive, maxOpen, err := dev.Open(false, false)
	require.NoError(t, err)
	assert.Equal(t, uint32(8), maxActive)
	assert.Equal(t, uint32(6), maxOpen)
}

func TestResetAlignmentViolation(t *testing.T) {
	dev, _ := openRaid(t, types.RaidModeStripe, 4, 8)

	_, _, err := dev.Reset(testBlockSize)
	require.Error(t, err)
	assert.ErrorIs(t, err, raid.ErrAlignment)

	assert.ErrorIs(t, dev.Finish(testBlockSize), raid.ErrAlignment)
	assert.ErrorIs(t, dev.Close(testBlockSize), raid.ErrAlignment)
}

func TestShutdownClosesAllBackends(t *testing.T) {
	dev, mems := openRaid(t, types.RaidModeStripe, 4, 8)
	require.NoError(t, dev.Shutdown())

	// a shut-down backend rejects reads
	buf := make([]byte, testBlockSize)
	_, err := mems[0].Read(buf, 0, false)
	assert.Error(t, err)
}

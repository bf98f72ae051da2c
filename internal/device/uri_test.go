package device

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/deploymenttheory/go-zraid/internal/types"
)

func TestParseRaidURI(t *testing.T) {
	mode, specs, err := ParseRaidURI("raid0:dev:nullb0,dev:nullb1,dev:nullb2,dev:nullb3")
	require.NoError(t, err)
	assert.Equal(t, types.RaidModeStripe, mode)
	require.Len(t, specs, 4)
	assert.Equal(t, BackendSpec{Scheme: "dev", Target: "nullb0"}, specs[0])
	assert.Equal(t, "dev:nullb3", specs[3].String())
}

func TestParseRaidURIModes(t *testing.T) {
	tests := []struct {
		uri  string
		mode types.RaidMode
	}{
		{"raidc:dev:a,dev:b", types.RaidModeConcat},
		{"raid0:dev:a,dev:b", types.RaidModeStripe},
		{"raid1:dev:a,dev:b", types.RaidModeMirror},
		{"raida:dev:a,dev:b", types.RaidModeAuto},
	}
	for _, tt := range tests {
		mode, _, err := ParseRaidURI(tt.uri)
		require.NoError(t, err, tt.uri)
		assert.Equal(t, tt.mode, mode, tt.uri)
	}
}

func TestParseRaidURIZonefsBackend(t *testing.T) {
	_, specs, err := ParseRaidURI("raid1:zonefs:/tmp/z0.img,mem:sim0")
	require.NoError(t, err)
	require.Len(t, specs, 2)
	assert.Equal(t, BackendSpec{Scheme: "zonefs", Target: "/tmp/z0.img"}, specs[0])
	assert.Equal(t, BackendSpec{Scheme: "mem", Target: "sim0"}, specs[1])
}

func TestParseRaidURIErrors(t *testing.T) {
	bad := []string{
		"",
		"nullb0",
		"raid5:dev:a,dev:b", // parity raid is not a thing here
		"raid0",
		"raid0:",
		"raid0:floppy:a",
		"raid0:dev:",
	}
	for _, uri := range bad {
		_, _, err := ParseRaidURI(uri)
		assert.Error(t, err, "uri %q", uri)
	}
}

// The assembled device reports its URI back as its filename.
func TestOpenURIFilename(t *testing.T) {
	uri := "raid0:mem:a,mem:b,mem:c,mem:d"
	dev, err := OpenURI(uri, testConfig(), nil)
	require.NoError(t, err)
	assert.Equal(t, uri, dev.Filename())

	_, _, err = dev.Open(false, false)
	require.NoError(t, err)
	assert.Equal(t, uint64(4*0x100000), dev.ZoneSize())
	require.NoError(t, dev.Shutdown())
}

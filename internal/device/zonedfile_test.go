package device

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/deploymenttheory/go-zraid/internal/types"
)

func newImage(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "zoned.img")
	require.NoError(t, CreateImage(path, testConfig()))
	return path
}

func TestFileZonedOpenDerivesZoneCount(t *testing.T) {
	path := newImage(t)
	d, err := NewFileZoned("", path, testConfig())
	require.NoError(t, err)

	_, _, err = d.Open(false, false)
	require.NoError(t, err)
	defer d.Shutdown()

	assert.Equal(t, uint32(4), d.NrZones())
	assert.Equal(t, "zonefs:"+path, d.Filename())
}

func TestFileZonedOpenRejectsRaggedImage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ragged.img")
	cfg := testConfig()
	cfg.NrZones = 1
	require.NoError(t, CreateImage(path, cfg))

	// a zone size that does not divide the image size is refused
	cfg.ZoneSize = 0x180000
	cfg.BlockSize = 4096
	d, err := NewFileZoned("", path, cfg)
	require.NoError(t, err)
	_, _, err = d.Open(false, false)
	require.Error(t, err)
}

func TestFileZonedWriteReadRoundTrip(t *testing.T) {
	path := newImage(t)
	d, err := NewFileZoned("", path, testConfig())
	require.NoError(t, err)
	_, _, err = d.Open(false, false)
	require.NoError(t, err)
	defer d.Shutdown()

	payload := make([]byte, 2*4096)
	for i := range payload {
		payload[i] = byte(i)
	}
	n, err := d.Write(payload, 0)
	require.NoError(t, err)
	require.Equal(t, len(payload), n)

	got := make([]byte, len(payload))
	n, err = d.Read(got, 0, false)
	require.NoError(t, err)
	require.Equal(t, len(payload), n)
	assert.Equal(t, payload, got)
}

func TestFileZonedSequentialWriteRequired(t *testing.T) {
	path := newImage(t)
	d, err := NewFileZoned("", path, testConfig())
	require.NoError(t, err)
	_, _, err = d.Open(false, false)
	require.NoError(t, err)
	defer d.Shutdown()

	_, err = d.Write(make([]byte, 4096), 4096)
	require.Error(t, err, "write past the write pointer")

	_, err = d.Write(make([]byte, 4096), 0)
	require.NoError(t, err)

	zl, err := d.ListZones()
	require.NoError(t, err)
	assert.Equal(t, uint64(4096), zl.At(0).WP)
	assert.Equal(t, types.ZoneCondImpOpen, zl.At(0).Cond)
}

func TestFileZonedZoneStateMachine(t *testing.T) {
	path := newImage(t)
	d, err := NewFileZoned("", path, testConfig())
	require.NoError(t, err)
	_, _, err = d.Open(false, false)
	require.NoError(t, err)
	defer d.Shutdown()

	_, err = d.Write(make([]byte, 4096), 0x100000)
	require.NoError(t, err)
	require.NoError(t, d.Close(0x100000))
	require.NoError(t, d.Finish(0x100000))

	_, _, err = d.Reset(0x100000)
	require.NoError(t, err)

	zl, err := d.ListZones()
	require.NoError(t, err)
	assert.Equal(t, types.ZoneCondEmpty, zl.At(1).Cond)
	assert.Equal(t, uint64(0x100000), zl.At(1).WP)
}

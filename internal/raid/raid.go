// File: internal/raid/raid.go
package raid

import (
	"fmt"
	"strings"
	"sync"

	"go.uber.org/multierr"

	"github.com/deploymenttheory/go-zraid/internal/interfaces"
	"github.com/deploymenttheory/go-zraid/internal/types"
)

// RaidDevice aggregates N backend zoned block devices of identical
// geometry into a single logical zoned block device. It implements
// interfaces.ZonedBackend itself, so raid devices can nest.
//
// Zone administrative fan-outs (reset, finish, close) are at-least-once:
// the first backend failure is returned without rolling back backends
// that already succeeded, and callers re-issue to converge.
type RaidDevice struct {
	log      interfaces.Logger
	mainMode types.RaidMode
	backends []interfaces.ZonedBackend

	// mu guards zoneMap, modeMap, and aZones. Snapshot builds and all
	// mutations hold it for their full duration.
	mu sync.RWMutex

	blockSize  uint32
	zoneSize   uint64 // logical zone size
	bzSize     uint64 // backend zone size
	nrZones    uint32 // logical zone count
	totalZones uint32 // sum of backend zone counts

	// Auto-mode state. zoneMap holds nrZones*N entries indexed by
	// logicalZone*N + subSlot; modeMap holds one entry per logical zone;
	// aZones is the synthesized zone table, recomputed on demand.
	zoneMap []types.RaidMapItem
	modeMap []types.RaidModeItem
	aZones  []types.ZoneInfo

	// Layout loaded before Open, applied instead of the default.
	pendingZoneMap []types.RaidMapItem
	pendingModeMap []types.RaidModeItem

	opened bool
}

var _ interfaces.ZonedBackend = (*RaidDevice)(nil)

type nopLogger struct{}

func (nopLogger) Logf(interfaces.LogLevel, string, ...any) {}

// NewRaidDevice builds a raid device over the given backends. The
// backends are exclusively owned by the raid device from this point on.
// logger may be nil.
func NewRaidDevice(mode types.RaidMode, backends []interfaces.ZonedBackend, logger interfaces.Logger) (*RaidDevice, error) {
	if len(backends) == 0 {
		return nil, fmt.Errorf("raid device requires at least one backend")
	}
	switch mode {
	case types.RaidModeConcat, types.RaidModeMirror, types.RaidModeStripe, types.RaidModeAuto:
	default:
		return nil, fmt.Errorf("unsupported main mode %q", mode)
	}
	if logger == nil {
		logger = nopLogger{}
	}

	r := &RaidDevice{
		log:      logger,
		mainMode: mode,
		backends: backends,
	}
	r.log.Logf(interfaces.LogInfo, "raid devices:")
	for _, b := range backends {
		r.log.Logf(interfaces.LogInfo, "  %s", b.Filename())
	}
	return r, nil
}

// MainMode returns the configured aggregation mode.
func (r *RaidDevice) MainMode() types.RaidMode {
	return r.mainMode
}

func (r *RaidDevice) nrDev() int {
	return len(r.backends)
}

func (r *RaidDevice) defDev() interfaces.ZonedBackend {
	return r.backends[0]
}

// Open opens every backend, validates that they share one geometry,
// derives the logical geometry, and in auto mode constructs the
// per-zone layout. The reported zone limits are the minimum across
// backends, so the raid device never admits more concurrency than any
// single backend tolerates.
func (r *RaidDevice) Open(readonly bool, exclusive bool) (uint32, uint32, error) {
	r.log.Logf(interfaces.LogInfo, "open(readonly=%v, exclusive=%v)", readonly, exclusive)

	var maxActive, maxOpen uint32
	for i, b := range r.backends {
		active, open, err := b.Open(readonly, exclusive)
		if err != nil {
			return 0, 0, fmt.Errorf("open backend %s: %w", b.Filename(), err)
		}
		r.log.Logf(interfaces.LogInfo,
			"%s opened, sz=%x, nr_zones=%x, zone_sz=%x, blk_sz=%x, max_active=%x, max_open=%x",
			b.Filename(), uint64(b.NrZones())*b.ZoneSize(), b.NrZones(), b.ZoneSize(),
			b.BlockSize(), active, open)
		if i == 0 {
			maxActive, maxOpen = active, open
			continue
		}
		if err := r.checkGeometry(b); err != nil {
			return 0, 0, err
		}
		if active < maxActive {
			maxActive = active
		}
		if open < maxOpen {
			maxOpen = open
		}
	}

	r.syncBackendInfo()
	r.log.Logf(interfaces.LogInfo, "after open: nr_zones=%x, zone_sz=%x, blk_sz=%x",
		r.nrZones, r.zoneSize, r.blockSize)

	if r.mainMode == types.RaidModeAuto {
		if err := r.setupAutoLayout(); err != nil {
			return 0, 0, err
		}
	}
	r.opened = true
	return maxActive, maxOpen, nil
}

// Read reads up to len(p) bytes at the logical byte offset pos.
func (r *RaidDevice) Read(p []byte, pos uint64, direct bool) (int, error) {
	switch r.mainMode {
	case types.RaidModeConcat:
		return r.concatRead(p, pos, direct)
	case types.RaidModeMirror:
		return r.mirrorRead(p, pos, direct)
	case types.RaidModeStripe:
		return r.stripeRead(p, pos, direct)
	case types.RaidModeAuto:
		return r.autoRead(p, pos, direct)
	}
	return 0, ErrUnsupported
}

// Write writes len(p) bytes at the logical byte offset pos. Writes to a
// given logical zone must be issued in strictly increasing pos; the
// translator emits per-backend segments in address order.
func (r *RaidDevice) Write(p []byte, pos uint64) (int, error) {
	switch r.mainMode {
	case types.RaidModeConcat:
		return r.concatWrite(p, pos)
	case types.RaidModeMirror:
		return r.mirrorWrite(p, pos)
	case types.RaidModeStripe:
		return r.stripeWrite(p, pos)
	case types.RaidModeAuto:
		return r.autoWrite(p, pos)
	}
	return 0, ErrUnsupported
}

// Reset rewinds the logical zone containing pos. pos must be
// zone-aligned.
func (r *RaidDevice) Reset(pos uint64) (bool, uint64, error) {
	r.log.Logf(interfaces.LogInfo, "reset(pos=%x)", pos)
	if pos%r.zoneSize != 0 {
		return false, 0, fmt.Errorf("reset pos %x: %w", pos, ErrAlignment)
	}
	switch r.mainMode {
	case types.RaidModeConcat:
		return r.concatReset(pos)
	case types.RaidModeMirror:
		return r.mirrorReset(pos)
	case types.RaidModeStripe:
		return r.stripeReset(pos)
	case types.RaidModeAuto:
		return r.autoReset(pos)
	}
	return false, 0, ErrUnsupported
}

// Finish transitions the logical zone containing pos to FULL. pos must
// be zone-aligned.
func (r *RaidDevice) Finish(pos uint64) error {
	r.log.Logf(interfaces.LogInfo, "finish(pos=%x)", pos)
	if pos%r.zoneSize != 0 {
		return fmt.Errorf("finish pos %x: %w", pos, ErrAlignment)
	}
	switch r.mainMode {
	case types.RaidModeConcat:
		return r.concatFinish(pos)
	case types.RaidModeMirror:
		return r.mirrorFinish(pos)
	case types.RaidModeStripe:
		return r.stripeFinish(pos)
	case types.RaidModeAuto:
		return r.autoFinish(pos)
	}
	return ErrUnsupported
}

// Close transitions the logical zone containing pos to CLOSED. pos must
// be zone-aligned.
func (r *RaidDevice) Close(pos uint64) error {
	r.log.Logf(interfaces.LogInfo, "close(pos=%x)", pos)
	if pos%r.zoneSize != 0 {
		return fmt.Errorf("close pos %x: %w", pos, ErrAlignment)
	}
	switch r.mainMode {
	case types.RaidModeConcat:
		return r.concatClose(pos)
	case types.RaidModeMirror:
		return r.mirrorClose(pos)
	case types.RaidModeStripe:
		return r.stripeClose(pos)
	case types.RaidModeAuto:
		return r.autoClose(pos)
	}
	return ErrUnsupported
}

// InvalidateCache drops cached pages for the logical byte range. size
// must be block-aligned, and zone-aligned in auto mode.
func (r *RaidDevice) InvalidateCache(pos uint64, size uint64) error {
	if size%uint64(r.blockSize) != 0 {
		return fmt.Errorf("invalidate size %x: %w", size, ErrAlignment)
	}
	switch r.mainMode {
	case types.RaidModeConcat:
		return r.concatInvalidate(pos, size)
	case types.RaidModeMirror:
		return r.mirrorInvalidate(pos, size)
	case types.RaidModeStripe:
		return r.stripeInvalidate(pos, size)
	case types.RaidModeAuto:
		return r.autoInvalidate(pos, size)
	}
	return ErrUnsupported
}

// ListZones synthesizes the logical zone table from the backend zone
// tables.
func (r *RaidDevice) ListZones() (*types.ZoneList, error) {
	switch r.mainMode {
	case types.RaidModeConcat:
		return r.concatListZones()
	case types.RaidModeMirror:
		return r.defDev().ListZones()
	case types.RaidModeStripe:
		return r.stripeListZones()
	case types.RaidModeAuto:
		return r.autoListZones()
	}
	return nil, ErrUnsupported
}

// BlockSize returns the logical block size.
func (r *RaidDevice) BlockSize() uint32 {
	return r.blockSize
}

// ZoneSize returns the logical zone size.
func (r *RaidDevice) ZoneSize() uint64 {
	return r.zoneSize
}

// NrZones returns the logical zone count.
func (r *RaidDevice) NrZones() uint32 {
	return r.nrZones
}

// Filename reports the device name in the raid URI form,
// raid<mode>:<backend1>,<backend2>,...
func (r *RaidDevice) Filename() string {
	names := make([]string, len(r.backends))
	for i, b := range r.backends {
		names[i] = b.Filename()
	}
	return "raid" + r.mainMode.String() + ":" + strings.Join(names, ",")
}

// Shutdown releases every backend. All backend failures are combined
// into one error.
func (r *RaidDevice) Shutdown() error {
	var err error
	for _, b := range r.backends {
		err = multierr.Append(err, b.Shutdown())
	}
	return err
}

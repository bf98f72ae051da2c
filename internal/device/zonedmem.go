// File: internal/device/zonedmem.go
package device

import (
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/deploymenttheory/go-zraid/internal/interfaces"
	"github.com/deploymenttheory/go-zraid/internal/types"
)

var _ interfaces.ZonedBackend = (*MemZoned)(nil)

// MemZoned is an in-memory zoned block device. Every zone is
// sequential-write-required: writes land only at the zone's write
// pointer. It backs tests and the simulator side of the tools.
type MemZoned struct {
	name      string
	blockSize uint32
	zoneSize  uint64
	nrZones   uint32
	maxActive uint32
	maxOpen   uint32

	mu       sync.Mutex
	opened   bool
	readonly bool
	data     []byte
	zones    []memZone
}

type memZone struct {
	wp   uint64 // absolute byte offset
	cond uint8
}

// NewMemZoned builds an in-memory device with the given geometry. An
// empty name gets a generated one.
func NewMemZoned(name string, cfg *ZonedConfig) (*MemZoned, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if name == "" {
		name = "mem:" + uuid.NewString()[:8]
	}

	d := &MemZoned{
		name:      name,
		blockSize: cfg.BlockSize,
		zoneSize:  cfg.ZoneSize,
		nrZones:   cfg.NrZones,
		maxActive: cfg.MaxActiveZones,
		maxOpen:   cfg.MaxOpenZones,
		data:      make([]byte, uint64(cfg.NrZones)*cfg.ZoneSize),
		zones:     make([]memZone, cfg.NrZones),
	}
	for i := range d.zones {
		d.zones[i].wp = uint64(i) * d.zoneSize
		d.zones[i].cond = types.ZoneCondEmpty
	}
	return d, nil
}

func (d *MemZoned) Open(readonly bool, exclusive bool) (uint32, uint32, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.opened = true
	d.readonly = readonly
	return d.maxActive, d.maxOpen, nil
}

func (d *MemZoned) totalBytes() uint64 {
	return uint64(d.nrZones) * d.zoneSize
}

func (d *MemZoned) zoneAt(pos uint64) (uint32, error) {
	if pos >= d.totalBytes() {
		return 0, fmt.Errorf("%s: pos %#x beyond device end %#x", d.name, pos, d.totalBytes())
	}
	return uint32(pos / d.zoneSize), nil
}

func (d *MemZoned) Read(p []byte, pos uint64, direct bool) (int, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.opened {
		return 0, fmt.Errorf("%s: device not open", d.name)
	}
	if pos >= d.totalBytes() {
		return 0, fmt.Errorf("%s: read pos %#x beyond device end", d.name, pos)
	}
	n := copy(p, d.data[pos:])
	return n, nil
}

func (d *MemZoned) Write(p []byte, pos uint64) (int, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.opened {
		return 0, fmt.Errorf("%s: device not open", d.name)
	}
	if d.readonly {
		return 0, fmt.Errorf("%s: device is read-only", d.name)
	}
	zi, err := d.zoneAt(pos)
	if err != nil {
		return 0, err
	}
	z := &d.zones[zi]
	switch z.cond {
	case types.ZoneCondFull:
		return 0, fmt.Errorf("%s: write to full zone %d", d.name, zi)
	case types.ZoneCondReadOnly, types.ZoneCondOffline:
		return 0, fmt.Errorf("%s: write to unwritable zone %d", d.name, zi)
	}
	if pos != z.wp {
		return 0, fmt.Errorf("%s: write pos %#x != write pointer %#x of zone %d",
			d.name, pos, z.wp, zi)
	}
	end := uint64(zi+1) * d.zoneSize
	if pos+uint64(len(p)) > end {
		return 0, fmt.Errorf("%s: write of %#x bytes at %#x crosses zone %d end",
			d.name, len(p), pos, zi)
	}
	n := copy(d.data[pos:], p)
	z.wp += uint64(n)
	if z.wp == end {
		z.cond = types.ZoneCondFull
	} else {
		z.cond = types.ZoneCondImpOpen
	}
	return n, nil
}

func (d *MemZoned) Reset(pos uint64) (bool, uint64, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	zi, err := d.zoneAt(pos)
	if err != nil {
		return false, 0, err
	}
	z := &d.zones[zi]
	if z.cond == types.ZoneCondOffline {
		return true, d.zoneSize, nil
	}
	start := uint64(zi) * d.zoneSize
	clear(d.data[start : start+d.zoneSize])
	z.wp = start
	z.cond = types.ZoneCondEmpty
	return false, d.zoneSize, nil
}

func (d *MemZoned) Finish(pos uint64) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	zi, err := d.zoneAt(pos)
	if err != nil {
		return err
	}
	z := &d.zones[zi]
	if z.cond == types.ZoneCondOffline || z.cond == types.ZoneCondReadOnly {
		return fmt.Errorf("%s: finish on unusable zone %d", d.name, zi)
	}
	z.wp = uint64(zi+1) * d.zoneSize
	z.cond = types.ZoneCondFull
	return nil
}

func (d *MemZoned) Close(pos uint64) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	zi, err := d.zoneAt(pos)
	if err != nil {
		return err
	}
	z := &d.zones[zi]
	if z.cond == types.ZoneCondImpOpen || z.cond == types.ZoneCondExpOpen {
		z.cond = types.ZoneCondClosed
	}
	return nil
}

func (d *MemZoned) InvalidateCache(pos uint64, size uint64) error {
	if size%uint64(d.blockSize) != 0 {
		return fmt.Errorf("%s: invalidate size %#x not block-aligned", d.name, size)
	}
	// nothing cached
	return nil
}

func (d *MemZoned) ListZones() (*types.ZoneList, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	zl := &types.ZoneList{Zones: make([]types.ZoneInfo, d.nrZones)}
	for i := range d.zones {
		zl.Zones[i] = types.ZoneInfo{
			Start:    uint64(i) * d.zoneSize,
			Capacity: d.zoneSize,
			Len:      d.zoneSize,
			WP:       d.zones[i].wp,
			Type:     types.ZoneTypeSeqWriteReq,
			Cond:     d.zones[i].cond,
		}
	}
	return zl, nil
}

func (d *MemZoned) ZoneIsSwr(zones *types.ZoneList, idx uint32) bool {
	if int(idx) >= zones.ZoneCount() {
		return false
	}
	return zones.At(idx).IsSwr()
}

func (d *MemZoned) ZoneIsOffline(zones *types.ZoneList, idx uint32) bool {
	if int(idx) >= zones.ZoneCount() {
		return false
	}
	return zones.At(idx).IsOffline()
}

func (d *MemZoned) ZoneIsWritable(zones *types.ZoneList, idx uint32) bool {
	if int(idx) >= zones.ZoneCount() {
		return false
	}
	return zones.At(idx).IsWritable()
}

func (d *MemZoned) ZoneIsActive(zones *types.ZoneList, idx uint32) bool {
	if int(idx) >= zones.ZoneCount() {
		return false
	}
	return zones.At(idx).IsActive()
}

func (d *MemZoned) ZoneIsOpen(zones *types.ZoneList, idx uint32) bool {
	if int(idx) >= zones.ZoneCount() {
		return false
	}
	return zones.At(idx).IsOpen()
}

func (d *MemZoned) ZoneStart(zones *types.ZoneList, idx uint32) uint64 {
	if int(idx) >= zones.ZoneCount() {
		return 0
	}
	return zones.At(idx).Start
}

func (d *MemZoned) ZoneMaxCapacity(zones *types.ZoneList, idx uint32) uint64 {
	if int(idx) >= zones.ZoneCount() {
		return 0
	}
	return zones.At(idx).Capacity
}

func (d *MemZoned) ZoneWp(zones *types.ZoneList, idx uint32) uint64 {
	if int(idx) >= zones.ZoneCount() {
		return 0
	}
	return zones.At(idx).WP
}

func (d *MemZoned) BlockSize() uint32 {
	return d.blockSize
}

func (d *MemZoned) ZoneSize() uint64 {
	return d.zoneSize
}

func (d *MemZoned) NrZones() uint32 {
	return d.nrZones
}

func (d *MemZoned) Filename() string {
	return d.name
}

func (d *MemZoned) Shutdown() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.opened = false
	return nil
}

// SetZoneOffline marks a zone offline, for fault simulation.
func (d *MemZoned) SetZoneOffline(idx uint32) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if int(idx) < len(d.zones) {
		d.zones[idx].cond = types.ZoneCondOffline
	}
}

// File: internal/raid/concat.go
package raid

import (
	"fmt"

	"github.com/deploymenttheory/go-zraid/internal/types"
)

// concatResolve locates the backend whose address space contains pos
// and returns its index, the backend-relative position, and the number
// of bytes remaining on that backend.
func (r *RaidDevice) concatResolve(pos uint64) (int, uint64, uint64, error) {
	rel := pos
	for i := range r.backends {
		sz := r.backendBytes(i)
		if rel < sz {
			return i, rel, sz - rel, nil
		}
		rel -= sz
	}
	return 0, 0, 0, fmt.Errorf("concat pos %x: %w", pos, ErrOutOfRange)
}

// concatResolveZone locates the backend holding the given logical zone
// index and returns its index plus the backend-relative zone index.
func (r *RaidDevice) concatResolveZone(idx uint32) (int, uint32, bool) {
	for i, b := range r.backends {
		if idx < b.NrZones() {
			return i, idx, true
		}
		idx -= b.NrZones()
	}
	return 0, 0, false
}

func (r *RaidDevice) concatRead(p []byte, pos uint64, direct bool) (int, error) {
	dev, rel, remain, err := r.concatResolve(pos)
	if err != nil {
		return 0, err
	}
	if uint64(len(p)) > remain {
		return 0, fmt.Errorf("concat read pos=%x size=%x: %w", pos, len(p), ErrCrossesBackend)
	}
	return r.backends[dev].Read(p, rel, direct)
}

func (r *RaidDevice) concatWrite(p []byte, pos uint64) (int, error) {
	dev, rel, remain, err := r.concatResolve(pos)
	if err != nil {
		return 0, err
	}
	if uint64(len(p)) > remain {
		return 0, fmt.Errorf("concat write pos=%x size=%x: %w", pos, len(p), ErrCrossesBackend)
	}
	return r.backends[dev].Write(p, rel)
}

func (r *RaidDevice) concatReset(pos uint64) (bool, uint64, error) {
	dev, rel, _, err := r.concatResolve(pos)
	if err != nil {
		return false, 0, err
	}
	return r.backends[dev].Reset(rel)
}

func (r *RaidDevice) concatFinish(pos uint64) error {
	dev, rel, _, err := r.concatResolve(pos)
	if err != nil {
		return err
	}
	return r.backends[dev].Finish(rel)
}

func (r *RaidDevice) concatClose(pos uint64) error {
	dev, rel, _, err := r.concatResolve(pos)
	if err != nil {
		return err
	}
	return r.backends[dev].Close(rel)
}

func (r *RaidDevice) concatInvalidate(pos uint64, size uint64) error {
	dev, rel, remain, err := r.concatResolve(pos)
	if err != nil {
		return err
	}
	if size > remain {
		return fmt.Errorf("concat invalidate pos=%x size=%x: %w", pos, size, ErrCrossesBackend)
	}
	return r.backends[dev].InvalidateCache(rel, size)
}

// concatListZones concatenates the backend zone lists in backend order.
// Zone descriptors keep their backend-relative offsets, the same way a
// single backend reports them.
func (r *RaidDevice) concatListZones() (*types.ZoneList, error) {
	merged := &types.ZoneList{Zones: make([]types.ZoneInfo, 0, r.totalZones)}
	for _, b := range r.backends {
		zones, err := b.ListZones()
		if err != nil {
			return nil, fmt.Errorf("list zones on %s: %w", b.Filename(), err)
		}
		merged.Zones = append(merged.Zones, zones.Zones...)
	}
	return merged, nil
}

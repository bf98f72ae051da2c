// File: internal/raid/auto.go
package raid

import (
	"fmt"

	"github.com/deploymenttheory/go-zraid/internal/interfaces"
	"github.com/deploymenttheory/go-zraid/internal/types"
)

// In auto mode every logical zone carries its own policy. A logical
// zone owns N sub-zones, one per backend, recorded in the zone map; the
// mode map selects how the sub-zones combine (passthrough, concat,
// mirror, or stripe).

// autoZone copies the mode entry and the N map entries of a logical
// zone out of the shared tables.
func (r *RaidDevice) autoZone(z uint64) (types.RaidModeItem, []types.RaidMapItem, error) {
	if z >= uint64(r.nrZones) {
		return types.RaidModeItem{}, nil, fmt.Errorf("auto zone %d: %w", z, ErrOutOfRange)
	}
	n := r.nrDev()

	r.mu.RLock()
	defer r.mu.RUnlock()
	mode := r.modeMap[z]
	entries := make([]types.RaidMapItem, n)
	copy(entries, r.zoneMap[int(z)*n:int(z)*n+n])
	return mode, entries, nil
}

// entryValid reports whether a map entry points at a real backend zone.
func (r *RaidDevice) entryValid(e types.RaidMapItem) bool {
	return int(e.DeviceIdx) < r.nrDev() &&
		e.ZoneIdx < r.backends[e.DeviceIdx].NrZones()
}

// autoStripeTarget maps a position inside a striped logical zone onto
// its backend. slot rotates per block within the zone; the offset
// inside the sub-zone linearizes the zone-relative block index.
func (r *RaidDevice) autoStripeTarget(entries []types.RaidMapItem, pos uint64) (types.RaidMapItem, uint64) {
	bs := uint64(r.blockSize)
	n := uint64(r.nrDev())
	zoneBlk := (pos % r.zoneSize) / bs
	item := entries[zoneBlk%n]
	mapped := uint64(item.ZoneIdx)*r.bzSize + (zoneBlk/n)*bs + pos%bs
	return item, mapped
}

// autoHomeTarget maps a position onto the zone's home sub-zone
// (entries[0]), used by the single-backend sub-modes.
func (r *RaidDevice) autoHomeTarget(entries []types.RaidMapItem, pos uint64) (types.RaidMapItem, uint64) {
	home := entries[0]
	return home, uint64(home.ZoneIdx)*r.bzSize + pos%r.bzSize
}

func (r *RaidDevice) autoRead(p []byte, pos uint64, direct bool) (int, error) {
	read := 0
	for read < len(p) {
		req := len(p) - read
		if limit := int(r.zoneSize - pos%r.zoneSize); req > limit {
			req = limit
		}
		n, err := r.autoZoneRead(p[read:read+req], pos, direct)
		read += n
		pos += uint64(n)
		if err != nil {
			return read, err
		}
		if n < req {
			break
		}
	}
	return read, nil
}

// autoZoneRead serves a request confined to one logical zone.
func (r *RaidDevice) autoZoneRead(p []byte, pos uint64, direct bool) (int, error) {
	mode, entries, err := r.autoZone(pos / r.zoneSize)
	if err != nil {
		return 0, err
	}

	switch mode.Mode {
	case types.RaidModeNone, types.RaidModeConcat, types.RaidModeMirror:
		item, mapped := r.autoHomeTarget(entries, pos)
		return r.backends[item.DeviceIdx].Read(p, mapped, direct)

	case types.RaidModeStripe:
		read := 0
		for read < len(p) {
			item, mapped := r.autoStripeTarget(entries, pos)
			req := len(p) - read
			if limit := int(uint64(r.blockSize) - mapped%uint64(r.blockSize)); req > limit {
				req = limit
			}
			n, err := r.backends[item.DeviceIdx].Read(p[read:read+req], mapped, direct)
			if err != nil {
				return read, fmt.Errorf("auto stripe read on %s: %w",
					r.backends[item.DeviceIdx].Filename(), err)
			}
			read += n
			pos += uint64(n)
			if n < req {
				break
			}
		}
		return read, nil
	}
	return 0, fmt.Errorf("zone %d mode %s: %w", pos/r.zoneSize, mode.Mode, ErrUnsupported)
}

func (r *RaidDevice) autoWrite(p []byte, pos uint64) (int, error) {
	written := 0
	for written < len(p) {
		req := len(p) - written
		if limit := int(r.zoneSize - pos%r.zoneSize); req > limit {
			req = limit
		}
		n, err := r.autoZoneWrite(p[written:written+req], pos)
		written += n
		pos += uint64(n)
		if err != nil {
			return written, err
		}
		if n < req {
			break
		}
	}
	if written > 0 {
		r.refreshZones()
	}
	return written, nil
}

// autoZoneWrite serves a write confined to one logical zone. Segments
// are issued sequentially in address order to preserve the write
// pointer ordering of every sub-zone.
func (r *RaidDevice) autoZoneWrite(p []byte, pos uint64) (int, error) {
	mode, entries, err := r.autoZone(pos / r.zoneSize)
	if err != nil {
		return 0, err
	}

	switch mode.Mode {
	case types.RaidModeNone, types.RaidModeConcat, types.RaidModeMirror:
		item, mapped := r.autoHomeTarget(entries, pos)
		return r.backends[item.DeviceIdx].Write(p, mapped)

	case types.RaidModeStripe:
		written := 0
		for written < len(p) {
			item, mapped := r.autoStripeTarget(entries, pos)
			req := len(p) - written
			if limit := int(uint64(r.blockSize) - mapped%uint64(r.blockSize)); req > limit {
				req = limit
			}
			n, err := r.backends[item.DeviceIdx].Write(p[written:written+req], mapped)
			if err != nil {
				return written, fmt.Errorf("auto stripe write on %s: %w",
					r.backends[item.DeviceIdx].Filename(), err)
			}
			written += n
			pos += uint64(n)
			if n < req {
				break
			}
		}
		return written, nil
	}
	return 0, fmt.Errorf("zone %d mode %s: %w", pos/r.zoneSize, mode.Mode, ErrUnsupported)
}

// autoReset resets every sub-zone of the logical zone. A sub-zone
// reported offline re-stamps its map entry's invalid flag. The returned
// capacity follows the zone's sub-mode: scaled by the device count for
// the stripe and concat sub-modes, per-sub-zone otherwise, applied once
// after the fan-out.
func (r *RaidDevice) autoReset(pos uint64) (bool, uint64, error) {
	z := pos / r.zoneSize
	mode, entries, err := r.autoZone(z)
	if err != nil {
		return false, 0, err
	}

	var offline bool
	var maxCap uint64
	for s, m := range entries {
		off, mc, err := r.backends[m.DeviceIdx].Reset(uint64(m.ZoneIdx) * r.bzSize)
		r.log.Logf(interfaces.LogInfo, "auto: reset device %d, zone %d", m.DeviceIdx, m.ZoneIdx)
		if err != nil {
			return false, 0, fmt.Errorf("auto reset on %s: %w",
				r.backends[m.DeviceIdx].Filename(), err)
		}
		if off {
			offline = true
			r.mu.Lock()
			r.zoneMap[int(z)*r.nrDev()+s].Invalid = 1
			r.mu.Unlock()
		}
		maxCap = mc
	}
	if mode.Mode == types.RaidModeStripe || mode.Mode == types.RaidModeConcat {
		maxCap *= uint64(r.nrDev())
	}
	r.refreshZones()
	return offline, maxCap, nil
}

func (r *RaidDevice) autoFinish(pos uint64) error {
	_, entries, err := r.autoZone(pos / r.zoneSize)
	if err != nil {
		return err
	}
	for _, m := range entries {
		if err := r.backends[m.DeviceIdx].Finish(uint64(m.ZoneIdx) * r.bzSize); err != nil {
			return fmt.Errorf("auto finish on %s: %w", r.backends[m.DeviceIdx].Filename(), err)
		}
		r.log.Logf(interfaces.LogInfo, "auto: finish device %d, zone %d", m.DeviceIdx, m.ZoneIdx)
	}
	r.refreshZones()
	return nil
}

func (r *RaidDevice) autoClose(pos uint64) error {
	_, entries, err := r.autoZone(pos / r.zoneSize)
	if err != nil {
		return err
	}
	for _, m := range entries {
		if err := r.backends[m.DeviceIdx].Close(uint64(m.ZoneIdx) * r.bzSize); err != nil {
			return fmt.Errorf("auto close on %s: %w", r.backends[m.DeviceIdx].Filename(), err)
		}
		r.log.Logf(interfaces.LogInfo, "auto: close device %d, zone %d", m.DeviceIdx, m.ZoneIdx)
	}
	r.refreshZones()
	return nil
}

// autoInvalidate drops cached pages zone by zone through each zone's
// home sub-zone. pos and size must be zone-aligned.
func (r *RaidDevice) autoInvalidate(pos uint64, size uint64) error {
	if pos%r.zoneSize != 0 || size%r.zoneSize != 0 {
		return fmt.Errorf("auto invalidate pos=%x size=%x: %w", pos, size, ErrAlignment)
	}
	for size > 0 {
		_, entries, err := r.autoZone(pos / r.zoneSize)
		if err != nil {
			return err
		}
		item, mapped := r.autoHomeTarget(entries, pos)
		if err := r.backends[item.DeviceIdx].InvalidateCache(mapped, r.zoneSize); err != nil {
			return fmt.Errorf("auto invalidate on %s: %w", r.backends[item.DeviceIdx].Filename(), err)
		}
		pos += r.zoneSize
		size -= r.zoneSize
	}
	return nil
}

// autoListZones returns a copy of the synthesized zone table, freshly
// recomputed.
func (r *RaidDevice) autoListZones() (*types.ZoneList, error) {
	if err := r.refreshZones(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	zl := &types.ZoneList{Zones: make([]types.ZoneInfo, len(r.aZones))}
	copy(zl.Zones, r.aZones)
	return zl, nil
}

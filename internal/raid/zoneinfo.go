// File: internal/raid/zoneinfo.go
package raid

import (
	"fmt"

	"github.com/deploymenttheory/go-zraid/internal/types"
)

// refreshZones rebuilds the synthesized zone table from fresh backend
// snapshots. Auto mode only; a no-op otherwise.
func (r *RaidDevice) refreshZones() error {
	if r.mainMode != types.RaidModeAuto {
		return nil
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.refreshZonesLocked()
}

// refreshZonesLocked does the rebuild with mu held. Each backend is
// listed once per rebuild; every logical zone is synthesized from its
// map entries against those snapshots.
func (r *RaidDevice) refreshZonesLocked() error {
	n := r.nrDev()
	if r.aZones == nil {
		r.aZones = make([]types.ZoneInfo, r.nrZones)
	}

	lists := make([]*types.ZoneList, n)
	for i, b := range r.backends {
		zl, err := b.ListZones()
		if err != nil {
			return fmt.Errorf("list zones on %s: %w", b.Filename(), err)
		}
		lists[i] = zl
	}

	for z := uint32(0); z < r.nrZones; z++ {
		mode := r.modeMap[z]
		entries := r.zoneMap[int(z)*n : int(z)*n+n]
		info := &r.aZones[z]
		info.Start = uint64(z) * r.zoneSize

		// Progress of a combined zone is the linearized total of its
		// sub-zones' progress: writes rotate round-robin in block
		// order, so the zone is full exactly when every sub-zone is.
		// A mirrored zone's progress is its first replica's.
		switch mode.Mode {
		case types.RaidModeNone, types.RaidModeStripe, types.RaidModeConcat:
			var wp uint64
			for _, e := range entries {
				if !r.entryValid(e) {
					continue
				}
				b := r.backends[e.DeviceIdx]
				zl := lists[e.DeviceIdx]
				wp += b.ZoneWp(zl, e.ZoneIdx) - b.ZoneStart(zl, e.ZoneIdx)
			}
			info.WP = info.Start + wp
		case types.RaidModeMirror:
			if e := entries[0]; r.entryValid(e) {
				b := r.backends[e.DeviceIdx]
				zl := lists[e.DeviceIdx]
				info.WP = info.Start + b.ZoneWp(zl, e.ZoneIdx) - b.ZoneStart(zl, e.ZoneIdx)
			}
		}

		home := entries[0]
		if !r.entryValid(home) {
			info.Type = types.ZoneTypeSeqWriteReq
			info.Cond = types.ZoneCondOffline
			continue
		}
		homeZone := lists[home.DeviceIdx].At(home.ZoneIdx)
		info.Flags = homeZone.Flags
		info.Type = homeZone.Type
		info.Cond = homeZone.Cond

		homeCap := r.backends[home.DeviceIdx].ZoneMaxCapacity(lists[home.DeviceIdx], home.ZoneIdx)
		switch mode.Mode {
		case types.RaidModeStripe, types.RaidModeConcat:
			info.Capacity = homeCap * uint64(n)
		default:
			info.Capacity = homeCap
		}
		info.Len = info.Capacity
	}
	return nil
}

// autoFirstEntry returns the first map entry of a logical zone for
// predicate delegation.
func (r *RaidDevice) autoFirstEntry(idx uint32) (types.RaidMapItem, bool) {
	if idx >= r.nrZones {
		return types.RaidMapItem{}, false
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	e := r.zoneMap[int(idx)*r.nrDev()]
	return e, r.entryValid(e)
}

// ZoneIsSwr reports whether the logical zone requires sequential
// writes.
func (r *RaidDevice) ZoneIsSwr(zones *types.ZoneList, idx uint32) bool {
	switch r.mainMode {
	case types.RaidModeConcat:
		dev, rel, ok := r.concatResolveZone(idx)
		if !ok {
			return false
		}
		b := r.backends[dev]
		zl, err := b.ListZones()
		if err != nil {
			return false
		}
		return b.ZoneIsSwr(zl, rel)
	case types.RaidModeMirror:
		return r.defDev().ZoneIsSwr(zones, idx)
	case types.RaidModeStripe:
		// all backends share one zone layout
		zl, err := r.defDev().ListZones()
		if err != nil {
			return false
		}
		return r.defDev().ZoneIsSwr(zl, idx)
	case types.RaidModeAuto:
		e, ok := r.autoFirstEntry(idx)
		if !ok {
			return false
		}
		b := r.backends[e.DeviceIdx]
		zl, err := b.ListZones()
		if err != nil {
			return false
		}
		return b.ZoneIsSwr(zl, e.ZoneIdx)
	}
	return false
}

// ZoneIsOffline reports whether the logical zone is offline.
func (r *RaidDevice) ZoneIsOffline(zones *types.ZoneList, idx uint32) bool {
	switch r.mainMode {
	case types.RaidModeConcat:
		dev, rel, ok := r.concatResolveZone(idx)
		if !ok {
			return false
		}
		b := r.backends[dev]
		zl, err := b.ListZones()
		if err != nil {
			return false
		}
		return b.ZoneIsOffline(zl, rel)
	case types.RaidModeMirror:
		return r.defDev().ZoneIsOffline(zones, idx)
	case types.RaidModeStripe:
		zl, err := r.defDev().ListZones()
		if err != nil {
			return false
		}
		return r.defDev().ZoneIsOffline(zl, idx)
	case types.RaidModeAuto:
		e, ok := r.autoFirstEntry(idx)
		if !ok {
			return false
		}
		b := r.backends[e.DeviceIdx]
		zl, err := b.ListZones()
		if err != nil {
			return false
		}
		return b.ZoneIsOffline(zl, e.ZoneIdx)
	}
	return false
}

// ZoneIsWritable reports whether writes may be issued to the logical
// zone.
func (r *RaidDevice) ZoneIsWritable(zones *types.ZoneList, idx uint32) bool {
	switch r.mainMode {
	case types.RaidModeConcat:
		dev, rel, ok := r.concatResolveZone(idx)
		if !ok {
			return false
		}
		b := r.backends[dev]
		zl, err := b.ListZones()
		if err != nil {
			return false
		}
		return b.ZoneIsWritable(zl, rel)
	case types.RaidModeMirror:
		return r.defDev().ZoneIsWritable(zones, idx)
	case types.RaidModeStripe:
		zl, err := r.defDev().ListZones()
		if err != nil {
			return false
		}
		return r.defDev().ZoneIsWritable(zl, idx)
	case types.RaidModeAuto:
		e, ok := r.autoFirstEntry(idx)
		if !ok {
			return false
		}
		b := r.backends[e.DeviceIdx]
		zl, err := b.ListZones()
		if err != nil {
			return false
		}
		return b.ZoneIsWritable(zl, e.ZoneIdx)
	}
	return false
}

// ZoneIsActive reports whether the logical zone holds device
// resources.
func (r *RaidDevice) ZoneIsActive(zones *types.ZoneList, idx uint32) bool {
	switch r.mainMode {
	case types.RaidModeConcat:
		dev, rel, ok := r.concatResolveZone(idx)
		if !ok {
			return false
		}
		b := r.backends[dev]
		zl, err := b.ListZones()
		if err != nil {
			return false
		}
		return b.ZoneIsActive(zl, rel)
	case types.RaidModeMirror:
		return r.defDev().ZoneIsActive(zones, idx)
	case types.RaidModeStripe:
		zl, err := r.defDev().ListZones()
		if err != nil {
			return false
		}
		return r.defDev().ZoneIsActive(zl, idx)
	case types.RaidModeAuto:
		e, ok := r.autoFirstEntry(idx)
		if !ok {
			return false
		}
		b := r.backends[e.DeviceIdx]
		zl, err := b.ListZones()
		if err != nil {
			return false
		}
		return b.ZoneIsActive(zl, e.ZoneIdx)
	}
	return false
}

// ZoneIsOpen reports whether the logical zone is open.
func (r *RaidDevice) ZoneIsOpen(zones *types.ZoneList, idx uint32) bool {
	switch r.mainMode {
	case types.RaidModeConcat:
		dev, rel, ok := r.concatResolveZone(idx)
		if !ok {
			return false
		}
		b := r.backends[dev]
		zl, err := b.ListZones()
		if err != nil {
			return false
		}
		return b.ZoneIsOpen(zl, rel)
	case types.RaidModeMirror:
		return r.defDev().ZoneIsOpen(zones, idx)
	case types.RaidModeStripe:
		zl, err := r.defDev().ListZones()
		if err != nil {
			return false
		}
		return r.defDev().ZoneIsOpen(zl, idx)
	case types.RaidModeAuto:
		e, ok := r.autoFirstEntry(idx)
		if !ok {
			return false
		}
		b := r.backends[e.DeviceIdx]
		zl, err := b.ListZones()
		if err != nil {
			return false
		}
		return b.ZoneIsOpen(zl, e.ZoneIdx)
	}
	return false
}

// ZoneStart returns the logical start offset of a zone.
func (r *RaidDevice) ZoneStart(zones *types.ZoneList, idx uint32) uint64 {
	switch r.mainMode {
	case types.RaidModeConcat:
		dev, rel, ok := r.concatResolveZone(idx)
		if !ok {
			return 0
		}
		b := r.backends[dev]
		zl, err := b.ListZones()
		if err != nil {
			return 0
		}
		return b.ZoneStart(zl, rel)
	case types.RaidModeMirror:
		return r.defDev().ZoneStart(zones, idx)
	case types.RaidModeStripe:
		var sum uint64
		for _, b := range r.backends {
			zl, err := b.ListZones()
			if err != nil {
				return 0
			}
			sum += b.ZoneStart(zl, idx)
		}
		return sum
	case types.RaidModeAuto:
		if idx >= r.nrZones {
			return 0
		}
		return uint64(idx) * r.zoneSize
	}
	return 0
}

// ZoneMaxCapacity returns the usable capacity of a logical zone.
func (r *RaidDevice) ZoneMaxCapacity(zones *types.ZoneList, idx uint32) uint64 {
	switch r.mainMode {
	case types.RaidModeConcat:
		dev, rel, ok := r.concatResolveZone(idx)
		if !ok {
			return 0
		}
		b := r.backends[dev]
		zl, err := b.ListZones()
		if err != nil {
			return 0
		}
		return b.ZoneMaxCapacity(zl, rel)
	case types.RaidModeMirror:
		return r.defDev().ZoneMaxCapacity(zones, idx)
	case types.RaidModeStripe:
		zl, err := r.defDev().ListZones()
		if err != nil {
			return 0
		}
		return r.defDev().ZoneMaxCapacity(zl, idx) * uint64(r.nrDev())
	case types.RaidModeAuto:
		if idx >= r.nrZones {
			return 0
		}
		r.mu.RLock()
		defer r.mu.RUnlock()
		if r.aZones == nil {
			return 0
		}
		return r.aZones[idx].Capacity
	}
	return 0
}

// ZoneWp returns the aggregated write pointer of a logical zone. For
// striped zones this is the sum of per-sub-zone progress added to the
// logical zone start.
func (r *RaidDevice) ZoneWp(zones *types.ZoneList, idx uint32) uint64 {
	switch r.mainMode {
	case types.RaidModeConcat:
		dev, rel, ok := r.concatResolveZone(idx)
		if !ok {
			return 0
		}
		b := r.backends[dev]
		zl, err := b.ListZones()
		if err != nil {
			return 0
		}
		return b.ZoneWp(zl, rel)
	case types.RaidModeMirror:
		return r.defDev().ZoneWp(zones, idx)
	case types.RaidModeStripe:
		var sum uint64
		for _, b := range r.backends {
			zl, err := b.ListZones()
			if err != nil {
				return 0
			}
			sum += b.ZoneWp(zl, idx)
		}
		return sum
	case types.RaidModeAuto:
		if idx >= r.nrZones {
			return 0
		}
		if err := r.refreshZones(); err != nil {
			return 0
		}
		r.mu.RLock()
		defer r.mu.RUnlock()
		return r.aZones[idx].WP
	}
	return 0
}

// File: internal/raid/layout.go
package raid

import (
	"fmt"

	"github.com/deploymenttheory/go-zraid/internal/interfaces"
	"github.com/deploymenttheory/go-zraid/internal/types"
)

// setupAutoLayout builds the zone map and mode map at open time, either
// from a layout loaded beforehand or from the deterministic default.
func (r *RaidDevice) setupAutoLayout() error {
	n := r.nrDev()

	r.mu.Lock()
	defer r.mu.Unlock()

	r.zoneMap = make([]types.RaidMapItem, int(r.nrZones)*n)
	r.modeMap = make([]types.RaidModeItem, r.nrZones)

	// The first MetaZones logical zones are reserved for upper-layer
	// metadata: passthrough mode, identity mapping.
	for i := 0; i < types.MetaZones*n; i++ {
		r.zoneMap[i] = types.RaidMapItem{DeviceIdx: uint32(i % n), ZoneIdx: uint32(i)}
	}
	for z := 0; z < types.MetaZones; z++ {
		r.modeMap[z] = types.RaidModeItem{Mode: types.RaidModeNone}
	}

	if r.pendingZoneMap != nil || r.pendingModeMap != nil {
		if err := r.applyLoadedLayout(); err != nil {
			return err
		}
	} else if err := r.defaultLayout(); err != nil {
		return err
	}

	if err := r.validateZoneMap(); err != nil {
		return err
	}
	return r.refreshZonesLocked()
}

// defaultLayout assigns every non-meta logical zone N sub-zones on N
// distinct backends. A round-robin queue of devices keeps usage
// balanced; each device hands out its zones in index order, with
// backend 0 starting past the meta reservation. Called with mu held.
func (r *RaidDevice) defaultLayout() error {
	n := r.nrDev()

	queue := make([]int, 0, n)
	avail := make([][]uint32, n)
	for i := 0; i < n; i++ {
		queue = append(queue, i)
		first := uint32(0)
		if i == 0 {
			first = types.MetaZones
		}
		for zi := first; zi < r.defDev().NrZones(); zi++ {
			avail[i] = append(avail[i], zi)
		}
	}

	for z := uint32(types.MetaZones); z < r.nrZones; z++ {
		for s := 0; s < n; s++ {
			if len(queue) == 0 {
				return fmt.Errorf("zone %d slot %d: device queue empty: %w", z, s, ErrExhaustedLayout)
			}
			d := queue[0]
			queue = queue[1:]
			dNext := (d + 1) % n

			var ti uint32
			if len(avail[d]) > 0 {
				ti = avail[d][0]
				avail[d] = avail[d][1:]
				queue = append(queue, dNext)
			} else {
				// d ran dry; take the next device's zone without
				// advancing the rotation.
				if len(avail[dNext]) == 0 {
					return fmt.Errorf("zone %d slot %d: devices %d and %d exhausted: %w",
						z, s, d, dNext, ErrExhaustedLayout)
				}
				ti = avail[dNext][0]
				avail[dNext] = avail[dNext][1:]
			}
			r.zoneMap[int(z)*n+s] = types.RaidMapItem{DeviceIdx: uint32(d), ZoneIdx: ti}
		}
		r.modeMap[z] = types.RaidModeItem{Mode: types.RaidModeStripe}
	}
	r.log.Logf(interfaces.LogInfo, "auto: default layout for %d zones on %d devices",
		r.nrZones-types.MetaZones, n)
	return nil
}

// applyLoadedLayout installs a layout decoded from persisted state.
// Called with mu held.
func (r *RaidDevice) applyLoadedLayout() error {
	n := r.nrDev()
	if len(r.pendingZoneMap) != int(r.nrZones)*n {
		return fmt.Errorf("zone map has %d entries, geometry needs %d: %w",
			len(r.pendingZoneMap), int(r.nrZones)*n, ErrLayoutInvalid)
	}
	if len(r.pendingModeMap) != int(r.nrZones) {
		return fmt.Errorf("mode map has %d entries, geometry needs %d: %w",
			len(r.pendingModeMap), r.nrZones, ErrLayoutInvalid)
	}
	copy(r.zoneMap, r.pendingZoneMap)
	copy(r.modeMap, r.pendingModeMap)
	r.pendingZoneMap = nil
	r.pendingModeMap = nil
	r.log.Logf(interfaces.LogInfo, "auto: restored persisted layout")
	return nil
}

// validateZoneMap checks the distinct-device invariant: the N sub-zones
// of every non-meta logical zone live on N pairwise distinct backends.
// Called with mu held.
func (r *RaidDevice) validateZoneMap() error {
	n := r.nrDev()
	for z := uint32(types.MetaZones); z < r.nrZones; z++ {
		var seen uint64
		for s := 0; s < n; s++ {
			e := r.zoneMap[int(z)*n+s]
			if int(e.DeviceIdx) >= n {
				return fmt.Errorf("zone %d slot %d: device %d out of range: %w",
					z, s, e.DeviceIdx, ErrLayoutInvalid)
			}
			bit := uint64(1) << e.DeviceIdx
			if seen&bit != 0 {
				return fmt.Errorf("zone %d: device %d mapped twice: %w",
					z, e.DeviceIdx, ErrLayoutInvalid)
			}
			seen |= bit
		}
	}
	return nil
}

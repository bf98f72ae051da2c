// File: internal/raid/persist.go
package raid

import (
	"encoding/binary"
	"fmt"

	"github.com/deploymenttheory/go-zraid/internal/parsers/raidmap"
	"github.com/deploymenttheory/go-zraid/internal/types"
)

// LoadLayout decodes a persisted zone map and mode map and stages them
// for the next Open. Auto mode only; must be called before Open, since
// the tables are installed while the layout is constructed.
func (r *RaidDevice) LoadLayout(zoneMapData []byte, modeMapData []byte) error {
	if r.mainMode != types.RaidModeAuto {
		return fmt.Errorf("load layout in mode %s: %w", r.mainMode, ErrUnsupported)
	}
	if r.opened {
		return fmt.Errorf("load layout after open: %w", ErrUnsupported)
	}

	zm, err := raidmap.NewRaidMapReader(zoneMapData, binary.LittleEndian)
	if err != nil {
		return fmt.Errorf("decode zone map: %w", err)
	}
	mm, err := raidmap.NewRaidModeReader(modeMapData, binary.LittleEndian)
	if err != nil {
		return fmt.Errorf("decode mode map: %w", err)
	}

	r.pendingZoneMap = zm.Items()
	r.pendingModeMap = mm.Items()
	return nil
}

// ExportLayout encodes the current zone map and mode map in their
// on-disk formats, for the upper layer to journal.
func (r *RaidDevice) ExportLayout() (zoneMapData []byte, modeMapData []byte, err error) {
	if r.mainMode != types.RaidModeAuto {
		return nil, nil, fmt.Errorf("export layout in mode %s: %w", r.mainMode, ErrUnsupported)
	}

	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.zoneMap == nil {
		return nil, nil, fmt.Errorf("export layout before open: %w", ErrUnsupported)
	}
	return raidmap.EncodeRaidMap(r.zoneMap, binary.LittleEndian),
		raidmap.EncodeRaidModes(r.modeMap, binary.LittleEndian), nil
}

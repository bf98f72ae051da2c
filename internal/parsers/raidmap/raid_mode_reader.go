// File: internal/parsers/raidmap/raid_mode_reader.go
package raidmap

import (
	"encoding/binary"
	"fmt"

	"github.com/deploymenttheory/go-zraid/internal/types"
)

// RaidModeReader provides parsing capabilities for persisted mode map
// records. A mode map is a flat array of fixed-width records, one per
// logical zone:
//
//	u32 mode_tag | u32 option
//
// Mode tag values are versioned by the caller and must not be
// reordered.
type RaidModeReader struct {
	items  []types.RaidModeItem
	endian binary.ByteOrder
}

// NewRaidModeReader parses a persisted mode map byte stream.
func NewRaidModeReader(data []byte, endian binary.ByteOrder) (*RaidModeReader, error) {
	if len(data)%types.RaidModeItemSize != 0 {
		return nil, fmt.Errorf("mode map length %d is not a multiple of record size %d",
			len(data), types.RaidModeItemSize)
	}

	count := len(data) / types.RaidModeItemSize
	items := make([]types.RaidModeItem, count)
	offset := 0
	for i := 0; i < count; i++ {
		tag := endian.Uint32(data[offset : offset+4])
		offset += 4
		if tag > uint32(types.RaidModeAuto) {
			return nil, fmt.Errorf("mode map record %d: unknown mode tag %d", i, tag)
		}
		items[i].Mode = types.RaidMode(tag)
		items[i].Option = endian.Uint32(data[offset : offset+4])
		offset += 4
	}

	return &RaidModeReader{
		items:  items,
		endian: endian,
	}, nil
}

// Items returns all decoded mode map records in order.
func (r *RaidModeReader) Items() []types.RaidModeItem {
	return r.items
}

// ItemCount returns the number of records in the map.
func (r *RaidModeReader) ItemCount() int {
	return len(r.items)
}

// Item returns the record for the given logical zone.
func (r *RaidModeReader) Item(idx int) (types.RaidModeItem, error) {
	if idx < 0 || idx >= len(r.items) {
		return types.RaidModeItem{}, fmt.Errorf("mode map index %d out of range [0, %d)", idx, len(r.items))
	}
	return r.items[idx], nil
}

// EncodeRaidModes serializes mode map records into the fixed-width
// on-disk format.
func EncodeRaidModes(items []types.RaidModeItem, endian binary.ByteOrder) []byte {
	data := make([]byte, len(items)*types.RaidModeItemSize)
	offset := 0
	for i := range items {
		endian.PutUint32(data[offset:offset+4], uint32(items[i].Mode))
		offset += 4
		endian.PutUint32(data[offset:offset+4], items[i].Option)
		offset += 4
	}
	return data
}

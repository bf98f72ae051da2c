// File: internal/parsers/raidmap/raid_map_reader.go
package raidmap

import (
	"encoding/binary"
	"fmt"

	"github.com/deploymenttheory/go-zraid/internal/types"
)

// RaidMapReader provides parsing capabilities for persisted zone map
// records. A zone map is a flat array of fixed-width records, one per
// (logical zone, sub-slot) pair:
//
//	u32 device_idx | u32 sub_zone_idx | u16 invalid_flag
type RaidMapReader struct {
	items  []types.RaidMapItem
	endian binary.ByteOrder
}

// NewRaidMapReader parses a persisted zone map byte stream.
func NewRaidMapReader(data []byte, endian binary.ByteOrder) (*RaidMapReader, error) {
	if len(data)%types.RaidMapItemSize != 0 {
		return nil, fmt.Errorf("zone map length %d is not a multiple of record size %d",
			len(data), types.RaidMapItemSize)
	}

	count := len(data) / types.RaidMapItemSize
	items := make([]types.RaidMapItem, count)
	offset := 0
	for i := 0; i < count; i++ {
		items[i].DeviceIdx = endian.Uint32(data[offset : offset+4])
		offset += 4
		items[i].ZoneIdx = endian.Uint32(data[offset : offset+4])
		offset += 4
		items[i].Invalid = endian.Uint16(data[offset : offset+2])
		offset += 2
	}

	return &RaidMapReader{
		items:  items,
		endian: endian,
	}, nil
}

// Items returns all decoded zone map records in order.
func (r *RaidMapReader) Items() []types.RaidMapItem {
	return r.items
}

// ItemCount returns the number of records in the map.
func (r *RaidMapReader) ItemCount() int {
	return len(r.items)
}

// Item returns the record at the given flat index.
func (r *RaidMapReader) Item(idx int) (types.RaidMapItem, error) {
	if idx < 0 || idx >= len(r.items) {
		return types.RaidMapItem{}, fmt.Errorf("zone map index %d out of range [0, %d)", idx, len(r.items))
	}
	return r.items[idx], nil
}

// EncodeRaidMap serializes zone map records into the fixed-width
// on-disk format. Decoding the result with NewRaidMapReader yields the
// input records unchanged.
func EncodeRaidMap(items []types.RaidMapItem, endian binary.ByteOrder) []byte {
	data := make([]byte, len(items)*types.RaidMapItemSize)
	offset := 0
	for i := range items {
		endian.PutUint32(data[offset:offset+4], items[i].DeviceIdx)
		offset += 4
		endian.PutUint32(data[offset:offset+4], items[i].ZoneIdx)
		offset += 4
		endian.PutUint16(data[offset:offset+2], items[i].Invalid)
		offset += 2
	}
	return data
}

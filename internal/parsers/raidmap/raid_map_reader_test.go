package raidmap

import (
	"bytes"
	"encoding/binary"
	"testing"

	"github.com/deploymenttheory/go-zraid/internal/types"
)

func TestNewRaidMapReader(t *testing.T) {
	// Two records of 10 bytes each
	data := make([]byte, 2*types.RaidMapItemSize)
	endian := binary.LittleEndian

	endian.PutUint32(data[0:4], 2)    // DeviceIdx
	endian.PutUint32(data[4:8], 17)   // ZoneIdx
	endian.PutUint16(data[8:10], 0)   // Invalid
	endian.PutUint32(data[10:14], 0)  // DeviceIdx
	endian.PutUint32(data[14:18], 31) // ZoneIdx
	endian.PutUint16(data[18:20], 1)  // Invalid

	reader, err := NewRaidMapReader(data, endian)
	if err != nil {
		t.Fatalf("NewRaidMapReader() failed: %v", err)
	}

	if reader.ItemCount() != 2 {
		t.Fatalf("ItemCount() = %d, want 2", reader.ItemCount())
	}

	first, err := reader.Item(0)
	if err != nil {
		t.Fatalf("Item(0) failed: %v", err)
	}
	if first.DeviceIdx != 2 {
		t.Errorf("Item(0).DeviceIdx = %d, want 2", first.DeviceIdx)
	}
	if first.ZoneIdx != 17 {
		t.Errorf("Item(0).ZoneIdx = %d, want 17", first.ZoneIdx)
	}
	if first.Invalid != 0 {
		t.Errorf("Item(0).Invalid = %d, want 0", first.Invalid)
	}

	second, err := reader.Item(1)
	if err != nil {
		t.Fatalf("Item(1) failed: %v", err)
	}
	if second.DeviceIdx != 0 || second.ZoneIdx != 31 || second.Invalid != 1 {
		t.Errorf("Item(1) = %+v, want {0 31 1}", second)
	}
}

func TestRaidMapReader_BadLength(t *testing.T) {
	data := make([]byte, types.RaidMapItemSize+3)

	_, err := NewRaidMapReader(data, binary.LittleEndian)
	if err == nil {
		t.Error("NewRaidMapReader() should have failed with a partial record")
	}
}

func TestRaidMapReader_IndexOutOfRange(t *testing.T) {
	data := make([]byte, types.RaidMapItemSize)

	reader, err := NewRaidMapReader(data, binary.LittleEndian)
	if err != nil {
		t.Fatalf("NewRaidMapReader() failed: %v", err)
	}
	if _, err := reader.Item(1); err == nil {
		t.Error("Item(1) should have failed on a one-record map")
	}
	if _, err := reader.Item(-1); err == nil {
		t.Error("Item(-1) should have failed")
	}
}

func TestEncodeRaidMap_RoundTrip(t *testing.T) {
	items := []types.RaidMapItem{
		{DeviceIdx: 0, ZoneIdx: 3, Invalid: 0},
		{DeviceIdx: 1, ZoneIdx: 0, Invalid: 0},
		{DeviceIdx: 2, ZoneIdx: 0, Invalid: 1},
		{DeviceIdx: 3, ZoneIdx: 0, Invalid: 0},
	}
	endian := binary.LittleEndian

	data := EncodeRaidMap(items, endian)
	if len(data) != len(items)*types.RaidMapItemSize {
		t.Fatalf("encoded length = %d, want %d", len(data), len(items)*types.RaidMapItemSize)
	}

	reader, err := NewRaidMapReader(data, endian)
	if err != nil {
		t.Fatalf("NewRaidMapReader() failed: %v", err)
	}
	decoded := reader.Items()
	for i := range items {
		if decoded[i] != items[i] {
			t.Errorf("record %d = %+v, want %+v", i, decoded[i], items[i])
		}
	}

	// Re-encoding must reproduce the byte stream
	if !bytes.Equal(EncodeRaidMap(decoded, endian), data) {
		t.Error("re-encoded zone map differs from original bytes")
	}
}

func TestEncodeRaidMap_LittleEndianLayout(t *testing.T) {
	data := EncodeRaidMap([]types.RaidMapItem{
		{DeviceIdx: 0x01020304, ZoneIdx: 0x0A0B0C0D, Invalid: 0x1122},
	}, binary.LittleEndian)

	want := []byte{0x04, 0x03, 0x02, 0x01, 0x0D, 0x0C, 0x0B, 0x0A, 0x22, 0x11}
	if !bytes.Equal(data, want) {
		t.Errorf("encoded bytes = % x, want % x", data, want)
	}
}

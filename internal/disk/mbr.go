// Copyright (c) 2025 Stefano Scafiti
//
// Permission is hereby granted, free of charge, to any person obtaining a copy
// of this software and associated documentation files (the "Software"), to deal
// in the Software without restriction, including without limitation the rights
// to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
// copies of the Software, and to permit persons to whom the Software is
// furnished to do so, subject to the following conditions:
//
// The above copyright notice and this permission notice shall be included in
// all copies or substantial portions of the Software.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
// FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
// AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
// LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
// OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN
// THE SOFTWARE.
package disk

import "fmt"

// partitionTableOffset is the offset of the 64-byte partition table within
// the boot sector.
const partitionTableOffset = 0x1BE

// MBREntry is a single non-empty entry of the MBR partition table.
type MBREntry struct {
	Index          int
	Status         uint8
	Type           uint8
	StartingSector uint32
	TotalSectors   uint32
}

func (e MBREntry) String() string {
	return fmt.Sprintf("[*** MBR entry %d ***]\n|-- Status: %02x\n|--   Type: %02x\n|--  Start: %d\n|--  Count: %d",
		e.Index, e.Status, e.Type, e.StartingSector, e.TotalSectors)
}

// ParseMBR decodes up to four partition entries from the 64-byte partition
// table found at offset 0x1BE of a boot sector. sector must be at least 510
// bytes (0x1BE + 64, which a full sector read covers). All-zero 16-byte slots are skipped; no other
// validity checks are performed.
func ParseMBR(sector []byte) ([]MBREntry, error) {
	if len(sector) < partitionTableOffset+64 {
		return nil, fmt.Errorf("ParseMBR: sector too short: got %d bytes, need at least %d", len(sector), partitionTableOffset+64)
	}

	var entries []MBREntry
	for i := 0; i < 4; i++ {
		off := partitionTableOffset + 16*i
		row := sector[off : off+16]

		if isAllZero(row) {
			continue
		}

		entries = append(entries, MBREntry{
			Index:          i,
			Status:         row[0x0],
			Type:           row[0x4],
			StartingSector: ReadLEUint32(row, 0x8),
			TotalSectors:   ReadLEUint32(row, 0xC),
		})
	}
	return entries, nil
}

func isAllZero(b []byte) bool {
	for _, c := range b {
		if c != 0 {
			return false
		}
	}
	return true
}

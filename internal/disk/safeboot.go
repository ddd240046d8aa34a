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

import (
	"fmt"
	"io"
)

const (
	// safeBootSignatureOffset is where the '#SafeBoot' marker lives in sector 0.
	safeBootSignatureOffset = 0x02
	safeBootSignature       = "#SafeBoot"

	// diskInfSectorPtrOffset is where the sector number of SafeBootDiskInf is stored.
	diskInfSectorPtrOffset = 0x1C

	diskInfSignature       = "SafeBootDiskInf"
	diskInfDiskIDOffset    = 0x11
	diskInfAlgorithmOffset = 0x37
	diskInfSectorMapOffset = 0x43
	diskInfSectorCountOff  = 0x4B
	diskInfoBlockLen       = 0x5A

	sectorMapRowLen     = 16
	sectorMapTableStart = 0x04
)

// SectorExtent is one entry of the SafeBoot sector map: a run of Count
// contiguous sectors starting at Base.
type SectorExtent struct {
	Base    uint32
	Count   uint32
}

// DiskInfo is the interpreted content of the SafeBootDiskInf sector, used
// only for the --info diagnostic display.
type DiskInfo struct {
	Signature    string
	DiskID       byte
	GUID         string
	Algorithm    byte
	SectorMapPtr uint32
	SectorCount  byte
	KeyCheck     string
}

func (d DiskInfo) String() string {
	return fmt.Sprintf("//\t|+| SafeBoot Disk Info |+|\n|\n"+
		"|----- Signature:  %s\n"+
		"|------- Disk ID:  %d\n"+
		"|----- Disk GUID:  %s\n"+
		"|----- Algorithm:  0x%02x (AES-256-CBC)\n"+
		"|---- Sector Map:  %d\n"+
		"|-- Sector Count:  %d\n"+
		"|----- Key Check:  %s\n"+
		"|\n\\\\\t|+| ****************** |+|",
		d.Signature, d.DiskID, d.GUID, d.Algorithm, d.SectorMapPtr, d.SectorCount, d.KeyCheck)
}

// SafeBoot holds the reconstructed SafeBoot FAT helper partition image and
// the diagnostic disk-info record it was built from.
type SafeBoot struct {
	Image []byte
	Info  DiskInfo
}

// CheckSafeBootMagic verifies the 9-byte '#SafeBoot' marker at absolute byte
// offset 0x02 of the raw disk. Mismatch is a fatal configuration error.
func CheckSafeBootMagic(r io.ReaderAt) error {
	buf := make([]byte, len(safeBootSignature))
	if _, err := r.ReadAt(buf, safeBootSignatureOffset); err != nil {
		return fmt.Errorf("disk: reading SafeBoot magic: %w", err)
	}
	if string(buf) != safeBootSignature {
		return fmt.Errorf("disk: missing %q signature at offset 0x%x", safeBootSignature, safeBootSignatureOffset)
	}
	return nil
}

// ParseSafeBoot locates the SafeBootDiskInf descriptor, walks its
// sector-gather map, and reconstructs the SafeBoot partition image by
// concatenating every extent's sectors in table order.
//
// Algorithm follows spec.md §4.3 exactly:
//  1. read the u32 LE at 0x1C -> D, the SafeBootDiskInf sector number.
//  2. verify the 15-byte "SafeBootDiskInf" signature at D*512.
//  3. read the u32 LE at D*512+0x43 -> M, the sector-map table sector.
//  4. walk 16-byte rows at M*512+0x04 until a zero base is found; the first
//     accepted row has its base incremented and count decremented by one,
//     to skip the in-extent SafeBoot signature sector.
//  5. concatenate read_sectors(base, count) for every extent in order.
func ParseSafeBoot(r io.ReaderAt) (*SafeBoot, error) {
	ptrBuf := make([]byte, 4)
	if _, err := r.ReadAt(ptrBuf, diskInfSectorPtrOffset); err != nil {
		return nil, fmt.Errorf("disk: reading SafeBootDiskInf pointer: %w", err)
	}
	diskInfSector := ReadLEUint32(ptrBuf, 0)

	diskInfoBlock := make([]byte, diskInfoBlockLen)
	if _, err := r.ReadAt(diskInfoBlock, int64(diskInfSector)*SectorSize); err != nil {
		return nil, fmt.Errorf("disk: reading SafeBootDiskInf sector %d: %w", diskInfSector, err)
	}

	if !CheckSignature(diskInfoBlock, 0, diskInfSignature) {
		return nil, fmt.Errorf("disk: missing %q signature at sector %d", diskInfSignature, diskInfSector)
	}

	sectorMapSector := ReadLEUint32(diskInfoBlock, diskInfSectorMapOffset)

	info := DiskInfo{
		Signature:    diskInfSignature,
		DiskID:       diskInfoBlock[diskInfDiskIDOffset],
		GUID:         BuildGUID(diskInfoBlock),
		Algorithm:    diskInfoBlock[diskInfAlgorithmOffset],
		SectorMapPtr: sectorMapSector,
		SectorCount:  diskInfoBlock[diskInfSectorCountOff],
		KeyCheck:     BuildKeyCheck(diskInfoBlock),
	}

	extents, err := readSectorMap(r, sectorMapSector)
	if err != nil {
		return nil, err
	}

	image, err := reconstructImage(r, extents)
	if err != nil {
		return nil, err
	}

	return &SafeBoot{Image: image, Info: info}, nil
}

// readSectorMap walks the zero-terminated sector-map table, applying the
// first-row signature-sector skip.
func readSectorMap(r io.ReaderAt, mapSector uint32) ([]SectorExtent, error) {
	var extents []SectorExtent

	base := int64(mapSector)*SectorSize + sectorMapTableStart
	row := make([]byte, sectorMapRowLen)

	for i := 0; ; i++ {
		if _, err := r.ReadAt(row, base+int64(i)*sectorMapRowLen); err != nil {
			return nil, fmt.Errorf("disk: reading sector-map row %d: %w", i, err)
		}

		start := ReadLEUint32(row, 0)
		if start == 0 {
			break
		}
		count := ReadLEUint32(row, 8)

		if i == 0 {
			start++
			count--
		}

		extents = append(extents, SectorExtent{Base: start, Count: count})
	}

	if len(extents) == 0 {
		return nil, fmt.Errorf("disk: sector map at sector %d has no entries", mapSector)
	}
	return extents, nil
}

// reconstructImage concatenates read_sectors(base, count) for each extent in
// table order.
func reconstructImage(r io.ReaderAt, extents []SectorExtent) ([]byte, error) {
	var image []byte
	for _, e := range extents {
		off := int64(e.Base) * SectorSize
		n := int64(e.Count) * SectorSize
		if !SectorAligned(off, n) {
			return nil, fmt.Errorf("disk: SafeBoot extent base=%d count=%d is not sector-aligned", e.Base, e.Count)
		}

		buf := make([]byte, n)
		if len(buf) > 0 {
			if _, err := r.ReadAt(buf, off); err != nil {
				return nil, fmt.Errorf("disk: reading SafeBoot extent base=%d count=%d: %w", e.Base, e.Count, err)
			}
		}
		image = append(image, buf...)
	}
	return image, nil
}

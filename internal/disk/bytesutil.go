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

// Package disk implements the on-disk structures this project parses: the
// MBR partition table and the SafeBootDiskInf metadata block.
package disk

import (
	"encoding/binary"
	"fmt"
	"strings"
)

// SectorSize is the fixed sector size assumed everywhere in this project.
const SectorSize = 512

// ReadLEUint32 decodes a little-endian uint32 at offset from b.
func ReadLEUint32(b []byte, offset int) uint32 {
	return binary.LittleEndian.Uint32(b[offset : offset+4])
}

// ReadLEUint16 decodes a little-endian uint16 at offset from b.
func ReadLEUint16(b []byte, offset int) uint16 {
	return binary.LittleEndian.Uint16(b[offset : offset+2])
}

// CheckSignature reports whether want matches b at the given offset.
func CheckSignature(b []byte, offset int, want string) bool {
	if offset+len(want) > len(b) {
		return false
	}
	return string(b[offset:offset+len(want)]) == want
}

// BuildGUID formats the disk GUID embedded in a SafeBootDiskInf sector per
// the layout in spec.md §6: first group is bytes 0x2A..0x27 reversed, second
// and third groups are two-byte pairs reversed, the rest are single bytes in
// forward order. All groups are joined with '-' and uppercased.
func BuildGUID(diskInfo []byte) string {
	var groups []string

	var first strings.Builder
	for i := 0x2a; i >= 0x27; i-- {
		fmt.Fprintf(&first, "%02x", diskInfo[i])
	}
	groups = append(groups, first.String())

	groups = append(groups, fmt.Sprintf("%02x%02x", diskInfo[0x2c], diskInfo[0x2b]))
	groups = append(groups, fmt.Sprintf("%02x%02x", diskInfo[0x2e], diskInfo[0x2d]))

	for i := 0x2f; i < 0x37; i++ {
		groups = append(groups, fmt.Sprintf("%02x", diskInfo[i]))
	}

	return strings.ToUpper(strings.Join(groups, "-"))
}

// BuildKeyCheck formats the 8-byte key-check value at 0x4d..0x55 of a
// SafeBootDiskInf sector, reversed and uppercased.
func BuildKeyCheck(diskInfo []byte) string {
	kc := diskInfo[0x4d:0x55]
	var sb strings.Builder
	for i := len(kc) - 1; i >= 0; i-- {
		fmt.Fprintf(&sb, "%02x", kc[i])
	}
	return strings.ToUpper(sb.String())
}

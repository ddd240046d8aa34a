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

// SectorAligned reports whether off and n are both multiples of SectorSize,
// the precondition every direct sector read in this package relies on.
func SectorAligned(off, n int64) bool {
	return off%SectorSize == 0 && n%SectorSize == 0
}

// SectorCount returns how many whole sectors fit in n bytes, rejecting
// partial-sector sizes early rather than silently truncating. Used to reject
// a backing disk image whose size isn't a whole number of sectors.
func SectorCount(n int64) (uint32, error) {
	if n%SectorSize != 0 {
		return 0, fmt.Errorf("disk: size %d is not a multiple of the sector size %d", n, SectorSize)
	}
	return uint32(n / SectorSize), nil
}

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

	"github.com/mcafuse/mcafuse/internal/fs"
)

// Image is the raw backing disk: a plain file or a raw block device, opened
// once at mount time and addressed exclusively by ReadAt so concurrent FUSE
// requests never interleave a seek with someone else's read.
type Image struct {
	f    fs.File
	size int64
}

// OpenImage opens path (normalizing Windows volume paths first) and resolves
// its size, preferring the block-device geometry ioctl over os.Stat when the
// plain size comes back as zero (common for raw device nodes).
func OpenImage(path string) (*Image, error) {
	f, err := fs.Open(NormalizeVolumePath(path))
	if err != nil {
		return nil, fmt.Errorf("disk: opening %q: %w", path, err)
	}

	size, err := resolveSize(f, path)
	if err != nil {
		f.Close()
		return nil, err
	}

	if _, err := SectorCount(size); err != nil {
		f.Close()
		return nil, fmt.Errorf("disk: %q: %w", path, err)
	}

	return &Image{f: f, size: size}, nil
}

func resolveSize(f fs.File, path string) (int64, error) {
	fi, err := f.Stat()
	if err == nil && fi.Size() > 0 {
		return fi.Size(), nil
	}

	size, blkErr := blockDeviceSize(path)
	if blkErr == nil && size > 0 {
		return size, nil
	}

	if err != nil {
		return 0, fmt.Errorf("disk: stat %q: %w", path, err)
	}
	return 0, fmt.Errorf("disk: could not determine size of %q", path)
}

// Size returns the backing image's size in bytes.
func (img *Image) Size() int64 { return img.size }

// ReadAt implements io.ReaderAt against the backing file.
func (img *Image) ReadAt(p []byte, off int64) (int, error) {
	return img.f.ReadAt(p, off)
}

// ReadSector reads exactly one SectorSize-byte sector.
func (img *Image) ReadSector(n uint32) ([]byte, error) {
	buf := make([]byte, SectorSize)
	if _, err := img.ReadAt(buf, int64(n)*SectorSize); err != nil {
		return nil, fmt.Errorf("disk: reading sector %d: %w", n, err)
	}
	return buf, nil
}

// Close releases the backing file handle.
func (img *Image) Close() error { return img.f.Close() }

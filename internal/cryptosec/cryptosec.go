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

// Package cryptosec decrypts the AES-256-CBC encrypted partition sector by
// sector, deriving each sector's IV from its own sector number rather than
// storing one alongside the ciphertext.
package cryptosec

import (
	"crypto/aes"
	"crypto/cipher"
	"encoding/binary"
	"fmt"
	"io"

	"github.com/mcafuse/mcafuse/internal/disk"
)

// KeySize is the only AES key length this engine accepts.
const KeySize = 32

// Engine decrypts sectors read from an arbitrary io.ReaderAt. It is safe for
// concurrent use: every method call derives its own cipher.BlockMode from the
// shared, read-only payloadCipher and never mutates engine state.
type Engine struct {
	payloadCipher cipher.Block // AES, used in CBC mode to decrypt sector payloads
	ivCipher      cipher.Block // same key, used in ECB mode purely to derive per-sector IVs
}

// NewEngine builds a decryption engine around a raw 32-byte AES-256 key.
func NewEngine(key []byte) (*Engine, error) {
	if len(key) != KeySize {
		return nil, fmt.Errorf("cryptosec: key must be %d bytes, got %d", KeySize, len(key))
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("cryptosec: building AES cipher: %w", err)
	}
	return &Engine{payloadCipher: block, ivCipher: block}, nil
}

// sectorIV derives the IV for sectorNo: its little-endian uint32
// representation repeated four times, then ECB-encrypted (a single
// block-cipher pass with no chaining) under the same key.
func (e *Engine) sectorIV(sectorNo uint32) []byte {
	var preIV [aes.BlockSize]byte
	binary.LittleEndian.PutUint32(preIV[0:4], sectorNo)
	binary.LittleEndian.PutUint32(preIV[4:8], sectorNo)
	binary.LittleEndian.PutUint32(preIV[8:12], sectorNo)
	binary.LittleEndian.PutUint32(preIV[12:16], sectorNo)

	iv := make([]byte, aes.BlockSize)
	e.ivCipher.Encrypt(iv, preIV[:])
	return iv
}

// DecryptSector reads and decrypts exactly one disk.SectorSize-byte sector.
func (e *Engine) DecryptSector(source io.ReaderAt, sectorNo uint32) ([]byte, error) {
	encrypted := make([]byte, disk.SectorSize)
	if _, err := source.ReadAt(encrypted, int64(sectorNo)*disk.SectorSize); err != nil {
		return nil, fmt.Errorf("cryptosec: reading sector %d: %w", sectorNo, err)
	}

	mode := cipher.NewCBCDecrypter(e.payloadCipher, e.sectorIV(sectorNo))

	clear := make([]byte, disk.SectorSize)
	mode.CryptBlocks(clear, encrypted)
	return clear, nil
}

// DecryptAtOffset decrypts an arbitrary byte range of the encrypted
// partition, straddling sector boundaries as needed: the first sector is
// decrypted whole and its head trimmed, following sectors are kept entire
// while more than a sector remains, and one final sector is always
// decrypted and trimmed to what is left. When the range ends inside the
// first sector or on a sector boundary, that final sector is still read and
// decrypted but contributes no bytes.
func (e *Engine) DecryptAtOffset(source io.ReaderAt, off, size int64) ([]byte, error) {
	if size <= 0 {
		return nil, nil
	}

	sizeOrig := size
	sectorNo := uint32(off / disk.SectorSize)

	var data []byte

	clear, err := e.DecryptSector(source, sectorNo)
	if err != nil {
		return nil, err
	}
	bytesInSector := off - int64(sectorNo)*disk.SectorSize
	data = append(data, clear[bytesInSector:]...)
	size -= disk.SectorSize - bytesInSector
	sectorNo++

	for size > disk.SectorSize {
		clear, err = e.DecryptSector(source, sectorNo)
		if err != nil {
			return nil, err
		}
		data = append(data, clear...)
		size -= disk.SectorSize
		sectorNo++
	}

	clear, err = e.DecryptSector(source, sectorNo)
	if err != nil {
		return nil, err
	}
	if size > 0 {
		if size > int64(len(clear)) {
			size = int64(len(clear))
		}
		data = append(data, clear[:size]...)
	}

	if int64(len(data)) > sizeOrig {
		data = data[:sizeOrig]
	}
	return data, nil
}

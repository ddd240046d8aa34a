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
package cmd

import (
	"fmt"
	"os"

	"github.com/mcafuse/mcafuse/internal/cryptosec"
	"github.com/mcafuse/mcafuse/internal/disk"
	"github.com/mcafuse/mcafuse/internal/fuse"
	"github.com/mcafuse/mcafuse/internal/keyfile"
	"github.com/mcafuse/mcafuse/internal/logger"
)

// MountOptions mirrors the CLI surface except --debug, which Execute applies
// to the logger before calling RunMount: a mountpoint and a disk image are
// required, everything else is optional.
type MountOptions struct {
	Mountpoint string
	DiskImage  string
	Keyfile    string
	Info       bool
	AllDisk    bool
	Verbose    bool
}

// RunMount validates the supplied paths, parses the SafeBoot metadata and
// (optionally) the MBR and key, then mounts the resulting filesystem and
// blocks until it is unmounted.
func RunMount(opts MountOptions) error {
	if err := checkFilesExist(opts); err != nil {
		fatal(err)
		return nil
	}

	img, err := disk.OpenImage(opts.DiskImage)
	if err != nil {
		fatal(err)
		return nil
	}
	defer img.Close()

	if err := disk.CheckSafeBootMagic(img); err != nil {
		fatal(err)
		return nil
	}

	safeBoot, err := disk.ParseSafeBoot(img)
	if err != nil {
		fatal(err)
		return nil
	}

	if opts.Info || opts.Verbose {
		logger.Default.Info("\n")
		fmt.Println(safeBoot.Info.String())
	}

	var enc *fuse.EncryptedSource
	if opts.Keyfile != "" {
		key, err := keyfile.Load(opts.Keyfile)
		if err != nil {
			fatal(err)
			return nil
		}
		engine, err := cryptosec.NewEngine(key)
		if err != nil {
			fatal(err)
			return nil
		}
		if opts.Verbose {
			logger.Default.Infof("|++| Sector size: %d", disk.SectorSize)
			logger.Default.Infof("|++| AES-256-CBC key instantiated (%d bytes)", len(key))
		}

		baseOffset := int64(0)
		size := img.Size()
		if !opts.AllDisk {
			sector0, err := img.ReadSector(0)
			if err != nil {
				fatal(err)
				return nil
			}
			entries, err := disk.ParseMBR(sector0)
			if err != nil {
				fatal(err)
				return nil
			}
			if opts.Verbose {
				for _, e := range entries {
					logger.Default.Info(e.String())
				}
			}
			part, err := disk.SelectEncryptedPartition(entries)
			if err != nil {
				fatal(err)
				return nil
			}
			baseOffset = int64(part.ByteOffset())
			size = int64(part.StartSector+part.LenSectors) * disk.SectorSize
			if opts.Verbose {
				logger.Default.Infof("|++| Chosen partition. Start: %d sectors, length: %d sectors", part.StartSector, part.LenSectors)
			}
		}

		enc = &fuse.EncryptedSource{
			Backing:    img,
			Engine:     engine,
			BaseOffset: baseOffset,
			Size:       size,
		}
	}

	root := &fuse.FS{
		SafeBoot: safeBoot.Image,
		Enc:      enc,
		UID:      uint32(os.Getuid()),
		GID:      uint32(os.Getgid()),
	}

	return fuse.Mount(opts.Mountpoint, root)
}

func checkFilesExist(opts MountOptions) error {
	if fi, err := os.Stat(opts.DiskImage); err != nil || fi.IsDir() {
		return fmt.Errorf("the supplied image of the disk does not exist")
	}
	if opts.Keyfile != "" {
		if fi, err := os.Stat(opts.Keyfile); err != nil || fi.IsDir() {
			return fmt.Errorf("the supplied key file does not exist")
		}
	}
	fi, err := os.Stat(opts.Mountpoint)
	if err != nil || !fi.IsDir() {
		return fmt.Errorf("the supplied mountpoint does not exist or it is not a directory")
	}
	return nil
}

//go:build linux
// +build linux

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

// Package fuse exposes the decrypted McAfee FDE disk as a two-entry,
// read-only filesystem: the reconstructed SafeBoot.disk helper partition,
// and (only when a key was supplied) encdisk.img, the decrypted payload
// partition.
package fuse

import (
	"context"
	"io"
	"os"
	"sort"
	"syscall"
	"time"

	"bazil.org/fuse"
	fusefs "bazil.org/fuse/fs"

	"github.com/mcafuse/mcafuse/internal/cryptosec"
)

const (
	rootInode     = 1
	encdiskInode  = rootInode + 1
	sbfsdiskInode = rootInode + 2

	sbfsdiskName = "SafeBoot.disk"
	encdiskName  = "encdisk.img"
)

var errnoEACCES = fuse.Errno(syscall.EACCES)

// fixedTimestamp is the synthetic mtime/atime/ctime reported for every node,
// matching the tool's original fixed-timestamp behavior rather than the host
// filesystem's real mount time.
var fixedTimestamp = time.Unix(824463000, 0)

// EncryptedSource is everything the encdisk.img handler needs to decrypt a
// read on demand: the raw backing disk, the crypto engine, and the byte
// offset within the disk where reads should be rebased.
type EncryptedSource struct {
	Backing    io.ReaderAt
	Engine     *cryptosec.Engine
	BaseOffset int64 // partition_start * SectorSize, or 0 when exposing the whole disk
	Size       int64
}

// FS is the root of the mounted filesystem.
type FS struct {
	SafeBoot []byte           // reconstructed SafeBoot.disk contents, always present
	Enc      *EncryptedSource // nil when no keyfile was supplied: encdisk.img stays hidden

	UID, GID uint32
}

func (f *FS) Root() (fusefs.Node, error) {
	return &dir{fs: f}, nil
}

// dir is the filesystem root; it is the only directory in the tree.
type dir struct {
	fs *FS
}

func (d *dir) Attr(ctx context.Context, a *fuse.Attr) error {
	a.Inode = rootInode
	a.Mode = os.ModeDir | 0555
	a.Uid = d.fs.UID
	a.Gid = d.fs.GID
	a.Mtime, a.Atime, a.Ctime = fixedTimestamp, fixedTimestamp, fixedTimestamp
	return nil
}

// Lookup accepts exactly the two well-known names; encdisk.img additionally
// requires a key to have been supplied.
func (d *dir) Lookup(ctx context.Context, name string) (fusefs.Node, error) {
	switch name {
	case sbfsdiskName:
		return &file{fs: d.fs, inode: sbfsdiskInode, isEnc: false}, nil
	case encdiskName:
		if d.fs.Enc == nil {
			return nil, fuse.ENOENT
		}
		return &file{fs: d.fs, inode: encdiskInode, isEnc: true}, nil
	default:
		return nil, fuse.ENOENT
	}
}

func (d *dir) ReadDirAll(ctx context.Context) ([]fuse.Dirent, error) {
	entries := []fuse.Dirent{
		{Inode: sbfsdiskInode, Name: sbfsdiskName, Type: fuse.DT_File},
	}
	if d.fs.Enc != nil {
		entries = append(entries, fuse.Dirent{Inode: encdiskInode, Name: encdiskName, Type: fuse.DT_File})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name < entries[j].Name })
	return entries, nil
}

// file is either SafeBoot.disk or encdisk.img.
type file struct {
	fs    *FS
	inode uint64
	isEnc bool
}

func (f *file) size() uint64 {
	if f.isEnc {
		return uint64(f.fs.Enc.Size)
	}
	return uint64(len(f.fs.SafeBoot))
}

func (f *file) Attr(ctx context.Context, a *fuse.Attr) error {
	a.Inode = f.inode
	a.Mode = 0444
	a.Size = f.size()
	a.Uid = f.fs.UID
	a.Gid = f.fs.GID
	a.Mtime, a.Atime, a.Ctime = fixedTimestamp, fixedTimestamp, fixedTimestamp
	return nil
}

// Open refuses any write intent; both files are strictly read-only.
func (f *file) Open(ctx context.Context, req *fuse.OpenRequest, resp *fuse.OpenResponse) (fusefs.Handle, error) {
	if !req.Flags.IsReadOnly() {
		return nil, errnoEACCES
	}
	return f, nil
}

func (f *file) Read(ctx context.Context, req *fuse.ReadRequest, resp *fuse.ReadResponse) error {
	total := int64(f.size())
	if req.Offset >= total {
		resp.Data = []byte{}
		return nil
	}

	size := int64(req.Size)
	if req.Offset+size > total {
		size = total - req.Offset
	}

	if f.isEnc {
		data, err := f.fs.Enc.Engine.DecryptAtOffset(f.fs.Enc.Backing, f.fs.Enc.BaseOffset+req.Offset, size)
		if err != nil {
			return err
		}
		resp.Data = data
		return nil
	}

	resp.Data = f.fs.SafeBoot[req.Offset : req.Offset+size]
	return nil
}

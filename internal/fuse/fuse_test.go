//go:build linux
// +build linux

package fuse

import (
	"context"
	"testing"

	"bazil.org/fuse"
	"github.com/stretchr/testify/require"
)

func newTestFS(withKey bool) *FS {
	f := &FS{SafeBoot: []byte("safeboot-contents")}
	if withKey {
		f.Enc = &EncryptedSource{Size: 4096}
	}
	return f
}

func TestLookup_KnownNames(t *testing.T) {
	f := newTestFS(true)
	d := &dir{fs: f}

	node, err := d.Lookup(context.Background(), sbfsdiskName)
	require.NoError(t, err)
	require.NotNil(t, node)

	node, err = d.Lookup(context.Background(), encdiskName)
	require.NoError(t, err)
	require.NotNil(t, node)
}

func TestLookup_UnknownName(t *testing.T) {
	d := &dir{fs: newTestFS(true)}
	_, err := d.Lookup(context.Background(), "nonexistent")
	require.Equal(t, fuse.ENOENT, err)
}

func TestLookup_EncdiskHiddenWithoutKey(t *testing.T) {
	d := &dir{fs: newTestFS(false)}
	_, err := d.Lookup(context.Background(), encdiskName)
	require.Equal(t, fuse.ENOENT, err)
}

func TestReadDirAll_OmitsEncdiskWithoutKey(t *testing.T) {
	d := &dir{fs: newTestFS(false)}
	entries, err := d.ReadDirAll(context.Background())
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.Equal(t, sbfsdiskName, entries[0].Name)
}

func TestReadDirAll_IncludesEncdiskWithKey(t *testing.T) {
	d := &dir{fs: newTestFS(true)}
	entries, err := d.ReadDirAll(context.Background())
	require.NoError(t, err)
	require.Len(t, entries, 2)
}

func TestOpen_RefusesWriteIntent(t *testing.T) {
	f := &file{fs: newTestFS(false), inode: sbfsdiskInode}

	req := &fuse.OpenRequest{Flags: fuse.OpenFlags(1)} // O_WRONLY-equivalent: not read-only
	_, err := f.Open(context.Background(), req, &fuse.OpenResponse{})
	require.Equal(t, errnoEACCES, err)
}

func TestOpen_AllowsReadOnly(t *testing.T) {
	f := &file{fs: newTestFS(false), inode: sbfsdiskInode}

	req := &fuse.OpenRequest{Flags: fuse.OpenFlags(0)}
	h, err := f.Open(context.Background(), req, &fuse.OpenResponse{})
	require.NoError(t, err)
	require.NotNil(t, h)
}

func TestRead_SafeBootServesFromMemory(t *testing.T) {
	f := &file{fs: newTestFS(false), inode: sbfsdiskInode}

	req := &fuse.ReadRequest{Offset: 0, Size: 9}
	resp := &fuse.ReadResponse{}
	require.NoError(t, f.Read(context.Background(), req, resp))
	require.Equal(t, "safeboot-", string(resp.Data))
}

func TestRead_PastEOFReturnsEmpty(t *testing.T) {
	f := &file{fs: newTestFS(false), inode: sbfsdiskInode}

	req := &fuse.ReadRequest{Offset: 9999, Size: 10}
	resp := &fuse.ReadResponse{}
	require.NoError(t, f.Read(context.Background(), req, resp))
	require.Empty(t, resp.Data)
}

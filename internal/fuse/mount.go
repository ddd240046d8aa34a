//go:build !linux
// +build !linux

package fuse

import "fmt"

// Mount is only implemented on Linux, where bazil.org/fuse can talk to the
// kernel FUSE driver.
func Mount(mountpoint string, fs *FS) error {
	return fmt.Errorf("fuse: mounting is only supported on Linux")
}

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
package fuse

import (
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"

	"bazil.org/fuse"
	fusefs "bazil.org/fuse/fs"
)

// Mount prepares mountpoint, serves fs over it with the fsname set to
// McAFuse and allow_other enabled (so users other than the one running this
// program can browse the mount), and blocks until a termination signal
// drives a clean unmount.
func Mount(mountpoint string, root *FS) error {
	if err := PrepareMountpoint(mountpoint); err != nil {
		return err
	}

	c, err := fuse.Mount(mountpoint,
		fuse.FSName("McAFuse"),
		fuse.Subtype("mcafuse"),
		fuse.AllowOther(),
		fuse.ReadOnly(),
	)
	if err != nil {
		return fmt.Errorf("fuse: mounting %s: %w", mountpoint, err)
	}
	defer c.Close()

	go func() {
		srv := fusefs.New(c, nil)
		if err := srv.Serve(root); err != nil {
			log.Fatalf("fuse: serve error: %v", err)
		}
	}()
	return waitForUmount(mountpoint)
}

func waitForUmount(mountpoint string) error {
	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, os.Interrupt, syscall.SIGTERM)

	log.Println("Waiting for termination signal...")

	const maxUnmountRetries = 3

	unmountAttempts := 0
	for sig := range sigc {
		log.Printf("Signal received: %v.", sig)

		if unmountAttempts >= maxUnmountRetries {
			log.Fatalf("Maximum unmount retries (%d) exceeded. Still unable to unmount %s. Forcefully exiting.",
				maxUnmountRetries, mountpoint)
		}

		log.Printf("Attempting unmount of %s (attempt %d/%d)...", mountpoint, unmountAttempts+1, maxUnmountRetries)
		err := fuse.Unmount(mountpoint)
		if err == nil {
			log.Println("Unmounted successfully, exiting.")
			return nil
		}

		unmountAttempts++
		log.Printf("Unmount failed: %v. Remaining retries: %d. Waiting for another signal to retry...", err, maxUnmountRetries-unmountAttempts)
	}
	return nil
}

// PrepareMountpoint verifies that mountpoint is an existing, empty
// directory suitable for FUSE mounting. Unlike a tool that creates its own
// output directory, this project's mountpoint must already exist (spec: "a
// path to an existing directory"), so a missing path is an error here, not
// something to create on the caller's behalf.
func PrepareMountpoint(mountpoint string) error {
	finfo, err := os.Stat(mountpoint)
	if err != nil {
		return fmt.Errorf("mountpoint %s does not exist or it is not a directory", mountpoint)
	}

	if !finfo.IsDir() {
		return fmt.Errorf("mountpoint %s is not a directory", mountpoint)
	}

	empty, err := IsDirEmpty(mountpoint)
	if err != nil {
		return fmt.Errorf("failed to check if mountpoint %s is empty: %w", mountpoint, err)
	}
	if !empty {
		return fmt.Errorf("mountpoint %s is not empty", mountpoint)
	}
	return nil
}

// IsDirEmpty returns true if the directory at path is empty, false otherwise.
func IsDirEmpty(path string) (bool, error) {
	f, err := os.Open(path)
	if err != nil {
		return false, err
	}
	defer f.Close()

	entries, err := f.Readdir(1)
	if err != nil {
		if err == io.EOF {
			return true, nil
		}
		return false, err
	}
	return len(entries) == 0, nil
}

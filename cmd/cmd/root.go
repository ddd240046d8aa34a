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

	"github.com/spf13/cobra"

	"github.com/mcafuse/mcafuse/internal/env"
	"github.com/mcafuse/mcafuse/internal/logger"
)

// Execute builds and runs the single root command: mount a McAfee FDE
// SafeBoot image, optionally decrypting it, as a read-only FUSE filesystem.
func Execute() error {
	var (
		debug   bool
		keyfile string
		info    bool
		allDisk bool
		verbose bool
	)

	rootCmd := &cobra.Command{
		Use:          env.AppName + " <mountpoint> <disk_image>",
		Short:        env.AppName + " - mount a McAfee FDE (SafeBoot) disk image read-only over FUSE",
		Args:         cobra.ExactArgs(2),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if debug {
				logger.Default.SetLevel(logger.DebugLevel)
			} else if verbose {
				logger.Default.SetLevel(logger.InfoLevel)
			}
			return RunMount(MountOptions{
				Mountpoint: args[0],
				DiskImage:  args[1],
				Keyfile:    keyfile,
				Info:       info,
				AllDisk:    allDisk,
				Verbose:    verbose,
			})
		},
	}

	rootCmd.Flags().BoolVar(&debug, "debug", false, "enable debugging output")
	rootCmd.Flags().StringVarP(&keyfile, "keyfile", "k", "", "path to the XML file containing the decryption key")
	rootCmd.Flags().BoolVarP(&info, "info", "i", false, "print info from SafeBootDiskInfo")
	rootCmd.Flags().BoolVarP(&allDisk, "all", "a", false, "expose all disk, not only the encrypted partition")
	rootCmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "verbose log of info during the execution")

	return rootCmd.Execute()
}

// fatal prints err to stderr in the style of this tool and exits with a
// non-zero status, used for configuration errors that must abort before a
// mount is attempted.
func fatal(err error) {
	fmt.Fprintf(os.Stderr, "|!| -- [ERROR] -- %v\n", err)
	os.Exit(1)
}

//go:build windows
// +build windows

package api

import (
	"io/fs"

	"github.com/distanthq/distant/common/protocol"
)

// unixMetadata is always absent on Windows builds.
func unixMetadata(info fs.FileInfo) *protocol.UnixMetadata {
	return nil
}

//go:build !windows
// +build !windows

package api

import (
	"io/fs"

	"github.com/distanthq/distant/common/protocol"
)

// unixMetadata extracts POSIX permission bits; present only on Unix-family
// builds.
func unixMetadata(info fs.FileInfo) *protocol.UnixMetadata {
	mode := info.Mode().Perm()
	return &protocol.UnixMetadata{
		OwnerRead: mode&0o400 != 0, OwnerWrite: mode&0o200 != 0, OwnerExec: mode&0o100 != 0,
		GroupRead: mode&0o040 != 0, GroupWrite: mode&0o020 != 0, GroupExec: mode&0o010 != 0,
		OtherRead: mode&0o004 != 0, OtherWrite: mode&0o002 != 0, OtherExec: mode&0o001 != 0,
	}
}

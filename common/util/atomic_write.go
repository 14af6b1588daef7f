package util

import (
	"os"
	"path/filepath"
)

// WriteFileAtomic writes data to a temporary file alongside path and
// renames it into place, so a concurrent reader never observes a
// partially-written file. It replaces the earlier dependency on
// youtube/vitess's ioutil2.WriteFileAtomic for the one call site that used
// it (common/version), since pulling in a full vitess module for a single
// helper isn't worth it here.
func WriteFileAtomic(path string, data []byte, perm os.FileMode) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".tmp-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmpName, perm); err != nil {
		return err
	}
	return os.Rename(tmpName, path)
}

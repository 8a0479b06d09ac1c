//go:build !windows

package disk

import (
	"fmt"

	"golang.org/x/sys/unix"
)

// mmap maps size bytes of fm.file into memory, replacing fm.data. Mirrors
// the teacher's Windows-only mmap helper (internal/storage/file/
// db_windows.go) but expressed through golang.org/x/sys/unix, since the
// teacher never shipped a non-Windows path at all.
func mmap(fm *FileManager, size int64) error {
	data, err := unix.Mmap(int(fm.file.Fd()), 0, int(size), unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED)
	if err != nil {
		return fmt.Errorf("mmap: %w", err)
	}
	fm.data = data
	fm.size = size
	return nil
}

// munmap unmaps fm.data.
func munmap(fm *FileManager) error {
	if fm.data == nil {
		return nil
	}
	if err := unix.Munmap(fm.data); err != nil {
		return fmt.Errorf("munmap: %w", err)
	}
	fm.data = nil
	return nil
}

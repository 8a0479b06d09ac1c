//go:build windows

package disk

import (
	"fmt"
	"unsafe"

	"golang.org/x/sys/windows"
)

// mmap maps size bytes of fm.file into memory on Windows. This is the
// same strategy the teacher's internal/storage/file/db_windows.go used
// (CreateFileMapping + MapViewOfFile via raw syscalls), re-expressed
// through golang.org/x/sys/windows for symmetry with the Unix side.
func mmap(fm *FileManager, size int64) error {
	h, err := windows.CreateFileMapping(windows.Handle(fm.file.Fd()), nil, windows.PAGE_READWRITE, uint32(size>>32), uint32(size), nil)
	if err != nil {
		return fmt.Errorf("CreateFileMapping: %w", err)
	}
	defer windows.CloseHandle(h)

	addr, err := windows.MapViewOfFile(h, windows.FILE_MAP_WRITE, 0, 0, uintptr(size))
	if err != nil {
		return fmt.Errorf("MapViewOfFile: %w", err)
	}

	fm.data = unsafe.Slice((*byte)(unsafe.Pointer(addr)), size)
	fm.size = size
	return nil
}

// munmap unmaps fm.data on Windows.
func munmap(fm *FileManager) error {
	if fm.data == nil {
		return nil
	}
	addr := unsafe.Pointer(&fm.data[0])
	if err := windows.UnmapViewOfFile(uintptr(addr)); err != nil {
		return fmt.Errorf("UnmapViewOfFile: %w", err)
	}
	fm.data = nil
	return nil
}

//go:build windows

package diskspace

import "golang.org/x/sys/windows"

// availableSpace returns the bytes available to the calling user on the
// volume holding dir.
func availableSpace(dir string) (int64, bool) {
	path, err := windows.UTF16PtrFromString(dir)
	if err != nil {
		return 0, false
	}
	var freeBytesAvailable, totalBytes, totalFreeBytes uint64
	if err := windows.GetDiskFreeSpaceEx(path, &freeBytesAvailable, &totalBytes, &totalFreeBytes); err != nil {
		return 0, false
	}
	return int64(freeBytesAvailable), true
}

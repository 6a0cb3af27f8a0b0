package durability

import (
	"bytes"
	"os"
	"runtime"
)

// AllZero reports whether chunk is entirely zero bytes, the trigger for
// sparse-skip.
func AllZero(chunk []byte) bool {
	if len(chunk) == 0 {
		return false
	}
	return bytes.Count(chunk, []byte{0}) == len(chunk)
}

// SetSparse best-effort marks f as a sparse file at creation time on
// platforms that require an explicit attribute (NTFS via Windows APIs).
// On platforms where holes are implicit in the filesystem (the POSIX
// path Go's os.File.Seek-past-end-then-write already relies on), this
// is a no-op that reports success. Failure to set the attribute
// degrades gracefully to normal writes with a warning, never fatal.
func SetSparse(f *os.File) (ok bool, err error) {
	if f == nil {
		return false, nil
	}
	if runtime.GOOS != "windows" {
		return true, nil
	}
	// No cgo/syscall FSCTL_SET_SPARSE wiring without a Windows-specific
	// build; report non-fatal failure so the caller logs a warning and
	// continues with ordinary writes.
	return false, nil
}

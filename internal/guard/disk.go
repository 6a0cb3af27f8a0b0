// Package guard implements the pre-flight safety checks: disk-space
// pre-check and the max-times abort, both of which must fire before
// any file is opened for writing.
package guard

import (
	"errors"
	"fmt"
	"path/filepath"

	"github.com/shirou/gopsutil/v3/disk"
)

// ErrInsufficientDisk is fatal and maps to exit code 3.
var ErrInsufficientDisk = errors.New("guard: insufficient free disk space")

// Target is the minimal shape the disk guard needs from a resolved
// write target: where it lives and how many bytes it is expected to
// consume.
type Target struct {
	Path          string
	ExpectedBytes int64
}

// DiskGuard groups targets by their containing directory (see mountFor)
// and checks free space against expected usage plus a fixed margin: for
// each directory, free space must be at least the sum of expected bytes
// of its targets plus the margin. Targets in different directories on
// the same device are checked separately, not summed together.
type DiskGuard struct {
	margin int64
	statFn func(path string) (*disk.UsageStat, error)
}

// NewDiskGuard builds a guard with the given safety margin in bytes.
func NewDiskGuard(margin int64) *DiskGuard {
	return &DiskGuard{margin: margin, statFn: statMountpoint}
}

func statMountpoint(path string) (*disk.UsageStat, error) {
	return disk.Usage(path)
}

// Check computes expected bytes per grouping key (the containing
// directory) and fails the whole batch if any of them falls short. Targets with Path == "-" (stdout) are
// excluded; the disk guard is disabled entirely for stdout targets.
func (g *DiskGuard) Check(targets []Target) error {
	if g == nil {
		return nil
	}
	byDevice := map[string]int64{}
	dirFor := map[string]string{}
	for _, t := range targets {
		if t.Path == "-" {
			continue
		}
		dir := filepath.Dir(t.Path)
		mount := g.mountFor(dir)
		byDevice[mount] += t.ExpectedBytes
		dirFor[mount] = dir
	}
	for mount, expected := range byDevice {
		usage, err := g.statFn(dirFor[mount])
		if err != nil {
			return fmt.Errorf("guard: disk usage for %s: %w", dirFor[mount], err)
		}
		need := expected + g.margin
		if int64(usage.Free) < need {
			return fmt.Errorf("%w: %s needs %d bytes, has %d free", ErrInsufficientDisk, mount, need, usage.Free)
		}
	}
	return nil
}

// CheckOne re-checks a single target's directory immediately before
// opening its file.
func (g *DiskGuard) CheckOne(t Target) error {
	if g == nil || t.Path == "-" {
		return nil
	}
	return g.Check([]Target{t})
}

// mountFor resolves a path to the device-identifying key used for
// grouping. Without a dedicated mountpoint-resolution syscall wrapper,
// the containing directory itself is used as the grouping key: targets
// sharing a directory are always on the same device, which is the
// common case this guard protects (many files in one output dir).
func (g *DiskGuard) mountFor(dir string) string {
	return dir
}

package preflight

import (
	"fmt"
	"os"
	"os/exec"

	"golang.org/x/sys/unix"
)

// minFreeBytes is the free-space floor below which the disk check warns.
// A day of PNG captures at 20-second cadence runs to a few gigabytes.
const minFreeBytes = 5 << 30

// CheckDirectoryAccess verifies that the directory exists and is readable/writable.
func CheckDirectoryAccess(name, path string) Result {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: does not exist)", path)}
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", path, err)}
	}
	if !info.IsDir() {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: is not a directory)", path)}
	}
	if err := unix.Access(path, unix.R_OK|unix.W_OK|unix.X_OK); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: insufficient permissions: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (read/write ok)", path)}
}

// CheckBinary verifies that the named executable resolves on PATH (or is an
// absolute path to an executable).
func CheckBinary(name, binary string) Result {
	if binary == "" {
		return Result{Name: name, Detail: "no binary configured"}
	}
	resolved, err := exec.LookPath(binary)
	if err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s not found: %v", binary, err)}
	}
	return Result{Name: name, Passed: true, Detail: resolved}
}

// CheckDiskSpace warns when the filesystem holding path is running low.
// Low space never blocks startup; the daemon can still finish in-flight
// sessions and free space by archiving.
func CheckDiskSpace(name, path string) Result {
	var stat unix.Statfs_t
	if err := unix.Statfs(path, &stat); err != nil {
		return Result{Name: name, Warning: true, Detail: fmt.Sprintf("statfs %s: %v", path, err)}
	}
	free := stat.Bavail * uint64(stat.Bsize)
	detail := fmt.Sprintf("%s (%.1f GiB free)", path, float64(free)/float64(1<<30))
	if free < minFreeBytes {
		return Result{Name: name, Warning: true, Detail: detail + " below 5 GiB floor"}
	}
	return Result{Name: name, Passed: true, Detail: detail}
}

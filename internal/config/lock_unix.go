//go:build unix

package config

import (
	"os"

	"golang.org/x/sys/unix"
)

// lockFile blocks until an exclusive lock on f is held.
func lockFile(f *os.File) error {
	return unix.Flock(int(f.Fd()), unix.LOCK_EX)
}

func unlockFile(f *os.File) {
	unix.Flock(int(f.Fd()), unix.LOCK_UN)
}

//go:build !windows

package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/dixieflatline76/SpiceLock/config"
	"golang.org/x/sys/unix"
)

type instanceLock struct {
	file *os.File
}

// acquireLock takes an exclusive fcntl lock on path. It fails at once if
// another spicelock process holds it.
func acquireLock(path string) (*instanceLock, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create lock directory: %w", err)
	}
	file, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to open lock file: %w", err)
	}

	err = unix.FcntlFlock(file.Fd(), unix.F_SETLK, &unix.Flock_t{
		Type:   unix.F_WRLCK,
		Whence: 0,
		Start:  0,
		Len:    0, // whole file
	})
	if err != nil {
		file.Close()
		if errors.Is(err, unix.EAGAIN) || errors.Is(err, unix.EACCES) {
			return nil, fmt.Errorf("another instance of %s is already running", config.AppName)
		}
		return nil, fmt.Errorf("failed to acquire lock: %w", err)
	}
	return &instanceLock{file: file}, nil
}

// release drops the lock. Best effort.
func (l *instanceLock) release() {
	if l == nil || l.file == nil {
		return
	}
	_ = unix.FcntlFlock(l.file.Fd(), unix.F_SETLK, &unix.Flock_t{
		Type:   unix.F_UNLCK,
		Whence: 0,
		Start:  0,
		Len:    0,
	})
	l.file.Close()
}

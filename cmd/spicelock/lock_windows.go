package main

import (
	"errors"
	"fmt"
	"hash/fnv"

	"github.com/dixieflatline76/SpiceLock/config"
	"golang.org/x/sys/windows"
)

type instanceLock struct {
	handle windows.Handle
}

// acquireLock creates a named mutex derived from path. It fails at once if
// another spicelock process using the same path holds it.
func acquireLock(path string) (*instanceLock, error) {
	h := fnv.New64a()
	_, _ = h.Write([]byte(path))
	name, err := windows.UTF16PtrFromString(fmt.Sprintf(`Local\%s_%x`, config.AppName, h.Sum64()))
	if err != nil {
		return nil, err
	}

	handle, err := windows.CreateMutex(nil, false, name)
	if err != nil {
		if errors.Is(err, windows.ERROR_ALREADY_EXISTS) {
			if handle != 0 {
				windows.CloseHandle(handle)
			}
			return nil, fmt.Errorf("another instance of %s is already running", config.AppName)
		}
		return nil, fmt.Errorf("failed to acquire lock: %w", err)
	}
	return &instanceLock{handle: handle}, nil
}

// release drops the lock. Best effort.
func (l *instanceLock) release() {
	if l == nil || l.handle == 0 {
		return
	}
	_ = windows.CloseHandle(l.handle)
}

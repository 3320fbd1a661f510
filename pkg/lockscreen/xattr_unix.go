//go:build darwin || linux

package lockscreen

import (
	"fmt"

	"github.com/dixieflatline76/SpiceLock/config"
	"golang.org/x/sys/unix"
)

// QuarantineTagger marks placed files with the quarantine attribute the agent
// expects on assets it did not download itself.
type QuarantineTagger struct {
	Name  string
	Value string
}

// NewQuarantineTagger returns a tagger writing the agent's quarantine value.
func NewQuarantineTagger() QuarantineTagger {
	return QuarantineTagger{Name: config.QuarantineAttr, Value: config.QuarantineValue}
}

// Tag sets the attribute on path, replacing any existing value.
func (q QuarantineTagger) Tag(path string) error {
	if err := unix.Setxattr(path, q.Name, []byte(q.Value), 0); err != nil {
		return fmt.Errorf("set %s on %s: %w", q.Name, path, err)
	}
	return nil
}

// readTag returns the attribute value on path.
func (q QuarantineTagger) readTag(path string) (string, error) {
	buf := make([]byte, 256)
	n, err := unix.Getxattr(path, q.Name, buf)
	if err != nil {
		return "", err
	}
	return string(buf[:n]), nil
}

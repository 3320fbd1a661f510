//go:build !darwin && !linux

package lockscreen

import "github.com/dixieflatline76/SpiceLock/config"

// QuarantineTagger is a no-op on platforms without extended attributes.
type QuarantineTagger struct {
	Name  string
	Value string
}

// NewQuarantineTagger returns a tagger for the agent's quarantine value.
func NewQuarantineTagger() QuarantineTagger {
	return QuarantineTagger{Name: config.QuarantineAttr, Value: config.QuarantineValue}
}

// Tag does nothing.
func (q QuarantineTagger) Tag(string) error { return nil }

package lockscreen

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStatusString(t *testing.T) {
	assert.Equal(t, "idle", Status{State: StateIdle}.String())
	assert.Equal(t, "transcoding", Status{State: StateTranscoding, ID: "X"}.String())
	assert.Equal(t, "active(X)", Status{State: StateActive, ID: "X"}.String())
	assert.Equal(t, "active(X, degraded)", Status{State: StateActive, ID: "X", Degraded: true}.String())
	assert.Equal(t, "failed(boom)", Status{State: StateFailed, Reason: "boom"}.String())
}

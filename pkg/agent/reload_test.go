package agent

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/dixieflatline76/SpiceLock/pkg/apperr"
	"github.com/dixieflatline76/SpiceLock/pkg/execx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

type MockRunner struct {
	mock.Mock
}

func (m *MockRunner) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	ret := m.Called(name, args)
	var out []byte
	if v := ret.Get(0); v != nil {
		out = v.([]byte)
	}
	return out, ret.Error(1)
}

func TestReloadSuccess(t *testing.T) {
	runner := new(MockRunner)
	runner.On("Run", "killall", []string{"idleassetsd"}).Return(nil, nil)

	assert.NoError(t, NewReloader(runner).Reload(context.Background()))
	runner.AssertExpectations(t)
}

func TestReloadNotRunning(t *testing.T) {
	runner := new(MockRunner)
	runner.On("Run", "killall", mock.Anything).Return(nil, &execx.CommandError{
		Name:   "killall",
		Stderr: "No matching processes belonging to you were found",
		Err:    errors.New("exit status 1"),
	})

	assert.NoError(t, NewReloader(runner).Reload(context.Background()))
}

func TestReloadFailure(t *testing.T) {
	runner := new(MockRunner)
	runner.On("Run", "killall", mock.Anything).Return(nil, &execx.CommandError{
		Name:   "killall",
		Stderr: "Operation not permitted",
		Err:    errors.New("exit status 1"),
	})

	err := NewReloader(runner).Reload(context.Background())
	assert.True(t, errors.Is(err, apperr.ErrAgentReloadFailed))
	assert.Contains(t, err.Error(), "Operation not permitted")
}

func TestReloadTimeout(t *testing.T) {
	runner := new(MockRunner)
	runner.On("Run", "killall", mock.Anything).Return(nil, errors.New("signal: killed")).
		Run(func(mock.Arguments) { time.Sleep(50 * time.Millisecond) })

	r := NewReloader(runner)
	r.Timeout = 10 * time.Millisecond
	err := r.Reload(context.Background())
	assert.True(t, errors.Is(err, apperr.ErrAgentReloadFailed))
	assert.True(t, errors.Is(err, context.DeadlineExceeded))
}

func TestReloadCustomCommand(t *testing.T) {
	runner := new(MockRunner)
	runner.On("Run", "pkill", []string{"-x", "WallpaperAgent"}).Return(nil, nil)

	r := NewReloader(runner)
	r.Command = "pkill"
	r.Args = []string{"-x", "WallpaperAgent"}
	assert.NoError(t, r.Reload(context.Background()))
	runner.AssertExpectations(t)
}

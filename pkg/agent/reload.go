// Package agent tells the screen saver agent to re-read its catalog.
package agent

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/dixieflatline76/SpiceLock/config"
	"github.com/dixieflatline76/SpiceLock/pkg/apperr"
	"github.com/dixieflatline76/SpiceLock/pkg/execx"
	"github.com/dixieflatline76/SpiceLock/util/log"
)

// Reloader terminates the agent process; the OS relaunches it on demand and
// the new instance reads the current catalog.
type Reloader struct {
	Command string
	Args    []string
	Runner  execx.Runner
	Timeout time.Duration
	// NotRunning is the stderr text meaning no process matched.
	NotRunning string
}

// NewReloader returns a Reloader running `killall idleassetsd`.
func NewReloader(runner execx.Runner) *Reloader {
	if runner == nil {
		runner = execx.ExecRunner{}
	}
	return &Reloader{
		Command:    config.DefaultAgentCommand,
		Args:       []string{config.DefaultAgentProcess},
		Runner:     runner,
		Timeout:    config.DefaultReloadTimeout * time.Second,
		NotRunning: config.AgentNotRunningText,
	}
}

// Reload runs the reload command. An agent that is not running is not an
// error; any other failure is reported as AgentReloadFailed.
func (r *Reloader) Reload(ctx context.Context) error {
	if r.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.Timeout)
		defer cancel()
	}

	_, err := r.Runner.Run(ctx, r.Command, r.Args...)
	if err == nil {
		log.Printf("Agent: reloaded %s", strings.Join(r.Args, " "))
		return nil
	}

	var cmdErr *execx.CommandError
	if errors.As(err, &cmdErr) && r.NotRunning != "" && strings.Contains(cmdErr.Stderr, r.NotRunning) {
		log.Debugf("Agent: %s was not running", strings.Join(r.Args, " "))
		return nil
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return apperr.AgentReloadFailed("reload timed out", ctxErr)
	}
	return apperr.AgentReloadFailed(r.Command+" failed", err)
}

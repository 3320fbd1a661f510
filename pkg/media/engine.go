package media

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/dixieflatline76/SpiceLock/pkg/apperr"
	"github.com/dixieflatline76/SpiceLock/pkg/execx"
	"github.com/dixieflatline76/SpiceLock/pkg/fsx"
	"github.com/dixieflatline76/SpiceLock/util/log"
	"golang.org/x/sync/singleflight"
)

// Outcome describes a finished conversion.
type Outcome struct {
	Path     string // deterministic cache path
	Strategy string // name of the strategy that produced Path
	Degraded bool   // Path may not satisfy the profile
	Probe    *ProbeResult
}

// Options configures an Engine.
type Options struct {
	CacheDir   string
	FFmpegBin  string
	FFprobeBin string
	Encoder    string
	Preset     string
	Profile    Profile
	Runner     execx.Runner
	// Strategies overrides the default chain.
	Strategies []Strategy
}

// Engine converts arbitrary input video into the target profile by trying an
// ordered list of strategies.
type Engine struct {
	cacheDir   string
	profile    Profile
	prober     *Prober
	strategies []Strategy

	group   singleflight.Group
	mu      sync.Mutex
	flights map[string]*flight
	sources map[string]string // id -> source of the cached output
}

// NewEngine creates an Engine from opts, filling in defaults.
func NewEngine(opts Options) *Engine {
	if opts.Runner == nil {
		opts.Runner = execx.ExecRunner{}
	}
	if opts.FFmpegBin == "" {
		opts.FFmpegBin = "ffmpeg"
	}
	if opts.Profile.Codec == "" {
		opts.Profile = DefaultProfile
	}
	strategies := opts.Strategies
	if len(strategies) == 0 {
		strategies = DefaultStrategies(opts.FFmpegBin, opts.Encoder, opts.Preset, opts.Runner, opts.Profile)
	}
	return &Engine{
		cacheDir: opts.CacheDir,
		profile:  opts.Profile,
		prober: &Prober{
			Bin:    ResolveFFprobe(opts.FFprobeBin, opts.FFmpegBin),
			Runner: opts.Runner,
		},
		strategies: strategies,
	}
}

// CachePath returns the deterministic output location for id.
func (e *Engine) CachePath(id string) string {
	return filepath.Join(e.cacheDir, id+e.profile.Extension)
}

// Validate probes source and rejects inputs no strategy can handle.
func (e *Engine) Validate(ctx context.Context, source string) (*ProbeResult, error) {
	return e.prober.Validate(ctx, source)
}

// Convert probes source and produces CachePath(id) from it.
func (e *Engine) Convert(ctx context.Context, source, id string) (Outcome, error) {
	if err := ValidateID(id); err != nil {
		return Outcome{}, apperr.UnsupportedInput("invalid identifier", err)
	}
	probe, err := e.Validate(ctx, source)
	if err != nil {
		return Outcome{}, err
	}
	return e.ConvertProbed(ctx, probe, id)
}

// ConvertProbed produces CachePath(id) from the file described by probe, a
// result of Validate.
//
// Concurrent calls for the same id and source share one conversion. Each
// caller stops waiting when its own ctx is done; the shared conversion is
// cancelled once no caller is left. A call for a different source waits for
// the running conversion to finish before starting its own.
func (e *Engine) ConvertProbed(ctx context.Context, probe *ProbeResult, id string) (Outcome, error) {
	if err := ValidateID(id); err != nil {
		return Outcome{}, apperr.UnsupportedInput("invalid identifier", err)
	}
	if probe == nil || probe.Path == "" {
		return Outcome{}, apperr.UnsupportedInput("source was not probed", nil)
	}

	for {
		f, ch, busy := e.join(ctx, probe, id)
		if busy != nil {
			select {
			case <-busy:
				continue
			case <-ctx.Done():
				return Outcome{}, apperr.TranscodingFailed("cancelled", ctx.Err())
			}
		}

		select {
		case res := <-ch:
			e.leave(f, false)
			if res.Shared {
				log.Debugf("Engine: joined in-flight conversion for %s", id)
			}
			if res.Err != nil {
				return Outcome{}, res.Err
			}
			return res.Val.(Outcome), nil
		case <-ctx.Done():
			e.leave(f, true)
			return Outcome{}, apperr.TranscodingFailed("cancelled", ctx.Err())
		}
	}
}

// flight is a conversion in progress for one id.
type flight struct {
	source  string
	waiters int
	cancel  context.CancelFunc
	done    chan struct{}
	run     func() (interface{}, error)
}

// join attaches the caller to the conversion running for id, starting one if
// there is none. It returns a non-nil busy channel instead when the running
// conversion cannot be shared.
func (e *Engine) join(ctx context.Context, probe *ProbeResult, id string) (*flight, <-chan singleflight.Result, <-chan struct{}) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if f, ok := e.flights[id]; ok {
		if f.source != probe.Path || f.waiters == 0 {
			return nil, nil, f.done
		}
		f.waiters++
		return f, e.group.DoChan(id, f.run), nil
	}

	// the cache entry belongs to whatever source last converted under id
	prev, known := e.sources[id]
	stale := known && prev != probe.Path

	workCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	f := &flight{source: probe.Path, waiters: 1, cancel: cancel, done: make(chan struct{})}
	f.run = func() (interface{}, error) {
		if stale {
			if err := e.Evict(id); err != nil {
				log.Printf("Engine: failed to evict stale cache for %s: %v", id, err)
			}
		}
		out, err := e.convert(workCtx, probe, id)
		e.finish(id, f, err)
		return out, err
	}
	if e.flights == nil {
		e.flights = make(map[string]*flight)
		e.sources = make(map[string]string)
	}
	e.flights[id] = f
	e.group.Forget(id)
	return f, e.group.DoChan(id, f.run), nil
}

// leave detaches a caller. The last caller to give up cancels the conversion
// and waits for it to stop, so nothing is written on its behalf afterwards.
func (e *Engine) leave(f *flight, gaveUp bool) {
	e.mu.Lock()
	f.waiters--
	last := f.waiters == 0
	e.mu.Unlock()
	if gaveUp && last {
		f.cancel()
		<-f.done
	}
}

func (e *Engine) finish(id string, f *flight, err error) {
	e.mu.Lock()
	if e.flights[id] == f {
		delete(e.flights, id)
	}
	if err == nil {
		e.sources[id] = f.source
	} else {
		delete(e.sources, id)
	}
	e.mu.Unlock()
	f.cancel()
	close(f.done)
}

func (e *Engine) convert(ctx context.Context, probe *ProbeResult, id string) (Outcome, error) {
	if err := os.MkdirAll(e.cacheDir, 0755); err != nil {
		return Outcome{}, apperr.FileOperationFailed("create cache directory", err)
	}

	job := Job{
		ID:        id,
		Source:    probe.Path,
		Probe:     probe,
		CachePath: e.CachePath(id),
	}

	var lastErr error
	for _, s := range e.strategies {
		tmp, err := e.newTempPath(id)
		if err != nil {
			return Outcome{}, apperr.FileOperationFailed("create conversion temp file", err)
		}
		job.TempPath = tmp

		produced, err := s.Attempt(ctx, job)
		if err == nil {
			if produced != job.CachePath {
				if err := os.Rename(produced, job.CachePath); err != nil {
					_ = os.Remove(produced)
					return Outcome{}, apperr.FileOperationFailed("move conversion output into cache", err)
				}
			}
			_ = fsx.RemoveIfExists(tmp)

			d, ok := s.(degrader)
			degraded := ok && d.Degraded()
			if degraded {
				log.Warnf("Engine: %s used raw copy; output may not satisfy the %s profile", id, e.profile.Codec)
			} else {
				log.Printf("Engine: %s converted with %s strategy", id, s.Name())
			}
			return Outcome{Path: job.CachePath, Strategy: s.Name(), Degraded: degraded, Probe: probe}, nil
		}

		_ = fsx.RemoveIfExists(tmp)
		if ctxErr := ctx.Err(); ctxErr != nil {
			return Outcome{}, apperr.TranscodingFailed("cancelled", ctxErr)
		}
		if errors.Is(err, context.Canceled) {
			return Outcome{}, apperr.TranscodingFailed("cancelled", err)
		}
		if errors.Is(err, ErrNotApplicable) {
			log.Debugf("Engine: %s strategy skipped for %s", s.Name(), id)
			continue
		}
		log.Printf("Engine: %s strategy failed for %s: %v", s.Name(), id, err)
		lastErr = err
	}

	return Outcome{}, apperr.TranscodingFailed("all conversion strategies failed", lastErr)
}

func (e *Engine) newTempPath(id string) (string, error) {
	f, err := os.CreateTemp(e.cacheDir, "."+id+".tmp-*"+e.profile.Extension)
	if err != nil {
		return "", err
	}
	name := f.Name()
	if err := f.Close(); err != nil {
		_ = os.Remove(name)
		return "", err
	}
	return name, nil
}

// Evict removes the cached output for id. A missing entry is not an error.
func (e *Engine) Evict(id string) error {
	if err := ValidateID(id); err != nil {
		return err
	}
	e.mu.Lock()
	delete(e.sources, id)
	e.mu.Unlock()
	return fsx.RemoveIfExists(e.CachePath(id))
}

// ValidateID rejects identifiers that would escape their directory.
func ValidateID(id string) error {
	if strings.TrimSpace(id) == "" {
		return fmt.Errorf("invalid id: empty")
	}
	if strings.Contains(id, "..") || strings.ContainsAny(id, `/\`) {
		return fmt.Errorf("invalid id: contains illegal characters")
	}
	return nil
}

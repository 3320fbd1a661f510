package lockscreen

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/dixieflatline76/SpiceLock/config"
	"github.com/dixieflatline76/SpiceLock/pkg/media"
	"github.com/stretchr/testify/require"
)

const vendorCatalog = `{
  "version": 1,
  "localizationVersion": "17.0-10",
  "categories": [{"id": "8048287A", "localizedNameKey": "AerialCategoryLandscapes"}],
  "assets": [
    {
      "id": "009BA758-7060-4479-8EE8-FB9B40C8FB97",
      "accessibilityLabel": "Yosemite",
      "url-4K-SDR-240FPS": "https://sylvan.apple.com/yosemite.mov",
      "url-4K-HDR-240FPS": "https://sylvan.apple.com/yosemite-hdr.mov",
      "pointsOfInterest": {"0": "YOS_A001_0"}
    }
  ]
}`

const h264AudioProbe = `{
  "streams": [
    {"index": 0, "codec_type": "video", "codec_name": "h264", "width": 1920, "height": 1080},
    {"index": 1, "codec_type": "audio", "codec_name": "aac"}
  ],
  "format": {"duration": "30.0"}
}`

const audioOnlyProbe = `{
  "streams": [{"index": 0, "codec_type": "audio", "codec_name": "aac"}],
  "format": {"duration": "30.0"}
}`

// scriptedRunner stands in for ffprobe and ffmpeg. ffmpeg writes "hevc:" plus
// the input bytes to its output path.
type scriptedRunner struct {
	mu        sync.Mutex
	probe     string
	ffmpegErr error
	calls     [][]string
	// onFFmpeg runs before ffmpeg produces output.
	onFFmpeg func()
}

func (r *scriptedRunner) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	r.mu.Lock()
	r.calls = append(r.calls, append([]string{name}, args...))
	probe, ffmpegErr, hook := r.probe, r.ffmpegErr, r.onFFmpeg
	r.mu.Unlock()

	switch name {
	case "ffprobe":
		return []byte(probe), nil
	case "ffmpeg":
		if hook != nil {
			hook()
		}
		if ffmpegErr != nil {
			return nil, ffmpegErr
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		var src string
		for i, a := range args {
			if a == "-i" && i+1 < len(args) {
				src = args[i+1]
			}
		}
		data, err := os.ReadFile(src)
		if err != nil {
			return nil, err
		}
		return nil, os.WriteFile(args[len(args)-1], append([]byte("hevc:"), data...), 0644)
	}
	return nil, nil
}

// ffmpegCalls returns the argument lists of every ffmpeg invocation.
func (r *scriptedRunner) ffmpegCalls() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []string
	for _, c := range r.calls {
		if c[0] == "ffmpeg" {
			out = append(out, strings.Join(c[1:], " "))
		}
	}
	return out
}

// count returns how often the named tool ran.
func (r *scriptedRunner) count(name string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, c := range r.calls {
		if c[0] == name {
			n++
		}
	}
	return n
}

type fakeReloader struct {
	mu    sync.Mutex
	calls int
	err   error
}

func (f *fakeReloader) Reload(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	return f.err
}

func (f *fakeReloader) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

type fakeTagger struct {
	mu     sync.Mutex
	tagged []string
	fail   func(path string) error
}

func (f *fakeTagger) Tag(path string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail != nil {
		if err := f.fail(path); err != nil {
			return err
		}
	}
	f.tagged = append(f.tagged, path)
	return nil
}

type fakeThumbnailer struct {
	err    error
	before func()
}

func (f *fakeThumbnailer) Generate(ctx context.Context, videoPath, dst string) error {
	if f.before != nil {
		f.before()
	}
	if f.err != nil {
		return f.err
	}
	return os.WriteFile(dst, []byte("jpeg"), 0644)
}

type harness struct {
	t        *testing.T
	dir      string
	paths    config.Paths
	runner   *scriptedRunner
	reloader *fakeReloader
	tagger   *fakeTagger
	thumbs   *fakeThumbnailer
	inj      *Injector

	mu       sync.Mutex
	statuses []Status
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	dir := t.TempDir()
	paths := config.NewPaths(filepath.Join(dir, "Customer"), filepath.Join(dir, "state"))
	require.NoError(t, os.MkdirAll(filepath.Dir(paths.Manifest), 0755))
	require.NoError(t, os.WriteFile(paths.Manifest, []byte(vendorCatalog), 0644))

	h := &harness{
		t:        t,
		dir:      dir,
		paths:    paths,
		runner:   &scriptedRunner{probe: h264AudioProbe},
		reloader: &fakeReloader{},
		tagger:   &fakeTagger{},
		thumbs:   &fakeThumbnailer{},
	}
	h.inj = h.build()
	return h
}

// build creates an injector over the harness state, as a new process would.
func (h *harness) build() *Injector {
	engine := media.NewEngine(media.Options{
		CacheDir:   h.paths.CacheDir,
		FFmpegBin:  "ffmpeg",
		FFprobeBin: "ffprobe",
		Runner:     h.runner,
	})
	clock := time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)
	return New(Options{
		Paths:       h.paths,
		Converter:   engine,
		Thumbnailer: h.thumbs,
		Reloader:    h.reloader,
		Tagger:      h.tagger,
		Now: func() time.Time {
			clock = clock.Add(time.Second)
			return clock
		},
		NewID: func() string { return "GENERATED-ID" },
		OnStatus: func(s Status) {
			h.mu.Lock()
			h.statuses = append(h.statuses, s)
			h.mu.Unlock()
		},
	})
}

func (h *harness) source(name, content string) string {
	h.t.Helper()
	path := filepath.Join(h.dir, "Movies", name)
	require.NoError(h.t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(h.t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func (h *harness) states() []State {
	h.mu.Lock()
	defer h.mu.Unlock()
	var out []State
	for _, s := range h.statuses {
		out = append(out, s.State)
	}
	return out
}

// catalogIDs returns the ids in the live catalog in order.
func (h *harness) catalogIDs() []string {
	h.t.Helper()
	var doc struct {
		Assets []struct {
			ID string `json:"id"`
		} `json:"assets"`
	}
	readJSON(h.t, h.paths.Manifest, &doc)
	ids := []string{}
	for _, a := range doc.Assets {
		ids = append(ids, a.ID)
	}
	return ids
}

func (h *harness) videoPath(id string) string {
	return filepath.Join(h.paths.VideosDir, id+".mov")
}

func (h *harness) thumbPath(id string) string {
	return filepath.Join(h.paths.ThumbnailsDir, id+".jpg")
}

func readJSON(t *testing.T, path string, v interface{}) {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(data, v))
}

func writeFile(path, content string) error {
	return os.WriteFile(path, []byte(content), 0644)
}

package media

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/dixieflatline76/SpiceLock/pkg/execx"
	"github.com/dixieflatline76/SpiceLock/pkg/fsx"
	"github.com/dixieflatline76/SpiceLock/util/log"
)

// ErrNotApplicable is returned by a strategy that does not apply to the job.
// The engine moves on to the next strategy without logging a failure.
var ErrNotApplicable = errors.New("strategy not applicable")

// Job is the input handed to each strategy.
type Job struct {
	ID        string
	Source    string
	Probe     *ProbeResult
	CachePath string // final deterministic output
	TempPath  string // scratch output in the cache directory
}

// Strategy is one way of producing a target-compliant file.
// Attempt returns the path of the file it produced.
type Strategy interface {
	Name() string
	Attempt(ctx context.Context, job Job) (string, error)
}

// Strategy names, also recorded in the ledger.
const (
	StrategyCache     = "cache"
	StrategyRemux     = "remux"
	StrategyTranscode = "transcode"
	StrategyRaw       = "raw"
)

// degrader is implemented by strategies whose output may not meet the profile.
type degrader interface {
	Degraded() bool
}

// CacheStrategy returns a previously produced output for the same identifier.
type CacheStrategy struct{}

func (CacheStrategy) Name() string { return StrategyCache }

func (CacheStrategy) Attempt(_ context.Context, job Job) (string, error) {
	if fsx.Exists(job.CachePath) {
		return job.CachePath, nil
	}
	return "", ErrNotApplicable
}

// RemuxStrategy repackages an already-HEVC video track without re-encoding.
type RemuxStrategy struct {
	FFmpegBin string
	Runner    execx.Runner
	Profile   Profile
}

func (RemuxStrategy) Name() string { return StrategyRemux }

func (s RemuxStrategy) Attempt(ctx context.Context, job Job) (string, error) {
	if job.Probe == nil || !s.Profile.MatchesCodec(job.Probe.VideoCodec) {
		return "", ErrNotApplicable
	}

	args := []string{
		"-y", "-hide_banner", "-loglevel", "error",
		"-i", job.Source,
		"-map", "0:v:0",
		"-an", "-sn", "-dn",
		"-c:v", "copy",
		"-tag:v", s.Profile.CodecTag,
		"-movflags", "+faststart",
		"-f", s.Profile.Container,
		job.TempPath,
	}
	if _, err := s.Runner.Run(ctx, s.FFmpegBin, args...); err != nil {
		return "", err
	}
	return job.TempPath, nil
}

// TranscodeStrategy re-encodes the video track to the target profile.
type TranscodeStrategy struct {
	FFmpegBin string
	Runner    execx.Runner
	Profile   Profile
	Encoder   string
	Preset    string
}

func (TranscodeStrategy) Name() string { return StrategyTranscode }

func (s TranscodeStrategy) Attempt(ctx context.Context, job Job) (string, error) {
	args := []string{"-y", "-hide_banner", "-loglevel", "error", "-i", job.Source}
	args = append(args, videoOnlyComposition(job)...)
	args = append(args, s.encoderArgs()...)
	args = append(args,
		"-profile:v", s.Profile.FFProfile,
		"-pix_fmt", s.Profile.PixelFormat,
		"-vf", s.filterGraph(),
		"-tag:v", s.Profile.CodecTag,
		"-movflags", "+faststart",
		"-f", s.Profile.Container,
		job.TempPath,
	)
	if _, err := s.Runner.Run(ctx, s.FFmpegBin, args...); err != nil {
		return "", err
	}
	return job.TempPath, nil
}

// videoOnlyComposition selects the first video track. Sources with audio get
// an explicit audio drop since the target is always silent.
func videoOnlyComposition(job Job) []string {
	composition := []string{"-map", "0:v:0", "-sn", "-dn"}
	if job.Probe != nil && job.Probe.HasAudio {
		log.Debugf("Engine: stripping audio from %s", job.Source)
		composition = append(composition, "-an")
	}
	return composition
}

func (s TranscodeStrategy) encoderArgs() []string {
	encoder := s.Encoder
	if encoder == "" {
		encoder = "libx265"
	}
	switch encoder {
	case "libx265":
		preset := s.Preset
		if preset == "" {
			preset = "veryslow"
		}
		return []string{"-c:v", encoder, "-preset", preset, "-crf", "16", "-x265-params", "log-level=error"}
	case "hevc_videotoolbox":
		return []string{"-c:v", encoder, "-q:v", "80", "-allow_sw", "1"}
	default:
		return []string{"-c:v", encoder}
	}
}

func (s TranscodeStrategy) filterGraph() string {
	w := strconv.Itoa(s.Profile.MaxWidth)
	h := strconv.Itoa(s.Profile.MaxHeight)
	return fmt.Sprintf("scale=w='min(%s,iw)':h='min(%s,ih)':force_original_aspect_ratio=decrease:force_divisible_by=2,fps=%d",
		w, h, s.Profile.FrameRate)
}

// RawCopyStrategy copies the source verbatim. It only fails on I/O errors and
// its output is not guaranteed to meet the profile.
type RawCopyStrategy struct{}

func (RawCopyStrategy) Name() string { return StrategyRaw }

func (RawCopyStrategy) Degraded() bool { return true }

func (RawCopyStrategy) Attempt(ctx context.Context, job Job) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	in, err := os.Open(job.Source)
	if err != nil {
		return "", err
	}
	defer in.Close()

	out, err := os.OpenFile(job.TempPath, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0644)
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return "", err
	}
	if err := out.Sync(); err != nil {
		out.Close()
		return "", err
	}
	if err := out.Close(); err != nil {
		return "", err
	}
	return job.TempPath, nil
}

// DefaultStrategies returns cache, remux, transcode, raw in that order.
func DefaultStrategies(ffmpegBin, encoder, preset string, runner execx.Runner, profile Profile) []Strategy {
	return []Strategy{
		CacheStrategy{},
		RemuxStrategy{FFmpegBin: ffmpegBin, Runner: runner, Profile: profile},
		TranscodeStrategy{FFmpegBin: ffmpegBin, Runner: runner, Profile: profile, Encoder: encoder, Preset: preset},
		RawCopyStrategy{},
	}
}

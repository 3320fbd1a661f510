package media

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"os"
	"path/filepath"

	"github.com/disintegration/imaging"
	"github.com/dixieflatline76/SpiceLock/pkg/execx"
	"github.com/dixieflatline76/SpiceLock/pkg/fsx"
	"github.com/dixieflatline76/SpiceLock/util/log"
	"github.com/muesli/smartcrop"
)

// Preview image size used by the agent's picker.
const (
	ThumbnailWidth  = 900
	ThumbnailHeight = 580
)

// Thumbnailer renders a preview JPEG from a frame of a video.
type Thumbnailer struct {
	FFmpegBin string
	Runner    execx.Runner
	Width     int
	Height    int
	// SeekSeconds is the preferred frame offset. Clips shorter than this fall
	// back to the first frame.
	SeekSeconds float64
	resampler   imaging.ResampleFilter
}

// NewThumbnailer creates a Thumbnailer producing the agent's preview size.
func NewThumbnailer(ffmpegBin string, runner execx.Runner) *Thumbnailer {
	if runner == nil {
		runner = execx.ExecRunner{}
	}
	if ffmpegBin == "" {
		ffmpegBin = "ffmpeg"
	}
	return &Thumbnailer{
		FFmpegBin:   ffmpegBin,
		Runner:      runner,
		Width:       ThumbnailWidth,
		Height:      ThumbnailHeight,
		SeekSeconds: 1,
		resampler:   imaging.Lanczos,
	}
}

// Generate writes a Width x Height JPEG for videoPath to dst atomically.
func (t *Thumbnailer) Generate(ctx context.Context, videoPath, dst string) error {
	if err := os.MkdirAll(filepath.Dir(dst), 0755); err != nil {
		return fmt.Errorf("create thumbnail directory: %w", err)
	}

	frame, err := os.CreateTemp(filepath.Dir(dst), ".frame-*.png")
	if err != nil {
		return fmt.Errorf("create frame temp file: %w", err)
	}
	framePath := frame.Name()
	frame.Close()
	defer os.Remove(framePath)

	if err := t.extractFrame(ctx, videoPath, framePath, t.SeekSeconds); err != nil {
		log.Debugf("Thumbnailer: seek %.1fs failed for %s, retrying first frame: %v", t.SeekSeconds, videoPath, err)
		if err := t.extractFrame(ctx, videoPath, framePath, 0); err != nil {
			return fmt.Errorf("extract frame: %w", err)
		}
	}

	img, err := imaging.Open(framePath)
	if err != nil {
		return fmt.Errorf("decoding frame: %w", err)
	}

	preview, err := t.fit(img)
	if err != nil {
		return err
	}

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, preview, imaging.JPEG, imaging.JPEGQuality(90)); err != nil {
		return fmt.Errorf("encoding thumbnail: %w", err)
	}
	return fsx.WriteFile(dst, buf.Bytes())
}

func (t *Thumbnailer) extractFrame(ctx context.Context, videoPath, framePath string, seek float64) error {
	args := []string{
		"-y", "-hide_banner", "-loglevel", "error",
		"-ss", fmt.Sprintf("%.3f", seek),
		"-i", videoPath,
		"-frames:v", "1",
		"-f", "image2",
		"-c:v", "png",
		framePath,
	}
	if _, err := t.Runner.Run(ctx, t.FFmpegBin, args...); err != nil {
		return err
	}
	if !fsx.Exists(framePath) {
		return fmt.Errorf("ffmpeg produced no frame")
	}
	return nil
}

// fit crops the most interesting region of img to the preview aspect ratio
// and scales it to the preview size.
func (t *Thumbnailer) fit(img image.Image) (image.Image, error) {
	b := img.Bounds()
	if b.Dx() <= 0 || b.Dy() <= 0 {
		return nil, fmt.Errorf("frame has invalid dimensions")
	}

	analyzer := smartcrop.NewAnalyzer(&resizer{resampler: t.resampler})
	crop, err := analyzer.FindBestCrop(img, t.Width, t.Height)
	if err != nil {
		return nil, fmt.Errorf("finding best crop: %w", err)
	}
	return imaging.Resize(imaging.Crop(img, crop), t.Width, t.Height, t.resampler), nil
}

// resizer implements the smartcrop.Resizer interface.
type resizer struct {
	resampler imaging.ResampleFilter
}

func (r *resizer) Resize(img image.Image, width, height uint) image.Image {
	return imaging.Resize(img, int(width), int(height), r.resampler)
}

package media

import (
	"context"
	"errors"
	"image"
	"image/color"
	"os"
	"path/filepath"
	"testing"

	"github.com/disintegration/imaging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// writeFrame simulates ffmpeg extracting a w x h PNG frame.
func writeFrame(w, h int) func(mock.Arguments) {
	return func(args mock.Arguments) {
		a := args.Get(1).([]string)
		img := imaging.New(w, h, color.NRGBA{R: 20, G: 40, B: 80, A: 255})
		// a bright block gives the crop analyzer something to find
		img = imaging.Paste(img, imaging.New(w/4, h/4, color.NRGBA{R: 250, G: 220, B: 30, A: 255}), image.Pt(w/2, h/3))
		_ = imaging.Save(img, a[len(a)-1], imaging.PNGCompressionLevel(0))
	}
}

func TestThumbnailGenerate(t *testing.T) {
	dir := t.TempDir()
	dst := filepath.Join(dir, "snapshots", "X.jpg")

	runner := new(MockRunner)
	runner.On("Run", "ffmpeg", hasArgs("-frames:v", "1")).Return(nil, nil).Run(writeFrame(1920, 1080))

	thumb := NewThumbnailer("ffmpeg", runner)
	require.NoError(t, thumb.Generate(context.Background(), filepath.Join(dir, "X.mov"), dst))

	img, err := imaging.Open(dst)
	require.NoError(t, err)
	assert.Equal(t, ThumbnailWidth, img.Bounds().Dx())
	assert.Equal(t, ThumbnailHeight, img.Bounds().Dy())

	entries, err := os.ReadDir(filepath.Dir(dst))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "frame temp file is removed")
}

func TestThumbnailRetriesFirstFrame(t *testing.T) {
	dir := t.TempDir()
	dst := filepath.Join(dir, "X.jpg")

	runner := new(MockRunner)
	runner.On("Run", "ffmpeg", hasArgs("-ss", "1.000")).Return(nil, errors.New("seek past end")).Once()
	runner.On("Run", "ffmpeg", hasArgs("-ss", "0.000")).Return(nil, nil).Run(writeFrame(640, 480)).Once()

	thumb := NewThumbnailer("ffmpeg", runner)
	require.NoError(t, thumb.Generate(context.Background(), filepath.Join(dir, "X.mov"), dst))
	runner.AssertExpectations(t)
	assert.FileExists(t, dst)
}

func TestThumbnailFailure(t *testing.T) {
	dir := t.TempDir()
	dst := filepath.Join(dir, "X.jpg")

	runner := new(MockRunner)
	runner.On("Run", "ffmpeg", mock.Anything).Return(nil, errors.New("no decoder"))

	thumb := NewThumbnailer("ffmpeg", runner)
	assert.Error(t, thumb.Generate(context.Background(), filepath.Join(dir, "X.mov"), dst))
	assert.NoFileExists(t, dst)
}

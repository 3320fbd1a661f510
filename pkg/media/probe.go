package media

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/dixieflatline76/SpiceLock/pkg/apperr"
	"github.com/dixieflatline76/SpiceLock/pkg/execx"
)

// Stream is one track reported by ffprobe.
type Stream struct {
	Index        int    `json:"index"`
	CodecType    string `json:"codec_type"`
	CodecName    string `json:"codec_name"`
	Profile      string `json:"profile"`
	PixelFormat  string `json:"pix_fmt"`
	Width        int    `json:"width"`
	Height       int    `json:"height"`
	AvgFrameRate string `json:"avg_frame_rate"`
}

type probeOutput struct {
	Streams []Stream `json:"streams"`
	Format  struct {
		FormatName string `json:"format_name"`
		Duration   string `json:"duration"`
	} `json:"format"`
}

// ProbeResult summarises a source file.
type ProbeResult struct {
	Path       string // the probed file
	Streams    []Stream
	Format     string
	Duration   float64
	VideoCodec string // codec of the first video track
	HasVideo   bool
	HasAudio   bool
}

// Prober inspects media files with ffprobe.
type Prober struct {
	Bin    string
	Runner execx.Runner
}

// Probe runs ffprobe on path and parses its JSON report.
func (p *Prober) Probe(ctx context.Context, path string) (*ProbeResult, error) {
	args := []string{
		"-v", "error",
		"-show_streams",
		"-show_format",
		"-of", "json",
		path,
	}
	out, err := p.Runner.Run(ctx, p.bin(), args...)
	if err != nil {
		return nil, err
	}
	res, err := parseProbe(out)
	if err != nil {
		return nil, err
	}
	res.Path = path
	return res, nil
}

func (p *Prober) bin() string {
	if p.Bin == "" {
		return "ffprobe"
	}
	return p.Bin
}

func parseProbe(data []byte) (*ProbeResult, error) {
	var raw probeOutput
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("decoding ffprobe JSON: %w", err)
	}

	res := &ProbeResult{Streams: raw.Streams, Format: raw.Format.FormatName}
	if d, err := strconv.ParseFloat(strings.TrimSpace(raw.Format.Duration), 64); err == nil {
		res.Duration = d
	}
	for _, s := range raw.Streams {
		switch s.CodecType {
		case "video":
			// cover art is reported as a single-frame video stream
			if s.CodecName == "mjpeg" || s.CodecName == "png" {
				continue
			}
			if !res.HasVideo {
				res.HasVideo = true
				res.VideoCodec = strings.ToLower(s.CodecName)
			}
		case "audio":
			res.HasAudio = true
		}
	}
	return res, nil
}

// Validate fails fast on inputs no strategy can handle: missing, empty,
// undecodable or without a video track.
func (p *Prober) Validate(ctx context.Context, path string) (*ProbeResult, error) {
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, apperr.AssetNotFound(path)
		}
		return nil, apperr.UnsupportedInput("cannot stat source", err)
	}
	if info.IsDir() {
		return nil, apperr.UnsupportedInput("source is a directory", nil)
	}
	if info.Size() == 0 {
		return nil, apperr.UnsupportedInput("source is empty", nil)
	}

	res, err := p.Probe(ctx, path)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, apperr.TranscodingFailed("cancelled", ctxErr)
		}
		return nil, apperr.UnsupportedInput("source is not decodable", err)
	}
	if !res.HasVideo {
		return nil, apperr.UnsupportedInput("source has no video track", nil)
	}
	return res, nil
}

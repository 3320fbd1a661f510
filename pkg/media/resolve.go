package media

import (
	"os"
	"path/filepath"
	"strings"
)

// ResolveFFprobe returns the ffprobe binary to use.
//
// Resolution order:
// 1) explicit ffprobeBin
// 2) sibling of a concrete ffmpeg path (.../ffmpeg -> .../ffprobe) if it exists
// 3) "ffprobe", resolved through PATH
func ResolveFFprobe(ffprobeBin, ffmpegBin string) string {
	return resolveFFprobeWithStat(ffprobeBin, ffmpegBin, os.Stat)
}

func resolveFFprobeWithStat(ffprobeBin, ffmpegBin string, stat func(string) (os.FileInfo, error)) string {
	if ffprobeBin = strings.TrimSpace(ffprobeBin); ffprobeBin != "" {
		return ffprobeBin
	}

	ffmpegBin = strings.TrimSpace(ffmpegBin)
	if !strings.ContainsRune(ffmpegBin, '/') || filepath.Base(ffmpegBin) != "ffmpeg" {
		return "ffprobe"
	}

	candidate := filepath.Join(filepath.Dir(ffmpegBin), "ffprobe")
	if fi, err := stat(candidate); err == nil && fi != nil && !fi.IsDir() {
		return candidate
	}
	return "ffprobe"
}

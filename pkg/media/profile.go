package media

import "strings"

// Profile describes the video format the lock screen agent accepts.
type Profile struct {
	Codec       string   // family name as reported by ffprobe
	CodecTag    string   // QuickTime sample entry
	Aliases     []string // other names ffprobe may report for the family
	FFProfile   string   // encoder profile
	PixelFormat string   // 10-bit 4:2:0
	MaxWidth    int
	MaxHeight   int
	FrameRate   int
	Container   string
	Extension   string
}

// DefaultProfile is HEVC Main10 at 240 fps, at most 4K, silent, in a .mov.
var DefaultProfile = Profile{
	Codec:       "hevc",
	CodecTag:    "hvc1",
	Aliases:     []string{"h265", "hvc1", "hev1"},
	FFProfile:   "main10",
	PixelFormat: "yuv420p10le",
	MaxWidth:    3840,
	MaxHeight:   2160,
	FrameRate:   240,
	Container:   "mov",
	Extension:   ".mov",
}

// MatchesCodec reports whether codec belongs to the profile's codec family.
func (p Profile) MatchesCodec(codec string) bool {
	codec = strings.ToLower(strings.TrimSpace(codec))
	if codec == "" {
		return false
	}
	if codec == p.Codec {
		return true
	}
	for _, alias := range p.Aliases {
		if codec == alias {
			return true
		}
	}
	return false
}

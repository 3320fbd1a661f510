package media

import (
	"context"
	"os"

	"github.com/stretchr/testify/mock"
)

// MockRunner is a mock implementation of execx.Runner.
type MockRunner struct {
	mock.Mock
}

func (m *MockRunner) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	ret := m.Called(name, args)
	var out []byte
	if b, ok := ret.Get(0).([]byte); ok {
		out = b
	}
	return out, ret.Error(1)
}

// writeLastArg simulates ffmpeg writing its output file.
func writeLastArg(payload []byte) func(mock.Arguments) {
	return func(args mock.Arguments) {
		a := args.Get(1).([]string)
		_ = os.WriteFile(a[len(a)-1], payload, 0644)
	}
}

func hasArgs(want ...string) interface{} {
	return mock.MatchedBy(func(args []string) bool {
		for i := 0; i+len(want) <= len(args); i++ {
			match := true
			for j := range want {
				if args[i+j] != want[j] {
					match = false
					break
				}
			}
			if match {
				return true
			}
		}
		return false
	})
}

func notHasArgs(want ...string) interface{} {
	return mock.MatchedBy(func(args []string) bool {
		for _, a := range args {
			for _, w := range want {
				if a == w {
					return false
				}
			}
		}
		return true
	})
}

const hevcProbe = `{
  "streams": [
    {"index": 0, "codec_type": "video", "codec_name": "hevc", "profile": "Main 10", "pix_fmt": "yuv420p10le", "width": 3840, "height": 2160, "avg_frame_rate": "240/1"}
  ],
  "format": {"format_name": "mov,mp4,m4a,3gp,3g2,mj2", "duration": "12.5"}
}`

const h264AudioProbe = `{
  "streams": [
    {"index": 0, "codec_type": "video", "codec_name": "h264", "pix_fmt": "yuv420p", "width": 1920, "height": 1080, "avg_frame_rate": "30/1"},
    {"index": 1, "codec_type": "audio", "codec_name": "aac"}
  ],
  "format": {"format_name": "mov,mp4,m4a,3gp,3g2,mj2", "duration": "30.0"}
}`

const audioOnlyProbe = `{
  "streams": [
    {"index": 0, "codec_type": "audio", "codec_name": "aac"},
    {"index": 1, "codec_type": "video", "codec_name": "mjpeg", "width": 600, "height": 600}
  ],
  "format": {"format_name": "mov,mp4,m4a,3gp,3g2,mj2", "duration": "180.0"}
}`

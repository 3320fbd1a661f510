package config

import (
	"strings"

	"fyne.io/fyne/v2"
)

// Preference keys.
const (
	FFmpegBinKey     = "ffmpeg_bin"
	FFprobeBinKey    = "ffprobe_bin"
	VideoEncoderKey  = "video_encoder"
	EncoderPresetKey = "encoder_preset"
	CustomerDirKey   = "customer_dir"
	StateDirKey      = "state_dir"
	AgentCommandKey  = "agent_command"
	AgentProcessKey  = "agent_process"
	ReloadTimeoutKey = "agent_reload_timeout_seconds"
)

// Defaults for the conversion toolchain.
const (
	DefaultFFmpegBin     = "ffmpeg"
	DefaultVideoEncoder  = "libx265"
	DefaultEncoderPreset = "veryslow"
	DefaultReloadTimeout = 10
)

// AppConfig holds the persisted settings of the injection subsystem.
type AppConfig struct {
	prefs fyne.Preferences
}

// NewAppConfig creates a new AppConfig instance
func NewAppConfig(p fyne.Preferences) *AppConfig {
	return &AppConfig{prefs: p}
}

// GetFFmpegBin returns the ffmpeg binary, a bare name resolves through PATH.
func (c *AppConfig) GetFFmpegBin() string {
	return c.stringOr(FFmpegBinKey, DefaultFFmpegBin)
}

// SetFFmpegBin sets the ffmpeg binary.
func (c *AppConfig) SetFFmpegBin(bin string) {
	c.prefs.SetString(FFmpegBinKey, strings.TrimSpace(bin))
}

// GetFFprobeBin returns the explicitly configured ffprobe binary, or "".
func (c *AppConfig) GetFFprobeBin() string {
	return strings.TrimSpace(c.prefs.StringWithFallback(FFprobeBinKey, ""))
}

// SetFFprobeBin sets the ffprobe binary.
func (c *AppConfig) SetFFprobeBin(bin string) {
	c.prefs.SetString(FFprobeBinKey, strings.TrimSpace(bin))
}

// GetVideoEncoder returns the ffmpeg HEVC encoder name.
func (c *AppConfig) GetVideoEncoder() string {
	return c.stringOr(VideoEncoderKey, DefaultVideoEncoder)
}

// SetVideoEncoder sets the ffmpeg HEVC encoder name, e.g. hevc_videotoolbox.
func (c *AppConfig) SetVideoEncoder(encoder string) {
	c.prefs.SetString(VideoEncoderKey, strings.TrimSpace(encoder))
}

// GetEncoderPreset returns the encoder preset used for full transcodes.
func (c *AppConfig) GetEncoderPreset() string {
	return c.stringOr(EncoderPresetKey, DefaultEncoderPreset)
}

// SetEncoderPreset sets the encoder preset.
func (c *AppConfig) SetEncoderPreset(preset string) {
	c.prefs.SetString(EncoderPresetKey, strings.TrimSpace(preset))
}

// GetAgentCommand returns the command and argument used to reload the agent.
func (c *AppConfig) GetAgentCommand() (string, []string) {
	return c.stringOr(AgentCommandKey, DefaultAgentCommand), []string{c.stringOr(AgentProcessKey, DefaultAgentProcess)}
}

// SetAgentProcess sets the process name signalled on reload.
func (c *AppConfig) SetAgentProcess(name string) {
	c.prefs.SetString(AgentProcessKey, strings.TrimSpace(name))
}

// GetReloadTimeoutSeconds bounds the agent reload command.
func (c *AppConfig) GetReloadTimeoutSeconds() int {
	v := c.prefs.IntWithFallback(ReloadTimeoutKey, DefaultReloadTimeout)
	if v <= 0 {
		return DefaultReloadTimeout
	}
	return v
}

// SetReloadTimeoutSeconds sets the agent reload timeout.
func (c *AppConfig) SetReloadTimeoutSeconds(seconds int) {
	c.prefs.SetInt(ReloadTimeoutKey, seconds)
}

// SetCustomerDir overrides the vendor customer directory.
func (c *AppConfig) SetCustomerDir(dir string) {
	c.prefs.SetString(CustomerDirKey, strings.TrimSpace(dir))
}

// SetStateDir overrides the private state directory.
func (c *AppConfig) SetStateDir(dir string) {
	c.prefs.SetString(StateDirKey, strings.TrimSpace(dir))
}

// GetPaths returns the filesystem layout, honouring directory overrides.
func (c *AppConfig) GetPaths() (Paths, error) {
	return c.ResolvePaths("", "")
}

// ResolvePaths is GetPaths with per-invocation overrides. Empty arguments
// fall back to the stored settings, then to the defaults.
func (c *AppConfig) ResolvePaths(customerDir, stateDir string) (Paths, error) {
	if customerDir = strings.TrimSpace(customerDir); customerDir == "" {
		customerDir = c.stringOr(CustomerDirKey, DefaultCustomerDir)
	}
	if stateDir = strings.TrimSpace(stateDir); stateDir == "" {
		stateDir = c.stringOr(StateDirKey, "")
	}
	if stateDir == "" {
		var err error
		stateDir, err = DefaultStateDir()
		if err != nil {
			return Paths{}, err
		}
	}
	return NewPaths(customerDir, stateDir), nil
}

func (c *AppConfig) stringOr(key, fallback string) string {
	v := strings.TrimSpace(c.prefs.StringWithFallback(key, fallback))
	if v == "" {
		return fallback
	}
	return v
}

package main

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/dixieflatline76/SpiceLock/config"
	"github.com/spf13/cobra"
)

// settingSetters maps user facing setting names to their setters.
var settingSetters = map[string]func(c *config.AppConfig, v string) error{
	"ffmpeg":       func(c *config.AppConfig, v string) error { c.SetFFmpegBin(v); return nil },
	"ffprobe":      func(c *config.AppConfig, v string) error { c.SetFFprobeBin(v); return nil },
	"encoder":      func(c *config.AppConfig, v string) error { c.SetVideoEncoder(v); return nil },
	"preset":       func(c *config.AppConfig, v string) error { c.SetEncoderPreset(v); return nil },
	"customer-dir": func(c *config.AppConfig, v string) error { c.SetCustomerDir(v); return nil },
	"state-dir":    func(c *config.AppConfig, v string) error { c.SetStateDir(v); return nil },
	"agent-process": func(c *config.AppConfig, v string) error {
		c.SetAgentProcess(v)
		return nil
	},
	"reload-timeout": func(c *config.AppConfig, v string) error {
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil || n <= 0 {
			return fmt.Errorf("reload-timeout must be a positive number of seconds")
		}
		c.SetReloadTimeoutSeconds(n)
		return nil
	},
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show or change persisted settings",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective settings",
	Args:  cobra.NoArgs,
	RunE: func(*cobra.Command, []string) error {
		c := loadSettings()
		paths, err := c.ResolvePaths(customerDir, stateDir)
		if err != nil {
			return err
		}
		cmd, args := c.GetAgentCommand()
		fmt.Printf("ffmpeg:          %s\n", c.GetFFmpegBin())
		fmt.Printf("ffprobe:         %s\n", orDefault(c.GetFFprobeBin(), "(derived from ffmpeg)"))
		fmt.Printf("encoder:         %s\n", c.GetVideoEncoder())
		fmt.Printf("preset:          %s\n", c.GetEncoderPreset())
		fmt.Printf("agent command:   %s %s\n", cmd, strings.Join(args, " "))
		fmt.Printf("reload timeout:  %ds\n", c.GetReloadTimeoutSeconds())
		fmt.Printf("catalog:         %s\n", paths.Manifest)
		fmt.Printf("videos:          %s\n", paths.VideosDir)
		fmt.Printf("cache:           %s\n", paths.CacheDir)
		fmt.Printf("ledger:          %s\n", paths.Ledger)
		return nil
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set <name> <value>",
	Short: "Change a setting",
	Long:  "Change a setting. Names: " + strings.Join(settingNames(), ", "),
	Args:  cobra.ExactArgs(2),
	RunE: func(_ *cobra.Command, args []string) error {
		set, ok := settingSetters[args[0]]
		if !ok {
			return fmt.Errorf("unknown setting %q, expected one of %s", args[0], strings.Join(settingNames(), ", "))
		}
		return set(loadSettings(), args[1])
	},
}

func init() {
	configCmd.AddCommand(configShowCmd, configSetCmd)
}

func settingNames() []string {
	names := make([]string, 0, len(settingSetters))
	for k := range settingSetters {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

func orDefault(v, fallback string) string {
	if v == "" {
		return fallback
	}
	return v
}

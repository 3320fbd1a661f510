// Command spicelock injects videos into the macOS lock screen and screen
// saver catalog.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"fyne.io/fyne/v2/app"
	"github.com/dixieflatline76/SpiceLock/config"
	"github.com/dixieflatline76/SpiceLock/pkg/agent"
	"github.com/dixieflatline76/SpiceLock/pkg/catalog"
	"github.com/dixieflatline76/SpiceLock/pkg/execx"
	"github.com/dixieflatline76/SpiceLock/pkg/lockscreen"
	"github.com/dixieflatline76/SpiceLock/pkg/media"
	"github.com/dixieflatline76/SpiceLock/util/log"
	"github.com/spf13/cobra"
)

// flags shared by every subcommand
var (
	customerDir string
	stateDir    string
	ffmpegBin   string
	encoder     string
)

var rootCmd = &cobra.Command{
	Use:           "spicelock",
	Short:         "Put your own videos on the lock screen",
	Long:          "spicelock converts videos to the screen saver's format, registers them in the idle assets catalog and can remove them or restore the original catalog at any time.",
	Version:       config.AppVersion,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&customerDir, "customer-dir", "", "idle assets customer directory (default from settings)")
	rootCmd.PersistentFlags().StringVar(&stateDir, "state-dir", "", "directory for the conversion cache and injection ledger (default ~/.spicelock)")
	rootCmd.PersistentFlags().StringVar(&ffmpegBin, "ffmpeg", "", "ffmpeg binary (default from settings)")
	rootCmd.PersistentFlags().StringVar(&encoder, "encoder", "", "HEVC encoder, e.g. libx265 or hevc_videotoolbox (default from settings)")

	rootCmd.AddCommand(injectCmd, removeCmd, removeAllCmd, restoreCmd, listCmd, statusCmd, reconcileCmd, watchCmd, configCmd)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

// loadSettings opens the persisted preference store.
func loadSettings() *config.AppConfig {
	a := app.NewWithID(config.AppID)
	return config.NewAppConfig(a.Preferences())
}

// session is everything a subcommand needs.
type session struct {
	settings *config.AppConfig
	paths    config.Paths
	store    *catalog.Store
	injector *lockscreen.Injector
}

func newSession(settings *config.AppConfig, paths config.Paths) *session {
	bin := settings.GetFFmpegBin()
	if ffmpegBin != "" {
		bin = ffmpegBin
	}
	enc := settings.GetVideoEncoder()
	if encoder != "" {
		enc = encoder
	}

	runner := execx.ExecRunner{}
	engine := media.NewEngine(media.Options{
		CacheDir:   paths.CacheDir,
		FFmpegBin:  bin,
		FFprobeBin: settings.GetFFprobeBin(),
		Encoder:    enc,
		Preset:     settings.GetEncoderPreset(),
		Runner:     runner,
	})

	reloader := agent.NewReloader(runner)
	reloader.Command, reloader.Args = settings.GetAgentCommand()
	reloader.Timeout = time.Duration(settings.GetReloadTimeoutSeconds()) * time.Second

	store := catalog.NewStore(catalog.Options{
		Manifest:  paths.Manifest,
		Backup:    paths.Backup,
		URLPrefix: catalog.DirURLPrefix(paths.VideosDir),
	})

	injector := lockscreen.New(lockscreen.Options{
		Paths:       paths,
		Converter:   engine,
		Thumbnailer: media.NewThumbnailer(bin, runner),
		Catalog:     store,
		Reloader:    reloader,
		Tagger:      lockscreen.NewQuarantineTagger(),
		OnStatus: func(s lockscreen.Status) {
			log.Debugf("Status: %s", s)
		},
	})

	return &session{settings: settings, paths: paths, store: store, injector: injector}
}

// withSession runs fn holding the single-instance lock, so two processes never
// rewrite the catalog at the same time.
func withSession(fn func(ctx context.Context, s *session, args []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		settings := loadSettings()
		paths, err := settings.ResolvePaths(customerDir, stateDir)
		if err != nil {
			return err
		}
		lock, err := acquireLock(paths.Ledger + ".lock")
		if err != nil {
			return err
		}
		defer lock.release()
		return fn(cmd.Context(), newSession(settings, paths), args)
	}
}

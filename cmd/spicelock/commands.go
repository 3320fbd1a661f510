package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/dixieflatline76/SpiceLock/pkg/catalog"
	"github.com/dixieflatline76/SpiceLock/pkg/execx"
	"github.com/dixieflatline76/SpiceLock/pkg/sysinfo"
	"github.com/dixieflatline76/SpiceLock/util/log"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
)

var (
	injectName  string
	injectID    string
	adopt       bool
	metricsAddr string
)

var injectCmd = &cobra.Command{
	Use:   "inject <video>",
	Short: "Convert a video and add it to the lock screen catalog",
	Args:  cobra.ExactArgs(1),
	RunE: withSession(func(ctx context.Context, s *session, args []string) error {
		id, err := s.injector.Inject(ctx, args[0], injectName, injectID)
		if err != nil {
			return err
		}
		st := s.injector.Status()
		if st.Degraded {
			fmt.Printf("Injected %s (degraded: the video could not be converted and may not play)\n", id)
			return nil
		}
		fmt.Printf("Injected %s\n", id)
		return nil
	}),
}

var removeCmd = &cobra.Command{
	Use:   "remove <id>...",
	Short: "Remove injected videos",
	Args:  cobra.MinimumNArgs(1),
	RunE: withSession(func(ctx context.Context, s *session, args []string) error {
		var errs []error
		for _, id := range args {
			if err := s.injector.RemoveInjection(ctx, id); err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", id, err))
				continue
			}
			fmt.Printf("Removed %s\n", id)
		}
		return errors.Join(errs...)
	}),
}

var removeAllCmd = &cobra.Command{
	Use:   "remove-all",
	Short: "Remove every injected video",
	Args:  cobra.NoArgs,
	RunE: withSession(func(ctx context.Context, s *session, _ []string) error {
		n := len(s.injector.Injections())
		if err := s.injector.RemoveAllInjections(ctx); err != nil {
			return err
		}
		fmt.Printf("Removed %d injections\n", n)
		return nil
	}),
}

var restoreCmd = &cobra.Command{
	Use:   "restore",
	Short: "Restore the catalog as it was before the first injection",
	Args:  cobra.NoArgs,
	RunE: withSession(func(ctx context.Context, s *session, _ []string) error {
		if err := s.injector.RestoreOriginalManifest(ctx); err != nil {
			return err
		}
		fmt.Println("Original catalog restored")
		return nil
	}),
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List injected videos",
	Args:  cobra.NoArgs,
	RunE: withSession(func(_ context.Context, s *session, _ []string) error {
		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tNAME\tSTRATEGY\tINJECTED\tSOURCE")
		for _, r := range s.injector.Injections() {
			strategy := r.Strategy
			if r.Degraded {
				strategy += " (degraded)"
			}
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", r.ID, r.DisplayName, strategy, r.InjectedAt.Local().Format(time.DateTime), r.SourcePath)
		}
		return w.Flush()
	}),
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show catalog, backup and ledger state",
	Args:  cobra.NoArgs,
	RunE: withSession(func(ctx context.Context, s *session, _ []string) error {
		count, err := s.store.Count()
		if err != nil {
			return err
		}
		report, err := s.injector.Reconcile(ctx)
		if err != nil {
			return err
		}
		if v, err := sysinfo.GetOSVersion(ctx, execx.ExecRunner{}); err == nil {
			fmt.Printf("macOS:      %s (lock screen assets: %s)\n", v, yesNo(v.SupportsLockScreen()))
		} else {
			log.Debugf("Status: %v", err)
		}
		fmt.Printf("Catalog:    %s (%d assets)\n", s.paths.Manifest, count)
		fmt.Printf("Backup:     %s\n", yesNo(s.store.HasBackup()))
		fmt.Printf("Injections: %d\n", len(s.injector.Injections()))
		fmt.Printf("In sync:    %s\n", yesNo(report.InSync()))
		return nil
	}),
}

var reconcileCmd = &cobra.Command{
	Use:   "reconcile",
	Short: "Compare the ledger with the catalog",
	Args:  cobra.NoArgs,
	RunE: withSession(func(ctx context.Context, s *session, _ []string) error {
		report, err := s.injector.Reconcile(ctx)
		if err != nil {
			return err
		}
		printReport(report.Consistent, report.Orphaned, report.Missing)
		if !adopt || len(report.Orphaned) == 0 {
			return nil
		}
		adopted, err := s.injector.Adopt(ctx)
		if err != nil {
			return err
		}
		fmt.Printf("Adopted: %s\n", strings.Join(adopted, ", "))
		return nil
	}),
}

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Watch the catalog for outside changes and report drift",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		settings := loadSettings()
		paths, err := settings.ResolvePaths(customerDir, stateDir)
		if err != nil {
			return err
		}
		s := newSession(settings, paths)
		ctx := cmd.Context()

		if metricsAddr != "" {
			srv := &http.Server{Addr: metricsAddr, Handler: promhttp.Handler(), ReadHeaderTimeout: 5 * time.Second}
			go func() {
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					log.Printf("Watch: metrics server failed: %v", err)
				}
			}()
			defer srv.Close()
		}

		changes, err := catalog.NewWatcher(paths.Manifest).Watch(ctx)
		if err != nil {
			return err
		}
		for c := range changes {
			if c.Removed {
				log.Printf("Watch: %s was removed", c.Path)
				continue
			}
			report, err := s.injector.Reconcile(ctx)
			if err != nil {
				log.Printf("Watch: reconcile failed: %v", err)
				continue
			}
			if !report.InSync() {
				printReport(report.Consistent, report.Orphaned, report.Missing)
			}
		}
		return nil
	},
}

func init() {
	injectCmd.Flags().StringVar(&injectName, "name", "", "display name (default: file name)")
	injectCmd.Flags().StringVar(&injectID, "id", "", "identifier to reuse, replacing an earlier injection")
	reconcileCmd.Flags().BoolVar(&adopt, "adopt", false, "record orphaned catalog entries so remove-all cleans them up")
	watchCmd.Flags().StringVar(&metricsAddr, "metrics-addr", "", "serve Prometheus metrics on this address")
}

func printReport(consistent, orphaned, missing []string) {
	fmt.Printf("Consistent: %d\n", len(consistent))
	for _, id := range orphaned {
		fmt.Printf("Orphaned:   %s (in catalog, not in ledger)\n", id)
	}
	for _, id := range missing {
		fmt.Printf("Missing:    %s (in ledger, not in catalog)\n", id)
	}
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

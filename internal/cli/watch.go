package cli

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/scorebox-project/scorebox/internal/lock"
	"github.com/scorebox-project/scorebox/internal/service"
	"github.com/scorebox-project/scorebox/pkg/model"
)

var watchInterval string

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Re-score on an interval until interrupted",
	Long: `Re-score on an interval until interrupted.

Runs one cycle immediately, then again every check interval. At most one
cycle runs at a time. A failed cycle keeps the previous report as the
last known good result.

The interval comes from config.yaml (check_interval) unless overridden
with --interval.`,
	Run: func(cmd *cobra.Command, args []string) {
		st := requireStore()
		cfg := loadConfig()
		log := newLogger(cfg)

		interval := cfg.CheckInterval()
		if watchInterval != "" {
			d, err := time.ParseDuration(watchInterval)
			if err != nil || d <= 0 {
				fmtErr("invalid --interval %q", watchInterval)
				os.Exit(1)
			}
			interval = d
		}

		lm := lock.NewManager(stateDir())
		lease, err := lm.Acquire("watch")
		if err != nil {
			fmtErr("watch: %v", err)
			os.Exit(1)
		}
		defer lm.Release(lease.HolderNonce)

		checker := buildChecker(cfg, st, log)
		runner := service.NewRunner(checker.RunCycle, interval, log)
		runner.SetObserver(func(report *model.Report, err error) {
			if err != nil {
				fmtErr("cycle failed: %v", err)
				return
			}
			if jsonOutput {
				outputJSON(report)
				return
			}
			fmt.Printf("--- %s ---\n", time.Now().Format(time.RFC3339))
			renderReport(report)
		})

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		// Long-running watches renew the lease so a crash, not a long
		// session, is what frees the lock for stealing.
		go func() {
			ticker := time.NewTicker(lock.DefaultLeaseTTL / 2)
			defer ticker.Stop()
			for {
				select {
				case <-ctx.Done():
					return
				case <-ticker.C:
					if _, err := lm.Renew(lease.HolderNonce); err != nil {
						log.Warn("lease renewal failed", map[string]any{"error": err.Error()})
					}
				}
			}
		}()

		if !jsonOutput {
			fmt.Printf("Watching every %s. Press Ctrl-C to stop.\n", interval)
		}
		runner.Run(ctx)
	},
}

func init() {
	watchCmd.Flags().StringVar(&watchInterval, "interval", "", "override the check interval (e.g. 30s, 2m)")
	rootCmd.AddCommand(watchCmd)
}

package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/donaldgifford/bookwatch/internal/watch"
	"github.com/donaldgifford/bookwatch/pkg/logger"
)

func watchCmd() *cobra.Command {
	var uid string

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Watch one user's followed books without the API",
		Long: "Run a single watch session against the configured store and deliver\n" +
			"notifications until interrupted. The feed is printed on exit.",
		Example: `  bookwatch watch --uid 3f7c9e2a
  bookwatch watch --uid 3f7c9e2a --output json`,
		RunE: func(_ *cobra.Command, _ []string) error {
			if uid == "" {
				return errors.New("--uid is required")
			}
			return runWatch(uid)
		},
	}

	cmd.Flags().StringVar(&uid, "uid", "", "user id whose followed books to watch")

	return cmd
}

func runWatch(uid string) error {
	cfg, log, err := loadConfig()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	st, err := openStore(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer st.Close()

	backend, err := newBackend(&cfg.Notifications, log)
	if err != nil {
		return err
	}
	scheduler := newScheduler(cfg, backend, log)

	watchLog := logger.Component(log, "watch")
	session := watch.NewSession(uid,
		watch.NewAdapter(st, watchLog),
		newNotifier(cfg, scheduler, log),
		watch.WithSessionLogger(watchLog),
		watch.WithPruneStale(cfg.Watch.PruneStale),
	)
	if err := session.Start(ctx); err != nil {
		return fmt.Errorf("starting watch session: %w", err)
	}

	<-ctx.Done()
	session.Stop()

	sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := scheduler.Close(sctx); err != nil {
		log.Warn("pending notifications dropped", "error", err)
	}

	entries := session.Feed().Entries()
	if jsonOutput() {
		return outputJSON(entries)
	}
	if len(entries) == 0 {
		fmt.Println("No price changes observed.")
		return nil
	}
	return printEntriesTable(entries)
}

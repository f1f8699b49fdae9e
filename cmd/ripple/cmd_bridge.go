package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/Tap30/ripple-ui-go/internal/bridge"
	"github.com/Tap30/ripple-ui-go/internal/config"
)

var bridgeCmd = &cobra.Command{
	Use:   "bridge",
	Short: "Accept SDK events over HTTP and relay them to NATS",
	Long: `Runs the collector the SDK posts to. Every accepted event is published on
the configured NATS subject, kept in the recent-events window and pushed to
connected viewers.

Without a NATS URL events are logged instead of published. With an archive
path the recent-events window is kept in a SQLite file.`,
	RunE: runBridge,
}

func init() {
	bridgeCmd.Flags().String("listen", "", "Address to listen on (overrides config)")
	bridgeCmd.Flags().String("nats-url", "", "NATS server URL (overrides config)")
	bridgeCmd.Flags().String("subject", "", "NATS subject to publish on (overrides config)")
	bridgeCmd.Flags().String("archive", "", "SQLite archive path (overrides config)")
}

func runBridge(cmd *cobra.Command, args []string) error {
	bc := bridgeConfig(cmd, cfg.Bridge)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	publisher, err := openPublisher(bc)
	if err != nil {
		return err
	}
	store, err := openStore(bc)
	if err != nil {
		_ = publisher.Close()
		return err
	}

	server := bridge.NewServer(bridge.Options{
		Listen:          bc.Listen,
		Subject:         bc.Subject,
		AllowOrigin:     bc.AllowOrigin,
		RecentLimit:     bc.RecentLimit,
		ShutdownTimeout: bc.ShutdownTimeoutDuration(),
	}, publisher, store, logger)

	err = server.Run(ctx)
	err = multierr.Append(err, publisher.Close())
	err = multierr.Append(err, store.Close())
	logger.Info("Bridge stopped")
	return err
}

func bridgeConfig(cmd *cobra.Command, bc config.BridgeConfig) config.BridgeConfig {
	if v, _ := cmd.Flags().GetString("listen"); v != "" {
		bc.Listen = v
	}
	if v, _ := cmd.Flags().GetString("nats-url"); v != "" {
		bc.NATSURL = v
	}
	if v, _ := cmd.Flags().GetString("subject"); v != "" {
		bc.Subject = v
	}
	if v, _ := cmd.Flags().GetString("archive"); v != "" {
		bc.ArchivePath = v
	}
	return bc
}

func openPublisher(bc config.BridgeConfig) (bridge.Publisher, error) {
	if bc.NATSURL == "" {
		logger.Warn("No NATS URL configured, events will only be logged")
		return bridge.NewLogPublisher(logger), nil
	}
	return bridge.NewNATSPublisher(bc.NATSURL, logger)
}

func openStore(bc config.BridgeConfig) (bridge.Store, error) {
	if bc.ArchivePath == "" {
		return bridge.NewRingStore(bc.RecentLimit), nil
	}
	logger.Info("Archiving events", zap.String("path", bc.ArchivePath))
	return bridge.OpenSQLiteStore(bc.ArchivePath, bc.RecentLimit)
}

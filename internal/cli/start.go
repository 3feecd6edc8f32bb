package cli

import (
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/sqlpro/sqlpro/internal/config"
	"github.com/sqlpro/sqlpro/internal/logger"
	"github.com/sqlpro/sqlpro/internal/metrics"
	"github.com/sqlpro/sqlpro/internal/query"
	"github.com/sqlpro/sqlpro/internal/storage"
	"github.com/sqlpro/sqlpro/pkg/plugin"
)

var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the SQLPro plugin host",
	Long: `Start the SQLPro plugin host. Plugins found under the configured
directories are validated and registered; directories are watched so
newly installed plugins are picked up without a restart.`,
	RunE: runStart,
}

func init() {
	rootCmd.AddCommand(startCmd)
}

func runStart(cmd *cobra.Command, args []string) error {
	cfg, err := config.NewLoader(cfgFile).Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	if logLevel != "" {
		cfg.Logging.Level = logLevel
	}

	log, err := logger.New(logger.Config{
		Level:     cfg.Logging.Level,
		File:      cfg.Logging.File,
		Console:   cfg.Logging.Console,
		Pretty:    cfg.Logging.Pretty,
		Redaction: cfg.Logging.Redaction,
		MaxSize:   cfg.Logging.MaxSize,
		MaxAge:    cfg.Logging.MaxAge,
		Compress:  cfg.Logging.Compress,
	})
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer log.Close()

	zlog := log.GetZerolog()

	store, err := storage.Open(zlog, filepath.Join(cfg.DataDir, "plugin-storage.db"))
	if err != nil {
		return fmt.Errorf("failed to open plugin storage: %w", err)
	}
	defer store.Close()

	m := metrics.NewMetrics()
	gateway := query.NewGateway(zlog)

	host := plugin.NewHost(plugin.HostConfig{
		Logger:  zlog,
		DevMode: cfg.DevMode,
		Storage: store,
		Query:   gateway,
		Instr:   m,
	})

	host.Notifier().Subscribe(func(e plugin.Event) {
		if _, ok := e.(plugin.ConnectionChanged); ok {
			m.ConnectionChangesTotal.Inc()
		}
	})

	discovery := plugin.DiscoveryConfig{
		BuiltinDir: cfg.Plugins.BuiltinDir,
		UserDir:    cfg.Plugins.UserDir,
		ExtraDirs:  cfg.Plugins.ExtraDirs,
	}

	result := host.InstallAll(discovery)
	zlog.Info().
		Int("installed", len(result.Installed)).
		Int("failed", len(result.Failed)).
		Msg("Initial plugin scan complete")

	if cfg.Plugins.Watch {
		dirs := append([]string{cfg.Plugins.BuiltinDir, cfg.Plugins.UserDir}, cfg.Plugins.ExtraDirs...)
		watcher, err := plugin.NewDirWatcher(zlog, plugin.DirWatcherConfig{
			Dirs: dirs,
			OnRescan: func() {
				host.InstallAll(discovery)
			},
		})
		if err != nil {
			return fmt.Errorf("failed to create plugin watcher: %w", err)
		}
		if err := watcher.Start(); err != nil {
			return fmt.Errorf("failed to start plugin watcher: %w", err)
		}
		defer watcher.Stop()
	}

	if cfg.Metrics.Enabled {
		mux := http.NewServeMux()
		mux.Handle("/metrics", m.Handler())
		go func() {
			if err := http.ListenAndServe(cfg.Metrics.Addr, mux); err != nil {
				zlog.Error().Err(err).Msg("Metrics endpoint failed")
			}
		}()
		zlog.Info().Str("addr", cfg.Metrics.Addr).Msg("Metrics endpoint started")
	}

	zlog.Info().Str("version", plugin.HostVersion).Msg("SQLPro plugin host started")

	// Block until interrupted
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
	<-sig

	zlog.Info().Msg("Shutting down")
	return nil
}

package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"golang.org/x/sync/errgroup"

	"github.com/testpulse/dashboard/internal/artifacts"
	"github.com/testpulse/dashboard/internal/dashboard"
	"github.com/testpulse/dashboard/internal/database"
	"github.com/testpulse/dashboard/internal/notify"
	"github.com/testpulse/dashboard/internal/server"
	"github.com/testpulse/dashboard/internal/settings"
	"github.com/testpulse/dashboard/internal/telemetry"
	"github.com/testpulse/dashboard/internal/worker"
)

const shutdownTimeout = 15 * time.Second

var rootCmd = &cobra.Command{
	Use:   "dashboard",
	Short: "Test results dashboard",
	Long: `Serves an overview of automated test results: aggregate stats, recent
runs, filterable results, run history and charts, refreshed from a
telemetry API on a schedule.`,
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, _ []string) error {
		configureLogger()
		return run(cmd.Context())
	},
}

func init() {
	flags := rootCmd.Flags()
	flags.String(listenFlagName, viper.GetString(listenKey), "address to listen on")
	bindFlagToConfig(flags.Lookup(listenFlagName), listenKey)

	flags.Bool(mockFlagName, viper.GetBool(mockKey), "serve deterministic mock telemetry")
	bindFlagToConfig(flags.Lookup(mockFlagName), mockKey)

	flags.String(apiURLFlagName, viper.GetString(apiURLKey), "telemetry API base URL")
	bindFlagToConfig(flags.Lookup(apiURLFlagName), apiURLKey)

	flags.String(storeFlagName, viper.GetString(storeURLKey), "postgres:// or mysql:// URL for settings and snapshots")
	bindFlagToConfig(flags.Lookup(storeFlagName), storeURLKey)
}

// bindFlagToConfig wires a Cobra flag to a Viper key so config/env values feed the flag.
func bindFlagToConfig(flag *pflag.Flag, key string) {
	if flag == nil {
		cobra.CheckErr(fmt.Errorf("flag for config key %q not found", key))
		return
	}
	cobra.CheckErr(viper.BindPFlag(key, flag))
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

type stores struct {
	prefs     settings.Provider
	snapshots database.SnapshotStore
	close     func()
}

func openStores() stores {
	u := storeURL()
	if u == "" {
		slog.Info("No database configured, keeping settings and snapshots in memory")
		return stores{
			prefs:     settings.NewViper(viper.GetViper(), settingsPrefix),
			snapshots: database.NewMockDatabase(),
			close:     func() {},
		}
	}

	db, err := database.OpenURL(u)
	if err != nil {
		slog.Warn("Database unavailable, falling back to memory", "error", err)
		return stores{
			prefs:     settings.NewViper(viper.GetViper(), settingsPrefix),
			snapshots: database.NewMockDatabase(),
			close:     func() {},
		}
	}
	slog.Info("Connected to database")
	return stores{
		prefs:     db,
		snapshots: db,
		close:     func() { db.Close() },
	}
}

func newClient(prefs settings.Provider) telemetry.Client {
	client := newBaseClient(prefs)
	if dir := viper.GetString(cacheDirKey); dir != "" {
		slog.Info("Caching execution details", "dir", dir, "ttl", viper.GetDuration(cacheTTLKey))
		return artifacts.NewCachingClient(client, artifacts.NewManager(dir, viper.GetDuration(cacheTTLKey)))
	}
	return client
}

func newBaseClient(prefs settings.Provider) telemetry.Client {
	if useMock() {
		slog.Info("Using MOCK telemetry client")
		return telemetry.NewMockClient()
	}

	resolver := &telemetry.Resolver{
		Settings: prefs,
		EnvURL:   viper.GetString(apiURLKey),
		Origin:   viper.GetString(apiOriginKey),
	}
	var opts []telemetry.Option
	if token := viper.GetString(apiTokenKey); token != "" {
		opts = append(opts, telemetry.WithToken(token))
	}
	client := telemetry.NewRealClient(resolver, opts...)
	slog.Info("Using telemetry API", "url", client.BaseURL())
	return client
}

func run(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	st := openStores()
	defer st.close()

	api := newClient(st.prefs)
	events := notify.NewRecorder(0)
	dash := dashboard.New(api,
		dashboard.WithSnapshotStore(st.snapshots),
		dashboard.WithNotifier(notify.Multi(notify.Log{}, events)),
	)

	sched := worker.NewScheduler(func(ctx context.Context) {
		if err := dash.Refresh(ctx); err != nil {
			slog.Debug("Scheduled refresh discarded", "error", err)
		}
	})
	sup := worker.NewSupervisor(sched, st.prefs)

	srv := server.NewServer(api, dash, st.snapshots, st.prefs, events)
	srv.OnSettingChange(func(key, _ string) {
		if key == settings.KeyAutoRefresh || key == settings.KeyRefreshInterval {
			slog.Info("Refresh settings changed, restarting scheduler", "key", key)
			sup.Restart(ctx)
		}
	})

	httpServer := &http.Server{
		Addr:              viper.GetString(listenKey),
		Handler:           srv.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	sup.Restart(ctx)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		slog.Info("Starting dashboard", "addr", httpServer.Addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		slog.Info("Shutting down...")

		sup.Stop()
		dash.Close()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			slog.Error("Graceful shutdown failed", "error", err)
		}
		return nil
	})

	err := g.Wait()
	slog.Info("Server stopped.")
	return err
}

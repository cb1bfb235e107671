package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"

	"mowercal/internal/automower"
	"mowercal/internal/config"
	"mowercal/internal/geocode"
	appLog "mowercal/internal/log"
	"mowercal/internal/web"
)

// flagConfig holds CLI flag values.
type flagConfig struct {
	configPath string
	listen     string
	once       bool
}

func main() {
	appLog.Info("mowercal starting", "version", "0.1.0")

	flags := parseFlags()

	conf, err := config.Load(flags.configPath)
	if err != nil {
		appLog.Error("failed to load config", err, "config_path", flags.configPath)
		os.Exit(1)
	}
	appLog.SetLevel(appLog.ParseLevel(conf.LogLevel))

	// CLI --listen overrides config file listen if provided.
	if flags.listen != "" {
		conf.Listen = flags.listen
	}

	loc := time.Local
	if conf.Timezone != "" {
		l, lerr := time.LoadLocation(conf.Timezone)
		if lerr != nil {
			appLog.Warn("failed to load timezone; falling back to local", lerr, "timezone", conf.Timezone)
		} else {
			loc = l
		}
	}

	appLog.Info("effective config",
		"listen", conf.Listen,
		"timezone", loc.String(),
		"refresh", conf.RefreshCron,
		"api_base", conf.Automower.BaseURL,
		"geocode_enabled", conf.Geocode.Enabled,
		"once", flags.once,
	)

	// Root context with cancellation on SIGINT/SIGTERM.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		appLog.Info("signal received, shutting down", "signal", sig.String())
		cancel()
	}()

	client := automower.NewClient(conf.Automower.BaseURL, conf.Automower.AppKey, conf.Automower.Token)
	store := automower.NewStore(client)

	if err := store.Refresh(ctx); err != nil {
		// Not fatal: serve an empty snapshot until the next refresh tick.
		appLog.Warn("initial snapshot refresh failed", err)
	}

	if flags.once {
		appLog.Info("single refresh complete", "mowers", len(store.Mowers()))
		return
	}

	var locator web.Locator
	if conf.Geocode.Enabled {
		locator = geocode.NewResolver(conf.Geocode.BaseURL, conf.Geocode.UserAgent, conf.Geocode.CacheDir)
	}

	// Periodic snapshot refresh.
	sched := cron.New()
	if _, err := sched.AddFunc(conf.RefreshCron, func() {
		refreshCtx, refreshCancel := context.WithTimeout(ctx, time.Minute)
		defer refreshCancel()
		_ = store.Refresh(refreshCtx)
	}); err != nil {
		appLog.Error("invalid refresh cron expression", err, "expr", conf.RefreshCron)
		os.Exit(1)
	}
	sched.Start()
	defer sched.Stop()

	server := web.NewServer(conf, store, client, locator, loc)
	httpSrv := &http.Server{
		Addr:    conf.Listen,
		Handler: server.Handler(),
	}

	go func() {
		appLog.Info("starting HTTP server", "listen", "http://"+conf.Listen)
		if serveErr := httpSrv.ListenAndServe(); serveErr != nil && !errors.Is(serveErr, http.ErrServerClosed) {
			appLog.Error("HTTP server failed", serveErr)
			cancel()
		}
	}()

	<-ctx.Done()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	_ = httpSrv.Shutdown(shutdownCtx)

	appLog.Info("mowercal exiting")
}

func parseFlags() flagConfig {
	var cfg flagConfig

	flag.StringVar(&cfg.configPath, "config", "/etc/mowercal/config.yaml", "Path to config file")
	flag.StringVar(&cfg.listen, "listen", "", "HTTP listen address (overrides config if set)")
	flag.BoolVar(&cfg.once, "once", false, "Fetch one mower snapshot and exit")

	flag.Parse()

	return cfg
}

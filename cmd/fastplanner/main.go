package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/DaVinciHack/clean-fast-planner-sub000/internal/api"
	"github.com/DaVinciHack/clean-fast-planner-sub000/internal/auth"
	"github.com/DaVinciHack/clean-fast-planner-sub000/internal/metrics"
	"github.com/DaVinciHack/clean-fast-planner-sub000/internal/perf"
	"github.com/DaVinciHack/clean-fast-planner-sub000/internal/stream"
	"github.com/DaVinciHack/clean-fast-planner-sub000/internal/wx"
	"github.com/DaVinciHack/clean-fast-planner-sub000/web"
)

func main() {
	// Local development reads FASTPLANNER_* from a .env file; absence is fine.
	_ = godotenv.Load()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	}))

	addr := os.Getenv("FASTPLANNER_HTTP_ADDR")
	if addr == "" {
		addr = ":8080"
	}

	authCfg, err := loadAuthConfig(logger)
	if err != nil {
		logger.Error("invalid auth configuration", "error", err)
		os.Exit(1)
	}

	wxCfg := loadWxConfig(logger)
	store := wx.NewStore()
	wxCache := wx.NewCache(wxCfg.CacheDir, wxCfg.MaxFiles)

	// Attempt to load cached weather on startup so derived-input queries work
	// before the first fetch completes.
	if ds, err := wxCache.LoadLatest(); err != nil {
		logger.Info("no weather cache found, starting without weather data", "error", err)
	} else {
		store.Set(ds)
		metrics.SetWxReportCount(len(ds.Reports))
		logger.Info("loaded weather from cache",
			"stations", len(ds.Reports),
			"cached_at", ds.FetchedAt.Format(time.RFC3339),
		)
	}

	fetcher := wx.NewFetcher(wxCfg.SourceURL, logger, wxCfg.Stations...)
	refresher := wx.NewRefresher(fetcher, store, wxCache, logger)

	streamCfg := loadStreamConfig(logger)
	streamHandler := stream.NewHandler(store, perf.S92, streamCfg, logger)

	apiCfg := loadAPIConfig(logger)
	srv := api.NewServer(addr, logger, authCfg, apiCfg, store, refresher, streamHandler, web.Content)

	// Graceful shutdown on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Start background weather refresh.
	if wxCfg.EnableFetch {
		go refresher.Run(ctx, wxCfg.RefreshInterval)
	} else {
		logger.Info("weather fetch disabled, serving cached/manual inputs only")
	}

	// Background goroutine to update the dataset age gauge.
	go func() {
		ticker := time.NewTicker(10 * time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				if age := store.AgeSeconds(); age >= 0 {
					metrics.SetWxDatasetAge(age)
				}
			case <-ctx.Done():
				return
			}
		}
	}()

	go func() {
		logger.Info("starting server",
			"addr", addr,
			"auth_enabled", authCfg.Enabled,
			"wx_fetch_enabled", wxCfg.EnableFetch,
			"stations", strings.Join(wxCfg.Stations, ","),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server listen error", "error", err)
			os.Exit(1)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.HTTPServer().Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown error", "error", err)
		os.Exit(1)
	}

	logger.Info("server stopped")
}

func loadAuthConfig(logger *slog.Logger) (auth.Config, error) {
	cfg := auth.Config{}

	enabledStr := os.Getenv("FASTPLANNER_AUTH_ENABLED")
	if enabledStr != "" {
		enabled, err := strconv.ParseBool(enabledStr)
		if err != nil {
			return cfg, errors.New("FASTPLANNER_AUTH_ENABLED must be a boolean value (true/false/1/0)")
		}
		cfg.Enabled = enabled
	}

	if cfg.Enabled {
		cfg.Token = os.Getenv("FASTPLANNER_AUTH_TOKEN")
		if cfg.Token == "" {
			return cfg, errors.New("FASTPLANNER_AUTH_TOKEN is required when auth is enabled")
		}
		logger.Info("auth enabled")
	}

	return cfg, nil
}

// wxConfig holds weather subsystem configuration.
type wxConfig struct {
	EnableFetch     bool
	SourceURL       string
	Stations        []string
	CacheDir        string
	MaxFiles        int
	RefreshInterval time.Duration
}

func loadWxConfig(logger *slog.Logger) wxConfig {
	cfg := wxConfig{
		EnableFetch: true,
		CacheDir:    "/tmp/fastplanner/wx",
		MaxFiles:    5,
		// Norwegian sector bases the planner ships with by default.
		Stations:        []string{"ENZV", "ENBR"},
		RefreshInterval: 10 * time.Minute,
	}

	if v := os.Getenv("FASTPLANNER_ENABLE_WX_FETCH"); v != "" {
		enabled, err := strconv.ParseBool(v)
		if err != nil {
			logger.Warn("invalid FASTPLANNER_ENABLE_WX_FETCH value, defaulting to true", "value", v)
		} else {
			cfg.EnableFetch = enabled
		}
	}

	if v := os.Getenv("FASTPLANNER_WX_SOURCE_URL"); v != "" {
		cfg.SourceURL = v
	}

	if v := os.Getenv("FASTPLANNER_WX_STATIONS"); v != "" {
		var stations []string
		for _, s := range strings.Split(v, ",") {
			s = strings.ToUpper(strings.TrimSpace(s))
			if s != "" {
				stations = append(stations, s)
			}
		}
		if len(stations) > 0 {
			cfg.Stations = stations
		}
	}

	if v := os.Getenv("FASTPLANNER_WX_CACHE_DIR"); v != "" {
		cfg.CacheDir = v
	}

	if v := os.Getenv("FASTPLANNER_WX_MAX_FILES"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			logger.Warn("invalid FASTPLANNER_WX_MAX_FILES value, using default", "value", v, "default", cfg.MaxFiles)
		} else {
			cfg.MaxFiles = n
		}
	}

	if v := os.Getenv("FASTPLANNER_WX_REFRESH_INTERVAL"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 30 {
			logger.Warn("invalid FASTPLANNER_WX_REFRESH_INTERVAL value, using default", "value", v, "default", 600)
		} else {
			cfg.RefreshInterval = time.Duration(n) * time.Second
		}
	}

	logger.Info("weather config",
		"source_url", cfg.SourceURL,
		"stations", cfg.Stations,
		"cache_dir", cfg.CacheDir,
		"refresh_interval_seconds", cfg.RefreshInterval.Seconds(),
	)

	return cfg
}

func loadAPIConfig(logger *slog.Logger) api.Config {
	cfg := api.Config{
		RateLimitWindow: 15 * time.Minute,
		RateLimitMax:    1000,
	}

	if v := os.Getenv("FASTPLANNER_TRUST_PROXY"); v != "" {
		trust, err := strconv.ParseBool(v)
		if err != nil {
			logger.Warn("invalid FASTPLANNER_TRUST_PROXY value, defaulting to false", "value", v)
		} else {
			cfg.TrustProxy = trust
		}
	}

	if v := os.Getenv("FASTPLANNER_RATE_LIMIT_WINDOW"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			logger.Warn("invalid FASTPLANNER_RATE_LIMIT_WINDOW value, using default", "value", v, "default", 900)
		} else {
			cfg.RateLimitWindow = time.Duration(n) * time.Second
		}
	}

	if v := os.Getenv("FASTPLANNER_RATE_LIMIT_MAX"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			logger.Warn("invalid FASTPLANNER_RATE_LIMIT_MAX value, using default", "value", v, "default", 1000)
		} else {
			cfg.RateLimitMax = n
		}
	}

	logger.Info("api config",
		"trust_proxy", cfg.TrustProxy,
		"rate_limit_window_seconds", cfg.RateLimitWindow.Seconds(),
		"rate_limit_max", cfg.RateLimitMax,
	)

	return cfg
}

func loadStreamConfig(logger *slog.Logger) stream.Config {
	cfg := stream.Config{
		MaxConcurrentPerIP: 10,
		MaxConcurrent:      1000,
		KeepaliveInterval:  30 * time.Second,
		PollInterval:       2 * time.Second,
	}

	if v := os.Getenv("FASTPLANNER_STREAM_MAX_CONCURRENT_PER_IP"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			logger.Warn("invalid FASTPLANNER_STREAM_MAX_CONCURRENT_PER_IP value, using default", "value", v, "default", 10)
		} else {
			cfg.MaxConcurrentPerIP = n
		}
	}

	if v := os.Getenv("FASTPLANNER_STREAM_MAX_CONCURRENT"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			logger.Warn("invalid FASTPLANNER_STREAM_MAX_CONCURRENT value, using default", "value", v, "default", 1000)
		} else {
			cfg.MaxConcurrent = n
		}
	}

	if v := os.Getenv("FASTPLANNER_STREAM_KEEPALIVE_INTERVAL"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			logger.Warn("invalid FASTPLANNER_STREAM_KEEPALIVE_INTERVAL value, using default", "value", v, "default", 30)
		} else {
			cfg.KeepaliveInterval = time.Duration(n) * time.Second
		}
	}

	if v := os.Getenv("FASTPLANNER_TRUST_PROXY"); v != "" {
		if trust, err := strconv.ParseBool(v); err == nil {
			cfg.TrustProxy = trust
		}
	}

	logger.Info("stream config",
		"max_concurrent_per_ip", cfg.MaxConcurrentPerIP,
		"max_concurrent", cfg.MaxConcurrent,
		"keepalive_interval_seconds", cfg.KeepaliveInterval.Seconds(),
	)

	return cfg
}

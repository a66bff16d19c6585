package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/alecthomas/kong"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"git.home.luguber.info/inful/sitegen/internal/build"
	"git.home.luguber.info/inful/sitegen/internal/cache"
	"git.home.luguber.info/inful/sitegen/internal/config"
	"git.home.luguber.info/inful/sitegen/internal/content"
	"git.home.luguber.info/inful/sitegen/internal/live"
	"git.home.luguber.info/inful/sitegen/internal/logfields"
	"git.home.luguber.info/inful/sitegen/internal/metrics"
	"git.home.luguber.info/inful/sitegen/internal/redirects"
	"git.home.luguber.info/inful/sitegen/internal/render"
)

var CLI struct {
	Config  string `short:"c" help:"Configuration file path" default:"site.yaml"`
	Verbose bool   `short:"v" help:"Enable verbose logging"`

	Build struct {
		Output string `short:"o" help:"Override the output directory"`
	} `cmd:"" help:"Build the complete site into the output directory"`

	Serve struct {
		Addr    string `short:"a" help:"Override the listen address"`
		Metrics string `help:"Expose Prometheus metrics on this address (e.g. :9090)"`
	} `cmd:"" help:"Watch content and serve the site with live reload"`
}

func main() {
	_ = godotenv.Load()

	kctx := kong.Parse(&CLI)

	logLevel := slog.LevelInfo
	if CLI.Verbose {
		logLevel = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	}))
	slog.SetDefault(logger)

	cfg, err := config.Load(CLI.Config)
	if err != nil {
		slog.Error("Failed to load configuration", logfields.Error(err))
		os.Exit(1)
	}

	switch kctx.Command() {
	case "build":
		if CLI.Build.Output != "" {
			cfg.OutputDir = CLI.Build.Output
		}
		if err := runBuild(cfg); err != nil {
			slog.Error("Build failed", logfields.Error(err))
			os.Exit(1)
		}
	case "serve":
		if CLI.Serve.Addr != "" {
			cfg.Serve.Addr = CLI.Serve.Addr
		}
		if err := runServe(cfg, CLI.Serve.Metrics); err != nil {
			slog.Error("Serve failed", logfields.Error(err))
			os.Exit(1)
		}
	}
}

// setup wires the collaborators both commands share: the content loader,
// the template engine and the validated redirect rules.
func setup(cfg *config.Config) (*content.Loader, render.Engine, []redirects.Rule, error) {
	loader, err := content.NewLoader(cfg)
	if err != nil {
		return nil, nil, nil, err
	}

	engine, err := render.LoadHTMLEngine(filepath.Join(cfg.ThemeDir, "templates"))
	if err != nil {
		return nil, nil, nil, err
	}
	if err := render.Validate(engine); err != nil {
		return nil, nil, nil, err
	}

	rules, err := redirects.ParseFile(cfg.Redirects.File, redirects.Options{
		AllowExternal:  cfg.Redirects.AllowExternal,
		AllowedDomains: cfg.Redirects.AllowedDomains,
	})
	if err != nil {
		return nil, nil, nil, err
	}
	return loader, engine, rules, nil
}

func runBuild(cfg *config.Config) error {
	loader, engine, rules, err := setup(cfg)
	if err != nil {
		return err
	}

	site, err := loader.Load(content.ModeBatch)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	return build.Run(ctx, cfg, site, engine, rules, metrics.NoopRecorder{})
}

func runServe(cfg *config.Config, metricsAddr string) error {
	// The redirect map is validated here too, so a broken table fails at
	// startup even though live mode emits no redirect artifacts.
	loader, engine, _, err := setup(cfg)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var rec metrics.Recorder = metrics.NoopRecorder{}
	if metricsAddr != "" {
		reg := prometheus.NewRegistry()
		rec = metrics.NewPrometheusRecorder(reg)
		go serveMetrics(ctx, metricsAddr, reg)
	}

	coord := live.NewCoordinator(cfg, loader, engine, cache.NewManager(), rec)

	srv := &http.Server{
		Addr:              cfg.Serve.Addr,
		Handler:           coord.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 2)
	go func() {
		slog.Info("serving", logfields.URL("http://"+cfg.Serve.Addr))
		if serveErr := srv.ListenAndServe(); serveErr != nil && !errors.Is(serveErr, http.ErrServerClosed) {
			errCh <- serveErr
		}
	}()
	go func() {
		errCh <- coord.Start(ctx)
	}()

	select {
	case <-ctx.Done():
	case err = <-errCh:
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = srv.Shutdown(shutdownCtx)
	return err
}

func serveMetrics(ctx context.Context, addr string, reg *prometheus.Registry) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Warn("metrics server stopped", logfields.Error(err))
	}
}

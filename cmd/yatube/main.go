package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sort"
	"syscall"
	"time"

	"yatube/internal/cache"
	"yatube/internal/config"
	"yatube/internal/database"
	"yatube/internal/engine"
	"yatube/internal/forms"
	"yatube/internal/handlers"
	"yatube/internal/media"
	"yatube/internal/middleware"
	"yatube/internal/utils"

	"github.com/asynkron/protoactor-go/actor"
	"github.com/lmittmann/tint"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	otelprom "go.opentelemetry.io/otel/exporters/prometheus"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
)

const usage = `usage: yatube [command]

commands:
  serve                                      run the web server (default)
  migrate [up|down]                          apply or roll back schema migrations
  group create -title T -slug S [-description D]
  group delete -slug S
`

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdout); err != nil {
		slog.Error("yatube: exiting", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, stdout io.Writer) error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	setupLogger(cfg)

	command := "serve"
	if len(args) > 0 {
		command, args = args[0], args[1:]
	}

	switch command {
	case "serve":
		return serve(ctx, cfg)
	case "migrate":
		return migrateCommand(ctx, cfg, args)
	case "group":
		return groupCommand(ctx, cfg, args, stdout)
	case "help", "-h", "--help":
		fmt.Fprint(stdout, usage)
		return nil
	default:
		return fmt.Errorf("unknown command %q\n%s", command, usage)
	}
}

func setupLogger(cfg *config.Config) {
	var handler slog.Handler
	if cfg.LogFormat == "json" {
		handler = slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.LogLevel})
	} else {
		handler = tint.NewHandler(os.Stderr, &tint.Options{
			Level:      cfg.LogLevel,
			TimeFormat: time.Kitchen,
		})
	}
	slog.SetDefault(slog.New(handler))
}

func openDatabase(ctx context.Context, cfg *config.Config) (*database.DB, error) {
	db, err := database.Open(ctx, cfg.Database.Type, cfg.Database.URI)
	if err != nil {
		return nil, err
	}
	slog.Info("database: opened", "driver", cfg.Database.Type)
	return db, nil
}

func openMedia(ctx context.Context, cfg *config.Config) (media.Store, error) {
	switch cfg.Media.Backend {
	case config.MediaGridFS:
		return media.NewGridFSStore(ctx, cfg.Media.MongoURI, cfg.Media.MongoDatabase)
	default:
		return media.NewFileStore(cfg.Media.Root)
	}
}

// setupMetrics installs an OpenTelemetry meter provider exporting to the Prometheus default
// registry. Without METRICS_ENABLED the collector records into no-op instruments.
func setupMetrics(cfg *config.Config) (*utils.MetricsCollector, http.Handler, func(context.Context) error, error) {
	if !cfg.Server.MetricsEnabled {
		return utils.NewMetricsCollector(), nil, func(context.Context) error { return nil }, nil
	}

	exporter, err := otelprom.New()
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to create prometheus exporter: %w", err)
	}
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(exporter))
	otel.SetMeterProvider(provider)

	slog.Info("metrics: prometheus exporter enabled", "path", "/metrics")
	return utils.NewMetricsCollector(), promhttp.Handler(), provider.Shutdown, nil
}

func serve(ctx context.Context, cfg *config.Config) error {
	if cfg.UsesDefaultSecret() {
		slog.Warn("auth: JWT_SECRET is not set, sessions are signed with the development secret")
	}

	db, err := openDatabase(ctx, cfg)
	if err != nil {
		return err
	}
	defer db.Close()
	if err := db.Migrate(); err != nil {
		return err
	}

	mediaStore, err := openMedia(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := mediaStore.Close(closeCtx); err != nil {
			slog.Error("media: failed to close store", "error", err)
		}
	}()

	metrics, metricsHandler, shutdownMetrics, err := setupMetrics(cfg)
	if err != nil {
		return err
	}
	defer shutdownMetrics(context.Background())

	system := actor.NewActorSystem()
	pageCache := cache.New(system, cfg.Cache.TTL, metrics)
	defer pageCache.Stop()

	eng := engine.NewEngine(engine.NewStores(db), mediaStore, metrics)
	sessions := middleware.NewSessions(cfg.Auth.JWTSecret, cfg.Auth.SessionTTL, cfg.Auth.CookieSecure)

	server, err := handlers.NewServer(eng, sessions, pageCache, mediaStore, metrics, db)
	if err != nil {
		return err
	}
	server.MetricsHandler = metricsHandler

	httpServer := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           server.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       2 * time.Minute,
	}

	serveErr := make(chan error, 1)
	go func() {
		slog.Info("server: listening",
			"addr", httpServer.Addr,
			"cache_ttl", cfg.Cache.TTL,
			"media", cfg.Media.Backend,
		)
		serveErr <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-serveErr:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	slog.Info("server: shutting down", "timeout", cfg.Server.ShutdownTimeout)
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}
	return nil
}

func migrateCommand(ctx context.Context, cfg *config.Config, args []string) error {
	direction := "up"
	if len(args) > 0 {
		direction = args[0]
	}

	db, err := openDatabase(ctx, cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	switch direction {
	case "up":
		return db.Migrate()
	case "down":
		return db.Rollback()
	default:
		return fmt.Errorf("unknown migrate direction %q, want up or down", direction)
	}
}

func groupCommand(ctx context.Context, cfg *config.Config, args []string, stdout io.Writer) error {
	if len(args) == 0 {
		return fmt.Errorf("group: missing subcommand\n%s", usage)
	}
	subcommand, args := args[0], args[1:]

	var form forms.GroupForm
	flags := flag.NewFlagSet("group "+subcommand, flag.ContinueOnError)
	flags.SetOutput(stdout)
	flags.StringVar(&form.Slug, "slug", "", "group slug")
	if subcommand == "create" {
		flags.StringVar(&form.Title, "title", "", "group title")
		flags.StringVar(&form.Description, "description", "", "group description")
	}
	if err := flags.Parse(args); err != nil {
		return err
	}

	db, err := openDatabase(ctx, cfg)
	if err != nil {
		return err
	}
	defer db.Close()
	if err := db.Migrate(); err != nil {
		return err
	}
	eng := engine.NewEngine(engine.NewStores(db), nil, utils.NewMetricsCollector())

	switch subcommand {
	case "create":
		group, errs, err := eng.CreateGroup(ctx, &form)
		if err != nil {
			return err
		}
		if !errs.Valid() {
			return formError(errs)
		}
		fmt.Fprintf(stdout, "created group %q (/group/%s/)\n", group.Title, group.Slug)
		return nil
	case "delete":
		if form.Slug == "" {
			return errors.New("group delete: -slug is required")
		}
		if err := eng.DeleteGroup(ctx, form.Slug); err != nil {
			if utils.IsErrorCode(err, utils.ErrProtected) {
				return fmt.Errorf("group %q still has posts and cannot be deleted", form.Slug)
			}
			return err
		}
		fmt.Fprintf(stdout, "deleted group %q\n", form.Slug)
		return nil
	default:
		return fmt.Errorf("unknown group subcommand %q\n%s", subcommand, usage)
	}
}

func formError(errs forms.Errors) error {
	fields := make([]string, 0, len(errs))
	for field := range errs {
		fields = append(fields, field)
	}
	sort.Strings(fields)

	msg := "invalid input:"
	for _, field := range fields {
		msg += fmt.Sprintf(" %s: %s", field, errs.Get(field))
	}
	return errors.New(msg)
}

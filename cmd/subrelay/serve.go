package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/mihaimyh/subrelay/internal/config"
	httpmw "github.com/mihaimyh/subrelay/middleware/http"
	"github.com/mihaimyh/subrelay/pkg/relay"
	zerologadapter "github.com/mihaimyh/subrelay/pkg/relay/logger/zerolog"
	prommetrics "github.com/mihaimyh/subrelay/pkg/relay/metrics/prometheus"
	"github.com/mihaimyh/subrelay/pkg/telegram"
)

const metricsNamespace = "subrelay"

type serveOptions struct {
	configPath  string
	addr        string
	metricsAddr string
	logLevel    string
}

func newServeCmd() *cobra.Command {
	opts := &serveOptions{}
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the webhook server",
		Long: "Run the webhook endpoint (OPTIONS on any path, GET /health, POST /webhook) and, " +
			"when a metrics address is configured, a separate Prometheus /metrics listener.",
		Example: "  subrelay serve --config config.yaml",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(opts.configPath)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			opts.apply(cmd, cfg)

			logger, err := newLogger(cfg.Log.Level, cfg.Log.Format, os.Stderr)
			if err != nil {
				return err
			}

			ctx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer cancel()

			a, err := newApp(cfg, logger)
			if err != nil {
				return err
			}
			return a.listenAndRun(ctx)
		},
	}
	flags := cmd.Flags()
	flags.StringVar(&opts.configPath, "config", "config.yaml", "Path to config file (optional)")
	flags.StringVar(&opts.addr, "addr", "", "Webhook listen address (overrides config and "+config.EnvAddr+")")
	flags.StringVar(&opts.metricsAddr, "metrics-addr", "", "Metrics listen address; empty disables /metrics")
	flags.StringVar(&opts.logLevel, "log-level", "", "Log level: debug, info, warn, error")
	return cmd
}

// apply copies explicitly set flags over the loaded config.
func (o *serveOptions) apply(cmd *cobra.Command, cfg *config.Config) {
	flags := cmd.Flags()
	if flags.Changed("addr") {
		cfg.Server.Addr = o.addr
	}
	if flags.Changed("metrics-addr") {
		cfg.Server.MetricsAddr = o.metricsAddr
	}
	if flags.Changed("log-level") {
		cfg.Log.Level = o.logLevel
	}
}

func newLogger(level, format string, w io.Writer) (zerolog.Logger, error) {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		return zerolog.Nop(), fmt.Errorf("invalid log level %q: %w", level, err)
	}
	if lvl == zerolog.NoLevel {
		lvl = zerolog.InfoLevel
	}
	if format == config.LogFormatConsole {
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339}
	}
	return zerolog.New(w).Level(lvl).With().Timestamp().Str("service", "subrelay").Logger(), nil
}

type app struct {
	logger          zerolog.Logger
	public          *http.Server
	metrics         *http.Server
	shutdownTimeout time.Duration
}

func newApp(cfg *config.Config, logger zerolog.Logger) (*app, error) {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	metrics := prommetrics.NewMetrics(reg, metricsNamespace)
	relayLogger := zerologadapter.NewLogger(logger)

	handler, err := relay.NewHandler(relay.Config{
		Secrets: cfg.RelaySecrets(),
		Notifier: telegram.NewClient(telegram.Config{
			BaseURL: cfg.Telegram.APIBaseURL,
			Metrics: metrics,
		}),
		Logger:       relayLogger,
		Metrics:      metrics,
		MaxBodyBytes: cfg.Server.MaxBodyBytes,
	})
	if err != nil {
		return nil, fmt.Errorf("create relay handler: %w", err)
	}

	a := &app{
		logger: logger,
		public: &http.Server{
			Addr:              cfg.Server.Addr,
			Handler:           httpmw.AccessLog(relayLogger)(handler),
			ReadHeaderTimeout: cfg.ReadHeaderTimeoutDuration(),
		},
		shutdownTimeout: cfg.ShutdownTimeoutDuration(),
	}
	if cfg.Server.MetricsAddr != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}))
		a.metrics = &http.Server{
			Addr:              cfg.Server.MetricsAddr,
			Handler:           mux,
			ReadHeaderTimeout: cfg.ReadHeaderTimeoutDuration(),
		}
	}

	logger.Info().
		Bool("has_webhook_token", cfg.Secrets.WebhookAuthToken != "").
		Bool("has_telegram_token", cfg.Secrets.TelegramBotToken != "").
		Bool("has_chat_id", cfg.Secrets.TelegramChatID != "").
		Msg("relay configured")
	return a, nil
}

func (a *app) listenAndRun(ctx context.Context) error {
	publicLn, err := net.Listen("tcp", a.public.Addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", a.public.Addr, err)
	}
	var metricsLn net.Listener
	if a.metrics != nil {
		metricsLn, err = net.Listen("tcp", a.metrics.Addr)
		if err != nil {
			_ = publicLn.Close()
			return fmt.Errorf("listen %s: %w", a.metrics.Addr, err)
		}
	}
	return a.run(ctx, publicLn, metricsLn)
}

// run serves until ctx is cancelled or a listener fails, then shuts both
// servers down.
func (a *app) run(ctx context.Context, publicLn, metricsLn net.Listener) error {
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		a.logger.Info().Str("addr", publicLn.Addr().String()).Msg("webhook server listening")
		return serve(a.public, publicLn)
	})
	if a.metrics != nil && metricsLn != nil {
		g.Go(func() error {
			a.logger.Info().Str("addr", metricsLn.Addr().String()).Msg("metrics server listening")
			return serve(a.metrics, metricsLn)
		})
	}
	g.Go(func() error {
		<-gctx.Done()
		a.logger.Info().Msg("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), a.shutdownTimeout)
		defer cancel()
		var errs []error
		if err := a.public.Shutdown(shutdownCtx); err != nil {
			errs = append(errs, fmt.Errorf("shutdown webhook server: %w", err))
		}
		if a.metrics != nil {
			if err := a.metrics.Shutdown(shutdownCtx); err != nil {
				errs = append(errs, fmt.Errorf("shutdown metrics server: %w", err))
			}
		}
		return errors.Join(errs...)
	})

	if err := g.Wait(); err != nil {
		a.logger.Error().Err(err).Msg("server stopped")
		return err
	}
	a.logger.Info().Msg("server stopped")
	return nil
}

func serve(srv *http.Server, ln net.Listener) error {
	if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("serve %s: %w", ln.Addr(), err)
	}
	return nil
}

package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	appFeed "github.com/Zhima-Mochi/minishop-storefront/internal/application/feed"
	appPayment "github.com/Zhima-Mochi/minishop-storefront/internal/application/payment"
	appSession "github.com/Zhima-Mochi/minishop-storefront/internal/application/session"
	"github.com/Zhima-Mochi/minishop-storefront/internal/config"
	domSession "github.com/Zhima-Mochi/minishop-storefront/internal/domain/session"
	infraobs "github.com/Zhima-Mochi/minishop-storefront/internal/infrastructure/observability"
	"github.com/Zhima-Mochi/minishop-storefront/internal/infrastructure/observability/oteltrace"
	"github.com/Zhima-Mochi/minishop-storefront/internal/infrastructure/observability/prometrics"
	"github.com/Zhima-Mochi/minishop-storefront/internal/infrastructure/observability/zaplogger"
	stripepay "github.com/Zhima-Mochi/minishop-storefront/internal/infrastructure/stripe"
	"github.com/Zhima-Mochi/minishop-storefront/internal/pkg/logging"
	httppresentation "github.com/Zhima-Mochi/minishop-storefront/internal/presentation/http"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP server",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		return serve(ctx, cfg)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func serve(ctx context.Context, cfg config.Config) error {
	baseLogger, err := logging.NewLogger(logging.Options{
		Service: cfg.ServiceName,
		Env:     cfg.Env,
		LogFile: cfg.LogFile,
		Debug:   cfg.Debug,
	})
	if err != nil {
		return fmt.Errorf("creating logger: %w", err)
	}
	defer func() { _ = baseLogger.Sync() }()
	zap.ReplaceGlobals(baseLogger)

	systemLogger := logging.WithTrace(baseLogger, logging.SystemTraceID, logging.SystemSpanID)

	shutdownTracing, err := oteltrace.Setup(ctx, cfg.ServiceName, cfg.OTelEndpoint)
	if err != nil {
		return fmt.Errorf("setting up tracing: %w", err)
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	tel := infraobs.New(zaplogger.New(baseLogger), prometrics.New(reg, "", ""), cfg.ServiceName)

	if cfg.StripeSecretKey == "" {
		systemLogger.Warn("stripe_not_configured")
	}
	processor := stripepay.New(stripepay.Options{
		SecretKey: cfg.StripeSecretKey,
		APIURL:    cfg.StripeAPIURL,
	}, tel)

	handler := httppresentation.NewHandler(httppresentation.Services{
		Payment: appPayment.NewCreateIntentUseCase(processor, tel),
		Session: appSession.NewService(domSession.Policy{
			Name:   cfg.SessionCookieName,
			Secure: cfg.IsProduction(),
		}, tel),
		Feed: appFeed.NewService(cfg.PublicDomain, tel),
	}, httppresentation.Options{
		MaxBodyBytes:   cfg.MaxBodyBytes,
		AllowedOrigins: cfg.CORSAllowedOrigins,
		Metrics:        promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}),
	}, tel)

	server := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           handler.Router(),
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		systemLogger.Info("http_server_start",
			zap.String("addr", server.Addr),
			zap.String("public_domain", cfg.PublicDomain),
			zap.Bool("production", cfg.IsProduction()),
		)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()

		var errs []error
		if err := server.Shutdown(shutdownCtx); err != nil {
			systemLogger.Error("http_server_shutdown_error", zap.Error(err))
			errs = append(errs, err)
		} else {
			systemLogger.Info("http_server_stopped")
		}
		if err := shutdownTracing(shutdownCtx); err != nil {
			systemLogger.Warn("tracer_shutdown_error", zap.Error(err))
		}
		return errors.Join(errs...)
	})

	if err := g.Wait(); err != nil {
		systemLogger.Error("http_server_error", zap.Error(err))
		return err
	}
	return nil
}

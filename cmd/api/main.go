package main

import (
	"context"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/marcelsud/webhook-inspector/config"
	"github.com/marcelsud/webhook-inspector/internal/http/chi"
	"github.com/marcelsud/webhook-inspector/internal/logger"
	"github.com/marcelsud/webhook-inspector/internal/store"
	"github.com/marcelsud/webhook-inspector/metrics"
	"github.com/marcelsud/webhook-inspector/synthesis"
	"github.com/marcelsud/webhook-inspector/synthesis/openai"
	"github.com/marcelsud/webhook-inspector/templates"
	"github.com/marcelsud/webhook-inspector/webhook"
	"github.com/marcelsud/webhook-inspector/webhook/capture"
	"github.com/marcelsud/webhook-inspector/webhook/cursor"
)

const TIMEOUT = 30 * time.Second

/* main.go is where the application comes in and goes out
* It wires configuration, the store, the services and the router.
* Imports only go one way: down. The binary imports the services,
* which import the storage layer
 */

func main() {
	cfg, err := config.GetConfig()
	if err != nil {
		fmt.Println(err)
		return
	}
	logger := logger.New("webhook-inspector", cfg.LogLevel)

	ctx, stop := signal.NotifyContext(
		context.Background(),
		syscall.SIGHUP, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT,
	)
	defer stop()

	repo, err := store.Open(ctx, cfg)
	if err != nil {
		logger.Error().Err(err).Str("driver", cfg.StoreDriver).Msg("opening store")
		return
	}
	defer repo.Close(context.Background())

	cursors, err := newCursorCodec(cfg)
	if err != nil {
		logger.Error().Err(err).Msg("creating cursor codec")
		return
	}
	if cfg.CursorSecret == "" {
		logger.Warn().Msg("CURSOR_SECRET not set, cursors will not survive a restart")
	}

	catalog := templates.NewCatalog()
	if cfg.TemplatesFile != "" {
		if err := catalog.Load(cfg.TemplatesFile); err != nil {
			logger.Error().Err(err).Msg("loading templates")
			return
		}
	}
	if cfg.DefaultLanguage != "" {
		if err := catalog.SetDefault(cfg.DefaultLanguage); err != nil {
			logger.Error().Err(err).Msg("selecting default language")
			return
		}
	}

	collector := metrics.NewStoreCollector(repo)
	exporter, err := metrics.NewOTelExporter(collector)
	if err != nil {
		logger.Error().Err(err).Msg("creating metrics exporter")
		return
	}
	defer exporter.Shutdown(context.Background())

	webhookService := webhook.NewService(repo, cursors,
		webhook.WithPageSize(cfg.DefaultPageSize, cfg.MaxPageSize),
		webhook.WithLogger(logger),
		webhook.WithRecorder(exporter),
	)

	engine := synthesis.NewEngine(repo, openai.NewClient(cfg.SynthBaseURL, cfg.SynthAPIKey, cfg.SynthModel), catalog,
		synthesis.Config{
			Timeout:          cfg.SynthTimeout,
			RetryDelay:       cfg.SynthRetryDelay,
			MaxConcurrent:    cfg.SynthMaxConcurrent,
			MaxSelection:     cfg.SynthMaxSelection,
			MaxPromptSamples: cfg.SynthMaxPromptSamples,
			MaxSampleBytes:   cfg.SynthMaxSampleBytes,
			RedactHeaders:    cfg.SynthRedactHeaders,
		},
		synthesis.WithLogger(logger),
		synthesis.WithRecorder(exporter),
	)

	normalizer := capture.NewNormalizer(capture.Options{
		MaxBodyBytes: cfg.CaptureMaxBodyBytes,
		StatusCode:   cfg.CaptureStatusCode,
		TrustProxy:   cfg.CaptureTrustProxy,
		StripPrefix:  "/capture",
	})

	r := chi.Handlers(ctx, chi.Dependencies{
		Webhooks:   webhookService,
		Synthesis:  engine,
		Normalizer: normalizer,
		Stats:      collector,
		Metrics:    exporter.ServeHTTP(),
		Logger:     logger,
	})

	// generation may take two backend attempts
	writeTimeout := 2*cfg.SynthTimeout + cfg.SynthRetryDelay + 10*time.Second
	srv := &http.Server{
		ReadTimeout:  30 * time.Second,
		WriteTimeout: writeTimeout,
		Addr:         ":" + cfg.Port,
		Handler:      r,
	}

	errShutdown := make(chan error, 1)
	go shutdown(srv, ctx, errShutdown)
	logger.Info().Str("port", cfg.Port).Str("store", cfg.StoreDriver).Msg("listening")
	err = srv.ListenAndServe()
	if err != nil && err != http.ErrServerClosed {
		logger.Error().Err(err).Msg("serving")
		return
	}
	err = <-errShutdown
	if err != nil {
		logger.Error().Err(err).Msg("shutting down")
		return
	}
}

func newCursorCodec(cfg *config.Config) (*cursor.Codec, error) {
	if cfg.CursorSecret == "" {
		return cursor.NewRandomCodec()
	}
	return cursor.NewCodec([]byte(cfg.CursorSecret))
}

func shutdown(server *http.Server, ctxShutdown context.Context, errShutdown chan error) {
	<-ctxShutdown.Done()

	ctxTimeout, stop := context.WithTimeout(context.Background(), TIMEOUT)
	defer stop()

	err := server.Shutdown(ctxTimeout)
	switch err {
	case nil:
		fmt.Printf("\nShutting down server...\n")
		errShutdown <- nil
	case context.DeadlineExceeded:
		errShutdown <- fmt.Errorf("Forcing closing the server")
	default:
		errShutdown <- fmt.Errorf("Forcing closing the server")
	}
}

package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"golang.org/x/sync/errgroup"

	"finhealth/internal/amqp"
	"finhealth/internal/backend"
	"finhealth/internal/cache"
	"finhealth/internal/capture"
	"finhealth/internal/capture/google"
	"finhealth/internal/cli"
	"finhealth/internal/config"
	apphttp "finhealth/internal/http"
	"finhealth/internal/log"
	"finhealth/internal/notify"
	"finhealth/internal/services"
	"finhealth/internal/worker"
)

const shutdownTimeout = 30 * time.Second

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger(log.ComponentApp)
	cfg := cli.LoadAndValidateConfig(logger)

	if err := run(cfg, logger); err != nil {
		logger.Error("Server exited with error", log.FieldError, err)
		os.Exit(1)
	}
	logger.Info("Server stopped gracefully")
}

func run(cfg *config.Config, logger *log.Logger) error {
	ctx, stop := cli.SignalContext(logger)
	defer stop()

	backendCfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		return err
	}
	store, err := backend.NewFactory(logger.WithComponent(log.ComponentBackend).Logger).CreateBackend(ctx, backendCfg)
	if err != nil {
		return err
	}
	defer func() {
		if store.Cleanup == nil {
			return
		}
		if err := store.Cleanup(); err != nil {
			logger.Error("Failed to close state backend", log.FieldError, err)
		}
	}()

	center := notify.NewCenter(cfg.BannerTTL, logger)
	notifiers := notify.Multi{center}
	var relay *notify.SMSRelay
	if cfg.AMQPEnabled() {
		client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Warn("AMQP unavailable, sms relay disabled", log.FieldError, err)
		} else {
			defer client.Close()
			relay = notify.NewSMSRelay(client, notify.DefaultRelayBuffer, logger)
			notifiers = append(notifiers, relay)
			logger.Info("SMS relay enabled", "exchange", cfg.AMQPExchange, "queue", cfg.AMQPQueue)
		}
	}

	captureSvc := newCaptureService(ctx, cfg, logger)

	manager, err := services.NewFinanceManager(ctx, store.Store,
		services.WithNotifier(notifiers),
		services.WithLogger(logger))
	if err != nil {
		return err
	}

	srv := apphttp.NewServer(":"+cfg.Port, apphttp.Deps{
		Manager:        manager,
		Notices:        center,
		Capture:        captureSvc,
		Ready:          store.Ready,
		Logger:         logger,
		MaxUploadBytes: cfg.MaxUploadBytes,
	})

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("Starting finhealth server",
			"port", cfg.Port,
			"backend", cfg.StateBackend,
			"capture", captureSvc.Configured())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	g.Go(func() error {
		return worker.NewImpulseScanner(manager, cfg.ImpulseScanInterval, logger).Run(gctx)
	})
	g.Go(func() error {
		return cache.NewJanitor(time.Minute, captureSvc.SpeechCache()).Run(gctx)
	})
	if relay != nil {
		g.Go(func() error {
			return relay.Run(gctx)
		})
	}
	return g.Wait()
}

func newCaptureService(ctx context.Context, cfg *config.Config, logger *log.Logger) *capture.Service {
	if !cfg.CaptureEnabled() {
		logger.Info("Capture disabled - no GEMINI_API_KEY provided")
		return capture.NewService(capture.Backend{}, cfg.CaptureTimeout, logger)
	}
	client, err := google.New(ctx, google.Config{
		APIKey:   cfg.GeminiAPIKey,
		Model:    cfg.GeminiModel,
		Language: cfg.TTSLanguage,
		Voice:    cfg.TTSVoice,
	})
	if err != nil {
		logger.Error("Failed to initialize capture client", log.FieldError, err)
		return capture.NewService(capture.Backend{}, cfg.CaptureTimeout, logger)
	}
	return capture.NewService(capture.Backend{
		Receipts: client,
		Voice:    client,
		Parser:   client,
		Speaker:  client,
	}, cfg.CaptureTimeout, logger)
}

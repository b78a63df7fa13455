package main

import (
	"context"
	"errors"
	"os"

	"finhealth/internal/amqp"
	"finhealth/internal/cli"
	"finhealth/internal/log"
	"finhealth/internal/worker"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger(log.ComponentWorker)
	logger.Info("Starting notify-worker")

	cfg := cli.LoadAndValidateConfig(logger)
	if !cfg.AMQPEnabled() {
		logger.Error("AMQP_URL is required for the notify worker",
			"error_type", log.ErrorTypeConfiguration)
		os.Exit(1)
	}

	client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		logger.Error("Failed to initialize AMQP client", log.FieldError, err)
		os.Exit(1)
	}
	defer client.Close()

	ctx, stop := cli.SignalContext(logger)
	defer stop()

	// A nil sender delivers through worker.LogSender.
	sms := worker.NewSMSWorker(nil, logger)
	if err := client.ConsumeSMS(ctx, sms.HandleSMSMessage); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Message consumption failed", log.FieldError, err)
		stop()
		client.Close()
		os.Exit(1)
	}
	logger.Info("Worker shutdown complete")
}

package worker

import (
	"context"
	"fmt"
	"strings"

	"finhealth/internal/amqp"
	"finhealth/internal/log"
)

// SMSSender delivers a text message to a phone number.
type SMSSender interface {
	Send(ctx context.Context, to, body string) error
}

// LogSender is the default gateway: it writes the message to the log.
type LogSender struct {
	Logger *log.Logger
}

func (s LogSender) Send(ctx context.Context, to, body string) error {
	s.Logger.InfoContext(ctx, fmt.Sprintf("SMS to %s: %s", to, body))
	return nil
}

// SMSWorker consumes queued SMS notifications and hands them to a sender.
type SMSWorker struct {
	sender SMSSender
	logger *log.Logger
}

func NewSMSWorker(sender SMSSender, logger *log.Logger) *SMSWorker {
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	logger = logger.WithComponent(log.ComponentNotify)
	if sender == nil {
		sender = LogSender{Logger: logger}
	}
	return &SMSWorker{sender: sender, logger: logger}
}

// HandleSMSMessage processes a single message from AMQP. Messages without a
// recipient or body are dropped; a returned error requeues the message.
func (w *SMSWorker) HandleSMSMessage(ctx context.Context, msg *amqp.SMSMessage) error {
	if msg == nil || strings.TrimSpace(msg.To) == "" || strings.TrimSpace(msg.Body) == "" {
		w.logger.WarnContext(ctx, "Dropping malformed sms message")
		return nil
	}

	w.logger.InfoContext(ctx, "Processing sms message",
		"to", msg.To,
		"timestamp", msg.Timestamp)

	if err := w.sender.Send(ctx, msg.To, msg.Body); err != nil {
		return fmt.Errorf("send sms: %w", err)
	}
	return nil
}

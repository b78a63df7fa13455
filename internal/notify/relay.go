package notify

import (
	"context"
	"strings"

	"finhealth/internal/log"
)

// DefaultRelayBuffer is how many SMS notices may wait for the publisher.
const DefaultRelayBuffer = 64

// SMSPublisher is implemented by the AMQP client.
type SMSPublisher interface {
	PublishSMS(ctx context.Context, to, body string) error
}

type sms struct {
	to, body string
}

// SMSRelay forwards banners that carry a recipient as text messages.
// Notify only enqueues; Run does the publishing. When the queue is full the
// notice is dropped with a warning.
type SMSRelay struct {
	publisher SMSPublisher
	queue     chan sms
	logger    *log.Logger
}

func NewSMSRelay(p SMSPublisher, buffer int, logger *log.Logger) *SMSRelay {
	if buffer <= 0 {
		buffer = DefaultRelayBuffer
	}
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	return &SMSRelay{
		publisher: p,
		queue:     make(chan sms, buffer),
		logger:    logger.WithComponent(log.ComponentNotify),
	}
}

func (r *SMSRelay) Notify(ctx context.Context, n Notice) {
	if r == nil || r.publisher == nil {
		return
	}
	if n.Kind != KindBanner || strings.TrimSpace(n.Recipient) == "" {
		return
	}
	select {
	case r.queue <- sms{to: n.Recipient, body: n.Message}:
	default:
		r.logger.WarnContext(ctx, "SMS relay queue full, dropping notification",
			"to", n.Recipient,
			"queue_size", cap(r.queue))
	}
}

// Run publishes queued messages until ctx is cancelled. Publish failures are
// logged and the message is not retried.
func (r *SMSRelay) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			if n := len(r.queue); n > 0 {
				r.logger.WarnContext(ctx, "SMS relay stopped with pending notifications", "pending", n)
			}
			return nil
		case m := <-r.queue:
			if err := r.publisher.PublishSMS(ctx, m.to, m.body); err != nil {
				r.logger.WarnContext(ctx, "Failed to relay sms notification",
					"to", m.to,
					log.FieldError, err)
			}
		}
	}
}

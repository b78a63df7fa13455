// Package notify implements the ephemeral user-facing notification surface.
package notify

import (
	"context"
	"sync"
	"time"

	"finhealth/internal/log"
)

const (
	// KindBanner is a transient message that disappears on its own.
	KindBanner Kind = "banner"
	// KindAlert is a blocking confirmation the user has to acknowledge.
	KindAlert Kind = "alert"
)

// DefaultBannerTTL is how long a banner stays visible.
const DefaultBannerTTL = 5 * time.Second

type (
	Kind string

	Notice struct {
		Kind    Kind      `json:"kind"`
		Message string    `json:"message"`
		At      time.Time `json:"at"`
		// Recipient is the contact handle for relayed notices, if any.
		Recipient string `json:"-"`
	}

	Notifier interface {
		Notify(ctx context.Context, n Notice)
	}
)

// Multi fans a notice out to every non-nil notifier.
type Multi []Notifier

func (m Multi) Notify(ctx context.Context, n Notice) {
	for _, nt := range m {
		if nt != nil {
			nt.Notify(ctx, n)
		}
	}
}

// View is what the presentation layer renders.
type View struct {
	Banner *Notice `json:"banner,omitempty"`
	Alert  *Notice `json:"alert,omitempty"`
}

// Center holds at most one banner and the latest alert. A new banner
// replaces the prior one; banners expire after ttl.
type Center struct {
	mu     sync.Mutex
	ttl    time.Duration
	now    func() time.Time
	banner *Notice
	alert  *Notice
	shown  int
	logger *log.Logger
}

func NewCenter(ttl time.Duration, logger *log.Logger) *Center {
	if ttl <= 0 {
		ttl = DefaultBannerTTL
	}
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	return &Center{ttl: ttl, now: time.Now, logger: logger.WithComponent(log.ComponentNotify)}
}

// WithClock swaps the time source, used by tests.
func (c *Center) WithClock(now func() time.Time) *Center {
	c.now = now
	return c
}

func (c *Center) Notify(ctx context.Context, n Notice) {
	if n.At.IsZero() {
		n.At = c.now()
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	switch n.Kind {
	case KindBanner:
		c.banner = &n
		c.shown++
	default:
		c.alert = &n
	}
	c.logger.InfoContext(ctx, "Notification shown", "kind", n.Kind, "message", n.Message)
}

// Current returns the visible banner (if not expired) and the latest alert.
func (c *Center) Current() View {
	c.mu.Lock()
	defer c.mu.Unlock()

	var v View
	if c.banner != nil {
		if c.now().Sub(c.banner.At) < c.ttl {
			b := *c.banner
			v.Banner = &b
		} else {
			c.banner = nil
		}
	}
	if c.alert != nil {
		a := *c.alert
		v.Alert = &a
	}
	return v
}

// DismissAlert clears the alert once the user acknowledged it.
func (c *Center) DismissAlert() {
	c.mu.Lock()
	c.alert = nil
	c.mu.Unlock()
}

// BannersShown counts banners displayed since start.
func (c *Center) BannersShown() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.shown
}

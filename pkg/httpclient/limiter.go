package httpclient

import (
	"context"
	"net/url"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// HostLimiter wraps a Client and spaces requests to the same host by a
// minimum delay. Requests to different hosts do not wait for each other.
type HostLimiter struct {
	next  Client
	delay time.Duration

	mu       sync.Mutex
	delays   map[string]time.Duration
	limiters map[string]*rate.Limiter
}

// NewHostLimiter wraps next. delay is the default spacing per host; zero
// disables throttling for hosts without an explicit delay.
func NewHostLimiter(next Client, delay time.Duration) *HostLimiter {
	return &HostLimiter{
		next:     next,
		delay:    delay,
		delays:   make(map[string]time.Duration),
		limiters: make(map[string]*rate.Limiter),
	}
}

// SetHostDelay overrides the spacing for host. A longer delay already set for
// the host is kept.
func (h *HostLimiter) SetHostDelay(host string, delay time.Duration) {
	host = normalizeHost(host)
	if host == "" {
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	if cur, ok := h.delays[host]; ok && cur >= delay {
		return
	}
	h.delays[host] = delay
	if lim, ok := h.limiters[host]; ok {
		lim.SetLimit(limitFor(delay))
	}
}

// Get waits for the host's turn, then performs the request.
func (h *HostLimiter) Get(ctx context.Context, rawURL string, headers map[string]string) (Response, error) {
	if lim := h.limiter(hostOf(rawURL)); lim != nil {
		if err := lim.Wait(ctx); err != nil {
			return nil, err
		}
	}
	return h.next.Get(ctx, rawURL, headers)
}

func (h *HostLimiter) limiter(host string) *rate.Limiter {
	if host == "" {
		return nil
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	if lim, ok := h.limiters[host]; ok {
		return lim
	}
	delay, ok := h.delays[host]
	if !ok {
		delay = h.delay
	}
	lim := rate.NewLimiter(limitFor(delay), 1)
	h.limiters[host] = lim
	return lim
}

func limitFor(delay time.Duration) rate.Limit {
	if delay <= 0 {
		return rate.Inf
	}
	return rate.Every(delay)
}

// HostOf returns the lower-cased host of rawURL, or "" when it has none.
func HostOf(rawURL string) string { return hostOf(rawURL) }

func hostOf(rawURL string) string {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return ""
	}
	return normalizeHost(u.Host)
}

func normalizeHost(host string) string {
	return strings.ToLower(strings.TrimSpace(host))
}

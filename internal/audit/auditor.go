// Package audit resolves the country of API clients off the request path.
// Lookups are queued to a fixed pool of workers; when the queue is full the
// lookup is dropped rather than slowing the request down.
package audit

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/josh-kwaku/payments-processing/internal/config"
	"github.com/josh-kwaku/payments-processing/internal/metrics"
)

var ErrLookupFailed = errors.New("geolocation lookup failed")

// Lookup is one client address waiting to be resolved.
type Lookup struct {
	IP            string
	CorrelationID string
	ClientID      string
}

// Location is the subset of an ip-api.com style response the audit log
// records.
type Location struct {
	Status      string `json:"status"`
	Message     string `json:"message,omitempty"`
	Country     string `json:"country"`
	CountryCode string `json:"countryCode"`
}

type Auditor struct {
	providerURL string
	client      *http.Client
	logger      *slog.Logger
	workers     int

	// mu guards closed; Submit sends under the read lock so Stop never
	// closes the queue mid-send.
	mu     sync.RWMutex
	closed bool
	queue  chan Lookup
	wg     sync.WaitGroup
}

func NewAuditor(cfg config.AuditConfig, logger *slog.Logger) *Auditor {
	workers := cfg.Workers
	if workers <= 0 {
		workers = 1
	}
	size := cfg.QueueSize
	if size <= 0 {
		size = 1
	}

	return &Auditor{
		providerURL: strings.TrimRight(cfg.ProviderURL, "/"),
		client: &http.Client{
			Timeout:   cfg.Timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		logger:  logger,
		workers: workers,
		queue:   make(chan Lookup, size),
	}
}

// Start launches the workers. They exit once ctx is done or Stop has drained
// the queue.
func (a *Auditor) Start(ctx context.Context) {
	a.logger.Info("client audit started", "workers", a.workers, "queue_size", cap(a.queue))
	for range a.workers {
		a.wg.Add(1)
		go func() {
			defer a.wg.Done()
			a.work(ctx)
		}()
	}
}

// Stop closes the queue and waits for the workers to finish.
func (a *Auditor) Stop() {
	a.mu.Lock()
	if !a.closed {
		a.closed = true
		close(a.queue)
	}
	a.mu.Unlock()

	a.wg.Wait()
	a.logger.Info("client audit stopped")
}

// Submit queues a lookup and reports whether it was accepted. Local
// addresses are never looked up, and nothing is accepted after Stop.
func (a *Auditor) Submit(l Lookup) bool {
	if IsLocalAddress(l.IP) {
		return false
	}

	a.mu.RLock()
	defer a.mu.RUnlock()
	if a.closed {
		return false
	}

	select {
	case a.queue <- l:
		return true
	default:
		metrics.IncAuditDropped()
		a.logger.Warn("client audit queue full, lookup dropped",
			"correlation_id", l.CorrelationID,
			"ip", l.IP,
		)
		return false
	}
}

func (a *Auditor) work(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case l, ok := <-a.queue:
			if !ok {
				return
			}
			a.audit(ctx, l)
		}
	}
}

func (a *Auditor) audit(ctx context.Context, l Lookup) {
	log := a.logger.With("correlation_id", l.CorrelationID)
	if l.ClientID != "" {
		log = log.With("client_id", l.ClientID)
	}

	loc, err := a.Resolve(ctx, l.IP)
	if err != nil {
		log.Warn("client geolocation failed", "ip", l.IP, "error", err)
		return
	}

	log.Info("client location",
		"ip", l.IP,
		"country", loc.Country,
		"countryCode", loc.CountryCode,
	)
}

// Resolve asks the provider for the location of ip.
func (a *Auditor) Resolve(ctx context.Context, ip string) (*Location, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, a.providerURL+"/"+ip, nil)
	if err != nil {
		return nil, fmt.Errorf("Resolve: %w", err)
	}

	resp, err := a.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("Resolve: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil, fmt.Errorf("Resolve: %w: status %d", ErrLookupFailed, resp.StatusCode)
	}

	var loc Location
	if err := json.NewDecoder(io.LimitReader(resp.Body, 64<<10)).Decode(&loc); err != nil {
		return nil, fmt.Errorf("Resolve: decode: %w", err)
	}
	if loc.Status != "" && loc.Status != "success" {
		return nil, fmt.Errorf("Resolve: %w: %s", ErrLookupFailed, loc.Message)
	}
	return &loc, nil
}

// IsLocalAddress reports whether ip is a loopback, unspecified or private
// address, or not an address at all.
func IsLocalAddress(ip string) bool {
	parsed := net.ParseIP(ip)
	if parsed == nil {
		return true
	}
	return parsed.IsLoopback() || parsed.IsUnspecified() || parsed.IsPrivate() ||
		parsed.IsLinkLocalUnicast()
}

// Package mews talks to the PMS reservation API over HTTP.
package mews

import (
	"context"
	crand "crypto/rand"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"hotel_pms/internal/adapters/observability"
	"hotel_pms/internal/domain"
)

var _ domain.PMSClient = (*Client)(nil)

const service = "mews"

type Client struct {
	base    string
	hc      *http.Client
	key     string
	rl      *rate.Limiter
	retries int
}

// New builds a client. retries is the number of extra attempts made for 429
// and 5xx responses before the call is reported as failed.
func New(base, key string, rps, retries int) (*Client, error) {
	if base == "" {
		return nil, fmt.Errorf("PMS base URL is required")
	}
	if rps <= 0 {
		rps = 5
	}
	if retries < 0 {
		retries = 0
	}
	return &Client{
		base:    strings.TrimRight(base, "/"),
		hc:      &http.Client{Timeout: 20 * time.Second},
		key:     key,
		rl:      rate.NewLimiter(rate.Limit(rps), rps),
		retries: retries,
	}, nil
}

// ---- Public API ----

func (c *Client) ListReservations(ctx context.Context, checkin, checkout time.Time) ([]domain.ReservationRecord, error) {
	q := url.Values{}
	q.Set("checkin", checkin.Format("2006-01-02"))
	q.Set("checkout", checkout.Format("2006-01-02"))
	var out []domain.ReservationRecord
	if err := c.get(ctx, "reservations", c.base+"/reservations?"+q.Encode(), &out); err != nil {
		return nil, &domain.ExternalError{Op: "listReservations", Err: err}
	}
	return out, nil
}

func (c *Client) GetReservation(ctx context.Context, id string) (domain.ReservationRecord, error) {
	var out domain.ReservationRecord
	if err := c.get(ctx, "reservation", c.base+"/reservations/"+url.PathEscape(id), &out); err != nil {
		return domain.ReservationRecord{}, &domain.ExternalError{Op: "getReservation", Err: err}
	}
	return out, nil
}

func (c *Client) GetGuest(ctx context.Context, id string) (domain.GuestRecord, error) {
	var out domain.GuestRecord
	if err := c.get(ctx, "guest", c.base+"/guests/"+url.PathEscape(id), &out); err != nil {
		return domain.GuestRecord{}, &domain.ExternalError{Op: "getGuest", Err: err}
	}
	return out, nil
}

// ---- Internals ----

var (
	ErrNotFound     = errors.New("pms: not found")
	ErrUnauthorized = errors.New("pms: unauthorized")
	ErrForbidden    = errors.New("pms: forbidden")
)

// get performs a GET with client-side rate limiting, retries, and JSON decode into out.
// Retries on 429 and transient 5xx, honoring Retry-After when provided.
func (c *Client) get(ctx context.Context, endpoint, url string, out any) error {
	// client-side rate limiting
	if err := c.rl.Wait(ctx); err != nil {
		return err
	}

	var lastErr error
	for i := 0; i <= c.retries; i++ {
		last := i == c.retries

		// build a fresh request each attempt
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return err
		}
		if c.key != "" {
			req.Header.Set("X-API-Key", c.key)
		}
		req.Header.Set("Accept", "application/json")
		req.Header.Set("User-Agent", "hotel-pms/1.0")

		start := time.Now()
		resp, err := c.hc.Do(req)
		if err != nil {
			observability.ObserveExternal(service, endpoint, 0, time.Since(start))
			// network error or context canceled
			if ctx.Err() != nil {
				return ctx.Err()
			}
			lastErr = err
			if !last && sleepCtx(ctx, backoff(i)) {
				continue
			}
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return lastErr
		}
		observability.ObserveExternal(service, endpoint, resp.StatusCode, time.Since(start))

		switch resp.StatusCode {
		case http.StatusOK:
			err := json.NewDecoder(resp.Body).Decode(out)
			resp.Body.Close()
			if err != nil {
				return fmt.Errorf("decode %s: %w", endpoint, err)
			}
			return nil

		case http.StatusNotFound:
			resp.Body.Close()
			return ErrNotFound

		case http.StatusUnauthorized:
			resp.Body.Close()
			return ErrUnauthorized

		case http.StatusForbidden:
			resp.Body.Close()
			return ErrForbidden

		case http.StatusTooManyRequests, http.StatusInternalServerError,
			http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
			// Prefer server-provided Retry-After; otherwise exponential backoff.
			wait := retryAfter(resp)
			resp.Body.Close()
			if wait == 0 {
				wait = backoff(i)
			}
			lastErr = fmt.Errorf("remote %d", resp.StatusCode)
			if !last && sleepCtx(ctx, wait) {
				continue
			}
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return lastErr

		default:
			// read a small error body for diagnostics
			b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
			resp.Body.Close()
			return fmt.Errorf("bad status %d: %s", resp.StatusCode, strings.TrimSpace(string(b)))
		}
	}

	return lastErr
}

// sleepCtx waits for d or returns early if ctx is done.
func sleepCtx(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return true
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

// retryAfter parses Retry-After header (seconds or HTTP-date). Returns 0 if absent/invalid.
func retryAfter(resp *http.Response) time.Duration {
	h := resp.Header.Get("Retry-After")
	if h == "" {
		return 0
	}
	if secs, err := strconv.Atoi(strings.TrimSpace(h)); err == nil && secs >= 0 {
		return time.Duration(secs) * time.Second
	}
	if t, err := http.ParseTime(h); err == nil {
		if d := time.Until(t); d > 0 {
			return d
		}
	}
	return 0
}

// backoff returns an exponential delay (200ms, 400ms, 800ms...) with up to
// +50% jitter.
func backoff(i int) time.Duration {
	base := time.Duration(1<<i) * 200 * time.Millisecond
	var b [1]byte
	if _, err := crand.Read(b[:]); err != nil {
		return base
	}
	f := float64(b[0]) / 255.0
	j := time.Duration(0.5 * f * float64(base))
	return base + j
}

package app_test

import (
	"context"
	"errors"
	"sync"
	"time"

	"hotel_pms/internal/domain"
)

// ---- fakes ----

// fakePMS serves canned records. Failing ids answer with an external error.
type fakePMS struct {
	mu           sync.Mutex
	reservations map[string]domain.ReservationRecord
	guests       map[string]domain.GuestRecord
	listing      []domain.ReservationRecord
	fail         map[string]bool // reservation or guest ids; "list" for ListReservations
	calls        []string
}

func newFakePMS() *fakePMS {
	return &fakePMS{
		reservations: map[string]domain.ReservationRecord{},
		guests:       map[string]domain.GuestRecord{},
		fail:         map[string]bool{},
	}
}

var errUnavailable = errors.New("remote 503")

func (p *fakePMS) ListReservations(_ context.Context, checkin, checkout time.Time) ([]domain.ReservationRecord, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls = append(p.calls, "list")
	if p.fail["list"] {
		return nil, &domain.ExternalError{Op: "listReservations", Err: errUnavailable}
	}
	return append([]domain.ReservationRecord(nil), p.listing...), nil
}

func (p *fakePMS) GetReservation(_ context.Context, id string) (domain.ReservationRecord, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls = append(p.calls, "reservation:"+id)
	if p.fail[id] {
		return domain.ReservationRecord{}, &domain.ExternalError{Op: "getReservation", Err: errUnavailable}
	}
	r, ok := p.reservations[id]
	if !ok {
		return domain.ReservationRecord{}, &domain.ExternalError{Op: "getReservation", Err: errors.New("not found")}
	}
	return r, nil
}

func (p *fakePMS) GetGuest(_ context.Context, id string) (domain.GuestRecord, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls = append(p.calls, "guest:"+id)
	if p.fail[id] {
		return domain.GuestRecord{}, &domain.ExternalError{Op: "getGuest", Err: errUnavailable}
	}
	g, ok := p.guests[id]
	if !ok {
		return domain.GuestRecord{}, &domain.ExternalError{Op: "getGuest", Err: errors.New("not found")}
	}
	return g, nil
}

func (p *fakePMS) guestCalls() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	n := 0
	for _, c := range p.calls {
		if len(c) > 6 && c[:6] == "guest:" {
			n++
		}
	}
	return n
}

// fakeCache holds values as-is; Get only fills *domain.HotelGuestsView.
type fakeCache struct {
	mu    sync.Mutex
	store map[string]any
	dels  []string
}

func (c *fakeCache) Get(_ context.Context, key string, dst any) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.store[key]
	if !ok {
		return false, nil
	}
	if d, ok := dst.(*domain.HotelGuestsView); ok {
		*d = v.(domain.HotelGuestsView)
	}
	return true, nil
}

func (c *fakeCache) Set(_ context.Context, key string, v any, _ int) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.store == nil {
		c.store = map[string]any{}
	}
	c.store[key] = v
	return nil
}

func (c *fakeCache) Del(_ context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.store, key)
	c.dels = append(c.dels, key)
	return nil
}

// ---- helpers ----

func ptr[T any](v T) *T { return &v }

func day(s string) time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return t
}

func reservation(id, guestID, status, in, out string) domain.ReservationRecord {
	return domain.ReservationRecord{
		HotelID:       "pms-hotel-1",
		ReservationID: id,
		GuestID:       guestID,
		Status:        status,
		CheckInDate:   in,
		CheckOutDate:  out,
	}
}

func events(ids ...string) domain.WebhookData {
	var d domain.WebhookData
	for _, id := range ids {
		d.Events = append(d.Events, domain.WebhookEvent{Value: domain.WebhookEventValue{ReservationID: id}})
	}
	return d
}

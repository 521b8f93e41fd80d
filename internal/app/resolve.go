package app

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"hotel_pms/internal/domain"
)

// ResolvedGuest pairs an incoming sighting with the local record it matches,
// if any. An empty Key means the guest has no stable identity and must get a
// record of its own.
type ResolvedGuest struct {
	Key      string
	Existing *domain.Guest
	Incoming NormalizedGuest
}

type ResolvedStay struct {
	HotelID  int64
	Existing *domain.Stay
	Incoming NormalizedStay
}

type identityLookup interface {
	GetGuest(ctx context.Context, id int64) (domain.Guest, error)
	FindGuestByPhone(ctx context.Context, phone string) (domain.Guest, error)
	FindStay(ctx context.Context, hotelID int64, reservationID string) (domain.Stay, error)
}

// Resolver decides create-vs-update. Guests match on normalized phone only;
// stays match on (hotel, reservation id).
type Resolver struct {
	lookup identityLookup
}

func NewResolver(l identityLookup) *Resolver { return &Resolver{lookup: l} }

func (r *Resolver) ResolveStay(ctx context.Context, hotelID int64, s NormalizedStay) (ResolvedStay, error) {
	rs := ResolvedStay{HotelID: hotelID, Incoming: s}
	st, err := r.lookup.FindStay(ctx, hotelID, s.ReservationID)
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return rs, nil
	case err != nil:
		return rs, &domain.PersistenceError{Op: "find stay", Err: err}
	}
	rs.Existing = &st
	return rs, nil
}

// ResolveGuest matches g against local guests. A guest without a usable phone
// is never matched to another guest; it only keeps the record already tied to
// the same reservation, either pending in b or stored.
func (r *Resolver) ResolveGuest(ctx context.Context, b *Batch, rs ResolvedStay, g NormalizedGuest) (ResolvedGuest, error) {
	rg := ResolvedGuest{Incoming: g}

	if g.Phone != nil {
		rg.Key = phoneKey(*g.Phone)
		cur, err := r.lookup.FindGuestByPhone(ctx, *g.Phone)
		switch {
		case errors.Is(err, domain.ErrNotFound):
			return rg, nil
		case err != nil:
			return rg, &domain.PersistenceError{Op: "find guest", Err: err}
		}
		rg.Existing = &cur
		return rg, nil
	}

	if key, ok := b.stayGuestKey(rs.HotelID, rs.Incoming.ReservationID); ok && !isPhoneKey(key) {
		rg.Key = key
		return rg, nil
	}

	if rs.Existing == nil {
		return rg, nil
	}
	cur, err := r.lookup.GetGuest(ctx, rs.Existing.GuestID)
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return rg, nil
	case err != nil:
		return rg, &domain.PersistenceError{Op: "get guest", Err: err}
	}
	if cur.Phone == nil {
		rg.Key = guestKey(cur)
		rg.Existing = &cur
	}
	return rg, nil
}

// ReuseGuest resolves the guest already attached to a stored stay without
// asking the PMS. It returns domain.ErrNotFound if that guest is gone.
func (r *Resolver) ReuseGuest(ctx context.Context, st domain.Stay) (ResolvedGuest, error) {
	cur, err := r.lookup.GetGuest(ctx, st.GuestID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return ResolvedGuest{}, err
		}
		return ResolvedGuest{}, &domain.PersistenceError{Op: "get guest", Err: err}
	}
	return ResolvedGuest{Key: guestKey(cur), Existing: &cur}, nil
}

func guestKey(g domain.Guest) string {
	if g.Phone != nil {
		return phoneKey(*g.Phone)
	}
	return "guest:" + strconv.FormatInt(g.ID, 10)
}

func phoneKey(phone string) string { return "phone:" + phone }

func isPhoneKey(k string) bool { return strings.HasPrefix(k, "phone:") }

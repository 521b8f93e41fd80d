package app

import (
	"context"
	"fmt"
	"time"

	"hotel_pms/internal/domain"
)

type QueryService struct {
	store    domain.Store
	cache    domain.Cache
	registry *Registry
	cacheTTL time.Duration
}

func NewQueryService(s domain.Store, c domain.Cache, reg *Registry, ttl time.Duration) *QueryService {
	return &QueryService{store: s, cache: c, registry: reg, cacheTTL: ttl}
}

// GuestsCacheKey is evicted by the adapters after every successful commit.
func GuestsCacheKey(hotelID int64) string { return fmt.Sprintf("guests:%d", hotelID) }

// HotelGuests returns the guests that have a stay at the hotel.
func (s *QueryService) HotelGuests(ctx context.Context, hotelID int64) (domain.HotelGuestsView, error) {
	key := GuestsCacheKey(hotelID)
	var out domain.HotelGuestsView
	if s.cache != nil {
		if ok, _ := s.cache.Get(ctx, key, &out); ok {
			return out, nil
		}
	}

	h, err := s.store.GetHotel(ctx, hotelID)
	if err != nil {
		return domain.HotelGuestsView{}, err
	}
	gs, err := s.store.ListHotelGuests(ctx, hotelID)
	if err != nil {
		return domain.HotelGuestsView{}, err
	}

	out = domain.HotelGuestsView{HotelID: h.ID, HotelName: h.Name, Guests: make([]domain.GuestView, 0, len(gs))}
	for _, g := range gs {
		out.Guests = append(out.Guests, domain.GuestView{Name: g.Name, Phone: g.Phone})
	}
	if s.cache != nil {
		_ = s.cache.Set(ctx, key, out, int(s.cacheTTL.Seconds()))
	}
	return out, nil
}

// StayBreakfast goes through the adapter of the hotel owning the stay.
func (s *QueryService) StayBreakfast(ctx context.Context, stayID int64) (domain.Tristate, error) {
	st, err := s.store.GetStay(ctx, stayID)
	if err != nil {
		return domain.Unknown, err
	}
	h, err := s.store.GetHotel(ctx, st.HotelID)
	if err != nil {
		return domain.Unknown, err
	}
	a, err := s.registry.Resolve(h.PMSVendor)
	if err != nil {
		return domain.Unknown, err
	}
	return a.StayIncludesBreakfast(ctx, st), nil
}

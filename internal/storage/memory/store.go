// Package memory is an in-process domain.Store with the same unique keys as
// the MySQL schema: one guest per phone, one stay per (hotel, reservation).
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"hotel_pms/internal/domain"
)

var _ domain.Store = (*Store)(nil)

type resKey struct {
	hotelID       int64
	reservationID string
}

type state struct {
	guests    map[int64]domain.Guest
	byPhone   map[string]int64
	stays     map[int64]domain.Stay
	byRes     map[resKey]int64
	nextGuest int64
	nextStay  int64
}

func (st *state) clone() *state {
	c := &state{
		guests:    make(map[int64]domain.Guest, len(st.guests)),
		byPhone:   make(map[string]int64, len(st.byPhone)),
		stays:     make(map[int64]domain.Stay, len(st.stays)),
		byRes:     make(map[resKey]int64, len(st.byRes)),
		nextGuest: st.nextGuest,
		nextStay:  st.nextStay,
	}
	for k, v := range st.guests {
		c.guests[k] = v
	}
	for k, v := range st.byPhone {
		c.byPhone[k] = v
	}
	for k, v := range st.stays {
		c.stays[k] = v
	}
	for k, v := range st.byRes {
		c.byRes[k] = v
	}
	return c
}

type Store struct {
	mu         sync.RWMutex
	hotels     map[int64]domain.Hotel
	nextHotel  int64
	st         *state
	failCommit error
}

func New() *Store {
	return &Store{
		hotels: make(map[int64]domain.Hotel),
		st: &state{
			guests:  make(map[int64]domain.Guest),
			byPhone: make(map[string]int64),
			stays:   make(map[int64]domain.Stay),
			byRes:   make(map[resKey]int64),
		},
	}
}

// AddHotel stores h, assigning an id when h.ID is zero.
func (s *Store) AddHotel(h domain.Hotel) domain.Hotel {
	s.mu.Lock()
	defer s.mu.Unlock()
	if h.ID == 0 {
		s.nextHotel++
		h.ID = s.nextHotel
	} else if h.ID > s.nextHotel {
		s.nextHotel = h.ID
	}
	s.hotels[h.ID] = h
	return h
}

// FailCommits makes every following ApplyBatch return err. Nil resets.
func (s *Store) FailCommits(err error) {
	s.mu.Lock()
	s.failCommit = err
	s.mu.Unlock()
}

func (s *Store) GetHotel(_ context.Context, id int64) (domain.Hotel, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	h, ok := s.hotels[id]
	if !ok {
		return domain.Hotel{}, domain.ErrNotFound
	}
	return h, nil
}

func (s *Store) ListHotels(_ context.Context) ([]domain.Hotel, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.Hotel, 0, len(s.hotels))
	for _, h := range s.hotels {
		out = append(out, h)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *Store) GetGuest(_ context.Context, id int64) (domain.Guest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	g, ok := s.st.guests[id]
	if !ok {
		return domain.Guest{}, domain.ErrNotFound
	}
	return g, nil
}

func (s *Store) FindGuestByPhone(_ context.Context, phone string) (domain.Guest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.st.byPhone[phone]
	if !ok {
		return domain.Guest{}, domain.ErrNotFound
	}
	return s.st.guests[id], nil
}

func (s *Store) GetStay(_ context.Context, id int64) (domain.Stay, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	st, ok := s.st.stays[id]
	if !ok {
		return domain.Stay{}, domain.ErrNotFound
	}
	return st, nil
}

func (s *Store) FindStay(_ context.Context, hotelID int64, reservationID string) (domain.Stay, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.st.byRes[resKey{hotelID, reservationID}]
	if !ok {
		return domain.Stay{}, domain.ErrNotFound
	}
	return s.st.stays[id], nil
}

func (s *Store) ListHotelGuests(_ context.Context, hotelID int64) ([]domain.Guest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	seen := map[int64]bool{}
	var out []domain.Guest
	for _, st := range s.st.stays {
		if st.HotelID != hotelID || seen[st.GuestID] {
			continue
		}
		seen[st.GuestID] = true
		if g, ok := s.st.guests[st.GuestID]; ok {
			out = append(out, g)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// Guests and Stays snapshot everything stored, ordered by id.
func (s *Store) Guests() []domain.Guest {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.Guest, 0, len(s.st.guests))
	for _, g := range s.st.guests {
		out = append(out, g)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (s *Store) Stays() []domain.Stay {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.Stay, 0, len(s.st.stays))
	for _, st := range s.st.stays {
		out = append(out, st)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// ApplyBatch works on a copy and swaps it in only when every write succeeded.
func (s *Store) ApplyBatch(_ context.Context, b domain.BatchWrite) (domain.Counts, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failCommit != nil {
		return domain.Counts{}, s.failCommit
	}

	next := s.st.clone()
	var c domain.Counts
	ids := make(map[string]int64, len(b.Guests))

	for _, gw := range b.Guests {
		target := int64(0)
		if gw.Phone != nil {
			target = next.byPhone[*gw.Phone] // unique phone: an insert becomes an update
		}
		if target == 0 && gw.ExistingID != 0 {
			if _, ok := next.guests[gw.ExistingID]; ok {
				target = gw.ExistingID
			}
		}
		if target == 0 {
			next.nextGuest++
			g := domain.Guest{ID: next.nextGuest, Name: gw.Name, Phone: gw.Phone, Country: gw.Country, Language: gw.Language}
			next.guests[g.ID] = g
			if g.Phone != nil {
				next.byPhone[*g.Phone] = g.ID
			}
			ids[gw.Key] = g.ID
			c.GuestsCreated++
			continue
		}

		cur := next.guests[target]
		upd := cur
		upd.Name = coalesce(gw.Name, cur.Name)
		upd.Phone = coalesce(gw.Phone, cur.Phone)
		upd.Country = coalesce(gw.Country, cur.Country)
		upd.Language = coalesce(gw.Language, cur.Language)
		if upd.Phone != nil {
			if other, ok := next.byPhone[*upd.Phone]; ok && other != target {
				return domain.Counts{}, fmt.Errorf("duplicate phone %s for guest %d", *upd.Phone, target)
			}
			next.byPhone[*upd.Phone] = target
		}
		if !sameGuest(cur, upd) {
			next.guests[target] = upd
			c.GuestsUpdated++
		}
		ids[gw.Key] = target
	}

	for _, sw := range b.Stays {
		guestID, ok := ids[sw.GuestKey]
		if !ok {
			return domain.Counts{}, fmt.Errorf("stay %s references unknown guest key %q", sw.PMSReservationID, sw.GuestKey)
		}
		k := resKey{sw.HotelID, sw.PMSReservationID}
		in := domain.Stay{
			HotelID:          sw.HotelID,
			GuestID:          guestID,
			PMSReservationID: sw.PMSReservationID,
			PMSGuestID:       sw.PMSGuestID,
			Status:           sw.Status,
			PMSStatus:        sw.PMSStatus,
			CheckIn:          sw.CheckIn,
			CheckOut:         sw.CheckOut,
			RoomNumber:       sw.RoomNumber,
		}
		id, exists := next.byRes[k]
		if !exists {
			next.nextStay++
			in.ID = next.nextStay
			next.stays[in.ID] = in
			next.byRes[k] = in.ID
			c.StaysCreated++
			continue
		}
		cur := next.stays[id]
		in.ID = id
		in.RoomNumber = coalesce(in.RoomNumber, cur.RoomNumber)
		if in.PMSGuestID == "" {
			in.PMSGuestID = cur.PMSGuestID
		}
		if !sameStay(cur, in) {
			next.stays[id] = in
			c.StaysUpdated++
		}
	}

	s.st = next
	return c, nil
}

func coalesce[T any](next, cur *T) *T {
	if next != nil {
		return next
	}
	return cur
}

func eqPtr[T comparable](a, b *T) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func sameGuest(a, b domain.Guest) bool {
	return eqPtr(a.Name, b.Name) && eqPtr(a.Phone, b.Phone) &&
		eqPtr(a.Country, b.Country) && eqPtr(a.Language, b.Language)
}

func sameStay(a, b domain.Stay) bool {
	return a.GuestID == b.GuestID && a.PMSGuestID == b.PMSGuestID &&
		a.Status == b.Status && a.PMSStatus == b.PMSStatus &&
		a.CheckIn.Equal(b.CheckIn) && a.CheckOut.Equal(b.CheckOut) &&
		eqPtr(a.RoomNumber, b.RoomNumber)
}

package app

import (
	"context"
	"errors"
	"strconv"

	"hotel_pms/internal/domain"
)

type stayKey struct {
	hotelID       int64
	reservationID string
}

// Batch accumulates the guest and stay changes of one unit of work (one
// webhook call or one sweep run) and commits them in a single transaction.
// A key seen twice is merged: later known values win, unknown values never
// erase known ones.
type Batch struct {
	guests     map[string]*domain.GuestWrite
	guestOrder []string
	stays      map[stayKey]*domain.StayWrite
	stayOrder  []stayKey
	anon       int
	skipped    int
}

func NewBatch() *Batch {
	return &Batch{
		guests: make(map[string]*domain.GuestWrite),
		stays:  make(map[stayKey]*domain.StayWrite),
	}
}

// AddGuest stages rg and returns the batch key stays must reference it by.
func (b *Batch) AddGuest(rg ResolvedGuest) string {
	key := rg.Key
	if key == "" {
		b.anon++
		key = "anon:" + strconv.Itoa(b.anon)
	}

	w, ok := b.guests[key]
	if !ok {
		w = &domain.GuestWrite{Key: key}
		if e := rg.Existing; e != nil {
			w.ExistingID = e.ID
			w.Name, w.Phone, w.Country, w.Language = e.Name, e.Phone, e.Country, e.Language
		}
		b.guests[key] = w
		b.guestOrder = append(b.guestOrder, key)
	}

	in := rg.Incoming
	w.Name = pick(w.Name, in.Name)
	w.Phone = pick(w.Phone, in.Phone)
	w.Country = pick(w.Country, in.Country)
	w.Language = pick(w.Language, in.Language)
	return key
}

func (b *Batch) AddStay(rs ResolvedStay, guestKey string) {
	in := rs.Incoming
	k := stayKey{hotelID: rs.HotelID, reservationID: in.ReservationID}

	w, ok := b.stays[k]
	if !ok {
		w = &domain.StayWrite{HotelID: rs.HotelID, PMSReservationID: in.ReservationID}
		if e := rs.Existing; e != nil {
			w.ExistingID = e.ID
			w.PMSGuestID = e.PMSGuestID
			w.RoomNumber = e.RoomNumber
		}
		b.stays[k] = w
		b.stayOrder = append(b.stayOrder, k)
	}

	w.GuestKey = guestKey
	if in.PMSGuestID != "" {
		w.PMSGuestID = in.PMSGuestID
	}
	w.Status = in.Status
	w.PMSStatus = in.PMSStatus
	w.CheckIn = in.CheckIn
	w.CheckOut = in.CheckOut
	w.RoomNumber = pick(w.RoomNumber, in.RoomNumber)
}

// Skip records a dropped record so it shows up in the commit counts.
func (b *Batch) Skip() { b.skipped++ }

func (b *Batch) Len() int { return len(b.stays) }

func (b *Batch) stayGuestKey(hotelID int64, reservationID string) (string, bool) {
	w, ok := b.stays[stayKey{hotelID: hotelID, reservationID: reservationID}]
	if !ok {
		return "", false
	}
	return w.GuestKey, true
}

// Write flattens the batch in first-seen order. Guests no stay refers to
// any more are dropped.
func (b *Batch) Write() domain.BatchWrite {
	used := make(map[string]bool, len(b.stays))
	out := domain.BatchWrite{Stays: make([]domain.StayWrite, 0, len(b.stayOrder))}
	for _, k := range b.stayOrder {
		w := b.stays[k]
		used[w.GuestKey] = true
		out.Stays = append(out.Stays, *w)
	}
	out.Guests = make([]domain.GuestWrite, 0, len(used))
	for _, k := range b.guestOrder {
		if used[k] || b.guests[k].ExistingID != 0 {
			out.Guests = append(out.Guests, *b.guests[k])
		}
	}
	return out
}

// Commit is all-or-nothing and is not retried.
func (b *Batch) Commit(ctx context.Context, s domain.Store) (domain.Counts, error) {
	if len(b.stays) == 0 && len(b.guests) == 0 {
		return domain.Counts{Skipped: b.skipped}, nil
	}
	counts, err := s.ApplyBatch(ctx, b.Write())
	if err != nil {
		if !errors.Is(err, domain.ErrPersistence) {
			err = &domain.PersistenceError{Op: "commit", Err: err}
		}
		return domain.Counts{Skipped: b.skipped}, err
	}
	counts.Skipped = b.skipped
	return counts, nil
}

func pick[T any](cur, next *T) *T {
	if next != nil {
		return next
	}
	return cur
}

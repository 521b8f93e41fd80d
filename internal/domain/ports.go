package domain

import (
	"context"
	"time"
)

// PMSClient is the external reservation system. Every call may fail with an
// *ExternalError independently of previous calls.
type PMSClient interface {
	ListReservations(ctx context.Context, checkin, checkout time.Time) ([]ReservationRecord, error)
	GetReservation(ctx context.Context, reservationID string) (ReservationRecord, error)
	GetGuest(ctx context.Context, guestID string) (GuestRecord, error)
}

type Store interface {
	// Read paths
	GetHotel(ctx context.Context, id int64) (Hotel, error)
	ListHotels(ctx context.Context) ([]Hotel, error)
	GetGuest(ctx context.Context, id int64) (Guest, error)
	FindGuestByPhone(ctx context.Context, phone string) (Guest, error)
	GetStay(ctx context.Context, id int64) (Stay, error)
	FindStay(ctx context.Context, hotelID int64, reservationID string) (Stay, error)
	ListHotelGuests(ctx context.Context, hotelID int64) ([]Guest, error)

	// ApplyBatch writes all guests and stays in one transaction. Nothing is
	// visible if it returns an error.
	ApplyBatch(ctx context.Context, b BatchWrite) (Counts, error)
}

type Cache interface {
	Get(ctx context.Context, key string, dst any) (bool, error)
	Set(ctx context.Context, key string, v any, ttlSec int) error
	Del(ctx context.Context, key string) error
}

// BatchWrite is the flattened content of one unit of work, in first-seen order.
type BatchWrite struct {
	Guests []GuestWrite
	Stays  []StayWrite
}

type GuestWrite struct {
	Key        string // batch-local identity; stays reference it through GuestKey
	ExistingID int64  // 0 when the guest is new
	Name       *string
	Phone      *string
	Country    *string
	Language   *string
}

type StayWrite struct {
	HotelID          int64
	ExistingID       int64
	GuestKey         string
	PMSReservationID string
	PMSGuestID       string
	Status           StayStatus
	PMSStatus        string
	CheckIn          time.Time
	CheckOut         time.Time
	RoomNumber       *int
}

type Counts struct {
	GuestsCreated int `json:"guests_created"`
	GuestsUpdated int `json:"guests_updated"`
	StaysCreated  int `json:"stays_created"`
	StaysUpdated  int `json:"stays_updated"`
	Skipped       int `json:"skipped"`
}

// Read models
type HotelGuestsView struct {
	HotelID   int64       `json:"hotel_id"`
	HotelName string      `json:"hotel_name"`
	Guests    []GuestView `json:"guests"`
}

type GuestView struct {
	Name  *string `json:"name"`
	Phone *string `json:"phone"`
}

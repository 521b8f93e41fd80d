package domain

import "time"

// Hotel is owned outside the reconciliation engine; only its identity and
// PMS binding are read here.
type Hotel struct {
	ID         int64
	Name       string
	City       string
	PMSVendor  string // e.g. "mews"
	PMSHotelID string // the hotel's id inside the PMS instance
}

type Guest struct {
	ID       int64
	Name     *string
	Phone    *string // E.164; nil when the PMS gave nothing usable
	Country  *string
	Language *string // never derived from Country
}

type StayStatus string

const (
	StayBefore    StayStatus = "before"
	StayInStay    StayStatus = "instay"
	StayAfter     StayStatus = "after"
	StayCancelled StayStatus = "cancelled"
	StayUnknown   StayStatus = "unknown"
)

type Stay struct {
	ID               int64
	HotelID          int64
	GuestID          int64
	PMSReservationID string
	PMSGuestID       string
	Status           StayStatus
	PMSStatus        string // raw reservation status as sent by the PMS
	CheckIn          time.Time
	CheckOut         time.Time
	RoomNumber       *int
}

// Tristate answers questions the PMS may not be able to answer.
type Tristate int

const (
	Unknown Tristate = iota
	Yes
	No
)

func TristateOf(b *bool) Tristate {
	switch {
	case b == nil:
		return Unknown
	case *b:
		return Yes
	default:
		return No
	}
}

// Ptr returns nil for Unknown so JSON renders it as null.
func (t Tristate) Ptr() *bool {
	switch t {
	case Yes:
		v := true
		return &v
	case No:
		v := false
		return &v
	}
	return nil
}

func (t Tristate) String() string {
	switch t {
	case Yes:
		return "yes"
	case No:
		return "no"
	}
	return "unknown"
}

package domain

// Raw PMS wire records. Every field may be missing or garbage; nothing here is
// trusted until it has gone through the normalizer.

type ReservationRecord struct {
	HotelID           string `json:"HotelId"`
	ReservationID     string `json:"ReservationId"`
	GuestID           string `json:"GuestId"`
	Status            string `json:"Status"`
	CheckInDate       string `json:"CheckInDate"`
	CheckOutDate      string `json:"CheckOutDate"`
	BreakfastIncluded *bool  `json:"BreakfastIncluded"`
	RoomNumber        *int   `json:"RoomNumber"`
}

type GuestRecord struct {
	GuestID  string  `json:"GuestId"`
	Name     *string `json:"Name"`
	Phone    *string `json:"Phone"`
	Country  *string `json:"Country"`
	Language *string `json:"Language,omitempty"`
}

// PMS reservation statuses.
const (
	PMSNotConfirmed = "not_confirmed"
	PMSBooked       = "booked"
	PMSInHouse      = "in_house"
	PMSCheckedOut   = "checked_out"
	PMSCancelled    = "cancelled"
	PMSNoShow       = "no_show"
)

var PMSStatuses = []string{PMSInHouse, PMSCheckedOut, PMSCancelled, PMSNoShow, PMSNotConfirmed, PMSBooked}

// WebhookPayload is the inbound body: {"hotel_id": 1, "data": {"Events": [...]}}.
type WebhookPayload struct {
	HotelID int64       `json:"hotel_id"`
	Data    WebhookData `json:"data"`
}

type WebhookData struct {
	Events []WebhookEvent `json:"Events"`
}

type WebhookEvent struct {
	Name  string            `json:"Name,omitempty"`
	Value WebhookEventValue `json:"Value"`
}

type WebhookEventValue struct {
	ReservationID string `json:"ReservationId"`
}

package app

import (
	"strings"
	"time"

	"github.com/nyaruka/phonenumbers"
	"golang.org/x/text/language"

	"hotel_pms/internal/domain"
)

const dateLayout = "2006-01-02"

// PMS status -> local stay status.
var statusMapping = map[string]domain.StayStatus{
	domain.PMSBooked:       domain.StayBefore,
	domain.PMSInHouse:      domain.StayInStay,
	domain.PMSCheckedOut:   domain.StayAfter,
	domain.PMSCancelled:    domain.StayCancelled,
	domain.PMSNoShow:       domain.StayUnknown,
	domain.PMSNotConfirmed: domain.StayUnknown,
}

// NormalizedGuest holds canonical guest attributes; a nil field is unknown.
type NormalizedGuest struct {
	PMSGuestID string
	Name       *string
	Phone      *string // E.164
	Country    *string // ISO 3166-1 alpha-2
	Language   *string // BCP 47
}

type NormalizedStay struct {
	PMSHotelID    string
	ReservationID string
	PMSGuestID    string
	Status        domain.StayStatus
	PMSStatus     string
	CheckIn       time.Time
	CheckOut      time.Time
	RoomNumber    *int
	Breakfast     domain.Tristate // never persisted
}

// Normalizer turns raw PMS records into canonical values. It has no side
// effects and never fails on guest data.
type Normalizer struct {
	// DefaultRegion is used for numbers written without a country prefix.
	// Empty means only international numbers are accepted.
	DefaultRegion string
}

func (n Normalizer) Guest(raw domain.GuestRecord) NormalizedGuest {
	return NormalizedGuest{
		PMSGuestID: strings.TrimSpace(raw.GuestID),
		Name:       cleanText(raw.Name),
		Phone:      n.phone(raw.Phone),
		Country:    country(raw.Country),
		Language:   languageTag(raw.Language),
	}
}

// Stay fails with a *domain.MalformedInputError for a record that cannot
// identify or date a reservation. The error concerns this record only.
func (n Normalizer) Stay(raw domain.ReservationRecord) (NormalizedStay, error) {
	id := strings.TrimSpace(raw.ReservationID)
	if id == "" {
		return NormalizedStay{}, &domain.MalformedInputError{Field: "ReservationId", Value: raw.ReservationID}
	}
	checkin, err := parseDate("CheckInDate", raw.CheckInDate)
	if err != nil {
		return NormalizedStay{}, err
	}
	checkout, err := parseDate("CheckOutDate", raw.CheckOutDate)
	if err != nil {
		return NormalizedStay{}, err
	}
	if checkout.Before(checkin) {
		return NormalizedStay{}, &domain.MalformedInputError{Field: "CheckOutDate", Value: raw.CheckOutDate}
	}

	pmsStatus := strings.ToLower(strings.TrimSpace(raw.Status))
	status, ok := statusMapping[pmsStatus]
	if !ok {
		status = domain.StayUnknown
	}

	var room *int
	if raw.RoomNumber != nil && *raw.RoomNumber > 0 {
		r := *raw.RoomNumber
		room = &r
	}

	return NormalizedStay{
		PMSHotelID:    strings.TrimSpace(raw.HotelID),
		ReservationID: id,
		PMSGuestID:    strings.TrimSpace(raw.GuestID),
		Status:        status,
		PMSStatus:     pmsStatus,
		CheckIn:       checkin,
		CheckOut:      checkout,
		RoomNumber:    room,
		Breakfast:     domain.TristateOf(raw.BreakfastIncluded),
	}, nil
}

// SweepStatus derives the status a stay gets during the daily sweep. The
// check-out test runs last, so a same-day check-in and check-out is "after".
func SweepStatus(s NormalizedStay, today time.Time) domain.StayStatus {
	day := DateOf(today)
	status := s.Status
	if s.CheckIn.Equal(day) {
		status = domain.StayInStay
	}
	if s.CheckOut.Equal(day) {
		status = domain.StayAfter
	}
	return status
}

// DateOf drops the clock part of t, keeping its calendar date, in UTC.
func DateOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func parseDate(field, v string) (time.Time, error) {
	t, err := time.Parse(dateLayout, strings.TrimSpace(v))
	if err != nil {
		return time.Time{}, &domain.MalformedInputError{Field: field, Value: v, Err: err}
	}
	return t, nil
}

func (n Normalizer) phone(raw *string) *string {
	s := strings.TrimSpace(deref(raw))
	if s == "" {
		return nil
	}
	num, err := phonenumbers.Parse(s, n.DefaultRegion)
	if err != nil || !phonenumbers.IsValidNumber(num) {
		return nil
	}
	e164 := phonenumbers.Format(num, phonenumbers.E164)
	return &e164
}

func country(raw *string) *string {
	s := strings.ToUpper(strings.TrimSpace(deref(raw)))
	if s == "" {
		return nil
	}
	r, err := language.ParseRegion(s)
	if err != nil || !r.IsCountry() {
		return nil
	}
	return ptrStr(r.String())
}

func languageTag(raw *string) *string {
	s := strings.TrimSpace(deref(raw))
	if s == "" {
		return nil
	}
	tag, err := language.Parse(s)
	if err != nil {
		return nil
	}
	return ptrStr(tag.String())
}

func cleanText(p *string) *string {
	return ptrStr(strings.TrimSpace(deref(p)))
}

func deref(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}

func ptrStr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

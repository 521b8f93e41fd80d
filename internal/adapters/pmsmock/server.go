// Package pmsmock serves random PMS data over HTTP so the engine can be run
// end to end without a real PMS account.
package pmsmock

import (
	"encoding/json"
	"math/rand"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"hotel_pms/internal/domain"
)

const DefaultHotelID = "851df8c8-90f2-4c4a-8e01-a4fc46b25178"

// Fixtures mirror what real PMS instances send: blanks, nulls and numbers
// that do not validate are all in there on purpose.
var (
	fixtureNames     = []*string{strp("John Doe"), strp("Jane Doe"), strp("John Smith"), strp("Jane Smith"), strp(""), strp("Izzy"), strp("Sara"), strp("Bob"), strp("Alice"), nil}
	fixturePhones    = []*string{strp("+442071234567"), nil, strp("+61491570156"), strp("Not available"), strp("+38977690399"), strp("")}
	fixtureCountries = []*string{strp("NL"), strp("DE"), strp("GG"), strp("GB"), strp(""), strp("CA"), strp("BR"), strp("CN"), nil, strp("AU")}
)

type Config struct {
	HotelID     string
	FailureRate float64 // 0..1, share of requests answered with 503
	Seed        int64   // 0 picks a time based seed
	Now         func() time.Time
}

// Server remembers every reservation and guest it has handed out, so asking
// twice for the same id gives the same answer.
type Server struct {
	cfg Config

	mu           sync.Mutex
	rnd          *rand.Rand
	reservations map[string]domain.ReservationRecord
	guests       map[string]domain.GuestRecord
}

func New(cfg Config) *Server {
	if cfg.HotelID == "" {
		cfg.HotelID = DefaultHotelID
	}
	if cfg.Seed == 0 {
		cfg.Seed = time.Now().UnixNano()
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &Server{
		cfg:          cfg,
		rnd:          rand.New(rand.NewSource(cfg.Seed)),
		reservations: make(map[string]domain.ReservationRecord),
		guests:       make(map[string]domain.GuestRecord),
	}
}

func (s *Server) Handler() http.Handler {
	m := chi.NewRouter()
	m.Use(chimw.Recoverer)
	m.Use(s.flaky)
	m.Get("/reservations", s.listReservations)
	m.Get("/reservations/{id}", s.getReservation)
	m.Get("/guests/{id}", s.getGuest)
	return m
}

func (s *Server) flaky(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		fail := s.cfg.FailureRate > 0 && s.rnd.Float64() < s.cfg.FailureRate
		s.mu.Unlock()
		if fail {
			log.Debug().Str("path", r.URL.Path).Msg("mock pms failing request")
			http.Error(w, "The API is not available.", http.StatusServiceUnavailable)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// listReservations ignores the date bounds, like the PMS sandbox does.
func (s *Server) listReservations(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	n := 1 + s.rnd.Intn(10)
	out := make([]domain.ReservationRecord, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, s.reservationLocked(uuid.NewString()))
	}
	s.mu.Unlock()
	writeJSON(w, out)
}

func (s *Server) getReservation(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	s.mu.Lock()
	res := s.reservationLocked(id)
	s.mu.Unlock()
	writeJSON(w, res)
}

func (s *Server) getGuest(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	s.mu.Lock()
	g, ok := s.guests[id]
	if !ok {
		g = domain.GuestRecord{
			GuestID: id,
			Name:    fixtureNames[s.rnd.Intn(len(fixtureNames))],
			Phone:   fixturePhones[s.rnd.Intn(len(fixturePhones))],
			Country: fixtureCountries[s.rnd.Intn(len(fixtureCountries))],
		}
		s.guests[id] = g
	}
	s.mu.Unlock()
	writeJSON(w, g)
}

func (s *Server) reservationLocked(id string) domain.ReservationRecord {
	if res, ok := s.reservations[id]; ok {
		return res
	}
	today := s.cfg.Now().UTC()
	breakfast := s.rnd.Intn(2) == 0
	room := 1 + s.rnd.Intn(100)
	res := domain.ReservationRecord{
		HotelID:           s.cfg.HotelID,
		ReservationID:     id,
		GuestID:           uuid.NewString(),
		Status:            domain.PMSStatuses[s.rnd.Intn(len(domain.PMSStatuses))],
		CheckInDate:       today.AddDate(0, 0, -s.rnd.Intn(11)).Format("2006-01-02"),
		CheckOutDate:      today.AddDate(0, 0, 1+s.rnd.Intn(10)).Format("2006-01-02"),
		BreakfastIncluded: &breakfast,
		RoomNumber:        &room,
	}
	s.reservations[id] = res
	return res
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("mock pms write failed")
	}
}

func strp(v string) *string { return &v }

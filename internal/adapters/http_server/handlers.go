package httpserver

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"
	"golang.org/x/text/cases"

	"hotel_pms/internal/app"
	"hotel_pms/internal/domain"
)

const maxWebhookBody = 1 << 20

type Handlers struct {
	Q        *app.QueryService
	Registry *app.Registry
	Hotels   HotelReader
}

// HotelReader is the slice of the store the webhook route needs.
type HotelReader interface {
	GetHotel(ctx context.Context, id int64) (domain.Hotel, error)
}

type problem struct {
	Type   string `json:"type"`
	Title  string `json:"title"`
	Status int    `json:"status"`
	Detail string `json:"detail,omitempty"`
}

func (s *Server) MountHandlers(h *Handlers) {
	s.mux.Get("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200); _, _ = w.Write([]byte("ok")) })
	s.mux.Post("/webhook/{pms}", h.webhook)
	s.mux.Get("/v1/hotels/{id}/guests", h.hotelGuests)
	s.mux.Get("/v1/stays/{id}/breakfast", h.stayBreakfast)
}

func writeProblem(w http.ResponseWriter, status int, title, detail string) {
	w.Header().Set("Content-Type", "application/problem+json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(problem{Type: "about:blank", Title: title, Status: status, Detail: detail}); err != nil {
		log.Error().Err(err).Msg("write JSON problem response failed")
	}
}

// writeError maps the engine's error taxonomy onto HTTP statuses.
func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrMalformed):
		writeProblem(w, http.StatusBadRequest, "Malformed Input", err.Error())
	case errors.Is(err, domain.ErrUnknownVendor), errors.Is(err, domain.ErrNotFound):
		writeProblem(w, http.StatusNotFound, "Not Found", err.Error())
	case errors.Is(err, domain.ErrTransient):
		writeProblem(w, http.StatusServiceUnavailable, "PMS Unavailable", "the PMS could not be reached, retry later")
	case errors.Is(err, domain.ErrPersistence):
		log.Error().Err(err).Msg("persistence failure")
		writeProblem(w, http.StatusInternalServerError, "Internal Error", "changes were not saved, retry later")
	default:
		log.Error().Err(err).Msg("unhandled error")
		writeProblem(w, http.StatusInternalServerError, "Internal Error", "")
	}
}

// calcETagAndBody marshals once and hashes once, returning both ETag and body.
func calcETagAndBody(v any) (string, []byte) {
	body, err := json.Marshal(v)
	if err != nil {
		log.Error().Err(err).Msg("failed to marshal object for ETag/body")
		return "", nil
	}
	sum := sha1.Sum(body)
	etag := `W/"` + hex.EncodeToString(sum[:]) + `"`
	return etag, body
}

func pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		writeProblem(w, http.StatusBadRequest, "Invalid ID", "id must be a positive number")
		return 0, false
	}
	return id, true
}

// webhook handles one PMS webhook call as one unit of work. Any failure means
// nothing was saved, so the PMS may safely deliver the same call again.
func (h *Handlers) webhook(w http.ResponseWriter, r *http.Request) {
	adapter, err := h.Registry.Resolve(chi.URLParam(r, "pms"))
	if err != nil {
		writeError(w, err)
		return
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBody+1))
	if err != nil {
		writeProblem(w, http.StatusBadRequest, "Malformed Input", "could not read body")
		return
	}
	if len(body) > maxWebhookBody {
		writeProblem(w, http.StatusRequestEntityTooLarge, "Payload Too Large", "")
		return
	}

	payload, err := adapter.CleanPayload(body)
	if err != nil {
		writeError(w, err)
		return
	}
	hotel, err := h.Hotels.GetHotel(r.Context(), payload.HotelID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			writeProblem(w, http.StatusNotFound, "Not Found", "hotel not found")
			return
		}
		writeError(w, &domain.PersistenceError{Op: "get hotel", Err: err})
		return
	}
	fold := cases.Fold()
	if fold.String(hotel.PMSVendor) != fold.String(adapter.Name()) {
		writeProblem(w, http.StatusNotFound, "Not Found", "hotel is not connected to "+adapter.Name())
		return
	}

	counts, err := adapter.HandleWebhookEvent(r.Context(), hotel, payload.Data)
	if err != nil {
		writeError(w, err)
		return
	}
	log.Debug().Int64("hotel", hotel.ID).Interface("counts", counts).Msg("webhook handled")

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("Thanks for the update."))
}

func (h *Handlers) hotelGuests(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	out, err := h.Q.HotelGuests(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}

	etag, body := calcETagAndBody(out)
	if inm := r.Header.Get("If-None-Match"); inm != "" && inm == etag {
		w.Header().Set("ETag", etag)
		w.WriteHeader(http.StatusNotModified)
		return
	}

	w.Header().Set("ETag", etag)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(body); err != nil {
		log.Error().Err(err).Msg("failed to write hotelGuests body")
	}
}

// stayBreakfast is answered live by the PMS; null means it could not say.
func (h *Handlers) stayBreakfast(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	t, err := h.Q.StayBreakfast(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(map[string]*bool{"breakfast": t.Ptr()}); err != nil {
		log.Error().Err(err).Msg("failed to write stayBreakfast body")
	}
}

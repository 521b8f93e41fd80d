package httpserver_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	httpserver "hotel_pms/internal/adapters/http_server"
	"hotel_pms/internal/app"
	"hotel_pms/internal/domain"
	"hotel_pms/internal/storage/memory"
)

type stubPMS struct {
	res   map[string]domain.ReservationRecord
	guest map[string]domain.GuestRecord
	err   error
}

func (p *stubPMS) ListReservations(ctx context.Context, _, _ time.Time) ([]domain.ReservationRecord, error) {
	return nil, p.err
}

func (p *stubPMS) GetReservation(ctx context.Context, id string) (domain.ReservationRecord, error) {
	if p.err != nil {
		return domain.ReservationRecord{}, &domain.ExternalError{Op: "getReservation", Err: p.err}
	}
	return p.res[id], nil
}

func (p *stubPMS) GetGuest(ctx context.Context, id string) (domain.GuestRecord, error) {
	if p.err != nil {
		return domain.GuestRecord{}, &domain.ExternalError{Op: "getGuest", Err: p.err}
	}
	return p.guest[id], nil
}

func sp(s string) *string { return &s }
func bp(b bool) *bool     { return &b }

type fixture struct {
	ts    *httptest.Server
	store *memory.Store
	pms   *stubPMS
	hotel domain.Hotel
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := memory.New()
	hotel := store.AddHotel(domain.Hotel{Name: "Grand Budapest", PMSVendor: "mews", PMSHotelID: "h-1"})
	store.AddHotel(domain.Hotel{Name: "Other", PMSVendor: "opera"})

	pms := &stubPMS{
		res: map[string]domain.ReservationRecord{
			"r-1": {HotelID: "h-1", ReservationID: "r-1", GuestID: "g-1", Status: "booked",
				CheckInDate: "2026-10-18", CheckOutDate: "2026-10-20", BreakfastIncluded: bp(true)},
		},
		guest: map[string]domain.GuestRecord{
			"g-1": {GuestID: "g-1", Name: sp("Jane Doe"), Phone: sp("+442071234567"), Country: sp("GB")},
		},
	}
	reg := app.NewRegistry(app.NewMewsAdapter(pms, store, nil, app.Normalizer{}))
	q := app.NewQueryService(store, nil, reg, time.Minute)

	srv := httpserver.New(5 * time.Second)
	srv.MountHandlers(&httpserver.Handlers{Q: q, Registry: reg, Hotels: store})
	ts := httptest.NewServer(srv.Mux())
	t.Cleanup(ts.Close)
	return &fixture{ts: ts, store: store, pms: pms, hotel: hotel}
}

func (f *fixture) post(t *testing.T, path, body string) (*http.Response, string) {
	t.Helper()
	resp, err := http.Post(f.ts.URL+path, "application/json", strings.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()
	b, _ := io.ReadAll(resp.Body)
	return resp, string(b)
}

const webhookBody = `{"hotel_id": 1, "data": {"Events": [{"Name": "ReservationUpdated", "Value": {"ReservationId": "r-1"}}]}}`

func TestWebhook_PersistsAndIsIdempotent(t *testing.T) {
	f := newFixture(t)

	for i := 0; i < 2; i++ {
		resp, body := f.post(t, "/webhook/mews", webhookBody)
		require.Equal(t, http.StatusOK, resp.StatusCode, body)
		assert.Equal(t, "Thanks for the update.", body)
	}
	assert.Len(t, f.store.Stays(), 1)
	require.Len(t, f.store.Guests(), 1)
	assert.Equal(t, "+442071234567", *f.store.Guests()[0].Phone)
}

func TestWebhook_ErrorMapping(t *testing.T) {
	cases := []struct {
		name   string
		path   string
		body   string
		pmsErr error
		want   int
	}{
		{"unknown vendor", "/webhook/opera", webhookBody, nil, http.StatusNotFound},
		{"invalid json", "/webhook/mews", `{"hotel_id":`, nil, http.StatusBadRequest},
		{"no events", "/webhook/mews", `{"hotel_id": 1, "data": {"Events": []}}`, nil, http.StatusBadRequest},
		{"unknown hotel", "/webhook/mews", `{"hotel_id": 99, "data": {"Events": [{"Value": {"ReservationId": "r-1"}}]}}`, nil, http.StatusNotFound},
		{"hotel on another vendor", "/webhook/mews", `{"hotel_id": 2, "data": {"Events": [{"Value": {"ReservationId": "r-1"}}]}}`, nil, http.StatusNotFound},
		{"pms down", "/webhook/mews", webhookBody, errors.New("remote 503"), http.StatusServiceUnavailable},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f := newFixture(t)
			f.pms.err = tc.pmsErr
			resp, body := f.post(t, tc.path, tc.body)
			assert.Equal(t, tc.want, resp.StatusCode, body)
			assert.Equal(t, "application/problem+json", resp.Header.Get("Content-Type"))
			assert.Empty(t, f.store.Stays())
		})
	}
}

func TestWebhook_CommitFailureIs500(t *testing.T) {
	f := newFixture(t)
	f.store.FailCommits(errors.New("disk full"))

	resp, body := f.post(t, "/webhook/mews", webhookBody)
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode, body)
	assert.NotContains(t, body, "disk full")
}

func TestHotelGuests_AndETag(t *testing.T) {
	f := newFixture(t)
	resp, _ := f.post(t, "/webhook/mews", webhookBody)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	res, err := http.Get(f.ts.URL + "/v1/hotels/1/guests")
	require.NoError(t, err)
	defer res.Body.Close()
	require.Equal(t, http.StatusOK, res.StatusCode)

	var view domain.HotelGuestsView
	require.NoError(t, json.NewDecoder(res.Body).Decode(&view))
	assert.Equal(t, "Grand Budapest", view.HotelName)
	require.Len(t, view.Guests, 1)
	assert.Equal(t, "Jane Doe", *view.Guests[0].Name)

	req, _ := http.NewRequest(http.MethodGet, f.ts.URL+"/v1/hotels/1/guests", nil)
	req.Header.Set("If-None-Match", res.Header.Get("ETag"))
	res2, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	res2.Body.Close()
	assert.Equal(t, http.StatusNotModified, res2.StatusCode)
}

func TestHotelGuests_BadAndMissingID(t *testing.T) {
	f := newFixture(t)

	res, err := http.Get(f.ts.URL + "/v1/hotels/abc/guests")
	require.NoError(t, err)
	res.Body.Close()
	assert.Equal(t, http.StatusBadRequest, res.StatusCode)

	res, err = http.Get(f.ts.URL + "/v1/hotels/42/guests")
	require.NoError(t, err)
	res.Body.Close()
	assert.Equal(t, http.StatusNotFound, res.StatusCode)
}

func TestStayBreakfast(t *testing.T) {
	f := newFixture(t)
	resp, _ := f.post(t, "/webhook/mews", webhookBody)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	stayID := f.store.Stays()[0].ID

	get := func() string {
		res, err := http.Get(f.ts.URL + "/v1/stays/" + strconv.FormatInt(stayID, 10) + "/breakfast")
		require.NoError(t, err)
		defer res.Body.Close()
		require.Equal(t, http.StatusOK, res.StatusCode)
		b, _ := io.ReadAll(res.Body)
		return strings.TrimSpace(string(b))
	}

	assert.JSONEq(t, `{"breakfast": true}`, get())

	// the PMS being down is not an error for this question, just unknown
	f.pms.err = errors.New("remote 503")
	assert.JSONEq(t, `{"breakfast": null}`, get())
}

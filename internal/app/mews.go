package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"hotel_pms/internal/adapters/observability"
	"hotel_pms/internal/domain"
)

const VendorMews = "mews"

// MewsAdapter reconciles Mews reservations into local guests and stays.
// Within one call everything runs sequentially: one reservation is fully
// resolved before the next PMS request is made.
type MewsAdapter struct {
	pms      domain.PMSClient
	store    domain.Store
	cache    domain.Cache
	norm     Normalizer
	resolver *Resolver
}

func NewMewsAdapter(pms domain.PMSClient, store domain.Store, cache domain.Cache, norm Normalizer) *MewsAdapter {
	return &MewsAdapter{pms: pms, store: store, cache: cache, norm: norm, resolver: NewResolver(store)}
}

func (a *MewsAdapter) Name() string { return VendorMews }

func (a *MewsAdapter) CleanPayload(body []byte) (domain.WebhookPayload, error) {
	var p domain.WebhookPayload
	if err := json.Unmarshal(body, &p); err != nil {
		return domain.WebhookPayload{}, &domain.MalformedInputError{Field: "body", Err: err}
	}
	if p.HotelID <= 0 {
		return domain.WebhookPayload{}, &domain.MalformedInputError{Field: "hotel_id", Value: fmt.Sprint(p.HotelID)}
	}
	if len(p.Data.Events) == 0 {
		return domain.WebhookPayload{}, &domain.MalformedInputError{Field: "data.Events", Value: "[]"}
	}
	return p, nil
}

func (a *MewsAdapter) HandleWebhookEvent(ctx context.Context, hotel domain.Hotel, data domain.WebhookData) (domain.Counts, error) {
	l := a.logger(hotel, "webhook")
	b := NewBatch()

	for i, ev := range data.Events {
		resID := strings.TrimSpace(ev.Value.ReservationID)
		if resID == "" {
			a.skip(l, b, "missing_reservation_id", nil)
			continue
		}
		res, err := a.pms.GetReservation(ctx, resID)
		if err != nil {
			return a.fail(l, "webhook", fmt.Errorf("event %d (%s): %w", i, resID, err))
		}
		if err := a.stage(ctx, l, b, hotel, res, nil); err != nil {
			return a.fail(l, "webhook", fmt.Errorf("event %d (%s): %w", i, resID, err))
		}
	}

	return a.commit(ctx, l, b, hotel, "webhook")
}

// RunDailySync queries the PMS with today as both bounds since it runs at the
// day boundary. Known stays keep their guest; only unknown reservations cost
// a guest lookup.
func (a *MewsAdapter) RunDailySync(ctx context.Context, hotel domain.Hotel, today time.Time) (domain.Counts, error) {
	l := a.logger(hotel, "sweep")
	day := DateOf(today)

	recs, err := a.pms.ListReservations(ctx, day, day)
	if err != nil {
		return a.fail(l, "sweep", err)
	}
	l.Debug().Int("reservations", len(recs)).Time("day", day).Msg("sweep fetched reservations")

	b := NewBatch()
	for _, rec := range recs {
		if err := a.stage(ctx, l, b, hotel, rec, &day); err != nil {
			return a.fail(l, "sweep", fmt.Errorf("reservation %s: %w", rec.ReservationID, err))
		}
	}
	return a.commit(ctx, l, b, hotel, "sweep")
}

func (a *MewsAdapter) StayIncludesBreakfast(ctx context.Context, stay domain.Stay) domain.Tristate {
	res, err := a.pms.GetReservation(ctx, stay.PMSReservationID)
	if err != nil {
		log.Debug().Err(err).Int64("stay", stay.ID).Msg("breakfast lookup failed")
		return domain.Unknown
	}
	return domain.TristateOf(res.BreakfastIncluded)
}

// stage normalizes and resolves one reservation into b. A nil sweepDay means
// the webhook path. Bad records are skipped; only PMS and store failures are
// returned.
func (a *MewsAdapter) stage(ctx context.Context, l zerolog.Logger, b *Batch, hotel domain.Hotel, res domain.ReservationRecord, sweepDay *time.Time) error {
	ns, err := a.norm.Stay(res)
	if err != nil {
		a.skip(l, b, "malformed_reservation", err)
		return nil
	}
	if hotel.PMSHotelID != "" && ns.PMSHotelID != "" && !strings.EqualFold(hotel.PMSHotelID, ns.PMSHotelID) {
		a.skip(l, b, "foreign_hotel", fmt.Errorf("reservation %s belongs to %s", ns.ReservationID, ns.PMSHotelID))
		return nil
	}
	if sweepDay != nil {
		ns.Status = SweepStatus(ns, *sweepDay)
	}

	rs, err := a.resolver.ResolveStay(ctx, hotel.ID, ns)
	if err != nil {
		return err
	}

	var rg ResolvedGuest
	reused := false
	if sweepDay != nil && rs.Existing != nil {
		rg, err = a.resolver.ReuseGuest(ctx, *rs.Existing)
		switch {
		case err == nil:
			reused = true
		case !errors.Is(err, domain.ErrNotFound):
			return err
		}
	}
	if !reused {
		if ns.PMSGuestID == "" {
			a.skip(l, b, "missing_guest_id", fmt.Errorf("reservation %s has no guest", ns.ReservationID))
			return nil
		}
		gr, err := a.pms.GetGuest(ctx, ns.PMSGuestID)
		if err != nil {
			return err
		}
		rg, err = a.resolver.ResolveGuest(ctx, b, rs, a.norm.Guest(gr))
		if err != nil {
			return err
		}
	}

	b.AddStay(rs, b.AddGuest(rg))
	return nil
}

func (a *MewsAdapter) commit(ctx context.Context, l zerolog.Logger, b *Batch, hotel domain.Hotel, kind string) (domain.Counts, error) {
	counts, err := b.Commit(ctx, a.store)
	if err != nil {
		return a.fail(l, kind, err)
	}
	observability.ObserveRun(a.Name(), kind, Outcome(nil))
	observability.ObserveUpserts(counts.GuestsCreated, counts.GuestsUpdated, counts.StaysCreated, counts.StaysUpdated)
	if a.cache != nil {
		_ = a.cache.Del(ctx, GuestsCacheKey(hotel.ID))
	}
	l.Info().
		Int("guests_created", counts.GuestsCreated).
		Int("guests_updated", counts.GuestsUpdated).
		Int("stays_created", counts.StaysCreated).
		Int("stays_updated", counts.StaysUpdated).
		Int("skipped", counts.Skipped).
		Msg(kind + " committed")
	return counts, nil
}

func (a *MewsAdapter) fail(l zerolog.Logger, kind string, err error) (domain.Counts, error) {
	outcome := Outcome(err)
	observability.ObserveRun(a.Name(), kind, outcome)
	ev := l.Warn()
	if outcome == "persistence" {
		ev = l.Error()
	}
	ev.Err(err).Str("outcome", outcome).Msg(kind + " failed, nothing committed")
	return domain.Counts{}, err
}

func (a *MewsAdapter) skip(l zerolog.Logger, b *Batch, reason string, err error) {
	b.Skip()
	observability.ObserveSkipped(reason)
	l.Warn().Err(err).Str("reason", reason).Msg("record skipped")
}

func (a *MewsAdapter) logger(hotel domain.Hotel, kind string) zerolog.Logger {
	return log.With().Str("vendor", a.Name()).Int64("hotel", hotel.ID).Str("kind", kind).Logger()
}

package app_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hotel_pms/internal/app"
	"hotel_pms/internal/domain"
	"hotel_pms/internal/storage/memory"
)

func stay(id string, room *int) app.NormalizedStay {
	return app.NormalizedStay{
		ReservationID: id,
		Status:        domain.StayBefore,
		CheckIn:       day("2026-10-18"),
		CheckOut:      day("2026-10-20"),
		RoomNumber:    room,
	}
}

func TestBatch_LastWriteWinsWithoutErasing(t *testing.T) {
	b := app.NewBatch()
	key := b.AddGuest(app.ResolvedGuest{Key: "phone:+442071234567", Incoming: app.NormalizedGuest{Name: ptr("Jane"), Country: ptr("GB")}})
	b.AddStay(app.ResolvedStay{HotelID: 1, Incoming: stay("r-1", ptr(7))}, key)

	key2 := b.AddGuest(app.ResolvedGuest{Key: "phone:+442071234567", Incoming: app.NormalizedGuest{Name: ptr("Jane Doe")}})
	later := stay("r-1", nil)
	later.Status = domain.StayInStay
	b.AddStay(app.ResolvedStay{HotelID: 1, Incoming: later}, key2)

	w := b.Write()
	require.Len(t, w.Guests, 1)
	require.Len(t, w.Stays, 1)
	assert.Equal(t, ptr("Jane Doe"), w.Guests[0].Name)
	assert.Equal(t, ptr("GB"), w.Guests[0].Country, "unknown must not erase")
	assert.Equal(t, domain.StayInStay, w.Stays[0].Status)
	assert.Equal(t, ptr(7), w.Stays[0].RoomNumber)
}

func TestBatch_AnonymousGuestsAreDistinct(t *testing.T) {
	b := app.NewBatch()
	k1 := b.AddGuest(app.ResolvedGuest{Incoming: app.NormalizedGuest{Name: ptr("A")}})
	k2 := b.AddGuest(app.ResolvedGuest{Incoming: app.NormalizedGuest{Name: ptr("B")}})
	assert.NotEqual(t, k1, k2)
	b.AddStay(app.ResolvedStay{HotelID: 1, Incoming: stay("r-1", nil)}, k1)
	b.AddStay(app.ResolvedStay{HotelID: 1, Incoming: stay("r-2", nil)}, k2)
	assert.Len(t, b.Write().Guests, 2)
}

func TestBatch_DropsNewGuestsNoStayUses(t *testing.T) {
	b := app.NewBatch()
	k1 := b.AddGuest(app.ResolvedGuest{Incoming: app.NormalizedGuest{Name: ptr("first")}})
	b.AddStay(app.ResolvedStay{HotelID: 1, Incoming: stay("r-1", nil)}, k1)
	k2 := b.AddGuest(app.ResolvedGuest{Key: "phone:+61491570156", Incoming: app.NormalizedGuest{Name: ptr("second")}})
	b.AddStay(app.ResolvedStay{HotelID: 1, Incoming: stay("r-1", nil)}, k2)

	w := b.Write()
	require.Len(t, w.Guests, 1)
	assert.Equal(t, "phone:+61491570156", w.Guests[0].Key)
	assert.Equal(t, k2, w.Stays[0].GuestKey)
}

func TestBatch_CommitWrapsStoreFailure(t *testing.T) {
	s := memory.New()
	s.FailCommits(errors.New("boom"))
	b := app.NewBatch()
	b.AddStay(app.ResolvedStay{HotelID: 1, Incoming: stay("r-1", nil)}, b.AddGuest(app.ResolvedGuest{}))
	b.Skip()

	counts, err := b.Commit(context.Background(), s)
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrPersistence))
	assert.Equal(t, 1, counts.Skipped)
	assert.Empty(t, s.Stays())
}

func TestBatch_EmptyCommitIsNoop(t *testing.T) {
	s := memory.New()
	s.FailCommits(errors.New("must not be called"))
	b := app.NewBatch()
	b.Skip()
	counts, err := b.Commit(context.Background(), s)
	require.NoError(t, err)
	assert.Equal(t, domain.Counts{Skipped: 1}, counts)
}

func TestResolver_PhoneMatchesExistingGuest(t *testing.T) {
	ctx := context.Background()
	s := memory.New()
	_, err := s.ApplyBatch(ctx, domain.BatchWrite{
		Guests: []domain.GuestWrite{{Key: "k", Phone: ptr("+442071234567"), Name: ptr("Jane")}},
		Stays:  []domain.StayWrite{{HotelID: 1, GuestKey: "k", PMSReservationID: "r-0", Status: domain.StayBefore}},
	})
	require.NoError(t, err)

	r := app.NewResolver(s)
	rs, err := r.ResolveStay(ctx, 1, stay("r-1", nil))
	require.NoError(t, err)
	assert.Nil(t, rs.Existing)

	rg, err := r.ResolveGuest(ctx, app.NewBatch(), rs, app.NormalizedGuest{Phone: ptr("+442071234567")})
	require.NoError(t, err)
	require.NotNil(t, rg.Existing)
	assert.Equal(t, "phone:+442071234567", rg.Key)
	assert.Equal(t, ptr("Jane"), rg.Existing.Name)
}

func TestResolver_PhonelessGuestNeverMatchesOthers(t *testing.T) {
	ctx := context.Background()
	s := memory.New()
	_, err := s.ApplyBatch(ctx, domain.BatchWrite{
		Guests: []domain.GuestWrite{{Key: "k", Name: ptr("John Doe")}},
		Stays:  []domain.StayWrite{{HotelID: 1, GuestKey: "k", PMSReservationID: "r-0", Status: domain.StayBefore}},
	})
	require.NoError(t, err)

	r := app.NewResolver(s)
	rs, err := r.ResolveStay(ctx, 1, stay("r-1", nil))
	require.NoError(t, err)
	rg, err := r.ResolveGuest(ctx, app.NewBatch(), rs, app.NormalizedGuest{Name: ptr("John Doe")})
	require.NoError(t, err)
	assert.Empty(t, rg.Key, "same name is not an identity")
	assert.Nil(t, rg.Existing)

	// the same reservation keeps its phone-less guest
	rs, err = r.ResolveStay(ctx, 1, stay("r-0", nil))
	require.NoError(t, err)
	require.NotNil(t, rs.Existing)
	rg, err = r.ResolveGuest(ctx, app.NewBatch(), rs, app.NormalizedGuest{Name: ptr("John D.")})
	require.NoError(t, err)
	require.NotNil(t, rg.Existing)
	assert.Equal(t, rs.Existing.GuestID, rg.Existing.ID)
}

func TestResolver_PhonelessGuestKeepsKeyWithinBatch(t *testing.T) {
	r := app.NewResolver(memory.New())
	b := app.NewBatch()
	ctx := context.Background()

	rs, err := r.ResolveStay(ctx, 1, stay("r-1", nil))
	require.NoError(t, err)
	rg, err := r.ResolveGuest(ctx, b, rs, app.NormalizedGuest{Name: ptr("A")})
	require.NoError(t, err)
	k := b.AddGuest(rg)
	b.AddStay(rs, k)

	rg, err = r.ResolveGuest(ctx, b, rs, app.NormalizedGuest{Name: ptr("A B")})
	require.NoError(t, err)
	assert.Equal(t, k, rg.Key)
}

type brokenLookup struct{}

func (brokenLookup) GetGuest(context.Context, int64) (domain.Guest, error) {
	return domain.Guest{}, errors.New("conn reset")
}
func (brokenLookup) FindGuestByPhone(context.Context, string) (domain.Guest, error) {
	return domain.Guest{}, errors.New("conn reset")
}
func (brokenLookup) FindStay(context.Context, int64, string) (domain.Stay, error) {
	return domain.Stay{}, errors.New("conn reset")
}

func TestResolver_LookupFailureIsPersistence(t *testing.T) {
	r := app.NewResolver(brokenLookup{})
	_, err := r.ResolveStay(context.Background(), 1, stay("r-1", nil))
	assert.True(t, errors.Is(err, domain.ErrPersistence))
}

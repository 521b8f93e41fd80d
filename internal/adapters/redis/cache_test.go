package redisad_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	redisad "hotel_pms/internal/adapters/redis"
	"hotel_pms/internal/domain"
)

func newCache(t *testing.T) (*redisad.Cache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	c := redisad.New(mr.Addr(), "", 0)
	t.Cleanup(func() { _ = c.Close() })
	return c, mr
}

func TestCache_SetGetDel(t *testing.T) {
	c, mr := newCache(t)
	ctx := context.Background()
	require.NoError(t, c.Ping(ctx))

	name := "Jane Doe"
	in := domain.HotelGuestsView{HotelID: 1, HotelName: "Grand", Guests: []domain.GuestView{{Name: &name}}}
	require.NoError(t, c.Set(ctx, "guests:1", in, 60))
	assert.True(t, mr.Exists("guests:1"))

	var out domain.HotelGuestsView
	ok, err := c.Get(ctx, "guests:1", &out)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, in, out)

	require.NoError(t, c.Del(ctx, "guests:1"))
	ok, err = c.Get(ctx, "guests:1", &out)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestCache_Expires(t *testing.T) {
	c, mr := newCache(t)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "k", map[string]int{"a": 1}, 10))
	mr.FastForward(11 * time.Second)

	var out map[string]int
	ok, err := c.Get(ctx, "k", &out)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestCache_UnreachableIsError(t *testing.T) {
	c, mr := newCache(t)
	mr.Close()

	var out map[string]int
	ok, err := c.Get(context.Background(), "k", &out)
	assert.Error(t, err)
	assert.False(t, ok)
}

package app_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hotel_pms/internal/app"
	"hotel_pms/internal/domain"
	"hotel_pms/internal/storage/memory"
)

func TestRegistry_Resolve(t *testing.T) {
	reg := app.NewRegistry(app.NewMewsAdapter(newFakePMS(), memory.New(), nil, app.Normalizer{}))

	for _, name := range []string{"mews", " MEWS ", "Mews"} {
		a, err := reg.Resolve(name)
		require.NoError(t, err, name)
		assert.Equal(t, app.VendorMews, a.Name())
	}

	_, err := reg.Resolve("opera")
	assert.True(t, errors.Is(err, domain.ErrUnknownVendor))
	assert.Equal(t, []string{"mews"}, reg.Names())
}

func TestOutcome(t *testing.T) {
	assert.Equal(t, "ok", app.Outcome(nil))
	assert.Equal(t, "transient", app.Outcome(&domain.ExternalError{Op: "x", Err: errors.New("503")}))
	assert.Equal(t, "malformed", app.Outcome(&domain.MalformedInputError{Field: "f"}))
	assert.Equal(t, "persistence", app.Outcome(&domain.PersistenceError{Op: "commit", Err: errors.New("x")}))
	assert.Equal(t, "error", app.Outcome(errors.New("other")))
}

package app

import (
	"context"
	"errors"
	"time"

	"hotel_pms/internal/domain"
)

// PMSAdapter is implemented once per compiled-in PMS vendor.
type PMSAdapter interface {
	Name() string
	// CleanPayload parses a raw webhook body. Any parse failure is a
	// *domain.MalformedInputError.
	CleanPayload(body []byte) (domain.WebhookPayload, error)
	// HandleWebhookEvent reconciles every event of one webhook call as a
	// single unit of work.
	HandleWebhookEvent(ctx context.Context, hotel domain.Hotel, data domain.WebhookData) (domain.Counts, error)
	// RunDailySync reconciles the reservations checking in or out on today.
	RunDailySync(ctx context.Context, hotel domain.Hotel, today time.Time) (domain.Counts, error)
	// StayIncludesBreakfast asks the PMS live; nothing is cached.
	StayIncludesBreakfast(ctx context.Context, stay domain.Stay) domain.Tristate
}

// Outcome buckets an adapter error for metrics and logs.
func Outcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, domain.ErrMalformed):
		return "malformed"
	case errors.Is(err, domain.ErrTransient):
		return "transient"
	case errors.Is(err, domain.ErrPersistence):
		return "persistence"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "canceled"
	}
	return "error"
}

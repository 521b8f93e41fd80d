package app

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/semaphore"

	"hotel_pms/internal/domain"
)

type hotelLister interface {
	GetHotel(ctx context.Context, id int64) (domain.Hotel, error)
	ListHotels(ctx context.Context) ([]domain.Hotel, error)
}

// SweepResult is the outcome of one hotel's daily sync.
type SweepResult struct {
	HotelID int64
	Counts  domain.Counts
	Err     error
}

// SweepRunner runs the daily sync for many hotels. Each hotel is its own unit
// of work; hotels run concurrently, at most Workers at a time.
type SweepRunner struct {
	Hotels   hotelLister
	Registry *Registry
	Workers  int
}

// Run syncs hotelID, or every hotel when hotelID is 0. The returned error
// joins every hotel failure; results hold one entry per attempted hotel.
func (r *SweepRunner) Run(ctx context.Context, hotelID int64, today time.Time) ([]SweepResult, error) {
	hotels, err := r.targets(ctx, hotelID)
	if err != nil {
		return nil, err
	}

	workers := r.Workers
	if workers <= 0 {
		workers = 1
	}
	sem := semaphore.NewWeighted(int64(workers))
	results := make([]SweepResult, len(hotels))
	var wg sync.WaitGroup

	for i, h := range hotels {
		// acquire before launching the goroutine; release inside it
		if err := sem.Acquire(ctx, 1); err != nil {
			for j := i; j < len(hotels); j++ {
				results[j] = SweepResult{HotelID: hotels[j].ID, Err: err}
			}
			break
		}
		wg.Add(1)
		go func(i int, h domain.Hotel) {
			defer wg.Done()
			defer sem.Release(1)
			results[i] = r.one(ctx, h, today)
		}(i, h)
	}
	wg.Wait()

	var errs []error
	for _, res := range results {
		if res.Err != nil {
			errs = append(errs, fmt.Errorf("hotel %d: %w", res.HotelID, res.Err))
		}
	}
	return results, errors.Join(errs...)
}

func (r *SweepRunner) one(ctx context.Context, h domain.Hotel, today time.Time) SweepResult {
	res := SweepResult{HotelID: h.ID}
	a, err := r.Registry.Resolve(h.PMSVendor)
	if err != nil {
		res.Err = err
		log.Warn().Int64("hotel", h.ID).Err(err).Msg("sweep skipped")
		return res
	}
	res.Counts, res.Err = a.RunDailySync(ctx, h, today)
	return res
}

func (r *SweepRunner) targets(ctx context.Context, hotelID int64) ([]domain.Hotel, error) {
	if hotelID != 0 {
		h, err := r.Hotels.GetHotel(ctx, hotelID)
		if err != nil {
			return nil, fmt.Errorf("hotel %d: %w", hotelID, err)
		}
		return []domain.Hotel{h}, nil
	}
	hs, err := r.Hotels.ListHotels(ctx)
	if err != nil {
		return nil, &domain.PersistenceError{Op: "list hotels", Err: err}
	}
	return hs, nil
}

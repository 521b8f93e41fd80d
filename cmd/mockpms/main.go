package main

import (
	"net/http"
	"time"

	"github.com/rs/zerolog/log"

	"hotel_pms/internal/adapters/observability"
	"hotel_pms/internal/adapters/pmsmock"
	"hotel_pms/internal/shared"
)

func main() {
	cfg := shared.Load()
	log.Logger = observability.NewLogger(cfg.AppEnv, "mockpms", cfg.LogLevel)

	mock := pmsmock.New(pmsmock.Config{HotelID: cfg.MockHotelID, FailureRate: cfg.MockFailureRate})
	srv := &http.Server{Addr: cfg.MockAddr, Handler: mock.Handler(), ReadHeaderTimeout: 5 * time.Second}

	log.Info().
		Str("addr", cfg.MockAddr).
		Str("hotel", cfg.MockHotelID).
		Float64("failure_rate", cfg.MockFailureRate).
		Msg("mock PMS listening")
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatal().Err(err).Msg("mock PMS failed")
	}
}

package observability_test

import (
	"testing"

	"github.com/rs/zerolog"

	"hotel_pms/internal/adapters/observability"
)

func TestNewLogger_Level(t *testing.T) {
	if got := observability.NewLogger("prod", "api", "debug").GetLevel(); got != zerolog.DebugLevel {
		t.Fatalf("level = %v, want debug", got)
	}
	if got := observability.NewLogger("dev", "api", "nonsense").GetLevel(); got != zerolog.InfoLevel {
		t.Fatalf("level = %v, want info fallback", got)
	}
}

package domain_test

import (
	"testing"
	"time"
	_ "time/tzdata"

	"github.com/orfevre/attendance-backend/internal/attendance/domain"
	"github.com/stretchr/testify/require"
)

func algiers(t *testing.T) *domain.Normalizer {
	t.Helper()
	tz, err := domain.NewNormalizer("Africa/Algiers", 23)
	require.NoError(t, err)
	return tz
}

func at(t *testing.T, tz *domain.Normalizer, iso, clock string) time.Time {
	t.Helper()
	ts, ok := tz.BuildInstant(iso, clock)
	require.True(t, ok, "bad instant %s %s", iso, clock)
	return ts
}

func day(t *testing.T, tz *domain.Normalizer, iso string) time.Time {
	t.Helper()
	d, err := tz.ParseDate(iso)
	require.NoError(t, err)
	return d
}

func intp(v int) *int { return &v }

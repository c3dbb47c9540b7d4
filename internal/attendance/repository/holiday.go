package repository

import (
	"context"
	"fmt"

	"github.com/orfevre/attendance-backend/internal/attendance/domain"
	"github.com/orfevre/attendance-backend/pkg/database"
)

// HolidayRepository reads the precomputed holiday calendar
type HolidayRepository struct {
	db *database.DB
}

// NewHolidayRepository creates a new holiday repository
func NewHolidayRepository(db *database.DB) *HolidayRepository {
	return &HolidayRepository{db: db}
}

// Between returns the holidays in [from, to] (YYYY-MM-DD, inclusive)
func (r *HolidayRepository) Between(ctx context.Context, from, to string) (domain.HolidaySet, error) {
	query := `
		SELECT to_char(holiday_date, 'YYYY-MM-DD') FROM holidays
		WHERE holiday_date BETWEEN $1::date AND $2::date`

	dates := make([]string, 0)
	if err := r.db.SelectContext(ctx, &dates, query, from, to); err != nil {
		return nil, fmt.Errorf("query holidays %s..%s: %w", from, to, err)
	}

	set := make(domain.HolidaySet, len(dates))
	for _, d := range dates {
		set[d] = true
	}
	return set, nil
}

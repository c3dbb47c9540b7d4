package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/lib/pq"
	"github.com/orfevre/attendance-backend/pkg/database"
)

// PunchRepository reads raw clock device events
type PunchRepository struct {
	db *database.DB
}

// NewPunchRepository creates a new punch repository
func NewPunchRepository(db *database.DB) *PunchRepository {
	return &PunchRepository{db: db}
}

// QueryPunches returns one device code's punches in [from, to), ascending
func (r *PunchRepository) QueryPunches(ctx context.Context, employeeCode string, from, to time.Time) ([]time.Time, error) {
	query := `
		SELECT punched_at FROM clock_punches
		WHERE employee_code = $1 AND punched_at >= $2 AND punched_at < $3
		ORDER BY punched_at`

	punches := make([]time.Time, 0)
	if err := r.db.SelectContext(ctx, &punches, query, employeeCode, from, to); err != nil {
		return nil, fmt.Errorf("query punches for %s: %w", employeeCode, err)
	}
	return punches, nil
}

type codedPunch struct {
	EmployeeCode string    `db:"employee_code"`
	PunchedAt    time.Time `db:"punched_at"`
}

// QueryPunchesForEmployees fetches punches for many device codes in one query,
// keyed by code. Codes without punches are absent from the map.
func (r *PunchRepository) QueryPunchesForEmployees(ctx context.Context, codes []string, from, to time.Time) (map[string][]time.Time, error) {
	out := make(map[string][]time.Time, len(codes))
	if len(codes) == 0 {
		return out, nil
	}

	query := `
		SELECT employee_code, punched_at FROM clock_punches
		WHERE employee_code = ANY($1) AND punched_at >= $2 AND punched_at < $3
		ORDER BY employee_code, punched_at`

	rows := make([]codedPunch, 0)
	if err := r.db.SelectContext(ctx, &rows, query, pq.Array(codes), from, to); err != nil {
		return nil, fmt.Errorf("query punches for %d employees: %w", len(codes), err)
	}
	for _, row := range rows {
		out[row.EmployeeCode] = append(out[row.EmployeeCode], row.PunchedAt)
	}
	return out, nil
}

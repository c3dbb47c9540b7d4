package repository

import (
	"context"
	"fmt"

	"github.com/lib/pq"
	"github.com/orfevre/attendance-backend/internal/attendance/domain"
	"github.com/orfevre/attendance-backend/pkg/database"
)

// LeaveRepository reads approved leave and the leave code catalog
type LeaveRepository struct {
	db *database.DB
}

// NewLeaveRepository creates a new leave repository
func NewLeaveRepository(db *database.DB) *LeaveRepository {
	return &LeaveRepository{db: db}
}

const approvedLeaveSelect = `
		SELECT employee_id, start_date, end_date, leave_code_id FROM leaves
		WHERE approval_state = 'Approved'`

// QueryApproved returns approved intervals overlapping [from, to] (YYYY-MM-DD, inclusive)
func (r *LeaveRepository) QueryApproved(ctx context.Context, employeeID int64, from, to string) ([]domain.LeaveInterval, error) {
	query := approvedLeaveSelect + `
		  AND employee_id = $1 AND start_date <= $3::date AND end_date >= $2::date
		ORDER BY start_date, id`

	intervals := make([]domain.LeaveInterval, 0)
	if err := r.db.SelectContext(ctx, &intervals, query, employeeID, from, to); err != nil {
		return nil, fmt.Errorf("query approved leave for employee %d: %w", employeeID, err)
	}
	return intervals, nil
}

// QueryApprovedForEmployees is QueryApproved for many employees in one query
func (r *LeaveRepository) QueryApprovedForEmployees(ctx context.Context, employeeIDs []int64, from, to string) (map[int64][]domain.LeaveInterval, error) {
	out := make(map[int64][]domain.LeaveInterval, len(employeeIDs))
	if len(employeeIDs) == 0 {
		return out, nil
	}

	query := approvedLeaveSelect + `
		  AND employee_id = ANY($1) AND start_date <= $3::date AND end_date >= $2::date
		ORDER BY employee_id, start_date, id`

	intervals := make([]domain.LeaveInterval, 0)
	if err := r.db.SelectContext(ctx, &intervals, query, pq.Array(employeeIDs), from, to); err != nil {
		return nil, fmt.Errorf("query approved leave for %d employees: %w", len(employeeIDs), err)
	}
	for _, iv := range intervals {
		out[iv.EmployeeID] = append(out[iv.EmployeeID], iv)
	}
	return out, nil
}

type leaveCodeRow struct {
	ID   int64  `db:"id"`
	Code string `db:"code"`
}

// Catalog returns the leave code id to short code mapping
func (r *LeaveRepository) Catalog(ctx context.Context) (domain.LeaveCatalog, error) {
	rows := make([]leaveCodeRow, 0)
	if err := r.db.SelectContext(ctx, &rows, `SELECT id, code FROM leave_codes`); err != nil {
		return nil, fmt.Errorf("load leave code catalog: %w", err)
	}

	catalog := make(domain.LeaveCatalog, len(rows))
	for _, row := range rows {
		catalog[row.ID] = row.Code
	}
	return catalog, nil
}

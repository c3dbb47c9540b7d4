package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/orfevre/attendance-backend/internal/attendance/domain"
	"github.com/orfevre/attendance-backend/pkg/database"
	"github.com/orfevre/attendance-backend/pkg/errors"
)

// EmployeeFilter narrows List. Zero values mean "any".
type EmployeeFilter struct {
	EmployeeID  int64
	PointOfSale string
}

// EmployeeRepository reads the HR employee directory
type EmployeeRepository struct {
	db *database.DB
}

// NewEmployeeRepository creates a new employee repository
func NewEmployeeRepository(db *database.DB) *EmployeeRepository {
	return &EmployeeRepository{db: db}
}

const employeeColumns = `id, full_name, attached_number, schedule_start, schedule_end, point_of_sale, active`

// GetByID returns the employee or a NotFound error
func (r *EmployeeRepository) GetByID(ctx context.Context, id int64) (*domain.Employee, error) {
	var emp domain.Employee
	query := `SELECT ` + employeeColumns + ` FROM employees WHERE id = $1`

	err := r.db.GetContext(ctx, &emp, query, id)
	if err == sql.ErrNoRows {
		return nil, errors.NotFound("employee")
	}
	if err != nil {
		return nil, fmt.Errorf("get employee %d: %w", id, err)
	}
	return &emp, nil
}

// List returns active employees matching the filter, ordered by id
func (r *EmployeeRepository) List(ctx context.Context, filter EmployeeFilter) ([]*domain.Employee, error) {
	query := `SELECT ` + employeeColumns + ` FROM employees
		WHERE active = TRUE
		  AND ($1 = 0 OR id = $1)
		  AND ($2 = '' OR point_of_sale = $2)
		ORDER BY id`

	employees := make([]*domain.Employee, 0)
	if err := r.db.SelectContext(ctx, &employees, query, filter.EmployeeID, filter.PointOfSale); err != nil {
		return nil, fmt.Errorf("list employees: %w", err)
	}
	return employees, nil
}

package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/sysu-ecnc-dev/roster-engine/backend/internal/domain"
)

// CreateShift employeeCode 为空表示未分配的班次
func (r *Repository) CreateShift(employeeCode string, shift *domain.Shift) error {
	query := `
		INSERT INTO shifts (
			employee_code,
			start_time,
			end_time,
			location,
			department,
			role,
			published,
			comment,
			attended
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id
	`

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	params := []any{
		sql.NullString{String: employeeCode, Valid: employeeCode != ""},
		shift.Start,
		shift.End,
		shift.WorkArea.Location,
		shift.WorkArea.Department,
		shift.WorkArea.Role,
		shift.Published,
		shift.Comment,
		shift.Attended,
	}
	if err := r.dbpool.QueryRowContext(ctx, query, params...).Scan(&shift.ID); err != nil {
		return err
	}

	return nil
}

func (r *Repository) CreateLeave(employeeCode string, leave *domain.Leave) error {
	query := `
		INSERT INTO leave (employee_code, leave_date, status, requested_at, hours, leave_type)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	args := []any{employeeCode, leave.Date, leave.Status, leave.RequestedAt, leave.Hours, leave.Type}
	if _, err := r.dbpool.ExecContext(ctx, query, args...); err != nil {
		return err
	}

	return nil
}

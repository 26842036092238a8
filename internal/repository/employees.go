package repository

import (
	"context"
	"time"

	"github.com/sysu-ecnc-dev/roster-engine/backend/internal/domain"
)

func (r *Repository) CreateEmployee(emp *domain.Employee) error {
	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.TransactionTimeout)*time.Second)
	defer cancel()

	tx, err := r.dbpool.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback()
	}()

	query := `
		INSERT INTO employees (code, name, roster_code, employment_type, contract_status, email)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	args := []any{emp.Code, emp.Name, emp.RosterCode, emp.EmploymentType, emp.ContractStatus, emp.Email}
	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		return err
	}

	for _, wa := range emp.WorkAreas() {
		query := `
			INSERT INTO work_areas (employee_code, location, department, role)
			VALUES ($1, $2, $3, $4)
			ON CONFLICT DO NOTHING
		`
		if _, err := tx.ExecContext(ctx, query, emp.Code, wa.Location, wa.Department, wa.Role); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return err
	}

	return nil
}

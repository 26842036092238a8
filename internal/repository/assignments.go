package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/sysu-ecnc-dev/roster-engine/backend/internal/domain"
	"github.com/sysu-ecnc-dev/roster-engine/backend/internal/optimizer"
)

var ErrShiftAlreadyAssigned = errors.New("shift is already assigned")

// SaveAssignment 把接受的提议写入数据库：记录提议本身，并把班次（合成班次则是其全部组成部分）分配给员工
func (r *Repository) SaveAssignment(a *optimizer.Assignment) error {
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
		INSERT INTO assignments (
			id,
			employee_code,
			start_time,
			end_time,
			location,
			department,
			role,
			gross_hours,
			net_hours,
			score,
			difficulty
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`

	s := a.Shift
	params := []any{
		a.ID,
		a.EmployeeCode,
		s.Start,
		s.End,
		s.WorkArea.Location,
		s.WorkArea.Department,
		s.WorkArea.Role,
		s.GrossHours,
		s.NetHours,
		a.Score,
		a.Difficulty,
	}
	if _, err := tx.ExecContext(ctx, query, params...); err != nil {
		return err
	}

	for _, component := range components(s) {
		if component.ID == 0 {
			continue
		}

		query := `
			UPDATE shifts
			SET employee_code = $1, assignment_id = $2
			WHERE id = $3 AND employee_code IS NULL
			RETURNING id
		`

		var id int64
		if err := tx.QueryRowContext(ctx, query, a.EmployeeCode, a.ID, component.ID).Scan(&id); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return fmt.Errorf("%w: %d", ErrShiftAlreadyAssigned, component.ID)
			}
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return err
	}

	return nil
}

func components(s *domain.Shift) []*domain.Shift {
	if s.IsComposite() {
		return s.Components
	}
	return []*domain.Shift{s}
}

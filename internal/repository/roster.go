package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/sysu-ecnc-dev/roster-engine/backend/internal/domain"
	"github.com/sysu-ecnc-dev/roster-engine/backend/internal/utils"
)

// LoadRoster 读取全部员工、工作区域、班次和请假，组装为 Roster。
// 任何一条记录不合法都会直接返回错误，错误包装了 domain.ErrInvalidInput。
func (r *Repository) LoadRoster(cal domain.Calendar, cutoff time.Time) (*domain.Roster, error) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.TransactionTimeout)*time.Second)
	defer cancel()

	roster := domain.NewRoster(cal)
	roster.Cutoff = cutoff

	if err := r.loadEmployees(ctx, roster); err != nil {
		return nil, fmt.Errorf("读取员工失败: %w", err)
	}
	if err := r.loadWorkAreas(ctx, roster); err != nil {
		return nil, fmt.Errorf("读取工作区域失败: %w", err)
	}
	if err := r.loadShifts(ctx, roster); err != nil {
		return nil, fmt.Errorf("读取班次失败: %w", err)
	}
	if err := r.loadLeave(ctx, roster); err != nil {
		return nil, fmt.Errorf("读取请假失败: %w", err)
	}

	return roster, nil
}

func (r *Repository) loadEmployees(ctx context.Context, roster *domain.Roster) error {
	query := `
		SELECT code, name, roster_code, employment_type, contract_status, email
		FROM employees
		ORDER BY name
	`

	rows, err := r.dbpool.QueryContext(ctx, query)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var row struct {
			code           string
			name           string
			rosterCode     string
			employmentType string
			contractStatus sql.NullString
			email          string
		}

		dst := []any{&row.code, &row.name, &row.rosterCode, &row.employmentType, &row.contractStatus, &row.email}
		if err := rows.Scan(dst...); err != nil {
			return err
		}

		// 没有记录合同状态时，根据排班名中的符号判断
		status := domain.ContractStatusFromRosterName(row.rosterCode)
		if row.contractStatus.Valid && row.contractStatus.String != "" {
			status = domain.ParseContractStatus(row.contractStatus.String)
		}

		emp := domain.NewEmployee(row.name, row.code, row.rosterCode, domain.ParseEmploymentType(row.employmentType), status)
		emp.Email = row.email
		roster.AddEmployee(emp)
	}

	return rows.Err()
}

func (r *Repository) loadWorkAreas(ctx context.Context, roster *domain.Roster) error {
	query := `
		SELECT employee_code, location, department, role
		FROM work_areas
		ORDER BY employee_code, location, department, role
	`

	rows, err := r.dbpool.QueryContext(ctx, query)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var code string
		var wa domain.WorkArea
		if err := rows.Scan(&code, &wa.Location, &wa.Department, &wa.Role); err != nil {
			return err
		}

		emp, ok := roster.Employee(code)
		if !ok {
			continue
		}
		emp.AddWorkArea(wa)
	}

	return rows.Err()
}

func (r *Repository) loadShifts(ctx context.Context, roster *domain.Roster) error {
	query := `
		SELECT
			id,
			employee_code,
			start_time,
			end_time,
			location,
			department,
			role,
			published,
			comment,
			attended
		FROM shifts
		ORDER BY start_time, id
	`

	rows, err := r.dbpool.QueryContext(ctx, query)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var rec utils.ShiftRecord
		var code sql.NullString

		dst := []any{
			&rec.ID,
			&code,
			&rec.Start,
			&rec.End,
			&rec.Location,
			&rec.Department,
			&rec.Role,
			&rec.Published,
			&rec.Comment,
			&rec.Attended,
		}
		if err := rows.Scan(dst...); err != nil {
			return err
		}

		// 统一使用本地时区，保证按日历日分组的结果一致
		rec.Start = rec.Start.In(time.Local)
		rec.End = rec.End.In(time.Local)
		rec.EmployeeCode = strings.TrimSpace(code.String)

		shift, err := utils.ShiftFromRecord(roster.Calendar, &rec)
		if err != nil {
			return err
		}

		if rec.EmployeeCode == "" {
			roster.AddUnassignedShift(shift)
			continue
		}

		emp, ok := roster.Employee(rec.EmployeeCode)
		if !ok {
			return fmt.Errorf("%w: 班次 %d 属于不存在的员工 %s", domain.ErrInvalidInput, rec.ID, rec.EmployeeCode)
		}
		roster.AssignShift(emp, shift)
	}

	return rows.Err()
}

func (r *Repository) loadLeave(ctx context.Context, roster *domain.Roster) error {
	query := `
		SELECT employee_code, leave_date, status, requested_at, hours, leave_type
		FROM leave
		ORDER BY leave_date, requested_at
	`

	rows, err := r.dbpool.QueryContext(ctx, query)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var rec utils.LeaveRecord
		dst := []any{&rec.EmployeeCode, &rec.Date, &rec.Status, &rec.RequestedAt, &rec.Hours, &rec.Type}
		if err := rows.Scan(dst...); err != nil {
			return err
		}

		// date 类型读出来是 UTC 零点，需要换成本地日期
		y, m, d := rec.Date.Date()
		rec.Date = time.Date(y, m, d, 0, 0, 0, 0, time.Local)

		leave, err := utils.LeaveFromRecord(&rec)
		if err != nil {
			return err
		}

		emp, ok := roster.Employee(rec.EmployeeCode)
		if !ok {
			return fmt.Errorf("%w: 请假记录属于不存在的员工 %s", domain.ErrInvalidInput, rec.EmployeeCode)
		}
		emp.AddLeave(leave)
	}

	return rows.Err()
}

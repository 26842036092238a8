package repository

import (
	"context"
	"time"

	"github.com/sysu-ecnc-dev/roster-engine/backend/internal/compliance"
)

// InsertComplianceReport 保存一名员工的合规检查结果，每条警告单独一行
func (r *Repository) InsertComplianceReport(report *compliance.Report) (int64, error) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.TransactionTimeout)*time.Second)
	defer cancel()

	tx, err := r.dbpool.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer func() {
		_ = tx.Rollback()
	}()

	query := `
		INSERT INTO compliance_reports (employee_code, passed)
		VALUES ($1, $2)
		RETURNING id, created_at
	`

	var id int64
	var createdAt time.Time
	if err := tx.QueryRowContext(ctx, query, report.EmployeeCode, report.Passed).Scan(&id, &createdAt); err != nil {
		return 0, err
	}

	for _, check := range report.Checks {
		for _, w := range check.Warnings {
			query := `
				INSERT INTO compliance_warnings (report_id, check_name, severity, message)
				VALUES ($1, $2, $3, $4)
			`

			if _, err := tx.ExecContext(ctx, query, id, check.Name, string(w.Severity), w.Message); err != nil {
				return 0, err
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, err
	}

	return id, nil
}

// GetFailedEmployeeCodes 返回最近一次检查未通过的员工编号
func (r *Repository) GetFailedEmployeeCodes() ([]string, error) {
	query := `
		SELECT DISTINCT ON (employee_code) employee_code, passed
		FROM compliance_reports
		ORDER BY employee_code, created_at DESC, id DESC
	`

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	rows, err := r.dbpool.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	codes := []string{}
	for rows.Next() {
		var code string
		var passed bool
		if err := rows.Scan(&code, &passed); err != nil {
			return nil, err
		}
		if !passed {
			codes = append(codes, code)
		}
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return codes, nil
}

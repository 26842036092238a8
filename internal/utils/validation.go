package utils

import (
	"fmt"
	"strings"
	"time"

	"github.com/sysu-ecnc-dev/roster-engine/backend/internal/domain"
)

// ShiftRecord 从数据库或 fixture 读取的原始班次记录
type ShiftRecord struct {
	ID           int64
	EmployeeCode string // 为空表示未分配
	Start        time.Time
	End          time.Time
	Location     string
	Department   string
	Role         string
	Published    bool
	Comment      string
	Attended     bool
}

// LeaveRecord 原始请假记录，状态和类型为文本
type LeaveRecord struct {
	EmployeeCode string
	Date         time.Time
	Status       string
	RequestedAt  time.Time
	Hours        float64
	Type         string
}

// NormalizeShiftEnd 结束时间早于开始时间且在同一天时视为跨夜，结束日期加一天
func NormalizeShiftEnd(start, end time.Time) time.Time {
	if end.Before(start) && domain.SameDate(start, end) {
		return end.AddDate(0, 0, 1)
	}
	return end
}

func ValidateShiftRecord(rec *ShiftRecord) error {
	if strings.TrimSpace(rec.Location) == "" || strings.TrimSpace(rec.Department) == "" || strings.TrimSpace(rec.Role) == "" {
		return fmt.Errorf("%w: 班次 %d 的工作区域不完整", domain.ErrInvalidInput, rec.ID)
	}

	if rec.Start.IsZero() || rec.End.IsZero() {
		return fmt.Errorf("%w: 班次 %d 缺少开始或结束时间", domain.ErrInvalidInput, rec.ID)
	}

	if rec.End.Before(rec.Start) {
		return fmt.Errorf("%w: 班次 %d 的结束时间不能早于开始时间", domain.ErrInvalidInput, rec.ID)
	}

	if rec.End.Sub(rec.Start) > 24*time.Hour {
		return fmt.Errorf("%w: 班次 %d 的时长超过 24 小时", domain.ErrInvalidInput, rec.ID)
	}

	return nil
}

// ShiftFromRecord 校验并构造班次，跨夜班次的结束时间会先被修正
func ShiftFromRecord(cal domain.Calendar, rec *ShiftRecord) (*domain.Shift, error) {
	rec.End = NormalizeShiftEnd(rec.Start, rec.End)
	if err := ValidateShiftRecord(rec); err != nil {
		return nil, err
	}

	return cal.NewShift(domain.ShiftSpec{
		ID:    rec.ID,
		Start: rec.Start,
		End:   rec.End,
		WorkArea: domain.WorkArea{
			Location:   strings.TrimSpace(rec.Location),
			Department: strings.TrimSpace(rec.Department),
			Role:       strings.TrimSpace(rec.Role),
		},
		Published: rec.Published,
		Comment:   rec.Comment,
		Attended:  rec.Attended,
	})
}

func ValidateLeaveRecord(rec *LeaveRecord) error {
	if rec.Date.IsZero() {
		return fmt.Errorf("%w: 员工 %s 的请假缺少日期", domain.ErrInvalidInput, rec.EmployeeCode)
	}

	if _, ok := domain.ParseLeaveStatus(rec.Status); !ok {
		return fmt.Errorf("%w: 员工 %s 的请假状态 %q 无法识别", domain.ErrInvalidInput, rec.EmployeeCode, rec.Status)
	}

	if _, ok := domain.ParseLeaveType(rec.Type); !ok {
		return fmt.Errorf("%w: 员工 %s 的请假类型 %q 无法识别", domain.ErrInvalidInput, rec.EmployeeCode, rec.Type)
	}

	if rec.Hours < 0 {
		return fmt.Errorf("%w: 员工 %s 的请假工时不能为负数", domain.ErrInvalidInput, rec.EmployeeCode)
	}

	return nil
}

func LeaveFromRecord(rec *LeaveRecord) (*domain.Leave, error) {
	if err := ValidateLeaveRecord(rec); err != nil {
		return nil, err
	}

	status, _ := domain.ParseLeaveStatus(rec.Status)
	leaveType, _ := domain.ParseLeaveType(rec.Type)
	return &domain.Leave{
		Date:        domain.DateOf(rec.Date),
		Status:      status,
		RequestedAt: rec.RequestedAt,
		Hours:       rec.Hours,
		Type:        leaveType,
	}, nil
}

package compliance

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/sysu-ecnc-dev/roster-engine/backend/internal/domain"
	"github.com/sysu-ecnc-dev/roster-engine/backend/internal/rules"
)

// Validator 对员工最终的班次和请假做批量合规检查。
// 只读取员工数据，不做任何修改，也从不返回错误。
type Validator struct {
	parameters *Parameters
	calendar   domain.Calendar
	logger     *slog.Logger
}

type check struct {
	name string
	run  func(v *Validator, emp *domain.Employee, shifts []*domain.Shift) []Warning
}

// 检查顺序即报告中的顺序
var checks = []check{
	{CheckLeaveConflicts, (*Validator).leaveConflicts},
	{CheckPayCycleHours, (*Validator).payCycleHours},
	{CheckFortnightDays, (*Validator).fortnightDays},
	{CheckDailyWindow, (*Validator).dailyWindow},
	{CheckUnpaidBreaks, (*Validator).unpaidBreaks},
	{CheckShortShifts, (*Validator).shortShifts},
	{CheckOverlaps, (*Validator).overlaps},
	{CheckOnCall, (*Validator).onCall},
	{CheckDailyBlocks, (*Validator).dailyBlocks},
	{CheckSleepovers, (*Validator).sleepovers},
	{CheckFortnightFloor, (*Validator).fortnightFloor},
	{CheckPendingLeave, (*Validator).pendingLeave},
}

func New(parameters *Parameters, calendar domain.Calendar, logger *slog.Logger) *Validator {
	if parameters == nil {
		parameters = DefaultParameters()
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Validator{parameters: parameters, calendar: calendar, logger: logger}
}

// Validate 运行全部检查。员工类型或合同状态未知时只返回失败的 profile 检查。
func (v *Validator) Validate(emp *domain.Employee) *Report {
	report := &Report{
		EmployeeCode:        emp.Code,
		EmployeeName:        emp.Name,
		Passed:              true,
		ApprovedLeaveRanges: approvedLeaveRanges(emp.Leave()),
	}

	if profile := v.profile(emp); !profile.Passed {
		report.Passed = false
		report.Checks = append(report.Checks, profile)
		v.log(emp, profile.Warnings)
		return report
	}

	shifts := flatten(emp.Shifts())
	for _, c := range checks {
		warnings := c.run(v, emp, shifts)
		result := CheckResult{Name: c.name, Passed: passes(warnings), Warnings: warnings}
		if result.Warnings == nil {
			result.Warnings = []Warning{}
		}
		if !result.Passed {
			report.Passed = false
		}
		report.Checks = append(report.Checks, result)
		v.log(emp, warnings)
	}

	if report.Passed {
		v.logger.Info("所有合规检查均已通过", "employee", emp.Code)
	}

	return report
}

func (v *Validator) profile(emp *domain.Employee) CheckResult {
	result := CheckResult{Name: CheckProfile, Passed: true, Warnings: []Warning{}}
	if !emp.EmploymentType.Known() {
		result.Warnings = append(result.Warnings, Warning{
			Check:    CheckProfile,
			Severity: SeverityError,
			Message:  fmt.Sprintf("Employee %s has an unknown employment type", emp.Name),
		})
	}
	if !emp.ContractStatus.Known() {
		result.Warnings = append(result.Warnings, Warning{
			Check:    CheckProfile,
			Severity: SeverityError,
			Message:  fmt.Sprintf("Employee %s has an unknown contract status", emp.Name),
		})
	}
	result.Passed = len(result.Warnings) == 0
	return result
}

func (v *Validator) log(emp *domain.Employee, warnings []Warning) {
	for _, w := range warnings {
		level := slog.LevelWarn
		switch w.Severity {
		case SeverityError:
			level = slog.LevelError
		case SeverityInfo:
			level = slog.LevelInfo
		}
		v.logger.Log(context.Background(), level, w.Message, "employee", emp.Code, "check", w.Check)
		for _, line := range w.Context {
			v.logger.Debug(line, "employee", emp.Code, "check", w.Check)
		}
	}
}

func (v *Validator) today() time.Time {
	if v.parameters.Today.IsZero() {
		return domain.DateOf(time.Now())
	}
	return domain.DateOf(v.parameters.Today)
}

// flatten 把合成班次展开为原始班次，合规检查针对实际的班次进行
func flatten(shifts []*domain.Shift) []*domain.Shift {
	var out []*domain.Shift
	for _, s := range shifts {
		if s.IsComposite() {
			out = append(out, s.Components...)
			continue
		}
		out = append(out, s)
	}
	return rules.SortedByStart(out)
}

// passes 只有提示级别的告警不算失败
func passes(warnings []Warning) bool {
	for _, w := range warnings {
		if w.Severity != SeverityInfo {
			return false
		}
	}
	return true
}

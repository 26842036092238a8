package rules

import (
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/sysu-ecnc-dev/roster-engine/backend/internal/domain"
)

type rule struct {
	name  string
	check func(e *Engine, emp *domain.Employee, shift *domain.Shift) (bool, string)
}

// 顺序即优先级，第一个失败的规则决定结果
var orderedRules = []rule{
	{RuleWorkArea, (*Engine).workAreaAuthorized},
	{RuleFortnightDays, (*Engine).withinFortnightDays},
	{RuleDailyWindow, (*Engine).withinDailyWindow},
	{RulePayCycleHours, (*Engine).withinPayCycleHours},
	{RuleSleepoverIFA, (*Engine).meetsSleepoverIFA},
	{RuleExistingShift, (*Engine).noExistingCommitment},
	{RuleLeave, (*Engine).notOnLeave},
	{RuleLongerShiftOnly, (*Engine).longerThanExisting},
}

type Engine struct {
	params *Parameters
	logger *slog.Logger
}

func New(params *Parameters, logger *slog.Logger) *Engine {
	if params == nil {
		params = DefaultParameters()
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Engine{params: params, logger: logger}
}

// Evaluate 判断能否把 shift 提供给 emp；不修改任何状态，相同输入总是得到相同结果
func (e *Engine) Evaluate(emp *domain.Employee, shift *domain.Shift) Verdict {
	for _, r := range orderedRules {
		ok, detail := r.check(e, emp, shift)
		if ok {
			continue
		}

		v := Verdict{Eligible: false, Rule: r.name}
		// 工作区域不匹配的原因不展示给用户
		if r.name != RuleWorkArea {
			v.Reason = fmt.Sprintf("%s: %s", r.name, detail)
		}
		e.logger.Debug("班次不符合规则", "employee", emp.Code, "shift", shift.Key(), "rule", r.name, "detail", detail)
		return v
	}

	return Verdict{Eligible: true}
}

// Eligible 是 Evaluate 的简写
func (e *Engine) Eligible(emp *domain.Employee, shift *domain.Shift) bool {
	return e.Evaluate(emp, shift).Eligible
}

func (e *Engine) exactMatchRequired(department string) bool {
	for _, prefix := range e.params.ExactMatchDepartments {
		if strings.HasPrefix(department, prefix) {
			return true
		}
	}
	return false
}

func (e *Engine) workAreaAuthorized(emp *domain.Employee, shift *domain.Shift) (bool, string) {
	wa := shift.WorkArea
	if emp.HasWorkArea(wa) {
		return true, ""
	}
	if e.exactMatchRequired(wa.Department) {
		return false, fmt.Sprintf("%s requires an exact work area match", wa.Department)
	}

	// 角色不必一致：通用角色（合并班次）和同部门的其他角色都只要求地点和部门匹配
	for _, held := range emp.WorkAreas() {
		if held.Location == wa.Location && held.Department == wa.Department {
			return true, ""
		}
	}
	return false, fmt.Sprintf("not authorised for %s", wa)
}

func (e *Engine) withinFortnightDays(emp *domain.Employee, shift *domain.Shift) (bool, string) {
	cycleShifts := append(InPayCycle(emp.Shifts(), shift.PayCycle), shift)
	days := len(DistinctDays(cycleShifts))
	maxDays := emp.EmploymentType.MaxFortnightDays()
	if days > maxDays {
		return false, fmt.Sprintf("%d days in pay cycle %d (allowed %d)", days, shift.PayCycle, maxDays)
	}
	return true, ""
}

func (e *Engine) withinDailyWindow(emp *domain.Employee, shift *domain.Shift) (bool, string) {
	dayShifts := append(StartingOn(emp.Shifts(), shift.Start), shift)
	anchor := EarliestStart(dayShifts)
	window := WindowFrom(dayShifts, anchor, e.params.WindowLength)

	total := Sum(window, NetWeight)
	if Exceeds(total, e.params.DailyNetCeiling) {
		return false, fmt.Sprintf("%.2f net hours within %s of %s (allowed %.0f)",
			total, e.params.WindowLength, anchor.Format("Mon 02/01 1504"), e.params.DailyNetCeiling)
	}
	return true, ""
}

func (e *Engine) withinPayCycleHours(emp *domain.Employee, shift *domain.Shift) (bool, string) {
	total := Sum(InPayCycle(emp.Shifts(), shift.PayCycle), NetWeight) + shift.NetHours
	maxHours := emp.EmploymentType.MaxPayCycleHours()
	if Exceeds(total, maxHours) {
		return false, fmt.Sprintf("%.2f hours in pay cycle %d (allowed %.0f)", total, shift.PayCycle, maxHours)
	}
	return true, ""
}

func (e *Engine) meetsSleepoverIFA(emp *domain.Employee, shift *domain.Shift) (bool, string) {
	if IsSleepover(shift) && !emp.ContractStatus.PermitsSleepover() {
		return false, fmt.Sprintf("sleepover requires %s, employee has %s", domain.ContractFullIFA, emp.ContractStatus)
	}
	return true, ""
}

func (e *Engine) noExistingCommitment(emp *domain.Employee, shift *domain.Shift) (bool, string) {
	for _, s := range emp.Shifts() {
		if ShiftsOverlap(s, shift) {
			return false, fmt.Sprintf("overlaps %s", s)
		}
	}
	return true, ""
}

func (e *Engine) notOnLeave(emp *domain.Employee, shift *domain.Shift) (bool, string) {
	if overlapping := LeaveOverlapping(emp.Leave(), shift); len(overlapping) > 0 {
		return false, overlapping[0].String()
	}
	return true, ""
}

func (e *Engine) longerThanExisting(emp *domain.Employee, shift *domain.Shift) (bool, string) {
	existing := Sum(StartingOn(emp.Shifts(), shift.Start), NetWeight)
	if existing > 0 && shift.NetHours <= existing {
		return false, fmt.Sprintf("already working %.2f hours on %s", existing, shift.Start.Format("Mon 02/01"))
	}
	return true, ""
}

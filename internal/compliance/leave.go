package compliance

import (
	"slices"
	"time"

	"github.com/sysu-ecnc-dev/roster-engine/backend/internal/domain"
	"github.com/sysu-ecnc-dev/roster-engine/backend/internal/rules"
)

// leaveConflicts 已批准请假当天不能有班次，同时给出请假前后最近的班次作为上下文
func (v *Validator) leaveConflicts(emp *domain.Employee, shifts []*domain.Shift) []Warning {
	var warnings []Warning

	for _, l := range emp.Leave() {
		if !l.Status.IsApproved() {
			continue
		}

		day := domain.DateOf(l.Date)
		var conflicting []*domain.Shift
		for _, s := range shifts {
			if slices.ContainsFunc(rules.DaysSpanned(s), func(d time.Time) bool { return domain.SameDate(d, day) }) {
				conflicting = append(conflicting, s)
			}
		}
		if len(conflicting) == 0 {
			continue
		}

		lines := describe(conflicting, nil)
		prev, next := adjacentShifts(shifts, day)
		if prev != nil {
			lines = append(lines, "PREV: "+prev.String())
		}
		if next != nil {
			lines = append(lines, "NEXT: "+next.String())
		}

		warnings = append(warnings, Warning{
			Check:    CheckLeaveConflicts,
			Severity: SeverityError,
			Message:  "Leave conflict for " + l.String(),
			Shifts:   conflicting,
			Leave:    []*domain.Leave{l},
			Context:  lines,
		})
	}

	return warnings
}

// pendingLeave 报告未来一段时间内仍待审批或已被拒绝的请假，按连续日期合并
func (v *Validator) pendingLeave(emp *domain.Employee, shifts []*domain.Shift) []Warning {
	today := v.today()
	horizon := today.AddDate(0, 0, v.parameters.PendingLeaveHorizon)

	var pending []*domain.Leave
	for _, l := range emp.Leave() {
		if l.Status.IsApproved() {
			continue
		}
		day := domain.DateOf(l.Date)
		if day.Before(today) || day.After(horizon) {
			continue
		}
		pending = append(pending, l)
	}

	var warnings []Warning
	for _, group := range consecutive(pending) {
		r := DateRange{Start: group[0].Date, End: group[len(group)-1].Date}
		warnings = append(warnings, Warning{
			Check:    CheckPendingLeave,
			Severity: SeverityWarning,
			Message:  "Pending or denied leave: " + r.String(),
			Leave:    group,
			Context:  describe(nil, group),
		})
	}
	return warnings
}

func approvedLeaveRanges(leave []*domain.Leave) []DateRange {
	var approved []*domain.Leave
	for _, l := range leave {
		if l.Status.IsApproved() {
			approved = append(approved, l)
		}
	}

	ranges := []DateRange{}
	for _, group := range consecutive(approved) {
		ranges = append(ranges, DateRange{Start: group[0].Date, End: group[len(group)-1].Date})
	}
	return ranges
}

// consecutive 把按日期排序的请假拆分为连续日期的分组
func consecutive(leave []*domain.Leave) [][]*domain.Leave {
	var groups [][]*domain.Leave
	for _, l := range leave {
		if n := len(groups); n > 0 {
			last := groups[n-1][len(groups[n-1])-1]
			if domain.DaysBetween(last.Date, l.Date) == 1 {
				groups[n-1] = append(groups[n-1], l)
				continue
			}
		}
		groups = append(groups, []*domain.Leave{l})
	}
	return groups
}

// countedLeave 已批准且计入工时的请假
func countedLeave(leave []*domain.Leave) []*domain.Leave {
	var out []*domain.Leave
	for _, l := range leave {
		if l.Status.IsApproved() && l.Type.CountsTowardHours() {
			out = append(out, l)
		}
	}
	return out
}

// adjacentShifts 返回请假日之前结束的最后一个班次和之后开始的第一个班次
func adjacentShifts(shifts []*domain.Shift, day time.Time) (*domain.Shift, *domain.Shift) {
	var prev, next *domain.Shift
	for _, s := range shifts {
		if domain.DateOf(s.End).Before(day) {
			prev = s
		} else if domain.DateOf(s.Start).After(day) {
			next = s
			break
		}
	}
	return prev, next
}

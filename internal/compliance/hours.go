package compliance

import (
	"fmt"
	"maps"
	"slices"
	"time"

	"github.com/sysu-ecnc-dev/roster-engine/backend/internal/domain"
	"github.com/sysu-ecnc-dev/roster-engine/backend/internal/rules"
)

/**
 * 发薪周期工时上限
 * total = sum(已出勤班次的工时) + sum(计入工时的已批准请假)
 * 临时工的请假不计入
 */
func (v *Validator) payCycleHours(emp *domain.Employee, shifts []*domain.Shift) []Warning {
	hours := make(map[int]float64)
	shiftsByCycle := make(map[int][]*domain.Shift)
	leaveByCycle := make(map[int][]*domain.Leave)

	weight := rules.ContractWeight(emp.ContractStatus)
	for _, s := range shifts {
		if !s.Attended {
			continue
		}
		hours[s.PayCycle] += weight(s)
		shiftsByCycle[s.PayCycle] = append(shiftsByCycle[s.PayCycle], s)
	}

	if !emp.IsCasual() {
		for _, l := range countedLeave(emp.Leave()) {
			n := v.calendar.PayCycle(l.Date)
			hours[n] += l.CappedHours()
			leaveByCycle[n] = append(leaveByCycle[n], l)
		}
	}

	limit := emp.EmploymentType.MaxPayCycleHours()
	var warnings []Warning
	for _, n := range slices.Sorted(maps.Keys(hours)) {
		if !rules.Exceeds(hours[n], limit) {
			continue
		}
		warnings = append(warnings, Warning{
			Check:    CheckPayCycleHours,
			Severity: SeverityWarning,
			Message: fmt.Sprintf("Pay cycle %s exceeds max hours with %.2f hours (allowed: %.0f)",
				v.calendar.CycleLabel(n), hours[n], limit),
			Shifts:  shiftsByCycle[n],
			Leave:   leaveByCycle[n],
			Context: describe(shiftsByCycle[n], leaveByCycle[n]),
		})
	}
	return warnings
}

// fortnightDays 发薪周期内的工作天数上限，已批准且计入工时的请假也算作工作日
func (v *Validator) fortnightDays(emp *domain.Employee, shifts []*domain.Shift) []Warning {
	days := make(map[int]map[string]time.Time)
	add := func(n int, d time.Time) {
		if days[n] == nil {
			days[n] = make(map[string]time.Time)
		}
		days[n][rules.DayKey(d)] = d
	}

	breakRule := emp.ContractStatus.AttendedCountsAsBreak()
	for _, s := range shifts {
		if !s.Attended && breakRule {
			continue
		}
		for _, d := range rules.DaysSpanned(s) {
			add(s.PayCycle, d)
		}
	}

	if !emp.IsCasual() {
		for _, l := range countedLeave(emp.Leave()) {
			add(v.calendar.PayCycle(l.Date), domain.DateOf(l.Date))
		}
	}

	limit := emp.EmploymentType.MaxFortnightDays()
	var warnings []Warning
	for _, n := range slices.Sorted(maps.Keys(days)) {
		if len(days[n]) <= limit {
			continue
		}

		var lines []string
		for _, key := range slices.Sorted(maps.Keys(days[n])) {
			lines = append(lines, "Worked day: "+dayLabel(days[n][key]))
		}

		warnings = append(warnings, Warning{
			Check:    CheckFortnightDays,
			Severity: SeverityWarning,
			Message: fmt.Sprintf("Pay cycle %s exceeds max days with %d days worked (allowed: %d)",
				v.calendar.CycleLabel(n), len(days[n]), limit),
			Shifts:  rules.InPayCycle(shifts, n),
			Context: lines,
		})
	}
	return warnings
}

// dailyWindow 以当天每个班次的开始时间为起点，检查 12 小时窗口内的工时，每天最多报告一次
func (v *Validator) dailyWindow(emp *domain.Employee, shifts []*domain.Shift) []Warning {
	weight := rules.ContractWeight(emp.ContractStatus)

	var warnings []Warning
	for _, day := range byStartDate(shifts) {
		for i, anchor := range day {
			window := rules.WindowFrom(day[i:], anchor.Start, v.parameters.WindowLength)
			total := rules.Sum(window, weight)
			if !rules.Exceeds(total, v.parameters.DailyNetCeiling) {
				continue
			}

			warnings = append(warnings, Warning{
				Check:    CheckDailyWindow,
				Severity: SeverityWarning,
				Message: fmt.Sprintf("%s exceeds %.0f hours with %.2f hours in the 12 hour window starting %s",
					dayLabel(anchor.Start), v.parameters.DailyNetCeiling, total, anchor.Start.Format("1504")),
				Shifts:  window,
				Context: describe(window, nil),
			})
			break
		}
	}
	return warnings
}

/**
 * 发薪周期最低工时（仅提示）
 * total = sum(出勤班次净工时 + 未出勤班次毛工时) + sum(计入工时的已批准请假)
 * 阈值远低于实际要求，只用于发现严重排班不足
 */
func (v *Validator) fortnightFloor(emp *domain.Employee, shifts []*domain.Shift) []Warning {
	hours := make(map[int]float64)
	for _, s := range shifts {
		if s.Attended {
			hours[s.PayCycle] += s.NetHours
		} else {
			hours[s.PayCycle] += s.GrossHours
		}
	}
	for _, l := range countedLeave(emp.Leave()) {
		hours[v.calendar.PayCycle(l.Date)] += l.CappedHours()
	}

	var warnings []Warning
	for _, n := range slices.Sorted(maps.Keys(hours)) {
		if hours[n] >= v.parameters.FortnightFloor {
			continue
		}
		warnings = append(warnings, Warning{
			Check:    CheckFortnightFloor,
			Severity: SeverityInfo,
			Message: fmt.Sprintf("Pay cycle %s has only %.2f hours (floor: %.0f)",
				v.calendar.CycleLabel(n), hours[n], v.parameters.FortnightFloor),
			Shifts: rules.InPayCycle(shifts, n),
		})
	}
	return warnings
}

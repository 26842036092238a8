package compliance

import (
	"fmt"
	"time"

	"github.com/sysu-ecnc-dev/roster-engine/backend/internal/domain"
	"github.com/sysu-ecnc-dev/roster-engine/backend/internal/rules"
)

/**
 * 无薪休息检查
 * 1. 相邻班次之间 15-60 分钟的间隔，若前后班次工时之和达到 5 小时则报告缺少休息
 * 2. 当天唯一的班次是 15-60 分钟的未出勤班次时，报告为孤立的无薪休息
 */
func (v *Validator) unpaidBreaks(emp *domain.Employee, shifts []*domain.Shift) []Warning {
	var warnings []Warning

	for i := 0; i+1 < len(shifts); i++ {
		current, next := shifts[i], shifts[i+1]
		if !v.isBreakLength(next.Start.Sub(current.End)) {
			continue
		}

		total := current.GrossHours + next.GrossHours
		if total < v.parameters.UnpaidBreakFloor {
			continue
		}

		warnings = append(warnings, Warning{
			Check:    CheckUnpaidBreaks,
			Severity: SeverityWarning,
			Message: fmt.Sprintf("Missing unpaid break: %s - %s (%.2f hours worked around the gap)",
				current.End.Format("Mon 02/01 1504"), next.Start.Format("1504"), total),
			Shifts:  []*domain.Shift{current, next},
			Context: []string{"Before gap: " + current.String(), "After gap: " + next.String()},
		})
	}

	for _, s := range shifts {
		if s.Attended || !v.isBreakLength(s.Duration()) {
			continue
		}
		if len(rules.StartingOn(shifts, s.Start)) != 1 {
			continue
		}
		warnings = append(warnings, Warning{
			Check:    CheckUnpaidBreaks,
			Severity: SeverityWarning,
			Message:  "Standalone unpaid break: " + s.String(),
			Shifts:   []*domain.Shift{s},
		})
	}

	return warnings
}

// shortShifts 不足 2 小时的班次必须能与首尾相接的前后班次累计到 2 小时
func (v *Validator) shortShifts(emp *domain.Employee, shifts []*domain.Shift) []Warning {
	breakRule := emp.ContractStatus.AttendedCountsAsBreak()
	counts := func(s *domain.Shift) bool {
		return s.Attended || !breakRule
	}

	var warnings []Warning
	for i, s := range shifts {
		if !counts(s) || v.isOnCall(s) || s.GrossHours >= v.parameters.ShortShiftHours {
			continue
		}

		total := s.GrossHours
		first, last := i, i
		for j := i - 1; j >= 0 && total < v.parameters.ShortShiftHours; j-- {
			prev := shifts[j]
			if !prev.End.Equal(shifts[first].Start) || !counts(prev) {
				break
			}
			total += prev.GrossHours
			first = j
		}
		for j := i + 1; j < len(shifts) && total < v.parameters.ShortShiftHours; j++ {
			next := shifts[j]
			if !shifts[last].End.Equal(next.Start) || !counts(next) {
				break
			}
			total += next.GrossHours
			last = j
		}

		if total >= v.parameters.ShortShiftHours {
			continue
		}

		group := shifts[first : last+1]
		warnings = append(warnings, Warning{
			Check:    CheckShortShifts,
			Severity: SeverityWarning,
			Message:  fmt.Sprintf("Short shift detected: %s (%.2f hrs)", s, s.GrossHours),
			Shifts:   group,
			Context:  describe(group, nil),
		})
	}
	return warnings
}

// overlaps 把互相重叠的班次合并成组（传递闭包），每组只报告一次
func (v *Validator) overlaps(emp *domain.Employee, shifts []*domain.Shift) []Warning {
	reported := make(map[*domain.Shift]bool)

	var warnings []Warning
	for i, s := range shifts {
		if v.isOnCall(s) || reported[s] {
			continue
		}

		group := []*domain.Shift{s}
		end := s.End
		for _, next := range shifts[i+1:] {
			if v.isOnCall(next) {
				continue
			}
			if !next.Start.Before(end) {
				break
			}
			group = append(group, next)
			if next.End.After(end) {
				end = next.End
			}
		}

		if len(group) < 2 {
			continue
		}

		lines := make([]string, 0, len(group))
		for _, g := range group {
			reported[g] = true
			lines = append(lines, "With: "+g.String())
		}
		warnings = append(warnings, Warning{
			Check:    CheckOverlaps,
			Severity: SeverityError,
			Message:  fmt.Sprintf("Overlap group detected on %s (%d shifts)", dayLabel(s.Start), len(group)),
			Shifts:   group,
			Context:  lines,
		})
	}
	return warnings
}

// onCall on-call 班次（不足 15 分钟）的第二天不能再排班
func (v *Validator) onCall(emp *domain.Employee, shifts []*domain.Shift) []Warning {
	var warnings []Warning
	for _, s := range shifts {
		if !v.isOnCall(s) {
			continue
		}

		nextDay := domain.DateOf(s.Start).AddDate(0, 0, 1)
		following := rules.StartingOn(shifts, nextDay)
		if len(following) == 0 {
			continue
		}

		warnings = append(warnings, Warning{
			Check:    CheckOnCall,
			Severity: SeverityWarning,
			Message:  fmt.Sprintf("On-call restriction violated: %s is followed by work on %s", s, dayLabel(nextDay)),
			Shifts:   append([]*domain.Shift{s}, following...),
			Context:  describe(following, nil),
		})
	}
	return warnings
}

/**
 * 每天一个 12 小时工作块
 * 1. 工作块从当天第一个计入工作的班次开始，之后结束的班次都要报告
 * 2. 工作块内工时超过 12 小时报告加班
 * 3. 到下一个工作块开始的间隔必须满足合同要求的最短休息
 */
func (v *Validator) dailyBlocks(emp *domain.Employee, shifts []*domain.Shift) []Warning {
	breakRule := emp.ContractStatus.AttendedCountsAsBreak()
	minimumBreak := emp.ContractStatus.MinimumBreakHours()

	var working []*domain.Shift
	for _, s := range shifts {
		if v.isOnCall(s) || (!s.Attended && breakRule) {
			continue
		}
		working = append(working, s)
	}

	var warnings []Warning
	days := byStartDate(working)
	for d, day := range days {
		windowStart := day[0].Start
		windowEnd := windowStart.Add(v.parameters.WindowLength)
		lastEnd := day[0].End
		total := 0.0

		for _, s := range day {
			if s.Start.Before(windowEnd) {
				total += s.GrossHours
			}
			if s.End.After(lastEnd) {
				lastEnd = s.End
			}
			if s.End.After(windowEnd) {
				warnings = append(warnings, Warning{
					Check:    CheckDailyBlocks,
					Severity: SeverityWarning,
					Message: fmt.Sprintf("Shift exceeds 12 hour window: %s ends after the window closes at %s",
						s, windowEnd.Format("Mon 02/01 1504")),
					Shifts: []*domain.Shift{s},
				})
			}
		}

		if rules.Exceeds(total, v.parameters.BlockOvertimeHours) {
			warnings = append(warnings, Warning{
				Check:    CheckDailyBlocks,
				Severity: SeverityWarning,
				Message: fmt.Sprintf("Overtime: %.2f hours worked in the 12 hour window starting %s",
					total, windowStart.Format("Mon 02/01 1504")),
				Shifts:  day,
				Context: describe(day, nil),
			})
		}

		if d+1 == len(days) {
			continue
		}
		next := days[d+1][0]
		gap := next.Start.Sub(lastEnd).Hours()
		if gap >= minimumBreak {
			continue
		}
		warnings = append(warnings, Warning{
			Check:    CheckDailyBlocks,
			Severity: SeverityWarning,
			Message: fmt.Sprintf("Insufficient break between 12 hour blocks: only %.2f hours between %s and %s (required: %.0f)",
				gap, lastEnd.Format("Mon 02/01 1504"), next.Start.Format("Mon 02/01 1504"), minimumBreak),
			Shifts:  []*domain.Shift{day[len(day)-1], next},
			Context: []string{"End of block: " + day[len(day)-1].String(), "Next block: " + next.String()},
		})
	}
	return warnings
}

/**
 * 跨夜班检查
 * 1. 必须有首尾相接的已出勤配套班次，累计不少于 4 小时
 * 2. 合同允许时，前后 12 小时内的工时各自不超过 10 小时
 * 3. 合同不允许时，前后 12 小时内除配套班次外不能有其他班次，且前后都要满足最短休息
 */
func (v *Validator) sleepovers(emp *domain.Employee, shifts []*domain.Shift) []Warning {
	var warnings []Warning

	for i, s := range shifts {
		if !v.isSleepover(s) {
			continue
		}

		companions := v.companions(shifts, i)
		if companions == nil {
			warnings = append(warnings, Warning{
				Check:    CheckSleepovers,
				Severity: SeverityWarning,
				Message:  fmt.Sprintf("Missing or incorrect %.0f-hour sleepover component: %s", v.parameters.CompanionHours, s),
				Shifts:   []*domain.Shift{s},
			})
			continue
		}

		member := map[*domain.Shift]bool{s: true}
		for _, c := range companions {
			member[c] = true
		}

		if emp.ContractStatus.WorkAroundSleepover() {
			before, after := v.hoursAround(shifts, s)
			if rules.Exceeds(before, v.parameters.SleepoverWorkCap) || rules.Exceeds(after, v.parameters.SleepoverWorkCap) {
				warnings = append(warnings, Warning{
					Check:    CheckSleepovers,
					Severity: SeverityWarning,
					Message: fmt.Sprintf("Excessive work hours around sleepover: %.2f hours before or %.2f hours after %s",
						before, after, s),
					Shifts:  append([]*domain.Shift{s}, companions...),
					Context: describe(companions, nil),
				})
			}
			continue
		}

		for _, other := range shifts {
			if member[other] || !v.withinSleepoverWindow(s, other) {
				continue
			}
			warnings = append(warnings, Warning{
				Check:    CheckSleepovers,
				Severity: SeverityWarning,
				Message:  "Unauthorized work around sleepover on " + s.String(),
				Shifts:   []*domain.Shift{s, other},
				Context:  []string{"Unauthorized shift: " + other.String()},
			})
			break
		}

		warnings = append(warnings, v.breaksAroundBlock(emp, shifts, s, companions, member)...)
	}

	return warnings
}

// companions 返回紧贴跨夜班之前（优先）或之后、累计达到配套时长的已出勤班次
func (v *Validator) companions(shifts []*domain.Shift, i int) []*domain.Shift {
	sleepover := shifts[i]

	var before []*domain.Shift
	total, edge := 0.0, sleepover.Start
	for j := i - 1; j >= 0 && total < v.parameters.CompanionHours; j-- {
		prev := shifts[j]
		if !prev.Attended || !prev.End.Equal(edge) {
			break
		}
		before = append([]*domain.Shift{prev}, before...)
		total += prev.GrossHours
		edge = prev.Start
	}
	if total >= v.parameters.CompanionHours {
		return before
	}

	var after []*domain.Shift
	total, edge = 0.0, sleepover.End
	for j := i + 1; j < len(shifts) && total < v.parameters.CompanionHours; j++ {
		next := shifts[j]
		if !next.Attended || !next.Start.Equal(edge) {
			break
		}
		after = append(after, next)
		total += next.GrossHours
		edge = next.End
	}
	if total >= v.parameters.CompanionHours {
		return after
	}

	return nil
}

func (v *Validator) hoursAround(shifts []*domain.Shift, sleepover *domain.Shift) (float64, float64) {
	before, after := 0.0, 0.0
	for _, s := range shifts {
		if s == sleepover {
			continue
		}
		if !s.End.After(sleepover.Start) && sleepover.Start.Sub(s.End) <= v.parameters.SleepoverWindow {
			before += s.GrossHours
		}
		if !s.Start.Before(sleepover.End) && s.Start.Sub(sleepover.End) <= v.parameters.SleepoverWindow {
			after += s.GrossHours
		}
	}
	return before, after
}

func (v *Validator) withinSleepoverWindow(sleepover, s *domain.Shift) bool {
	if s == sleepover {
		return false
	}
	if !s.End.After(sleepover.Start) {
		return sleepover.Start.Sub(s.End) <= v.parameters.SleepoverWindow
	}
	if !s.Start.Before(sleepover.End) {
		return s.Start.Sub(sleepover.End) <= v.parameters.SleepoverWindow
	}
	return true
}

// breaksAroundBlock 跨夜班连同配套班次视为一个整体，检查与前后班次之间的休息
func (v *Validator) breaksAroundBlock(emp *domain.Employee, shifts []*domain.Shift, sleepover *domain.Shift,
	companions []*domain.Shift, member map[*domain.Shift]bool) []Warning {
	minimumBreak := emp.ContractStatus.MinimumBreakHours()

	blockStart, blockEnd := sleepover.Start, sleepover.End
	for _, c := range companions {
		if c.Start.Before(blockStart) {
			blockStart = c.Start
		}
		if c.End.After(blockEnd) {
			blockEnd = c.End
		}
	}

	var prev, next *domain.Shift
	for _, s := range shifts {
		if member[s] {
			continue
		}
		if !s.End.After(blockStart) {
			prev = s
		}
		if next == nil && !s.Start.Before(blockEnd) {
			next = s
		}
	}

	var warnings []Warning
	if prev != nil {
		if gap := blockStart.Sub(prev.End).Hours(); gap < minimumBreak {
			warnings = append(warnings, Warning{
				Check:    CheckSleepovers,
				Severity: SeverityWarning,
				Message:  fmt.Sprintf("Insufficient break before sleepover: only %.2f hours before %s", gap, sleepover),
				Shifts:   []*domain.Shift{prev, sleepover},
				Context:  []string{"Previous shift: " + prev.String()},
			})
		}
	}
	if next != nil {
		if gap := next.Start.Sub(blockEnd).Hours(); gap < minimumBreak {
			warnings = append(warnings, Warning{
				Check:    CheckSleepovers,
				Severity: SeverityWarning,
				Message:  fmt.Sprintf("Insufficient break after sleepover: only %.2f hours after %s", gap, sleepover),
				Shifts:   []*domain.Shift{sleepover, next},
				Context:  []string{"Following shift: " + next.String()},
			})
		}
	}
	return warnings
}

func (v *Validator) isOnCall(s *domain.Shift) bool {
	return s.Duration() < v.parameters.OnCallThreshold
}

func (v *Validator) isBreakLength(d time.Duration) bool {
	return d >= v.parameters.UnpaidBreakMin && d <= v.parameters.UnpaidBreakMax
}

// isSleepover 跨越日期、未出勤且时长在 1 到 8 小时之间的班次
func (v *Validator) isSleepover(s *domain.Shift) bool {
	return !s.Attended && rules.IsSleepover(s) && s.GrossHours > 1 && s.GrossHours <= v.parameters.SleepoverMaxHours
}

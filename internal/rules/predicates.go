package rules

import (
	"slices"
	"time"

	"github.com/sysu-ecnc-dev/roster-engine/backend/internal/domain"
)

// 这里的谓词同时被逐班次的 Engine 和批量的合规检查使用：
// Engine 传入 "已有班次 + 候选班次"，合规检查传入员工的完整班次历史。

const epsilon = 1e-9

// Exceeds 判断 total 是否超过 limit，容忍浮点误差
func Exceeds(total, limit float64) bool {
	return total-limit > epsilon
}

// Overlaps 判断两个左闭右开区间是否相交，首尾相接不算重叠
func Overlaps(aStart, aEnd, bStart, bEnd time.Time) bool {
	return aStart.Before(bEnd) && bStart.Before(aEnd)
}

func ShiftsOverlap(a, b *domain.Shift) bool {
	return Overlaps(a.Start, a.End, b.Start, b.End)
}

// IsSleepover 开始和结束不在同一天的班次即为跨夜班
func IsSleepover(s *domain.Shift) bool {
	return s.SpansMidnight()
}

// DaysSpanned 返回班次覆盖的日历日；恰好在零点结束的班次不计入结束那天
func DaysSpanned(s *domain.Shift) []time.Time {
	first := domain.DateOf(s.Start)
	last := domain.DateOf(s.End)
	if last.After(first) && s.End.Equal(last) {
		last = last.AddDate(0, 0, -1)
	}

	var days []time.Time
	for d := first; !d.After(last); d = d.AddDate(0, 0, 1) {
		days = append(days, d)
	}
	return days
}

// DayKey 把日期转换为可比较的键，忽略时区
func DayKey(t time.Time) string {
	return t.Format(time.DateOnly)
}

// DistinctDays 统计一组班次覆盖的不同日历日
func DistinctDays(shifts []*domain.Shift) map[string]time.Time {
	days := make(map[string]time.Time)
	for _, s := range shifts {
		for _, d := range DaysSpanned(s) {
			days[DayKey(d)] = d
		}
	}
	return days
}

func InPayCycle(shifts []*domain.Shift, cycle int) []*domain.Shift {
	var out []*domain.Shift
	for _, s := range shifts {
		if s.PayCycle == cycle {
			out = append(out, s)
		}
	}
	return out
}

func StartingOn(shifts []*domain.Shift, day time.Time) []*domain.Shift {
	var out []*domain.Shift
	for _, s := range shifts {
		if domain.SameDate(s.Start, day) {
			out = append(out, s)
		}
	}
	return out
}

// Weight 决定一个班次在工时累计中计入多少小时
type Weight func(s *domain.Shift) float64

func NetWeight(s *domain.Shift) float64 {
	return s.NetHours
}

func GrossWeight(s *domain.Shift) float64 {
	return s.GrossHours
}

// ContractWeight 已出勤的班次计净工时；未出勤的班次在合同允许时视为休息，否则计毛工时
func ContractWeight(cs domain.ContractStatus) Weight {
	return func(s *domain.Shift) float64 {
		switch {
		case s.Attended:
			return s.NetHours
		case cs.AttendedCountsAsBreak():
			return 0
		default:
			return s.GrossHours
		}
	}
}

func Sum(shifts []*domain.Shift, w Weight) float64 {
	total := 0.0
	for _, s := range shifts {
		total += w(s)
	}
	return total
}

// WindowFrom 返回在 [anchor, anchor+length] 内开始的班次
func WindowFrom(shifts []*domain.Shift, anchor time.Time, length time.Duration) []*domain.Shift {
	end := anchor.Add(length)
	var out []*domain.Shift
	for _, s := range shifts {
		if !s.Start.Before(anchor) && !s.Start.After(end) {
			out = append(out, s)
		}
	}
	return out
}

// EarliestStart 返回一组班次中最早的开始时间
func EarliestStart(shifts []*domain.Shift) time.Time {
	var earliest time.Time
	for i, s := range shifts {
		if i == 0 || s.Start.Before(earliest) {
			earliest = s.Start
		}
	}
	return earliest
}

// LeaveOverlapping 返回与班次相交的请假（按整天计算），不区分请假状态
func LeaveOverlapping(leave []*domain.Leave, s *domain.Shift) []*domain.Leave {
	var out []*domain.Leave
	for _, l := range leave {
		start, end := l.DayBounds()
		if Overlaps(s.Start, s.End, start, end) {
			out = append(out, l)
		}
	}
	return out
}

// SortedByStart 返回按开始时间稳定排序的副本
func SortedByStart(shifts []*domain.Shift) []*domain.Shift {
	out := slices.Clone(shifts)
	slices.SortStableFunc(out, func(a, b *domain.Shift) int {
		return a.Start.Compare(b.Start)
	})
	return out
}

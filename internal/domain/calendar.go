package domain

import (
	"fmt"
	"time"
)

const DefaultPayCycleDays = 14

// Calendar 把时间映射到发薪周期（pay cycle）和双周内的周序号。
// 所有计算都基于日历日期，与时区和夏令时无关。
type Calendar struct {
	Reference time.Time // 第 1 个发薪周期的第一天
	CycleDays int
}

func NewCalendar(reference time.Time, cycleDays int) Calendar {
	if cycleDays <= 0 {
		cycleDays = DefaultPayCycleDays
	}
	return Calendar{Reference: DateOf(reference), CycleDays: cycleDays}
}

// DefaultCalendar 以 2024-10-01（周二）为基准
func DefaultCalendar() Calendar {
	return NewCalendar(time.Date(2024, time.October, 1, 0, 0, 0, 0, time.Local), DefaultPayCycleDays)
}

// PayCycle 返回 t 所在发薪周期的编号（从 1 开始，基准日之前为 0 或负数）
func (c Calendar) PayCycle(t time.Time) int {
	return floorDiv(DaysBetween(c.Reference, t), c.cycleDays()) + 1
}

// WeekNum 返回 t 在发薪周期中的周序号（1 或 2），每 7 天交替一次
func (c Calendar) WeekNum(t time.Time) int {
	return mod(floorDiv(DaysBetween(c.Reference, t), 7), 2) + 1
}

// CycleBounds 返回第 n 个发薪周期的第一天和最后一天
func (c Calendar) CycleBounds(n int) (time.Time, time.Time) {
	start := c.Reference.AddDate(0, 0, (n-1)*c.cycleDays())
	return start, start.AddDate(0, 0, c.cycleDays()-1)
}

// CycleLabel 用于告警信息，例如 "5 (Tue 26/11 - Mon 09/12)"
func (c Calendar) CycleLabel(n int) string {
	start, end := c.CycleBounds(n)
	return fmt.Sprintf("%d (%s - %s)", n, start.Format("Mon 02/01"), end.Format("Mon 02/01"))
}

func (c Calendar) cycleDays() int {
	if c.CycleDays <= 0 {
		return DefaultPayCycleDays
	}
	return c.CycleDays
}

// DateOf 截断到 t 所在时区的当天零点
func DateOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// SameDate 判断两个时间是否落在同一个日历日
func SameDate(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

// DaysBetween 返回 from 到 to 之间相差的日历天数
func DaysBetween(from, to time.Time) int {
	fy, fm, fd := from.Date()
	ty, tm, td := to.Date()
	a := time.Date(fy, fm, fd, 0, 0, 0, 0, time.UTC)
	b := time.Date(ty, tm, td, 0, 0, 0, 0, time.UTC)
	return int(b.Sub(a).Hours() / 24)
}

func floorDiv(a, b int) int {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}

func mod(a, b int) int {
	m := a % b
	if m < 0 {
		m += b
	}
	return m
}

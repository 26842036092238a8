package compliance

import (
	"time"

	"github.com/sysu-ecnc-dev/roster-engine/backend/internal/domain"
)

func dayLabel(t time.Time) string {
	return t.Format("Mon 02/01")
}

// byStartDate 按开始日期分组，保持输入顺序
func byStartDate(shifts []*domain.Shift) [][]*domain.Shift {
	var days [][]*domain.Shift
	for _, s := range shifts {
		if n := len(days); n > 0 && domain.SameDate(days[n-1][0].Start, s.Start) {
			days[n-1] = append(days[n-1], s)
			continue
		}
		days = append(days, []*domain.Shift{s})
	}
	return days
}

func describe(shifts []*domain.Shift, leave []*domain.Leave) []string {
	var lines []string
	for _, s := range shifts {
		lines = append(lines, "SHIFT: "+s.String())
	}
	for _, l := range leave {
		lines = append(lines, "LEAVE: "+l.String())
	}
	return lines
}

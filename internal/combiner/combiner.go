package combiner

import (
	"io"
	"log/slog"
	"slices"
	"strings"

	"github.com/sysu-ecnc-dev/roster-engine/backend/internal/domain"
)

type Combiner struct {
	parameters *Parameters
	logger     *slog.Logger
	consumed   map[*domain.Shift]bool // 已经参与过合并的班次
}

func New(parameters *Parameters, logger *slog.Logger) *Combiner {
	if parameters == nil {
		parameters = DefaultParameters()
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Combiner{
		parameters: parameters,
		logger:     logger,
	}
}

// Combine 把零碎的未分配班次合并为可以提供给员工的班次，不修改传入的任何班次
func (c *Combiner) Combine(unassigned []*domain.Shift) *Result {
	c.consumed = make(map[*domain.Shift]bool)
	result := &Result{
		Provenance: make(map[*domain.Shift][]*domain.Shift),
	}

	var current []*domain.Shift
	for _, s := range unassigned {
		if !c.parameters.Since.IsZero() && s.Start.Before(c.parameters.Since) {
			result.Stale = append(result.Stale, s)
			continue
		}
		current = append(current, s)
	}
	c.logger.Info("开始合并未分配班次", "shifts", len(current), "stale", len(result.Stale))

	for _, g := range groupByDepartment(current) {
		if c.excluded(g.department) {
			result.Shifts = append(result.Shifts, g.shifts...)
			continue
		}

		for _, merged := range c.assembleSleepovers(g.shifts) {
			result.Shifts = append(result.Shifts, merged)
			result.Provenance[merged] = merged.Components
		}

		for _, merged := range c.combineRegular(g.shifts) {
			result.Shifts = append(result.Shifts, merged)
			result.Provenance[merged] = merged.Components
		}

		for _, s := range g.shifts {
			if c.consumed[s] {
				continue
			}
			result.Shifts = append(result.Shifts, s)
			if c.isShort(s) {
				result.ShortShifts = append(result.ShortShifts, s)
			}
		}
	}

	slices.SortStableFunc(result.Shifts, func(a, b *domain.Shift) int {
		if n := strings.Compare(a.WorkArea.Department, b.WorkArea.Department); n != 0 {
			return n
		}
		return a.Start.Compare(b.Start)
	})

	for _, s := range result.ShortShifts {
		c.logger.Warn("短班无法合并", "department", s.WorkArea.Department, "role", s.WorkArea.Role,
			"start", s.Start, "end", s.End, "hours", s.GrossHours)
	}
	c.logger.Info("班次合并完成", "total", len(result.Shifts), "combined", len(result.Provenance), "short", len(result.ShortShifts))

	return result
}

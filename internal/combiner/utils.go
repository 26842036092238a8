package combiner

import (
	"strings"

	"github.com/sysu-ecnc-dev/roster-engine/backend/internal/domain"
)

// groupByDepartment 按 (部门, 地点) 分组，保持首次出现的顺序
func groupByDepartment(shifts []*domain.Shift) []*group {
	var groups []*group
	index := make(map[[2]string]*group)

	for _, s := range shifts {
		key := [2]string{s.WorkArea.Department, s.WorkArea.Location}
		g, exists := index[key]
		if !exists {
			g = &group{department: s.WorkArea.Department, location: s.WorkArea.Location}
			index[key] = g
			groups = append(groups, g)
		}
		g.shifts = append(g.shifts, s)
	}

	return groups
}

func (c *Combiner) excluded(department string) bool {
	for _, d := range c.parameters.ExcludedDepartments {
		if strings.Contains(department, d) {
			return true
		}
	}
	return false
}

func (c *Combiner) isShort(s *domain.Shift) bool {
	return s.GrossHours < c.parameters.ShortShiftHours
}

func (c *Combiner) containsShort(shifts []*domain.Shift) bool {
	for _, s := range shifts {
		if c.isShort(s) {
			return true
		}
	}
	return false
}

// mergedRole 组成部分角色一致时保留原角色，否则使用通用角色
func (c *Combiner) mergedRole(components []*domain.Shift) string {
	role := components[0].WorkArea.Role
	for _, s := range components[1:] {
		if s.WorkArea.Role != role {
			return c.parameters.GenericRole
		}
	}
	return role
}

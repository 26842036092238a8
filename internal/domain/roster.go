package domain

import (
	"errors"
	"slices"
	"sort"
	"time"
)

var ErrShiftNotInPool = errors.New("shift is not in the combined pool")

// Roster 持有所有员工、未分配班次池和合并后的待分配班次池。
// 同一个班次在任意时刻只属于员工班次、未分配池和合并池三者之一。
type Roster struct {
	Calendar Calendar
	Cutoff   time.Time // 零值表示不限制

	employees  []*Employee
	byCode     map[string]*Employee
	unassigned []*Shift
	combined   []*Shift
}

type RosterStats struct {
	Employees  int `json:"employees"`
	Shifts     int `json:"shifts"`
	Leave      int `json:"leave"`
	Unassigned int `json:"unassigned"`
	Combined   int `json:"combined"`
}

func NewRoster(calendar Calendar) *Roster {
	return &Roster{
		Calendar: calendar,
		byCode:   make(map[string]*Employee),
	}
}

// AddEmployee 员工编号重复时保留先加入的员工
func (r *Roster) AddEmployee(e *Employee) bool {
	if _, exists := r.byCode[e.Code]; exists {
		return false
	}
	r.byCode[e.Code] = e
	r.employees = append(r.employees, e)
	return true
}

func (r *Roster) Employee(code string) (*Employee, bool) {
	e, ok := r.byCode[code]
	return e, ok
}

// Employees 按加入顺序返回
func (r *Roster) Employees() []*Employee {
	return slices.Clone(r.employees)
}

// SortedEmployees 按姓名排序
func (r *Roster) SortedEmployees() []*Employee {
	out := slices.Clone(r.employees)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Name < out[j].Name
	})
	return out
}

func (r *Roster) beforeCutoff(s *Shift) bool {
	return r.Cutoff.IsZero() || s.Start.Before(r.Cutoff)
}

// AssignShift 在截止日期之后开始的班次不会加入
func (r *Roster) AssignShift(e *Employee, s *Shift) bool {
	if !r.beforeCutoff(s) {
		return false
	}
	return e.AddShift(s)
}

func (r *Roster) AddUnassignedShift(s *Shift) bool {
	if !r.beforeCutoff(s) {
		return false
	}
	r.unassigned = append(r.unassigned, s)
	return true
}

func (r *Roster) UnassignedShifts() []*Shift {
	return slices.Clone(r.unassigned)
}

// SetCombined 用合并结果替换未分配池，被合并的原始班次从未分配池中移出
func (r *Roster) SetCombined(combined []*Shift) {
	r.combined = slices.Clone(combined)
	r.unassigned = nil
}

func (r *Roster) CombinedShifts() []*Shift {
	return slices.Clone(r.combined)
}

// AssignFromCombined 把合并池中的班次移交给员工
func (r *Roster) AssignFromCombined(e *Employee, s *Shift) error {
	i := slices.Index(r.combined, s)
	if i < 0 {
		return ErrShiftNotInPool
	}
	r.combined = slices.Delete(r.combined, i, i+1)
	e.AddShift(s)
	return nil
}

// RetainLocations 删除没有任何工作区域位于 locations 中的员工，并返回被删除的员工
func (r *Roster) RetainLocations(locations ...string) []*Employee {
	if len(locations) == 0 {
		return nil
	}

	var kept, dropped []*Employee
	for _, e := range r.employees {
		match := false
		for _, loc := range e.Locations() {
			if slices.Contains(locations, loc) {
				match = true
				break
			}
		}
		if match {
			kept = append(kept, e)
		} else {
			dropped = append(dropped, e)
			delete(r.byCode, e.Code)
		}
	}
	r.employees = kept
	return dropped
}

func (r *Roster) Stats() RosterStats {
	stats := RosterStats{
		Employees:  len(r.employees),
		Unassigned: len(r.unassigned),
		Combined:   len(r.combined),
	}
	for _, e := range r.employees {
		stats.Shifts += len(e.shifts)
		stats.Leave += len(e.leave)
	}
	return stats
}

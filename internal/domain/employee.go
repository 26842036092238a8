package domain

import (
	"fmt"
	"slices"
	"sort"
	"strings"
	"time"
)

type Employee struct {
	Name           string         `json:"name"`
	Code           string         `json:"code"`
	RosterCode     string         `json:"rosterCode"`
	EmploymentType EmploymentType `json:"employmentType"`
	ContractStatus ContractStatus `json:"contractStatus"`
	Email          string         `json:"email"`
	FirstName      string         `json:"firstName"`
	LastName       string         `json:"lastName"`

	shifts    []*Shift // 按开始时间排序
	shiftKeys map[string]bool
	workAreas []WorkArea
	leave     []*Leave // 按日期排序，每天最多一条
}

func NewEmployee(name, code, rosterCode string, employmentType EmploymentType, contractStatus ContractStatus) *Employee {
	first, last := SplitName(name)
	return &Employee{
		Name:           name,
		Code:           code,
		RosterCode:     rosterCode,
		EmploymentType: employmentType,
		ContractStatus: contractStatus,
		FirstName:      first,
		LastName:       last,
		shiftKeys:      make(map[string]bool),
	}
}

// SplitName 拆分姓名；如果包含括号，则使用括号中的常用名
func SplitName(name string) (string, string) {
	name = strings.TrimSpace(name)
	if l, r := strings.Index(name, "("), strings.Index(name, ")"); l >= 0 && l < r {
		name = strings.TrimSpace(name[l+1 : r])
	}

	first, last, _ := strings.Cut(name, " ")
	return first, strings.TrimSpace(last)
}

// AddShift 重复的班次（相同的开始、结束时间和工作区域）会被忽略
func (e *Employee) AddShift(s *Shift) bool {
	if e.shiftKeys == nil {
		e.shiftKeys = make(map[string]bool)
	}
	key := s.Key()
	if e.shiftKeys[key] {
		return false
	}
	e.shiftKeys[key] = true

	i := sort.Search(len(e.shifts), func(i int) bool {
		return e.shifts[i].Start.After(s.Start)
	})
	e.shifts = slices.Insert(e.shifts, i, s)
	e.AddWorkArea(s.WorkArea)
	return true
}

func (e *Employee) AddWorkArea(wa WorkArea) {
	if !slices.Contains(e.workAreas, wa) {
		e.workAreas = append(e.workAreas, wa)
	}
}

// AddLeave 同一天只保留最近一次申请的假期
func (e *Employee) AddLeave(l *Leave) {
	for i, existing := range e.leave {
		if SameDate(existing.Date, l.Date) {
			if l.RequestedAt.After(existing.RequestedAt) {
				e.leave[i] = l
			}
			return
		}
	}

	i := sort.Search(len(e.leave), func(i int) bool {
		return e.leave[i].Date.After(l.Date)
	})
	e.leave = slices.Insert(e.leave, i, l)
}

// Shifts 返回按开始时间排序的班次副本
func (e *Employee) Shifts() []*Shift {
	return slices.Clone(e.shifts)
}

func (e *Employee) WorkAreas() []WorkArea {
	return slices.Clone(e.workAreas)
}

func (e *Employee) Leave() []*Leave {
	return slices.Clone(e.leave)
}

func (e *Employee) HasWorkArea(wa WorkArea) bool {
	return slices.Contains(e.workAreas, wa)
}

// ShiftsOn 返回开始于 day 当天的班次
func (e *Employee) ShiftsOn(day time.Time) []*Shift {
	var out []*Shift
	for _, s := range e.shifts {
		if SameDate(s.Start, day) {
			out = append(out, s)
		}
	}
	return out
}

func (e *Employee) Locations() []string {
	var out []string
	for _, wa := range e.workAreas {
		if !slices.Contains(out, wa.Location) {
			out = append(out, wa.Location)
		}
	}
	return out
}

func (e *Employee) IsCasual() bool {
	return e.EmploymentType == EmploymentCasual
}

func (e *Employee) String() string {
	return fmt.Sprintf("%s (%s, %s, %s, [%s], Shifts: %d, Leave: %d)", e.Name, e.RosterCode, e.EmploymentType,
		e.ContractStatus, strings.Join(e.Locations(), ", "), len(e.shifts), len(e.leave))
}

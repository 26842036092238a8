package domain

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"time"
)

var ErrInvalidInput = errors.New("invalid input")

// WorkArea 可以直接作为 map 的键
type WorkArea struct {
	Location   string `json:"location" yaml:"location"`
	Department string `json:"department" yaml:"department"`
	Role       string `json:"role" yaml:"role"`
}

func (wa WorkArea) String() string {
	return fmt.Sprintf("%s / %s / %s", wa.Location, wa.Department, wa.Role)
}

// Shift 构造之后不可修改，合并只会生成新的班次
type Shift struct {
	ID         int64     `json:"id,omitempty"` // 数据库主键，合成班次为 0
	Start      time.Time `json:"start"`
	End        time.Time `json:"end"`
	WorkArea   WorkArea  `json:"workArea"`
	Published  bool      `json:"published"`
	Comment    string    `json:"comment"`
	Attended   bool      `json:"attended"`
	GrossHours float64   `json:"grossHours"`
	NetHours   float64   `json:"netHours"`
	PayCycle   int       `json:"payCycle"`
	WeekNum    int       `json:"weekNum"`

	// Components 仅合成班次非空，按开始时间排序
	Components []*Shift `json:"components,omitempty"`
}

type ShiftSpec struct {
	ID        int64
	Start     time.Time
	End       time.Time
	WorkArea  WorkArea
	Published bool
	Comment   string
	Attended  bool
}

// NewShift 跨夜的班次需要调用方先把结束日期加一天
func (c Calendar) NewShift(spec ShiftSpec) (*Shift, error) {
	if spec.End.Before(spec.Start) {
		return nil, fmt.Errorf("%w: shift ends (%s) before it starts (%s)", ErrInvalidInput,
			spec.End.Format(time.DateTime), spec.Start.Format(time.DateTime))
	}
	if spec.WorkArea == (WorkArea{}) {
		return nil, fmt.Errorf("%w: shift starting %s has no work area", ErrInvalidInput, spec.Start.Format(time.DateTime))
	}

	gross := roundHours(spec.End.Sub(spec.Start).Hours())
	net := 0.0
	if spec.Attended {
		net = gross
	}

	return &Shift{
		ID:         spec.ID,
		Start:      spec.Start,
		End:        spec.End,
		WorkArea:   spec.WorkArea,
		Published:  spec.Published,
		Comment:    spec.Comment,
		Attended:   spec.Attended,
		GrossHours: gross,
		NetHours:   net,
		PayCycle:   c.PayCycle(spec.Start),
		WeekNum:    c.WeekNum(spec.Start),
	}, nil
}

// NewCompositeShift 生成合成班次：区间取各组成部分的最小开始和最大结束，
// 工时使用显式传入的值而不是根据区间重新计算。
func NewCompositeShift(components []*Shift, role string, gross, net float64, comment string) *Shift {
	start, end := components[0].Start, components[0].End
	attended := false
	for _, s := range components {
		if s.Start.Before(start) {
			start = s.Start
		}
		if s.End.After(end) {
			end = s.End
		}
		attended = attended || s.Attended
	}

	wa := components[0].WorkArea
	wa.Role = role

	return &Shift{
		Start:      start,
		End:        end,
		WorkArea:   wa,
		Comment:    comment,
		Attended:   attended,
		GrossHours: roundHours(gross),
		NetHours:   roundHours(net),
		PayCycle:   components[0].PayCycle,
		WeekNum:    components[0].WeekNum,
		Components: components,
	}
}

// Key 由开始、结束时间和工作区域组成，用于去重和在 API 中引用班次
func (s *Shift) Key() string {
	key := fmt.Sprintf("%s|%s|%s|%s|%s", s.Start.Format(time.RFC3339), s.End.Format(time.RFC3339),
		s.WorkArea.Location, s.WorkArea.Department, s.WorkArea.Role)
	if len(s.Components) > 0 {
		key += fmt.Sprintf("|x%d", len(s.Components))
	}
	return key
}

func (s *Shift) IsComposite() bool {
	return len(s.Components) > 0
}

// SpansMidnight 开始和结束不在同一个日历日即视为跨夜班（sleepover）
func (s *Shift) SpansMidnight() bool {
	return !SameDate(s.Start, s.End)
}

func (s *Shift) Duration() time.Duration {
	return s.End.Sub(s.Start)
}

func (s *Shift) String() string {
	attended := "Not Attended"
	if s.Attended {
		attended = "Attended"
	}
	return fmt.Sprintf("%s, %s on %s from %s-%s (G:%.1fhrs, N:%.1fhrs, %s)",
		s.WorkArea.Department, s.WorkArea.Role, s.Start.Format("Mon 02/01"),
		s.Start.Format("1504"), s.End.Format("1504"), s.GrossHours, s.NetHours, attended)
}

// RolePrefix 返回角色名中分隔符之前的部分
func RolePrefix(role, separator string) string {
	if separator == "" {
		return strings.TrimSpace(role)
	}
	before, _, found := strings.Cut(role, separator)
	if !found {
		return role
	}
	return strings.TrimSpace(before)
}

func roundHours(h float64) float64 {
	return math.Round(h*100) / 100
}

package optimizer

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"slices"
	"time"

	"github.com/google/uuid"
	"github.com/sysu-ecnc-dev/roster-engine/backend/internal/domain"
	"github.com/sysu-ecnc-dev/roster-engine/backend/internal/rules"
)

// Optimizer 每次给出一个最合适的 (员工, 班次) 提议，等待操作员接受或拒绝。
// 拒绝记录和不可排记录在整个运行期间只增不减。
type Optimizer struct {
	parameters *Parameters
	roster     *domain.Roster
	engine     *rules.Engine
	logger     *slog.Logger

	shifts          []*domain.Shift // 构造时合并池中的班次，保持原有顺序
	difficulty      map[*domain.Shift]float64
	assigned        map[*domain.Shift]string
	rejected        map[pair]bool
	unfillable      map[*domain.Shift]verdicts
	unfillableOrder []*domain.Shift
	perEmployee     map[string]int
}

func New(parameters *Parameters, roster *domain.Roster, engine *rules.Engine, logger *slog.Logger) *Optimizer {
	if parameters == nil {
		parameters = DefaultParameters()
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if engine == nil {
		engine = rules.New(nil, logger)
	}

	o := &Optimizer{
		parameters:  parameters,
		roster:      roster,
		engine:      engine,
		logger:      logger,
		shifts:      roster.CombinedShifts(),
		difficulty:  make(map[*domain.Shift]float64),
		assigned:    make(map[*domain.Shift]string),
		rejected:    make(map[pair]bool),
		unfillable:  make(map[*domain.Shift]verdicts),
		perEmployee: make(map[string]int),
	}

	now := parameters.Now
	if now.IsZero() {
		now = time.Now()
	}
	for _, s := range o.shifts {
		o.difficulty[s] = o.calcDifficulty(s, now)
	}

	if len(o.unfillableOrder) > 0 {
		logger.Warn("存在无人可排的班次", "count", len(o.unfillableOrder))
	}

	return o
}

// NextProposal 返回下一个提议；没有可提议的组合时返回 false。
// 在调用 Respond 之前重复调用会得到相同的员工和班次。
func (o *Optimizer) NextProposal() (*Assignment, bool) {
	for _, s := range o.candidates() {
		if o.difficulty[s] <= o.parameters.DifficultyThreshold && s.GrossHours >= o.parameters.ShortShiftHours {
			if a := o.bestFor(s, true); a != nil {
				return a, true
			}
		}
		if a := o.bestFor(s, false); a != nil {
			return a, true
		}
	}

	return nil, false
}

// Verify 检查提议是否仍然可以按 accepted 处理。
// 被拒绝过的组合永远不能再处理；接受之前会按员工当前的班次重新运行规则。
func (o *Optimizer) Verify(a *Assignment, accepted bool) error {
	_, err := o.verify(a, accepted)
	return err
}

func (o *Optimizer) verify(a *Assignment, accepted bool) (*domain.Employee, error) {
	if !o.isPending(a.Shift) {
		return nil, fmt.Errorf("%w: %s", ErrShiftNotPending, a.Shift.Key())
	}
	emp, ok := o.roster.Employee(a.EmployeeCode)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownEmployee, a.EmployeeCode)
	}
	if o.rejected[pair{employeeCode: emp.Code, shift: a.Shift}] {
		return nil, fmt.Errorf("%w: %s, %s", ErrPairRejected, emp.Code, a.Shift.Key())
	}

	if accepted {
		if v := o.engine.Evaluate(emp, a.Shift); !v.Eligible {
			reason := v.Reason
			if reason == "" {
				reason = v.Rule
			}
			return nil, fmt.Errorf("%w: %s, %s", ErrNotEligible, emp.Code, reason)
		}
	}

	return emp, nil
}

// Respond 处理操作员对提议的决定
func (o *Optimizer) Respond(a *Assignment, accepted bool) (Outcome, error) {
	emp, err := o.verify(a, accepted)
	if err != nil {
		return "", err
	}

	if accepted {
		if err := o.roster.AssignFromCombined(emp, a.Shift); err != nil {
			return "", err
		}
		o.assigned[a.Shift] = emp.Code
		o.perEmployee[emp.Code]++
		o.logger.Info("班次已分配", "employee", emp.Code, "shift", a.Shift.Key())
		return OutcomeAssigned, nil
	}

	o.rejected[pair{employeeCode: emp.Code, shift: a.Shift}] = true
	o.logger.Info("提议被拒绝", "employee", emp.Code, "shift", a.Shift.Key())

	// 立即重新评估，判断该班次是否已经无人可排
	if o.bestFor(a.Shift, false) == nil {
		return OutcomeUnfillable, nil
	}
	return OutcomeRejected, nil
}

// Run 循环调用 NextProposal 和 Respond，直到没有提议或 ctx 被取消
func (o *Optimizer) Run(ctx context.Context, decide func(ctx context.Context, a *Assignment) (bool, error)) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		a, ok := o.NextProposal()
		if !ok {
			return nil
		}

		accepted, err := decide(ctx, a)
		if err != nil {
			return err
		}
		if _, err := o.Respond(a, accepted); err != nil {
			return err
		}
	}
}

func (o *Optimizer) Summary() *Summary {
	summary := &Summary{
		Total:       len(o.shifts),
		Assigned:    len(o.assigned),
		Remaining:   len(o.shifts) - len(o.assigned),
		PerEmployee: make(map[string]int, len(o.perEmployee)),
		Unfillable:  make([]UnfillableShift, 0, len(o.unfillableOrder)),
	}
	for code, n := range o.perEmployee {
		summary.PerEmployee[code] = n
	}
	for _, s := range o.unfillableOrder {
		summary.Unfillable = append(summary.Unfillable, UnfillableShift{Shift: s, Reasons: o.reasons(s)})
	}
	return summary
}

// Pending 根据 Key 查找仍待分配的班次，用于恢复保存在外部的提议
func (o *Optimizer) Pending(key string) (*domain.Shift, bool) {
	for _, s := range o.shifts {
		if s.Key() == key && o.isPending(s) {
			return s, true
		}
	}
	return nil, false
}

// Difficulty 返回班次当前的难度
func (o *Optimizer) Difficulty(s *domain.Shift) float64 {
	return o.difficulty[s]
}

// Proposal 用已知的员工和班次重建提议，供外部恢复使用
func (o *Optimizer) Proposal(id, employeeCode string, s *domain.Shift) (*Assignment, error) {
	if !o.isPending(s) {
		return nil, fmt.Errorf("%w: %s", ErrShiftNotPending, s.Key())
	}
	emp, ok := o.roster.Employee(employeeCode)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownEmployee, employeeCode)
	}
	if o.rejected[pair{employeeCode: emp.Code, shift: s}] {
		return nil, fmt.Errorf("%w: %s, %s", ErrPairRejected, emp.Code, s.Key())
	}
	return &Assignment{
		ID:           id,
		Shift:        s,
		EmployeeCode: employeeCode,
		Score:        o.suitability(emp, s),
		Difficulty:   o.difficulty[s],
	}, nil
}

func (o *Optimizer) isPending(s *domain.Shift) bool {
	if _, done := o.assigned[s]; done {
		return false
	}
	if _, dead := o.unfillable[s]; dead {
		return false
	}
	return slices.Contains(o.shifts, s)
}

// candidates 待分配且仍可排的班次，按难度从高到低稳定排序
func (o *Optimizer) candidates() []*domain.Shift {
	var out []*domain.Shift
	for _, s := range o.shifts {
		if o.isPending(s) {
			out = append(out, s)
		}
	}
	slices.SortStableFunc(out, func(a, b *domain.Shift) int {
		switch da, db := o.difficulty[a], o.difficulty[b]; {
		case da > db:
			return -1
		case da < db:
			return 1
		default:
			return 0
		}
	})
	return out
}

func newAssignment(s *domain.Shift, code string, score, difficulty float64) *Assignment {
	return &Assignment{
		ID:           uuid.NewString(),
		Shift:        s,
		EmployeeCode: code,
		Score:        score,
		Difficulty:   difficulty,
	}
}

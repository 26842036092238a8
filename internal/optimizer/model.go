package optimizer

import (
	"errors"
	"time"

	"github.com/sysu-ecnc-dev/roster-engine/backend/internal/domain"
	"github.com/sysu-ecnc-dev/roster-engine/backend/internal/rules"
)

var (
	ErrUnknownEmployee = errors.New("employee is not in the roster")
	ErrShiftNotPending = errors.New("shift is no longer pending")
	ErrPairRejected    = errors.New("employee was already rejected for this shift")
	ErrNotEligible     = errors.New("employee is no longer eligible for this shift")
)

// 优化参数
type Parameters struct {
	DifficultyThreshold float64       // 难度不高于该值的班次优先提供给临时工
	MaxDifficulty       float64       // 无人可排时的难度
	ShortShiftHours     float64       // 低于此工时的班次不优先考虑临时工
	IdealShiftHours     float64       // 难度计算中的理想时长
	IsolationSaturation time.Duration // 与最近班次的间隔达到该值时孤立度为 1
	FutureHorizonDays   float64       // 距今天数达到该值时远期分为 1
	LoadHours           float64       // 工时负载归一化基准
	LoadShifts          float64       // 班次数量归一化基准
	IdealMinHours       float64       // 理想班次时长下限
	IdealMaxHours       float64       // 理想班次时长上限
	AdjacencyWindow     time.Duration // 与已有班次间隔小于该值视为相邻

	// Now 用于计算远期分，零值表示使用当前时间
	Now time.Time
}

func DefaultParameters() *Parameters {
	return &Parameters{
		DifficultyThreshold: 2.0,
		MaxDifficulty:       10,
		ShortShiftHours:     2,
		IdealShiftHours:     5,
		IsolationSaturation: 8 * time.Hour,
		FutureHorizonDays:   30,
		LoadHours:           76,
		LoadShifts:          14,
		IdealMinHours:       4,
		IdealMaxHours:       8,
		AdjacencyWindow:     time.Hour,
	}
}

// 评分权重
const (
	hourWeight      = 0.6
	shiftWeight     = 0.3
	adjacencyWeight = 0.1
	idealLengthRate = 0.7
	adjacencyRate   = 0.5
)

// Assignment 一次 (员工, 班次) 提议
type Assignment struct {
	ID           string        `json:"id"`
	Shift        *domain.Shift `json:"shift"`
	EmployeeCode string        `json:"employeeCode"`
	Score        float64       `json:"score"`
	Difficulty   float64       `json:"difficulty"`
}

type Outcome string

const (
	OutcomeAssigned   Outcome = "assigned"
	OutcomeRejected   Outcome = "rejected"
	OutcomeUnfillable Outcome = "unfillable"
)

// 被操作员拒绝的组合在不可排原因中使用的规则名
const ruleOperatorRejected = "operator"

type Rejection struct {
	EmployeeCode string `json:"employeeCode"`
	EmployeeName string `json:"employeeName"`
	Rule         string `json:"rule"`
	Reason       string `json:"reason"`
}

type UnfillableShift struct {
	Shift   *domain.Shift `json:"shift"`
	Reasons []Rejection   `json:"reasons"` // 只包含非空原因
}

type Summary struct {
	Total       int               `json:"total"`
	Assigned    int               `json:"assigned"`
	Remaining   int               `json:"remaining"`
	PerEmployee map[string]int    `json:"perEmployee"`
	Unfillable  []UnfillableShift `json:"unfillable"`
}

type pair struct {
	employeeCode string
	shift        *domain.Shift
}

// verdicts 员工编号 -> 规则引擎结果
type verdicts map[string]rules.Verdict

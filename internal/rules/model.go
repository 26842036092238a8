package rules

import "time"

// Parameters 规则引擎参数
type Parameters struct {
	WindowLength          time.Duration // 滚动窗口长度
	DailyNetCeiling       float64       // 窗口内允许的最大净工时
	ExactMatchDepartments []string      // 这些前缀开头的部门必须完全匹配工作区域
}

func DefaultParameters() *Parameters {
	return &Parameters{
		WindowLength:          12 * time.Hour,
		DailyNetCeiling:       10,
		ExactMatchDepartments: []string{"IHS", "SIL"},
	}
}

// Verdict 规则引擎对一个 (员工, 班次) 组合的判断结果。
// 未通过时 Rule 一定非空，Reason 可能为空（工作区域规则不向用户展示原因）。
type Verdict struct {
	Eligible bool   `json:"eligible"`
	Rule     string `json:"rule,omitempty"`
	Reason   string `json:"reason,omitempty"`
}

const (
	RuleWorkArea        = "work area"
	RuleFortnightDays   = "fortnight days"
	RuleDailyWindow     = "12 hour window"
	RulePayCycleHours   = "pay cycle hours"
	RuleSleepoverIFA    = "sleepover IFA"
	RuleExistingShift   = "existing commitment"
	RuleLeave           = "leave"
	RuleLongerShiftOnly = "shift length priority"
)

package compliance

import (
	"time"

	"github.com/sysu-ecnc-dev/roster-engine/backend/internal/domain"
)

// 检查项名称
const (
	CheckProfile        = "profile"
	CheckLeaveConflicts = "leave conflicts"
	CheckPayCycleHours  = "pay cycle hours"
	CheckFortnightDays  = "fortnight days"
	CheckDailyWindow    = "12 hour window"
	CheckUnpaidBreaks   = "unpaid breaks"
	CheckShortShifts    = "short shifts"
	CheckOverlaps       = "overlaps"
	CheckOnCall         = "on call"
	CheckDailyBlocks    = "12 hour blocks"
	CheckSleepovers     = "sleepovers"
	CheckFortnightFloor = "fortnight floor"
	CheckPendingLeave   = "pending leave"
)

type Severity string

const (
	SeverityInfo    Severity = "info"
	SeverityWarning Severity = "warning"
	SeverityError   Severity = "error"
)

// 检查参数
type Parameters struct {
	WindowLength        time.Duration // 滑动窗口长度
	DailyNetCeiling     float64       // 窗口内允许的最大工时
	UnpaidBreakMin      time.Duration // 视为无薪休息的最短间隔
	UnpaidBreakMax      time.Duration // 视为无薪休息的最长间隔
	UnpaidBreakFloor    float64       // 休息前后工时之和达到该值时需要单独的休息
	ShortShiftHours     float64       // 短班次阈值
	OnCallThreshold     time.Duration // 低于该时长的班次视为 on-call
	BlockOvertimeHours  float64       // 每天 12 小时工作块内的工时上限
	SleepoverWindow     time.Duration // 跨夜班前后检查的范围
	SleepoverWorkCap    float64       // 允许跨夜班前后工作时，前后各自的工时上限
	SleepoverMaxHours   float64       // 超过该时长的未出勤班次不视为跨夜班
	CompanionHours      float64       // 跨夜班配套班次的时长
	FortnightFloor      float64       // 每个发薪周期的最低工时，低于此值只提示
	PendingLeaveHorizon int           // 检查未来多少天内的待批/被拒请假

	// Today 用于待批请假检查，零值表示使用当前日期
	Today time.Time
}

func DefaultParameters() *Parameters {
	return &Parameters{
		WindowLength:        12 * time.Hour,
		DailyNetCeiling:     10,
		UnpaidBreakMin:      15 * time.Minute,
		UnpaidBreakMax:      time.Hour,
		UnpaidBreakFloor:    5,
		ShortShiftHours:     2,
		OnCallThreshold:     15 * time.Minute,
		BlockOvertimeHours:  12,
		SleepoverWindow:     12 * time.Hour,
		SleepoverWorkCap:    10,
		SleepoverMaxHours:   8,
		CompanionHours:      4,
		FortnightFloor:      12,
		PendingLeaveHorizon: 45,
	}
}

// Warning 单条合规告警，Context 为排查用的上下文信息
type Warning struct {
	Check    string          `json:"check"`
	Severity Severity        `json:"severity"`
	Message  string          `json:"message"`
	Shifts   []*domain.Shift `json:"shifts,omitempty"`
	Leave    []*domain.Leave `json:"leave,omitempty"`
	Context  []string        `json:"context,omitempty"`
}

type CheckResult struct {
	Name     string    `json:"name"`
	Passed   bool      `json:"passed"`
	Warnings []Warning `json:"warnings"`
}

// DateRange 连续的日期区间，Start 和 End 均包含在内
type DateRange struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

func (r DateRange) String() string {
	if domain.SameDate(r.Start, r.End) {
		return r.Start.Format("02/01")
	}
	return r.Start.Format("02/01") + " - " + r.End.Format("02/01")
}

type Report struct {
	EmployeeCode        string        `json:"employeeCode"`
	EmployeeName        string        `json:"employeeName"`
	Passed              bool          `json:"passed"`
	Checks              []CheckResult `json:"checks"`
	ApprovedLeaveRanges []DateRange   `json:"approvedLeaveRanges"`
}

// Warnings 按检查顺序返回全部告警
func (r *Report) Warnings() []Warning {
	var out []Warning
	for _, c := range r.Checks {
		out = append(out, c.Warnings...)
	}
	return out
}

// Check 按名称查找检查结果
func (r *Report) Check(name string) (CheckResult, bool) {
	for _, c := range r.Checks {
		if c.Name == name {
			return c, true
		}
	}
	return CheckResult{}, false
}

package domain

import "strings"

type EmploymentType string

const (
	EmploymentCasual   EmploymentType = "Casual"
	EmploymentPartTime EmploymentType = "Part Time"
	EmploymentFullTime EmploymentType = "Full Time"
	EmploymentUnknown  EmploymentType = "Unknown"
)

// MaxFortnightDays 每个发薪周期内允许工作的最大天数
func (t EmploymentType) MaxFortnightDays() int {
	switch t {
	case EmploymentCasual:
		return 14
	case EmploymentPartTime, EmploymentFullTime:
		return 10
	default:
		return 0
	}
}

// MaxPayCycleHours 每个发薪周期内允许的最大工时
func (t EmploymentType) MaxPayCycleHours() float64 {
	switch t {
	case EmploymentCasual, EmploymentPartTime, EmploymentFullTime:
		return 76
	default:
		return 0
	}
}

func (t EmploymentType) Known() bool {
	return t != EmploymentUnknown && t.MaxFortnightDays() > 0
}

func ParseEmploymentType(name string) EmploymentType {
	for _, t := range []EmploymentType{EmploymentCasual, EmploymentPartTime, EmploymentFullTime} {
		if strings.EqualFold(string(t), strings.TrimSpace(name)) {
			return t
		}
	}
	return EmploymentUnknown
}

// ContractStatus 即员工的灵活性协议（IFA）状态
type ContractStatus string

const (
	ContractFullIFA    ContractStatus = "Full IFA"
	ContractPartialIFA ContractStatus = "Partial IFA"
	ContractNoIFA      ContractStatus = "No IFA"
	ContractUnknown    ContractStatus = "Unknown"
)

var contractSymbols = []struct {
	status ContractStatus
	symbol string
}{
	{ContractFullIFA, "*"},
	{ContractPartialIFA, "@"},
	{ContractNoIFA, "#"},
}

// MinimumBreakHours 两个 12 小时工作块之间要求的最短休息时间
func (c ContractStatus) MinimumBreakHours() float64 {
	switch c {
	case ContractFullIFA:
		return 8
	case ContractPartialIFA, ContractNoIFA:
		return 10
	default:
		return 0
	}
}

// AttendedCountsAsBreak 为 true 时，未出勤（unattended）的时段视为休息而不是工作
func (c ContractStatus) AttendedCountsAsBreak() bool {
	return c == ContractFullIFA || c == ContractPartialIFA
}

func (c ContractStatus) WorkAroundSleepover() bool {
	return c == ContractFullIFA || c == ContractPartialIFA
}

// PermitsSleepover 只有签署了完整 IFA 的员工才能接受跨夜班
func (c ContractStatus) PermitsSleepover() bool {
	return c == ContractFullIFA
}

func (c ContractStatus) Known() bool {
	return c == ContractFullIFA || c == ContractPartialIFA || c == ContractNoIFA
}

// Symbol 排班名中标记合同状态的符号
func (c ContractStatus) Symbol() string {
	for _, cs := range contractSymbols {
		if cs.status == c {
			return cs.symbol
		}
	}
	return ""
}

// ParseContractStatus 同时接受状态名称和排班名中的标记符号
func ParseContractStatus(name string) ContractStatus {
	for _, cs := range contractSymbols {
		if strings.Contains(strings.ToLower(name), strings.ToLower(string(cs.status))) || strings.Contains(name, cs.symbol) {
			return cs.status
		}
	}
	return ContractUnknown
}

// ContractStatusFromRosterName 只根据排班名中的符号判断
func ContractStatusFromRosterName(rosterName string) ContractStatus {
	for _, cs := range contractSymbols {
		if strings.Contains(rosterName, cs.symbol) {
			return cs.status
		}
	}
	return ContractUnknown
}

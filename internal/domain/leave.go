package domain

import (
	"fmt"
	"strings"
	"time"
)

// MaxLeaveHoursPerDay 单日请假工时上限
const MaxLeaveHoursPerDay = 7.6

type LeaveStatus string

const (
	LeaveRequested LeaveStatus = "Requested"
	LeaveApproved  LeaveStatus = "Approved"
	LeaveDenied    LeaveStatus = "Denied"
)

func (s LeaveStatus) IsApproved() bool {
	return s == LeaveApproved
}

func ParseLeaveStatus(name string) (LeaveStatus, bool) {
	for _, s := range []LeaveStatus{LeaveRequested, LeaveApproved, LeaveDenied} {
		if strings.EqualFold(string(s), strings.TrimSpace(name)) {
			return s, true
		}
	}
	return "", false
}

type LeaveType string

const (
	LeaveAnnual                    LeaveType = "Annual Leave"
	LeaveAnnualCorp                LeaveType = "Annual Leave Corp"
	LeaveStoodDownWithPay          LeaveType = "Stood Down With Pay"
	LeaveUnavailable               LeaveType = "Unavailable due to Leave"
	LeaveCasualUnpaid              LeaveType = "Casual Unpaid Leave"
	LeaveWithoutPay                LeaveType = "Leave without Pay"
	LeavePersonalCarers            LeaveType = "Personal/Carers Leave"
	LeaveAnnualExhausted           LeaveType = "Annual Leave Exhausted"
	LeaveCasualPersonalCarers      LeaveType = "Casual Personal/Carers Leave"
	LeaveUnpaidPersonalCarers      LeaveType = "Unpaid Personal/Carers Leave"
	LeaveCasualCompassionate       LeaveType = "Casual Compassionate Leave (unpaid)"
	LeavePersonalCarersCertificate LeaveType = "Personal/Carers Leave w/ Cert."
	LeavePublicHolidayNotWorked    LeaveType = "PH Not Worked"
)

// 值为 true 的假期类型计入工时
var leaveTypeCountsTowardHours = map[LeaveType]bool{
	LeaveAnnual:                    true,
	LeaveAnnualCorp:                true,
	LeaveStoodDownWithPay:          true,
	LeaveUnavailable:               false,
	LeaveCasualUnpaid:              false,
	LeaveWithoutPay:                false,
	LeavePersonalCarers:            true,
	LeaveAnnualExhausted:           false,
	LeaveCasualPersonalCarers:      true,
	LeaveUnpaidPersonalCarers:      false,
	LeaveCasualCompassionate:       false,
	LeavePersonalCarersCertificate: true,
	LeavePublicHolidayNotWorked:    false,
}

func (t LeaveType) CountsTowardHours() bool {
	return leaveTypeCountsTowardHours[t]
}

func ParseLeaveType(name string) (LeaveType, bool) {
	for t := range leaveTypeCountsTowardHours {
		if strings.EqualFold(string(t), strings.TrimSpace(name)) {
			return t, true
		}
	}
	return "", false
}

type Leave struct {
	Date        time.Time   `json:"date"`
	Status      LeaveStatus `json:"status"`
	RequestedAt time.Time   `json:"requestedAt"`
	Hours       float64     `json:"hours"`
	Type        LeaveType   `json:"type"`
}

// CappedHours 返回不超过单日上限的请假工时
func (l *Leave) CappedHours() float64 {
	return min(l.Hours, MaxLeaveHoursPerDay)
}

// Covers 判断 t 是否落在请假当天
func (l *Leave) Covers(t time.Time) bool {
	return SameDate(l.Date, t)
}

// DayBounds 返回请假当天的 [00:00, 次日 00:00)
func (l *Leave) DayBounds() (time.Time, time.Time) {
	start := DateOf(l.Date)
	return start, start.AddDate(0, 0, 1)
}

func (l *Leave) String() string {
	return fmt.Sprintf("Leave on %s (%s, %s, %.1f Hrs)", l.Date.Format("Mon 02/01"), l.Type, l.Status, l.CappedHours())
}

package rules

import (
	"strings"
	"testing"
	"time"

	"github.com/sysu-ecnc-dev/roster-engine/backend/internal/domain"
)

var (
	testCalendar = domain.NewCalendar(time.Date(2024, time.October, 1, 0, 0, 0, 0, time.UTC), 14)
	testArea     = domain.WorkArea{Location: "LIMESTONE COAST", Department: "Community Support", Role: "Support Worker"}
)

func at(day, hour, minute int) time.Time {
	return time.Date(2024, time.October, day, hour, minute, 0, 0, time.UTC)
}

func mustShift(t *testing.T, start, end time.Time, wa domain.WorkArea, attended bool) *domain.Shift {
	t.Helper()
	s, err := testCalendar.NewShift(domain.ShiftSpec{Start: start, End: end, WorkArea: wa, Attended: attended})
	if err != nil {
		t.Fatalf("unexpected error building shift: %v", err)
	}
	return s
}

func newEmployee(et domain.EmploymentType, cs domain.ContractStatus) *domain.Employee {
	emp := domain.NewEmployee("Smith, Jo", "E001", "JSMITH*", et, cs)
	emp.AddWorkArea(testArea)
	return emp
}

func TestFortnightDayCap(t *testing.T) {
	engine := New(nil, nil)

	emp := newEmployee(domain.EmploymentPartTime, domain.ContractFullIFA)
	for day := 1; day <= 9; day++ {
		emp.AddShift(mustShift(t, at(day, 9, 0), at(day, 13, 0), testArea, true))
	}

	tenth := mustShift(t, at(10, 9, 0), at(10, 13, 0), testArea, true)
	if v := engine.Evaluate(emp, tenth); !v.Eligible {
		t.Fatalf("expected 10th day to be eligible, got %+v", v)
	}

	emp.AddShift(tenth)
	eleventh := mustShift(t, at(11, 9, 0), at(11, 13, 0), testArea, true)
	v := engine.Evaluate(emp, eleventh)
	if v.Eligible {
		t.Fatalf("expected 11th day to be rejected")
	}
	if v.Rule != RuleFortnightDays {
		t.Fatalf("expected rule %q, got %q", RuleFortnightDays, v.Rule)
	}
	if v.Reason == "" {
		t.Fatalf("expected a reason for fortnight day rejection")
	}
}

func TestCasualMayWorkFourteenDays(t *testing.T) {
	engine := New(nil, nil)

	emp := newEmployee(domain.EmploymentCasual, domain.ContractFullIFA)
	for day := 1; day <= 10; day++ {
		emp.AddShift(mustShift(t, at(day, 9, 0), at(day, 12, 0), testArea, true))
	}

	candidate := mustShift(t, at(11, 9, 0), at(11, 12, 0), testArea, true)
	if v := engine.Evaluate(emp, candidate); !v.Eligible {
		t.Fatalf("expected casual to be eligible on 11th day, got %+v", v)
	}
}

func TestPayCycleHourCap(t *testing.T) {
	engine := New(nil, nil)

	emp := newEmployee(domain.EmploymentCasual, domain.ContractFullIFA)
	for day := 1; day <= 9; day++ {
		emp.AddShift(mustShift(t, at(day, 9, 0), at(day, 17, 0), testArea, true))
	}

	// 72 + 4 = 76，正好达到上限
	atCap := mustShift(t, at(10, 9, 0), at(10, 13, 0), testArea, true)
	if v := engine.Evaluate(emp, atCap); !v.Eligible {
		t.Fatalf("expected shift reaching exactly 76 hours to be eligible, got %+v", v)
	}

	overCap := mustShift(t, at(10, 9, 0), at(10, 14, 0), testArea, true)
	v := engine.Evaluate(emp, overCap)
	if v.Eligible {
		t.Fatalf("expected 77 hours to be rejected")
	}
	if v.Rule != RulePayCycleHours {
		t.Fatalf("expected rule %q, got %q", RulePayCycleHours, v.Rule)
	}
	if !strings.Contains(v.Reason, "pay cycle") {
		t.Fatalf("expected reason to mention the pay cycle, got %q", v.Reason)
	}
}

func TestPayCycleHoursIgnoreOtherCycles(t *testing.T) {
	engine := New(nil, nil)

	emp := newEmployee(domain.EmploymentCasual, domain.ContractFullIFA)
	for day := 1; day <= 10; day++ {
		emp.AddShift(mustShift(t, at(day, 9, 0), at(day, 17, 0), testArea, true))
	}

	// 10 月 15 日属于下一个发薪周期
	candidate := mustShift(t, at(15, 9, 0), at(15, 17, 0), testArea, true)
	if v := engine.Evaluate(emp, candidate); !v.Eligible {
		t.Fatalf("expected shift in the next pay cycle to be eligible, got %+v", v)
	}
}

func TestTwelveHourWindow(t *testing.T) {
	engine := New(nil, nil)

	emp := newEmployee(domain.EmploymentCasual, domain.ContractFullIFA)
	emp.AddShift(mustShift(t, at(2, 8, 0), at(2, 12, 0), testArea, true))

	sixHours := mustShift(t, at(2, 19, 0), at(3, 1, 0), testArea, true)
	if v := engine.Evaluate(emp, sixHours); !v.Eligible {
		t.Fatalf("expected 4+6 hours to be eligible, got %+v", v)
	}

	sevenHours := mustShift(t, at(2, 19, 0), at(3, 2, 0), testArea, true)
	v := engine.Evaluate(emp, sevenHours)
	if v.Eligible {
		t.Fatalf("expected 4+7 hours to be rejected")
	}
	if v.Rule != RuleDailyWindow {
		t.Fatalf("expected rule %q, got %q", RuleDailyWindow, v.Rule)
	}
}

func TestWindowOutsideTwelveHoursIsIgnored(t *testing.T) {
	engine := New(nil, nil)

	emp := newEmployee(domain.EmploymentCasual, domain.ContractFullIFA)
	emp.AddShift(mustShift(t, at(2, 6, 0), at(2, 9, 0), testArea, true))
	emp.AddShift(mustShift(t, at(2, 9, 0), at(2, 13, 0), testArea, true))

	// 18:30 开始，已经在 06:00 开始的窗口之外
	late := mustShift(t, at(2, 18, 30), at(2, 23, 30), testArea, true)
	if v := engine.Evaluate(emp, late); v.Rule == RuleDailyWindow {
		t.Fatalf("expected window rule to ignore shift outside the window, got %+v", v)
	}
}

func TestShiftLengthPriority(t *testing.T) {
	engine := New(nil, nil)

	emp := newEmployee(domain.EmploymentCasual, domain.ContractFullIFA)
	emp.AddShift(mustShift(t, at(2, 6, 0), at(2, 9, 0), testArea, true))

	longer := mustShift(t, at(2, 18, 30), at(2, 22, 30), testArea, true)
	if v := engine.Evaluate(emp, longer); !v.Eligible {
		t.Fatalf("expected longer shift to be eligible, got %+v", v)
	}

	same := mustShift(t, at(2, 18, 30), at(2, 21, 30), testArea, true)
	if v := engine.Evaluate(emp, same); v.Eligible || v.Rule != RuleLongerShiftOnly {
		t.Fatalf("expected shift length priority rejection, got %+v", v)
	}
}

func TestEvaluateIsPure(t *testing.T) {
	engine := New(nil, nil)

	emp := newEmployee(domain.EmploymentPartTime, domain.ContractNoIFA)
	emp.AddShift(mustShift(t, at(2, 9, 0), at(2, 15, 0), testArea, true))
	candidate := mustShift(t, at(2, 22, 0), at(3, 6, 0), testArea, false)

	first := engine.Evaluate(emp, candidate)
	second := engine.Evaluate(emp, candidate)
	if first != second {
		t.Fatalf("expected identical verdicts, got %+v and %+v", first, second)
	}
	if len(emp.Shifts()) != 1 {
		t.Fatalf("expected employee shifts to be untouched, got %d", len(emp.Shifts()))
	}
}

func TestWorkAreaReasonIsSuppressed(t *testing.T) {
	engine := New(nil, nil)

	emp := newEmployee(domain.EmploymentCasual, domain.ContractFullIFA)
	elsewhere := domain.WorkArea{Location: "RIVERLAND", Department: "Community Support", Role: "Support Worker"}
	v := engine.Evaluate(emp, mustShift(t, at(2, 9, 0), at(2, 12, 0), elsewhere, true))
	if v.Eligible {
		t.Fatalf("expected unauthorised work area to be rejected")
	}
	if v.Rule != RuleWorkArea {
		t.Fatalf("expected rule %q, got %q", RuleWorkArea, v.Rule)
	}
	if v.Reason != "" {
		t.Fatalf("expected blank reason, got %q", v.Reason)
	}
}

func TestWorkAreaRoleWaiver(t *testing.T) {
	engine := New(nil, nil)
	emp := newEmployee(domain.EmploymentCasual, domain.ContractFullIFA)

	otherRole := testArea
	otherRole.Role = "Team Leader"
	if v := engine.Evaluate(emp, mustShift(t, at(2, 9, 0), at(2, 12, 0), otherRole, true)); !v.Eligible {
		t.Fatalf("expected other role in same department to be eligible, got %+v", v)
	}

	ihs := domain.WorkArea{Location: testArea.Location, Department: "IHS North", Role: "Nurse"}
	emp.AddWorkArea(ihs)
	ihsOther := ihs
	ihsOther.Role = "Support Worker"
	if v := engine.Evaluate(emp, mustShift(t, at(3, 9, 0), at(3, 12, 0), ihsOther, true)); v.Eligible || v.Rule != RuleWorkArea {
		t.Fatalf("expected exact match department to reject other role, got %+v", v)
	}
}

func TestSleepoverRequiresFullIFA(t *testing.T) {
	engine := New(nil, nil)
	sleepover := mustShift(t, at(2, 22, 0), at(3, 6, 0), testArea, false)

	partial := newEmployee(domain.EmploymentCasual, domain.ContractPartialIFA)
	if v := engine.Evaluate(partial, sleepover); v.Eligible || v.Rule != RuleSleepoverIFA {
		t.Fatalf("expected sleepover IFA rejection, got %+v", v)
	}

	full := newEmployee(domain.EmploymentCasual, domain.ContractFullIFA)
	if v := engine.Evaluate(full, sleepover); !v.Eligible {
		t.Fatalf("expected full IFA employee to be eligible, got %+v", v)
	}
}

func TestAdjacentShiftIsNotACommitment(t *testing.T) {
	engine := New(nil, nil)
	emp := newEmployee(domain.EmploymentCasual, domain.ContractFullIFA)
	emp.AddShift(mustShift(t, at(2, 9, 0), at(2, 12, 0), testArea, true))

	if v := engine.Evaluate(emp, mustShift(t, at(2, 12, 0), at(2, 18, 0), testArea, true)); !v.Eligible {
		t.Fatalf("expected adjacent longer shift to be eligible, got %+v", v)
	}
	if v := engine.Evaluate(emp, mustShift(t, at(2, 11, 0), at(2, 18, 0), testArea, true)); v.Eligible || v.Rule != RuleExistingShift {
		t.Fatalf("expected overlap rejection, got %+v", v)
	}
}

func TestLeaveBlocksRegardlessOfStatus(t *testing.T) {
	engine := New(nil, nil)
	emp := newEmployee(domain.EmploymentCasual, domain.ContractFullIFA)
	emp.AddLeave(&domain.Leave{
		Date:        at(4, 0, 0),
		Status:      domain.LeaveDenied,
		RequestedAt: at(1, 8, 0),
		Hours:       7.6,
		Type:        domain.LeaveAnnual,
	})

	if v := engine.Evaluate(emp, mustShift(t, at(3, 20, 0), at(4, 2, 0), testArea, true)); v.Eligible || v.Rule != RuleLeave {
		t.Fatalf("expected leave rejection, got %+v", v)
	}
	if v := engine.Evaluate(emp, mustShift(t, at(3, 18, 0), at(4, 0, 0), testArea, true)); !v.Eligible {
		t.Fatalf("expected shift ending at midnight before leave to be eligible, got %+v", v)
	}
}

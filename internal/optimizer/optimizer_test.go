package optimizer

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/sysu-ecnc-dev/roster-engine/backend/internal/domain"
)

var (
	testCalendar = domain.NewCalendar(time.Date(2024, time.October, 1, 0, 0, 0, 0, time.UTC), 14)
	testArea     = domain.WorkArea{Location: "LIMESTONE COAST", Department: "Community Support", Role: "Support Worker"}
	otherArea    = domain.WorkArea{Location: "RIVERLAND", Department: "Community Support", Role: "Support Worker"}
)

func at(day, hour int) time.Time {
	return time.Date(2024, time.October, day, hour, 0, 0, 0, time.UTC)
}

func mustShift(t *testing.T, start, end time.Time, wa domain.WorkArea) *domain.Shift {
	t.Helper()
	s, err := testCalendar.NewShift(domain.ShiftSpec{Start: start, End: end, WorkArea: wa, Attended: true})
	if err != nil {
		t.Fatalf("unexpected error building shift: %v", err)
	}
	return s
}

func testParameters() *Parameters {
	params := DefaultParameters()
	params.Now = at(1, 0)
	return params
}

func addEmployee(r *domain.Roster, code string, et domain.EmploymentType, wa domain.WorkArea) *domain.Employee {
	emp := domain.NewEmployee("Employee "+code, code, code+"*", et, domain.ContractFullIFA)
	emp.AddWorkArea(wa)
	r.AddEmployee(emp)
	return emp
}

func buildRoster(t *testing.T) *domain.Roster {
	t.Helper()
	r := domain.NewRoster(testCalendar)
	addEmployee(r, "P01", domain.EmploymentPartTime, testArea)
	addEmployee(r, "C01", domain.EmploymentCasual, testArea)
	addEmployee(r, "C02", domain.EmploymentCasual, testArea)
	addEmployee(r, "R01", domain.EmploymentFullTime, otherArea)

	r.SetCombined([]*domain.Shift{
		mustShift(t, at(2, 9), at(2, 15), testArea),
		mustShift(t, at(3, 6), at(3, 10), testArea),
		mustShift(t, at(5, 12), at(5, 17), testArea),
		mustShift(t, at(7, 18), at(7, 22), testArea),
		mustShift(t, at(8, 9), at(8, 14), otherArea),
	})
	return r
}

type step struct {
	employee string
	shift    string
}

func runSequence(t *testing.T) []step {
	t.Helper()
	o := New(testParameters(), buildRoster(t), nil, nil)

	var steps []step
	i := 0
	for {
		a, ok := o.NextProposal()
		if !ok {
			break
		}
		steps = append(steps, step{employee: a.EmployeeCode, shift: a.Shift.Key()})
		if _, err := o.Respond(a, i%3 != 0); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		i++
		if i > 100 {
			t.Fatalf("optimizer did not terminate")
		}
	}
	return steps
}

func TestProposalSequenceIsDeterministic(t *testing.T) {
	first := runSequence(t)
	second := runSequence(t)

	if len(first) == 0 {
		t.Fatalf("expected at least one proposal")
	}
	if len(first) != len(second) {
		t.Fatalf("expected %d proposals, got %d", len(first), len(second))
	}
	for i := range first {
		if first[i] != second[i] {
			t.Fatalf("proposal %d differs: %+v vs %+v", i, first[i], second[i])
		}
	}
}

func TestRejectingLastEligibleEmployee(t *testing.T) {
	r := domain.NewRoster(testCalendar)
	addEmployee(r, "C01", domain.EmploymentCasual, testArea)
	addEmployee(r, "R01", domain.EmploymentCasual, otherArea)
	shift := mustShift(t, at(2, 9), at(2, 15), testArea)
	r.SetCombined([]*domain.Shift{shift})

	o := New(testParameters(), r, nil, nil)
	if d := o.Difficulty(shift); d >= 10 {
		t.Fatalf("expected fillable difficulty, got %.2f", d)
	}

	a, ok := o.NextProposal()
	if !ok || a.EmployeeCode != "C01" {
		t.Fatalf("expected proposal for C01, got %+v", a)
	}

	outcome, err := o.Respond(a, false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if outcome != OutcomeUnfillable {
		t.Fatalf("expected %q, got %q", OutcomeUnfillable, outcome)
	}
	if d := o.Difficulty(shift); d != 10 {
		t.Fatalf("expected difficulty 10, got %.2f", d)
	}
	if _, ok := o.NextProposal(); ok {
		t.Fatalf("expected no further proposals")
	}

	summary := o.Summary()
	if len(summary.Unfillable) != 1 || summary.Unfillable[0].Shift != shift {
		t.Fatalf("expected shift to be reported unfillable, got %+v", summary.Unfillable)
	}
	reasons := summary.Unfillable[0].Reasons
	if len(reasons) != 1 || reasons[0].EmployeeCode != "C01" {
		t.Fatalf("expected only the operator rejection reason, got %+v", reasons)
	}
	if summary.Remaining != 1 || summary.Assigned != 0 {
		t.Fatalf("expected 0 assigned and 1 remaining, got %d/%d", summary.Assigned, summary.Remaining)
	}
}

func TestEasyShiftPrefersCasual(t *testing.T) {
	r := domain.NewRoster(testCalendar)
	addEmployee(r, "P01", domain.EmploymentPartTime, testArea)
	casual := addEmployee(r, "C01", domain.EmploymentCasual, testArea)
	casual.AddShift(mustShift(t, at(3, 9), at(3, 12), testArea))

	// 周六中午开始的 5 小时已过去的班次，只剩孤立度一项
	saturday := mustShift(t, at(5, 12), at(5, 17), testArea)
	r.SetCombined([]*domain.Shift{saturday})

	params := testParameters()
	params.Now = at(6, 0)
	o := New(params, r, nil, nil)
	if d := o.Difficulty(saturday); d != 1 {
		t.Fatalf("expected difficulty 1, got %.2f", d)
	}

	a, ok := o.NextProposal()
	if !ok {
		t.Fatalf("expected a proposal")
	}
	if a.EmployeeCode != "C01" {
		t.Fatalf("expected casual C01, got %s", a.EmployeeCode)
	}
}

func TestAcceptMovesShiftToEmployee(t *testing.T) {
	r := domain.NewRoster(testCalendar)
	emp := addEmployee(r, "C01", domain.EmploymentCasual, testArea)
	shift := mustShift(t, at(2, 9), at(2, 15), testArea)
	r.SetCombined([]*domain.Shift{shift})

	o := New(testParameters(), r, nil, nil)
	a, ok := o.NextProposal()
	if !ok {
		t.Fatalf("expected a proposal")
	}

	outcome, err := o.Respond(a, true)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if outcome != OutcomeAssigned {
		t.Fatalf("expected %q, got %q", OutcomeAssigned, outcome)
	}
	if len(r.CombinedShifts()) != 0 {
		t.Fatalf("expected combined pool to be empty, got %d", len(r.CombinedShifts()))
	}
	if shifts := emp.Shifts(); len(shifts) != 1 || shifts[0] != shift {
		t.Fatalf("expected employee to own the shift")
	}

	summary := o.Summary()
	if summary.Assigned != 1 || summary.PerEmployee["C01"] != 1 {
		t.Fatalf("unexpected summary %+v", summary)
	}

	if _, err := o.Respond(a, true); !errors.Is(err, ErrShiftNotPending) {
		t.Fatalf("expected ErrShiftNotPending, got %v", err)
	}
}

func TestShiftWithoutEligibleEmployeesIsUnfillableFromStart(t *testing.T) {
	r := domain.NewRoster(testCalendar)
	addEmployee(r, "C01", domain.EmploymentCasual, testArea)
	shift := mustShift(t, at(2, 9), at(2, 15), otherArea)
	r.SetCombined([]*domain.Shift{shift})

	o := New(testParameters(), r, nil, nil)
	if d := o.Difficulty(shift); d != 10 {
		t.Fatalf("expected difficulty 10, got %.2f", d)
	}
	if _, ok := o.NextProposal(); ok {
		t.Fatalf("expected no proposal")
	}
	if summary := o.Summary(); len(summary.Unfillable) != 1 {
		t.Fatalf("expected 1 unfillable shift, got %d", len(summary.Unfillable))
	}
}

func TestRunStopsWhenDone(t *testing.T) {
	o := New(testParameters(), buildRoster(t), nil, nil)

	calls := 0
	err := o.Run(context.Background(), func(ctx context.Context, a *Assignment) (bool, error) {
		calls++
		return true, nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if calls == 0 {
		t.Fatalf("expected decide to be called")
	}
	if _, ok := o.NextProposal(); ok {
		t.Fatalf("expected no proposals after Run")
	}
}

func TestRunHonoursCancellation(t *testing.T) {
	o := New(testParameters(), buildRoster(t), nil, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := o.Run(ctx, func(ctx context.Context, a *Assignment) (bool, error) {
		t.Fatalf("decide should not be called")
		return false, nil
	}); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestRejectedPairCannotBeAcceptedLater(t *testing.T) {
	r := domain.NewRoster(testCalendar)
	addEmployee(r, "C01", domain.EmploymentCasual, testArea)
	addEmployee(r, "C02", domain.EmploymentCasual, testArea)
	r.SetCombined([]*domain.Shift{mustShift(t, at(3, 6), at(3, 10), testArea)})

	o := New(testParameters(), r, nil, nil)

	a, ok := o.NextProposal()
	if !ok {
		t.Fatalf("expected a proposal")
	}

	outcome, err := o.Respond(a, false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if outcome != OutcomeRejected {
		t.Fatalf("expected %q, got %q", OutcomeRejected, outcome)
	}

	if _, err := o.Respond(a, true); !errors.Is(err, ErrPairRejected) {
		t.Fatalf("expected ErrPairRejected, got %v", err)
	}
	if err := o.Verify(a, false); !errors.Is(err, ErrPairRejected) {
		t.Fatalf("expected ErrPairRejected on a second rejection, got %v", err)
	}
	if _, err := o.Proposal("rebuilt", a.EmployeeCode, a.Shift); !errors.Is(err, ErrPairRejected) {
		t.Fatalf("expected rebuilding a rejected pair to fail, got %v", err)
	}

	emp, _ := r.Employee(a.EmployeeCode)
	for _, s := range emp.Shifts() {
		if s == a.Shift {
			t.Fatalf("expected rejected shift not to be assigned to %s", a.EmployeeCode)
		}
	}
	if got := o.Summary().Assigned; got != 0 {
		t.Fatalf("expected 0 assigned shifts, got %d", got)
	}

	next, ok := o.NextProposal()
	if ok && next.EmployeeCode == a.EmployeeCode && next.Shift == a.Shift {
		t.Fatalf("expected rejected pair not to be proposed again")
	}
}

func TestStaleProposalIsCheckedAgainstRules(t *testing.T) {
	r := domain.NewRoster(testCalendar)
	emp := addEmployee(r, "C01", domain.EmploymentCasual, testArea)
	morning := mustShift(t, at(3, 9), at(3, 13), testArea)
	overlapping := mustShift(t, at(3, 11), at(3, 15), testArea)
	r.SetCombined([]*domain.Shift{morning, overlapping})

	o := New(testParameters(), r, nil, nil)

	// 两个提议在同一状态下生成，先接受其中一个
	first, err := o.Proposal("first", "C01", morning)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	stale, err := o.Proposal("stale", "C01", overlapping)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if outcome, err := o.Respond(first, true); err != nil || outcome != OutcomeAssigned {
		t.Fatalf("expected first proposal to be assigned, got %q %v", outcome, err)
	}

	if err := o.Verify(stale, true); !errors.Is(err, ErrNotEligible) {
		t.Fatalf("expected ErrNotEligible from Verify, got %v", err)
	}
	if _, err := o.Respond(stale, true); !errors.Is(err, ErrNotEligible) {
		t.Fatalf("expected ErrNotEligible, got %v", err)
	}
	if shifts := emp.Shifts(); len(shifts) != 1 || shifts[0] != morning {
		t.Fatalf("expected employee to own only the morning shift, got %d shifts", len(shifts))
	}
	if _, ok := o.Pending(overlapping.Key()); !ok {
		t.Fatalf("expected overlapping shift to stay pending")
	}

	// 拒绝不需要重新判断规则
	if _, err := o.Respond(stale, false); err != nil {
		t.Fatalf("unexpected error rejecting stale proposal: %v", err)
	}
}

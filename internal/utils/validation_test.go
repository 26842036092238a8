package utils

import (
	"errors"
	"testing"
	"time"

	"github.com/sysu-ecnc-dev/roster-engine/backend/internal/domain"
)

var testCalendar = domain.NewCalendar(time.Date(2024, time.October, 1, 0, 0, 0, 0, time.UTC), 14)

func record(start, end time.Time) *ShiftRecord {
	return &ShiftRecord{
		ID:         7,
		Start:      start,
		End:        end,
		Location:   "RIVERLAND",
		Department: "Supported Living",
		Role:       "Support Worker",
		Attended:   true,
	}
}

func TestShiftFromRecordNormalizesOvernightEnd(t *testing.T) {
	rec := record(time.Date(2024, time.October, 3, 22, 0, 0, 0, time.UTC), time.Date(2024, time.October, 3, 6, 0, 0, 0, time.UTC))

	shift, err := ShiftFromRecord(testCalendar, rec)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if want := time.Date(2024, time.October, 4, 6, 0, 0, 0, time.UTC); !shift.End.Equal(want) {
		t.Fatalf("expected end %v, got %v", want, shift.End)
	}
	if shift.GrossHours != 8 {
		t.Fatalf("expected 8 gross hours, got %v", shift.GrossHours)
	}
	if shift.ID != 7 {
		t.Fatalf("expected id 7, got %d", shift.ID)
	}
}

func TestShiftFromRecordRejectsInvalidRecords(t *testing.T) {
	start := time.Date(2024, time.October, 3, 9, 0, 0, 0, time.UTC)

	missingRole := record(start, start.Add(time.Hour))
	missingRole.Role = "  "

	endsEarlierDay := record(start, start.AddDate(0, 0, -1))
	tooLong := record(start, start.Add(25*time.Hour))
	noStart := record(time.Time{}, start)

	for name, rec := range map[string]*ShiftRecord{
		"missing role":     missingRole,
		"ends earlier day": endsEarlierDay,
		"too long":         tooLong,
		"no start":         noStart,
	} {
		if _, err := ShiftFromRecord(testCalendar, rec); !errors.Is(err, domain.ErrInvalidInput) {
			t.Fatalf("%s: expected ErrInvalidInput, got %v", name, err)
		}
	}
}

func TestLeaveFromRecord(t *testing.T) {
	rec := &LeaveRecord{
		EmployeeCode: "E01",
		Date:         time.Date(2024, time.October, 10, 15, 0, 0, 0, time.UTC),
		Status:       "approved",
		RequestedAt:  time.Date(2024, time.September, 20, 9, 0, 0, 0, time.UTC),
		Hours:        7.6,
		Type:         "Annual Leave",
	}

	leave, err := LeaveFromRecord(rec)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if leave.Status != domain.LeaveApproved || leave.Type != domain.LeaveAnnual {
		t.Fatalf("expected approved annual leave, got %s %s", leave.Status, leave.Type)
	}
	if leave.Date.Hour() != 0 {
		t.Fatalf("expected leave date truncated to midnight, got %v", leave.Date)
	}

	rec.Type = "Holiday"
	if _, err := LeaveFromRecord(rec); !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for unknown type, got %v", err)
	}

	rec.Type = "Annual Leave"
	rec.Hours = -1
	if _, err := LeaveFromRecord(rec); !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for negative hours, got %v", err)
	}
}

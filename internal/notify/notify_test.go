package notify

import (
	"context"
	"testing"
	"time"

	json "github.com/goccy/go-json"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/sysu-ecnc-dev/roster-engine/backend/internal/domain"
	"github.com/sysu-ecnc-dev/roster-engine/backend/internal/optimizer"
)

type fakePublisher struct {
	key      string
	messages []amqp.Publishing
}

func (p *fakePublisher) PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error {
	p.key = key
	p.messages = append(p.messages, msg)
	return nil
}

var testCalendar = domain.NewCalendar(time.Date(2024, time.October, 1, 0, 0, 0, 0, time.UTC), 14)

func mustShift(t *testing.T, start, end time.Time, wa domain.WorkArea) *domain.Shift {
	t.Helper()
	s, err := testCalendar.NewShift(domain.ShiftSpec{Start: start, End: end, WorkArea: wa, Attended: true})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return s
}

func TestCleanRole(t *testing.T) {
	cases := map[string]string{
		"Support Worker - Level 2":       "Support Worker",
		"Team Leader (Acting) 3":         "Team Leader",
		"SUPPORT WORKER":                 "SUPPORT WORKER",
		"Disability Support 1 - Weekend": "Disability Support",
	}
	for in, want := range cases {
		if got := CleanRole(in); got != want {
			t.Fatalf("expected %q for %q, got %q", want, in, got)
		}
	}
}

func TestCleanDepartment(t *testing.T) {
	cases := map[string]string{
		"Community Support (North)":  "Community Support",
		"ENGAGE Mount Gambier":       "ENGAGE",
		"ACC - Residential - Penola": "Penola",
		"IHS Mount Gambier":          "IHS Mount Gambier",
	}
	for in, want := range cases {
		if got := CleanDepartment(in); got != want {
			t.Fatalf("expected %q for %q, got %q", want, in, got)
		}
	}
}

func TestShiftOfferListsShiftsInOrder(t *testing.T) {
	wa := domain.WorkArea{Location: "RIVERLAND", Department: "Community Support", Role: "Support Worker - Level 1"}
	emp := domain.NewEmployee("Jane Smith", "E01", "Smith, Jane", domain.EmploymentCasual, domain.ContractNoIFA)
	emp.Email = "e01@example.com"

	later := mustShift(t, time.Date(2024, time.October, 8, 9, 0, 0, 0, time.UTC), time.Date(2024, time.October, 8, 12, 0, 0, 0, time.UTC), wa)
	earlier := mustShift(t, time.Date(2024, time.October, 1, 14, 30, 0, 0, time.UTC), time.Date(2024, time.October, 1, 18, 0, 0, 0, time.UTC), wa)

	msg := ShiftOffer(emp, []*domain.Shift{later, earlier})
	if msg.To != "e01@example.com" || msg.Type != domain.MailTypeShiftOffer {
		t.Fatalf("expected shift offer to e01@example.com, got %s to %s", msg.Type, msg.To)
	}

	data := msg.Data.(domain.ShiftOfferMailData)
	if data.FirstName != "Jane" {
		t.Fatalf("expected first name Jane, got %s", data.FirstName)
	}
	if len(data.Shifts) != 2 {
		t.Fatalf("expected 2 shifts, got %d", len(data.Shifts))
	}

	first := data.Shifts[0]
	if first.Day != "Tue-Wk1" || first.Date != "01/10/2024" || first.Time != "14:30-18:00" {
		t.Fatalf("expected Tue-Wk1 01/10/2024 14:30-18:00, got %s %s %s", first.Day, first.Date, first.Time)
	}
	if first.Role != "Support Worker" {
		t.Fatalf("expected cleaned role, got %s", first.Role)
	}
	if data.Shifts[1].Day != "Tue-Wk2" {
		t.Fatalf("expected Tue-Wk2, got %s", data.Shifts[1].Day)
	}
}

func TestOffersByEmployeeReportsMissingEmail(t *testing.T) {
	wa := domain.WorkArea{Location: "RIVERLAND", Department: "Community Support", Role: "Support Worker"}
	roster := domain.NewRoster(testCalendar)

	withEmail := domain.NewEmployee("Ann Lee", "A01", "Lee, Ann", domain.EmploymentCasual, domain.ContractNoIFA)
	withEmail.Email = "a01@example.com"
	withoutEmail := domain.NewEmployee("Bob Ryan", "B01", "Ryan, Bob", domain.EmploymentCasual, domain.ContractNoIFA)
	roster.AddEmployee(withEmail)
	roster.AddEmployee(withoutEmail)

	s1 := mustShift(t, time.Date(2024, time.October, 2, 9, 0, 0, 0, time.UTC), time.Date(2024, time.October, 2, 13, 0, 0, 0, time.UTC), wa)
	s2 := mustShift(t, time.Date(2024, time.October, 3, 9, 0, 0, 0, time.UTC), time.Date(2024, time.October, 3, 13, 0, 0, 0, time.UTC), wa)
	s3 := mustShift(t, time.Date(2024, time.October, 4, 9, 0, 0, 0, time.UTC), time.Date(2024, time.October, 4, 13, 0, 0, 0, time.UTC), wa)

	accepted := []*optimizer.Assignment{
		{EmployeeCode: "B01", Shift: s1},
		{EmployeeCode: "A01", Shift: s2},
		{EmployeeCode: "A01", Shift: s3},
	}

	messages, missing := OffersByEmployee(roster, accepted)
	if len(messages) != 1 {
		t.Fatalf("expected 1 message, got %d", len(messages))
	}
	if n := len(messages[0].Data.(domain.ShiftOfferMailData).Shifts); n != 2 {
		t.Fatalf("expected 2 shifts for A01, got %d", n)
	}
	if len(missing) != 1 || missing[0] != "B01" {
		t.Fatalf("expected B01 to be missing, got %v", missing)
	}
}

func TestUnfillableAlertCarriesReasons(t *testing.T) {
	wa := domain.WorkArea{Location: "RIVERLAND", Department: "Community Support", Role: "Support Worker"}
	s := mustShift(t, time.Date(2024, time.October, 2, 9, 0, 0, 0, time.UTC), time.Date(2024, time.October, 2, 13, 0, 0, 0, time.UTC), wa)

	msg := UnfillableAlert("lead@example.com", optimizer.UnfillableShift{
		Shift:   s,
		Reasons: []optimizer.Rejection{{EmployeeCode: "A01", EmployeeName: "Lee, Ann", Rule: "leave", Reason: "On leave"}},
	}, 10)

	data := msg.Data.(domain.UnfillableAlertMailData)
	if data.Difficulty != 10 || len(data.Reasons) != 1 || data.Reasons[0] != "Lee, Ann: On leave" {
		t.Fatalf("expected difficulty 10 and one reason, got %v %v", data.Difficulty, data.Reasons)
	}
	if data.Location != "RIVERLAND" {
		t.Fatalf("expected location RIVERLAND, got %s", data.Location)
	}
}

func TestAMQPNotifierPublishesJSON(t *testing.T) {
	publisher := &fakePublisher{}
	n := NewAMQPNotifier(publisher, time.Second)

	msg := &domain.MailMessage{Type: domain.MailTypeShiftOffer, To: "a01@example.com", Subject: "Available shifts"}
	if err := n.Send(context.Background(), msg); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if publisher.key != QueueName {
		t.Fatalf("expected routing key %s, got %s", QueueName, publisher.key)
	}
	if len(publisher.messages) != 1 {
		t.Fatalf("expected 1 published message, got %d", len(publisher.messages))
	}

	var decoded domain.MailMessage
	if err := json.Unmarshal(publisher.messages[0].Body, &decoded); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if decoded.To != msg.To || decoded.Type != msg.Type {
		t.Fatalf("expected %s to %s, got %s to %s", msg.Type, msg.To, decoded.Type, decoded.To)
	}
}

func TestAMQPNotifierRejectsMissingRecipient(t *testing.T) {
	publisher := &fakePublisher{}
	n := NewAMQPNotifier(publisher, time.Second)

	if err := n.Send(context.Background(), &domain.MailMessage{Type: domain.MailTypeShiftOffer}); err == nil {
		t.Fatalf("expected error for missing recipient")
	}
	if len(publisher.messages) != 0 {
		t.Fatalf("expected nothing published, got %d", len(publisher.messages))
	}
}

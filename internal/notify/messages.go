package notify

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/sysu-ecnc-dev/roster-engine/backend/internal/domain"
	"github.com/sysu-ecnc-dev/roster-engine/backend/internal/optimizer"
)

var (
	bracketed = regexp.MustCompile(`\([^)]*\)`)
	numbers   = regexp.MustCompile(`\d+`)
)

const (
	shiftOfferSubject      = "Available shifts"
	unfillableAlertSubject = "Unfillable shift"
)

// CleanRole 去掉括号内容和数字，只保留 "-" 之前的部分
func CleanRole(role string) string {
	role = bracketed.ReplaceAllString(role, "")
	role = numbers.ReplaceAllString(role, "")
	role, _, _ = strings.Cut(role, "-")
	return strings.TrimSpace(role)
}

// CleanDepartment 去掉括号内容，ENGAGE 和 ACC 部门使用简称
func CleanDepartment(department string) string {
	department = strings.TrimSpace(bracketed.ReplaceAllString(department, ""))

	switch {
	case strings.Contains(department, "ENGAGE"):
		return "ENGAGE"
	case strings.Contains(department, "ACC"):
		parts := strings.Split(department, "-")
		return strings.TrimSpace(parts[len(parts)-1])
	}
	return department
}

// WeekdayLabel 例如 "Mon-Wk1"
func WeekdayLabel(t time.Time, weekNum int) string {
	return fmt.Sprintf("%s-Wk%d", t.Format("Mon"), weekNum)
}

func offeredShift(s *domain.Shift) domain.OfferedShift {
	return domain.OfferedShift{
		Department: CleanDepartment(s.WorkArea.Department),
		Role:       CleanRole(s.WorkArea.Role),
		Day:        WeekdayLabel(s.Start, s.WeekNum),
		Date:       s.Start.Format("02/01/2006"),
		Time:       fmt.Sprintf("%s-%s", s.Start.Format("15:04"), s.End.Format("15:04")),
	}
}

// ShiftOffer 把分配给员工的班次按开始时间列在一封邮件中
func ShiftOffer(emp *domain.Employee, shifts []*domain.Shift) *domain.MailMessage {
	sorted := append([]*domain.Shift(nil), shifts...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Start.Before(sorted[j].Start)
	})

	data := domain.ShiftOfferMailData{
		FirstName: emp.FirstName,
		Shifts:    make([]domain.OfferedShift, 0, len(sorted)),
	}
	for _, s := range sorted {
		data.Shifts = append(data.Shifts, offeredShift(s))
	}

	return &domain.MailMessage{
		Type:    domain.MailTypeShiftOffer,
		To:      emp.Email,
		Subject: shiftOfferSubject,
		Data:    data,
	}
}

// UnfillableAlert 提醒排班负责人某个班次无人可排，附带非空的拒绝原因
func UnfillableAlert(to string, u optimizer.UnfillableShift, difficulty float64) *domain.MailMessage {
	reasons := make([]string, 0, len(u.Reasons))
	for _, r := range u.Reasons {
		reasons = append(reasons, fmt.Sprintf("%s: %s", r.EmployeeName, r.Reason))
	}

	return &domain.MailMessage{
		Type:    domain.MailTypeUnfillableAlert,
		To:      to,
		Subject: fmt.Sprintf("%s: %s %s", unfillableAlertSubject, u.Shift.Start.Format("Mon 02/01 15:04"), u.Shift.WorkArea.Location),
		Data: domain.UnfillableAlertMailData{
			Shift:      offeredShift(u.Shift),
			Location:   u.Shift.WorkArea.Location,
			Difficulty: difficulty,
			Reasons:    reasons,
		},
	}
}

// OffersByEmployee 按员工汇总已接受的提议，每名员工一封邮件，按员工编号排序。
// 没有邮箱的员工编号在 missing 中返回。
func OffersByEmployee(roster *domain.Roster, accepted []*optimizer.Assignment) (messages []*domain.MailMessage, missing []string) {
	byCode := make(map[string][]*domain.Shift)
	for _, a := range accepted {
		byCode[a.EmployeeCode] = append(byCode[a.EmployeeCode], a.Shift)
	}

	codes := make([]string, 0, len(byCode))
	for code := range byCode {
		codes = append(codes, code)
	}
	sort.Strings(codes)

	for _, code := range codes {
		emp, ok := roster.Employee(code)
		if !ok || emp.Email == "" {
			missing = append(missing, code)
			continue
		}
		messages = append(messages, ShiftOffer(emp, byCode[code]))
	}
	return messages, missing
}

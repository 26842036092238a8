package utils

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/sysu-ecnc-dev/roster-engine/backend/internal/domain"
	"golang.org/x/crypto/bcrypt"
)

var commonSurnames = []string{
	"Smith", "Jones", "Williams", "Brown", "Wilson", "Taylor", "Nguyen", "Johnson", "Martin", "White",
	"Anderson", "Walker", "Thompson", "Harris", "Ryan", "Robinson", "Kelly", "King", "Lee", "Clarke",
}
var commonGivenNames = []string{
	"Oliver", "Charlotte", "Jack", "Amelia", "Noah", "Isla", "William", "Mia", "Leo", "Olivia",
	"Lucas", "Ava", "Henry", "Grace", "Thomas", "Chloe", "James", "Ella", "Ethan", "Zoe",
}

var locations = []string{"LIMESTONE COAST", "RIVERLAND", "MURRAYLANDS"}
var departments = []string{"Community Support", "Supported Living", "IHS Mount Gambier"}
var roles = []string{"Support Worker - Level 1", "Support Worker - Level 2", "Team Leader"}

var employmentTypes = []domain.EmploymentType{
	domain.EmploymentCasual,
	domain.EmploymentPartTime,
	domain.EmploymentFullTime,
}

var contractStatuses = []domain.ContractStatus{
	domain.ContractFullIFA,
	domain.ContractPartialIFA,
	domain.ContractNoIFA,
}

var leaveTypes = []domain.LeaveType{
	domain.LeaveAnnual,
	domain.LeavePersonalCarers,
	domain.LeaveWithoutPay,
	domain.LeaveUnavailable,
}

var leaveStatuses = []domain.LeaveStatus{
	domain.LeaveRequested,
	domain.LeaveApproved,
	domain.LeaveDenied,
}

var digits = "0123456789"
var letters = []rune("ABCDEFGHIJKLMNOPQRSTUVWXYZ")

// GenerateRandomName 生成 "Given Surname" 格式的姓名
func GenerateRandomName() string {
	return commonGivenNames[rand.Intn(len(commonGivenNames))] + " " + commonSurnames[rand.Intn(len(commonSurnames))]
}

func GenerateRandomID(letterLength int, digitLength int) string {
	random_id := make([]rune, letterLength+digitLength)
	for i := range random_id {
		if i < letterLength {
			random_id[i] = letters[rand.Intn(len(letters))]
		} else {
			random_id[i] = rune(digits[rand.Intn(len(digits))])
		}
	}
	return string(random_id)
}

func GenerateRandomWorkArea() domain.WorkArea {
	return domain.WorkArea{
		Location:   locations[rand.Intn(len(locations))],
		Department: departments[rand.Intn(len(departments))],
		Role:       roles[rand.Intn(len(roles))],
	}
}

// GenerateRandomEmployee 排班名末尾带有合同状态符号，与导出的排班表一致
func GenerateRandomEmployee(emailDomainName string) *domain.Employee {
	name := GenerateRandomName()
	code := GenerateRandomID(2, 4)
	status := contractStatuses[rand.Intn(len(contractStatuses))]
	rosterName := fmt.Sprintf("%s %s", name, status.Symbol())

	emp := domain.NewEmployee(name, code, rosterName, employmentTypes[rand.Intn(len(employmentTypes))], status)
	emp.Email = fmt.Sprintf("%s@%s", code, emailDomainName)

	areas := rand.Intn(2) + 1
	for i := 0; i < areas; i++ {
		emp.AddWorkArea(GenerateRandomWorkArea())
	}
	return emp
}

// GenerateRandomShift 在 day 当天 6 点到 20 点之间随机开始，时长 0.5 到 8 小时
func GenerateRandomShift(cal domain.Calendar, day time.Time, wa domain.WorkArea) (*domain.Shift, error) {
	start := domain.DateOf(day).Add(time.Duration(6+rand.Intn(15)) * time.Hour).Add(time.Duration(rand.Intn(2)*30) * time.Minute)
	end := start.Add(time.Duration(1+rand.Intn(16)) * 30 * time.Minute)

	return cal.NewShift(domain.ShiftSpec{
		Start:    start,
		End:      end,
		WorkArea: wa,
		Attended: rand.Intn(10) > 0,
	})
}

func GenerateRandomLeave(day time.Time) *domain.Leave {
	return &domain.Leave{
		Date:        domain.DateOf(day),
		Status:      leaveStatuses[rand.Intn(len(leaveStatuses))],
		RequestedAt: day.AddDate(0, 0, -rand.Intn(30)-1),
		Hours:       domain.MaxLeaveHoursPerDay,
		Type:        leaveTypes[rand.Intn(len(leaveTypes))],
	}
}

// GenerateRandomRoster 从 from 开始的 days 天内生成员工、已分配班次、请假和未分配班次
func GenerateRandomRoster(cal domain.Calendar, from time.Time, days, employees, unassigned int, emailDomainName string) (*domain.Roster, error) {
	roster := domain.NewRoster(cal)

	for i := 0; i < employees; i++ {
		emp := GenerateRandomEmployee(emailDomainName)
		if !roster.AddEmployee(emp) {
			continue
		}

		areas := emp.WorkAreas()
		for d := 0; d < days; d++ {
			day := from.AddDate(0, 0, d)
			switch n := rand.Intn(10); {
			case n < 4:
				shift, err := GenerateRandomShift(cal, day, areas[rand.Intn(len(areas))])
				if err != nil {
					return nil, err
				}
				roster.AssignShift(emp, shift)
			case n == 9:
				emp.AddLeave(GenerateRandomLeave(day))
			}
		}
	}

	for i := 0; i < unassigned; i++ {
		day := from.AddDate(0, 0, rand.Intn(max(1, days)))
		shift, err := GenerateRandomShift(cal, day, GenerateRandomWorkArea())
		if err != nil {
			return nil, err
		}
		roster.AddUnassignedShift(shift)
	}

	return roster, nil
}

// HashPassword 生成操作员密码的 bcrypt 哈希，用于 OPERATOR_PASSWORD_HASH
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

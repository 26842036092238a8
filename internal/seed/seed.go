package seed

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/sysu-ecnc-dev/roster-engine/backend/internal/domain"
	"github.com/sysu-ecnc-dev/roster-engine/backend/internal/utils"
	"gopkg.in/yaml.v3"
)

// fixture 中时间的格式，按本地时区解析
const (
	timeLayout = "2006-01-02 15:04"
	dateLayout = time.DateOnly
)

type Fixture struct {
	Employees  []EmployeeFixture `yaml:"employees"`
	Unassigned []ShiftFixture    `yaml:"unassigned"`
}

type EmployeeFixture struct {
	Code           string            `yaml:"code"`
	Name           string            `yaml:"name"`
	RosterCode     string            `yaml:"rosterCode"`
	EmploymentType string            `yaml:"employmentType"`
	ContractStatus string            `yaml:"contractStatus"` // 为空时根据 rosterCode 中的符号判断
	Email          string            `yaml:"email"`
	WorkAreas      []domain.WorkArea `yaml:"workAreas"`
	Shifts         []ShiftFixture    `yaml:"shifts"`
	Leave          []LeaveFixture    `yaml:"leave"`
}

type ShiftFixture struct {
	Start      string `yaml:"start"`
	End        string `yaml:"end"`
	Location   string `yaml:"location"`
	Department string `yaml:"department"`
	Role       string `yaml:"role"`
	Published  bool   `yaml:"published"`
	Comment    string `yaml:"comment"`
	Attended   *bool  `yaml:"attended"` // 缺省为 true
}

type LeaveFixture struct {
	Date        string  `yaml:"date"`
	Status      string  `yaml:"status"`
	Type        string  `yaml:"type"`
	Hours       float64 `yaml:"hours"`
	RequestedAt string  `yaml:"requestedAt"`
}

// Store 由 repository.Repository 实现
type Store interface {
	CreateEmployee(emp *domain.Employee) error
	CreateShift(employeeCode string, shift *domain.Shift) error
	CreateLeave(employeeCode string, leave *domain.Leave) error
}

type Counts struct {
	Employees  int
	Shifts     int
	Leave      int
	Unassigned int
}

func LoadFile(path string, cal domain.Calendar) (*domain.Roster, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	return Parse(f, cal)
}

// Parse 解析 YAML fixture 并组装 Roster，任何一条记录不合法都会返回错误
func Parse(r io.Reader, cal domain.Calendar) (*domain.Roster, error) {
	var fixture Fixture
	decoder := yaml.NewDecoder(r)
	decoder.KnownFields(true)
	if err := decoder.Decode(&fixture); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidInput, err)
	}

	roster := domain.NewRoster(cal)
	for i, ef := range fixture.Employees {
		if strings.TrimSpace(ef.Code) == "" {
			return nil, fmt.Errorf("%w: 第 %d 名员工没有编号", domain.ErrInvalidInput, i+1)
		}

		status := domain.ContractStatusFromRosterName(ef.RosterCode)
		if ef.ContractStatus != "" {
			status = domain.ParseContractStatus(ef.ContractStatus)
		}
		rosterCode := ef.RosterCode
		if rosterCode == "" {
			rosterCode = ef.Name
		}

		emp := domain.NewEmployee(ef.Name, ef.Code, rosterCode, domain.ParseEmploymentType(ef.EmploymentType), status)
		emp.Email = ef.Email
		for _, wa := range ef.WorkAreas {
			emp.AddWorkArea(wa)
		}
		if !roster.AddEmployee(emp) {
			return nil, fmt.Errorf("%w: 员工编号 %s 重复", domain.ErrInvalidInput, ef.Code)
		}

		for _, sf := range ef.Shifts {
			shift, err := sf.build(cal)
			if err != nil {
				return nil, err
			}
			roster.AssignShift(emp, shift)
		}

		for _, lf := range ef.Leave {
			leave, err := lf.build(ef.Code)
			if err != nil {
				return nil, err
			}
			emp.AddLeave(leave)
		}
	}

	for _, sf := range fixture.Unassigned {
		shift, err := sf.build(cal)
		if err != nil {
			return nil, err
		}
		roster.AddUnassignedShift(shift)
	}

	return roster, nil
}

func (sf ShiftFixture) build(cal domain.Calendar) (*domain.Shift, error) {
	start, err := time.ParseInLocation(timeLayout, sf.Start, time.Local)
	if err != nil {
		return nil, fmt.Errorf("%w: 班次开始时间 %q: %v", domain.ErrInvalidInput, sf.Start, err)
	}
	end, err := time.ParseInLocation(timeLayout, sf.End, time.Local)
	if err != nil {
		return nil, fmt.Errorf("%w: 班次结束时间 %q: %v", domain.ErrInvalidInput, sf.End, err)
	}

	attended := true
	if sf.Attended != nil {
		attended = *sf.Attended
	}

	return utils.ShiftFromRecord(cal, &utils.ShiftRecord{
		Start:      start,
		End:        end,
		Location:   sf.Location,
		Department: sf.Department,
		Role:       sf.Role,
		Published:  sf.Published,
		Comment:    sf.Comment,
		Attended:   attended,
	})
}

func (lf LeaveFixture) build(code string) (*domain.Leave, error) {
	date, err := time.ParseInLocation(dateLayout, lf.Date, time.Local)
	if err != nil {
		return nil, fmt.Errorf("%w: 员工 %s 的请假日期 %q: %v", domain.ErrInvalidInput, code, lf.Date, err)
	}

	// 没有申请时间时视为请假当天之前一周申请
	requestedAt := date.AddDate(0, 0, -7)
	if lf.RequestedAt != "" {
		requestedAt, err = time.ParseInLocation(timeLayout, lf.RequestedAt, time.Local)
		if err != nil {
			return nil, fmt.Errorf("%w: 员工 %s 的请假申请时间 %q: %v", domain.ErrInvalidInput, code, lf.RequestedAt, err)
		}
	}

	hours := lf.Hours
	if hours == 0 {
		hours = domain.MaxLeaveHoursPerDay
	}

	return utils.LeaveFromRecord(&utils.LeaveRecord{
		EmployeeCode: code,
		Date:         date,
		Status:       lf.Status,
		RequestedAt:  requestedAt,
		Hours:        hours,
		Type:         lf.Type,
	})
}

// Insert 把 Roster 中的员工、班次、请假和未分配班次写入 store。
// 单条记录失败时记录日志并继续，返回成功写入的数量和第一个错误。
func Insert(store Store, roster *domain.Roster, logger *slog.Logger) (Counts, error) {
	var counts Counts
	var firstErr error
	record := func(err error, msg string, args ...any) bool {
		if err == nil {
			return true
		}
		logger.Error(msg, append(args, slog.String("error", err.Error()))...)
		if firstErr == nil {
			firstErr = err
		}
		return false
	}

	for _, emp := range roster.SortedEmployees() {
		if !record(store.CreateEmployee(emp), "无法插入员工", slog.String("code", emp.Code)) {
			continue
		}
		counts.Employees++

		for _, shift := range emp.Shifts() {
			if record(store.CreateShift(emp.Code, shift), "无法插入班次", slog.String("code", emp.Code), slog.String("shift", shift.Key())) {
				counts.Shifts++
			}
		}

		for _, leave := range emp.Leave() {
			if record(store.CreateLeave(emp.Code, leave), "无法插入请假", slog.String("code", emp.Code), slog.String("date", leave.Date.Format(dateLayout))) {
				counts.Leave++
			}
		}
	}

	for _, shift := range roster.UnassignedShifts() {
		if record(store.CreateShift("", shift), "无法插入未分配班次", slog.String("shift", shift.Key())) {
			counts.Unassigned++
		}
	}

	return counts, firstErr
}

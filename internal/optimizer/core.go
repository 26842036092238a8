package optimizer

import (
	"math"
	"time"

	"github.com/sysu-ecnc-dev/roster-engine/backend/internal/domain"
	"github.com/sysu-ecnc-dev/roster-engine/backend/internal/rules"
)

/**
 * 计算班次难度（0-10，越高越难排）
 * difficulty = scarcity + duration + timeOfDay + isolation + weekday + future
 * 其中:
 * 		1. scarcity = 5 * (1 - eligible/total)，占一半权重；没有符合条件的员工时难度直接取最大值
 * 		2. 其余各项取值 0-1
 */
func (o *Optimizer) calcDifficulty(s *domain.Shift, now time.Time) float64 {
	employees := o.roster.Employees()
	results := make(verdicts, len(employees))
	eligible := 0
	for _, emp := range employees {
		v := o.engine.Evaluate(emp, s)
		if v.Eligible {
			eligible++
		}
		results[emp.Code] = v
	}

	if eligible == 0 {
		o.markUnfillable(s, results)
		return o.parameters.MaxDifficulty
	}

	scarcity := 5.0 * (1 - float64(eligible)/float64(len(employees)))

	score := scarcity
	score += math.Min(1, math.Abs(s.GrossHours-o.parameters.IdealShiftHours)/o.parameters.IdealShiftHours)
	score += math.Abs(float64(s.Start.Hour())-12) / 12
	score += o.isolation(s)
	score += weekdayCentrality(s.Start)
	score += o.futureScore(s, now)

	return math.Round(score*100) / 100
}

// isolation 与最近的其他待分配班次的间隔越大越难排
func (o *Optimizer) isolation(s *domain.Shift) float64 {
	closest := time.Duration(-1)
	for _, other := range o.shifts {
		if other == s {
			continue
		}
		gap := other.Start.Sub(s.End)
		if gap < 0 {
			gap = -gap
		}
		if closest < 0 || gap < closest {
			closest = gap
		}
	}

	if closest < 0 {
		return 1
	}
	return math.Min(1, closest.Hours()/o.parameters.IsolationSaturation.Hours())
}

func (o *Optimizer) futureScore(s *domain.Shift, now time.Time) float64 {
	days := math.Floor(s.Start.Sub(now).Hours() / 24)
	if days <= 0 {
		return 0
	}
	return math.Min(1, days/o.parameters.FutureHorizonDays)
}

/**
 * 计算员工对班次的适合度（越低越适合）
 * score = (hours + count + adjacency) * lengthFactor * (2 - expertise)
 */
func (o *Optimizer) suitability(emp *domain.Employee, s *domain.Shift) float64 {
	existing := emp.Shifts()

	hours := math.Min(1, rules.Sum(existing, rules.GrossWeight)/o.parameters.LoadHours) * hourWeight
	count := math.Min(1, float64(len(existing))/o.parameters.LoadShifts) * shiftWeight

	adjacency := adjacencyWeight
	for _, other := range existing {
		if absDuration(other.End.Sub(s.Start)) < o.parameters.AdjacencyWindow ||
			absDuration(s.End.Sub(other.Start)) < o.parameters.AdjacencyWindow {
			adjacency = adjacencyRate * adjacencyWeight
			break
		}
	}

	lengthFactor := 1.0
	if s.GrossHours >= o.parameters.IdealMinHours && s.GrossHours <= o.parameters.IdealMaxHours {
		lengthFactor = idealLengthRate
	}

	areas := emp.WorkAreas()
	matching := 0
	for _, wa := range areas {
		if wa.Department == s.WorkArea.Department {
			matching++
		}
	}
	expertise := float64(matching) / float64(max(1, len(areas)))

	return (hours + count + adjacency) * lengthFactor * (2 - expertise)
}

// bestFor 找出最适合该班次的员工；在全体员工中都找不到时把班次标记为不可排
func (o *Optimizer) bestFor(s *domain.Shift, casualOnly bool) *Assignment {
	var best *Assignment
	results := make(verdicts)

	for _, emp := range o.roster.Employees() {
		if casualOnly && !emp.IsCasual() {
			continue
		}

		if o.rejected[pair{employeeCode: emp.Code, shift: s}] {
			results[emp.Code] = rules.Verdict{Rule: ruleOperatorRejected, Reason: "rejected by operator"}
			continue
		}

		v := o.engine.Evaluate(emp, s)
		if !v.Eligible {
			results[emp.Code] = v
			continue
		}

		score := o.suitability(emp, s)
		if best == nil || score < best.Score {
			best = newAssignment(s, emp.Code, score, o.difficulty[s])
		}
	}

	if best == nil && !casualOnly {
		o.markUnfillable(s, results)
	}
	return best
}

func (o *Optimizer) markUnfillable(s *domain.Shift, results verdicts) {
	if _, exists := o.unfillable[s]; !exists {
		o.unfillableOrder = append(o.unfillableOrder, s)
	}
	o.unfillable[s] = results
	o.difficulty[s] = o.parameters.MaxDifficulty

	attrs := []any{"shift", s.String()}
	for _, r := range o.reasons(s) {
		attrs = append(attrs, r.EmployeeName, r.Reason)
	}
	o.logger.Warn("班次无人可排", attrs...)
}

// reasons 按员工顺序返回非空的不可排原因
func (o *Optimizer) reasons(s *domain.Shift) []Rejection {
	results := o.unfillable[s]
	out := make([]Rejection, 0, len(results))
	for _, emp := range o.roster.Employees() {
		v, ok := results[emp.Code]
		if !ok || v.Reason == "" {
			continue
		}
		out = append(out, Rejection{EmployeeCode: emp.Code, EmployeeName: emp.Name, Rule: v.Rule, Reason: v.Reason})
	}
	return out
}

package pipeline

import (
	"io"
	"log/slog"
	"time"

	"github.com/sysu-ecnc-dev/roster-engine/backend/internal/combiner"
	"github.com/sysu-ecnc-dev/roster-engine/backend/internal/compliance"
	"github.com/sysu-ecnc-dev/roster-engine/backend/internal/config"
	"github.com/sysu-ecnc-dev/roster-engine/backend/internal/domain"
	"github.com/sysu-ecnc-dev/roster-engine/backend/internal/optimizer"
	"github.com/sysu-ecnc-dev/roster-engine/backend/internal/rules"
)

// Pipeline 一次排班运行需要的全部组件，共享同一个 Roster
type Pipeline struct {
	Roster    *domain.Roster
	Rules     *rules.Engine
	Optimizer *optimizer.Optimizer
	Validator *compliance.Validator

	Combined *combiner.Result
	Dropped  []*domain.Employee // 不在目标地区而被移除的员工
}

type Options struct {
	Rules      *rules.Parameters
	Combiner   *combiner.Parameters
	Optimizer  *optimizer.Parameters
	Compliance *compliance.Parameters
	Locations  []string
}

// OptionsFromConfig 从配置中读取各组件的参数，合并只考虑当前时间之后开始的班次
func OptionsFromConfig(cfg *config.Config, now time.Time) Options {
	combinerParams := cfg.CombinerParameters()
	combinerParams.Since = now

	return Options{
		Rules:      cfg.RulesParameters(),
		Combiner:   combinerParams,
		Optimizer:  cfg.OptimizerParameters(),
		Compliance: cfg.ComplianceParameters(),
		Locations:  cfg.Roster.Locations,
	}
}

// New 过滤地区、合并未分配班次并构造优化器。
// roster 的未分配池会被合并结果替换。
func New(roster *domain.Roster, opts Options, logger *slog.Logger) *Pipeline {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	p := &Pipeline{Roster: roster}

	if len(opts.Locations) > 0 {
		p.Dropped = roster.RetainLocations(opts.Locations...)
		if len(p.Dropped) > 0 {
			logger.Info("已移除不在目标地区的员工", "count", len(p.Dropped), "locations", opts.Locations)
		}
	}

	p.Combined = combiner.New(opts.Combiner, logger.With("component", "combiner")).Combine(roster.UnassignedShifts())
	roster.SetCombined(p.Combined.Shifts)
	if len(p.Combined.Stale) > 0 {
		logger.Info("已开始的班次不参与排班", "count", len(p.Combined.Stale))
	}

	p.Rules = rules.New(opts.Rules, logger.With("component", "rules"))
	p.Optimizer = optimizer.New(opts.Optimizer, roster, p.Rules, logger.With("component", "optimizer"))
	p.Validator = compliance.New(opts.Compliance, roster.Calendar, logger.With("component", "compliance"))

	stats := roster.Stats()
	logger.Info("排班数据已就绪",
		slog.Int("employees", stats.Employees),
		slog.Int("shifts", stats.Shifts),
		slog.Int("leave", stats.Leave),
		slog.Int("combined", stats.Combined),
	)

	return p
}

// ValidateAll 对所有员工运行合规检查，按姓名排序
func (p *Pipeline) ValidateAll() []*compliance.Report {
	employees := p.Roster.SortedEmployees()
	reports := make([]*compliance.Report, 0, len(employees))
	for _, emp := range employees {
		reports = append(reports, p.Validator.Validate(emp))
	}
	return reports
}

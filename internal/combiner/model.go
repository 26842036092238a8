package combiner

import (
	"time"

	"github.com/sysu-ecnc-dev/roster-engine/backend/internal/domain"
)

// 合并参数
type Parameters struct {
	ExcludedDepartments     []string      // 部门名包含这些字符串时不参与合并，原样输出
	SleepoverLookback       time.Duration // 跨夜班之前可以合并的最长时间
	PostSleepoverCutoffHour int           // 跨夜班之后的组成部分必须在这个钟点之前结束
	CombinedCeiling         float64       // 合并后的最大毛工时
	ShortShiftHours         float64       // 低于此工时的班次视为短班
	MaxComponents           int           // 一次合并最多包含的班次数
	RoleSeparator           string        // 角色前缀分隔符
	GenericRole             string        // 组成部分角色不一致时使用的角色

	// Since 之前开始的班次不参与合并，零值表示不过滤
	Since time.Time
}

func DefaultParameters() *Parameters {
	return &Parameters{
		ExcludedDepartments:     []string{"IHS"},
		SleepoverLookback:       4 * time.Hour,
		PostSleepoverCutoffHour: 6,
		CombinedCeiling:         10,
		ShortShiftHours:         2,
		MaxComponents:           4,
		RoleSeparator:           "-",
		GenericRole:             "SUPPORT WORKER",
	}
}

// Result 合并结果
type Result struct {
	// Shifts 按部门和开始时间排序，包括合成班次和未合并的原始班次
	Shifts []*domain.Shift

	// Provenance 合成班次 -> 按开始时间排序的组成部分
	Provenance map[*domain.Shift][]*domain.Shift

	// ShortShifts 无法合并的短班，仍然包含在 Shifts 中
	ShortShifts []*domain.Shift

	// Stale 在 Since 之前开始而被排除的班次
	Stale []*domain.Shift
}

// group 同一部门、同一地点的班次
type group struct {
	department string
	location   string
	shifts     []*domain.Shift
}

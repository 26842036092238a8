package combiner

import (
	"fmt"
	"time"

	"github.com/sysu-ecnc-dev/roster-engine/backend/internal/domain"
	"github.com/sysu-ecnc-dev/roster-engine/backend/internal/rules"
)

// assembleSleepovers 把跨夜班和紧邻的已出勤班次合并；
// 净工时只计算已出勤的部分，没有相邻班次的跨夜班原样保留
func (c *Combiner) assembleSleepovers(shifts []*domain.Shift) []*domain.Shift {
	sorted := rules.SortedByStart(shifts)
	var merged []*domain.Shift

	for _, sleepover := range sorted {
		if c.consumed[sleepover] || !rules.IsSleepover(sleepover) {
			continue
		}

		// 每一侧最多一个相邻班次，其余并行的班次留给后续合并
		var pre, post []*domain.Shift
		lookback := sleepover.Start.Add(-c.parameters.SleepoverLookback)
		var before []*domain.Shift
		for _, s := range sorted {
			if !c.companion(s, sleepover) {
				continue
			}
			if s.End.Equal(sleepover.Start) && !s.Start.Before(lookback) {
				before = append(before, s)
			}
		}
		if best := longestCompanion(before); best != nil {
			pre = append(pre, best)
		}

		if sleepover.End.Hour() < c.parameters.PostSleepoverCutoffHour {
			cutoff := time.Date(sleepover.End.Year(), sleepover.End.Month(), sleepover.End.Day(),
				c.parameters.PostSleepoverCutoffHour, 0, 0, 0, sleepover.End.Location())
			var after []*domain.Shift
			for _, s := range sorted {
				if !c.companion(s, sleepover) {
					continue
				}
				if s.Start.Equal(sleepover.End) && !s.End.After(cutoff) {
					after = append(after, s)
				}
			}
			if best := longestCompanion(after); best != nil {
				post = append(post, best)
			}
		}

		if len(pre) == 0 && len(post) == 0 {
			continue
		}

		components := append(append(append([]*domain.Shift{}, pre...), sleepover), post...)
		if len(components) > c.parameters.MaxComponents {
			c.logger.Warn("跨夜班相邻班次过多，跳过合并", "start", sleepover.Start, "components", len(components))
			continue
		}

		gross, net := 0.0, 0.0
		for _, s := range components {
			gross += s.GrossHours
			net += s.NetHours
			c.consumed[s] = true
		}

		merged = append(merged, domain.NewCompositeShift(components, c.mergedRole(components), gross, net,
			fmt.Sprintf("Combined %d shifts (sleepover)", len(components))))
	}

	return merged
}

// longestCompanion 选出工时最长的班次，相同时按 Key 排序取第一个
func longestCompanion(candidates []*domain.Shift) *domain.Shift {
	var best *domain.Shift
	for _, s := range candidates {
		switch {
		case best == nil:
			best = s
		case s.GrossHours > best.GrossHours:
			best = s
		case s.GrossHours == best.GrossHours && s.Key() < best.Key():
			best = s
		}
	}
	return best
}

// companion 判断 s 能否作为跨夜班的前后组成部分
func (c *Combiner) companion(s, sleepover *domain.Shift) bool {
	return s != sleepover && !c.consumed[s] && s.Attended && !rules.IsSleepover(s)
}

// combineRegular 先在同一角色前缀内合并相邻班次，剩下的再跨前缀合并
func (c *Combiner) combineRegular(shifts []*domain.Shift) []*domain.Shift {
	var regular []*domain.Shift
	for _, s := range rules.SortedByStart(shifts) {
		if !c.consumed[s] && !rules.IsSleepover(s) {
			regular = append(regular, s)
		}
	}

	var prefixes []string
	byPrefix := make(map[string][]*domain.Shift)
	for _, s := range regular {
		prefix := domain.RolePrefix(s.WorkArea.Role, c.parameters.RoleSeparator)
		if _, exists := byPrefix[prefix]; !exists {
			prefixes = append(prefixes, prefix)
		}
		byPrefix[prefix] = append(byPrefix[prefix], s)
	}

	var merged []*domain.Shift
	for _, prefix := range prefixes {
		merged = append(merged, c.combineChains(byPrefix[prefix])...)
	}

	var leftover []*domain.Shift
	for _, s := range regular {
		if !c.consumed[s] {
			leftover = append(leftover, s)
		}
	}
	return append(merged, c.combineChains(leftover)...)
}

// combineChains 在按开始时间排序的班次中贪心地寻找首尾相接的链；
// 只有包含短班的链才值得合并
func (c *Combiner) combineChains(sorted []*domain.Shift) []*domain.Shift {
	var merged []*domain.Shift

	i := 0
	for i < len(sorted) {
		chain := []*domain.Shift{sorted[i]}
		total := sorted[i].GrossHours

		for j := i + 1; j < len(sorted) && len(chain) < c.parameters.MaxComponents; j++ {
			next := sorted[j]
			if !next.Start.Equal(chain[len(chain)-1].End) {
				break
			}
			if rules.Exceeds(total+next.GrossHours, c.parameters.CombinedCeiling) {
				break
			}
			chain = append(chain, next)
			total += next.GrossHours
		}

		if len(chain) < 2 || !c.containsShort(chain) {
			i++
			continue
		}

		gross, net := 0.0, 0.0
		for _, s := range chain {
			gross += s.GrossHours
			net += s.NetHours
			c.consumed[s] = true
		}
		merged = append(merged, domain.NewCompositeShift(chain, c.mergedRole(chain), gross, net,
			fmt.Sprintf("Combined %d shifts (regular)", len(chain))))
		i += len(chain)
	}

	return merged
}

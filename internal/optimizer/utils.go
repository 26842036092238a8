package optimizer

import "time"

// weekdayCentrality 周末为 0，工作日越接近周三越高
func weekdayCentrality(t time.Time) float64 {
	// 转换为周一 = 0 ... 周日 = 6
	wd := (int(t.Weekday()) + 6) % 7
	if wd >= 5 {
		return 0
	}
	diff := wd - 2
	if diff < 0 {
		diff = -diff
	}
	return 1 - float64(diff)/4
}

func absDuration(d time.Duration) time.Duration {
	if d < 0 {
		return -d
	}
	return d
}

// Package recurrence 判断习惯在某天是否需要执行，并计算完成记录所属的周期。
//
// 包内所有函数都是纯函数：输入习惯与日期，返回结论，不做任何 I/O。
// 日期以其自身时区的日历日解释，调用方负责先换算到用户所在时区
// （ParseDate / StartOfDay）。
package recurrence

// Habit 是引擎读取的习惯快照
type Habit struct {
	ID   string
	Rule Rule

	// Target 大于 0 时为目标型习惯
	Target float64

	AnchorDate string
	CreatedAt  string

	Paused           bool
	ActiveOnHolidays bool

	// 以下三个映射由 Tracker 读写
	Progress     map[string]float64
	SkippedDates map[string]bool
	Completions  map[string]bool
}

// IsGoal 报告习惯是否按数值目标跟踪
func (h Habit) IsGoal() bool {
	return h.Target > 0
}

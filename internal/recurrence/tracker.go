package recurrence

import "time"

// Status 是某个周期的综合状态
type Status string

const (
	StatusPending   Status = "pending"
	StatusCompleted Status = "completed"
	StatusSkipped   Status = "skipped"
	// StatusConflicted 表示同时被标记为完成和跳过。
	// 引擎不替调用方决定哪个优先，只把不一致暴露出来。
	StatusConflicted Status = "conflicted"
)

// IsCompleted 报告 date 所在周期是否已完成
func IsCompleted(h Habit, date time.Time) bool {
	key := PeriodKey(h, date)
	if key == "" {
		return false
	}
	return h.Completions[key]
}

// SetCompleted 设置或清除 date 所在周期的完成标记。
// 目标型习惯的 Progress 不会被修改，调用方需自行保持一致。
func SetCompleted(h *Habit, date time.Time, value bool) {
	key := PeriodKey(*h, date)
	if key == "" {
		return
	}
	if !value {
		delete(h.Completions, key)
		return
	}
	if h.Completions == nil {
		h.Completions = make(map[string]bool)
	}
	h.Completions[key] = true
}

// ToggleCompleted 翻转完成标记并返回新值
func ToggleCompleted(h *Habit, date time.Time) bool {
	next := !IsCompleted(*h, date)
	SetCompleted(h, date, next)
	return next
}

// IsSkippedToday 报告 date 当天是否被跳过，跳过总是按天记录
func IsSkippedToday(h Habit, date time.Time) bool {
	key := DayKey(date)
	if key == "" {
		return false
	}
	return h.SkippedDates[key]
}

// Skip 把 date 当天标记为跳过
func Skip(h *Habit, date time.Time) {
	key := DayKey(date)
	if key == "" {
		return
	}
	if h.SkippedDates == nil {
		h.SkippedDates = make(map[string]bool)
	}
	h.SkippedDates[key] = true
}

// Unskip 取消 date 当天的跳过标记
func Unskip(h *Habit, date time.Time) {
	delete(h.SkippedDates, DayKey(date))
}

// ProgressFor 返回 date 所在周期已累计的进度
func ProgressFor(h Habit, date time.Time) float64 {
	return h.Progress[PeriodKey(h, date)]
}

// StatusOf 合并完成与跳过两个标记
func StatusOf(h Habit, date time.Time) Status {
	completed := IsCompleted(h, date)
	skipped := IsSkippedToday(h, date)
	switch {
	case completed && skipped:
		return StatusConflicted
	case completed:
		return StatusCompleted
	case skipped:
		return StatusSkipped
	default:
		return StatusPending
	}
}

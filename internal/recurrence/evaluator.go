package recurrence

import (
	"slices"
	"time"
)

// HolidayFunc 判断某个日键（YYYY-MM-DD）是否为节假日
type HolidayFunc func(dateKey string) bool

// Evaluator 判断习惯在某天是否到期。
// 每次调用都会重新询问 Holidays，不做缓存：节假日配置随时可能变化。
type Evaluator struct {
	Holidays HolidayFunc
	Location *time.Location
}

// NewEvaluator 构造 Evaluator，loc 为空时使用 time.Local
func NewEvaluator(holidays HolidayFunc, loc *time.Location) *Evaluator {
	if loc == nil {
		loc = time.Local
	}
	return &Evaluator{Holidays: holidays, Location: loc}
}

func (e *Evaluator) location() *time.Location {
	if e == nil || e.Location == nil {
		return time.Local
	}
	return e.Location
}

func (e *Evaluator) isHoliday(day time.Time) bool {
	if e == nil || e.Holidays == nil {
		return false
	}
	return e.Holidays(DayKey(day))
}

// IsDueOn 与 IsDue 相同，但接受 ISO-8601 字符串；无法解析时返回 false
func (e *Evaluator) IsDueOn(h Habit, raw string) bool {
	day, ok := ParseDate(raw, e.location())
	if !ok {
		return false
	}
	return e.IsDue(h, day)
}

// IsDue 判断习惯在 date 所在的日历日是否到期。
// 任何无效输入都返回 false。
func (e *Evaluator) IsDue(h Habit, date time.Time) bool {
	if h.Paused {
		return false
	}
	if date.IsZero() {
		return false
	}
	day := StartOfDay(date, e.location())

	if h.IsGoal() {
		switch h.Rule.(type) {
		case Biweekly:
			return biweeklyParity(h, day)
		case Daily:
			return h.ActiveOnHolidays || !e.isHoliday(day)
		default:
			// 目标型习惯按周期累计，按天不再限制
			return true
		}
	}

	switch r := h.Rule.(type) {
	case Daily:
		return h.ActiveOnHolidays || !e.isHoliday(day)
	case Weekly:
		if !h.ActiveOnHolidays && e.isHoliday(day) {
			return false
		}
		return matchesWeekday(r.Days, day.Weekday())
	case Biweekly:
		if !matchesWeekday(r.Days, day.Weekday()) {
			return false
		}
		return biweeklyParity(h, day)
	case Monthly:
		return monthlyDue(h, r, day)
	case Yearly:
		return yearlyDue(h, r, day)
	default:
		return true
	}
}

func matchesWeekday(days []time.Weekday, wd time.Weekday) bool {
	return len(days) == 0 || slices.Contains(days, wd)
}

// biweeklyParity 以周一为一周的开始，锚点所在周为第 0 周，偶数周到期。
// 第 0 周中锚点之前的日子不算。
func biweeklyParity(h Habit, day time.Time) bool {
	anchor := ResolveAnchor(h, day.Location())
	weeks := floorDiv(daysBetween(mondayOf(anchor), mondayOf(day)), 7)
	if weeks%2 != 0 {
		return false
	}
	if weeks == 0 && civil(day).Before(civil(anchor)) {
		return false
	}
	return true
}

func monthlyDue(h Habit, r Monthly, day time.Time) bool {
	anchor := ResolveAnchor(h, day.Location())
	monthDiff := 12*(day.Year()-anchor.Year()) + int(day.Month()) - int(anchor.Month())
	if monthDiff%positiveOr(r.Interval, 1) != 0 {
		return false
	}

	if r.Mode == MonthlyOn {
		if len(r.Combinations) == 0 {
			return true
		}
		for _, c := range r.Combinations {
			if c.Matches(day) {
				return true
			}
		}
		return false
	}

	return len(r.Dates) == 0 || slices.Contains(r.Dates, day.Day())
}

func yearlyDue(h Habit, r Yearly, day time.Time) bool {
	anchor := ResolveAnchor(h, day.Location())
	if (day.Year()-anchor.Year())%positiveOr(r.Interval, 1) != 0 {
		return false
	}
	if len(r.Months) > 0 && !slices.Contains(r.Months, day.Month()) {
		return false
	}
	return len(r.Dates) == 0 || slices.Contains(r.Dates, day.Day())
}

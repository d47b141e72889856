package recurrence

import (
	"strings"
	"time"
)

// Ordinal 表示某月中第几个星期几
type Ordinal int

const (
	OrdinalInvalid Ordinal = iota
	OrdinalFirst
	OrdinalSecond
	OrdinalThird
	OrdinalFourth
	OrdinalFifth
	OrdinalLast
)

var ordinalNames = map[string]Ordinal{
	"first":  OrdinalFirst,
	"second": OrdinalSecond,
	"third":  OrdinalThird,
	"fourth": OrdinalFourth,
	"fifth":  OrdinalFifth,
	"last":   OrdinalLast,
}

var weekdayNames = map[string]time.Weekday{
	"sunday":    time.Sunday,
	"sun":       time.Sunday,
	"monday":    time.Monday,
	"mon":       time.Monday,
	"tuesday":   time.Tuesday,
	"tue":       time.Tuesday,
	"wednesday": time.Wednesday,
	"wed":       time.Wednesday,
	"thursday":  time.Thursday,
	"thu":       time.Thursday,
	"friday":    time.Friday,
	"fri":       time.Friday,
	"saturday":  time.Saturday,
	"sat":       time.Saturday,
}

func (o Ordinal) String() string {
	for name, v := range ordinalNames {
		if v == o {
			return name
		}
	}
	return ""
}

// Combination 是 monthly "on" 模式下的一条 "<ordinal>-<weekday>" 组合
type Combination struct {
	Ordinal Ordinal
	Weekday time.Weekday
	Raw     string
}

// ParseCombination 解析形如 "last-friday" 的组合。
// 格式错误时返回 Ordinal 为 OrdinalInvalid 的组合，它永远不会匹配。
func ParseCombination(raw string) Combination {
	c := Combination{Raw: raw}
	ordPart, dayPart, found := strings.Cut(strings.ToLower(strings.TrimSpace(raw)), "-")
	if !found {
		return c
	}
	ord, ok := ordinalNames[strings.TrimSpace(ordPart)]
	if !ok {
		return c
	}
	day, ok := weekdayNames[strings.TrimSpace(dayPart)]
	if !ok {
		return c
	}
	c.Ordinal = ord
	c.Weekday = day
	return c
}

// Valid 报告组合是否解析成功
func (c Combination) Valid() bool {
	return c.Ordinal != OrdinalInvalid
}

func (c Combination) String() string {
	if !c.Valid() {
		return c.Raw
	}
	return c.Ordinal.String() + "-" + strings.ToLower(c.Weekday.String())
}

// Matches 判断日期是否为该组合描述的那一天
func (c Combination) Matches(date time.Time) bool {
	if !c.Valid() {
		return false
	}
	return date.Weekday() == c.Weekday && IsNthWeekdayOfMonth(date, c.Ordinal)
}

// IsNthWeekdayOfMonth 判断 date 是否为当月第 ordinal 个同星期的日子。
// last 以"再加 7 天就跨月"来判断。
func IsNthWeekdayOfMonth(date time.Time, ordinal Ordinal) bool {
	switch ordinal {
	case OrdinalFirst, OrdinalSecond, OrdinalThird, OrdinalFourth, OrdinalFifth:
		return (date.Day()-1)/7+1 == int(ordinal)
	case OrdinalLast:
		return date.AddDate(0, 0, 7).Month() != date.Month()
	default:
		return false
	}
}

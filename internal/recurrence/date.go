package recurrence

import (
	"strings"
	"time"
)

// DayLayout 是日键的规范格式
const DayLayout = "2006-01-02"

var dateOnlyLayouts = []string{
	DayLayout,
	"2006/01/02",
}

// 不带时区的时间戳按本地时间解析
var localTimestampLayouts = []string{
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
}

var zonedTimestampLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
}

// ParseDate 把 ISO-8601 字符串规整为 loc 中当天零点。
// 纯日期按 loc 的日历日解析，不做 UTC 偏移；带时区的时间戳先换算到 loc。
func ParseDate(raw string, loc *time.Location) (time.Time, bool) {
	t, ok := parseInstant(raw, loc)
	if !ok {
		return time.Time{}, false
	}
	return StartOfDay(t, loc), true
}

// StartOfDay 返回 t 在 loc 中所在日历日的零点
func StartOfDay(t time.Time, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.Local
	}
	y, m, d := t.In(loc).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, loc)
}

// DayKey 返回 date 所在日历日的 YYYY-MM-DD，日期以其自身时区解释
func DayKey(date time.Time) string {
	if date.IsZero() {
		return ""
	}
	return date.Format(DayLayout)
}

func parseInstant(raw string, loc *time.Location) (time.Time, bool) {
	if loc == nil {
		loc = time.Local
	}
	value := strings.TrimSpace(raw)
	if value == "" {
		return time.Time{}, false
	}
	for _, layout := range dateOnlyLayouts {
		if t, err := time.ParseInLocation(layout, value, loc); err == nil {
			return t, true
		}
	}
	for _, layout := range localTimestampLayouts {
		if t, err := time.ParseInLocation(layout, value, loc); err == nil {
			return t, true
		}
	}
	for _, layout := range zonedTimestampLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t.In(loc), true
		}
	}
	return time.Time{}, false
}

// civil 把日期折算为 UTC 中同一个日历日，便于做精确的天数差
func civil(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func daysBetween(from, to time.Time) int {
	return int(civil(to).Sub(civil(from)).Hours() / 24)
}

// mondayOf 返回所在周（周一开始）的周一
func mondayOf(t time.Time) time.Time {
	c := civil(t)
	offset := (int(c.Weekday()) + 6) % 7
	return c.AddDate(0, 0, -offset)
}

func floorDiv(a, b int) int {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}

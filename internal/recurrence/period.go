package recurrence

import (
	"fmt"
	"strings"
	"time"
)

// Group 是习惯的导航分组，同时决定完成记录按哪种周期归档
type Group string

const (
	GroupDaily   Group = "daily"
	GroupWeekly  Group = "weekly"
	GroupMonthly Group = "monthly"
	GroupYearly  Group = "yearly"
)

// Groups 按导航顺序列出全部分组
var Groups = []Group{GroupDaily, GroupWeekly, GroupMonthly, GroupYearly}

// GroupOf 把频率规则映射为导航分组，biweekly 归入 weekly，无法识别的归入 daily
func GroupOf(rule Rule) Group {
	switch rule.(type) {
	case Weekly, Biweekly:
		return GroupWeekly
	case Monthly:
		return GroupMonthly
	case Yearly:
		return GroupYearly
	default:
		return GroupDaily
	}
}

// ParseGroup 解析分组名，大小写不敏感
func ParseGroup(raw string) (Group, bool) {
	switch g := Group(strings.ToLower(strings.TrimSpace(raw))); g {
	case GroupDaily, GroupWeekly, GroupMonthly, GroupYearly:
		return g, true
	default:
		return "", false
	}
}

// PeriodKey 返回 date 所在记账周期的键：
//
//	daily   2024-06-10
//	weekly  2024-W24（ISO 周）
//	monthly 2024-06
//	yearly  2024
//
// 零值日期返回空字符串。
func PeriodKey(h Habit, date time.Time) string {
	return GroupPeriodKey(GroupOf(h.Rule), date)
}

// GroupPeriodKey 按分组计算周期键
func GroupPeriodKey(group Group, date time.Time) string {
	if date.IsZero() {
		return ""
	}
	switch group {
	case GroupWeekly:
		year, week := date.ISOWeek()
		return fmt.Sprintf("%04d-W%02d", year, week)
	case GroupMonthly:
		return date.Format("2006-01")
	case GroupYearly:
		return date.Format("2006")
	default:
		return DayKey(date)
	}
}

package recurrence

import (
	"strconv"
	"strings"
	"time"
)

// legacyIDDigits 旧版习惯 ID 以 13 位毫秒时间戳开头
const legacyIDDigits = 13

// ResolveAnchor 返回间隔计数的参考时间，按以下顺序取第一个可解析的值：
// AnchorDate、CreatedAt、旧版 ID 中的毫秒时间戳、Unix 纪元。
// 结果所在时区为 loc，不会失败。
func ResolveAnchor(h Habit, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.Local
	}
	if t, ok := parseAnchorValue(h.AnchorDate, loc); ok {
		return t
	}
	if t, ok := parseAnchorValue(h.CreatedAt, loc); ok {
		return t
	}
	if t, ok := legacyIDTimestamp(h.ID); ok {
		return t.In(loc)
	}
	return time.UnixMilli(0).In(loc)
}

func parseAnchorValue(raw string, loc *time.Location) (time.Time, bool) {
	value := strings.TrimSpace(raw)
	if value == "" {
		return time.Time{}, false
	}
	if isDigits(value) {
		ms, err := strconv.ParseInt(value, 10, 64)
		if err != nil {
			return time.Time{}, false
		}
		return time.UnixMilli(ms).In(loc), true
	}
	return parseInstant(value, loc)
}

// legacyIDTimestamp 兼容旧数据：ID 前 13 位为创建时的毫秒时间戳。
// 迁移完成后可以连同调用处一起删除。
func legacyIDTimestamp(id string) (time.Time, bool) {
	if len(id) < legacyIDDigits || !isDigits(id[:legacyIDDigits]) {
		return time.Time{}, false
	}
	ms, err := strconv.ParseInt(id[:legacyIDDigits], 10, 64)
	if err != nil {
		return time.Time{}, false
	}
	return time.UnixMilli(ms), true
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

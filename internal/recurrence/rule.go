package recurrence

import (
	"strings"
	"time"
)

// Frequency 是边界层使用的频率字符串，大小写不敏感
type Frequency string

const (
	FrequencyDaily    Frequency = "daily"
	FrequencyWeekly   Frequency = "weekly"
	FrequencyBiweekly Frequency = "biweekly"
	FrequencyMonthly  Frequency = "monthly"
	FrequencyYearly   Frequency = "yearly"
)

// NormalizeFrequency 去除空白并转为小写，未识别的值返回 ok=false
func NormalizeFrequency(raw string) (Frequency, bool) {
	switch f := Frequency(strings.ToLower(strings.TrimSpace(raw))); f {
	case FrequencyDaily, FrequencyWeekly, FrequencyBiweekly, FrequencyMonthly, FrequencyYearly:
		return f, true
	default:
		return f, false
	}
}

// Rule 是频率规则的联合类型，每种频率一个变体
// 变体：Daily、Weekly、Biweekly、Monthly、Yearly、Unrecognized
type Rule interface {
	Frequency() Frequency
}

// Daily 每天
type Daily struct{}

// Weekly 每周的指定星期，Days 为空表示每天
type Weekly struct {
	Days []time.Weekday
}

// Biweekly 隔周的指定星期，以锚点所在周（周一开始）为第 0 周
type Biweekly struct {
	Days []time.Weekday
}

// MonthlyMode 区分按日期（each）还是按第 N 个星期几（on）
type MonthlyMode string

const (
	MonthlyEach MonthlyMode = "each"
	MonthlyOn   MonthlyMode = "on"
)

// Monthly 每 Interval 个月
type Monthly struct {
	Interval     int
	Mode         MonthlyMode
	Dates        []int
	Combinations []Combination
}

// Yearly 每 Interval 年，可限定月份与日期
type Yearly struct {
	Interval int
	Months   []time.Month
	Dates    []int
}

// Unrecognized 保存无法识别的频率字符串，按类似 daily 的默认规则处理
type Unrecognized struct {
	Raw string
}

func (Daily) Frequency() Frequency    { return FrequencyDaily }
func (Weekly) Frequency() Frequency   { return FrequencyWeekly }
func (Biweekly) Frequency() Frequency { return FrequencyBiweekly }
func (Monthly) Frequency() Frequency  { return FrequencyMonthly }
func (Yearly) Frequency() Frequency   { return FrequencyYearly }

func (u Unrecognized) Frequency() Frequency {
	return Frequency(strings.ToLower(strings.TrimSpace(u.Raw)))
}

// MonthlySpec 为 monthly 规则的边界表示
type MonthlySpec struct {
	Interval     int      `json:"interval,omitempty" yaml:"interval,omitempty"`
	Mode         string   `json:"mode,omitempty" yaml:"mode,omitempty"`
	Dates        []int    `json:"dates,omitempty" yaml:"dates,omitempty"`
	Combinations []string `json:"combinations,omitempty" yaml:"combinations,omitempty"`
}

// RuleSpec 是频率规则在存储与 API 中的原始形态
// Days 为 0=周日..6=周六，Months 为 0..11
type RuleSpec struct {
	Frequency    string       `json:"frequency" yaml:"frequency"`
	Days         []int        `json:"days,omitempty" yaml:"days,omitempty"`
	Monthly      *MonthlySpec `json:"monthly,omitempty" yaml:"monthly,omitempty"`
	YearInterval int          `json:"yearInterval,omitempty" yaml:"yearInterval,omitempty"`
	Months       []int        `json:"months,omitempty" yaml:"months,omitempty"`
	YearlyDates  []int        `json:"yearlyDates,omitempty" yaml:"yearlyDates,omitempty"`
}

// ParseRule 将原始规则转换为联合类型。解析是宽松的：
// 越界的星期/月份会被保留为永远不匹配的值，而不是被丢弃，
// 否则非空的过滤条件会退化成"全部匹配"。
func ParseRule(spec RuleSpec) Rule {
	freq, ok := NormalizeFrequency(spec.Frequency)
	if !ok {
		return Unrecognized{Raw: spec.Frequency}
	}

	switch freq {
	case FrequencyWeekly:
		return Weekly{Days: toWeekdays(spec.Days)}
	case FrequencyBiweekly:
		return Biweekly{Days: toWeekdays(spec.Days)}
	case FrequencyMonthly:
		m := Monthly{Interval: 1, Mode: MonthlyEach}
		if spec.Monthly != nil {
			m.Interval = positiveOr(spec.Monthly.Interval, 1)
			if strings.EqualFold(strings.TrimSpace(spec.Monthly.Mode), string(MonthlyOn)) {
				m.Mode = MonthlyOn
			}
			m.Dates = append([]int(nil), spec.Monthly.Dates...)
			for _, raw := range spec.Monthly.Combinations {
				m.Combinations = append(m.Combinations, ParseCombination(raw))
			}
		}
		return m
	case FrequencyYearly:
		y := Yearly{Interval: positiveOr(spec.YearInterval, 1)}
		for _, idx := range spec.Months {
			y.Months = append(y.Months, monthFromIndex(idx))
		}
		y.Dates = append([]int(nil), spec.YearlyDates...)
		return y
	default:
		return Daily{}
	}
}

// SpecOf 是 ParseRule 的逆操作，用于把规则写回存储
func SpecOf(rule Rule) RuleSpec {
	switch r := rule.(type) {
	case Daily:
		return RuleSpec{Frequency: string(FrequencyDaily)}
	case Weekly:
		return RuleSpec{Frequency: string(FrequencyWeekly), Days: fromWeekdays(r.Days)}
	case Biweekly:
		return RuleSpec{Frequency: string(FrequencyBiweekly), Days: fromWeekdays(r.Days)}
	case Monthly:
		spec := &MonthlySpec{Interval: r.Interval, Mode: string(r.Mode), Dates: append([]int(nil), r.Dates...)}
		for _, c := range r.Combinations {
			spec.Combinations = append(spec.Combinations, c.String())
		}
		return RuleSpec{Frequency: string(FrequencyMonthly), Monthly: spec}
	case Yearly:
		spec := RuleSpec{Frequency: string(FrequencyYearly), YearInterval: r.Interval, YearlyDates: append([]int(nil), r.Dates...)}
		for _, m := range r.Months {
			spec.Months = append(spec.Months, int(m)-1)
		}
		return spec
	case Unrecognized:
		return RuleSpec{Frequency: r.Raw}
	default:
		return RuleSpec{}
	}
}

func toWeekdays(days []int) []time.Weekday {
	if len(days) == 0 {
		return nil
	}
	out := make([]time.Weekday, 0, len(days))
	for _, d := range days {
		out = append(out, time.Weekday(d))
	}
	return out
}

func fromWeekdays(days []time.Weekday) []int {
	if len(days) == 0 {
		return nil
	}
	out := make([]int, 0, len(days))
	for _, d := range days {
		out = append(out, int(d))
	}
	return out
}

// monthFromIndex 把 0..11 映射为 time.Month，越界返回 0（不会匹配任何月份）
func monthFromIndex(idx int) time.Month {
	if idx < 0 || idx > 11 {
		return 0
	}
	return time.Month(idx + 1)
}

func positiveOr(v, fallback int) int {
	if v > 0 {
		return v
	}
	return fallback
}

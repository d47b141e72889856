package db

import (
	"time"
)

// Habit 定义了习惯模型
// ID 为字符串：新建习惯使用 UUID，旧数据可能以 13 位毫秒时间戳开头
// 频率规则按 recurrence.RuleSpec 的字段平铺存储，集合字段以 JSON 序列化
// StartedAt 保存用户侧的创建时间（原样字符串），与行的 CreatedAt 区分
type Habit struct {
	ID    string `gorm:"primaryKey;size:64"`
	Name  string `gorm:"not null"`
	Notes string `gorm:"type:text"`

	Frequency           string   `gorm:"size:16;index"`
	Days                []int    `gorm:"serializer:json"`
	MonthlyInterval     int
	MonthlyMode         string   `gorm:"size:8"`
	MonthlyDates        []int    `gorm:"serializer:json"`
	MonthlyCombinations []string `gorm:"serializer:json"`
	YearInterval        int
	Months              []int `gorm:"serializer:json"`
	YearlyDates         []int `gorm:"serializer:json"`

	Target float64
	Unit   string `gorm:"size:32"`

	AnchorDate string `gorm:"size:40"`
	StartedAt  string `gorm:"size:40"`

	Paused           bool `gorm:"index"`
	ActiveOnHolidays bool

	CreatedAt time.Time
	UpdatedAt time.Time
}

// HabitCompletion 记录某个周期已完成；行存在即表示完成
// HabitID + PeriodKey 唯一，保证幂等
type HabitCompletion struct {
	ID        uint   `gorm:"primaryKey"`
	HabitID   string `gorm:"size:64;index:idx_habit_completion_unique,unique"`
	PeriodKey string `gorm:"size:16;index:idx_habit_completion_unique,unique"`
	CreatedAt time.Time
}

// HabitProgress 保存目标型习惯在某个周期内的累计值
type HabitProgress struct {
	ID        uint   `gorm:"primaryKey"`
	HabitID   string `gorm:"size:64;index:idx_habit_progress_unique,unique"`
	PeriodKey string `gorm:"size:16;index:idx_habit_progress_unique,unique"`
	Value     float64
	UpdatedAt time.Time
}

// HabitSkip 记录被主动跳过的日期，始终按天
type HabitSkip struct {
	ID        uint   `gorm:"primaryKey"`
	HabitID   string `gorm:"size:64;index:idx_habit_skip_unique,unique"`
	DayKey    string `gorm:"size:10;index:idx_habit_skip_unique,unique"`
	CreatedAt time.Time
}

// TableName 保持与唯一索引命名一致
func (HabitCompletion) TableName() string {
	return "habit_completions"
}

// TableName 保持与唯一索引命名一致
func (HabitProgress) TableName() string {
	return "habit_progress"
}

// TableName 保持与唯一索引命名一致
func (HabitSkip) TableName() string {
	return "habit_skips"
}

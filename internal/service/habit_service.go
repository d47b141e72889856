package service

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/habitlog/internal/db"
	"github.com/habitlog/internal/recurrence"
	"gorm.io/gorm"
)

var (
	// ErrHabitNotFound 在指定习惯不存在时返回
	ErrHabitNotFound = errors.New("habit not found")
	// ErrHabitInvalidRule 当频率规则配置异常时返回
	ErrHabitInvalidRule = errors.New("invalid habit recurrence rule")
	// ErrHabitExists 导入的习惯 ID 已存在时返回
	ErrHabitExists = errors.New("habit already exists")
	// ErrInvalidDate 日期无法解析时返回
	ErrInvalidDate = errors.New("invalid date")
	// ErrHabitNameRequired 习惯名称为空时返回
	ErrHabitNameRequired = errors.New("habit name is required")
)

// HabitService 负责 Habit 数据的增删改查
// 规则校验在这里严格执行，recurrence 包本身对脏数据是宽松的

type HabitService struct {
	db  *gorm.DB
	loc *time.Location
	now func() time.Time
}

// HabitFilter 描述列表过滤条件
type HabitFilter struct {
	Group  string
	Search string
	Paused *bool
}

// HabitInput 定义创建/更新习惯时可配置字段
// ID 仅在导入旧数据时填写，留空则生成 UUID
type HabitInput struct {
	ID               string
	Name             string
	Notes            string
	Rule             recurrence.RuleSpec
	Target           float64
	Unit             string
	AnchorDate       string
	StartedAt        string
	Paused           bool
	ActiveOnHolidays bool
}

// NewHabitService 构造 HabitService
func NewHabitService(gdb *gorm.DB, loc *time.Location) *HabitService {
	if loc == nil {
		loc = time.Local
	}
	return &HabitService{db: gdb, loc: loc, now: time.Now}
}

// List 返回习惯集合，支持按导航分组、关键字与暂停状态筛选
func (s *HabitService) List(filter HabitFilter) ([]db.Habit, error) {
	var habits []db.Habit

	query := s.db.Model(&db.Habit{})

	if filter.Search != "" {
		like := fmt.Sprintf("%%%s%%", strings.TrimSpace(filter.Search))
		query = query.Where("name LIKE ? OR notes LIKE ?", like, like)
	}
	if filter.Paused != nil {
		query = query.Where("paused = ?", *filter.Paused)
	}

	if err := query.Order("created_at ASC").Find(&habits).Error; err != nil {
		return nil, fmt.Errorf("list habits: %w", err)
	}

	if strings.TrimSpace(filter.Group) == "" {
		return habits, nil
	}

	group, ok := recurrence.ParseGroup(filter.Group)
	if !ok {
		return nil, fmt.Errorf("%w: unknown group %s", ErrHabitInvalidRule, filter.Group)
	}

	filtered := habits[:0]
	for _, habit := range habits {
		if recurrence.GroupOf(recurrence.ParseRule(RuleSpecOf(habit))) == group {
			filtered = append(filtered, habit)
		}
	}
	return filtered, nil
}

// Get 根据 ID 获取习惯
func (s *HabitService) Get(id string) (*db.Habit, error) {
	var habit db.Habit
	if err := s.db.First(&habit, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrHabitNotFound
		}
		return nil, fmt.Errorf("get habit: %w", err)
	}
	return &habit, nil
}

// Create 新建习惯
func (s *HabitService) Create(input HabitInput) (*db.Habit, error) {
	if err := s.validateHabitInput(input); err != nil {
		return nil, err
	}

	habit := db.Habit{ID: strings.TrimSpace(input.ID)}
	imported := habit.ID != ""
	if !imported {
		habit.ID = uuid.NewString()
	} else if _, err := s.Get(habit.ID); err == nil {
		return nil, fmt.Errorf("%w: %s", ErrHabitExists, habit.ID)
	} else if !errors.Is(err, ErrHabitNotFound) {
		return nil, err
	}

	applyHabitInput(&habit, input)
	// 导入的旧数据保持原样，锚点可能依赖 ID 中的时间戳
	if habit.StartedAt == "" && !imported {
		habit.StartedAt = s.now().In(s.loc).Format(time.RFC3339)
	}

	if err := s.db.Create(&habit).Error; err != nil {
		return nil, fmt.Errorf("create habit: %w", err)
	}
	return &habit, nil
}

// Update 更新习惯，StartedAt 留空时保留原值
func (s *HabitService) Update(id string, input HabitInput) (*db.Habit, error) {
	if err := s.validateHabitInput(input); err != nil {
		return nil, err
	}

	existing, err := s.Get(id)
	if err != nil {
		return nil, err
	}

	startedAt := existing.StartedAt
	applyHabitInput(existing, input)
	if existing.StartedAt == "" {
		existing.StartedAt = startedAt
	}

	if err := s.db.Save(existing).Error; err != nil {
		return nil, fmt.Errorf("update habit: %w", err)
	}
	return existing, nil
}

// SetPaused 暂停或恢复习惯
func (s *HabitService) SetPaused(id string, paused bool) (*db.Habit, error) {
	habit, err := s.Get(id)
	if err != nil {
		return nil, err
	}

	if err := s.db.Model(habit).Update("paused", paused).Error; err != nil {
		return nil, fmt.Errorf("pause habit: %w", err)
	}
	habit.Paused = paused
	return habit, nil
}

// Delete 删除习惯及其完成、进度与跳过记录
func (s *HabitService) Delete(id string) error {
	err := s.db.Transaction(func(tx *gorm.DB) error {
		for _, model := range []any{&db.HabitCompletion{}, &db.HabitProgress{}, &db.HabitSkip{}} {
			if err := tx.Where("habit_id = ?", id).Delete(model).Error; err != nil {
				return err
			}
		}
		return tx.Delete(&db.Habit{}, "id = ?", id).Error
	})
	if err != nil {
		return fmt.Errorf("delete habit: %w", err)
	}
	return nil
}

// Snapshot 读取习惯及其全部记录，组装为 recurrence.Habit
func (s *HabitService) Snapshot(id string) (*db.Habit, recurrence.Habit, error) {
	habit, err := s.Get(id)
	if err != nil {
		return nil, recurrence.Habit{}, err
	}

	snapshots, err := s.snapshots([]db.Habit{*habit})
	if err != nil {
		return nil, recurrence.Habit{}, err
	}
	return habit, snapshots[habit.ID], nil
}

// snapshots 批量加载记录，避免逐个习惯查询
func (s *HabitService) snapshots(habits []db.Habit) (map[string]recurrence.Habit, error) {
	out := make(map[string]recurrence.Habit, len(habits))
	if len(habits) == 0 {
		return out, nil
	}

	ids := make([]string, 0, len(habits))
	for _, habit := range habits {
		ids = append(ids, habit.ID)
		out[habit.ID] = ToRecurrence(habit)
	}

	var completions []db.HabitCompletion
	if err := s.db.Where("habit_id IN ?", ids).Find(&completions).Error; err != nil {
		return nil, fmt.Errorf("load completions: %w", err)
	}
	var progress []db.HabitProgress
	if err := s.db.Where("habit_id IN ?", ids).Find(&progress).Error; err != nil {
		return nil, fmt.Errorf("load progress: %w", err)
	}
	var skips []db.HabitSkip
	if err := s.db.Where("habit_id IN ?", ids).Find(&skips).Error; err != nil {
		return nil, fmt.Errorf("load skips: %w", err)
	}

	for _, c := range completions {
		h := out[c.HabitID]
		h.Completions[c.PeriodKey] = true
	}
	for _, p := range progress {
		h := out[p.HabitID]
		h.Progress[p.PeriodKey] = p.Value
	}
	for _, sk := range skips {
		h := out[sk.HabitID]
		h.SkippedDates[sk.DayKey] = true
	}

	return out, nil
}

// RuleSpecOf 从存储字段还原规则的原始表示
func RuleSpecOf(habit db.Habit) recurrence.RuleSpec {
	spec := recurrence.RuleSpec{
		Frequency:    habit.Frequency,
		Days:         habit.Days,
		YearInterval: habit.YearInterval,
		Months:       habit.Months,
		YearlyDates:  habit.YearlyDates,
	}
	if habit.MonthlyInterval != 0 || habit.MonthlyMode != "" || len(habit.MonthlyDates) > 0 || len(habit.MonthlyCombinations) > 0 {
		spec.Monthly = &recurrence.MonthlySpec{
			Interval:     habit.MonthlyInterval,
			Mode:         habit.MonthlyMode,
			Dates:        habit.MonthlyDates,
			Combinations: habit.MonthlyCombinations,
		}
	}
	return spec
}

// ToRecurrence 把存储模型转换为引擎快照（不含记录）
func ToRecurrence(habit db.Habit) recurrence.Habit {
	return recurrence.Habit{
		ID:               habit.ID,
		Rule:             recurrence.ParseRule(RuleSpecOf(habit)),
		Target:           habit.Target,
		AnchorDate:       habit.AnchorDate,
		CreatedAt:        habit.StartedAt,
		Paused:           habit.Paused,
		ActiveOnHolidays: habit.ActiveOnHolidays,
		Progress:         make(map[string]float64),
		SkippedDates:     make(map[string]bool),
		Completions:      make(map[string]bool),
	}
}

// applyHabitInput 先经 ParseRule/SpecOf 规整规则再写入存储字段
func applyHabitInput(habit *db.Habit, input HabitInput) {
	spec := recurrence.SpecOf(recurrence.ParseRule(input.Rule))

	habit.Name = strings.TrimSpace(input.Name)
	habit.Notes = strings.TrimSpace(input.Notes)
	habit.Frequency = spec.Frequency
	habit.Days = spec.Days
	habit.MonthlyInterval = 0
	habit.MonthlyMode = ""
	habit.MonthlyDates = nil
	habit.MonthlyCombinations = nil
	if m := spec.Monthly; m != nil {
		habit.MonthlyInterval = m.Interval
		habit.MonthlyMode = m.Mode
		habit.MonthlyDates = m.Dates
		habit.MonthlyCombinations = m.Combinations
	}
	habit.YearInterval = spec.YearInterval
	habit.Months = spec.Months
	habit.YearlyDates = spec.YearlyDates
	habit.Target = input.Target
	habit.Unit = strings.TrimSpace(input.Unit)
	habit.AnchorDate = strings.TrimSpace(input.AnchorDate)
	habit.StartedAt = strings.TrimSpace(input.StartedAt)
	habit.Paused = input.Paused
	habit.ActiveOnHolidays = input.ActiveOnHolidays
}

func (s *HabitService) validateHabitInput(input HabitInput) error {
	if strings.TrimSpace(input.Name) == "" {
		return ErrHabitNameRequired
	}

	if err := ValidateRule(input.Rule); err != nil {
		return err
	}

	if input.Target < 0 {
		return fmt.Errorf("%w: target must not be negative", ErrHabitInvalidRule)
	}

	for label, value := range map[string]string{"anchor date": input.AnchorDate, "started at": input.StartedAt} {
		if strings.TrimSpace(value) == "" {
			continue
		}
		if _, ok := recurrence.ParseDate(value, s.loc); !ok {
			return fmt.Errorf("%w: %s %q", ErrInvalidDate, label, value)
		}
	}

	return nil
}

// ValidateRule 严格校验规则，拒绝任何会被引擎静默降级的配置
func ValidateRule(spec recurrence.RuleSpec) error {
	freq, ok := recurrence.NormalizeFrequency(spec.Frequency)
	if !ok {
		return fmt.Errorf("%w: unsupported frequency %s", ErrHabitInvalidRule, spec.Frequency)
	}

	for _, d := range spec.Days {
		if d < 0 || d > 6 {
			return fmt.Errorf("%w: weekday %d out of range", ErrHabitInvalidRule, d)
		}
	}

	if m := spec.Monthly; m != nil {
		if freq != recurrence.FrequencyMonthly {
			return fmt.Errorf("%w: monthly options on %s habit", ErrHabitInvalidRule, freq)
		}
		if m.Interval < 0 {
			return fmt.Errorf("%w: monthly interval must be positive", ErrHabitInvalidRule)
		}
		switch recurrence.MonthlyMode(strings.ToLower(strings.TrimSpace(m.Mode))) {
		case "", recurrence.MonthlyEach, recurrence.MonthlyOn:
		default:
			return fmt.Errorf("%w: unsupported monthly mode %s", ErrHabitInvalidRule, m.Mode)
		}
		if err := validateMonthDays(m.Dates); err != nil {
			return err
		}
		for _, raw := range m.Combinations {
			if !recurrence.ParseCombination(raw).Valid() {
				return fmt.Errorf("%w: malformed combination %q", ErrHabitInvalidRule, raw)
			}
		}
	}

	if spec.YearInterval < 0 {
		return fmt.Errorf("%w: year interval must be positive", ErrHabitInvalidRule)
	}
	for _, m := range spec.Months {
		if m < 0 || m > 11 {
			return fmt.Errorf("%w: month %d out of range", ErrHabitInvalidRule, m)
		}
	}
	return validateMonthDays(spec.YearlyDates)
}

func validateMonthDays(days []int) error {
	for _, d := range days {
		if d < 1 || d > 31 {
			return fmt.Errorf("%w: day of month %d out of range", ErrHabitInvalidRule, d)
		}
	}
	return nil
}

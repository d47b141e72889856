package service

import (
	"errors"
	"fmt"
	"log"
	"sort"
	"time"

	"github.com/habitlog/internal/db"
	"github.com/habitlog/internal/recurrence"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	// ErrHabitCompleted 在已完成的周期内尝试跳过时返回
	ErrHabitCompleted = errors.New("habit period already completed")
	// ErrHabitNotGoal 对非目标型习惯记录进度时返回
	ErrHabitNotGoal = errors.New("habit has no numeric target")
)

// TrackerService 负责完成、跳过与进度记录的持久化
// 引擎本身不强制"完成"与"跳过"互斥，这里在写入时保证：
// 完成某天会清除当天的跳过，已完成的周期不允许跳过
type TrackerService struct {
	db     *gorm.DB
	habits *HabitService
	loc    *time.Location
}

// TrackerState 是一次读写后某个习惯在指定日期的状态
type TrackerState struct {
	HabitID   string
	Date      time.Time
	PeriodKey string
	DayKey    string
	Completed bool
	Skipped   bool
	Progress  float64
	Target    float64
	Status    recurrence.Status
}

// NewTrackerService 构造 TrackerService
func NewTrackerService(gdb *gorm.DB, habits *HabitService, loc *time.Location) *TrackerService {
	if loc == nil {
		loc = time.Local
	}
	return &TrackerService{db: gdb, habits: habits, loc: loc}
}

// ParseDate 把请求中的日期字符串规整为本地日历日，空字符串表示今天
func (s *TrackerService) ParseDate(raw string) (time.Time, error) {
	if raw == "" {
		return recurrence.StartOfDay(time.Now(), s.loc), nil
	}
	day, ok := recurrence.ParseDate(raw, s.loc)
	if !ok {
		return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidDate, raw)
	}
	return day, nil
}

// Status 返回习惯在 date 的状态
func (s *TrackerService) Status(habitID string, date time.Time) (*TrackerState, error) {
	_, snap, err := s.habits.Snapshot(habitID)
	if err != nil {
		return nil, err
	}
	return stateOf(snap, s.day(date)), nil
}

// SetCompleted 设置或清除 date 所在周期的完成标记。
// 取消完成时一并清除目标型习惯的周期进度。
func (s *TrackerService) SetCompleted(habitID string, date time.Time, value bool) (*TrackerState, error) {
	_, snap, err := s.habits.Snapshot(habitID)
	if err != nil {
		return nil, err
	}

	day := s.day(date)
	recurrence.SetCompleted(&snap, day, value)
	if err := s.persistCompletion(&snap, day, value); err != nil {
		return nil, err
	}
	return stateOf(snap, day), nil
}

// Toggle 翻转完成标记
func (s *TrackerService) Toggle(habitID string, date time.Time) (*TrackerState, error) {
	_, snap, err := s.habits.Snapshot(habitID)
	if err != nil {
		return nil, err
	}

	day := s.day(date)
	value := recurrence.ToggleCompleted(&snap, day)
	if err := s.persistCompletion(&snap, day, value); err != nil {
		return nil, err
	}
	return stateOf(snap, day), nil
}

// Skip 跳过某一天
func (s *TrackerService) Skip(habitID string, date time.Time) (*TrackerState, error) {
	_, snap, err := s.habits.Snapshot(habitID)
	if err != nil {
		return nil, err
	}

	day := s.day(date)
	if recurrence.IsCompleted(snap, day) {
		return nil, fmt.Errorf("%w: %s", ErrHabitCompleted, recurrence.PeriodKey(snap, day))
	}

	recurrence.Skip(&snap, day)
	record := db.HabitSkip{HabitID: snap.ID, DayKey: recurrence.DayKey(day)}
	if err := s.db.Clauses(clause.OnConflict{DoNothing: true}).Create(&record).Error; err != nil {
		return nil, fmt.Errorf("skip habit: %w", err)
	}
	return stateOf(snap, day), nil
}

// Unskip 取消某一天的跳过
func (s *TrackerService) Unskip(habitID string, date time.Time) (*TrackerState, error) {
	_, snap, err := s.habits.Snapshot(habitID)
	if err != nil {
		return nil, err
	}

	day := s.day(date)
	recurrence.Unskip(&snap, day)
	if err := s.db.Where("habit_id = ? AND day_key = ?", snap.ID, recurrence.DayKey(day)).
		Delete(&db.HabitSkip{}).Error; err != nil {
		return nil, fmt.Errorf("unskip habit: %w", err)
	}
	return stateOf(snap, day), nil
}

// RecordProgress 写入目标型习惯在 date 所在周期的累计值，
// 达到目标时标记完成，低于目标时取消完成
func (s *TrackerService) RecordProgress(habitID string, date time.Time, value float64) (*TrackerState, error) {
	_, snap, err := s.habits.Snapshot(habitID)
	if err != nil {
		return nil, err
	}
	if !snap.IsGoal() {
		return nil, fmt.Errorf("%w: %s", ErrHabitNotGoal, habitID)
	}
	if value < 0 {
		value = 0
	}

	day := s.day(date)
	key := recurrence.PeriodKey(snap, day)
	done := value >= snap.Target
	snap.Progress[key] = value
	recurrence.SetCompleted(&snap, day, done)

	err = s.db.Transaction(func(tx *gorm.DB) error {
		record := db.HabitProgress{HabitID: snap.ID, PeriodKey: key, Value: value}
		if err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "habit_id"}, {Name: "period_key"}},
			DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
		}).Create(&record).Error; err != nil {
			return err
		}
		return writeCompletion(tx, &snap, day, done)
	})
	if err != nil {
		return nil, fmt.Errorf("record progress: %w", err)
	}
	return stateOf(snap, day), nil
}

func (s *TrackerService) persistCompletion(snap *recurrence.Habit, day time.Time, value bool) error {
	err := s.db.Transaction(func(tx *gorm.DB) error {
		if !value && snap.IsGoal() {
			key := recurrence.PeriodKey(*snap, day)
			delete(snap.Progress, key)
			if err := tx.Where("habit_id = ? AND period_key = ?", snap.ID, key).
				Delete(&db.HabitProgress{}).Error; err != nil {
				return err
			}
		}
		return writeCompletion(tx, snap, day, value)
	})
	if err != nil {
		return fmt.Errorf("save completion: %w", err)
	}
	log.Printf("[tracker] habit=%s period=%s completed=%v", snap.ID, recurrence.PeriodKey(*snap, day), value)
	return nil
}

// writeCompletion 写入完成标记；完成时清除同一周期内的全部跳过
func writeCompletion(tx *gorm.DB, snap *recurrence.Habit, day time.Time, value bool) error {
	key := recurrence.PeriodKey(*snap, day)
	if !value {
		return tx.Where("habit_id = ? AND period_key = ?", snap.ID, key).
			Delete(&db.HabitCompletion{}).Error
	}

	record := db.HabitCompletion{HabitID: snap.ID, PeriodKey: key}
	if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&record).Error; err != nil {
		return err
	}

	stale := skippedInPeriod(*snap, key, day.Location())
	if len(stale) == 0 {
		return nil
	}
	for _, dayKey := range stale {
		delete(snap.SkippedDates, dayKey)
	}
	return tx.Where("habit_id = ? AND day_key IN ?", snap.ID, stale).Delete(&db.HabitSkip{}).Error
}

// skippedInPeriod 返回落在 periodKey 所在周期内的跳过日期
func skippedInPeriod(snap recurrence.Habit, periodKey string, loc *time.Location) []string {
	var keys []string
	for dayKey, skipped := range snap.SkippedDates {
		if !skipped {
			continue
		}
		date, ok := recurrence.ParseDate(dayKey, loc)
		if !ok || recurrence.PeriodKey(snap, date) != periodKey {
			continue
		}
		keys = append(keys, dayKey)
	}
	sort.Strings(keys)
	return keys
}

func (s *TrackerService) day(date time.Time) time.Time {
	return recurrence.StartOfDay(date, s.loc)
}

func stateOf(snap recurrence.Habit, day time.Time) *TrackerState {
	return &TrackerState{
		HabitID:   snap.ID,
		Date:      day,
		PeriodKey: recurrence.PeriodKey(snap, day),
		DayKey:    recurrence.DayKey(day),
		Completed: recurrence.IsCompleted(snap, day),
		Skipped:   recurrence.IsSkippedToday(snap, day),
		Progress:  recurrence.ProgressFor(snap, day),
		Target:    snap.Target,
		Status:    recurrence.StatusOf(snap, day),
	}
}

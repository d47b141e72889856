package service

import (
	"errors"
	"testing"
	"time"

	"github.com/habitlog/internal/db"
	"github.com/habitlog/internal/recurrence"
)

func newTrackerFixture(t *testing.T, input HabitInput) (*TrackerService, *db.Habit) {
	t.Helper()
	habits := NewHabitService(db.DB, time.UTC)
	habit, err := habits.Create(input)
	if err != nil {
		t.Fatalf("failed to create habit: %v", err)
	}
	return NewTrackerService(db.DB, habits, time.UTC), habit
}

func TestTrackerToggleIsIdempotent(t *testing.T) {
	cleanup := setupHabitTestDB(t)
	defer cleanup()

	tracker, habit := newTrackerFixture(t, HabitInput{Name: "周跑", Rule: recurrence.RuleSpec{Frequency: "weekly"}})
	date := time.Date(2024, 6, 12, 0, 0, 0, 0, time.UTC)

	first, err := tracker.Toggle(habit.ID, date)
	if err != nil {
		t.Fatalf("Toggle returned error: %v", err)
	}
	if !first.Completed || first.PeriodKey != "2024-W24" {
		t.Fatalf("unexpected state after first toggle: %+v", first)
	}

	// 同周另一天读取到相同的完成状态
	sameWeek, err := tracker.Status(habit.ID, date.AddDate(0, 0, 4))
	if err != nil {
		t.Fatalf("Status returned error: %v", err)
	}
	if sameWeek.Status != recurrence.StatusCompleted {
		t.Fatalf("expected week to be completed, got %s", sameWeek.Status)
	}

	second, err := tracker.Toggle(habit.ID, date)
	if err != nil {
		t.Fatalf("Toggle returned error: %v", err)
	}
	if second.Completed {
		t.Fatal("expected second toggle to clear completion")
	}

	var count int64
	db.DB.Model(&db.HabitCompletion{}).Where("habit_id = ?", habit.ID).Count(&count)
	if count != 0 {
		t.Fatalf("expected no completion rows, got %d", count)
	}
}

func TestTrackerSkipAndCompleteExclusivity(t *testing.T) {
	cleanup := setupHabitTestDB(t)
	defer cleanup()

	tracker, habit := newTrackerFixture(t, HabitInput{Name: "阅读", Rule: recurrence.RuleSpec{Frequency: "daily"}})
	date := time.Date(2024, 6, 12, 0, 0, 0, 0, time.UTC)

	skipped, err := tracker.Skip(habit.ID, date)
	if err != nil {
		t.Fatalf("Skip returned error: %v", err)
	}
	if skipped.Status != recurrence.StatusSkipped {
		t.Fatalf("expected skipped, got %s", skipped.Status)
	}

	// 重复跳过保持幂等
	if _, err := tracker.Skip(habit.ID, date); err != nil {
		t.Fatalf("repeated Skip returned error: %v", err)
	}

	completed, err := tracker.SetCompleted(habit.ID, date, true)
	if err != nil {
		t.Fatalf("SetCompleted returned error: %v", err)
	}
	if completed.Status != recurrence.StatusCompleted || completed.Skipped {
		t.Fatalf("expected completion to clear skip, got %+v", completed)
	}

	if _, err := tracker.Skip(habit.ID, date); !errors.Is(err, ErrHabitCompleted) {
		t.Fatalf("expected ErrHabitCompleted, got %v", err)
	}

	unskipped, err := tracker.Unskip(habit.ID, date.AddDate(0, 0, 1))
	if err != nil {
		t.Fatalf("Unskip returned error: %v", err)
	}
	if unskipped.Status != recurrence.StatusPending {
		t.Fatalf("expected pending, got %s", unskipped.Status)
	}
}

func TestTrackerCompleteClearsSkipsAcrossPeriod(t *testing.T) {
	cleanup := setupHabitTestDB(t)
	defer cleanup()

	tracker, habit := newTrackerFixture(t, HabitInput{Name: "周扫除", Rule: recurrence.RuleSpec{Frequency: "weekly"}})
	monday := time.Date(2024, 6, 10, 0, 0, 0, 0, time.UTC)
	wednesday := monday.AddDate(0, 0, 2)
	nextMonday := monday.AddDate(0, 0, 7)

	for _, day := range []time.Time{monday, nextMonday} {
		if _, err := tracker.Skip(habit.ID, day); err != nil {
			t.Fatalf("Skip(%s) returned error: %v", day.Format(recurrence.DayLayout), err)
		}
	}

	state, err := tracker.SetCompleted(habit.ID, wednesday, true)
	if err != nil {
		t.Fatalf("SetCompleted returned error: %v", err)
	}
	if state.Status != recurrence.StatusCompleted {
		t.Fatalf("expected completed on wednesday, got %s", state.Status)
	}

	mondayState, err := tracker.Status(habit.ID, monday)
	if err != nil {
		t.Fatalf("Status returned error: %v", err)
	}
	if mondayState.Skipped || mondayState.Status != recurrence.StatusCompleted {
		t.Fatalf("expected monday skip to be cleared by completing the week, got %+v", mondayState)
	}

	// 下一周的跳过不受影响
	nextState, err := tracker.Status(habit.ID, nextMonday)
	if err != nil {
		t.Fatalf("Status returned error: %v", err)
	}
	if nextState.Status != recurrence.StatusSkipped {
		t.Fatalf("expected next week skip to survive, got %s", nextState.Status)
	}

	var count int64
	db.DB.Model(&db.HabitSkip{}).Where("habit_id = ?", habit.ID).Count(&count)
	if count != 1 {
		t.Fatalf("expected one remaining skip row, got %d", count)
	}
}

func TestTrackerRecordProgress(t *testing.T) {
	cleanup := setupHabitTestDB(t)
	defer cleanup()

	tracker, habit := newTrackerFixture(t, HabitInput{
		Name:   "喝水",
		Rule:   recurrence.RuleSpec{Frequency: "monthly"},
		Target: 10,
		Unit:   "杯",
	})
	date := time.Date(2024, 6, 3, 0, 0, 0, 0, time.UTC)

	state, err := tracker.RecordProgress(habit.ID, date, 4)
	if err != nil {
		t.Fatalf("RecordProgress returned error: %v", err)
	}
	if state.Completed || state.Progress != 4 || state.PeriodKey != "2024-06" {
		t.Fatalf("unexpected state: %+v", state)
	}

	state, err = tracker.RecordProgress(habit.ID, date.AddDate(0, 0, 10), 10)
	if err != nil {
		t.Fatalf("RecordProgress returned error: %v", err)
	}
	if !state.Completed || state.Progress != 10 {
		t.Fatalf("expected target to complete the month, got %+v", state)
	}

	// 取消完成会清除该周期的进度
	state, err = tracker.SetCompleted(habit.ID, date, false)
	if err != nil {
		t.Fatalf("SetCompleted returned error: %v", err)
	}
	if state.Completed || state.Progress != 0 {
		t.Fatalf("expected progress to be cleared, got %+v", state)
	}

	var rows int64
	db.DB.Model(&db.HabitProgress{}).Where("habit_id = ?", habit.ID).Count(&rows)
	if rows != 0 {
		t.Fatalf("expected progress rows to be removed, got %d", rows)
	}
}

func TestTrackerRecordProgressRequiresGoal(t *testing.T) {
	cleanup := setupHabitTestDB(t)
	defer cleanup()

	tracker, habit := newTrackerFixture(t, HabitInput{Name: "散步", Rule: recurrence.RuleSpec{Frequency: "daily"}})
	if _, err := tracker.RecordProgress(habit.ID, time.Now(), 1); !errors.Is(err, ErrHabitNotGoal) {
		t.Fatalf("expected ErrHabitNotGoal, got %v", err)
	}
	if _, err := tracker.Toggle("missing", time.Now()); !errors.Is(err, ErrHabitNotFound) {
		t.Fatalf("expected ErrHabitNotFound, got %v", err)
	}
}

func TestTrackerParseDate(t *testing.T) {
	tracker := NewTrackerService(nil, nil, time.UTC)

	day, err := tracker.ParseDate("2024-06-10T23:30:00-02:00")
	if err != nil {
		t.Fatalf("ParseDate returned error: %v", err)
	}
	if recurrence.DayKey(day) != "2024-06-11" {
		t.Fatalf("expected timestamp to shift into UTC day, got %s", recurrence.DayKey(day))
	}

	if _, err := tracker.ParseDate("yesterday"); !errors.Is(err, ErrInvalidDate) {
		t.Fatalf("expected ErrInvalidDate, got %v", err)
	}
}

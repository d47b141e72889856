package service

import (
	"fmt"
	"time"

	"github.com/habitlog/internal/db"
	"github.com/habitlog/internal/recurrence"
)

// AgendaService 汇总某天到期的习惯，供列表页按分组展示
type AgendaService struct {
	habits   *HabitService
	holidays *HolidayService
	loc      *time.Location
}

// AgendaItem 是到期列表中的一项
type AgendaItem struct {
	Habit     db.Habit
	Group     recurrence.Group
	PeriodKey string
	Status    recurrence.Status
	Progress  float64
}

// Agenda 是某天的到期列表
type Agenda struct {
	Date    time.Time
	Holiday bool
	Items   []AgendaItem
}

// NewAgendaService 构造 AgendaService
func NewAgendaService(habits *HabitService, holidays *HolidayService, loc *time.Location) *AgendaService {
	if loc == nil {
		loc = time.Local
	}
	return &AgendaService{habits: habits, holidays: holidays, loc: loc}
}

// Due 返回 date 当天到期的习惯，group 为空时不过滤
func (s *AgendaService) Due(date time.Time, group string) (*Agenda, error) {
	habits, err := s.habits.List(HabitFilter{Group: group})
	if err != nil {
		return nil, err
	}

	snapshots, err := s.habits.snapshots(habits)
	if err != nil {
		return nil, fmt.Errorf("load agenda: %w", err)
	}

	day := recurrence.StartOfDay(date, s.loc)
	eval := recurrence.NewEvaluator(s.holidays.IsHoliday, s.loc)

	agenda := &Agenda{Date: day, Holiday: s.holidays.IsHoliday(recurrence.DayKey(day))}
	for _, habit := range habits {
		snap := snapshots[habit.ID]
		if !eval.IsDue(snap, day) {
			continue
		}
		agenda.Items = append(agenda.Items, AgendaItem{
			Habit:     habit,
			Group:     recurrence.GroupOf(snap.Rule),
			PeriodKey: recurrence.PeriodKey(snap, day),
			Status:    recurrence.StatusOf(snap, day),
			Progress:  recurrence.ProgressFor(snap, day),
		})
	}
	return agenda, nil
}

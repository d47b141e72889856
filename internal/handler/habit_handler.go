package handler

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/habitlog/internal/db"
	"github.com/habitlog/internal/recurrence"
	"github.com/habitlog/internal/service"
)

type habitPayload struct {
	ID               string              `json:"id"`
	Name             string              `json:"name"`
	Notes            string              `json:"notes"`
	Rule             recurrence.RuleSpec `json:"rule"`
	Target           float64             `json:"target"`
	Unit             string              `json:"unit"`
	AnchorDate       string              `json:"anchor_date"`
	StartedAt        string              `json:"started_at"`
	Paused           bool                `json:"paused"`
	ActiveOnHolidays bool                `json:"active_on_holidays"`
}

type habitResponse struct {
	ID               string              `json:"id"`
	Name             string              `json:"name"`
	Notes            string              `json:"notes"`
	NotesHTML        string              `json:"notes_html"`
	Rule             recurrence.RuleSpec `json:"rule"`
	Group            recurrence.Group    `json:"group"`
	GroupLabel       string              `json:"group_label"`
	Target           float64             `json:"target"`
	Unit             string              `json:"unit"`
	AnchorDate       string              `json:"anchor_date"`
	StartedAt        string              `json:"started_at"`
	Paused           bool                `json:"paused"`
	ActiveOnHolidays bool                `json:"active_on_holidays"`
	CreatedAt        string              `json:"created_at"`
	UpdatedAt        string              `json:"updated_at"`
}

type pausePayload struct {
	Paused *bool `json:"paused"`
}

func (p habitPayload) toInput() service.HabitInput {
	return service.HabitInput{
		ID:               p.ID,
		Name:             p.Name,
		Notes:            p.Notes,
		Rule:             p.Rule,
		Target:           p.Target,
		Unit:             p.Unit,
		AnchorDate:       p.AnchorDate,
		StartedAt:        p.StartedAt,
		Paused:           p.Paused,
		ActiveOnHolidays: p.ActiveOnHolidays,
	}
}

func (a *API) habitToResponse(c *gin.Context, habit db.Habit) habitResponse {
	spec := service.RuleSpecOf(habit)
	group := recurrence.GroupOf(recurrence.ParseRule(spec))
	return habitResponse{
		ID:               habit.ID,
		Name:             habit.Name,
		Notes:            habit.Notes,
		NotesHTML:        service.RenderNotes(habit.Notes),
		Rule:             spec,
		Group:            group,
		GroupLabel:       groupLabel(a.requestLocale(c).Language, group),
		Target:           habit.Target,
		Unit:             habit.Unit,
		AnchorDate:       habit.AnchorDate,
		StartedAt:        habit.StartedAt,
		Paused:           habit.Paused,
		ActiveOnHolidays: habit.ActiveOnHolidays,
		CreatedAt:        formatTimestamp(habit.CreatedAt, a.loc),
		UpdatedAt:        formatTimestamp(habit.UpdatedAt, a.loc),
	}
}

// ListHabits 返回习惯列表，支持 group / search / paused 过滤
func (a *API) ListHabits(c *gin.Context) {
	filter := service.HabitFilter{
		Group:  c.Query("group"),
		Search: strings.TrimSpace(c.Query("search")),
	}
	if raw := strings.TrimSpace(c.Query("paused")); raw != "" {
		paused, err := strconv.ParseBool(raw)
		if err != nil {
			a.fail(c, http.StatusBadRequest, "请求参数不合法")
			return
		}
		filter.Paused = &paused
	}

	habits, err := a.habits.List(filter)
	if err != nil {
		if errors.Is(err, service.ErrHabitInvalidRule) {
			a.fail(c, http.StatusBadRequest, "请求参数不合法")
			return
		}
		a.fail(c, http.StatusInternalServerError, "获取习惯列表失败")
		return
	}

	items := make([]habitResponse, 0, len(habits))
	for _, habit := range habits {
		items = append(items, a.habitToResponse(c, habit))
	}
	respondSuccess(c, http.StatusOK, gin.H{"habits": items, "total": len(items)})
}

// GetHabit 返回单个习惯
func (a *API) GetHabit(c *gin.Context) {
	habit, err := a.habits.Get(idParam(c))
	if err != nil {
		a.handleHabitError(c, err, "获取习惯列表失败")
		return
	}
	respondSuccess(c, http.StatusOK, a.habitToResponse(c, *habit))
}

// CreateHabit 新建习惯
func (a *API) CreateHabit(c *gin.Context) {
	var payload habitPayload
	if !a.bindJSON(c, &payload, "请求参数不合法") {
		return
	}

	habit, err := a.habits.Create(payload.toInput())
	if err != nil {
		a.handleHabitError(c, err, "保存习惯失败")
		return
	}
	respondSuccess(c, http.StatusCreated, a.habitToResponse(c, *habit))
}

// UpdateHabit 更新习惯
func (a *API) UpdateHabit(c *gin.Context) {
	var payload habitPayload
	if !a.bindJSON(c, &payload, "请求参数不合法") {
		return
	}

	habit, err := a.habits.Update(idParam(c), payload.toInput())
	if err != nil {
		a.handleHabitError(c, err, "保存习惯失败")
		return
	}
	respondSuccess(c, http.StatusOK, a.habitToResponse(c, *habit))
}

// PauseHabit 暂停或恢复习惯
func (a *API) PauseHabit(c *gin.Context) {
	var payload pausePayload
	if !a.bindJSON(c, &payload, "请求参数不合法") {
		return
	}
	if payload.Paused == nil {
		a.fail(c, http.StatusBadRequest, "请求参数不合法")
		return
	}

	habit, err := a.habits.SetPaused(idParam(c), *payload.Paused)
	if err != nil {
		a.handleHabitError(c, err, "保存习惯失败")
		return
	}
	respondSuccess(c, http.StatusOK, a.habitToResponse(c, *habit))
}

// DeleteHabit 删除习惯及其打卡记录
func (a *API) DeleteHabit(c *gin.Context) {
	id := idParam(c)
	if _, err := a.habits.Get(id); err != nil {
		a.handleHabitError(c, err, "删除习惯失败")
		return
	}
	if err := a.habits.Delete(id); err != nil {
		a.fail(c, http.StatusInternalServerError, "删除习惯失败")
		return
	}
	c.Status(http.StatusNoContent)
}

func (a *API) handleHabitError(c *gin.Context, err error, fallback string) {
	switch {
	case errors.Is(err, service.ErrHabitNotFound):
		a.fail(c, http.StatusNotFound, "习惯不存在")
	case errors.Is(err, service.ErrHabitInvalidRule):
		a.fail(c, http.StatusBadRequest, "频率规则无效")
	case errors.Is(err, service.ErrHabitNameRequired):
		a.fail(c, http.StatusBadRequest, "习惯名称不能为空")
	case errors.Is(err, service.ErrHabitExists):
		a.fail(c, http.StatusConflict, "习惯已存在")
	case errors.Is(err, service.ErrInvalidDate):
		a.fail(c, http.StatusBadRequest, "无效的日期")
	case errors.Is(err, service.ErrHabitCompleted):
		a.fail(c, http.StatusConflict, "该周期已完成，无法跳过")
	case errors.Is(err, service.ErrHabitNotGoal):
		a.fail(c, http.StatusBadRequest, "该习惯没有数值目标")
	default:
		a.fail(c, http.StatusInternalServerError, fallback)
	}
}

func formatTimestamp(t time.Time, loc *time.Location) string {
	if t.IsZero() {
		return ""
	}
	return t.In(loc).Format(time.RFC3339)
}

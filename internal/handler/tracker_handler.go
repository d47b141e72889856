package handler

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/habitlog/internal/recurrence"
	"github.com/habitlog/internal/service"
)

type trackerResponse struct {
	HabitID   string            `json:"habit_id"`
	Date      string            `json:"date"`
	PeriodKey string            `json:"period_key"`
	Completed bool              `json:"completed"`
	Skipped   bool              `json:"skipped"`
	Progress  float64           `json:"progress"`
	Target    float64           `json:"target"`
	Status    recurrence.Status `json:"status"`
}

type trackerPayload struct {
	Date      string `json:"date"`
	Completed *bool  `json:"completed"`
}

type progressPayload struct {
	Date  string   `json:"date"`
	Value *float64 `json:"value"`
}

func trackerToResponse(state *service.TrackerState) trackerResponse {
	return trackerResponse{
		HabitID:   state.HabitID,
		Date:      state.DayKey,
		PeriodKey: state.PeriodKey,
		Completed: state.Completed,
		Skipped:   state.Skipped,
		Progress:  state.Progress,
		Target:    state.Target,
		Status:    state.Status,
	}
}

// bindTrackerPayload 读取可选的请求体，日期可来自 body 或 query
func (a *API) bindTrackerPayload(c *gin.Context) (trackerPayload, bool) {
	var payload trackerPayload
	if c.Request.ContentLength > 0 {
		if !a.bindJSON(c, &payload, "请求参数不合法") {
			return payload, false
		}
	}
	if strings.TrimSpace(payload.Date) == "" {
		payload.Date = c.Query("date")
	}
	return payload, true
}

// HabitStatus 返回习惯在某天的状态
func (a *API) HabitStatus(c *gin.Context) {
	date, err := a.tracker.ParseDate(strings.TrimSpace(c.Query("date")))
	if err != nil {
		a.handleHabitError(c, err, "获取打卡状态失败")
		return
	}

	state, err := a.tracker.Status(idParam(c), date)
	if err != nil {
		a.handleHabitError(c, err, "获取打卡状态失败")
		return
	}
	respondSuccess(c, http.StatusOK, trackerToResponse(state))
}

// CompleteHabit 设置完成标记，completed 缺省为 true
func (a *API) CompleteHabit(c *gin.Context) {
	payload, ok := a.bindTrackerPayload(c)
	if !ok {
		return
	}
	date, err := a.tracker.ParseDate(strings.TrimSpace(payload.Date))
	if err != nil {
		a.handleHabitError(c, err, "保存打卡记录失败")
		return
	}

	completed := true
	if payload.Completed != nil {
		completed = *payload.Completed
	}

	state, err := a.tracker.SetCompleted(idParam(c), date, completed)
	if err != nil {
		a.handleHabitError(c, err, "保存打卡记录失败")
		return
	}
	respondSuccess(c, http.StatusOK, trackerToResponse(state))
}

// ToggleHabit 翻转完成标记
func (a *API) ToggleHabit(c *gin.Context) {
	a.trackerAction(c, a.tracker.Toggle)
}

// SkipHabit 跳过某一天
func (a *API) SkipHabit(c *gin.Context) {
	a.trackerAction(c, a.tracker.Skip)
}

// UnskipHabit 取消跳过
func (a *API) UnskipHabit(c *gin.Context) {
	a.trackerAction(c, a.tracker.Unskip)
}

// RecordHabitProgress 写入目标型习惯的周期累计值
func (a *API) RecordHabitProgress(c *gin.Context) {
	var payload progressPayload
	if !a.bindJSON(c, &payload, "请求参数不合法") {
		return
	}
	if payload.Value == nil {
		a.fail(c, http.StatusBadRequest, "请求参数不合法")
		return
	}
	date, err := a.tracker.ParseDate(strings.TrimSpace(payload.Date))
	if err != nil {
		a.handleHabitError(c, err, "保存打卡记录失败")
		return
	}

	state, err := a.tracker.RecordProgress(idParam(c), date, *payload.Value)
	if err != nil {
		a.handleHabitError(c, err, "保存打卡记录失败")
		return
	}
	respondSuccess(c, http.StatusOK, trackerToResponse(state))
}

func (a *API) trackerAction(c *gin.Context, action func(string, time.Time) (*service.TrackerState, error)) {
	payload, ok := a.bindTrackerPayload(c)
	if !ok {
		return
	}
	date, err := a.tracker.ParseDate(strings.TrimSpace(payload.Date))
	if err != nil {
		a.handleHabitError(c, err, "保存打卡记录失败")
		return
	}

	state, err := action(idParam(c), date)
	if err != nil {
		a.handleHabitError(c, err, "保存打卡记录失败")
		return
	}
	respondSuccess(c, http.StatusOK, trackerToResponse(state))
}

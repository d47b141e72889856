package handler

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/habitlog/internal/recurrence"
	"github.com/habitlog/internal/service"
)

type agendaItemResponse struct {
	Habit     habitResponse     `json:"habit"`
	Group     recurrence.Group  `json:"group"`
	PeriodKey string            `json:"period_key"`
	Status    recurrence.Status `json:"status"`
	Progress  float64           `json:"progress"`
}

type agendaGroupResponse struct {
	Group recurrence.Group     `json:"group"`
	Label string               `json:"label"`
	Items []agendaItemResponse `json:"items"`
}

// Agenda 返回某天到期的习惯，按每日/每周/每月/每年分组
func (a *API) Agenda(c *gin.Context) {
	date, err := a.tracker.ParseDate(strings.TrimSpace(c.Query("date")))
	if err != nil {
		a.handleHabitError(c, err, "获取到期列表失败")
		return
	}

	agenda, err := a.agenda.Due(date, strings.TrimSpace(c.Query("group")))
	if err != nil {
		if errors.Is(err, service.ErrHabitInvalidRule) {
			a.fail(c, http.StatusBadRequest, "请求参数不合法")
			return
		}
		a.fail(c, http.StatusInternalServerError, "获取到期列表失败")
		return
	}

	language := a.requestLocale(c).Language
	byGroup := make(map[recurrence.Group][]agendaItemResponse)
	for _, item := range agenda.Items {
		byGroup[item.Group] = append(byGroup[item.Group], agendaItemResponse{
			Habit:     a.habitToResponse(c, item.Habit),
			Group:     item.Group,
			PeriodKey: item.PeriodKey,
			Status:    item.Status,
			Progress:  item.Progress,
		})
	}

	groups := make([]agendaGroupResponse, 0, len(recurrence.Groups))
	for _, group := range recurrence.Groups {
		items, ok := byGroup[group]
		if !ok {
			continue
		}
		groups = append(groups, agendaGroupResponse{
			Group: group,
			Label: groupLabel(language, group),
			Items: items,
		})
	}

	respondSuccess(c, http.StatusOK, gin.H{
		"date":    recurrence.DayKey(agenda.Date),
		"holiday": agenda.Holiday,
		"groups":  groups,
		"total":   len(agenda.Items),
	})
}

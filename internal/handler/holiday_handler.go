package handler

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/habitlog/internal/db"
	"github.com/habitlog/internal/service"
)

type holidayPayload struct {
	Date string `json:"date"`
	Name string `json:"name"`
}

type holidayResponse struct {
	Date string `json:"date"`
	Name string `json:"name"`
}

func holidayToResponse(holiday db.Holiday) holidayResponse {
	return holidayResponse{Date: holiday.DateKey, Name: holiday.Name}
}

// ListHolidays 返回节假日日历，可按 year 过滤
func (a *API) ListHolidays(c *gin.Context) {
	holidays, err := a.holidays.List(c.Query("year"))
	if err != nil {
		a.fail(c, http.StatusInternalServerError, "获取节假日失败")
		return
	}

	items := make([]holidayResponse, 0, len(holidays))
	for _, holiday := range holidays {
		items = append(items, holidayToResponse(holiday))
	}
	respondSuccess(c, http.StatusOK, gin.H{"holidays": items, "total": len(items)})
}

// UpsertHoliday 新增或更新节假日
func (a *API) UpsertHoliday(c *gin.Context) {
	var payload holidayPayload
	if !a.bindJSON(c, &payload, "请求参数不合法") {
		return
	}

	holiday, err := a.holidays.Upsert(strings.TrimSpace(payload.Date), payload.Name)
	if err != nil {
		a.handleHolidayError(c, err, "保存节假日失败")
		return
	}
	respondSuccess(c, http.StatusOK, holidayToResponse(*holiday))
}

// ImportHolidays 以 YAML 请求体批量导入节假日
func (a *API) ImportHolidays(c *gin.Context) {
	count, err := a.holidays.ImportYAML(c.Request.Body)
	if err != nil {
		a.handleHolidayError(c, err, "保存节假日失败")
		return
	}
	respondSuccess(c, http.StatusOK, gin.H{"imported": count})
}

// DeleteHoliday 删除某天的节假日
func (a *API) DeleteHoliday(c *gin.Context) {
	if err := a.holidays.Delete(strings.TrimSpace(c.Param("date"))); err != nil {
		a.handleHolidayError(c, err, "保存节假日失败")
		return
	}
	c.Status(http.StatusNoContent)
}

func (a *API) handleHolidayError(c *gin.Context, err error, fallback string) {
	if errors.Is(err, service.ErrHolidayInvalid) {
		a.fail(c, http.StatusBadRequest, "无效的节假日")
		return
	}
	a.fail(c, http.StatusInternalServerError, fallback)
}

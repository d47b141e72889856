package handler

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/habitlog/internal/service"
	"gorm.io/gorm"
)

// API bundles shared dependencies for HTTP handlers.
type API struct {
	loc      *time.Location
	habits   *service.HabitService
	holidays *service.HolidayService
	tracker  *service.TrackerService
	agenda   *service.AgendaService
}

// NewAPI constructs a handler set with shared services.
func NewAPI(db *gorm.DB, loc *time.Location) *API {
	if loc == nil {
		loc = time.Local
	}
	habits := service.NewHabitService(db, loc)
	holidays := service.NewHolidayService(db, loc)

	return &API{
		loc:      loc,
		habits:   habits,
		holidays: holidays,
		tracker:  service.NewTrackerService(db, habits, loc),
		agenda:   service.NewAgendaService(habits, holidays, loc),
	}
}

// fail 以请求语言返回错误信息，message 使用中文原文
func (a *API) fail(c *gin.Context, status int, message string) {
	respondError(c, status, localizeMessage(a.requestLocale(c).Language, message))
}

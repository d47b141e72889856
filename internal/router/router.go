package router

import (
	"net/http"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/habitlog/internal/handler"
)

const sessionName = "habitlog_session"

// SetupRouter 配置 Gin 引擎和路由
func SetupRouter(api *handler.API, sessionSecret string) *gin.Engine {
	r := gin.New()
	r.Use(gin.Logger(), gin.Recovery())

	// 配置会话中间件
	store := cookie.NewStore([]byte(sessionSecret))
	store.Options(sessions.Options{
		Path:     "/",
		MaxAge:   7 * 24 * 60 * 60,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	r.Use(sessions.Sessions(sessionName, store))
	r.Use(api.LocaleMiddleware())

	r.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"message": "pong",
		})
	})

	// 后台管理路由
	admin := r.Group("/admin")
	{
		admin.POST("/login", api.Login)
		admin.POST("/logout", api.Logout)

		// 需要认证的 API 路由
		auth := admin.Group("/api")
		auth.Use(api.AuthRequired())
		{
			auth.GET("/habits", api.ListHabits)
			auth.POST("/habits", api.CreateHabit)
			auth.GET("/habits/:id", api.GetHabit)
			auth.PUT("/habits/:id", api.UpdateHabit)
			auth.DELETE("/habits/:id", api.DeleteHabit)
			auth.POST("/habits/:id/pause", api.PauseHabit)

			auth.GET("/habits/:id/status", api.HabitStatus)
			auth.POST("/habits/:id/complete", api.CompleteHabit)
			auth.POST("/habits/:id/toggle", api.ToggleHabit)
			auth.POST("/habits/:id/skip", api.SkipHabit)
			auth.DELETE("/habits/:id/skip", api.UnskipHabit)
			auth.POST("/habits/:id/progress", api.RecordHabitProgress)

			auth.GET("/agenda", api.Agenda)

			auth.GET("/holidays", api.ListHolidays)
			auth.PUT("/holidays", api.UpsertHoliday)
			auth.POST("/holidays/import", api.ImportHolidays)
			auth.DELETE("/holidays/:date", api.DeleteHoliday)
		}
	}

	return r
}

package handler

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/habitlog/internal/db"
	"github.com/habitlog/internal/recurrence"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupHandlerTestDB(t *testing.T) (*gorm.DB, func()) {
	t.Helper()

	dsn := fmt.Sprintf("file:handler-%d?mode=memory&cache=shared", time.Now().UnixNano())
	gdb, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	if err != nil {
		t.Fatalf("failed to open test db: %v", err)
	}

	if err := gdb.AutoMigrate(db.Models...); err != nil {
		t.Fatalf("failed to migrate test db: %v", err)
	}

	return gdb, func() {
		sqlDB, err := gdb.DB()
		if err == nil {
			sqlDB.Close()
		}
	}
}

func newTestRouter(t *testing.T) (*gin.Engine, *gorm.DB) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	gdb, cleanup := setupHandlerTestDB(t)
	t.Cleanup(cleanup)

	api := NewAPI(gdb, time.UTC)
	router := gin.New()
	router.Use(api.LocaleMiddleware())
	router.GET("/habits", api.ListHabits)
	router.POST("/habits", api.CreateHabit)
	router.GET("/habits/:id", api.GetHabit)
	router.PUT("/habits/:id", api.UpdateHabit)
	router.POST("/habits/:id/pause", api.PauseHabit)
	router.GET("/habits/:id/status", api.HabitStatus)
	router.POST("/habits/:id/toggle", api.ToggleHabit)
	router.POST("/habits/:id/skip", api.SkipHabit)
	router.DELETE("/habits/:id/skip", api.UnskipHabit)
	router.POST("/habits/:id/progress", api.RecordHabitProgress)
	router.GET("/agenda", api.Agenda)
	router.GET("/holidays", api.ListHolidays)
	router.POST("/holidays/import", api.ImportHolidays)
	return router, gdb
}

func serve(router http.Handler, method, target, body string, headers map[string]string) *httptest.ResponseRecorder {
	var request *http.Request
	if body == "" {
		request = httptest.NewRequest(method, target, nil)
	} else {
		request = httptest.NewRequest(method, target, strings.NewReader(body))
		request.Header.Set("Content-Type", "application/json")
	}
	for key, value := range headers {
		request.Header.Set(key, value)
	}
	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, request)
	return recorder
}

func decodeBody(t *testing.T, recorder *httptest.ResponseRecorder, dst any) {
	t.Helper()
	if err := json.Unmarshal(recorder.Body.Bytes(), dst); err != nil {
		t.Fatalf("failed to decode %q: %v", recorder.Body.String(), err)
	}
}

func createHabit(t *testing.T, router http.Handler, body string) habitResponse {
	t.Helper()
	recorder := serve(router, http.MethodPost, "/habits", body, nil)
	if recorder.Code != http.StatusCreated {
		t.Fatalf("create failed: %d %s", recorder.Code, recorder.Body.String())
	}
	var created habitResponse
	decodeBody(t, recorder, &created)
	return created
}

func TestCreateHabitRejectsInvalidInput(t *testing.T) {
	router, _ := newTestRouter(t)

	tests := []struct {
		name    string
		body    string
		headers map[string]string
		status  int
		message string
	}{
		{
			name:    "missing name",
			body:    `{"rule":{"frequency":"daily"}}`,
			status:  http.StatusBadRequest,
			message: "习惯名称不能为空",
		},
		{
			name:    "unknown frequency in english",
			body:    `{"name":"Read","rule":{"frequency":"hourly"}}`,
			headers: map[string]string{"Accept-Language": "en-US"},
			status:  http.StatusBadRequest,
			message: "Invalid recurrence rule",
		},
		{
			name:    "malformed json",
			body:    `{"name":`,
			status:  http.StatusBadRequest,
			message: "请求参数不合法",
		},
		{
			name:    "bad anchor date",
			body:    `{"name":"Read","rule":{"frequency":"daily"},"anchor_date":"yesterday"}`,
			status:  http.StatusBadRequest,
			message: "无效的日期",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			recorder := serve(router, http.MethodPost, "/habits", tt.body, tt.headers)
			if recorder.Code != tt.status {
				t.Fatalf("expected status %d, got %d (%s)", tt.status, recorder.Code, recorder.Body.String())
			}
			var payload map[string]string
			decodeBody(t, recorder, &payload)
			if payload["error"] != tt.message {
				t.Fatalf("expected error %q, got %q", tt.message, payload["error"])
			}
		})
	}
}

func TestHabitResponseIncludesGroupAndNotes(t *testing.T) {
	router, _ := newTestRouter(t)

	created := createHabit(t, router, `{"name":"Review","notes":"**weekly** review","rule":{"frequency":"biweekly","days":[5]}}`)
	if created.Group != recurrence.GroupWeekly {
		t.Fatalf("expected biweekly habit in weekly group, got %q", created.Group)
	}
	if created.GroupLabel != "每周" {
		t.Fatalf("expected chinese group label, got %q", created.GroupLabel)
	}
	if !strings.Contains(created.NotesHTML, "<strong>weekly</strong>") {
		t.Fatalf("expected rendered notes, got %q", created.NotesHTML)
	}
	if created.StartedAt == "" {
		t.Fatal("expected started_at to be filled for new habits")
	}

	recorder := serve(router, http.MethodGet, "/habits/"+created.ID+"?lang=en", "", nil)
	var fetched habitResponse
	decodeBody(t, recorder, &fetched)
	if fetched.GroupLabel != "Weekly" {
		t.Fatalf("expected english group label, got %q", fetched.GroupLabel)
	}
	if !strings.Contains(recorder.Header().Get("Set-Cookie"), languageCookieName+"=en") {
		t.Fatalf("expected language override to be persisted, got %q", recorder.Header().Get("Set-Cookie"))
	}
}

func TestListHabitsFilters(t *testing.T) {
	router, _ := newTestRouter(t)

	createHabit(t, router, `{"name":"Stretch","rule":{"frequency":"daily"}}`)
	monthly := createHabit(t, router, `{"name":"Budget","rule":{"frequency":"monthly","monthly":{"mode":"each","dates":[1]}}}`)

	if recorder := serve(router, http.MethodPost, "/habits/"+monthly.ID+"/pause", `{"paused":true}`, nil); recorder.Code != http.StatusOK {
		t.Fatalf("pause failed: %d %s", recorder.Code, recorder.Body.String())
	}

	var listed struct {
		Habits []habitResponse `json:"habits"`
		Total  int             `json:"total"`
	}
	decodeBody(t, serve(router, http.MethodGet, "/habits?group=monthly", "", nil), &listed)
	if listed.Total != 1 || listed.Habits[0].ID != monthly.ID || !listed.Habits[0].Paused {
		t.Fatalf("unexpected monthly list %+v", listed)
	}

	decodeBody(t, serve(router, http.MethodGet, "/habits?paused=false", "", nil), &listed)
	if listed.Total != 1 || listed.Habits[0].Name != "Stretch" {
		t.Fatalf("unexpected active list %+v", listed)
	}

	if recorder := serve(router, http.MethodGet, "/habits?group=hourly", "", nil); recorder.Code != http.StatusBadRequest {
		t.Fatalf("expected unknown group to be rejected, got %d", recorder.Code)
	}
	if recorder := serve(router, http.MethodPost, "/habits/"+monthly.ID+"/pause", `{}`, nil); recorder.Code != http.StatusBadRequest {
		t.Fatalf("expected pause without flag to be rejected, got %d", recorder.Code)
	}
}

func TestTrackerEndpoints(t *testing.T) {
	router, _ := newTestRouter(t)

	habit := createHabit(t, router, `{"name":"Water","rule":{"frequency":"daily"},"target":8,"unit":"cups"}`)

	recorder := serve(router, http.MethodPost, "/habits/"+habit.ID+"/progress", `{"date":"2024-07-01","value":8}`, nil)
	if recorder.Code != http.StatusOK {
		t.Fatalf("progress failed: %d %s", recorder.Code, recorder.Body.String())
	}
	var state trackerResponse
	decodeBody(t, recorder, &state)
	if !state.Completed || state.Progress != 8 || state.PeriodKey != "2024-07-01" {
		t.Fatalf("unexpected state after reaching target %+v", state)
	}

	recorder = serve(router, http.MethodPost, "/habits/"+habit.ID+"/skip", `{"date":"2024-07-01"}`, nil)
	if recorder.Code != http.StatusConflict {
		t.Fatalf("expected skip of completed day to conflict, got %d", recorder.Code)
	}

	recorder = serve(router, http.MethodPost, "/habits/"+habit.ID+"/toggle?date=2024-07-01", "", nil)
	decodeBody(t, recorder, &state)
	if state.Completed || state.Progress != 0 {
		t.Fatalf("expected toggle to clear completion and progress, got %+v", state)
	}

	recorder = serve(router, http.MethodPost, "/habits/"+habit.ID+"/skip", `{"date":"2024-07-01"}`, nil)
	decodeBody(t, recorder, &state)
	if state.Status != recurrence.StatusSkipped {
		t.Fatalf("expected skipped status, got %+v", state)
	}

	recorder = serve(router, http.MethodDelete, "/habits/"+habit.ID+"/skip?date=2024-07-01", "", nil)
	decodeBody(t, recorder, &state)
	if state.Status != recurrence.StatusPending {
		t.Fatalf("expected pending after unskip, got %+v", state)
	}

	if recorder := serve(router, http.MethodGet, "/habits/"+habit.ID+"/status?date=2024-13-40", "", nil); recorder.Code != http.StatusBadRequest {
		t.Fatalf("expected invalid date to be rejected, got %d", recorder.Code)
	}
	if recorder := serve(router, http.MethodGet, "/habits/missing/status", "", nil); recorder.Code != http.StatusNotFound {
		t.Fatalf("expected missing habit to 404, got %d", recorder.Code)
	}
	if recorder := serve(router, http.MethodPost, "/habits/"+habit.ID+"/progress", `{"date":"2024-07-01"}`, nil); recorder.Code != http.StatusBadRequest {
		t.Fatalf("expected progress without value to be rejected, got %d", recorder.Code)
	}
}

func TestHabitStatusReadFailureMessage(t *testing.T) {
	router, gdb := newTestRouter(t)

	habit := createHabit(t, router, `{"name":"Stretch","rule":{"frequency":"daily"}}`)
	sqlDB, err := gdb.DB()
	if err != nil {
		t.Fatalf("failed to get sql db: %v", err)
	}
	sqlDB.Close()

	recorder := serve(router, http.MethodGet, "/habits/"+habit.ID+"/status?date=2024-07-01", "", nil)
	if recorder.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", recorder.Code)
	}
	var payload map[string]string
	decodeBody(t, recorder, &payload)
	if payload["error"] != "获取打卡状态失败" {
		t.Fatalf("unexpected error %q", payload["error"])
	}
}

func TestRecordProgressRequiresGoal(t *testing.T) {
	router, _ := newTestRouter(t)

	habit := createHabit(t, router, `{"name":"Stretch","rule":{"frequency":"daily"}}`)
	recorder := serve(router, http.MethodPost, "/habits/"+habit.ID+"/progress", `{"value":3}`, map[string]string{"Accept-Language": "en"})
	if recorder.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", recorder.Code)
	}
	if !strings.Contains(recorder.Body.String(), "Habit has no numeric target") {
		t.Fatalf("unexpected body %s", recorder.Body.String())
	}
}

func TestAgendaGroupsAndHolidayImport(t *testing.T) {
	router, _ := newTestRouter(t)

	createHabit(t, router, `{"name":"Stretch","rule":{"frequency":"daily"}}`)
	createHabit(t, router, `{"name":"Clean","rule":{"frequency":"weekly","days":[1]},"active_on_holidays":true}`)
	createHabit(t, router, `{"name":"Budget","rule":{"frequency":"monthly","monthly":{"mode":"each","dates":[1]}}}`)

	request := httptest.NewRequest(http.MethodPost, "/holidays/import", strings.NewReader("holidays:\n  - date: 2024-07-01\n    name: Test Day\n"))
	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, request)
	if recorder.Code != http.StatusOK || !strings.Contains(recorder.Body.String(), `"imported":1`) {
		t.Fatalf("import failed: %d %s", recorder.Code, recorder.Body.String())
	}

	var agenda struct {
		Date    string                `json:"date"`
		Holiday bool                  `json:"holiday"`
		Groups  []agendaGroupResponse `json:"groups"`
		Total   int                   `json:"total"`
	}
	decodeBody(t, serve(router, http.MethodGet, "/agenda?date=2024-07-01", "", nil), &agenda)
	if !agenda.Holiday || agenda.Total != 2 {
		t.Fatalf("unexpected agenda %+v", agenda)
	}
	if len(agenda.Groups) != 2 || agenda.Groups[0].Group != recurrence.GroupWeekly || agenda.Groups[1].Group != recurrence.GroupMonthly {
		t.Fatalf("unexpected groups %+v", agenda.Groups)
	}

	decodeBody(t, serve(router, http.MethodGet, "/agenda?date=2024-07-01&group=weekly", "", nil), &agenda)
	if agenda.Total != 1 || agenda.Groups[0].Items[0].Habit.Name != "Clean" {
		t.Fatalf("unexpected filtered agenda %+v", agenda)
	}

	request = httptest.NewRequest(http.MethodPost, "/holidays/import", strings.NewReader("holidays:\n  - date: nope\n"))
	recorder = httptest.NewRecorder()
	router.ServeHTTP(recorder, request)
	if recorder.Code != http.StatusBadRequest {
		t.Fatalf("expected invalid import to be rejected, got %d", recorder.Code)
	}

	var holidays struct {
		Total int `json:"total"`
	}
	decodeBody(t, serve(router, http.MethodGet, "/holidays?year=2024", "", nil), &holidays)
	if holidays.Total != 1 {
		t.Fatalf("expected failed import to roll back, got %d holidays", holidays.Total)
	}
}

func TestAuthRequired(t *testing.T) {
	gin.SetMode(gin.TestMode)

	gdb, cleanup := setupHandlerTestDB(t)
	t.Cleanup(cleanup)
	api := NewAPI(gdb, time.UTC)

	router := gin.New()
	router.Use(sessions.Sessions("habitlog_session", cookie.NewStore([]byte("test-secret"))))
	router.GET("/private", api.AuthRequired(), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	recorder := serve(router, http.MethodGet, "/private", "", nil)
	if recorder.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", recorder.Code)
	}
	if !strings.Contains(recorder.Body.String(), "请先登录") {
		t.Fatalf("unexpected body %s", recorder.Body.String())
	}
}

func TestLocalizeMessage(t *testing.T) {
	tests := []struct {
		language string
		input    string
		want     string
	}{
		{language: "en", input: "习惯不存在", want: "Habit not found"},
		{language: "zh", input: "习惯不存在", want: "习惯不存在"},
		{language: "en", input: "获取打卡状态失败", want: "Failed to load record status"},
		{language: "en", input: "自定义", want: "自定义"},
		{language: "en", input: "", want: ""},
	}

	for _, tt := range tests {
		if got := localizeMessage(tt.language, tt.input); got != tt.want {
			t.Fatalf("localizeMessage(%q, %q) = %q, want %q", tt.language, tt.input, got, tt.want)
		}
	}
}

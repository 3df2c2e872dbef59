package kernel_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/webdiner/webdiner/app/controllers"
	"github.com/webdiner/webdiner/app/models"
	"github.com/webdiner/webdiner/app/services"
	"github.com/webdiner/webdiner/config"
	_ "github.com/webdiner/webdiner/database/migrations"
	"github.com/webdiner/webdiner/database/seeders"
	"github.com/webdiner/webdiner/internal/kernel"
	"github.com/webdiner/webdiner/pkg/database"
	"github.com/webdiner/webdiner/pkg/events"
	"github.com/webdiner/webdiner/pkg/migration"
	"github.com/webdiner/webdiner/pkg/notification"
	"github.com/webdiner/webdiner/pkg/storage"
)

// 2026-10-19 is a Monday; the clock sits before the cutoff.
var (
	monday  = models.NewDate(2026, time.October, 19)
	tuesday = monday.AddDays(1)
)

type app struct {
	db      *gorm.DB
	h       http.Handler
	events  *events.Recorder
	notices *notification.Recorder
}

func newApp(t *testing.T) *app {
	t.Helper()
	config.Set("RATE_LIMIT_PER_MINUTE", "6000")

	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	db, err := database.Open("sqlite", fmt.Sprintf("file:kernel_%s?mode=memory&cache=shared", name))
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	_, err = migration.New(db, io.Discard).Run()
	require.NoError(t, err)
	_, err = seeders.RunAll(db)
	require.NoError(t, err)

	disk, err := storage.NewLocal(t.TempDir(), "http://files.test")
	require.NoError(t, err)

	taipei := time.FixedZone("Asia/Taipei", 8*3600)
	a := &app{db: db, events: &events.Recorder{}, notices: &notification.Recorder{}}
	s := kernel.NewServices(kernel.Deps{
		DB:     db,
		Events: a.events,
		Notify: notification.Set{Direct: []notification.Notifier{a.notices}},
		Disk:   disk,
		Clock: services.ClockFunc(func() time.Time {
			return time.Date(2026, time.October, 19, 8, 0, 0, 0, taipei)
		}),
	})
	a.h = kernel.NewRouter(s).Handler()
	return a
}

// call sends body as JSON and decodes the envelope.
func (a *app) call(t *testing.T, method, path, token string, body any) (int, map[string]any) {
	t.Helper()
	var rd io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		rd = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, rd)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	a.h.ServeHTTP(rec, req)

	var env map[string]any
	if rec.Body.Len() > 0 && strings.HasPrefix(rec.Header().Get("Content-Type"), "application/json") {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env), rec.Body.String())
	}
	return rec.Code, env
}

func (a *app) login(t *testing.T, code string) string {
	t.Helper()
	status, env := a.call(t, http.MethodPost, "/api/auth/login", "", map[string]string{
		"employee_id": code, "password": "password",
	})
	require.Equal(t, http.StatusOK, status, env)
	data := env["data"].(map[string]any)
	return data["access_token"].(string)
}

func (a *app) item(t *testing.T, name string) models.MenuItem {
	t.Helper()
	var m models.MenuItem
	require.NoError(t, a.db.Where("name = ?", name).Take(&m).Error)
	return m
}

func kindOf(env map[string]any) string {
	errs, _ := env["errors"].(map[string]any)
	kind, _ := errs["kind"].(string)
	return kind
}

func TestRouteTable(t *testing.T) {
	infos := kernel.NewRouter(&controllers.Services{}).Routes()

	got := map[string]bool{}
	for _, ri := range infos {
		got[ri.Method+" "+ri.Path] = true
	}
	for _, want := range []string{
		"POST /api/auth/login",
		"GET /api/menu",
		"POST /api/orders",
		"POST /api/orders/batch",
		"DELETE /api/orders/{id}",
		"GET /api/admin/reports/{date}",
		"GET /api/admin/reports/{date}/roster",
		"POST /api/admin/orders/override",
		"POST /api/admin/users/{id}/password",
		"ANY /api/admin/graphql",
		"ANY /metrics",
	} {
		assert.True(t, got[want], want)
	}
}

func TestLogin(t *testing.T) {
	a := newApp(t)

	status, env := a.call(t, http.MethodPost, "/api/auth/login", "", map[string]string{
		"employee_id": "E0001", "password": "wrong",
	})
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, "InvalidCredentials", kindOf(env))

	status, env = a.call(t, http.MethodPost, "/api/auth/login", "", map[string]string{"employee_id": "E0001"})
	assert.Equal(t, http.StatusUnprocessableEntity, status)
	assert.Contains(t, env["errors"], "password")

	token := a.login(t, "E0001")
	status, env = a.call(t, http.MethodGet, "/api/auth/me", token, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "E0001", env["data"].(map[string]any)["employee_id"])

	status, _ = a.call(t, http.MethodGet, "/api/auth/me", "", nil)
	assert.Equal(t, http.StatusUnauthorized, status)
}

func TestOrderFlow(t *testing.T) {
	a := newApp(t)
	token := a.login(t, "E0001")
	bento := a.item(t, "Chicken Leg Bento")
	udon := a.item(t, "Curry Udon")

	t.Run("menu for tuesday hides the wednesday special", func(t *testing.T) {
		status, env := a.call(t, http.MethodGet, "/api/menu?date="+tuesday.String(), token, nil)
		require.Equal(t, http.StatusOK, status)
		body, _ := json.Marshal(env["data"])
		assert.Contains(t, string(body), "Beef Noodle Soup")
		assert.NotContains(t, string(body), "Curry Udon")
	})

	intent := map[string]any{"order_date": tuesday.String(), "vendor_id": bento.VendorID, "vendor_menu_item_id": bento.ID}

	status, env := a.call(t, http.MethodPost, "/api/orders", token, intent)
	require.Equal(t, http.StatusCreated, status, env)
	orderID := env["data"].(map[string]any)["id"]

	status, env = a.call(t, http.MethodPost, "/api/orders", token, intent)
	assert.Equal(t, http.StatusConflict, status)
	assert.Equal(t, "DuplicateOrder", kindOf(env))

	status, env = a.call(t, http.MethodPost, "/api/orders", token, map[string]any{
		"order_date": monday.AddDays(3).String(), "vendor_id": udon.VendorID, "vendor_menu_item_id": udon.ID,
	})
	assert.Equal(t, http.StatusUnprocessableEntity, status)
	assert.Equal(t, "WeekdayUnavailable", kindOf(env))

	status, env = a.call(t, http.MethodPost, "/api/orders", token, map[string]any{"order_date": "2026-10-24"})
	assert.Equal(t, http.StatusUnprocessableEntity, status)
	assert.Equal(t, "DateBlocked", kindOf(env))

	status, env = a.call(t, http.MethodPost, "/api/orders/batch", token, map[string]any{"orders": []map[string]any{
		{"order_date": monday.AddDays(2).String(), "vendor_id": udon.VendorID, "vendor_menu_item_id": udon.ID},
		{"order_date": tuesday.String(), "is_no_order": true},
		{"order_date": monday.AddDays(3).String(), "is_no_order": true},
	}})
	require.Equal(t, http.StatusCreated, status, env)
	data := env["data"].(map[string]any)
	assert.Len(t, data["orders"], 2)
	outcomes := data["outcomes"].([]any)
	require.Len(t, outcomes, 3)
	assert.Equal(t, "DuplicateOrder", outcomes[1].(map[string]any)["kind"])

	status, env = a.call(t, http.MethodGet, "/api/orders", token, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Len(t, env["data"], 3)

	status, _ = a.call(t, http.MethodDelete, fmt.Sprintf("/api/orders/%v", orderID), token, nil)
	assert.Equal(t, http.StatusNoContent, status)
	status, _ = a.call(t, http.MethodDelete, fmt.Sprintf("/api/orders/%v", orderID), token, nil)
	assert.Equal(t, http.StatusNotFound, status)

	assert.Equal(t, []events.Type{
		events.OrderCreated, events.OrderCreated, events.OrderCreated, events.OrderCancelled,
	}, a.events.Types())
}

func TestAdminRoutes(t *testing.T) {
	a := newApp(t)
	employee := a.login(t, "E0001")
	admin := a.login(t, "A0001")
	bento := a.item(t, "Chicken Leg Bento")

	status, _ := a.call(t, http.MethodGet, "/api/admin/reports/"+tuesday.String(), employee, nil)
	assert.Equal(t, http.StatusForbidden, status)

	var e2 models.User
	require.NoError(t, a.db.Where("employee_code = ?", "E0002").Take(&e2).Error)

	status, env := a.call(t, http.MethodPost, "/api/admin/orders/override", admin, map[string]any{
		"user_id": e2.ID, "order_date": tuesday.String(), "vendor_id": bento.VendorID, "vendor_menu_item_id": bento.ID,
	})
	require.Equal(t, http.StatusOK, status, env)
	assert.Equal(t, "Confirmed", env["data"].(map[string]any)["status"])

	status, env = a.call(t, http.MethodGet, "/api/admin/reports/"+tuesday.String(), admin, nil)
	require.Equal(t, http.StatusOK, status)
	report := env["data"].(map[string]any)
	assert.EqualValues(t, 1, report["total_orders"])

	status, env = a.call(t, http.MethodGet, "/api/admin/reports/"+tuesday.String()+"/missing", admin, nil)
	require.Equal(t, http.StatusOK, status)
	// root, A0001 and seven employees
	assert.Len(t, env["data"], 9)

	status, env = a.call(t, http.MethodPost, "/api/admin/reminders/"+tuesday.String(), admin, nil)
	require.Equal(t, http.StatusOK, status)
	assert.EqualValues(t, 9, env["data"].(map[string]any)["sent"])

	status, env = a.call(t, http.MethodPost, "/api/admin/reports/"+tuesday.String()+"/export", admin, nil)
	require.Equal(t, http.StatusCreated, status, env)
	assert.Len(t, env["data"].(map[string]any)["files"], 2)

	status, env = a.call(t, http.MethodGet, "/api/admin/reports/not-a-date", admin, nil)
	assert.Equal(t, http.StatusUnprocessableEntity, status)
	assert.Contains(t, env["errors"], "date")

	status, _ = a.call(t, http.MethodPost, "/api/admin/special-days", admin, map[string]any{
		"date": "2026-10-24", "is_holiday": false, "description": "make-up workday",
	})
	require.Equal(t, http.StatusOK, status)
	status, env = a.call(t, http.MethodPost, "/api/orders", employee, map[string]any{"order_date": "2026-10-24", "is_no_order": true})
	assert.Equal(t, http.StatusCreated, status, env)
}

func TestRosterCSV(t *testing.T) {
	a := newApp(t)
	admin := a.login(t, "A0001")

	req := httptest.NewRequest(http.MethodGet, "/api/admin/reports/"+tuesday.String()+"/roster?format=csv", nil)
	req.Header.Set("Authorization", "Bearer "+admin)
	rec := httptest.NewRecorder()
	a.h.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/csv")
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "roster-2026-10-20.csv")
	assert.Contains(t, rec.Body.String(), "E0001")
}

func TestGraphQLReport(t *testing.T) {
	a := newApp(t)
	employee := a.login(t, "E0001")
	admin := a.login(t, "A0001")
	bento := a.item(t, "Chicken Leg Bento")

	status, env := a.call(t, http.MethodPost, "/api/orders", employee, map[string]any{
		"order_date": tuesday.String(), "vendor_id": bento.VendorID, "vendor_menu_item_id": bento.ID,
	})
	require.Equal(t, http.StatusCreated, status, env)

	query := map[string]any{"query": `{ report(date: "2026-10-20") { total_orders vendors { name items { name count } } } }`}
	status, env = a.call(t, http.MethodPost, "/api/admin/graphql", admin, query)
	require.Equal(t, http.StatusOK, status)
	require.Nil(t, env["errors"])
	report := env["data"].(map[string]any)["report"].(map[string]any)
	assert.EqualValues(t, 1, report["total_orders"])
	vendors := report["vendors"].([]any)
	require.Len(t, vendors, 1)
	assert.Equal(t, "Golden Bento", vendors[0].(map[string]any)["name"])

	status, _ = a.call(t, http.MethodGet, "/api/admin/graphql", admin, nil)
	assert.Equal(t, http.StatusMethodNotAllowed, status)
}

func TestMetricsEndpoint(t *testing.T) {
	a := newApp(t)
	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	a.h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "go_goroutines")
}

func TestDeactivatedAccountIsLockedOut(t *testing.T) {
	a := newApp(t)
	token := a.login(t, "E0002")
	require.NoError(t, a.db.Model(&models.User{}).Where("employee_code = ?", "E0002").Update("is_active", false).Error)

	status, _ := a.call(t, http.MethodGet, "/api/orders", token, nil)
	assert.Equal(t, http.StatusForbidden, status)

	status, _ = a.call(t, http.MethodPost, "/api/orders", token, map[string]any{"order_date": tuesday.String(), "is_no_order": true})
	assert.Equal(t, http.StatusForbidden, status)
}

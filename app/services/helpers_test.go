package services_test

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/webdiner/webdiner/app/models"
	"github.com/webdiner/webdiner/app/repositories"
	"github.com/webdiner/webdiner/app/services"
	"github.com/webdiner/webdiner/pkg/database"
	"github.com/webdiner/webdiner/pkg/events"
)

var taipei = time.FixedZone("Asia/Taipei", 8*3600)

// monday is 2026-10-19, a plain working Monday.
var monday = models.NewDate(2026, time.October, 19)

func at(d models.Date, hh, mm, ss int) time.Time {
	return time.Date(d.Year, d.Month, d.Day, hh, mm, ss, 0, taipei)
}

func ptr[T any](v T) *T { return &v }

// fixture is a seeded in-memory database and the services built on it.
//
// Catalog:
//
//	vendor 1 "Alpha" active:   X (80), Y (120), W (90, Wednesdays only)
//	vendor 2 "Beta"  inactive: Z (70)
//	vendor 3 "Gamma" active:   G (100)
type fixture struct {
	db     *gorm.DB
	now    time.Time
	events *events.Recorder

	orders    *repositories.OrderRepository
	catalog   *repositories.CatalogRepository
	special   *repositories.SpecialDayRepository
	directory *repositories.DirectoryRepository
	users     *repositories.UserRepository

	calendar    *services.Calendar
	admission   *services.Admission
	aggregation *services.Aggregation

	alpha, beta, gamma models.Vendor
	x, y, w, z, g      models.MenuItem
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	db, err := database.Open("sqlite", fmt.Sprintf("file:%s?mode=memory&cache=shared", name))
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	require.NoError(t, db.AutoMigrate(
		&models.Department{}, &models.User{}, &models.Vendor{},
		&models.MenuItem{}, &models.SpecialDay{}, &models.Order{},
	))

	f := &fixture{
		db:        db,
		now:       at(monday, 8, 0, 0),
		events:    &events.Recorder{},
		orders:    repositories.NewOrderRepository(db),
		catalog:   repositories.NewCatalogRepository(db),
		special:   repositories.NewSpecialDayRepository(db),
		directory: repositories.NewDirectoryRepository(db),
		users:     repositories.NewUserRepository(db),
	}
	f.calendar = services.NewCalendar(f.special, taipei, 9*time.Hour)
	f.admission = services.NewAdmission(services.AdmissionDeps{
		Orders:    f.orders,
		Catalog:   f.catalog,
		Special:   f.special,
		Directory: f.directory,
		Calendar:  f.calendar,
		Events:    f.events,
		Clock:     services.ClockFunc(func() time.Time { return f.now }),
	})
	f.aggregation = services.NewAggregation(f.orders, f.catalog, f.directory)

	f.alpha = f.vendor(t, "Alpha", true)
	f.beta = f.vendor(t, "Beta", false)
	f.gamma = f.vendor(t, "Gamma", true)
	f.x = f.item(t, f.alpha, "X", 80, nil)
	f.y = f.item(t, f.alpha, "Y", 120, nil)
	f.w = f.item(t, f.alpha, "W", 90, ptr(2))
	f.z = f.item(t, f.beta, "Z", 70, nil)
	f.g = f.item(t, f.gamma, "G", 100, nil)
	return f
}

func (f *fixture) vendor(t *testing.T, name string, active bool) models.Vendor {
	t.Helper()
	v := models.Vendor{Name: name, Color: models.DefaultVendorColor, IsActive: active}
	require.NoError(t, f.db.Create(&v).Error)
	return v
}

func (f *fixture) item(t *testing.T, v models.Vendor, name string, price int64, weekday *int) models.MenuItem {
	t.Helper()
	m := models.MenuItem{VendorID: v.ID, Name: name, Price: decimal.NewFromInt(price), Weekday: weekday, IsActive: true}
	require.NoError(t, f.db.Create(&m).Error)
	return m
}

func (f *fixture) user(t *testing.T, code string, role models.Role, active bool) models.User {
	t.Helper()
	u := models.User{EmployeeCode: code, Name: "Employee " + code, Email: code + "@example.com", Password: "x", Role: role, IsActive: active}
	require.NoError(t, f.db.Create(&u).Error)
	return u
}

func (f *fixture) choose(d models.Date, item models.MenuItem) services.Intent {
	return services.Intent{Date: d, VendorID: ptr(item.VendorID), ItemID: ptr(item.ID)}
}

func (f *fixture) countOrders(t *testing.T) int64 {
	t.Helper()
	var n int64
	require.NoError(t, f.db.Model(&models.Order{}).Count(&n).Error)
	return n
}

package kernel

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/webdiner/webdiner/app/controllers"
	"github.com/webdiner/webdiner/app/repositories"
	"github.com/webdiner/webdiner/app/services"
	"github.com/webdiner/webdiner/config"
	"github.com/webdiner/webdiner/pkg/cache"
	"github.com/webdiner/webdiner/pkg/database"
	"github.com/webdiner/webdiner/pkg/events"
	"github.com/webdiner/webdiner/pkg/logger"
	"github.com/webdiner/webdiner/pkg/notification"
	"github.com/webdiner/webdiner/pkg/schedule"
	"github.com/webdiner/webdiner/pkg/storage"
)

// Kernel owns every long-lived connection the process opens.
type Kernel struct {
	DB       *gorm.DB
	Redis    *redis.Client
	Events   events.Publisher
	Services *controllers.Services
}

// Deps are the infrastructure NewServices builds on. Everything but DB is
// optional.
type Deps struct {
	DB       *gorm.DB
	Cache    *cache.Store
	CacheTTL time.Duration
	Events   events.Publisher
	Notify   notification.Set
	Disk     storage.Disk
	Calendar *services.Calendar
	Clock    services.Clock
	Workers  int
}

// NewServices wires repositories and services over d.
func NewServices(d Deps) *controllers.Services {
	orders := repositories.NewOrderRepository(d.DB)
	special := repositories.NewSpecialDayRepository(d.DB)
	directory := repositories.NewDirectoryRepository(d.DB)
	users := repositories.NewUserRepository(d.DB)
	catalog := repositories.NewCachedCatalog(repositories.NewCatalogRepository(d.DB), d.Cache, d.CacheTTL)

	cal := d.Calendar
	if cal == nil {
		cal = services.NewCalendar(special, config.Timezone(), config.OrderCutoff())
	}

	aggregation := services.NewAggregation(orders, catalog, directory)
	return &controllers.Services{
		Auth:  services.NewAuthService(users),
		Users: services.NewUserService(users),
		Admission: services.NewAdmission(services.AdmissionDeps{
			Orders:    orders,
			Catalog:   catalog,
			Special:   special,
			Directory: directory,
			Calendar:  cal,
			Events:    d.Events,
			Clock:     d.Clock,
		}),
		Aggregation: aggregation,
		Menu:        services.NewMenuService(catalog, cal),
		SpecialDays: services.NewSpecialDayService(special),
		Reminders:   services.NewReminderService(aggregation, d.Notify, d.Workers),
		Reports:     services.NewReportService(aggregation, d.Disk),
		Calendar:    cal,
	}
}

// Boot loads config and opens the database, cache, event sinks,
// notification channels and storage disk. Redis is optional: when it is
// unreachable the catalog reads straight from the database.
func Boot(ctx context.Context) (*Kernel, error) {
	if err := config.Load(); err != nil {
		return nil, err
	}
	if err := database.Connect(); err != nil {
		return nil, err
	}
	k := &Kernel{DB: database.DB}

	if config.CacheEnabled() {
		rdb, err := cache.Connect(ctx)
		if err != nil {
			logger.Warn("kernel: redis unavailable, catalog cache disabled", "error", err)
		}
		k.Redis = rdb
	}

	pub, err := events.Open(ctx, config.EventsDriver())
	if err != nil {
		k.Close()
		return nil, err
	}
	k.Events = pub

	notify, err := notification.Open(config.NotifyDriver())
	if err != nil {
		k.Close()
		return nil, err
	}

	disk, err := storage.Open(ctx, config.StorageDefault())
	if err != nil {
		k.Close()
		return nil, err
	}

	k.Services = NewServices(Deps{
		DB:       k.DB,
		Cache:    cache.New(k.Redis, cachePrefix),
		CacheTTL: config.CacheTTL(),
		Events:   pub,
		Notify:   notify,
		Disk:     disk,
		Workers:  config.ReminderWorkers(),
	})
	return k, nil
}

// cachePrefix namespaces every key this application writes to Redis.
const cachePrefix = "webdiner:"

// FlushCatalogCache drops cached vendors and menu items after the catalog
// was changed outside the HTTP API. It does nothing when the cache is off.
func FlushCatalogCache(ctx context.Context) (int, error) {
	if !config.CacheEnabled() {
		return 0, nil
	}
	rdb, err := cache.Connect(ctx)
	if err != nil {
		return 0, err
	}
	defer rdb.Close()
	return flushCatalog(ctx, cache.New(rdb, cachePrefix))
}

func flushCatalog(ctx context.Context, store *cache.Store) (int, error) {
	return repositories.NewCachedCatalog(nil, store, 0).Flush(ctx)
}

// Scheduler registers the daily lunch reminder. It reminds for today and
// does nothing on days nobody can order.
func (k *Kernel) Scheduler() (*schedule.Scheduler, error) {
	cal := k.Services.Calendar
	s := schedule.New(cal.Location())
	err := s.Cron(config.ReminderCron()).Name("lunch-reminder").WithoutOverlapping().Run(func(ctx context.Context) error {
		today := cal.Today(time.Now())
		ok, err := cal.IsOrderable(ctx, today)
		if err != nil {
			return err
		}
		if !ok {
			logger.Info("schedule: no ordering today, reminder skipped", "date", today.String())
			return nil
		}
		_, err = k.Services.Reminders.Send(ctx, today)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("kernel: reminder schedule: %w", err)
	}
	return s, nil
}

// Probe reports whether the database answers a ping.
func (k *Kernel) Probe(ctx context.Context) error {
	sqlDB, err := k.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

// Close releases every connection Boot opened.
func (k *Kernel) Close() error {
	var errs []error
	if k.Events != nil {
		errs = append(errs, k.Events.Close())
	}
	if k.Redis != nil {
		errs = append(errs, k.Redis.Close())
	}
	if k.DB != nil {
		if sqlDB, err := k.DB.DB(); err == nil {
			errs = append(errs, sqlDB.Close())
		}
	}
	return errors.Join(errs...)
}

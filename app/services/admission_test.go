package services_test

import (
	"context"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/webdiner/webdiner/app/models"
	"github.com/webdiner/webdiner/app/services"
	"github.com/webdiner/webdiner/pkg/events"
	"github.com/webdiner/webdiner/pkg/metrics"
)

func TestSubmit(t *testing.T) {
	ctx := context.Background()

	t.Run("creates a pending order", func(t *testing.T) {
		f := newFixture(t)
		emp := f.user(t, "E001", models.RoleUser, true)

		order, err := f.admission.Submit(ctx, emp.ID, f.choose(monday, f.x))
		require.NoError(t, err)
		assert.NotZero(t, order.ID)
		assert.Equal(t, models.StatusPending, order.Status)
		assert.Equal(t, f.x.ID, *order.VendorMenuItemID)
		assert.Equal(t, []events.Type{events.OrderCreated}, f.events.Types())
		assert.Equal(t, monday.String(), f.events.Events()[0].Date)
	})

	t.Run("second submit for the same date is a duplicate", func(t *testing.T) {
		f := newFixture(t)
		emp := f.user(t, "E001", models.RoleUser, true)

		_, err := f.admission.Submit(ctx, emp.ID, f.choose(monday, f.x))
		require.NoError(t, err)
		_, err = f.admission.Submit(ctx, emp.ID, services.Intent{Date: monday, NoOrder: true})
		assert.ErrorIs(t, err, services.ErrDuplicateOrder)
		assert.Equal(t, int64(1), f.countOrders(t))
	})

	t.Run("no order clears the selection", func(t *testing.T) {
		f := newFixture(t)
		emp := f.user(t, "E001", models.RoleUser, true)

		in := f.choose(monday, f.x)
		in.NoOrder = true
		order, err := f.admission.Submit(ctx, emp.ID, in)
		require.NoError(t, err)
		assert.Equal(t, models.StatusNoOrder, order.Status)
		assert.False(t, order.HasSelection())
	})

	t.Run("checks run in order", func(t *testing.T) {
		f := newFixture(t)
		emp := f.user(t, "E001", models.RoleUser, true)
		saturday := monday.AddDays(5)

		// A blocked date wins over a missing selection.
		_, err := f.admission.Submit(ctx, emp.ID, services.Intent{Date: saturday})
		assert.ErrorIs(t, err, services.ErrDateBlocked)

		// Cutoff wins over an unknown vendor.
		f.now = at(monday, 9, 30, 0)
		_, err = f.admission.Submit(ctx, emp.ID, services.Intent{Date: monday, VendorID: ptr(uint(999)), ItemID: ptr(uint(1))})
		assert.ErrorIs(t, err, services.ErrCutoffPassed)

		f.now = at(monday, 8, 0, 0)
		_, err = f.admission.Submit(ctx, emp.ID, services.Intent{Date: monday, VendorID: ptr(f.alpha.ID)})
		assert.ErrorIs(t, err, services.ErrMissingSelection)

		_, err = f.admission.Submit(ctx, emp.ID, f.choose(monday, f.z))
		assert.ErrorIs(t, err, services.ErrVendorNotFound)

		_, err = f.admission.Submit(ctx, emp.ID, services.Intent{Date: monday, VendorID: ptr(f.alpha.ID), ItemID: ptr(f.g.ID)})
		assert.ErrorIs(t, err, services.ErrItemNotFound)

		_, err = f.admission.Submit(ctx, emp.ID, f.choose(monday, f.w))
		assert.ErrorIs(t, err, services.ErrWeekdayUnavailable)

		_, err = f.admission.Submit(ctx, emp.ID, f.choose(monday.AddDays(-1), f.x))
		assert.ErrorIs(t, err, services.ErrDateBlocked, "sunday is blocked before it is past")

		_, err = f.admission.Submit(ctx, emp.ID, f.choose(monday.AddDays(-3), f.x))
		assert.ErrorIs(t, err, services.ErrPastDate)

		assert.Zero(t, f.countOrders(t), "rejections write nothing")
		assert.Empty(t, f.events.Events())
	})

	t.Run("rejections are counted", func(t *testing.T) {
		f := newFixture(t)
		emp := f.user(t, "E001", models.RoleUser, true)

		before := testutil.ToFloat64(metrics.OrderAdmissions.WithLabelValues("submit", "rejected"))
		_, err := f.admission.Submit(ctx, emp.ID, services.Intent{Date: monday.AddDays(5)})
		require.Error(t, err)
		assert.Equal(t, before+1, testutil.ToFloat64(metrics.OrderAdmissions.WithLabelValues("submit", "rejected")))
	})
}

func TestSubmitBatch(t *testing.T) {
	ctx := context.Background()

	t.Run("skips the bad intent and keeps the rest", func(t *testing.T) {
		f := newFixture(t)
		emp := f.user(t, "E001", models.RoleUser, true)
		tuesday := monday.AddDays(1)

		intents := []services.Intent{
			f.choose(tuesday, f.x),
			f.choose(tuesday.AddDays(1), f.y),
			f.choose(tuesday.AddDays(2), f.z), // inactive vendor
			{Date: tuesday.AddDays(3), NoOrder: true},
			f.choose(tuesday.AddDays(7), f.g),
		}
		res, err := f.admission.SubmitBatch(ctx, emp.ID, intents)
		require.NoError(t, err)
		assert.Len(t, res.Orders, 4)
		require.Len(t, res.Outcomes, 5)
		assert.False(t, res.Outcomes[2].Accepted)
		assert.Equal(t, services.KindVendorNotFound, res.Outcomes[2].Kind)
		assert.ErrorIs(t, res.Outcomes[2].Err(), services.ErrVendorNotFound)
		for _, i := range []int{0, 1, 3, 4} {
			assert.True(t, res.Outcomes[i].Accepted, "intent %d", i)
			require.NotNil(t, res.Outcomes[i].Order)
			assert.NotZero(t, res.Outcomes[i].Order.ID)
		}
		assert.Equal(t, int64(4), f.countOrders(t))
		assert.Len(t, f.events.Events(), 4)
	})

	t.Run("every skip reason", func(t *testing.T) {
		f := newFixture(t)
		emp := f.user(t, "E001", models.RoleUser, true)
		tuesday := monday.AddDays(1)
		_, err := f.admission.Submit(ctx, emp.ID, f.choose(tuesday, f.x))
		require.NoError(t, err)
		f.now = at(monday, 10, 0, 0)

		res, err := f.admission.SubmitBatch(ctx, emp.ID, []services.Intent{
			f.choose(tuesday, f.y),            // already ordered
			f.choose(monday.AddDays(5), f.y),  // saturday
			f.choose(monday, f.y),             // cutoff
			{Date: tuesday.AddDays(1)},        // no selection
			f.choose(tuesday, f.w),            // weekday is checked before duplicates
			f.choose(tuesday.AddDays(2), f.w), // thursday
			{Date: tuesday.AddDays(1), ItemID: ptr(f.y.ID), VendorID: ptr(f.gamma.ID)},
		})
		require.NoError(t, err)
		assert.Empty(t, res.Orders)

		kinds := make([]services.Kind, len(res.Outcomes))
		for i, o := range res.Outcomes {
			kinds[i] = o.Kind
		}
		assert.Equal(t, []services.Kind{
			services.KindDuplicateOrder,
			services.KindDateBlocked,
			services.KindCutoffPassed,
			services.KindMissingSelection,
			services.KindWeekdayUnavailable,
			services.KindWeekdayUnavailable,
			services.KindItemNotFound,
		}, kinds)
	})

	t.Run("first intent for a date wins", func(t *testing.T) {
		f := newFixture(t)
		emp := f.user(t, "E001", models.RoleUser, true)
		tuesday := monday.AddDays(1)

		res, err := f.admission.SubmitBatch(ctx, emp.ID, []services.Intent{
			f.choose(tuesday, f.x),
			f.choose(tuesday, f.y),
		})
		require.NoError(t, err)
		require.Len(t, res.Orders, 1)
		assert.Equal(t, f.x.ID, *res.Orders[0].VendorMenuItemID)
		assert.Equal(t, services.KindDuplicateOrder, res.Outcomes[1].Kind)
	})

	t.Run("empty batch", func(t *testing.T) {
		f := newFixture(t)
		res, err := f.admission.SubmitBatch(ctx, 1, nil)
		require.NoError(t, err)
		assert.Empty(t, res.Orders)
		assert.Empty(t, res.Outcomes)
	})
}

func TestCancel(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	emp := f.user(t, "E001", models.RoleUser, true)
	other := f.user(t, "E002", models.RoleUser, true)

	order, err := f.admission.Submit(ctx, emp.ID, f.choose(monday, f.x))
	require.NoError(t, err)

	assert.ErrorIs(t, f.admission.Cancel(ctx, other.ID, order.ID), services.ErrNotFound)
	assert.ErrorIs(t, f.admission.Cancel(ctx, emp.ID, 9999), services.ErrNotFound)

	f.now = at(monday, 9, 15, 0)
	assert.ErrorIs(t, f.admission.Cancel(ctx, emp.ID, order.ID), services.ErrCutoffPassed)
	assert.Equal(t, int64(1), f.countOrders(t))

	f.now = at(monday, 8, 45, 0)
	require.NoError(t, f.admission.Cancel(ctx, emp.ID, order.ID))
	assert.Zero(t, f.countOrders(t), "cancel removes the row")
	assert.Equal(t, []events.Type{events.OrderCreated, events.OrderCancelled}, f.events.Types())

	// The date is free again.
	_, err = f.admission.Submit(ctx, emp.ID, f.choose(monday, f.y))
	assert.NoError(t, err)
}

func TestOverride(t *testing.T) {
	ctx := context.Background()

	t.Run("requires an active admin", func(t *testing.T) {
		f := newFixture(t)
		emp := f.user(t, "E001", models.RoleUser, true)
		req := services.OverrideRequest{EmployeeID: emp.ID, Date: monday, VendorID: ptr(f.alpha.ID), ItemID: ptr(f.x.ID)}

		_, err := f.admission.Override(ctx, emp.Principal(), req)
		assert.ErrorIs(t, err, services.ErrPermissionDenied)

		_, err = f.admission.Override(ctx, models.Principal{ID: 99, Role: models.RoleAdmin, Active: false}, req)
		assert.ErrorIs(t, err, services.ErrPermissionDenied)
	})

	t.Run("sets and replaces regardless of calendar", func(t *testing.T) {
		f := newFixture(t)
		admin := f.user(t, "A001", models.RoleAdmin, true)
		emp := f.user(t, "E001", models.RoleUser, true)
		f.now = at(monday, 18, 0, 0)
		saturday := monday.AddDays(5)

		_, err := f.admission.Submit(ctx, emp.ID, services.Intent{Date: saturday.AddDays(2), NoOrder: true})
		require.NoError(t, err)
		legacy := "curry rice"
		require.NoError(t, f.db.Model(&models.Order{}).Where("user_id = ?", emp.ID).Update("items", legacy).Error)

		// Past the cutoff, on a weekend, with an item off its weekday.
		o, err := f.admission.Override(ctx, admin.Principal(), services.OverrideRequest{
			EmployeeID: emp.ID, Date: saturday, VendorID: ptr(f.alpha.ID), ItemID: ptr(f.w.ID),
		})
		require.NoError(t, err)
		assert.Equal(t, models.StatusConfirmed, o.Status)
		assert.Equal(t, f.w.ID, *o.VendorMenuItemID)

		// Replacing an existing row keeps its id and clears legacy items.
		existing, err := f.orders.FindByUserDate(ctx, emp.ID, saturday.AddDays(2))
		require.NoError(t, err)
		o, err = f.admission.Override(ctx, admin.Principal(), services.OverrideRequest{
			EmployeeID: emp.ID, Date: saturday.AddDays(2), VendorID: ptr(f.alpha.ID), ItemID: ptr(f.y.ID),
		})
		require.NoError(t, err)
		assert.Equal(t, existing.ID, o.ID)
		assert.Equal(t, models.StatusConfirmed, o.Status)
		assert.Nil(t, o.Items)
		assert.Equal(t, int64(2), f.countOrders(t))

		last := f.events.Events()[len(f.events.Events())-1]
		assert.Equal(t, events.OrderOverridden, last.Type)
		assert.Equal(t, admin.ID, last.ActorID)
		assert.Equal(t, emp.ID, last.UserID)
	})

	t.Run("validates selection", func(t *testing.T) {
		f := newFixture(t)
		admin := f.user(t, "A001", models.RoleSysAdmin, true)
		emp := f.user(t, "E001", models.RoleUser, true)
		p := admin.Principal()

		_, err := f.admission.Override(ctx, p, services.OverrideRequest{EmployeeID: 999, Date: monday, Cancel: true})
		assert.ErrorIs(t, err, services.ErrNotFound)

		_, err = f.admission.Override(ctx, p, services.OverrideRequest{EmployeeID: emp.ID, Date: monday, VendorID: ptr(f.alpha.ID)})
		assert.ErrorIs(t, err, services.ErrMissingSelection)

		_, err = f.admission.Override(ctx, p, services.OverrideRequest{EmployeeID: emp.ID, Date: monday, VendorID: ptr(uint(999)), ItemID: ptr(f.x.ID)})
		assert.ErrorIs(t, err, services.ErrVendorNotFound)

		_, err = f.admission.Override(ctx, p, services.OverrideRequest{EmployeeID: emp.ID, Date: monday, VendorID: ptr(f.gamma.ID), ItemID: ptr(f.x.ID)})
		assert.ErrorIs(t, err, services.ErrItemNotFound)

		// Inactive vendors are allowed for administrators.
		_, err = f.admission.Override(ctx, p, services.OverrideRequest{EmployeeID: emp.ID, Date: monday, VendorID: ptr(f.beta.ID), ItemID: ptr(f.z.ID)})
		assert.NoError(t, err)
	})

	t.Run("cancel deletes or is a no-op", func(t *testing.T) {
		f := newFixture(t)
		admin := f.user(t, "A001", models.RoleAdmin, true)
		emp := f.user(t, "E001", models.RoleUser, true)
		_, err := f.admission.Submit(ctx, emp.ID, f.choose(monday, f.x))
		require.NoError(t, err)
		f.now = at(monday, 12, 0, 0)

		req := services.OverrideRequest{EmployeeID: emp.ID, Date: monday, Cancel: true}
		o, err := f.admission.Override(ctx, admin.Principal(), req)
		require.NoError(t, err)
		assert.Nil(t, o)
		assert.Zero(t, f.countOrders(t))

		_, err = f.admission.Override(ctx, admin.Principal(), req)
		require.NoError(t, err)
		assert.Equal(t, []events.Type{events.OrderCreated, events.OrderOverrideCancelled}, f.events.Types())
	})
}

func TestMyOrders(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	emp := f.user(t, "E001", models.RoleUser, true)

	_, err := f.admission.Submit(ctx, emp.ID, f.choose(monday, f.x))
	require.NoError(t, err)
	_, err = f.admission.Submit(ctx, emp.ID, services.Intent{Date: monday.AddDays(1), NoOrder: true})
	require.NoError(t, err)

	views, err := f.admission.MyOrders(ctx, emp.ID)
	require.NoError(t, err)
	require.Len(t, views, 2)
	assert.Equal(t, monday.AddDays(1), views[0].OrderDate, "newest first")
	assert.Empty(t, views[0].ItemName)
	assert.Equal(t, "Alpha", views[1].VendorName)
	assert.Equal(t, "X", views[1].ItemName)
	assert.Equal(t, "80", views[1].ItemPrice.String())
}

type failingPublisher struct{}

func (failingPublisher) Publish(context.Context, events.Event) error { return assert.AnError }
func (failingPublisher) Close() error                                { return nil }

func TestPublishFailureDoesNotFailTheCall(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	emp := f.user(t, "E001", models.RoleUser, true)
	adm := services.NewAdmission(services.AdmissionDeps{
		Orders: f.orders, Catalog: f.catalog, Special: f.special, Directory: f.directory,
		Calendar: f.calendar, Events: failingPublisher{},
		Clock: services.ClockFunc(func() time.Time { return f.now }),
	})

	before := testutil.ToFloat64(metrics.EventPublishFailures.WithLabelValues(string(events.OrderCreated)))
	_, err := adm.Submit(ctx, emp.ID, f.choose(monday, f.x))
	require.NoError(t, err)
	assert.Equal(t, before+1, testutil.ToFloat64(metrics.EventPublishFailures.WithLabelValues(string(events.OrderCreated))))
}

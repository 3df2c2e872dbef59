package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/webdiner/webdiner/app/models"
	"github.com/webdiner/webdiner/pkg/collection"
	"github.com/webdiner/webdiner/pkg/database"
	"github.com/webdiner/webdiner/pkg/events"
	"github.com/webdiner/webdiner/pkg/logger"
	"github.com/webdiner/webdiner/pkg/metrics"
)

// Intent is one requested order: a date plus either a selection or an
// explicit "no order".
type Intent struct {
	Date     models.Date `json:"order_date"`
	VendorID *uint       `json:"vendor_id,omitempty"`
	ItemID   *uint       `json:"vendor_menu_item_id,omitempty"`
	NoOrder  bool        `json:"is_no_order"`
}

// Outcome reports what happened to one batch intent.
type Outcome struct {
	Index    int           `json:"index"`
	Intent   Intent        `json:"intent"`
	Accepted bool          `json:"accepted"`
	Reason   string        `json:"reason,omitempty"`
	Kind     Kind          `json:"kind,omitempty"`
	Order    *models.Order `json:"order,omitempty"`
	err      error
}

// Err is the rejection cause, nil for accepted intents.
func (o Outcome) Err() error { return o.err }

// BatchResult holds the created orders in submission order and one
// Outcome per intent.
type BatchResult struct {
	Orders   []models.Order `json:"orders"`
	Outcomes []Outcome      `json:"outcomes"`
}

// OverrideRequest is an administrator correction of one employee's order.
type OverrideRequest struct {
	EmployeeID uint        `json:"user_id"`
	Date       models.Date `json:"order_date"`
	VendorID   *uint       `json:"vendor_id,omitempty"`
	ItemID     *uint       `json:"vendor_menu_item_id,omitempty"`
	Cancel     bool        `json:"is_cancel"`
}

// OrderView is an order with its catalog labels resolved.
type OrderView struct {
	models.Order
	VendorName  string           `json:"vendor_name,omitempty"`
	VendorColor string           `json:"vendor_color,omitempty"`
	ItemName    string           `json:"item_name,omitempty"`
	ItemPrice   *decimal.Decimal `json:"item_price,omitempty"`
}

// Admission is the order admission engine.
type Admission struct {
	orders    OrderStore
	catalog   Catalog
	special   SpecialDayStore
	directory Directory
	calendar  *Calendar
	resolver  *Availability
	events    events.Publisher
	clock     Clock
	gate      Gate
}

// AdmissionDeps wires an Admission. Events and Clock are optional.
type AdmissionDeps struct {
	Orders    OrderStore
	Catalog   Catalog
	Special   SpecialDayStore
	Directory Directory
	Calendar  *Calendar
	Events    events.Publisher
	Clock     Clock
}

func NewAdmission(d AdmissionDeps) *Admission {
	if d.Events == nil {
		d.Events = events.LogPublisher{}
	}
	if d.Clock == nil {
		d.Clock = SystemClock
	}
	return &Admission{
		orders:    d.Orders,
		catalog:   d.Catalog,
		special:   d.Special,
		directory: d.Directory,
		calendar:  d.Calendar,
		resolver:  NewAvailability(d.Catalog),
		events:    d.Events,
		clock:     d.Clock,
	}
}

// ─── Single ───────────────────────────────────────────────────────────────────

// Submit validates and stores one order. Checks run in a fixed order and
// the first failure is returned; nothing is written on failure.
func (a *Admission) Submit(ctx context.Context, employeeID uint, in Intent) (*models.Order, error) {
	order, err := a.submit(ctx, employeeID, in)
	observe("submit", err)
	if err != nil {
		return nil, err
	}
	a.publish(ctx, order, events.OrderCreated, employeeID)
	return order, nil
}

func (a *Admission) submit(ctx context.Context, employeeID uint, in Intent) (*models.Order, error) {
	ok, err := a.calendar.IsOrderable(ctx, in.Date)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrDateBlocked, in.Date)
	}
	if err := a.calendar.CheckCutoff(in.Date, a.clock.Now()); err != nil {
		return nil, err
	}

	order := newOrder(employeeID, in)
	if !in.NoOrder {
		if in.VendorID == nil || in.ItemID == nil {
			return nil, ErrMissingSelection
		}
		if _, err := a.resolver.Resolve(ctx, *in.VendorID, *in.ItemID, in.Date); err != nil {
			return nil, err
		}
	}

	err = a.orders.Transaction(ctx, func(tx OrderStore) error {
		existing, err := tx.FindByUserDate(ctx, employeeID, in.Date)
		if err != nil {
			return storageErr(err)
		}
		if existing != nil {
			return fmt.Errorf("%w: %s", ErrDuplicateOrder, in.Date)
		}
		if err := tx.Create(ctx, order); err != nil {
			if database.IsUniqueViolation(err) {
				return fmt.Errorf("%w: %s", ErrDuplicateOrder, in.Date)
			}
			return storageErr(err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return order, nil
}

func newOrder(employeeID uint, in Intent) *models.Order {
	o := &models.Order{UserID: employeeID, OrderDate: in.Date, Status: models.StatusNoOrder}
	if !in.NoOrder {
		o.Status = models.StatusPending
		o.VendorID = copyID(in.VendorID)
		o.VendorMenuItemID = copyID(in.ItemID)
	}
	return o
}

func copyID(p *uint) *uint {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

// ─── Batch ────────────────────────────────────────────────────────────────────

// SubmitBatch evaluates each intent on its own and stores the accepted
// ones in a single transaction. Rejected intents never fail the call; they
// are reported in Outcomes. A write failure rolls back the whole batch.
func (a *Admission) SubmitBatch(ctx context.Context, employeeID uint, intents []Intent) (*BatchResult, error) {
	res, err := a.submitBatch(ctx, employeeID, intents)
	observe("batch", err)
	if err != nil {
		return nil, err
	}
	for i := range res.Orders {
		a.publish(ctx, &res.Orders[i], events.OrderCreated, employeeID)
	}
	return res, nil
}

func (a *Admission) submitBatch(ctx context.Context, employeeID uint, intents []Intent) (*BatchResult, error) {
	res := &BatchResult{Orders: []models.Order{}, Outcomes: make([]Outcome, len(intents))}
	if len(intents) == 0 {
		return res, nil
	}

	dates := collection.Unique(collection.Map(intents, func(in Intent) models.Date { return in.Date }))
	var vendorIDs, itemIDs []uint
	for _, in := range intents {
		if in.VendorID != nil {
			vendorIDs = append(vendorIDs, *in.VendorID)
		}
		if in.ItemID != nil {
			itemIDs = append(itemIDs, *in.ItemID)
		}
	}

	taken, err := a.orders.DatesTaken(ctx, employeeID, dates)
	if err != nil {
		return nil, storageErr(err)
	}
	overrides, err := a.special.ForDates(ctx, dates)
	if err != nil {
		return nil, storageErr(err)
	}
	vendors, err := a.catalog.VendorsByID(ctx, collection.Unique(vendorIDs))
	if err != nil {
		return nil, storageErr(err)
	}
	items, err := a.catalog.ItemsByID(ctx, collection.Unique(itemIDs))
	if err != nil {
		return nil, storageErr(err)
	}

	now := a.clock.Now()
	log := logger.WithCtx(ctx)
	var staged []*models.Order
	stagedAt := make([]int, 0, len(intents))

	for i, in := range intents {
		out := Outcome{Index: i, Intent: in}
		err := a.checkIntent(in, now, taken, overrides, vendors, items)
		if err != nil {
			out.err, out.Reason, out.Kind = err, err.Error(), KindOf(err)
			metrics.BatchSkips.WithLabelValues(string(out.Kind)).Inc()
			log.Debug("batch intent skipped", "index", i, "date", in.Date.String(), "reason", err)
		} else {
			out.Accepted = true
			// Later intents for the same date lose to this one.
			taken[in.Date] = true
			staged = append(staged, newOrder(employeeID, in))
			stagedAt = append(stagedAt, i)
		}
		res.Outcomes[i] = out
	}

	if len(staged) == 0 {
		return res, nil
	}

	err = a.orders.Transaction(ctx, func(tx OrderStore) error {
		if err := tx.CreateBatch(ctx, staged); err != nil {
			if database.IsUniqueViolation(err) {
				return storageErr(fmt.Errorf("%w: %w", ErrDuplicateOrder, err))
			}
			return storageErr(err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	for n, o := range staged {
		res.Orders = append(res.Orders, *o)
		res.Outcomes[stagedAt[n]].Order = o
	}
	return res, nil
}

// checkIntent runs the single-admission checks against pre-fetched state.
func (a *Admission) checkIntent(
	in Intent,
	now time.Time,
	taken map[models.Date]bool,
	overrides map[models.Date]models.SpecialDay,
	vendors map[uint]models.Vendor,
	items map[uint]models.MenuItem,
) error {
	var sd *models.SpecialDay
	if v, ok := overrides[in.Date]; ok {
		sd = &v
	}
	if !Orderable(in.Date, sd) {
		return fmt.Errorf("%w: %s", ErrDateBlocked, in.Date)
	}
	if err := a.calendar.CheckCutoff(in.Date, now); err != nil {
		return err
	}
	if !in.NoOrder {
		if in.VendorID == nil || in.ItemID == nil {
			return ErrMissingSelection
		}
		if err := Check(lookup(vendors, *in.VendorID), lookup(items, *in.ItemID), in.Date); err != nil {
			return err
		}
	}
	if taken[in.Date] {
		return fmt.Errorf("%w: %s", ErrDuplicateOrder, in.Date)
	}
	return nil
}

func lookup[T any](m map[uint]T, id uint) *T {
	if v, ok := m[id]; ok {
		return &v
	}
	return nil
}

// ─── Cancel ───────────────────────────────────────────────────────────────────

// Cancel removes one of the employee's own orders, subject to the same
// cutoff as creation.
func (a *Admission) Cancel(ctx context.Context, employeeID, orderID uint) error {
	order, err := a.cancel(ctx, employeeID, orderID)
	observe("cancel", err)
	if err != nil {
		return err
	}
	a.publish(ctx, order, events.OrderCancelled, employeeID)
	return nil
}

func (a *Admission) cancel(ctx context.Context, employeeID, orderID uint) (*models.Order, error) {
	var order *models.Order
	err := a.orders.Transaction(ctx, func(tx OrderStore) error {
		o, err := tx.FindForUser(ctx, employeeID, orderID)
		if err != nil {
			return storageErr(err)
		}
		if o == nil {
			return fmt.Errorf("%w: order %d", ErrNotFound, orderID)
		}
		if err := a.calendar.CheckCutoff(o.OrderDate, a.clock.Now()); err != nil {
			return err
		}
		if err := tx.Delete(ctx, o.ID); err != nil {
			return storageErr(err)
		}
		order = o
		return nil
	})
	return order, err
}

// ─── Override ─────────────────────────────────────────────────────────────────

// Override sets or clears any employee's order for any date. It skips the
// calendar, the cutoff and the weekday rule. The returned order is nil when
// the request cancels.
func (a *Admission) Override(ctx context.Context, actor models.Principal, req OverrideRequest) (*models.Order, error) {
	order, evt, err := a.override(ctx, actor, req)
	observe("override", err)
	if err != nil {
		return nil, err
	}
	if order != nil && evt != "" {
		a.publish(ctx, order, evt, actor.ID)
	}
	if req.Cancel {
		return nil, nil
	}
	return order, nil
}

func (a *Admission) override(ctx context.Context, actor models.Principal, req OverrideRequest) (*models.Order, events.Type, error) {
	if err := a.gate.RequireAdmin(actor); err != nil {
		return nil, "", err
	}
	emp, err := a.directory.Employee(ctx, req.EmployeeID)
	if err != nil {
		return nil, "", storageErr(err)
	}
	if emp == nil {
		return nil, "", fmt.Errorf("%w: employee %d", ErrNotFound, req.EmployeeID)
	}

	if req.Cancel {
		var removed *models.Order
		err := a.orders.Transaction(ctx, func(tx OrderStore) error {
			o, err := tx.FindByUserDate(ctx, req.EmployeeID, req.Date)
			if err != nil || o == nil {
				return wrapStorage(err)
			}
			if err := tx.Delete(ctx, o.ID); err != nil {
				return storageErr(err)
			}
			removed = o
			return nil
		})
		if err != nil || removed == nil {
			return nil, "", err
		}
		return removed, events.OrderOverrideCancelled, nil
	}

	if req.VendorID == nil || req.ItemID == nil {
		return nil, "", ErrMissingSelection
	}
	vendor, err := a.catalog.Vendor(ctx, *req.VendorID)
	if err != nil {
		return nil, "", storageErr(err)
	}
	if vendor == nil {
		return nil, "", fmt.Errorf("%w: %d", ErrVendorNotFound, *req.VendorID)
	}
	item, err := a.catalog.Item(ctx, *req.ItemID)
	if err != nil {
		return nil, "", storageErr(err)
	}
	if item == nil || item.VendorID != vendor.ID {
		return nil, "", fmt.Errorf("%w: %d for vendor %d", ErrItemNotFound, *req.ItemID, vendor.ID)
	}

	order := &models.Order{
		UserID:           req.EmployeeID,
		OrderDate:        req.Date,
		VendorID:         copyID(req.VendorID),
		VendorMenuItemID: copyID(req.ItemID),
		Status:           models.StatusConfirmed,
	}
	err = a.orders.Transaction(ctx, func(tx OrderStore) error {
		return wrapStorage(tx.Upsert(ctx, order))
	})
	if err != nil {
		return nil, "", err
	}
	return order, events.OrderOverridden, nil
}

func wrapStorage(err error) error {
	if err == nil {
		return nil
	}
	return storageErr(err)
}

// ─── Queries ──────────────────────────────────────────────────────────────────

// MyOrders lists the employee's orders, newest date first, with vendor and
// item labels.
func (a *Admission) MyOrders(ctx context.Context, employeeID uint) ([]OrderView, error) {
	orders, err := a.orders.ForUser(ctx, employeeID)
	if err != nil {
		return nil, storageErr(err)
	}
	vendors, items, err := resolveCatalog(ctx, a.catalog, orders)
	if err != nil {
		return nil, err
	}

	views := make([]OrderView, 0, len(orders))
	for _, o := range orders {
		v := OrderView{Order: o}
		if o.VendorID != nil {
			if vendor, ok := vendors[*o.VendorID]; ok {
				v.VendorName, v.VendorColor = vendor.Name, vendor.Color
			}
		}
		if o.VendorMenuItemID != nil {
			if item, ok := items[*o.VendorMenuItemID]; ok {
				price := item.Price
				v.ItemName, v.ItemPrice = item.Name, &price
			}
		}
		views = append(views, v)
	}
	return views, nil
}

// resolveCatalog batch-loads every vendor and item the orders reference.
func resolveCatalog(ctx context.Context, catalog Catalog, orders []models.Order) (map[uint]models.Vendor, map[uint]models.MenuItem, error) {
	var vendorIDs, itemIDs []uint
	for _, o := range orders {
		if o.VendorID != nil {
			vendorIDs = append(vendorIDs, *o.VendorID)
		}
		if o.VendorMenuItemID != nil {
			itemIDs = append(itemIDs, *o.VendorMenuItemID)
		}
	}
	vendors, err := catalog.VendorsByID(ctx, collection.Unique(vendorIDs))
	if err != nil {
		return nil, nil, storageErr(err)
	}
	items, err := catalog.ItemsByID(ctx, collection.Unique(itemIDs))
	if err != nil {
		return nil, nil, storageErr(err)
	}
	return vendors, items, nil
}

// ─── Side effects ─────────────────────────────────────────────────────────────

// publish emits an event for a committed change. Delivery failures are
// logged and counted, never returned.
func (a *Admission) publish(ctx context.Context, o *models.Order, t events.Type, actorID uint) {
	e := events.New(t, o.ID, o.UserID)
	e.ActorID = actorID
	e.Date = o.OrderDate.String()
	e.Status = string(o.Status)
	e.VendorID = o.VendorID
	e.ItemID = o.VendorMenuItemID
	if err := a.events.Publish(ctx, e); err != nil {
		metrics.EventPublishFailures.WithLabelValues(string(t)).Inc()
		logger.WithCtx(ctx).Warn("order event not published", "type", string(t), "order_id", o.ID, "error", err)
	}
}

// observe counts an admission call as accepted, rejected (a business rule
// said no) or failed (storage).
func observe(operation string, err error) {
	if errors.Is(err, ErrStorage) {
		metrics.OrderAdmissions.WithLabelValues(operation, "failed").Inc()
		return
	}
	metrics.ObserveAdmission(operation, err)
}

package services

import (
	"context"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/webdiner/webdiner/app/models"
	"github.com/webdiner/webdiner/pkg/collection"
)

// Roster labels for employees without a resolvable selection.
const (
	LabelUnselected = "unselected"
	LabelNoOrder    = "no order"
)

// Report is the per-vendor, per-item summary of one day's orders.
type Report struct {
	Date         models.Date     `json:"date"`
	TotalOrders  int             `json:"total_orders"`
	TotalPrice   decimal.Decimal `json:"total_price"`
	NoOrderCount int             `json:"no_order_count"`
	Vendors      []VendorSummary `json:"vendors"`
}

type VendorSummary struct {
	ID         uint            `json:"id"`
	Name       string          `json:"name"`
	Color      string          `json:"color"`
	TotalCount int             `json:"total_count"`
	TotalPrice decimal.Decimal `json:"total_price"`
	Items      []ItemSummary   `json:"items"`
}

type ItemSummary struct {
	ID        uint            `json:"id"`
	Name      string          `json:"name"`
	Count     int             `json:"count"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Subtotal  decimal.Decimal `json:"subtotal"`
}

// MissingEmployee is an active employee with no order row for a date.
type MissingEmployee struct {
	UserID     uint   `json:"user_id"`
	EmployeeID string `json:"employee_id"`
	Name       string `json:"name"`
	Email      string `json:"email"`
}

// RosterRow is one active employee's state for a date.
type RosterRow struct {
	UserID      uint                `json:"user_id"`
	EmployeeID  string              `json:"employee_id"`
	Name        string              `json:"name"`
	Department  string              `json:"department,omitempty"`
	OrderID     *uint               `json:"order_id"`
	Status      *models.OrderStatus `json:"status"`
	Label       string              `json:"label"`
	VendorID    *uint               `json:"vendor_id"`
	VendorName  string              `json:"vendor_name"`
	VendorColor string              `json:"vendor_color"`
	ItemID      *uint               `json:"item_id"`
}

// Announcement lists, per item, who ordered it.
type Announcement struct {
	Date  models.Date        `json:"date"`
	Items []AnnouncementItem `json:"items"`
}

type AnnouncementItem struct {
	VendorID    uint               `json:"vendor_id"`
	VendorName  string             `json:"vendor_name"`
	VendorColor string             `json:"vendor_color"`
	ItemID      uint               `json:"item_id"`
	ItemName    string             `json:"item_name"`
	Count       int                `json:"count"`
	Subtotal    decimal.Decimal    `json:"subtotal"`
	People      []AnnouncedOrderer `json:"people"`
}

type AnnouncedOrderer struct {
	EmployeeID string `json:"employee_id"`
	Name       string `json:"name"`
}

// Aggregation reduces a day's orders into reporting views. It has no side
// effects; callers gate access.
type Aggregation struct {
	orders    OrderStore
	catalog   Catalog
	directory Directory
}

func NewAggregation(orders OrderStore, catalog Catalog, directory Directory) *Aggregation {
	return &Aggregation{orders: orders, catalog: catalog, directory: directory}
}

// resolved is an order whose vendor and item both still exist.
type resolved struct {
	order  models.Order
	vendor models.Vendor
	item   models.MenuItem
}

func (g *Aggregation) load(ctx context.Context, date models.Date) ([]models.Order, []resolved, error) {
	orders, err := g.orders.ForDate(ctx, date)
	if err != nil {
		return nil, nil, storageErr(err)
	}
	vendors, items, err := resolveCatalog(ctx, g.catalog, orders)
	if err != nil {
		return nil, nil, err
	}
	var out []resolved
	for _, o := range orders {
		if o.VendorMenuItemID == nil {
			continue
		}
		item, ok := items[*o.VendorMenuItemID]
		if !ok {
			continue
		}
		vendor, ok := vendors[item.VendorID]
		if !ok {
			continue
		}
		out = append(out, resolved{order: o, vendor: vendor, item: item})
	}
	return orders, out, nil
}

// Aggregate builds the day report. Orders whose item or vendor no longer
// exists are left out of the vendor breakdown but still counted in
// TotalOrders.
func (g *Aggregation) Aggregate(ctx context.Context, date models.Date) (*Report, error) {
	orders, rows, err := g.load(ctx, date)
	if err != nil {
		return nil, err
	}

	rep := &Report{Date: date, TotalOrders: len(orders), TotalPrice: decimal.Zero, Vendors: []VendorSummary{}}
	for _, o := range orders {
		if o.Status == models.StatusNoOrder {
			rep.NoOrderCount++
		}
	}

	byVendor := collection.GroupBy(rows, func(r resolved) string { return r.vendor.Name })
	for name, group := range byVendor {
		vs := VendorSummary{ID: group[0].vendor.ID, Name: name, Color: group[0].vendor.Color, TotalPrice: decimal.Zero}
		idx := map[uint]int{}
		for _, r := range group {
			i, ok := idx[r.item.ID]
			if !ok {
				i = len(vs.Items)
				idx[r.item.ID] = i
				vs.Items = append(vs.Items, ItemSummary{ID: r.item.ID, Name: r.item.Name, UnitPrice: r.item.Price, Subtotal: decimal.Zero})
			}
			vs.Items[i].Count++
			vs.Items[i].Subtotal = vs.Items[i].Subtotal.Add(r.item.Price)
			vs.TotalCount++
			vs.TotalPrice = vs.TotalPrice.Add(r.item.Price)
		}
		sort.SliceStable(vs.Items, func(a, b int) bool { return itemLess(vs.Items[a], vs.Items[b]) })
		rep.TotalPrice = rep.TotalPrice.Add(vs.TotalPrice)
		rep.Vendors = append(rep.Vendors, vs)
	}
	sort.SliceStable(rep.Vendors, func(a, b int) bool {
		x, y := rep.Vendors[a], rep.Vendors[b]
		if c := x.TotalPrice.Cmp(y.TotalPrice); c != 0 {
			return c > 0
		}
		return x.Name < y.Name
	})
	return rep, nil
}

// itemLess orders by count desc, subtotal desc, name, id.
func itemLess(x, y ItemSummary) bool {
	if x.Count != y.Count {
		return x.Count > y.Count
	}
	if c := x.Subtotal.Cmp(y.Subtotal); c != 0 {
		return c > 0
	}
	if x.Name != y.Name {
		return x.Name < y.Name
	}
	return x.ID < y.ID
}

// Missing returns active employees with no order row for date, sorted by
// employee code. A NoOrder row counts as accounted for.
func (g *Aggregation) Missing(ctx context.Context, date models.Date) ([]MissingEmployee, error) {
	employees, err := g.directory.ActiveEmployees(ctx)
	if err != nil {
		return nil, storageErr(err)
	}
	orders, err := g.orders.ForDate(ctx, date)
	if err != nil {
		return nil, storageErr(err)
	}
	ordered := collection.KeyBy(orders, func(o models.Order) uint { return o.UserID })

	out := []MissingEmployee{}
	for _, u := range employees {
		if _, ok := ordered[u.ID]; ok {
			continue
		}
		out = append(out, MissingEmployee{UserID: u.ID, EmployeeID: u.EmployeeCode, Name: u.Name, Email: u.Email})
	}
	return out, nil
}

// Roster returns exactly one row per active employee, sorted by employee
// code.
func (g *Aggregation) Roster(ctx context.Context, date models.Date) ([]RosterRow, error) {
	employees, err := g.directory.ActiveEmployees(ctx)
	if err != nil {
		return nil, storageErr(err)
	}
	departments, err := g.directory.DepartmentNames(ctx)
	if err != nil {
		return nil, storageErr(err)
	}
	orders, rows, err := g.load(ctx, date)
	if err != nil {
		return nil, err
	}
	byUser := collection.KeyBy(orders, func(o models.Order) uint { return o.UserID })
	resolvedByUser := collection.KeyBy(rows, func(r resolved) uint { return r.order.UserID })

	out := make([]RosterRow, 0, len(employees))
	for _, u := range employees {
		row := RosterRow{UserID: u.ID, EmployeeID: u.EmployeeCode, Name: u.Name, Label: LabelUnselected}
		if u.DepartmentID != nil {
			row.Department = departments[*u.DepartmentID]
		}
		if o, ok := byUser[u.ID]; ok {
			id, status := o.ID, o.Status
			row.OrderID, row.Status = &id, &status
			if status == models.StatusNoOrder {
				row.Label = LabelNoOrder
			}
		}
		if r, ok := resolvedByUser[u.ID]; ok {
			vendorID, itemID := r.vendor.ID, r.item.ID
			row.Label = r.item.Name
			row.VendorID, row.ItemID = &vendorID, &itemID
			row.VendorName, row.VendorColor = r.vendor.Name, r.vendor.Color
		}
		out = append(out, row)
	}
	return out, nil
}

// Announcement groups the day's resolvable orders by item with the people
// who ordered each one. Items sort by vendor then item name; people by
// employee code.
func (g *Aggregation) Announcement(ctx context.Context, date models.Date) (*Announcement, error) {
	_, rows, err := g.load(ctx, date)
	if err != nil {
		return nil, err
	}
	users, err := g.directory.EmployeesByID(ctx, collection.Unique(collection.Map(rows, func(r resolved) uint { return r.order.UserID })))
	if err != nil {
		return nil, storageErr(err)
	}

	ann := &Announcement{Date: date, Items: []AnnouncementItem{}}
	idx := map[uint]int{}
	for _, r := range rows {
		u, ok := users[r.order.UserID]
		if !ok {
			continue
		}
		i, seen := idx[r.item.ID]
		if !seen {
			i = len(ann.Items)
			idx[r.item.ID] = i
			ann.Items = append(ann.Items, AnnouncementItem{
				VendorID: r.vendor.ID, VendorName: r.vendor.Name, VendorColor: r.vendor.Color,
				ItemID: r.item.ID, ItemName: r.item.Name, Subtotal: decimal.Zero,
			})
		}
		it := &ann.Items[i]
		it.Count++
		it.Subtotal = it.Subtotal.Add(r.item.Price)
		it.People = append(it.People, AnnouncedOrderer{EmployeeID: u.EmployeeCode, Name: u.Name})
	}

	for i := range ann.Items {
		sort.SliceStable(ann.Items[i].People, func(a, b int) bool {
			return ann.Items[i].People[a].EmployeeID < ann.Items[i].People[b].EmployeeID
		})
	}
	sort.SliceStable(ann.Items, func(a, b int) bool {
		x, y := ann.Items[a], ann.Items[b]
		if x.VendorName != y.VendorName {
			return x.VendorName < y.VendorName
		}
		if x.ItemName != y.ItemName {
			return x.ItemName < y.ItemName
		}
		return x.ItemID < y.ItemID
	})
	return ann, nil
}

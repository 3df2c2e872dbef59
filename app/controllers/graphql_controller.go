package controllers

import (
	"context"
	"errors"
	"net/http"

	"github.com/graphql-go/graphql"

	"github.com/webdiner/webdiner/app/models"
	"github.com/webdiner/webdiner/app/services"
	"github.com/webdiner/webdiner/pkg/auth"
	gql "github.com/webdiner/webdiner/pkg/graphql"
)

// GraphQLController exposes the day views as a read-only GraphQL schema:
//
//	{ report(date: "2026-10-19") { total_orders vendors { name items { name count } } } }
type GraphQLController struct {
	aggregation *services.Aggregation
	users       *services.UserService
	gate        services.Gate
}

func NewGraphQLController(s *Services) *GraphQLController {
	return &GraphQLController{aggregation: s.Aggregation, users: s.Users}
}

// Handler builds the schema. It panics only on a malformed schema
// definition, which is a programming error.
func (h *GraphQLController) Handler() http.Handler {
	schema, err := gql.NewSchema(h.query())
	if err != nil {
		panic("controllers: graphql schema: " + err.Error())
	}
	return gql.Handler(schema)
}

var (
	itemType = graphql.NewObject(graphql.ObjectConfig{
		Name: "ItemSummary",
		Fields: graphql.Fields{
			"id":         &graphql.Field{Type: graphql.Int},
			"name":       &graphql.Field{Type: graphql.String},
			"count":      &graphql.Field{Type: graphql.Int},
			"unit_price": &graphql.Field{Type: graphql.Float},
			"subtotal":   &graphql.Field{Type: graphql.Float},
		},
	})
	vendorType = graphql.NewObject(graphql.ObjectConfig{
		Name: "VendorSummary",
		Fields: graphql.Fields{
			"id":          &graphql.Field{Type: graphql.Int},
			"name":        &graphql.Field{Type: graphql.String},
			"color":       &graphql.Field{Type: graphql.String},
			"total_count": &graphql.Field{Type: graphql.Int},
			"total_price": &graphql.Field{Type: graphql.Float},
			"items":       &graphql.Field{Type: graphql.NewList(itemType)},
		},
	})
	reportType = graphql.NewObject(graphql.ObjectConfig{
		Name: "Report",
		Fields: graphql.Fields{
			"date":           &graphql.Field{Type: graphql.String},
			"total_orders":   &graphql.Field{Type: graphql.Int},
			"total_price":    &graphql.Field{Type: graphql.Float},
			"no_order_count": &graphql.Field{Type: graphql.Int},
			"vendors":        &graphql.Field{Type: graphql.NewList(vendorType)},
		},
	})
	missingType = graphql.NewObject(graphql.ObjectConfig{
		Name: "MissingEmployee",
		Fields: graphql.Fields{
			"user_id":     &graphql.Field{Type: graphql.Int},
			"employee_id": &graphql.Field{Type: graphql.String},
			"name":        &graphql.Field{Type: graphql.String},
			"email":       &graphql.Field{Type: graphql.String},
		},
	})
	rosterType = graphql.NewObject(graphql.ObjectConfig{
		Name: "RosterRow",
		Fields: graphql.Fields{
			"user_id":     &graphql.Field{Type: graphql.Int},
			"employee_id": &graphql.Field{Type: graphql.String},
			"name":        &graphql.Field{Type: graphql.String},
			"department":  &graphql.Field{Type: graphql.String},
			"status":      &graphql.Field{Type: graphql.String},
			"label":       &graphql.Field{Type: graphql.String},
			"vendor_name": &graphql.Field{Type: graphql.String},
		},
	})
)

var dateArg = graphql.FieldConfigArgument{
	"date": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
}

func (h *GraphQLController) query() *graphql.Object {
	return graphql.NewObject(graphql.ObjectConfig{
		Name: "Query",
		Fields: graphql.Fields{
			"report": &graphql.Field{
				Type: reportType,
				Args: dateArg,
				Resolve: h.resolve(func(ctx context.Context, d models.Date) (any, error) {
					rep, err := h.aggregation.Aggregate(ctx, d)
					if err != nil {
						return nil, err
					}
					return reportMap(rep), nil
				}),
			},
			"missing": &graphql.Field{
				Type: graphql.NewList(missingType),
				Args: dateArg,
				Resolve: h.resolve(func(ctx context.Context, d models.Date) (any, error) {
					rows, err := h.aggregation.Missing(ctx, d)
					if err != nil {
						return nil, err
					}
					out := make([]map[string]any, 0, len(rows))
					for _, m := range rows {
						out = append(out, map[string]any{
							"user_id": int(m.UserID), "employee_id": m.EmployeeID, "name": m.Name, "email": m.Email,
						})
					}
					return out, nil
				}),
			},
			"roster": &graphql.Field{
				Type: graphql.NewList(rosterType),
				Args: dateArg,
				Resolve: h.resolve(func(ctx context.Context, d models.Date) (any, error) {
					rows, err := h.aggregation.Roster(ctx, d)
					if err != nil {
						return nil, err
					}
					out := make([]map[string]any, 0, len(rows))
					for _, r := range rows {
						status := ""
						if r.Status != nil {
							status = string(*r.Status)
						}
						out = append(out, map[string]any{
							"user_id": int(r.UserID), "employee_id": r.EmployeeID, "name": r.Name,
							"department": r.Department, "status": status, "label": r.Label, "vendor_name": r.VendorName,
						})
					}
					return out, nil
				}),
			},
		},
	})
}

// resolve checks the caller is an active administrator and parses the
// date argument before calling fn.
func (h *GraphQLController) resolve(fn func(context.Context, models.Date) (any, error)) graphql.FieldResolveFn {
	return func(p graphql.ResolveParams) (any, error) {
		claims, ok := auth.ClaimsFrom(p.Context)
		if !ok {
			return nil, errors.New("unauthorized")
		}
		actor, err := h.users.Principal(p.Context, claims.UserID)
		if err != nil {
			return nil, err
		}
		if err := h.gate.RequireAdmin(actor); err != nil {
			return nil, err
		}
		raw, _ := p.Args["date"].(string)
		d, err := models.ParseDate(raw)
		if err != nil {
			return nil, err
		}
		return fn(p.Context, d)
	}
}

func reportMap(rep *services.Report) map[string]any {
	vendors := make([]map[string]any, 0, len(rep.Vendors))
	for _, v := range rep.Vendors {
		items := make([]map[string]any, 0, len(v.Items))
		for _, it := range v.Items {
			items = append(items, map[string]any{
				"id": int(it.ID), "name": it.Name, "count": it.Count,
				"unit_price": it.UnitPrice.InexactFloat64(), "subtotal": it.Subtotal.InexactFloat64(),
			})
		}
		vendors = append(vendors, map[string]any{
			"id": int(v.ID), "name": v.Name, "color": v.Color, "total_count": v.TotalCount,
			"total_price": v.TotalPrice.InexactFloat64(), "items": items,
		})
	}
	return map[string]any{
		"date":           rep.Date.String(),
		"total_orders":   rep.TotalOrders,
		"total_price":    rep.TotalPrice.InexactFloat64(),
		"no_order_count": rep.NoOrderCount,
		"vendors":        vendors,
	}
}

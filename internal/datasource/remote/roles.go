package remote

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/Skotchmaster/storefront/internal/domain"
	"github.com/Skotchmaster/storefront/internal/models"
)

type orderItemDTO struct {
	ID       int64   `json:"id"`
	Name     string  `json:"name"`
	Quantity int     `json:"quantity"`
	Price    float64 `json:"price"`
}

type orderDTO struct {
	ID              json.Number    `json:"id"`
	CustomerName    string         `json:"customer_name"`
	RestaurantName  string         `json:"restaurant_name"`
	AgentName       string         `json:"delivery_agent_name"`
	Items           []orderItemDTO `json:"items"`
	Total           float64        `json:"total"`
	TotalAmount     float64        `json:"total_amount"`
	Status          string         `json:"status"`
	DeliveryAddress string         `json:"delivery_address"`
	CreatedAt       string         `json:"created_at"`
}

type statsDTO struct {
	TotalUsers       int     `json:"total_users"`
	TotalRestaurants int     `json:"total_restaurants"`
	TotalOrders      int     `json:"total_orders"`
	TotalRevenue     float64 `json:"total_revenue"`
}

// The backend emits naive ISO timestamps as well as RFC 3339 ones.
var timeLayouts = []string{time.RFC3339Nano, "2006-01-02T15:04:05.999999", "2006-01-02"}

func (c *Client) CustomerOrders(ctx context.Context, authHeader string) ([]models.OrderSummary, error) {
	return c.orders(ctx, "customer/orders", nil, authHeader)
}

func (c *Client) RestaurantOrders(ctx context.Context, authHeader, status string) ([]models.OrderSummary, error) {
	return c.orders(ctx, "restaurant/orders", statusQuery(status), authHeader)
}

func (c *Client) AvailableDeliveries(ctx context.Context, authHeader string) ([]models.OrderSummary, error) {
	return c.orders(ctx, "delivery/available-orders", nil, authHeader)
}

func (c *Client) AdminStats(ctx context.Context, authHeader string) (models.AdminStats, error) {
	var env envelope
	if err := c.do(ctx, http.MethodGet, "admin/stats", nil, authHeader, nil, &env); err != nil {
		return models.AdminStats{}, err
	}
	if env.Stats == nil {
		return models.AdminStats{}, fmt.Errorf("%w: stats missing in response", domain.ErrRemoteFailure)
	}
	return models.AdminStats{
		TotalUsers:       env.Stats.TotalUsers,
		TotalRestaurants: env.Stats.TotalRestaurants,
		TotalOrders:      env.Stats.TotalOrders,
		TotalRevenue:     toMinor(env.Stats.TotalRevenue),
	}, nil
}

func (c *Client) AdminUsers(ctx context.Context, authHeader string) ([]models.User, error) {
	var env envelope
	if err := c.do(ctx, http.MethodGet, "admin/users", nil, authHeader, nil, &env); err != nil {
		return nil, err
	}
	return nonNil(env.Users), nil
}

func (c *Client) AdminOrders(ctx context.Context, authHeader, status string) ([]models.OrderSummary, error) {
	return c.orders(ctx, "admin/orders", statusQuery(status), authHeader)
}

func (c *Client) AdminDeliveryAgents(ctx context.Context, authHeader string) ([]models.User, error) {
	var env envelope
	if err := c.do(ctx, http.MethodGet, "admin/delivery-agents", nil, authHeader, nil, &env); err != nil {
		return nil, err
	}
	return nonNil(env.Agents), nil
}

func (c *Client) orders(ctx context.Context, path string, query url.Values, authHeader string) ([]models.OrderSummary, error) {
	var env envelope
	if err := c.do(ctx, http.MethodGet, path, query, authHeader, nil, &env); err != nil {
		return nil, err
	}
	out := make([]models.OrderSummary, 0, len(env.Orders))
	for _, o := range env.Orders {
		out = append(out, o.toModel())
	}
	return out, nil
}

func (o orderDTO) toModel() models.OrderSummary {
	total := o.Total
	if total == 0 {
		total = o.TotalAmount
	}
	out := models.OrderSummary{
		ID:              o.ID.String(),
		CustomerName:    o.CustomerName,
		RestaurantName:  o.RestaurantName,
		AgentName:       o.AgentName,
		Total:           toMinor(total),
		Status:          o.Status,
		DeliveryAddress: o.DeliveryAddress,
		CreatedAt:       parseTime(o.CreatedAt),
	}
	for _, it := range o.Items {
		out.Items = append(out.Items, models.LineItem{
			ItemID:    it.ID,
			Name:      it.Name,
			UnitPrice: toMinor(it.Price),
			Quantity:  it.Quantity,
		})
	}
	return out
}

func parseTime(v string) time.Time {
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, v); err == nil {
			return t.UTC()
		}
	}
	return time.Time{}
}

func statusQuery(status string) url.Values {
	if status == "" {
		return nil
	}
	return url.Values{"status": {status}}
}

func nonNil[T any](v []T) []T {
	if v == nil {
		return []T{}
	}
	return v
}

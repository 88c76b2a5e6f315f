package httpserver

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/storefront/internal/logging"
	"github.com/Skotchmaster/storefront/internal/models"
)

func (h *StorefrontHTTP) OrderHistory(c echo.Context) error {
	return load(c, "orders.history", h.Svc.OrderHistory)
}

func (h *StorefrontHTTP) RestaurantOrders(c echo.Context) error {
	status := c.QueryParam("status")
	return load(c, "restaurant.orders", func(ctx context.Context) ([]models.OrderSummary, error) {
		return h.Svc.RestaurantOrders(ctx, status)
	})
}

func (h *StorefrontHTTP) AvailableDeliveries(c echo.Context) error {
	return load(c, "delivery.available", h.Svc.AvailableDeliveries)
}

func (h *StorefrontHTTP) AdminStats(c echo.Context) error {
	return load(c, "admin.stats", h.Svc.AdminStats)
}

func (h *StorefrontHTTP) AdminUsers(c echo.Context) error {
	return load(c, "admin.users", h.Svc.AdminUsers)
}

func (h *StorefrontHTTP) AdminOrders(c echo.Context) error {
	status := c.QueryParam("status")
	return load(c, "admin.orders", func(ctx context.Context) ([]models.OrderSummary, error) {
		return h.Svc.AdminOrders(ctx, status)
	})
}

func (h *StorefrontHTTP) AdminDeliveryAgents(c echo.Context) error {
	return load(c, "admin.delivery_agents", h.Svc.AdminDeliveryAgents)
}

func load[T any](c echo.Context, handler string, fetch func(context.Context) (T, error)) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", handler)

	out, err := fetch(ctx)
	if err != nil {
		return fail(c, l, "load_error", err)
	}
	return c.JSON(http.StatusOK, out)
}

package service

import (
	"context"
	"fmt"

	"github.com/Skotchmaster/storefront/internal/domain"
	"github.com/Skotchmaster/storefront/internal/logging"
	"github.com/Skotchmaster/storefront/internal/models"
)

// OrderHistory lists the signed-in customer's orders, newest first.
func (s *Storefront) OrderHistory(ctx context.Context) ([]models.OrderSummary, error) {
	return withSession(ctx, s, "storefront.order_history", s.source.CustomerOrders)
}

func (s *Storefront) RestaurantOrders(ctx context.Context, status string) ([]models.OrderSummary, error) {
	return withSession(ctx, s, "storefront.restaurant_orders", func(ctx context.Context, h string) ([]models.OrderSummary, error) {
		return s.source.RestaurantOrders(ctx, h, status)
	})
}

func (s *Storefront) AvailableDeliveries(ctx context.Context) ([]models.OrderSummary, error) {
	return withSession(ctx, s, "storefront.available_deliveries", s.source.AvailableDeliveries)
}

func (s *Storefront) AdminStats(ctx context.Context) (models.AdminStats, error) {
	return withSession(ctx, s, "storefront.admin_stats", s.source.AdminStats)
}

func (s *Storefront) AdminUsers(ctx context.Context) ([]models.User, error) {
	return withSession(ctx, s, "storefront.admin_users", s.source.AdminUsers)
}

func (s *Storefront) AdminOrders(ctx context.Context, status string) ([]models.OrderSummary, error) {
	return withSession(ctx, s, "storefront.admin_orders", func(ctx context.Context, h string) ([]models.OrderSummary, error) {
		return s.source.AdminOrders(ctx, h, status)
	})
}

func (s *Storefront) AdminDeliveryAgents(ctx context.Context) ([]models.User, error) {
	return withSession(ctx, s, "storefront.admin_delivery_agents", s.source.AdminDeliveryAgents)
}

// withSession runs load with the current credential. A credential the
// backend rejects ends the session exactly as a rejected checkout does.
func withSession[T any](ctx context.Context, s *Storefront, svc string, load func(context.Context, string) (T, error)) (T, error) {
	var zero T
	l := logging.FromContext(ctx).With("svc", svc)

	header, ok := s.sessions.AuthHeader()
	if !ok {
		return zero, fmt.Errorf("%s: %w", svc, domain.ErrAuthenticationRequired)
	}

	out, err := load(ctx, header)
	if err != nil {
		s.dropRejectedSession(ctx, l, err)
		return zero, err
	}
	return out, nil
}

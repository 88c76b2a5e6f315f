package fixture

import (
	"cmp"
	"context"
	"fmt"
	"slices"

	"github.com/Skotchmaster/storefront/internal/domain"
	"github.com/Skotchmaster/storefront/internal/models"
	"github.com/Skotchmaster/storefront/internal/token"
)

const orderListLimit = 50

func (s *Source) CustomerOrders(_ context.Context, authHeader string) ([]models.OrderSummary, error) {
	claims, err := s.authorizeRole(authHeader, models.RoleCustomer)
	if err != nil {
		return nil, err
	}
	return s.listOrders(func(o Order) bool { return o.UserID == claims.UserID }), nil
}

func (s *Source) RestaurantOrders(_ context.Context, authHeader, status string) ([]models.OrderSummary, error) {
	claims, err := s.authorizeRole(authHeader, models.RoleRestaurant)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	var restaurantID int64
	for _, acc := range s.accounts {
		if acc.user.ID == claims.UserID {
			restaurantID = acc.restaurantID
			break
		}
	}
	s.mu.Unlock()

	if restaurantID == 0 {
		return []models.OrderSummary{}, nil
	}
	return s.listOrders(func(o Order) bool {
		return o.RestaurantID == restaurantID && matchStatus(o, status)
	}), nil
}

// AvailableDeliveries lists ready orders no agent has taken yet, oldest first.
func (s *Source) AvailableDeliveries(_ context.Context, authHeader string) ([]models.OrderSummary, error) {
	if _, err := s.authorizeRole(authHeader, models.RoleDelivery); err != nil {
		return nil, err
	}
	out := s.listOrders(func(o Order) bool { return o.Status == models.OrderReady && o.AgentID == 0 })
	slices.Reverse(out)
	return out, nil
}

func (s *Source) AdminStats(_ context.Context, authHeader string) (models.AdminStats, error) {
	if _, err := s.authorizeRole(authHeader, models.RoleAdmin); err != nil {
		return models.AdminStats{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	stats := models.AdminStats{
		TotalUsers:       len(s.accounts),
		TotalRestaurants: len(s.restaurants),
	}
	for _, o := range s.allOrders() {
		stats.TotalOrders++
		if o.Status == models.OrderDelivered {
			stats.TotalRevenue += o.Total
		}
	}
	return stats, nil
}

func (s *Source) AdminUsers(_ context.Context, authHeader string) ([]models.User, error) {
	if _, err := s.authorizeRole(authHeader, models.RoleAdmin); err != nil {
		return nil, err
	}
	return s.users(func(models.User) bool { return true }), nil
}

func (s *Source) AdminOrders(_ context.Context, authHeader, status string) ([]models.OrderSummary, error) {
	if _, err := s.authorizeRole(authHeader, models.RoleAdmin); err != nil {
		return nil, err
	}
	return s.listOrders(func(o Order) bool { return matchStatus(o, status) }), nil
}

func (s *Source) AdminDeliveryAgents(_ context.Context, authHeader string) ([]models.User, error) {
	if _, err := s.authorizeRole(authHeader, models.RoleAdmin); err != nil {
		return nil, err
	}
	return s.users(func(u models.User) bool { return u.Role == models.RoleDelivery }), nil
}

func (s *Source) authorizeRole(authHeader string, role models.Role) (token.Claims, error) {
	claims, err := s.authorize(authHeader)
	if err != nil {
		return token.Claims{}, err
	}
	if claims.Role != role {
		return token.Claims{}, fmt.Errorf("%s only: %w", role, domain.ErrForbidden)
	}
	return claims, nil
}

// listOrders returns matching orders newest first, names resolved.
func (s *Source) listOrders(keep func(Order) bool) []models.OrderSummary {
	s.mu.Lock()
	defer s.mu.Unlock()

	names := make(map[int64]string, len(s.accounts))
	for _, acc := range s.accounts {
		names[acc.user.ID] = acc.user.DisplayName
	}

	var matched []Order
	for _, o := range s.allOrders() {
		if keep(o) {
			matched = append(matched, o)
		}
	}
	slices.SortStableFunc(matched, func(a, b Order) int { return b.CreatedAt.Compare(a.CreatedAt) })
	if len(matched) > orderListLimit {
		matched = matched[:orderListLimit]
	}

	out := make([]models.OrderSummary, 0, len(matched))
	for _, o := range matched {
		out = append(out, models.OrderSummary{
			ID:              o.ID,
			CustomerName:    names[o.UserID],
			RestaurantName:  s.restaurantName(o.RestaurantID),
			AgentName:       names[o.AgentID],
			Items:           slices.Clone(o.Items),
			Total:           o.Total,
			Status:          o.Status,
			DeliveryAddress: o.DeliveryAddress,
			CreatedAt:       o.CreatedAt,
		})
	}
	return out
}

func (s *Source) users(keep func(models.User) bool) []models.User {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]models.User, 0, len(s.accounts))
	for _, acc := range s.accounts {
		if keep(acc.user) {
			out = append(out, acc.user)
		}
	}
	slices.SortFunc(out, func(a, b models.User) int { return cmp.Compare(a.ID, b.ID) })
	return out
}

// allOrders expects s.mu held.
func (s *Source) allOrders() []Order {
	return slices.Concat(s.history, s.orders)
}

func (s *Source) restaurantName(id int64) string {
	for _, r := range s.restaurants {
		if r.ID == id {
			return r.Name
		}
	}
	return ""
}

func matchStatus(o Order, status string) bool {
	return status == "" || status == "all" || o.Status == status
}

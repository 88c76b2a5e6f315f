package fixture

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Skotchmaster/storefront/internal/domain"
	"github.com/Skotchmaster/storefront/internal/models"
)

func orderIDs(orders []models.OrderSummary) []string {
	ids := make([]string, 0, len(orders))
	for _, o := range orders {
		ids = append(ids, o.ID)
	}
	return ids
}

func TestSource_CustomerOrders(t *testing.T) {
	t.Parallel()

	s := newSource(t)
	ctx := context.Background()
	auth := "Bearer " + login(t, s, "ahmed@customer.mr", "customer123", models.RoleCustomer).Token

	orders, err := s.CustomerOrders(ctx, auth)
	require.NoError(t, err)
	assert.Equal(t, []string{"ORD-1003", "ORD-1002"}, orderIDs(orders))
	assert.Equal(t, "Sahara Restaurant", orders[0].RestaurantName)
	assert.Equal(t, models.OrderReady, orders[0].Status)

	id, err := s.SubmitOrder(ctx, auth, models.OrderRequest{
		Items: []models.LineItem{{ItemID: 502, Name: "Atay tea", UnitPrice: 150, Quantity: 2}},
		Total: 300,
	})
	require.NoError(t, err)

	orders, err = s.CustomerOrders(ctx, auth)
	require.NoError(t, err)
	require.Len(t, orders, 3)
	assert.Equal(t, id, orders[0].ID)
	assert.Equal(t, "Palm Cafe", orders[0].RestaurantName)
	assert.Equal(t, models.OrderPending, orders[0].Status)
}

func TestSource_RestaurantAndDeliveryOrders(t *testing.T) {
	t.Parallel()

	s := newSource(t)
	ctx := context.Background()
	restaurant := "Bearer " + login(t, s, "sahara@restaurant.mr", "restaurant123", models.RoleRestaurant).Token
	agent := "Bearer " + login(t, s, "abdullah@delivery.mr", "delivery123", models.RoleDelivery).Token

	orders, err := s.RestaurantOrders(ctx, restaurant, "all")
	require.NoError(t, err)
	assert.Equal(t, []string{"ORD-1004", "ORD-1003", "ORD-1001"}, orderIDs(orders))

	orders, err = s.RestaurantOrders(ctx, restaurant, models.OrderPending)
	require.NoError(t, err)
	assert.Equal(t, []string{"ORD-1004"}, orderIDs(orders))
	assert.Equal(t, "Fatima Ahmed", orders[0].CustomerName)

	orders, err = s.AvailableDeliveries(ctx, agent)
	require.NoError(t, err)
	assert.Equal(t, []string{"ORD-1003"}, orderIDs(orders))

	_, err = s.AvailableDeliveries(ctx, restaurant)
	assert.ErrorIs(t, err, domain.ErrForbidden)
}

func TestSource_AdminLoads(t *testing.T) {
	t.Parallel()

	s := newSource(t)
	ctx := context.Background()
	admin := "Bearer " + login(t, s, "admin@livreure.mr", "admin123", models.RoleAdmin).Token

	stats, err := s.AdminStats(ctx, admin)
	require.NoError(t, err)
	assert.Equal(t, models.AdminStats{TotalUsers: 5, TotalRestaurants: 5, TotalOrders: 5, TotalRevenue: 4300}, stats)

	users, err := s.AdminUsers(ctx, admin)
	require.NoError(t, err)
	require.Len(t, users, 5)
	for i, u := range users {
		assert.Equal(t, int64(i+1), u.ID)
	}

	agents, err := s.AdminDeliveryAgents(ctx, admin)
	require.NoError(t, err)
	require.Len(t, agents, 1)
	assert.Equal(t, "motorcycle", agents[0].VehicleType)

	orders, err := s.AdminOrders(ctx, admin, models.OrderDelivered)
	require.NoError(t, err)
	assert.Equal(t, []string{"ORD-1002", "ORD-1001"}, orderIDs(orders))
	assert.Equal(t, "Fatima Ahmed", orders[1].CustomerName)
	assert.Equal(t, "Abdullah Ahmed", orders[1].AgentName)

	orders, err = s.AdminOrders(ctx, admin, "")
	require.NoError(t, err)
	assert.Len(t, orders, 5)
}

func TestSource_RoleLoadsCheckCredential(t *testing.T) {
	t.Parallel()

	s := newSource(t)
	ctx := context.Background()
	customer := "Bearer " + login(t, s, "fatima@customer.mr", "customer123", models.RoleCustomer).Token
	admin := "Bearer " + login(t, s, "admin@livreure.mr", "admin123", models.RoleAdmin).Token

	tests := []struct {
		name    string
		load    func(auth string) error
		auth    string
		wantErr error
	}{
		{name: "stats as customer", auth: customer, wantErr: domain.ErrForbidden, load: func(a string) error {
			_, err := s.AdminStats(ctx, a)
			return err
		}},
		{name: "users without token", auth: "", wantErr: domain.ErrUnauthorized, load: func(a string) error {
			_, err := s.AdminUsers(ctx, a)
			return err
		}},
		{name: "history as admin", auth: admin, wantErr: domain.ErrForbidden, load: func(a string) error {
			_, err := s.CustomerOrders(ctx, a)
			return err
		}},
		{name: "restaurant orders with garbage", auth: "Bearer nope", wantErr: domain.ErrUnauthorized, load: func(a string) error {
			_, err := s.RestaurantOrders(ctx, a, "")
			return err
		}},
	}
	for _, tt := range tests {
		assert.ErrorIs(t, tt.load(tt.auth), tt.wantErr, tt.name)
	}

	require.NoError(t, s.Logout(ctx, admin))
	_, err := s.AdminOrders(ctx, admin, "")
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
}

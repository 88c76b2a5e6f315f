package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Skotchmaster/storefront/internal/domain"
	"github.com/Skotchmaster/storefront/internal/events"
	"github.com/Skotchmaster/storefront/internal/models"
)

var admin = models.Credentials{Email: "admin@livreure.mr", Password: "admin123", Role: models.RoleAdmin}

func TestStorefront_OrderHistory(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	ctx := context.Background()

	_, err := h.sf.OrderHistory(ctx)
	assert.ErrorIs(t, err, domain.ErrAuthenticationRequired)

	_, err = h.sf.Login(ctx, ahmed)
	require.NoError(t, err)
	fillCart(t, h.sf)
	receipt, err := h.sf.Checkout(ctx)
	require.NoError(t, err)

	orders, err := h.sf.OrderHistory(ctx)
	require.NoError(t, err)
	require.Len(t, orders, 3)
	assert.Equal(t, receipt.OrderID, orders[0].ID)
	assert.Equal(t, "Burger House", orders[0].RestaurantName)
	assert.Equal(t, int64(1900), orders[0].Total)
}

func TestStorefront_AdminLoads(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	ctx := context.Background()

	_, err := h.sf.Login(ctx, admin)
	require.NoError(t, err)
	assert.Equal(t, ScreenAdmin, h.sf.View().Screen)

	stats, err := h.sf.AdminStats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 5, stats.TotalUsers)

	users, err := h.sf.AdminUsers(ctx)
	require.NoError(t, err)
	assert.Len(t, users, 5)

	orders, err := h.sf.AdminOrders(ctx, models.OrderReady)
	require.NoError(t, err)
	require.Len(t, orders, 1)
	assert.Equal(t, "ORD-1003", orders[0].ID)

	agents, err := h.sf.AdminDeliveryAgents(ctx)
	require.NoError(t, err)
	require.Len(t, agents, 1)
	assert.Equal(t, "Abdullah Ahmed", agents[0].DisplayName)
}

func TestStorefront_RoleLoadsForOtherScreens(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	ctx := context.Background()

	_, err := h.sf.Login(ctx, models.Credentials{Email: "sahara@restaurant.mr", Password: "restaurant123", Role: models.RoleRestaurant})
	require.NoError(t, err)
	orders, err := h.sf.RestaurantOrders(ctx, models.OrderPending)
	require.NoError(t, err)
	assert.Len(t, orders, 1)

	_, err = h.sf.Login(ctx, models.Credentials{Email: "abdullah@delivery.mr", Password: "delivery123", Role: models.RoleDelivery})
	require.NoError(t, err)
	orders, err = h.sf.AvailableDeliveries(ctx)
	require.NoError(t, err)
	require.Len(t, orders, 1)
	assert.Equal(t, models.OrderReady, orders[0].Status)
}

func TestStorefront_WrongRoleKeepsSession(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	ctx := context.Background()

	_, err := h.sf.Login(ctx, ahmed)
	require.NoError(t, err)
	h.rec.reset()

	_, err = h.sf.AdminStats(ctx)
	assert.ErrorIs(t, err, domain.ErrForbidden)

	require.NotNil(t, h.sf.View().User)
	assert.Empty(t, h.rec.types())
}

func TestStorefront_RejectedCredentialOnLoadEndsSession(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	ctx := context.Background()

	_, err := h.sf.Login(ctx, admin)
	require.NoError(t, err)
	fillCart(t, h.sf)

	header, ok := h.sf.sessions.AuthHeader()
	require.True(t, ok)
	require.NoError(t, h.source.Logout(ctx, header))
	h.rec.reset()

	_, err = h.sf.AdminUsers(ctx)
	assert.ErrorIs(t, err, domain.ErrUnauthorized)

	v := h.sf.View()
	assert.Nil(t, v.User)
	assert.Equal(t, ScreenAuth, v.Screen)
	assert.Equal(t, 3, v.Cart.ItemCount)
	assert.Equal(t, []events.Type{events.SessionCleared}, h.rec.types())

	_, hasToken, _ := h.kv.Get(ctx, "auth_token")
	assert.False(t, hasToken)

	_, err = h.sf.AdminUsers(ctx)
	assert.ErrorIs(t, err, domain.ErrAuthenticationRequired)
}

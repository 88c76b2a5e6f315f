package fixture

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/Skotchmaster/storefront/internal/domain"
	"github.com/Skotchmaster/storefront/internal/models"
)

func newSource(t *testing.T) *Source {
	t.Helper()
	s, err := New([]byte("fixture-secret"), bcrypt.MinCost)
	require.NoError(t, err)
	return s
}

func login(t *testing.T, s *Source, email, password string, role models.Role) models.Session {
	t.Helper()
	sess, err := s.Login(context.Background(), models.Credentials{Email: email, Password: password, Role: role})
	require.NoError(t, err)
	return sess
}

func TestNew_RequiresSecret(t *testing.T) {
	t.Parallel()

	_, err := New(nil, bcrypt.MinCost)
	assert.Error(t, err)
}

func TestSource_LoginEveryRole(t *testing.T) {
	t.Parallel()

	s := newSource(t)

	tests := []struct {
		email    string
		password string
		role     models.Role
	}{
		{"ahmed@customer.mr", "customer123", models.RoleCustomer},
		{"sahara@restaurant.mr", "restaurant123", models.RoleRestaurant},
		{"abdullah@delivery.mr", "delivery123", models.RoleDelivery},
		{"admin@livreure.mr", "admin123", models.RoleAdmin},
	}
	for _, tt := range tests {
		sess := login(t, s, tt.email, tt.password, tt.role)
		assert.NotEmpty(t, sess.Token)
		assert.Equal(t, tt.role, sess.User.Role)
		assert.Positive(t, sess.User.ID)
	}
}

func TestSource_LoginRejects(t *testing.T) {
	t.Parallel()

	s := newSource(t)
	ctx := context.Background()

	_, err := s.Login(ctx, models.Credentials{Email: "ahmed@customer.mr", Password: "wrong", Role: models.RoleCustomer})
	assert.ErrorIs(t, err, domain.ErrUnauthorized)

	_, err = s.Login(ctx, models.Credentials{Email: "ahmed@customer.mr", Password: "customer123", Role: models.RoleRestaurant})
	assert.ErrorIs(t, err, domain.ErrUnauthorized)

	_, err = s.Login(ctx, models.Credentials{Email: "nobody@customer.mr", Password: "customer123", Role: models.RoleCustomer})
	assert.ErrorIs(t, err, domain.ErrUnauthorized)

	_, err = s.Login(ctx, models.Credentials{Email: "ahmed@customer.mr"})
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestSource_Register(t *testing.T) {
	t.Parallel()

	s := newSource(t)
	ctx := context.Background()
	reg := models.Registration{
		Name: "Karim", Email: "Karim@Example.com", Password: "secret1", Phone: "+2224000", Role: models.RoleDelivery, VehicleType: "bicycle",
	}

	sess, err := s.Register(ctx, reg)
	require.NoError(t, err)
	assert.Equal(t, "karim@example.com", sess.User.Email)
	assert.Equal(t, "bicycle", sess.User.VehicleType)
	require.NotNil(t, sess.User.IsAvailable)
	assert.True(t, *sess.User.IsAvailable)
	assert.Greater(t, sess.User.ID, int64(5))

	_, err = s.Register(ctx, reg)
	assert.ErrorIs(t, err, domain.ErrConflict)

	again := login(t, s, "karim@example.com", "secret1", models.RoleDelivery)
	assert.Equal(t, sess.User.ID, again.User.ID)
}

func TestSource_Restaurants(t *testing.T) {
	t.Parallel()

	s := newSource(t)
	ctx := context.Background()

	all, err := s.Restaurants(ctx, models.RestaurantFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 5)
	for _, r := range all {
		assert.Empty(t, r.MenuItems)
	}

	open, err := s.Restaurants(ctx, models.RestaurantFilter{OpenOnly: true})
	require.NoError(t, err)
	assert.Len(t, open, 4)

	pizza, err := s.Restaurants(ctx, models.RestaurantFilter{Search: "PIZZA"})
	require.NoError(t, err)
	require.Len(t, pizza, 1)
	assert.Equal(t, int64(3), pizza[0].ID)

	r, err := s.Restaurant(ctx, 2)
	require.NoError(t, err)
	assert.Len(t, r.MenuItems, 3)
	assert.Equal(t, int64(800), r.MenuItems[0].Price)

	_, err = s.Restaurant(ctx, 99)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestSource_SubmitOrder(t *testing.T) {
	t.Parallel()

	s := newSource(t)
	ctx := context.Background()
	sess := login(t, s, "ahmed@customer.mr", "customer123", models.RoleCustomer)
	auth := "Bearer " + sess.Token

	order := models.OrderRequest{
		Items: []models.LineItem{
			{ItemID: 201, Name: "Classic burger", UnitPrice: 800, Quantity: 2},
			{ItemID: 203, Name: "French fries", UnitPrice: 300, Quantity: 1},
		},
		Total: 1900,
	}

	id, err := s.SubmitOrder(ctx, auth, order)
	require.NoError(t, err)
	assert.NotEmpty(t, id)

	orders := s.Orders()
	require.Len(t, orders, 1)
	assert.Equal(t, id, orders[0].ID)
	assert.Equal(t, sess.User.ID, orders[0].UserID)
	assert.Equal(t, int64(1900), orders[0].Total)

	tests := []struct {
		name    string
		auth    string
		order   models.OrderRequest
		wantErr error
	}{
		{name: "no token", auth: "", order: order, wantErr: domain.ErrUnauthorized},
		{name: "bad token", auth: "Bearer nope", order: order, wantErr: domain.ErrUnauthorized},
		{name: "empty", auth: auth, order: models.OrderRequest{}, wantErr: domain.ErrValidation},
		{name: "wrong total", auth: auth, order: models.OrderRequest{Items: order.Items, Total: 1}, wantErr: domain.ErrValidation},
		{name: "unknown item", auth: auth, order: models.OrderRequest{
			Items: []models.LineItem{{ItemID: 9999, UnitPrice: 100, Quantity: 1}}, Total: 100,
		}, wantErr: domain.ErrValidation},
		{name: "unavailable item", auth: auth, order: models.OrderRequest{
			Items: []models.LineItem{{ItemID: 303, UnitPrice: 900, Quantity: 1}}, Total: 900,
		}, wantErr: domain.ErrValidation},
	}
	for _, tt := range tests {
		_, err := s.SubmitOrder(ctx, tt.auth, tt.order)
		assert.ErrorIs(t, err, tt.wantErr, tt.name)
	}
	assert.Len(t, s.Orders(), 1)
}

func TestSource_LogoutRevokesToken(t *testing.T) {
	t.Parallel()

	s := newSource(t)
	ctx := context.Background()
	first := login(t, s, "ahmed@customer.mr", "customer123", models.RoleCustomer)
	second := login(t, s, "ahmed@customer.mr", "customer123", models.RoleCustomer)

	require.NoError(t, s.Logout(ctx, "Bearer "+first.Token))
	assert.ErrorIs(t, s.Logout(ctx, "Bearer "+first.Token), domain.ErrUnauthorized)

	order := models.OrderRequest{Items: []models.LineItem{{ItemID: 502, UnitPrice: 150, Quantity: 1}}, Total: 150}
	_, err := s.SubmitOrder(ctx, "Bearer "+first.Token, order)
	assert.ErrorIs(t, err, domain.ErrUnauthorized)

	_, err = s.SubmitOrder(ctx, "Bearer "+second.Token, order)
	assert.NoError(t, err)
}

func TestSource_ExpiredToken(t *testing.T) {
	t.Parallel()

	s := newSource(t)
	sess := login(t, s, "ahmed@customer.mr", "customer123", models.RoleCustomer)

	s.now = func() time.Time { return time.Now().Add(tokenTTL + time.Hour) }

	order := models.OrderRequest{Items: []models.LineItem{{ItemID: 502, UnitPrice: 150, Quantity: 1}}, Total: 150}
	_, err := s.SubmitOrder(context.Background(), "Bearer "+sess.Token, order)
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
}

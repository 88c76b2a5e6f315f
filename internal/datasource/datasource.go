package datasource

import (
	"context"
	"fmt"
	"net/mail"
	"slices"
	"strings"

	"github.com/Skotchmaster/storefront/internal/domain"
	"github.com/Skotchmaster/storefront/internal/models"
)

// DataSource is everything the storefront needs from the marketplace
// backend. Implementations: remote (HTTP API) and fixture (embedded samples).
type DataSource interface {
	Login(ctx context.Context, creds models.Credentials) (models.Session, error)
	Register(ctx context.Context, reg models.Registration) (models.Session, error)
	Logout(ctx context.Context, authHeader string) error
	Restaurants(ctx context.Context, filter models.RestaurantFilter) ([]models.Restaurant, error)
	Restaurant(ctx context.Context, id int64) (models.Restaurant, error)
	SubmitOrder(ctx context.Context, authHeader string, order models.OrderRequest) (string, error)

	// Role-scoped loads. A rejected credential is ErrUnauthorized; a valid
	// credential of the wrong role is ErrForbidden.
	CustomerOrders(ctx context.Context, authHeader string) ([]models.OrderSummary, error)
	RestaurantOrders(ctx context.Context, authHeader, status string) ([]models.OrderSummary, error)
	AvailableDeliveries(ctx context.Context, authHeader string) ([]models.OrderSummary, error)
	AdminStats(ctx context.Context, authHeader string) (models.AdminStats, error)
	AdminUsers(ctx context.Context, authHeader string) ([]models.User, error)
	AdminOrders(ctx context.Context, authHeader, status string) ([]models.OrderSummary, error)
	AdminDeliveryAgents(ctx context.Context, authHeader string) ([]models.User, error)
}

func NormalizeCredentials(c models.Credentials) (models.Credentials, error) {
	c.Email = strings.ToLower(strings.TrimSpace(c.Email))
	if c.Email == "" || c.Password == "" || c.Role == "" {
		return c, fmt.Errorf("email, password and user type are required: %w", domain.ErrValidation)
	}
	if !c.Role.Valid() {
		return c, fmt.Errorf("invalid user type %q: %w", c.Role, domain.ErrValidation)
	}
	return c, nil
}

func NormalizeRegistration(r models.Registration) (models.Registration, error) {
	r.Name = strings.TrimSpace(r.Name)
	r.Email = strings.ToLower(strings.TrimSpace(r.Email))
	r.Phone = strings.TrimSpace(r.Phone)

	missing := make([]string, 0, 5)
	for field, v := range map[string]string{
		"name": r.Name, "email": r.Email, "password": r.Password, "phone": r.Phone, "user_type": string(r.Role),
	} {
		if v == "" {
			missing = append(missing, field)
		}
	}
	if len(missing) > 0 {
		slices.Sort(missing)
		return r, fmt.Errorf("missing fields %s: %w", strings.Join(missing, ", "), domain.ErrValidation)
	}

	switch r.Role {
	case models.RoleCustomer, models.RoleRestaurant, models.RoleDelivery:
	default:
		return r, fmt.Errorf("invalid user type %q: %w", r.Role, domain.ErrValidation)
	}
	if _, err := mail.ParseAddress(r.Email); err != nil {
		return r, fmt.Errorf("invalid email: %w", domain.ErrValidation)
	}
	if len(r.Password) < 6 {
		return r, fmt.Errorf("password must be at least 6 characters: %w", domain.ErrValidation)
	}
	return r, nil
}

// FilterRestaurants applies category ("all" matches everything), a
// case-insensitive search over name and description, and the open-only flag.
func FilterRestaurants(list []models.Restaurant, f models.RestaurantFilter) []models.Restaurant {
	category := strings.ToLower(strings.TrimSpace(f.Category))
	search := strings.ToLower(strings.TrimSpace(f.Search))

	out := make([]models.Restaurant, 0, len(list))
	for _, r := range list {
		if category != "" && category != "all" && !strings.Contains(strings.ToLower(r.Category), category) {
			continue
		}
		if search != "" &&
			!strings.Contains(strings.ToLower(r.Name), search) &&
			!strings.Contains(strings.ToLower(r.Description), search) {
			continue
		}
		if f.OpenOnly && !r.IsOpen {
			continue
		}
		r.MenuItems = nil
		out = append(out, r)
	}
	return out
}

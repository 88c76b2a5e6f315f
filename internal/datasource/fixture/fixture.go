package fixture

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/Skotchmaster/storefront/internal/datasource"
	"github.com/Skotchmaster/storefront/internal/domain"
	"github.com/Skotchmaster/storefront/internal/hash"
	"github.com/Skotchmaster/storefront/internal/logging"
	"github.com/Skotchmaster/storefront/internal/models"
	"github.com/Skotchmaster/storefront/internal/token"
)

//go:embed fixtures.yaml
var fixturesYAML []byte

const tokenTTL = 30 * 24 * time.Hour

type accountRecord struct {
	ID             int64       `yaml:"id"`
	Name           string      `yaml:"name"`
	Email          string      `yaml:"email"`
	Password       string      `yaml:"password"`
	Phone          string      `yaml:"phone"`
	Role           models.Role `yaml:"user_type"`
	RestaurantName string      `yaml:"restaurant_name"`
	RestaurantID   int64       `yaml:"restaurant_id"`
	Address        string      `yaml:"address"`
	VehicleType    string      `yaml:"vehicle_type"`
}

type fixtureFile struct {
	Accounts    []accountRecord     `yaml:"accounts"`
	Restaurants []models.Restaurant `yaml:"restaurants"`
	Orders      []Order             `yaml:"orders"`
}

type account struct {
	user         models.User
	passwordHash string
	restaurantID int64
}

type Order struct {
	ID              string            `yaml:"id"`
	UserID          int64             `yaml:"user_id"`
	RestaurantID    int64             `yaml:"restaurant_id"`
	AgentID         int64             `yaml:"delivery_agent_id"`
	Items           []models.LineItem `yaml:"items"`
	Total           int64             `yaml:"total"`
	Status          string            `yaml:"status"`
	DeliveryAddress string            `yaml:"delivery_address"`
	CreatedAt       time.Time         `yaml:"created_at"`
}

// Source is an in-process marketplace backed by the embedded sample data.
// Tokens are real HS256 JWTs signed with the configured secret.
type Source struct {
	secret []byte
	cost   int
	now    func() time.Time

	mu          sync.Mutex
	accounts    map[string]*account
	nextUserID  int64
	restaurants []models.Restaurant
	menu        map[int64]models.MenuItem
	menuOwner   map[int64]int64
	history     []Order
	orders      []Order
	revoked     map[string]struct{}
}

var _ datasource.DataSource = (*Source)(nil)

func New(secret []byte, bcryptCost int) (*Source, error) {
	if len(secret) == 0 {
		return nil, errors.New("fixture: signing secret is required")
	}

	var file fixtureFile
	if err := yaml.Unmarshal(fixturesYAML, &file); err != nil {
		return nil, fmt.Errorf("fixture: decode samples: %w", err)
	}

	s := &Source{
		secret:      secret,
		cost:        bcryptCost,
		now:         time.Now,
		accounts:    make(map[string]*account, len(file.Accounts)),
		restaurants: file.Restaurants,
		menu:        make(map[int64]models.MenuItem),
		menuOwner:   make(map[int64]int64),
		history:     file.Orders,
		revoked:     make(map[string]struct{}),
	}

	for _, rec := range file.Accounts {
		h, err := hash.HashPassword(rec.Password, bcryptCost)
		if err != nil {
			return nil, fmt.Errorf("fixture: hash password for %s: %w", rec.Email, err)
		}
		s.accounts[strings.ToLower(rec.Email)] = &account{user: rec.toUser(), passwordHash: h, restaurantID: rec.RestaurantID}
		s.nextUserID = max(s.nextUserID, rec.ID)
	}
	for _, r := range file.Restaurants {
		for _, m := range r.MenuItems {
			s.menu[m.ID] = m
			s.menuOwner[m.ID] = r.ID
		}
	}
	return s, nil
}

func (s *Source) Login(ctx context.Context, creds models.Credentials) (models.Session, error) {
	creds, err := datasource.NormalizeCredentials(creds)
	if err != nil {
		return models.Session{}, err
	}

	s.mu.Lock()
	acc, ok := s.accounts[creds.Email]
	s.mu.Unlock()

	if !ok || acc.user.Role != creds.Role || !hash.CheckPassword(acc.passwordHash, creds.Password) {
		logging.FromContext(ctx).Warn("fixture_login_rejected", "email", creds.Email, "role", creds.Role)
		return models.Session{}, fmt.Errorf("invalid email or password: %w", domain.ErrUnauthorized)
	}
	return s.issue(acc.user)
}

func (s *Source) Register(ctx context.Context, reg models.Registration) (models.Session, error) {
	reg, err := datasource.NormalizeRegistration(reg)
	if err != nil {
		return models.Session{}, err
	}

	h, err := hash.HashPassword(reg.Password, s.cost)
	if err != nil {
		return models.Session{}, fmt.Errorf("hash password: %w", err)
	}

	s.mu.Lock()
	if _, exists := s.accounts[reg.Email]; exists {
		s.mu.Unlock()
		return models.Session{}, fmt.Errorf("email already registered: %w", domain.ErrConflict)
	}
	s.nextUserID++
	user := models.User{
		ID:          s.nextUserID,
		DisplayName: reg.Name,
		Email:       reg.Email,
		Phone:       reg.Phone,
		Role:        reg.Role,
	}
	switch reg.Role {
	case models.RoleRestaurant:
		closed := false
		user.RestaurantName = reg.RestaurantName
		if user.RestaurantName == "" {
			user.RestaurantName = reg.Name
		}
		user.Address = reg.Address
		user.IsOpen = &closed
	case models.RoleDelivery:
		available := true
		user.VehicleType = reg.VehicleType
		user.IsAvailable = &available
	}
	s.accounts[reg.Email] = &account{user: user, passwordHash: h}
	s.mu.Unlock()

	logging.FromContext(ctx).Info("fixture_account_created", "user_id", user.ID, "role", user.Role)
	return s.issue(user)
}

func (s *Source) Logout(_ context.Context, authHeader string) error {
	claims, err := s.authorize(authHeader)
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.revoked[claims.ID] = struct{}{}
	s.mu.Unlock()
	return nil
}

func (s *Source) Restaurants(_ context.Context, filter models.RestaurantFilter) ([]models.Restaurant, error) {
	return datasource.FilterRestaurants(s.restaurants, filter), nil
}

func (s *Source) Restaurant(_ context.Context, id int64) (models.Restaurant, error) {
	for _, r := range s.restaurants {
		if r.ID == id {
			r.MenuItems = slices.Clone(r.MenuItems)
			return r, nil
		}
	}
	return models.Restaurant{}, fmt.Errorf("restaurant %d: %w", id, domain.ErrNotFound)
}

func (s *Source) SubmitOrder(ctx context.Context, authHeader string, order models.OrderRequest) (string, error) {
	claims, err := s.authorize(authHeader)
	if err != nil {
		return "", err
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if len(order.Items) == 0 {
		return "", fmt.Errorf("order has no items: %w", domain.ErrValidation)
	}

	var total int64
	for _, it := range order.Items {
		m, ok := s.menu[it.ItemID]
		if !ok {
			return "", fmt.Errorf("menu item %d: %w", it.ItemID, domain.ErrValidation)
		}
		if !m.IsAvailable {
			return "", fmt.Errorf("menu item %d is not available: %w", it.ItemID, domain.ErrValidation)
		}
		if it.Quantity <= 0 {
			return "", fmt.Errorf("menu item %d: quantity must be positive: %w", it.ItemID, domain.ErrValidation)
		}
		total += it.Subtotal()
	}
	if total != order.Total {
		return "", fmt.Errorf("total %d does not match items %d: %w", order.Total, total, domain.ErrValidation)
	}

	o := Order{
		ID:           uuid.NewString(),
		UserID:       claims.UserID,
		RestaurantID: s.menuOwner[order.Items[0].ItemID],
		Items:        slices.Clone(order.Items),
		Total:        order.Total,
		Status:       models.OrderPending,
		CreatedAt:    s.now().UTC(),
	}

	s.mu.Lock()
	s.orders = append(s.orders, o)
	s.mu.Unlock()

	logging.FromContext(ctx).Info("fixture_order_created", "order_id", o.ID, "user_id", o.UserID, "total", o.Total)
	return o.ID, nil
}

// Orders returns the orders accepted by SubmitOrder so far, oldest first.
func (s *Source) Orders() []Order {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.orders)
}

func (s *Source) issue(user models.User) (models.Session, error) {
	tok, err := token.SignAccessToken(user.ID, user.Role, s.secret, tokenTTL, s.now())
	if err != nil {
		return models.Session{}, fmt.Errorf("sign token: %w", err)
	}
	return models.Session{Token: tok, User: user}, nil
}

func (s *Source) authorize(authHeader string) (token.Claims, error) {
	raw, ok := strings.CutPrefix(authHeader, "Bearer ")
	if !ok || raw == "" {
		return token.Claims{}, fmt.Errorf("bearer token missing: %w", domain.ErrUnauthorized)
	}

	claims, err := token.ParseAccessToken(raw, s.secret, s.now())
	if err != nil {
		return token.Claims{}, fmt.Errorf("%w: %w", domain.ErrUnauthorized, err)
	}

	s.mu.Lock()
	_, revoked := s.revoked[claims.ID]
	s.mu.Unlock()
	if revoked {
		return token.Claims{}, fmt.Errorf("token revoked: %w", domain.ErrUnauthorized)
	}
	return claims, nil
}

func (r accountRecord) toUser() models.User {
	u := models.User{
		ID:             r.ID,
		DisplayName:    r.Name,
		Email:          strings.ToLower(r.Email),
		Phone:          r.Phone,
		Role:           r.Role,
		RestaurantName: r.RestaurantName,
		Address:        r.Address,
		VehicleType:    r.VehicleType,
	}
	switch r.Role {
	case models.RoleRestaurant:
		open := true
		u.IsOpen = &open
	case models.RoleDelivery:
		available := true
		u.IsAvailable = &available
	}
	return u
}

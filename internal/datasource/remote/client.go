package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Skotchmaster/storefront/internal/datasource"
	"github.com/Skotchmaster/storefront/internal/domain"
	"github.com/Skotchmaster/storefront/internal/models"
)

const maxBodyBytes = 4 << 20

type Client struct {
	baseURL    *url.URL
	httpClient *http.Client
}

func NewClient(apiBaseURL string, timeout time.Duration) (*Client, error) {
	u, err := url.Parse(apiBaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("invalid API base URL %q", apiBaseURL)
	}
	return &Client{
		baseURL: u,
		httpClient: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				Proxy:               http.ProxyFromEnvironment,
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
	}, nil
}

var _ datasource.DataSource = (*Client)(nil)

type menuItemDTO struct {
	ID          int64   `json:"id"`
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Price       float64 `json:"price"`
	Category    string  `json:"category"`
	IsAvailable bool    `json:"is_available"`
}

type restaurantDTO struct {
	ID           int64         `json:"id"`
	Name         string        `json:"name"`
	Description  string        `json:"description"`
	Category     string        `json:"category"`
	Address      string        `json:"address"`
	Phone        string        `json:"phone"`
	IsOpen       bool          `json:"is_open"`
	Rating       float64       `json:"rating"`
	DeliveryTime string        `json:"delivery_time"`
	DeliveryFee  float64       `json:"delivery_fee"`
	MenuItems    []menuItemDTO `json:"menu_items"`
}

type envelope struct {
	Success     bool            `json:"success"`
	Message     string          `json:"message"`
	Token       string          `json:"token"`
	User        *models.User    `json:"user"`
	Restaurants []restaurantDTO `json:"restaurants"`
	Restaurant  *restaurantDTO  `json:"restaurant"`
	OrderID     json.Number     `json:"order_id"`
	Orders      []orderDTO      `json:"orders"`
	Stats       *statsDTO       `json:"stats"`
	Users       []models.User   `json:"users"`
	Agents      []models.User   `json:"agents"`
}

func (c *Client) Login(ctx context.Context, creds models.Credentials) (models.Session, error) {
	creds, err := datasource.NormalizeCredentials(creds)
	if err != nil {
		return models.Session{}, err
	}

	var env envelope
	if err := c.do(ctx, http.MethodPost, "auth/login", nil, "", creds, &env); err != nil {
		return models.Session{}, err
	}
	return sessionFrom(env)
}

func (c *Client) Register(ctx context.Context, reg models.Registration) (models.Session, error) {
	reg, err := datasource.NormalizeRegistration(reg)
	if err != nil {
		return models.Session{}, err
	}

	var env envelope
	if err := c.do(ctx, http.MethodPost, "auth/register", nil, "", reg, &env); err != nil {
		return models.Session{}, err
	}
	return sessionFrom(env)
}

func (c *Client) Logout(ctx context.Context, authHeader string) error {
	return c.do(ctx, http.MethodPost, "auth/logout", nil, authHeader, nil, &envelope{})
}

func (c *Client) Restaurants(ctx context.Context, filter models.RestaurantFilter) ([]models.Restaurant, error) {
	q := url.Values{}
	if filter.Category != "" {
		q.Set("category", filter.Category)
	}
	if filter.Search != "" {
		q.Set("search", filter.Search)
	}
	if filter.OpenOnly {
		q.Set("is_open", "true")
	}

	var env envelope
	if err := c.do(ctx, http.MethodGet, "restaurants", q, "", nil, &env); err != nil {
		return nil, err
	}

	out := make([]models.Restaurant, 0, len(env.Restaurants))
	for _, r := range env.Restaurants {
		out = append(out, r.toModel())
	}
	return out, nil
}

func (c *Client) Restaurant(ctx context.Context, id int64) (models.Restaurant, error) {
	var env envelope
	if err := c.do(ctx, http.MethodGet, "restaurants/"+strconv.FormatInt(id, 10), nil, "", nil, &env); err != nil {
		return models.Restaurant{}, err
	}
	if env.Restaurant == nil {
		return models.Restaurant{}, fmt.Errorf("%w: restaurant missing in response", domain.ErrRemoteFailure)
	}
	return env.Restaurant.toModel(), nil
}

func (c *Client) SubmitOrder(ctx context.Context, authHeader string, order models.OrderRequest) (string, error) {
	var env envelope
	if err := c.do(ctx, http.MethodPost, "orders", nil, authHeader, order, &env); err != nil {
		return "", err
	}
	if env.OrderID == "" {
		return "", fmt.Errorf("%w: order id missing in response", domain.ErrRemoteFailure)
	}
	return env.OrderID.String(), nil
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, authHeader string, body, out any) error {
	u := c.baseURL.JoinPath(path)
	if len(query) > 0 {
		u.RawQuery = query.Encode()
	}

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, u.String(), reader)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: do request: %w", domain.ErrRemoteFailure, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return fmt.Errorf("%w: read response: %w", domain.ErrRemoteFailure, err)
	}

	var env envelope
	_ = json.Unmarshal(raw, &env)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return statusError(resp.StatusCode, env.Message)
	}

	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("%w: decode response: %w", domain.ErrRemoteFailure, err)
	}
	if e, ok := out.(*envelope); ok && !e.Success {
		return fmt.Errorf("%w: %s", domain.ErrRemoteFailure, messageOr(e.Message, "request rejected"))
	}
	return nil
}

func statusError(code int, msg string) error {
	msg = messageOr(msg, http.StatusText(code))
	switch code {
	case http.StatusUnauthorized:
		return fmt.Errorf("%w: %s", domain.ErrUnauthorized, msg)
	case http.StatusForbidden:
		return fmt.Errorf("%w: %s", domain.ErrForbidden, msg)
	case http.StatusNotFound:
		return fmt.Errorf("%w: %s", domain.ErrNotFound, msg)
	case http.StatusBadRequest:
		return fmt.Errorf("%w: %s", domain.ErrValidation, msg)
	default:
		return fmt.Errorf("%w: status %d: %s", domain.ErrRemoteFailure, code, msg)
	}
}

func messageOr(msg, def string) string {
	if msg == "" {
		return def
	}
	return msg
}

func sessionFrom(env envelope) (models.Session, error) {
	if env.Token == "" || env.User == nil {
		return models.Session{}, fmt.Errorf("%w: token or user missing in response", domain.ErrRemoteFailure)
	}
	return models.Session{Token: env.Token, User: *env.User}, nil
}

func (r restaurantDTO) toModel() models.Restaurant {
	out := models.Restaurant{
		ID:           r.ID,
		Name:         r.Name,
		Description:  r.Description,
		Category:     r.Category,
		Address:      r.Address,
		Phone:        r.Phone,
		IsOpen:       r.IsOpen,
		Rating:       r.Rating,
		DeliveryTime: r.DeliveryTime,
		DeliveryFee:  toMinor(r.DeliveryFee),
	}
	for _, m := range r.MenuItems {
		out.MenuItems = append(out.MenuItems, models.MenuItem{
			ID:          m.ID,
			Name:        m.Name,
			Description: m.Description,
			Price:       toMinor(m.Price),
			Category:    m.Category,
			IsAvailable: m.IsAvailable,
		})
	}
	return out
}

// toMinor rounds an API amount to a whole currency unit.
func toMinor(v float64) int64 {
	return decimal.NewFromFloat(v).Round(0).IntPart()
}

package httpserver

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/storefront/internal/cart"
	"github.com/Skotchmaster/storefront/internal/domain"
	"github.com/Skotchmaster/storefront/internal/logging"
	"github.com/Skotchmaster/storefront/internal/models"
	"github.com/Skotchmaster/storefront/internal/service"
	"github.com/Skotchmaster/storefront/internal/util"
)

type StorefrontHTTP struct {
	Svc *service.Storefront
}

func (h *StorefrontHTTP) State(c echo.Context) error {
	return c.JSON(http.StatusOK, h.Svc.View())
}

func (h *StorefrontHTTP) Login(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "session.login")

	var req models.Credentials
	if err := c.Bind(&req); err != nil {
		l.Warn("login_error", "status", 400, "error", err)
		return c.JSON(http.StatusBadRequest, "invalid body")
	}

	user, err := h.Svc.Login(ctx, req)
	if err != nil {
		return fail(c, l, "login_error", err)
	}

	l.Info("user logged in", "user_id", user.ID, "role", user.Role)
	return c.JSON(http.StatusOK, h.Svc.View())
}

func (h *StorefrontHTTP) Register(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "session.register")

	var req models.Registration
	if err := c.Bind(&req); err != nil {
		l.Warn("register_error", "status", 400, "error", err)
		return c.JSON(http.StatusBadRequest, "invalid body")
	}

	user, err := h.Svc.Register(ctx, req)
	if err != nil {
		return fail(c, l, "register_error", err)
	}

	l.Info("user registered", "user_id", user.ID, "role", user.Role)
	return c.JSON(http.StatusCreated, h.Svc.View())
}

func (h *StorefrontHTTP) Logout(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "session.logout")

	if err := h.Svc.Logout(ctx); err != nil {
		return fail(c, l, "logout_error", err)
	}
	return c.JSON(http.StatusOK, h.Svc.View())
}

func (h *StorefrontHTTP) Restaurants(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "restaurants.list")

	filter := models.RestaurantFilter{
		Category: c.QueryParam("category"),
		Search:   c.QueryParam("search"),
	}
	if v := c.QueryParam("open"); v != "" {
		open, err := strconv.ParseBool(v)
		if err != nil {
			l.Warn("restaurants_error", "status", 400, "error", err)
			return c.JSON(http.StatusBadRequest, "open must be a boolean")
		}
		filter.OpenOnly = open
	}

	list, err := h.Svc.Restaurants(ctx, filter)
	if err != nil {
		return fail(c, l, "restaurants_error", err)
	}

	if c.QueryParam("page") != "" || c.QueryParam("size") != "" {
		page, _ := strconv.Atoi(c.QueryParam("page"))
		size, _ := strconv.Atoi(c.QueryParam("size"))
		list = util.Paginate(list, page, size)
	}
	return c.JSON(http.StatusOK, list)
}

func (h *StorefrontHTTP) Restaurant(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "restaurants.get")

	id, err := pathID(c)
	if err != nil {
		l.Warn("restaurant_error", "status", 400, "error", err)
		return c.JSON(http.StatusBadRequest, "invalid id")
	}

	r, err := h.Svc.Restaurant(ctx, id)
	if err != nil {
		return fail(c, l, "restaurant_error", err)
	}
	return c.JSON(http.StatusOK, r)
}

func (h *StorefrontHTTP) AddToCart(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "cart.add")

	var req struct {
		ID    int64  `json:"id"`
		Name  string `json:"name"`
		Price int64  `json:"price"`
	}
	if err := c.Bind(&req); err != nil {
		l.Warn("add_to_cart_error", "status", 400, "error", err)
		return c.JSON(http.StatusBadRequest, "invalid body")
	}

	if _, err := h.Svc.AddToCart(ctx, req.ID, req.Name, req.Price); err != nil {
		return fail(c, l, "add_to_cart_error", err)
	}
	return c.JSON(http.StatusCreated, h.Svc.View())
}

func (h *StorefrontHTTP) SetQuantity(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "cart.set_quantity")

	id, err := pathID(c)
	if err != nil {
		l.Warn("set_quantity_error", "status", 400, "error", err)
		return c.JSON(http.StatusBadRequest, "invalid id")
	}

	var req struct {
		Quantity *float64 `json:"quantity"`
	}
	if err := c.Bind(&req); err != nil || req.Quantity == nil {
		l.Warn("set_quantity_error", "status", 400, "error", err)
		return c.JSON(http.StatusBadRequest, "quantity required")
	}

	qty, err := cart.QuantityFromNumber(*req.Quantity)
	if err != nil {
		return fail(c, l, "set_quantity_error", err)
	}
	if _, err := h.Svc.SetQuantity(ctx, id, qty); err != nil {
		return fail(c, l, "set_quantity_error", err)
	}
	return c.JSON(http.StatusOK, h.Svc.View())
}

func (h *StorefrontHTTP) RemoveFromCart(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "cart.remove")

	id, err := pathID(c)
	if err != nil {
		l.Warn("remove_from_cart_error", "status", 400, "error", err)
		return c.JSON(http.StatusBadRequest, "invalid id")
	}

	h.Svc.RemoveFromCart(ctx, id)
	return c.JSON(http.StatusOK, h.Svc.View())
}

func (h *StorefrontHTTP) ClearCart(c echo.Context) error {
	h.Svc.ClearCart(c.Request().Context())
	return c.JSON(http.StatusOK, h.Svc.View())
}

func (h *StorefrontHTTP) Checkout(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "cart.checkout")

	receipt, err := h.Svc.Checkout(ctx)
	if err != nil {
		return fail(c, l, "checkout_error", err)
	}

	l.Info("order submitted", "order_id", receipt.OrderID)
	return c.JSON(http.StatusCreated, receipt)
}

func pathID(c echo.Context) (int64, error) {
	return strconv.ParseInt(c.Param("id"), 10, 64)
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrAuthenticationRequired), errors.Is(err, domain.ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, domain.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, domain.ErrConflict):
		return http.StatusConflict
	case errors.Is(err, domain.ErrRemoteFailure):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func fail(c echo.Context, l *slog.Logger, msg string, err error) error {
	status := statusFor(err)
	if status >= 500 {
		l.Error(msg, "status", status, "error", err)
	} else {
		l.Warn(msg, "status", status, "error", err)
	}
	if status == http.StatusInternalServerError {
		return c.JSON(status, "internal error")
	}
	return c.JSON(status, err.Error())
}

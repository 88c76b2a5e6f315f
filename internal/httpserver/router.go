package httpserver

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"
)

type Deps struct {
	Storefront *StorefrontHTTP
	// Ready reports whether the backing stores answer; nil means always ready.
	Ready func(ctx context.Context) error
}

func Register(e *echo.Echo, d *Deps) {
	e.GET("/health/live", func(c echo.Context) error { return c.NoContent(http.StatusOK) })
	e.GET("/health/ready", func(c echo.Context) error {
		if d.Ready != nil {
			if err := d.Ready(c.Request().Context()); err != nil {
				return c.JSON(http.StatusServiceUnavailable, err.Error())
			}
		}
		return c.NoContent(http.StatusOK)
	})

	e.GET("/state", d.Storefront.State)

	sess := e.Group("/session")
	sess.POST("/login", d.Storefront.Login)
	sess.POST("/register", d.Storefront.Register)
	sess.DELETE("", d.Storefront.Logout)

	e.GET("/restaurants", d.Storefront.Restaurants)
	e.GET("/restaurants/:id", d.Storefront.Restaurant)

	cart := e.Group("/cart")
	cart.POST("/items", d.Storefront.AddToCart)
	cart.PUT("/items/:id", d.Storefront.SetQuantity)
	cart.DELETE("/items/:id", d.Storefront.RemoveFromCart)
	cart.DELETE("", d.Storefront.ClearCart)
	cart.POST("/checkout", d.Storefront.Checkout)

	e.GET("/orders", d.Storefront.OrderHistory)
	e.GET("/restaurant/orders", d.Storefront.RestaurantOrders)
	e.GET("/delivery/available-orders", d.Storefront.AvailableDeliveries)

	admin := e.Group("/admin")
	admin.GET("/stats", d.Storefront.AdminStats)
	admin.GET("/users", d.Storefront.AdminUsers)
	admin.GET("/orders", d.Storefront.AdminOrders)
	admin.GET("/delivery-agents", d.Storefront.AdminDeliveryAgents)
}

package models

import "time"

type Role string

const (
	RoleCustomer   Role = "customer"
	RoleRestaurant Role = "restaurant"
	RoleDelivery   Role = "delivery_agent"
	RoleAdmin      Role = "admin"
)

func (r Role) Valid() bool {
	switch r {
	case RoleCustomer, RoleRestaurant, RoleDelivery, RoleAdmin:
		return true
	}
	return false
}

type User struct {
	ID          int64  `json:"id"`
	DisplayName string `json:"name"`
	Email       string `json:"email,omitempty"`
	Phone       string `json:"phone,omitempty"`
	Role        Role   `json:"user_type"`

	RestaurantName string `json:"restaurant_name,omitempty"`
	Address        string `json:"address,omitempty"`
	IsOpen         *bool  `json:"is_open,omitempty"`

	VehicleType string `json:"vehicle_type,omitempty"`
	IsAvailable *bool  `json:"is_available,omitempty"`
}

type Session struct {
	Token string `json:"token"`
	User  User   `json:"user"`
}

// Amounts are in the smallest currency unit.
type LineItem struct {
	ItemID    int64  `json:"id"       yaml:"id"`
	Name      string `json:"name"     yaml:"name"`
	UnitPrice int64  `json:"price"    yaml:"price"`
	Quantity  int    `json:"quantity" yaml:"quantity"`
}

func (li LineItem) Subtotal() int64 {
	return li.UnitPrice * int64(li.Quantity)
}

type OrderRequest struct {
	Items []LineItem `json:"items"`
	Total int64      `json:"total"`
}

type OrderReceipt struct {
	OrderID     string     `json:"order_id"`
	Items       []LineItem `json:"items"`
	Total       int64      `json:"total"`
	SubmittedAt time.Time  `json:"submitted_at"`
}

const (
	OrderPending        = "pending"
	OrderPreparing      = "preparing"
	OrderReady          = "ready"
	OrderOutForDelivery = "out_for_delivery"
	OrderDelivered      = "delivered"
	OrderCancelled      = "cancelled"
)

// OrderSummary is an order as the role screens list it.
type OrderSummary struct {
	ID              string     `json:"id"`
	CustomerName    string     `json:"customer_name,omitempty"`
	RestaurantName  string     `json:"restaurant_name,omitempty"`
	AgentName       string     `json:"delivery_agent_name,omitempty"`
	Items           []LineItem `json:"items,omitempty"`
	Total           int64      `json:"total"`
	Status          string     `json:"status"`
	DeliveryAddress string     `json:"delivery_address,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
}

type AdminStats struct {
	TotalUsers       int   `json:"total_users"`
	TotalRestaurants int   `json:"total_restaurants"`
	TotalOrders      int   `json:"total_orders"`
	TotalRevenue     int64 `json:"total_revenue"`
}

type MenuItem struct {
	ID          int64  `json:"id"          yaml:"id"`
	Name        string `json:"name"        yaml:"name"`
	Description string `json:"description" yaml:"description"`
	Price       int64  `json:"price"       yaml:"price"`
	Category    string `json:"category"    yaml:"category"`
	IsAvailable bool   `json:"is_available" yaml:"is_available"`
}

type Restaurant struct {
	ID           int64      `json:"id"            yaml:"id"`
	Name         string     `json:"name"          yaml:"name"`
	Description  string     `json:"description"   yaml:"description"`
	Category     string     `json:"category"      yaml:"category"`
	Address      string     `json:"address"       yaml:"address"`
	Phone        string     `json:"phone"         yaml:"phone"`
	IsOpen       bool       `json:"is_open"       yaml:"is_open"`
	Rating       float64    `json:"rating"        yaml:"rating"`
	DeliveryTime string     `json:"delivery_time" yaml:"delivery_time"`
	DeliveryFee  int64      `json:"delivery_fee"  yaml:"delivery_fee"`
	MenuItems    []MenuItem `json:"menu_items,omitempty" yaml:"menu_items"`
}

type RestaurantFilter struct {
	Category string
	Search   string
	OpenOnly bool
}

type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     Role   `json:"user_type"`
}

type Registration struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Phone    string `json:"phone"`
	Role     Role   `json:"user_type"`

	RestaurantName string `json:"restaurant_name,omitempty"`
	Address        string `json:"address,omitempty"`
	VehicleType    string `json:"vehicle_type,omitempty"`
}

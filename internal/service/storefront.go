package service

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/Skotchmaster/storefront/internal/cart"
	"github.com/Skotchmaster/storefront/internal/datasource"
	"github.com/Skotchmaster/storefront/internal/domain"
	"github.com/Skotchmaster/storefront/internal/events"
	"github.com/Skotchmaster/storefront/internal/logging"
	"github.com/Skotchmaster/storefront/internal/models"
	"github.com/Skotchmaster/storefront/internal/session"
)

type Screen string

const (
	ScreenAuth       Screen = "auth"
	ScreenCustomer   Screen = "customer"
	ScreenRestaurant Screen = "restaurant"
	ScreenDelivery   Screen = "delivery"
	ScreenAdmin      Screen = "admin"
)

// View is what the renderer needs to draw the current state.
type View struct {
	Screen           Screen        `json:"screen"`
	User             *models.User  `json:"user,omitempty"`
	Cart             cart.Snapshot `json:"cart"`
	CheckoutInFlight bool          `json:"checkout_in_flight"`
}

// Storefront maps user commands onto the session, the cart and the data
// source, and publishes an event after every state change.
type Storefront struct {
	sessions *session.Store
	cart     *cart.Manager
	source   datasource.DataSource
	bus      *events.Bus

	// owner is the last user the cart was built for; it survives a session
	// ended by the backend so the same user can sign back in and retry.
	ownerMu sync.Mutex
	owner   int64
}

func NewStorefront(sessions *session.Store, source datasource.DataSource, bus *events.Bus) *Storefront {
	return &Storefront{
		sessions: sessions,
		cart:     cart.NewManager(source, sessions),
		source:   source,
		bus:      bus,
	}
}

func (s *Storefront) Restore(ctx context.Context) *models.Session {
	sess := s.sessions.Restore(ctx)
	if sess != nil {
		s.setOwner(sess.User.ID)
		s.publish(ctx, events.SessionEstablished, map[string]any{"restored": true, "role": sess.User.Role})
	}
	return sess
}

func (s *Storefront) Login(ctx context.Context, creds models.Credentials) (models.User, error) {
	sess, err := s.source.Login(ctx, creds)
	if err != nil {
		return models.User{}, err
	}
	return s.establish(ctx, sess)
}

func (s *Storefront) Register(ctx context.Context, reg models.Registration) (models.User, error) {
	sess, err := s.source.Register(ctx, reg)
	if err != nil {
		return models.User{}, err
	}
	return s.establish(ctx, sess)
}

func (s *Storefront) establish(ctx context.Context, sess models.Session) (models.User, error) {
	previous := s.userID()
	if previous == 0 {
		previous = s.currentOwner()
	}

	if err := s.sessions.Establish(ctx, sess.Token, sess.User); err != nil {
		return models.User{}, err
	}
	s.setOwner(sess.User.ID)
	s.publish(ctx, events.SessionEstablished, map[string]any{"role": sess.User.Role})

	// another user's lines must not be submitted under this account
	if previous != 0 && previous != sess.User.ID {
		s.cart.Clear()
		s.publish(ctx, events.CartChanged, s.cartPayload())
	}
	return sess.User, nil
}

func (s *Storefront) setOwner(id int64) {
	s.ownerMu.Lock()
	s.owner = id
	s.ownerMu.Unlock()
}

func (s *Storefront) currentOwner() int64 {
	s.ownerMu.Lock()
	defer s.ownerMu.Unlock()
	return s.owner
}

// Logout ends the session and empties the cart. The remote revocation is
// best effort; local state is cleared regardless.
func (s *Storefront) Logout(ctx context.Context) error {
	l := logging.FromContext(ctx).With("svc", "storefront.logout")

	userID := s.userID()
	if header, ok := s.sessions.AuthHeader(); ok {
		if err := s.source.Logout(ctx, header); err != nil {
			l.Warn("remote_logout_failed", "error", err)
		}
	}

	err := s.sessions.Clear(ctx)
	s.cart.Clear()
	s.setOwner(0)

	s.bus.Publish(ctx, events.Event{Type: events.SessionCleared, UserID: userID})
	s.bus.Publish(ctx, events.Event{Type: events.CartChanged, UserID: userID, Payload: s.cartPayload()})
	return err
}

func (s *Storefront) Restaurants(ctx context.Context, filter models.RestaurantFilter) ([]models.Restaurant, error) {
	return s.source.Restaurants(ctx, filter)
}

func (s *Storefront) Restaurant(ctx context.Context, id int64) (models.Restaurant, error) {
	return s.source.Restaurant(ctx, id)
}

func (s *Storefront) AddToCart(ctx context.Context, itemID int64, name string, unitPrice int64) (models.LineItem, error) {
	item, err := s.cart.Add(itemID, name, unitPrice)
	if err != nil {
		return models.LineItem{}, err
	}
	s.publish(ctx, events.CartChanged, s.cartPayload())
	return item, nil
}

func (s *Storefront) SetQuantity(ctx context.Context, itemID int64, quantity int) (*models.LineItem, error) {
	item, err := s.cart.SetQuantity(itemID, quantity)
	if err != nil {
		return nil, err
	}
	s.publish(ctx, events.CartChanged, s.cartPayload())
	return item, nil
}

func (s *Storefront) RemoveFromCart(ctx context.Context, itemID int64) {
	s.cart.Remove(itemID)
	s.publish(ctx, events.CartChanged, s.cartPayload())
}

func (s *Storefront) ClearCart(ctx context.Context) {
	s.cart.Clear()
	s.publish(ctx, events.CartChanged, s.cartPayload())
}

// Checkout submits the cart. A credential rejected by the backend ends the
// session but keeps the cart so the order can be retried after signing in.
func (s *Storefront) Checkout(ctx context.Context) (models.OrderReceipt, error) {
	l := logging.FromContext(ctx).With("svc", "storefront.checkout")

	receipt, err := s.cart.Checkout(ctx)
	if err != nil {
		s.dropRejectedSession(ctx, l, err)
		if errors.Is(err, domain.ErrRemoteFailure) {
			s.publish(ctx, events.CheckoutFailed, map[string]any{"error": err.Error()})
		}
		return models.OrderReceipt{}, err
	}

	s.publish(ctx, events.OrderSubmitted, map[string]any{
		"order_id": receipt.OrderID,
		"total":    receipt.Total,
		"items":    len(receipt.Items),
	})
	s.publish(ctx, events.CartChanged, s.cartPayload())
	return receipt, nil
}

// dropRejectedSession ends the session when the backend rejected its
// credential. The cart is left alone.
func (s *Storefront) dropRejectedSession(ctx context.Context, l *slog.Logger, err error) {
	if !errors.Is(err, domain.ErrUnauthorized) {
		return
	}
	l.Warn("session_rejected", "error", err)
	userID := s.userID()
	if cerr := s.sessions.Clear(ctx); cerr != nil {
		l.Error("session_clear_failed", "error", cerr)
	}
	s.bus.Publish(ctx, events.Event{Type: events.SessionCleared, UserID: userID, Payload: map[string]any{"reason": "unauthorized"}})
}

func (s *Storefront) View() View {
	v := View{
		Screen:           ScreenAuth,
		Cart:             s.cart.Snapshot(),
		CheckoutInFlight: s.cart.CheckoutInFlight(),
	}
	if sess := s.sessions.Current(); sess != nil {
		u := sess.User
		v.User = &u
		v.Screen = screenFor(u.Role)
	}
	return v
}

func screenFor(role models.Role) Screen {
	switch role {
	case models.RoleRestaurant:
		return ScreenRestaurant
	case models.RoleDelivery:
		return ScreenDelivery
	case models.RoleAdmin:
		return ScreenAdmin
	default:
		return ScreenCustomer
	}
}

func (s *Storefront) publish(ctx context.Context, t events.Type, payload map[string]any) {
	s.bus.Publish(ctx, events.Event{Type: t, UserID: s.userID(), Payload: payload})
}

func (s *Storefront) userID() int64 {
	if sess := s.sessions.Current(); sess != nil {
		return sess.User.ID
	}
	return 0
}

func (s *Storefront) cartPayload() map[string]any {
	snap := s.cart.Snapshot()
	return map[string]any{"item_count": snap.ItemCount, "total": snap.Total}
}

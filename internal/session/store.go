package session

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/Skotchmaster/storefront/internal/domain"
	"github.com/Skotchmaster/storefront/internal/kvstore"
	"github.com/Skotchmaster/storefront/internal/logging"
	"github.com/Skotchmaster/storefront/internal/models"
)

const eraseAttempts = 3

// Store holds the signed-in actor and mirrors it into a key/value store
// under two keys. The token and the user are always written and erased together.
type Store struct {
	kv       kvstore.Store
	tokenKey string
	userKey  string
	now      func() time.Time

	// wmu serializes writers so storage and memory change in the same order.
	wmu     sync.Mutex
	mu      sync.RWMutex
	current *models.Session
}

func NewStore(kv kvstore.Store, tokenKey, userKey string) *Store {
	return &Store{
		kv:       kv,
		tokenKey: tokenKey,
		userKey:  userKey,
		now:      time.Now,
	}
}

// Restore loads the persisted session. Anything short of a complete, valid
// pair of records yields nil and erases what was stored.
func (s *Store) Restore(ctx context.Context) *models.Session {
	l := logging.FromContext(ctx).With("svc", "session.restore")

	s.wmu.Lock()
	defer s.wmu.Unlock()

	token, hasToken, err := s.kv.Get(ctx, s.tokenKey)
	if err != nil {
		l.Warn("restore_failed", "reason", "cannot read token", "error", err)
		s.setCurrent(nil)
		return nil
	}
	rawUser, hasUser, err := s.kv.Get(ctx, s.userKey)
	if err != nil {
		l.Warn("restore_failed", "reason", "cannot read user", "error", err)
		s.setCurrent(nil)
		return nil
	}

	if !hasToken && !hasUser {
		s.setCurrent(nil)
		return nil
	}

	var user models.User
	reason := ""
	switch {
	case !hasToken || token == "":
		reason = "token missing"
	case !hasUser:
		reason = "user missing"
	case json.Unmarshal([]byte(rawUser), &user) != nil:
		reason = "user record corrupted"
	case validateUser(user) != nil:
		reason = "user record invalid"
	case tokenExpired(token, s.now()):
		reason = "token expired"
	}

	if reason != "" {
		l.Warn("restore_discarded", "reason", reason)
		if err := s.clear(ctx); err != nil {
			l.Error("restore_cleanup_failed", "error", err)
		}
		return nil
	}

	sess := &models.Session{Token: token, User: user}
	s.setCurrent(sess)
	l.Info("session restored", "user_id", user.ID, "role", user.Role)
	return copySession(sess)
}

func (s *Store) Establish(ctx context.Context, token string, user models.User) error {
	if token == "" {
		return fmt.Errorf("token must not be empty: %w", domain.ErrValidation)
	}
	if err := validateUser(user); err != nil {
		return err
	}

	raw, err := json.Marshal(user)
	if err != nil {
		return fmt.Errorf("encode user: %w", err)
	}

	s.wmu.Lock()
	defer s.wmu.Unlock()

	if err := s.kv.Set(ctx, map[string]string{
		s.tokenKey: token,
		s.userKey:  string(raw),
	}); err != nil {
		return fmt.Errorf("persist session: %w", err)
	}

	s.setCurrent(&models.Session{Token: token, User: user})
	return nil
}

func (s *Store) Clear(ctx context.Context) error {
	s.wmu.Lock()
	defer s.wmu.Unlock()
	return s.clear(ctx)
}

// clear drops the in-memory session first, so a storage failure can never
// leave the caller signed in. The erase is retried; if it still fails the
// stored pair survives until the next successful Clear or Establish.
func (s *Store) clear(ctx context.Context) error {
	l := logging.FromContext(ctx).With("svc", "session.clear")

	s.setCurrent(nil)

	var err error
	for attempt := 1; attempt <= eraseAttempts; attempt++ {
		if err = s.kv.Delete(ctx, s.tokenKey, s.userKey); err == nil {
			return nil
		}
		l.Warn("session_erase_retry", "attempt", attempt, "error", err)
		if ctx.Err() != nil {
			break
		}
	}
	l.Error("session_erase_failed", "error", err)
	return fmt.Errorf("erase session: %w", err)
}

func (s *Store) Current() *models.Session {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return copySession(s.current)
}

func (s *Store) AuthHeader() (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.current == nil {
		return "", false
	}
	return "Bearer " + s.current.Token, true
}

func (s *Store) setCurrent(sess *models.Session) {
	s.mu.Lock()
	s.current = sess
	s.mu.Unlock()
}

func copySession(sess *models.Session) *models.Session {
	if sess == nil {
		return nil
	}
	cp := *sess
	return &cp
}

func validateUser(u models.User) error {
	if u.ID <= 0 {
		return fmt.Errorf("user id must be positive: %w", domain.ErrValidation)
	}
	if !u.Role.Valid() {
		return fmt.Errorf("unknown role %q: %w", u.Role, domain.ErrValidation)
	}
	return nil
}

// tokenExpired reports whether token is a JWT whose exp claim has passed.
// Opaque tokens never expire client-side.
func tokenExpired(token string, now time.Time) bool {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return false
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return false
	}
	return !exp.After(now)
}

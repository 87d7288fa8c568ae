// Package localstore implements the local fallback store: the durable
// key-value collaborator the reconciler consults when the remote API is
// unreachable, and the store orders are written to FIRST on every submission.
//
// Layout mirrors what the storefront keeps client-side:
//   - registeredUsers        JSON array of locally registered accounts
//   - orders_<userId>        JSON array of submitted orders, append-only
//   - accessToken / userId / username   scalar credential keys
//
// The backing Memory may be in-memory (tests, demos) or Redis (durable across
// restarts).
package localstore

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/fastfoodmaniya/storefront/core"
)

const (
	keyRegisteredUsers = "registeredUsers"
	keyAccessToken     = "accessToken"
	keyUserID          = "userId"
	keyUsername        = "username"
)

func ordersKey(userID string) string {
	return "orders_" + userID
}

// Store is the local fallback store over a Memory backend
type Store struct {
	mem    core.Memory
	logger core.Logger
	ttl    time.Duration
}

// Options configures the store
type Options struct {
	Memory core.Memory
	Logger core.Logger
	// TTL applies to every write; zero means keep forever
	TTL time.Duration
}

// NewStore creates a fallback store
func NewStore(opts Options) *Store {
	if opts.Memory == nil {
		opts.Memory = core.NewMemoryStore()
	}
	if opts.Logger == nil {
		opts.Logger = &core.NoOpLogger{}
	}
	return &Store{
		mem:    opts.Memory,
		logger: opts.Logger,
		ttl:    opts.TTL,
	}
}

// RegisterUser stores a new account. A duplicate email returns ErrUserExists
// and leaves the store unchanged.
func (s *Store) RegisterUser(ctx context.Context, username, email, password string) (core.User, error) {
	users, err := s.registeredUsers(ctx)
	if err != nil {
		return core.User{}, err
	}

	for _, u := range users {
		if u.Email == email {
			return core.User{}, fmt.Errorf("localstore.RegisterUser [%s]: %w", email, core.ErrUserExists)
		}
	}

	user := core.User{
		ID:        "user_" + uuid.New().String(),
		Username:  username,
		Email:     email,
		Password:  password,
		CreatedAt: time.Now().UTC(),
	}

	users = append(users, user)
	if err := s.writeJSON(ctx, keyRegisteredUsers, users); err != nil {
		return core.User{}, err
	}

	s.logger.Info("User registered locally", map[string]interface{}{
		"operation": "local_register",
		"user_id":   user.ID,
	})

	return user, nil
}

// Authenticate matches email and password against the registered users and
// mints a local credential. No match returns ErrCredentialRejected.
func (s *Store) Authenticate(ctx context.Context, email, password string) (core.Credential, error) {
	users, err := s.registeredUsers(ctx)
	if err != nil {
		return core.Credential{}, err
	}

	for _, u := range users {
		if u.Email == email && u.Password == password {
			cred := core.Credential{
				AccessToken: fmt.Sprintf("local_%s_%d", u.ID, time.Now().UnixMilli()),
				UserID:      u.ID,
				DisplayName: u.Username,
			}
			return cred, nil
		}
	}

	return core.Credential{}, fmt.Errorf("localstore.Authenticate [%s]: %w", email, core.ErrCredentialRejected)
}

// Profile returns the account view for a locally registered user
func (s *Store) Profile(ctx context.Context, userID string) (core.UserProfile, error) {
	users, err := s.registeredUsers(ctx)
	if err != nil {
		return core.UserProfile{}, err
	}
	for _, u := range users {
		if u.ID == userID {
			return core.UserProfile{Username: u.Username, Email: u.Email}, nil
		}
	}
	return core.UserProfile{}, fmt.Errorf("localstore.Profile [%s]: %w", userID, core.ErrUserNotFound)
}

// AppendOrder appends an order to the user's local history. The history is
// append-only; existing entries are never rewritten.
func (s *Store) AppendOrder(ctx context.Context, order core.Order) error {
	if order.UserID == "" {
		return fmt.Errorf("localstore.AppendOrder [%s]: missing user id: %w", order.ID, core.ErrInvalidConfiguration)
	}

	orders, err := s.Orders(ctx, order.UserID)
	if err != nil {
		return err
	}

	orders = append(orders, order)
	if err := s.writeJSON(ctx, ordersKey(order.UserID), orders); err != nil {
		return err
	}

	s.logger.Info("Order persisted locally", map[string]interface{}{
		"operation": "local_order_append",
		"order_id":  order.ID,
		"user_id":   order.UserID,
		"total":     order.Total,
	})

	return nil
}

// Orders returns the user's local order history, oldest first
func (s *Store) Orders(ctx context.Context, userID string) ([]core.Order, error) {
	raw, err := s.mem.Get(ctx, ordersKey(userID))
	if err != nil {
		return nil, fmt.Errorf("localstore.Orders [%s]: %w", userID, err)
	}
	if raw == "" {
		return nil, nil
	}

	var orders []core.Order
	if err := json.Unmarshal([]byte(raw), &orders); err != nil {
		// A corrupt history must not take down reads; start fresh
		s.logger.Warn("Discarding corrupt local order history", map[string]interface{}{
			"operation": "local_orders_read",
			"user_id":   userID,
			"error":     err.Error(),
		})
		return nil, nil
	}
	return orders, nil
}

// SaveCredential persists the current session's credential
func (s *Store) SaveCredential(ctx context.Context, cred core.Credential) error {
	if err := s.mem.Set(ctx, keyAccessToken, cred.AccessToken, s.ttl); err != nil {
		return fmt.Errorf("localstore.SaveCredential: %w", err)
	}
	if err := s.mem.Set(ctx, keyUserID, cred.UserID, s.ttl); err != nil {
		return fmt.Errorf("localstore.SaveCredential: %w", err)
	}
	if err := s.mem.Set(ctx, keyUsername, cred.DisplayName, s.ttl); err != nil {
		return fmt.Errorf("localstore.SaveCredential: %w", err)
	}
	return nil
}

// LoadCredential restores a saved credential. A missing credential returns
// false, not an error; that is the anonymous state.
func (s *Store) LoadCredential(ctx context.Context) (core.Credential, bool, error) {
	token, err := s.mem.Get(ctx, keyAccessToken)
	if err != nil {
		return core.Credential{}, false, fmt.Errorf("localstore.LoadCredential: %w", err)
	}
	if token == "" {
		return core.Credential{}, false, nil
	}

	userID, err := s.mem.Get(ctx, keyUserID)
	if err != nil {
		return core.Credential{}, false, fmt.Errorf("localstore.LoadCredential: %w", err)
	}
	username, err := s.mem.Get(ctx, keyUsername)
	if err != nil {
		return core.Credential{}, false, fmt.Errorf("localstore.LoadCredential: %w", err)
	}

	return core.Credential{
		AccessToken: token,
		UserID:      userID,
		DisplayName: username,
	}, true, nil
}

// ClearCredential removes the saved credential; clearing twice is a no-op
func (s *Store) ClearCredential(ctx context.Context) error {
	for _, key := range []string{keyAccessToken, keyUserID, keyUsername} {
		if err := s.mem.Delete(ctx, key); err != nil {
			return fmt.Errorf("localstore.ClearCredential: %w", err)
		}
	}
	return nil
}

func (s *Store) registeredUsers(ctx context.Context) ([]core.User, error) {
	raw, err := s.mem.Get(ctx, keyRegisteredUsers)
	if err != nil {
		return nil, fmt.Errorf("localstore: read registered users: %w", err)
	}
	if raw == "" {
		return nil, nil
	}

	var users []core.User
	if err := json.Unmarshal([]byte(raw), &users); err != nil {
		s.logger.Warn("Discarding corrupt registered users record", map[string]interface{}{
			"operation": "local_users_read",
			"error":     err.Error(),
		})
		return nil, nil
	}
	return users, nil
}

func (s *Store) writeJSON(ctx context.Context, key string, value interface{}) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("localstore: encode %s: %w", key, err)
	}
	if err := s.mem.Set(ctx, key, string(data), s.ttl); err != nil {
		return fmt.Errorf("localstore: write %s: %w", key, err)
	}
	return nil
}

// Package session implements the reconciler between the remote ordering API
// and the local fallback store. It owns the authentication state machine and
// decides, per operation, which side is authoritative:
//
//   - authentication is remote-first: the local store answers only when the
//     remote API is unreachable, never when it rejected the credentials
//   - order persistence is local-first: every submission lands in the local
//     history before the remote API is even attempted
//   - reads (history, profile, repeat-order) pick ONE source up front and do
//     not interleave results from both
package session

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/fastfoodmaniya/storefront/api"
	"github.com/fastfoodmaniya/storefront/cart"
	"github.com/fastfoodmaniya/storefront/core"
	"github.com/fastfoodmaniya/storefront/localstore"
	"github.com/fastfoodmaniya/storefront/resilience"
)

// State is the session's authentication state
type State string

const (
	// StateAnonymous means no credential is held
	StateAnonymous State = "anonymous"
	// StateLocal means the credential was minted by the local fallback store
	StateLocal State = "authenticated_local"
	// StateRemote means the credential came from the remote API
	StateRemote State = "authenticated_remote"
)

// Session reconciles the cart, the remote API and the local fallback store
// into one signed-in ordering flow
type Session struct {
	cart      *cart.Store
	api       *api.Client
	local     *localstore.Store
	sink      core.RenderSink
	logger    core.Logger
	telemetry core.Telemetry
	retry     *resilience.RetryConfig
	breaker   *resilience.CircuitBreaker

	// submitting guards against double submission while a checkout round
	// trip is in flight
	submitting atomic.Bool

	mu    sync.Mutex
	state State
	cred  core.Credential
}

// Options configures a session
type Options struct {
	Cart      *cart.Store
	API       *api.Client
	Local     *localstore.Store
	Sink      core.RenderSink
	Logger    core.Logger
	Telemetry core.Telemetry
	Retry     *resilience.RetryConfig
	// Breaker is optional; without it remote calls are retried but never
	// short-circuited
	Breaker *resilience.CircuitBreaker
}

// NewSession creates an anonymous session
func NewSession(opts Options) (*Session, error) {
	if opts.Cart == nil {
		return nil, fmt.Errorf("session: cart store is required: %w", core.ErrInvalidConfiguration)
	}
	if opts.API == nil {
		return nil, fmt.Errorf("session: api client is required: %w", core.ErrInvalidConfiguration)
	}
	if opts.Local == nil {
		return nil, fmt.Errorf("session: local store is required: %w", core.ErrInvalidConfiguration)
	}
	if opts.Sink == nil {
		opts.Sink = &core.NoOpRenderSink{}
	}
	if opts.Logger == nil {
		opts.Logger = &core.NoOpLogger{}
	}
	if opts.Telemetry == nil {
		opts.Telemetry = &core.NoOpTelemetry{}
	}
	if opts.Retry == nil {
		opts.Retry = resilience.DefaultRetryConfig()
	}

	return &Session{
		cart:      opts.Cart,
		api:       opts.API,
		local:     opts.Local,
		sink:      opts.Sink,
		logger:    opts.Logger,
		telemetry: opts.Telemetry,
		retry:     opts.Retry,
		breaker:   opts.Breaker,
		state:     StateAnonymous,
	}, nil
}

// State returns the current authentication state
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Credential returns the held credential; the zero value when anonymous
func (s *Session) Credential() core.Credential {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cred
}

// Restore loads a previously saved credential from the local store. A missing
// credential leaves the session anonymous and is not an error.
func (s *Session) Restore(ctx context.Context) error {
	cred, ok, err := s.local.LoadCredential(ctx)
	if err != nil {
		return s.fail(fmt.Errorf("session.Restore: %w", err))
	}
	if !ok {
		return nil
	}

	state := StateRemote
	if strings.HasPrefix(cred.AccessToken, "local_") {
		state = StateLocal
	}
	s.setCredential(cred, state)

	s.logger.Info("Session restored", map[string]interface{}{
		"operation": "session_restore",
		"user_id":   cred.UserID,
		"state":     string(state),
	})
	return nil
}

// Login authenticates remote-first. The local store is consulted ONLY when
// the remote API is unreachable; a credential rejection from the server is
// terminal and the local store is never queried for that attempt.
func (s *Session) Login(ctx context.Context, email, password string) error {
	ctx, span := s.telemetry.StartSpan(ctx, "session.Login")
	defer span.End()

	var cred core.Credential
	err := s.callRemote(ctx, func() error {
		var loginErr error
		cred, loginErr = s.api.Login(ctx, email, password)
		return loginErr
	})

	switch {
	case err == nil:
		s.setCredential(cred, StateRemote)

	case errors.Is(err, core.ErrCredentialRejected):
		// The server saw the credentials and said no. Falling back to a
		// local match here would resurrect stale passwords.
		span.RecordError(err)
		s.logger.Warn("Login rejected by remote", map[string]interface{}{
			"operation": "login",
			"email":     email,
		})
		return s.fail(fmt.Errorf("session.Login: %w", err))

	case isRemoteDown(err):
		s.logger.Warn("Remote unreachable, attempting local login", map[string]interface{}{
			"operation": "login",
			"email":     email,
			"error":     err.Error(),
		})
		localCred, localErr := s.local.Authenticate(ctx, email, password)
		if localErr != nil {
			span.RecordError(localErr)
			return s.fail(fmt.Errorf("session.Login: %w", localErr))
		}
		s.setCredential(localCred, StateLocal)
		s.sink.Notify("Signed in offline; orders will sync when the service is back", core.SeverityWarning)
		cred = localCred

	default:
		span.RecordError(err)
		return s.fail(fmt.Errorf("session.Login: %w", err))
	}

	if saveErr := s.local.SaveCredential(ctx, cred); saveErr != nil {
		// The session is live either way; losing the saved credential only
		// costs a re-login after restart
		s.logger.Warn("Failed to persist credential", map[string]interface{}{
			"operation": "login",
			"error":     saveErr.Error(),
		})
	}

	s.logger.Info("Login succeeded", map[string]interface{}{
		"operation": "login",
		"user_id":   cred.UserID,
		"state":     string(s.State()),
	})
	s.telemetry.RecordMetric("session.login", 1, map[string]string{"state": string(s.State())})
	return nil
}

// Register creates an account remote-first. A duplicate rejection from the
// server is terminal; only an unreachable remote falls back to the local
// store. Registration does not sign the user in.
func (s *Session) Register(ctx context.Context, username, email, password string) error {
	ctx, span := s.telemetry.StartSpan(ctx, "session.Register")
	defer span.End()

	err := s.callRemote(ctx, func() error {
		_, regErr := s.api.Register(ctx, username, email, password)
		return regErr
	})

	switch {
	case err == nil:
		s.logger.Info("User registered remotely", map[string]interface{}{
			"operation": "register",
			"email":     email,
		})
		return nil

	case core.IsUserError(err):
		span.RecordError(err)
		return s.fail(fmt.Errorf("session.Register: %w", err))

	case isRemoteDown(err):
		s.logger.Warn("Remote unreachable, registering locally", map[string]interface{}{
			"operation": "register",
			"email":     email,
			"error":     err.Error(),
		})
		if _, localErr := s.local.RegisterUser(ctx, username, email, password); localErr != nil {
			span.RecordError(localErr)
			return s.fail(fmt.Errorf("session.Register: %w", localErr))
		}
		s.sink.Notify("Account created offline; it exists on this device only for now", core.SeverityWarning)
		return nil

	default:
		span.RecordError(err)
		return s.fail(fmt.Errorf("session.Register: %w", err))
	}
}

// Checkout validates that a submission can start: the user must be signed in
// and the cart must not be empty. It returns the snapshot the submission
// would be built from.
func (s *Session) Checkout(ctx context.Context) (core.CartSnapshot, error) {
	if s.State() == StateAnonymous {
		return core.CartSnapshot{}, s.fail(fmt.Errorf("session.Checkout: %w", core.ErrUnauthenticated))
	}
	snapshot := s.cart.Snapshot()
	if snapshot.Empty() {
		return core.CartSnapshot{}, s.fail(fmt.Errorf("session.Checkout: %w", core.ErrEmptyCart))
	}
	return snapshot, nil
}

// SubmitOrder turns the current cart into an order. The order is written to
// the local history FIRST; the remote submission that follows may fail
// without losing the order. While one submission is in flight, further calls
// return ErrSubmissionInFlight.
func (s *Session) SubmitOrder(ctx context.Context, phone, address string) (core.Order, error) {
	if !s.submitting.CompareAndSwap(false, true) {
		return core.Order{}, s.fail(fmt.Errorf("session.SubmitOrder: %w", core.ErrSubmissionInFlight))
	}
	defer s.submitting.Store(false)

	ctx, span := s.telemetry.StartSpan(ctx, "session.SubmitOrder")
	defer span.End()

	// Checkout has already surfaced its own notice on failure
	snapshot, err := s.Checkout(ctx)
	if err != nil {
		span.RecordError(err)
		return core.Order{}, err
	}

	cred := s.Credential()
	order := core.Order{
		ID:        "order_" + uuid.New().String(),
		UserID:    cred.UserID,
		Items:     snapshot.Items,
		Total:     snapshot.Total,
		Phone:     phone,
		Address:   address,
		CreatedAt: time.Now().UTC(),
		Status:    core.OrderStatusPending,
	}
	span.SetAttribute("order.id", order.ID)
	span.SetAttribute("order.total", order.Total)

	// Local write comes first so a dying network cannot lose the order
	if err := s.local.AppendOrder(ctx, order); err != nil {
		span.RecordError(err)
		return core.Order{}, s.fail(fmt.Errorf("session.SubmitOrder: %w", err))
	}

	remoteErr := s.callRemote(ctx, func() error {
		_, createErr := s.api.CreateOrder(ctx, cred.AccessToken, api.OrderRequest{
			Items:   order.Items,
			Total:   order.Total,
			Phone:   phone,
			Address: address,
		})
		return createErr
	})

	if remoteErr != nil {
		// The order is already safe locally; the remote failure degrades to
		// a notice, not a lost submission
		span.RecordError(remoteErr)
		s.logger.Warn("Remote order submission failed, order kept locally", map[string]interface{}{
			"operation": "submit_order",
			"order_id":  order.ID,
			"error":     remoteErr.Error(),
		})
		s.sink.Notify("Order saved locally; it will not appear in your online history yet", core.SeverityWarning)
	} else {
		s.sink.Notify("Order placed", core.SeverityInfo)
	}

	s.cart.Clear()

	s.logger.Info("Order submitted", map[string]interface{}{
		"operation": "submit_order",
		"order_id":  order.ID,
		"user_id":   order.UserID,
		"total":     order.Total,
		"remote_ok": remoteErr == nil,
	})
	s.telemetry.RecordMetric("session.order_submitted", 1, map[string]string{
		"remote_ok": fmt.Sprintf("%t", remoteErr == nil),
	})
	return order, nil
}

// History returns the user's order history from a single source: remote when
// the session is remote and the API answers, the local store otherwise. The
// source actually used is returned alongside the orders.
func (s *Session) History(ctx context.Context) ([]core.Order, core.OrderSource, error) {
	cred := s.Credential()
	if s.State() == StateAnonymous {
		return nil, core.SourceLocal, s.fail(fmt.Errorf("session.History: %w", core.ErrUnauthenticated))
	}

	orders, source, err := s.fetchHistory(ctx, cred)
	if err != nil {
		return nil, source, s.fail(fmt.Errorf("session.History: %w", err))
	}
	return orders, source, nil
}

// RepeatOrder refills the cart from a past order. The order index is resolved
// against ONE history source, and every line is validated before any cart
// mutation: an out-of-range index or a malformed line leaves the cart exactly
// as it was.
func (s *Session) RepeatOrder(ctx context.Context, index int) error {
	cred := s.Credential()
	if s.State() == StateAnonymous {
		return s.fail(fmt.Errorf("session.RepeatOrder: %w", core.ErrUnauthenticated))
	}

	orders, source, err := s.fetchHistory(ctx, cred)
	if err != nil {
		return s.fail(fmt.Errorf("session.RepeatOrder: %w", err))
	}

	if index < 0 || index >= len(orders) {
		return s.fail(fmt.Errorf("session.RepeatOrder [%d]: %w", index, core.ErrOrderNotFound))
	}
	order := orders[index]

	// Validate the whole order first; a partial refill is worse than none
	for _, item := range order.Items {
		if item.ID == "" || item.Quantity <= 0 {
			return s.fail(fmt.Errorf("session.RepeatOrder [%s]: line %q quantity %d: %w",
				order.ID, item.ID, item.Quantity, core.ErrInvalidQuantity))
		}
	}

	for _, item := range order.Items {
		if err := s.cart.Add(item, item.Quantity); err != nil {
			return s.fail(fmt.Errorf("session.RepeatOrder [%s]: %w", order.ID, err))
		}
	}

	s.logger.Info("Order repeated into cart", map[string]interface{}{
		"operation": "repeat_order",
		"order_id":  order.ID,
		"source":    source.String(),
		"lines":     len(order.Items),
	})
	return nil
}

// Profile returns the signed-in user's account view, remote-first with local
// fallback for sessions the remote cannot vouch for
func (s *Session) Profile(ctx context.Context) (core.UserProfile, error) {
	cred := s.Credential()
	state := s.State()
	if state == StateAnonymous {
		return core.UserProfile{}, s.fail(fmt.Errorf("session.Profile: %w", core.ErrUnauthenticated))
	}

	if state == StateRemote {
		var profile core.UserProfile
		err := s.callRemote(ctx, func() error {
			var pErr error
			profile, pErr = s.api.Profile(ctx, cred.AccessToken)
			return pErr
		})
		if err == nil {
			return profile, nil
		}
		if !isRemoteDown(err) {
			return core.UserProfile{}, s.fail(fmt.Errorf("session.Profile: %w", err))
		}
		s.logger.Warn("Remote unreachable, reading profile locally", map[string]interface{}{
			"operation": "profile",
			"user_id":   cred.UserID,
		})
	}

	profile, err := s.local.Profile(ctx, cred.UserID)
	if err != nil {
		return core.UserProfile{}, s.fail(fmt.Errorf("session.Profile: %w", err))
	}
	return profile, nil
}

// Logout tears the session down. The remote call is best-effort: an
// unreachable API must not keep a user signed in on this device.
func (s *Session) Logout(ctx context.Context) error {
	state := s.State()
	if state == StateRemote {
		if err := s.api.Logout(ctx); err != nil {
			s.logger.Warn("Remote logout failed, clearing session anyway", map[string]interface{}{
				"operation": "logout",
				"error":     err.Error(),
			})
		}
	}

	if err := s.local.ClearCredential(ctx); err != nil {
		return s.fail(fmt.Errorf("session.Logout: %w", err))
	}

	s.setCredential(core.Credential{}, StateAnonymous)
	s.cart.Clear()

	s.logger.Info("Logged out", map[string]interface{}{
		"operation": "logout",
	})
	return nil
}

// fetchHistory picks the history source once: remote when the session is
// remote and reachable, local otherwise. It never merges the two.
func (s *Session) fetchHistory(ctx context.Context, cred core.Credential) ([]core.Order, core.OrderSource, error) {
	if s.State() == StateRemote {
		var orders []core.Order
		err := s.callRemote(ctx, func() error {
			var fetchErr error
			orders, fetchErr = s.api.Orders(ctx, cred.AccessToken)
			return fetchErr
		})
		if err == nil {
			return orders, core.SourceRemote, nil
		}
		if !isRemoteDown(err) {
			return nil, core.SourceRemote, err
		}
		s.logger.Warn("Remote unreachable, reading order history locally", map[string]interface{}{
			"operation": "fetch_history",
			"user_id":   cred.UserID,
		})
	}

	orders, err := s.local.Orders(ctx, cred.UserID)
	if err != nil {
		return nil, core.SourceLocal, err
	}
	return orders, core.SourceLocal, nil
}

// callRemote runs a remote call under the configured retry policy and, when
// present, the circuit breaker
func (s *Session) callRemote(ctx context.Context, fn func() error) error {
	if s.breaker != nil {
		return resilience.RetryWithCircuitBreaker(ctx, s.retry, s.breaker, fn)
	}
	return resilience.Retry(ctx, s.retry, fn)
}

func (s *Session) setCredential(cred core.Credential, state State) {
	s.mu.Lock()
	s.cred = cred
	s.state = state
	s.mu.Unlock()
}

// fail surfaces an operation failure as a transient error notice before
// returning it, so the UI layer can show the verdict without inspecting
// the error. Each reconciler error reaches the sink exactly once.
func (s *Session) fail(err error) error {
	s.sink.Notify(noticeFor(err), core.SeverityError)
	return err
}

// noticeFor maps an error kind to its user-facing notice text
func noticeFor(err error) string {
	switch {
	case errors.Is(err, core.ErrCredentialRejected):
		return "Invalid email or password"
	case errors.Is(err, core.ErrUserExists):
		return "An account with this email already exists"
	case errors.Is(err, core.ErrUnauthenticated):
		return "Please sign in to continue"
	case errors.Is(err, core.ErrEmptyCart):
		return "Your cart is empty"
	case errors.Is(err, core.ErrSubmissionInFlight):
		return "Your order is already being placed"
	case errors.Is(err, core.ErrOrderNotFound):
		return "That order could not be found"
	case errors.Is(err, core.ErrInvalidQuantity):
		return "That order can no longer be repeated"
	case errors.Is(err, core.ErrServerError):
		return "The ordering service hit a problem, please try again"
	default:
		return "Something went wrong, please try again"
	}
}

// isRemoteDown reports whether the remote API should be treated as
// unreachable for fallback purposes. An open circuit counts: the breaker
// opened because the network was failing.
func isRemoteDown(err error) bool {
	return errors.Is(err, core.ErrNetworkUnavailable) || errors.Is(err, core.ErrCircuitBreakerOpen)
}

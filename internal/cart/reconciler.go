// Package cart keeps a client-local snapshot of one user's cart in sync
// with the backend. The snapshot is a cache of server truth: every mutation
// is a full round-trip whose response replaces the snapshot wholesale, and
// no total, quantity or discount is ever computed locally. On failures with
// ambiguous server-side effect (coupon apply/remove) the reconciler
// recovers by re-fetching rather than retrying the mutation.
package cart

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/Uzal123/unibolx-ecommerce-frontend/internal/domain"
)

// State of the reconciler's snapshot.
type State int

const (
	// StateEmpty means no fetch has happened yet for this session.
	StateEmpty State = iota
	// StateSyncing means a fetch or mutation round-trip is in flight.
	StateSyncing
	// StateReady means the snapshot is the last authoritative response.
	StateReady
	// StateStale means a request failed; the snapshot is held but not
	// trustworthy until a re-fetch succeeds.
	StateStale
)

func (s State) String() string {
	switch s {
	case StateEmpty:
		return "empty"
	case StateSyncing:
		return "syncing"
	case StateReady:
		return "ready"
	case StateStale:
		return "stale"
	default:
		return "unknown"
	}
}

var (
	// ErrBusy is returned when a mutation is requested while another one
	// is still in flight for the same cart.
	ErrBusy = errors.New("cart: a request is already in flight")
	// ErrEmptyCode is returned for a blank coupon code.
	ErrEmptyCode = errors.New("cart: discount code is empty")
	// ErrNoCoupon is returned when removal is requested with no coupon applied.
	ErrNoCoupon = errors.New("cart: no discount code is applied")
	// ErrEmptyCart is returned when placing an order on an empty cart.
	// The backend remains authoritative; this is only the UI-level check.
	ErrEmptyCart = errors.New("cart: cart is empty, nothing to order")
)

// Backend is the slice of the storefront API the reconciler drives.
// *api.Client satisfies it.
type Backend interface {
	GetCart(ctx context.Context, userID int64) (*domain.Cart, error)
	AddToCart(ctx context.Context, userID, itemID int64, quantity int) (*domain.Cart, error)
	RemoveFromCart(ctx context.Context, userID, itemID int64, quantity int) (*domain.Cart, error)
	PlaceOrder(ctx context.Context, userID int64, cart *domain.Cart) (*domain.Order, error)
	ApplyDiscount(ctx context.Context, userID int64, code string) (*domain.Cart, error)
	RemoveDiscount(ctx context.Context, userID int64, code string) error
}

// Notifier receives the transient user-facing notices (the toast analog).
type Notifier func(msg string)

// Reconciler owns the cart snapshot for one authenticated user. Mutating
// operations are serialized by a per-cart busy flag: a second mutation
// started before the first completes fails fast with ErrBusy. Concurrent
// fetches for the same user are coalesced into a single round-trip.
type Reconciler struct {
	backend Backend
	notify  Notifier
	log     *slog.Logger
	userID  int64

	fetches singleflight.Group

	mu       sync.Mutex
	state    State
	snapshot *domain.Cart
	busy     bool
}

// New builds a Reconciler for one user session. notify may be nil.
func New(backend Backend, userID int64, notify Notifier, log *slog.Logger) *Reconciler {
	if notify == nil {
		notify = func(string) {}
	}
	return &Reconciler{
		backend: backend,
		notify:  notify,
		log:     log,
		userID:  userID,
		state:   StateEmpty,
	}
}

// UserID returns the user this reconciler is scoped to.
func (r *Reconciler) UserID() int64 { return r.userID }

// State returns the current snapshot state.
func (r *Reconciler) State() State {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

// Snapshot returns a copy of the last known cart, or nil before the first
// successful fetch. The copy's fields are exactly the backend's; nothing
// is recomputed.
func (r *Reconciler) Snapshot() *domain.Cart {
	r.mu.Lock()
	defer r.mu.Unlock()
	return cloneCart(r.snapshot)
}

// Fetch refreshes the snapshot from the backend. It is the recovery path
// out of StateStale and is safe to call at any time; overlapping calls for
// the same user share one round-trip.
func (r *Reconciler) Fetch(ctx context.Context) error {
	key := strconv.FormatInt(r.userID, 10)
	_, err, _ := r.fetches.Do(key, func() (any, error) {
		return nil, r.fetch(ctx)
	})
	return err
}

func (r *Reconciler) fetch(ctx context.Context) error {
	r.setState(StateSyncing)

	cart, err := r.backend.GetCart(ctx, r.userID)
	if err != nil {
		r.fail("Could not load your cart", err)
		return err
	}

	r.replace(cart)
	return nil
}

// AddItem adds quantity of an item. On failure the snapshot is left at the
// last confirmed state; there is no optimistic increment.
func (r *Reconciler) AddItem(ctx context.Context, itemID int64, quantity int) error {
	if err := r.begin(); err != nil {
		return err
	}
	defer r.end()

	cart, err := r.backend.AddToCart(ctx, r.userID, itemID, quantity)
	if err != nil {
		r.fail("Could not add the item to your cart", err)
		return err
	}

	r.replace(cart)
	return nil
}

// RemoveItem removes quantity of an item. The backend decides whether the
// line's quantity drops or the line disappears; the client never decrements
// locally.
func (r *Reconciler) RemoveItem(ctx context.Context, itemID int64, quantity int) error {
	if err := r.begin(); err != nil {
		return err
	}
	defer r.end()

	cart, err := r.backend.RemoveFromCart(ctx, r.userID, itemID, quantity)
	if err != nil {
		r.fail("Could not remove the item from your cart", err)
		return err
	}

	r.replace(cart)
	return nil
}

// ApplyCoupon applies a discount code. A failed apply has ambiguous
// server-side effect, so the recovery is a forced re-fetch: the displayed
// cart diverges from server truth for at most one extra round-trip.
func (r *Reconciler) ApplyCoupon(ctx context.Context, code string) error {
	if code == "" {
		return ErrEmptyCode
	}
	if err := r.begin(); err != nil {
		return err
	}
	defer r.end()

	cart, err := r.backend.ApplyDiscount(ctx, r.userID, code)
	if err != nil {
		r.fail("Could not apply the coupon", err)
		if ferr := r.fetch(ctx); ferr != nil {
			r.log.WarnContext(ctx, "re-fetch after failed coupon apply failed", "err", ferr)
		}
		return err
	}

	r.notify("Coupon applied successfully!")
	r.replace(cart)
	return nil
}

// RemoveCoupon removes the currently applied code. Removal is treated as
// "forget the coupon, then resync": whether the backend call succeeds or
// fails, the snapshot comes from a fresh fetch, never from the removal
// response, so a stale discount is never displayed.
func (r *Reconciler) RemoveCoupon(ctx context.Context) error {
	r.mu.Lock()
	var code string
	if r.snapshot != nil {
		code = r.snapshot.DiscountCodeUsed
	}
	r.mu.Unlock()
	if code == "" {
		return ErrNoCoupon
	}

	if err := r.begin(); err != nil {
		return err
	}
	defer r.end()

	err := r.backend.RemoveDiscount(ctx, r.userID, code)
	if err != nil {
		r.fail("Could not remove the coupon", err)
	}
	if ferr := r.fetch(ctx); ferr == nil && err == nil {
		r.notify("Coupon removed")
	}
	return err
}

// PlaceOrder submits the current cart. On success the post-order state is
// observed by re-fetching (the backend empties the cart); the client never
// clears it optimistically. On failure the order is not assumed placed.
func (r *Reconciler) PlaceOrder(ctx context.Context) (*domain.Order, error) {
	r.mu.Lock()
	snapshot := cloneCart(r.snapshot)
	r.mu.Unlock()
	if snapshot.Empty() {
		return nil, ErrEmptyCart
	}

	if err := r.begin(); err != nil {
		return nil, err
	}
	defer r.end()

	order, err := r.backend.PlaceOrder(ctx, r.userID, snapshot)
	if err != nil {
		r.fail("Could not place your order", err)
		return nil, err
	}

	r.notify("Order placed successfully!")
	if ferr := r.fetch(ctx); ferr != nil {
		r.log.WarnContext(ctx, "re-fetch after order failed", "err", ferr)
	}
	return order, nil
}

// begin claims the per-cart busy flag so only one mutation is in flight.
func (r *Reconciler) begin() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.busy {
		return ErrBusy
	}
	r.busy = true
	r.state = StateSyncing
	return nil
}

func (r *Reconciler) end() {
	r.mu.Lock()
	r.busy = false
	r.mu.Unlock()
}

func (r *Reconciler) setState(s State) {
	r.mu.Lock()
	r.state = s
	r.mu.Unlock()
}

// replace installs a server-returned cart wholesale. Last response applied
// wins; the server serializes true ordering.
func (r *Reconciler) replace(cart *domain.Cart) {
	r.mu.Lock()
	r.snapshot = cart
	r.state = StateReady
	r.mu.Unlock()
}

// fail marks the snapshot untrustworthy without touching it and surfaces
// a transient notice.
func (r *Reconciler) fail(msg string, err error) {
	r.mu.Lock()
	r.state = StateStale
	r.mu.Unlock()

	r.log.Warn("cart request failed", "user_id", r.userID, "err", err)
	r.notify(fmt.Sprintf("%s: %v", msg, err))
}

func cloneCart(c *domain.Cart) *domain.Cart {
	if c == nil {
		return nil
	}
	out := *c
	out.Items = append([]domain.CartItem(nil), c.Items...)
	out.AvailableDiscountCodes = append([]domain.Discount(nil), c.AvailableDiscountCodes...)
	return &out
}

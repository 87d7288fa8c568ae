// Package cart implements the in-progress selection store. It is the single
// source of truth for the current user's unsubmitted cart: an insertion-ordered
// set of line items mutated by add/update/remove operations.
//
// The store performs no I/O. Every mutation pushes a fresh snapshot to the
// configured RenderSink so the UI layer can redraw; validation failures are
// reported through error returns and leave the store untouched.
package cart

import (
	"fmt"
	"sync"

	"github.com/fastfoodmaniya/storefront/core"
)

// Store holds the current cart state
type Store struct {
	mu     sync.Mutex
	items  map[string]*core.LineItem
	order  []string // insertion order of item IDs, kept for stable snapshots
	sink   core.RenderSink
	logger core.Logger
}

// Options configures a cart store
type Options struct {
	Sink   core.RenderSink
	Logger core.Logger
}

// NewStore creates an empty cart store
func NewStore(opts Options) *Store {
	if opts.Sink == nil {
		opts.Sink = &core.NoOpRenderSink{}
	}
	if opts.Logger == nil {
		opts.Logger = &core.NoOpLogger{}
	}
	return &Store{
		items:  make(map[string]*core.LineItem),
		sink:   opts.Sink,
		logger: opts.Logger,
	}
}

// Add inserts an item or accumulates quantity onto an existing line.
// A quantity of zero or less is rejected with ErrInvalidQuantity and the
// store is left unchanged.
func (s *Store) Add(item core.LineItem, quantity int) error {
	if quantity <= 0 {
		return fmt.Errorf("cart.Add [%s]: quantity %d: %w", item.ID, quantity, core.ErrInvalidQuantity)
	}
	if item.ID == "" {
		return fmt.Errorf("cart.Add: missing item id: %w", core.ErrInvalidQuantity)
	}

	s.mu.Lock()
	if existing, ok := s.items[item.ID]; ok {
		existing.Quantity += quantity
	} else {
		line := item
		line.Quantity = quantity
		s.items[item.ID] = &line
		s.order = append(s.order, item.ID)
	}
	snapshot := s.snapshotLocked()
	s.mu.Unlock()

	s.logger.Debug("Cart line added", map[string]interface{}{
		"operation": "cart_add",
		"item_id":   item.ID,
		"quantity":  quantity,
		"count":     snapshot.Count,
		"total":     snapshot.Total,
	})

	s.sink.RenderCart(snapshot)
	return nil
}

// SetQuantity overwrites the quantity of an existing line. A quantity of zero
// or less removes the line. An unknown id returns ErrLineNotFound and leaves
// the cart unchanged.
func (s *Store) SetQuantity(id string, quantity int) error {
	s.mu.Lock()
	if _, ok := s.items[id]; !ok {
		s.mu.Unlock()
		return fmt.Errorf("cart.SetQuantity [%s]: %w", id, core.ErrLineNotFound)
	}

	if quantity <= 0 {
		s.removeLocked(id)
	} else {
		s.items[id].Quantity = quantity
	}
	snapshot := s.snapshotLocked()
	s.mu.Unlock()

	s.sink.RenderCart(snapshot)
	return nil
}

// Remove deletes a line; removing an absent id is a no-op
func (s *Store) Remove(id string) {
	s.mu.Lock()
	s.removeLocked(id)
	snapshot := s.snapshotLocked()
	s.mu.Unlock()

	s.sink.RenderCart(snapshot)
}

// Clear empties the store; used after successful checkout and on logout.
// Clearing an already empty cart is a no-op.
func (s *Store) Clear() {
	s.mu.Lock()
	s.items = make(map[string]*core.LineItem)
	s.order = s.order[:0]
	snapshot := s.snapshotLocked()
	s.mu.Unlock()

	s.sink.RenderCart(snapshot)
}

// Snapshot returns an immutable ordered view of the cart. Total and count
// are recomputed from the current entries on every call.
func (s *Store) Snapshot() core.CartSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

func (s *Store) removeLocked(id string) {
	if _, ok := s.items[id]; !ok {
		return
	}
	delete(s.items, id)
	for i, existing := range s.order {
		if existing == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
}

func (s *Store) snapshotLocked() core.CartSnapshot {
	snapshot := core.CartSnapshot{
		Items: make([]core.LineItem, 0, len(s.order)),
	}
	for _, id := range s.order {
		line := *s.items[id]
		snapshot.Items = append(snapshot.Items, line)
		snapshot.Total += line.Subtotal()
		snapshot.Count += line.Quantity
	}
	return snapshot
}

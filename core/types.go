package core

import "time"

// LineItem is one product entry in a cart or order. The price is a snapshot
// taken when the item entered the cart, decoupled from the live catalog.
type LineItem struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	UnitPrice int    `json:"price"`
	Quantity  int    `json:"quantity"`
}

// Subtotal returns unit price times quantity for this line
func (l LineItem) Subtotal() int {
	return l.UnitPrice * l.Quantity
}

// CartSnapshot is an immutable view of the cart at a point in time.
// Total and Count are recomputed from Items on every snapshot, never cached.
type CartSnapshot struct {
	Items []LineItem `json:"items"`
	Total int        `json:"total"`
	Count int        `json:"count"`
}

// Empty reports whether the snapshot holds no items
func (s CartSnapshot) Empty() bool {
	return len(s.Items) == 0
}

// Credential is proof of an authenticated session. Absence means anonymous.
type Credential struct {
	AccessToken string `json:"accessToken"`
	UserID      string `json:"userId"`
	DisplayName string `json:"username"`
}

// OrderStatus enumerates order lifecycle states
type OrderStatus string

const (
	OrderStatusPending OrderStatus = "pending"
)

// Order is an immutable record of a submitted order. A repeat operation only
// reads it to seed a new cart, it never mutates a past order.
type Order struct {
	ID        string      `json:"id"`
	UserID    string      `json:"userId,omitempty"`
	Items     []LineItem  `json:"items"`
	Total     int         `json:"total"`
	Phone     string      `json:"phone"`
	Address   string      `json:"address"`
	CreatedAt time.Time   `json:"createdAt"`
	Status    OrderStatus `json:"status"`
}

// UserProfile is the user-visible account view
type UserProfile struct {
	Username string `json:"username"`
	Email    string `json:"email"`
}

// User is a locally registered account record, persisted in the fallback
// store under the registeredUsers key
type User struct {
	ID        string    `json:"id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	Password  string    `json:"password"`
	CreatedAt time.Time `json:"createdAt"`
}

// OrderSource is a tagged variant naming which store is authoritative for an
// operation. It is selected once per operation and never mixed mid-operation.
type OrderSource int

const (
	// SourceRemote means the remote API answered for this operation
	SourceRemote OrderSource = iota
	// SourceLocal means the local fallback store answered
	SourceLocal
)

// String returns the string representation of the source
func (s OrderSource) String() string {
	switch s {
	case SourceRemote:
		return "remote"
	case SourceLocal:
		return "local"
	default:
		return "unknown"
	}
}

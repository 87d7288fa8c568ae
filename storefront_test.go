package storefront

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/fastfoodmaniya/storefront/core"
)

func TestNew_WiresAWorkingClient(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/login":
			json.NewEncoder(w).Encode(map[string]string{
				"accessToken": "tok", "userId": "user_1", "username": "priya",
			})
		case "/api/orders":
			json.NewEncoder(w).Encode(map[string]string{"orderId": "order_1"})
		default:
			http.NotFound(w, r)
		}
	}))
	defer server.Close()

	client, err := New(nil,
		WithAPIBaseURL(server.URL),
		WithLogLevel("error"),
	)
	if err != nil {
		t.Fatalf("New() failed: %v", err)
	}
	ctx := context.Background()
	defer client.Close(ctx)

	if err := client.Session.Login(ctx, "priya@example.com", "secret"); err != nil {
		t.Fatalf("Login() failed: %v", err)
	}

	if err := client.Cart.Add(LineItem{ID: "burger", Name: "Burger", UnitPrice: 250}, 2); err != nil {
		t.Fatalf("Add() failed: %v", err)
	}

	order, err := client.Session.SubmitOrder(ctx, "555-0100", "12 Curry Lane")
	if err != nil {
		t.Fatalf("SubmitOrder() failed: %v", err)
	}
	if order.Total != 500 {
		t.Errorf("order total = %d, want 500", order.Total)
	}
	if !client.Cart.Snapshot().Empty() {
		t.Error("cart should be empty after submission")
	}
}

func TestNew_RequiresAPIBaseURL(t *testing.T) {
	_, err := New(nil, WithLogLevel("error"))
	if !errors.Is(err, core.ErrInvalidConfiguration) {
		t.Errorf("New() error = %v, want ErrInvalidConfiguration", err)
	}
}

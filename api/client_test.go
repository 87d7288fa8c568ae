package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fastfoodmaniya/storefront/core"
)

func newTestClient(t *testing.T, handler http.Handler) (*Client, *httptest.Server) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client, err := NewClient(Options{BaseURL: server.URL})
	require.NoError(t, err)
	return client, server
}

func TestClient_LoginSuccess(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/login", r.URL.Path)

		var req map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "a@x.com", req["email"])
		assert.Equal(t, "p", req["password"])

		json.NewEncoder(w).Encode(map[string]string{
			"accessToken": "tok-1",
			"userId":      "user-1",
			"username":    "alice",
		})
	}))

	cred, err := client.Login(context.Background(), "a@x.com", "p")
	require.NoError(t, err)
	assert.Equal(t, "tok-1", cred.AccessToken)
	assert.Equal(t, "user-1", cred.UserID)
	assert.Equal(t, "alice", cred.DisplayName)
}

func TestClient_LoginRejected(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		json.NewEncoder(w).Encode(map[string]string{"message": "bad credentials"})
	}))

	_, err := client.Login(context.Background(), "a@x.com", "wrong")
	assert.ErrorIs(t, err, core.ErrCredentialRejected)
	assert.NotErrorIs(t, err, core.ErrNetworkUnavailable)
}

func TestClient_LoginNetworkFailure(t *testing.T) {
	client, server := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close()

	_, err := client.Login(context.Background(), "a@x.com", "p")
	assert.ErrorIs(t, err, core.ErrNetworkUnavailable)
}

func TestClient_ServerErrorClassification(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		json.NewEncoder(w).Encode(map[string]string{"message": "boom"})
	}))

	_, err := client.Orders(context.Background(), "tok")
	assert.ErrorIs(t, err, core.ErrServerError)
}

func TestClient_BearerTokenForwarded(t *testing.T) {
	var gotAuth string
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		json.NewEncoder(w).Encode([]core.Order{})
	}))

	_, err := client.Orders(context.Background(), "tok-42")
	require.NoError(t, err)
	assert.Equal(t, "Bearer tok-42", gotAuth)
}

func TestClient_CreateOrder(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/orders", r.URL.Path)

		var req OrderRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, 620, req.Total)
		assert.Len(t, req.Items, 2)

		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(map[string]string{"orderId": "order-9"})
	}))

	id, err := client.CreateOrder(context.Background(), "tok", OrderRequest{
		Items: []core.LineItem{
			{ID: "burger", Name: "Burger", UnitPrice: 250, Quantity: 2},
			{ID: "fries", Name: "Fries", UnitPrice: 120, Quantity: 1},
		},
		Total:   620,
		Phone:   "+100200300",
		Address: "1 Main St",
	})
	require.NoError(t, err)
	assert.Equal(t, "order-9", id)
}

func TestClient_UnauthenticatedOnProtectedEndpoint(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		json.NewEncoder(w).Encode(map[string]string{"message": "token expired"})
	}))

	_, err := client.Profile(context.Background(), "stale")
	// Only /login maps 401 to a credential rejection
	assert.ErrorIs(t, err, core.ErrUnauthenticated)
	assert.NotErrorIs(t, err, core.ErrCredentialRejected)
}

func TestClient_RegisterDuplicate(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(map[string]string{"message": "email taken"})
	}))

	_, err := client.Register(context.Background(), "bob", "b@x.com", "pw")
	assert.ErrorIs(t, err, core.ErrUserExists)
}

func TestNewClient_RequiresBaseURL(t *testing.T) {
	_, err := NewClient(Options{})
	assert.True(t, errors.Is(err, core.ErrInvalidConfiguration))
}

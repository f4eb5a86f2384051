package api

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Uzal123/unibolx-ecommerce-frontend/internal/domain"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestClient(handler http.HandlerFunc) (*Client, *httptest.Server) {
	srv := httptest.NewServer(handler)
	client := New(Config{BaseURL: srv.URL, Timeout: 2 * time.Second}, testLogger())
	return client, srv
}

func TestLogin(t *testing.T) {
	var gotPath, gotRequestID string
	var gotBody map[string]any

	client, srv := newTestClient(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotRequestID = r.Header.Get("X-Request-ID")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(domain.User{ID: 7, Username: "alice"})
	})
	defer srv.Close()

	user, err := client.Login(context.Background(), "alice")
	require.NoError(t, err)

	assert.Equal(t, "/api/user/login", gotPath)
	assert.NotEmpty(t, gotRequestID, "every request carries an X-Request-ID")
	assert.Equal(t, map[string]any{"username": "alice"}, gotBody)
	assert.Equal(t, int64(7), user.ID)
	assert.Equal(t, "alice", user.Username)
}

func TestGetCart(t *testing.T) {
	client, srv := newTestClient(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/cart/7", r.URL.Path)
		json.NewEncoder(w).Encode(domain.Cart{
			UserID:     7,
			Items:      []domain.CartItem{{ID: 1, Quantity: 2}},
			Total:      decimal.NewFromInt(50),
			GrandTotal: decimal.NewFromInt(50),
		})
	})
	defer srv.Close()

	cart, err := client.GetCart(context.Background(), 7)
	require.NoError(t, err)
	assert.Equal(t, int64(7), cart.UserID)
	require.Len(t, cart.Items, 1)
	assert.True(t, cart.GrandTotal.Equal(decimal.NewFromInt(50)))
}

func TestAddToCart_SendsMutationBody(t *testing.T) {
	var gotBody map[string]any
	client, srv := newTestClient(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/cart/add", r.URL.Path)
		assert.Equal(t, http.MethodPost, r.Method)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(domain.Cart{UserID: 7})
	})
	defer srv.Close()

	_, err := client.AddToCart(context.Background(), 7, 42, 3)
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"userId": float64(7), "itemId": float64(42), "quantity": float64(3)}, gotBody)
}

func TestUnexpectedStatus_BecomesStatusError(t *testing.T) {
	client, srv := newTestClient(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		json.NewEncoder(w).Encode(map[string]string{"error": "item 42 not found"})
	})
	defer srv.Close()

	_, err := client.AddToCart(context.Background(), 7, 42, 1)
	require.Error(t, err)

	se, ok := AsStatusError(err)
	require.True(t, ok)
	assert.Equal(t, http.StatusNotFound, se.Status)
	assert.Equal(t, "item 42 not found", se.Message)
	assert.Equal(t, "/api/cart/add", se.Path)
}

func TestRemoveDiscount_IgnoresResponseBody(t *testing.T) {
	client, srv := newTestClient(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/discount/remove", r.URL.Path)
		io.WriteString(w, `{"whatever": true}`)
	})
	defer srv.Close()

	require.NoError(t, client.RemoveDiscount(context.Background(), 7, "SAVE10"))
}

func TestTimeout_SurfacesAsTransportError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer srv.Close()

	client := New(Config{BaseURL: srv.URL, Timeout: 20 * time.Millisecond}, testLogger())
	_, err := client.ListItems(context.Background())
	require.Error(t, err)

	_, isStatus := AsStatusError(err)
	assert.False(t, isStatus, "timeouts are transport failures, not status errors")
}

func TestCreateDiscount(t *testing.T) {
	var gotBody map[string]any
	client, srv := newTestClient(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/admin/discount", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		w.WriteHeader(http.StatusCreated)
	})
	defer srv.Close()

	require.NoError(t, client.CreateDiscount(context.Background(), 15))
	assert.Equal(t, map[string]any{"percentage": float64(15)}, gotBody)
}

func TestAdminInsights(t *testing.T) {
	client, srv := newTestClient(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/admin/insights", r.URL.Path)
		json.NewEncoder(w).Encode(domain.Insights{TotalOrders: 3, TotalDiscountCodes: 2})
	})
	defer srv.Close()

	insights, err := client.AdminInsights(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, insights.TotalOrders)
	assert.Equal(t, 2, insights.TotalDiscountCodes)
}

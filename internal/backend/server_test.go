package backend

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Uzal123/unibolx-ecommerce-frontend/internal/domain"
)

func newTestServer() *httptest.Server {
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	return httptest.NewServer(New(log).Router())
}

func postJSON(t *testing.T, url string, body any) *http.Response {
	t.Helper()
	payload, err := json.Marshal(body)
	require.NoError(t, err)
	resp, err := http.Post(url, "application/json", bytes.NewReader(payload))
	require.NoError(t, err)
	return resp
}

func decodeCart(t *testing.T, resp *http.Response) domain.Cart {
	t.Helper()
	defer resp.Body.Close()
	var cart domain.Cart
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&cart))
	return cart
}

func TestLogin_ProvisionsUser(t *testing.T) {
	srv := newTestServer()
	defer srv.Close()

	resp := postJSON(t, srv.URL+"/api/user/login", map[string]string{"username": "alice"})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var user domain.User
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&user))
	resp.Body.Close()

	assert.Equal(t, "alice", user.Username)
	assert.False(t, user.IsAdmin)

	// Logging in again yields the same identity.
	resp = postJSON(t, srv.URL+"/api/user/login", map[string]string{"username": "alice"})
	var again domain.User
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&again))
	resp.Body.Close()
	assert.Equal(t, user.ID, again.ID)
}

func TestLogin_AdminFlag(t *testing.T) {
	srv := newTestServer()
	defer srv.Close()

	resp := postJSON(t, srv.URL+"/api/user/login", map[string]string{"username": "admin"})
	var user domain.User
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&user))
	resp.Body.Close()
	assert.True(t, user.IsAdmin)
}

func TestListItems(t *testing.T) {
	srv := newTestServer()
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/api/items/")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var items []domain.Item
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&items))
	assert.NotEmpty(t, items)
}

func TestQuantityLadder(t *testing.T) {
	srv := newTestServer()
	defer srv.Close()

	add := func() domain.Cart {
		resp := postJSON(t, srv.URL+"/api/cart/add", map[string]any{"userId": 1, "itemId": 3, "quantity": 1})
		require.Equal(t, http.StatusCreated, resp.StatusCode)
		return decodeCart(t, resp)
	}
	remove := func() domain.Cart {
		resp := postJSON(t, srv.URL+"/api/cart/remove", map[string]any{"userId": 1, "itemId": 3, "quantity": 1})
		require.Equal(t, http.StatusOK, resp.StatusCode)
		return decodeCart(t, resp)
	}

	cart := add()
	require.Len(t, cart.Items, 1)
	assert.Equal(t, 1, cart.Items[0].Quantity)

	cart = add()
	assert.Equal(t, 2, cart.Items[0].Quantity)

	cart = remove()
	assert.Equal(t, 1, cart.Items[0].Quantity)

	// Quantity floor: at zero the line disappears, it is never kept with
	// a non-positive quantity.
	cart = remove()
	assert.Empty(t, cart.Items)
}

func TestAddUnknownItem(t *testing.T) {
	srv := newTestServer()
	defer srv.Close()

	resp := postJSON(t, srv.URL+"/api/cart/add", map[string]any{"userId": 1, "itemId": 999, "quantity": 1})
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestCartPricing(t *testing.T) {
	srv := newTestServer()
	defer srv.Close()

	// Two keyboards at $49.
	postJSON(t, srv.URL+"/api/cart/add", map[string]any{"userId": 1, "itemId": 3, "quantity": 2}).Body.Close()

	resp, err := http.Get(srv.URL + "/api/cart/1")
	require.NoError(t, err)
	cart := decodeCart(t, resp)

	require.Len(t, cart.Items, 1)
	assert.True(t, cart.Items[0].TotalPrice.Equal(decimal.NewFromInt(98)))
	assert.True(t, cart.Total.Equal(decimal.NewFromInt(98)))
	assert.True(t, cart.GrandTotal.Equal(cart.Total.Sub(cart.DiscountAmount)))
}

func TestDiscountLifecycle(t *testing.T) {
	srv := newTestServer()
	defer srv.Close()

	postJSON(t, srv.URL+"/api/cart/add", map[string]any{"userId": 1, "itemId": 1, "quantity": 1}).Body.Close()

	// The seeded code applies 10%.
	resp := postJSON(t, srv.URL+"/api/discount/apply", map[string]any{"userId": 1, "discountCode": "WELCOME10"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	cart := decodeCart(t, resp)
	assert.Equal(t, "WELCOME10", cart.DiscountCodeUsed)
	assert.True(t, cart.DiscountAmount.Equal(decimal.NewFromFloat(99.9)))
	assert.True(t, cart.GrandTotal.Equal(cart.Total.Sub(cart.DiscountAmount)))

	// A bogus code is rejected and leaves the applied one untouched.
	resp = postJSON(t, srv.URL+"/api/discount/apply", map[string]any{"userId": 1, "discountCode": "BOGUS"})
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	resp.Body.Close()

	getResp, err := http.Get(srv.URL + "/api/cart/1")
	require.NoError(t, err)
	cart = decodeCart(t, getResp)
	assert.Equal(t, "WELCOME10", cart.DiscountCodeUsed)

	// Removal clears the discount.
	resp = postJSON(t, srv.URL+"/api/discount/remove", map[string]any{"userId": 1, "discountCode": "WELCOME10"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	cart = decodeCart(t, resp)
	assert.Empty(t, cart.DiscountCodeUsed)
	assert.True(t, cart.DiscountAmount.IsZero())
}

func TestPlaceOrder_EmptiesCart(t *testing.T) {
	srv := newTestServer()
	defer srv.Close()

	postJSON(t, srv.URL+"/api/cart/add", map[string]any{"userId": 1, "itemId": 2, "quantity": 1}).Body.Close()

	resp := postJSON(t, srv.URL+"/api/order/", map[string]any{"userId": 1})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var order domain.Order
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&order))
	resp.Body.Close()
	assert.NotEmpty(t, order.OrderID)
	assert.True(t, order.GrandTotal.Equal(decimal.NewFromInt(199)))

	getResp, err := http.Get(srv.URL + "/api/cart/1")
	require.NoError(t, err)
	cart := decodeCart(t, getResp)
	assert.Empty(t, cart.Items)
}

func TestPlaceOrder_EmptyCartRejected(t *testing.T) {
	srv := newTestServer()
	defer srv.Close()

	resp := postJSON(t, srv.URL+"/api/order/", map[string]any{"userId": 1})
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestCreateDiscountAndInsights(t *testing.T) {
	srv := newTestServer()
	defer srv.Close()

	resp := postJSON(t, srv.URL+"/api/admin/discount", map[string]any{"percentage": 25})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var created domain.Discount
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&created))
	resp.Body.Close()
	assert.Equal(t, 25, created.Percentage)
	assert.NotEmpty(t, created.Code)

	// Place an order with the seeded coupon applied so the aggregates move.
	postJSON(t, srv.URL+"/api/cart/add", map[string]any{"userId": 1, "itemId": 1, "quantity": 1}).Body.Close()
	postJSON(t, srv.URL+"/api/discount/apply", map[string]any{"userId": 1, "discountCode": "WELCOME10"}).Body.Close()
	postJSON(t, srv.URL+"/api/order/", map[string]any{"userId": 1}).Body.Close()

	insightsResp, err := http.Get(srv.URL + "/api/admin/insights")
	require.NoError(t, err)
	defer insightsResp.Body.Close()
	require.Equal(t, http.StatusOK, insightsResp.StatusCode)

	var insights domain.Insights
	require.NoError(t, json.NewDecoder(insightsResp.Body).Decode(&insights))
	assert.Equal(t, 1, insights.TotalOrders)
	assert.Equal(t, 1, insights.TotalDiscountCodesUsed)
	assert.Equal(t, 2, insights.TotalDiscountCodes)
	assert.True(t, insights.TotalRevenue.Equal(decimal.NewFromFloat(899.1)))
	assert.True(t, insights.AverageOrderValue.Equal(decimal.NewFromFloat(899.1)))
}

func TestCreateDiscount_InvalidPercentage(t *testing.T) {
	srv := newTestServer()
	defer srv.Close()

	for _, pct := range []int{0, -5, 101} {
		resp := postJSON(t, srv.URL+"/api/admin/discount", map[string]any{"percentage": pct})
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		resp.Body.Close()
	}
}

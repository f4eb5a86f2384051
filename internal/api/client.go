// Package api is the HTTP client for the unibolx backend. One method per
// endpoint, each checking the documented success status and decoding the
// response body. The backend is authoritative for all cart math; this
// package only moves JSON.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/Uzal123/unibolx-ecommerce-frontend/internal/domain"
)

const defaultTimeout = 5 * time.Second

type Config struct {
	BaseURL string
	Timeout time.Duration
}

type Client struct {
	baseURL string
	http    *http.Client
	log     *slog.Logger
}

// New builds a Client with an instrumented transport and a fixed
// process-wide request timeout. There is no mid-flight cancellation beyond
// the timeout; callers recover from ambiguity by re-fetching.
func New(cfg Config, log *slog.Logger) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		http: &http.Client{
			Timeout:   timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		log: log,
	}
}

// Login exchanges a username for a User identity.
func (c *Client) Login(ctx context.Context, username string) (*domain.User, error) {
	var user domain.User
	err := c.do(ctx, http.MethodPost, "/api/user/login", loginRequest{Username: username}, http.StatusCreated, &user)
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// ListItems fetches the catalog.
func (c *Client) ListItems(ctx context.Context) ([]domain.Item, error) {
	var items []domain.Item
	err := c.do(ctx, http.MethodGet, "/api/items/", nil, http.StatusOK, &items)
	if err != nil {
		return nil, err
	}
	return items, nil
}

// GetCart fetches the authoritative cart for the user.
func (c *Client) GetCart(ctx context.Context, userID int64) (*domain.Cart, error) {
	var cart domain.Cart
	path := fmt.Sprintf("/api/cart/%d", userID)
	err := c.do(ctx, http.MethodGet, path, nil, http.StatusOK, &cart)
	if err != nil {
		return nil, err
	}
	return &cart, nil
}

// AddToCart adds quantity of an item and returns the recomputed cart.
func (c *Client) AddToCart(ctx context.Context, userID, itemID int64, quantity int) (*domain.Cart, error) {
	var cart domain.Cart
	body := cartMutationRequest{UserID: userID, ItemID: itemID, Quantity: quantity}
	err := c.do(ctx, http.MethodPost, "/api/cart/add", body, http.StatusCreated, &cart)
	if err != nil {
		return nil, err
	}
	return &cart, nil
}

// RemoveFromCart removes quantity of an item and returns the recomputed
// cart. The backend drops the line entirely when quantity reaches zero.
func (c *Client) RemoveFromCart(ctx context.Context, userID, itemID int64, quantity int) (*domain.Cart, error) {
	var cart domain.Cart
	body := cartMutationRequest{UserID: userID, ItemID: itemID, Quantity: quantity}
	err := c.do(ctx, http.MethodPost, "/api/cart/remove", body, http.StatusOK, &cart)
	if err != nil {
		return nil, err
	}
	return &cart, nil
}

// PlaceOrder submits the cart for checkout. Callers re-fetch the cart
// afterwards rather than trusting any local view of the outcome.
func (c *Client) PlaceOrder(ctx context.Context, userID int64, cart *domain.Cart) (*domain.Order, error) {
	var order domain.Order
	body := placeOrderRequest{UserID: userID, Cart: cart}
	err := c.do(ctx, http.MethodPost, "/api/order/", body, http.StatusOK, &order)
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// ApplyDiscount applies a coupon code and returns the recomputed cart.
func (c *Client) ApplyDiscount(ctx context.Context, userID int64, code string) (*domain.Cart, error) {
	var cart domain.Cart
	body := discountRequest{UserID: userID, DiscountCode: code}
	err := c.do(ctx, http.MethodPost, "/api/discount/apply", body, http.StatusOK, &cart)
	if err != nil {
		return nil, err
	}
	return &cart, nil
}

// RemoveDiscount clears the applied coupon. The response body is not
// consumed; callers re-fetch the cart to observe the result.
func (c *Client) RemoveDiscount(ctx context.Context, userID int64, code string) error {
	body := discountRequest{UserID: userID, DiscountCode: code}
	return c.do(ctx, http.MethodPost, "/api/discount/remove", body, http.StatusOK, nil)
}

// AdminInsights fetches the admin dashboard aggregate.
func (c *Client) AdminInsights(ctx context.Context) (*domain.Insights, error) {
	var insights domain.Insights
	err := c.do(ctx, http.MethodGet, "/api/admin/insights", nil, http.StatusOK, &insights)
	if err != nil {
		return nil, err
	}
	return &insights, nil
}

// CreateDiscount creates a new backend-issued coupon with the given
// percentage. The caller refreshes insights to see it.
func (c *Client) CreateDiscount(ctx context.Context, percentage int) error {
	body := createDiscountRequest{Percentage: percentage}
	return c.do(ctx, http.MethodPost, "/api/admin/discount", body, http.StatusCreated, nil)
}

type loginRequest struct {
	Username string `json:"username"`
}

type cartMutationRequest struct {
	UserID   int64 `json:"userId"`
	ItemID   int64 `json:"itemId"`
	Quantity int   `json:"quantity"`
}

type placeOrderRequest struct {
	UserID int64        `json:"userId"`
	Cart   *domain.Cart `json:"cart"`
}

type discountRequest struct {
	UserID       int64  `json:"userId"`
	DiscountCode string `json:"discountCode"`
}

type createDiscountRequest struct {
	Percentage int `json:"percentage"`
}

type errorBody struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// do performs one round-trip: marshal body, send, check the expected
// status, decode into out (out may be nil for calls whose body is ignored).
func (c *Client) do(ctx context.Context, method, path string, body any, wantStatus int, out any) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal %s %s request: %w", method, path, err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("build %s %s request: %w", method, path, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Request-ID", uuid.NewString())

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	c.log.DebugContext(ctx, "backend call", "method", method, "path", path, "status", resp.StatusCode)

	if resp.StatusCode != wantStatus {
		return &StatusError{
			Method:  method,
			Path:    path,
			Status:  resp.StatusCode,
			Message: readErrorMessage(resp.Body),
		}
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s %s response: %w", method, path, err)
	}
	return nil
}

func readErrorMessage(r io.Reader) string {
	data, err := io.ReadAll(io.LimitReader(r, 4096))
	if err != nil || len(data) == 0 {
		return ""
	}

	var eb errorBody
	if json.Unmarshal(data, &eb) == nil {
		if eb.Message != "" {
			return eb.Message
		}
		if eb.Error != "" {
			return eb.Error
		}
	}
	return strings.TrimSpace(string(data))
}

// Package backend is an in-memory implementation of the storefront API,
// used as the local dev stub and as the authoritative side in tests. All
// pricing lives here: the client only ever displays what this (or the real
// backend) returns.
package backend

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/Uzal123/unibolx-ecommerce-frontend/internal/domain"
)

type cartRecord struct {
	quantities   map[int64]int // item id → quantity
	discountCode string
}

// Server holds the whole store state behind one mutex. Good enough for a
// dev stub; the real backend owns persistence.
type Server struct {
	log *slog.Logger

	mu        sync.Mutex
	items     []domain.Item
	itemsByID map[int64]domain.Item
	users     map[string]domain.User // by username
	nextUser  int64
	carts     map[int64]*cartRecord // by user id
	discounts []domain.Discount
	orders    []domain.Order
}

func New(log *slog.Logger) *Server {
	s := &Server{
		log:       log,
		users:     make(map[string]domain.User),
		nextUser:  1,
		carts:     make(map[int64]*cartRecord),
		itemsByID: make(map[int64]domain.Item),
	}
	s.seed()
	return s
}

func (s *Server) seed() {
	s.items = []domain.Item{
		{ID: 1, Name: "Laptop", Price: decimal.NewFromInt(999)},
		{ID: 2, Name: "Headphones", Price: decimal.NewFromInt(199)},
		{ID: 3, Name: "Keyboard", Price: decimal.NewFromInt(49)},
		{ID: 4, Name: "Mouse", Price: decimal.NewFromInt(25)},
		{ID: 5, Name: "Monitor", Price: decimal.NewFromInt(299)},
	}
	for _, it := range s.items {
		s.itemsByID[it.ID] = it
	}
	s.discounts = []domain.Discount{{Code: "WELCOME10", Percentage: 10}}
}

// Router wires the HTTP surface consumed by the client.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Post("/api/user/login", s.handleLogin)
	r.Get("/api/items/", s.handleListItems)
	r.Get("/api/cart/{userID}", s.handleGetCart)
	r.Post("/api/cart/add", s.handleAddToCart)
	r.Post("/api/cart/remove", s.handleRemoveFromCart)
	r.Post("/api/order/", s.handlePlaceOrder)
	r.Post("/api/discount/apply", s.handleApplyDiscount)
	r.Post("/api/discount/remove", s.handleRemoveDiscount)
	r.Get("/api/admin/insights", s.handleInsights)
	r.Post("/api/admin/discount", s.handleCreateDiscount)

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	return r
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Username string `json:"username"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	username := strings.TrimSpace(req.Username)
	if username == "" {
		respondError(w, http.StatusBadRequest, "username is required")
		return
	}

	s.mu.Lock()
	user, ok := s.users[username]
	if !ok {
		user = domain.User{
			ID:       s.nextUser,
			Username: username,
			IsAdmin:  username == "admin",
		}
		s.nextUser++
		s.users[username] = user
	}
	s.mu.Unlock()

	respondJSON(w, http.StatusCreated, user)
}

func (s *Server) handleListItems(w http.ResponseWriter, _ *http.Request) {
	s.mu.Lock()
	items := append([]domain.Item(nil), s.items...)
	s.mu.Unlock()
	respondJSON(w, http.StatusOK, items)
}

func (s *Server) handleGetCart(w http.ResponseWriter, r *http.Request) {
	userID, err := strconv.ParseInt(chi.URLParam(r, "userID"), 10, 64)
	if err != nil || userID <= 0 {
		respondError(w, http.StatusBadRequest, "invalid user id")
		return
	}

	s.mu.Lock()
	cart := s.priceCart(userID, s.cartFor(userID))
	s.mu.Unlock()

	respondJSON(w, http.StatusOK, cart)
}

type cartMutation struct {
	UserID   int64 `json:"userId"`
	ItemID   int64 `json:"itemId"`
	Quantity int   `json:"quantity"`
}

func (s *Server) handleAddToCart(w http.ResponseWriter, r *http.Request) {
	var req cartMutation
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.UserID <= 0 || req.Quantity <= 0 {
		respondError(w, http.StatusBadRequest, "userId and quantity must be positive")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.itemsByID[req.ItemID]; !ok {
		respondError(w, http.StatusNotFound, fmt.Sprintf("item %d not found", req.ItemID))
		return
	}

	rec := s.cartFor(req.UserID)
	rec.quantities[req.ItemID] += req.Quantity
	respondJSON(w, http.StatusCreated, s.priceCart(req.UserID, rec))
}

func (s *Server) handleRemoveFromCart(w http.ResponseWriter, r *http.Request) {
	var req cartMutation
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.UserID <= 0 || req.Quantity <= 0 {
		respondError(w, http.StatusBadRequest, "userId and quantity must be positive")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	rec := s.cartFor(req.UserID)
	current, ok := rec.quantities[req.ItemID]
	if !ok {
		respondError(w, http.StatusNotFound, fmt.Sprintf("item %d is not in the cart", req.ItemID))
		return
	}

	// Quantity floor: at zero or below the line disappears entirely.
	if current-req.Quantity <= 0 {
		delete(rec.quantities, req.ItemID)
	} else {
		rec.quantities[req.ItemID] = current - req.Quantity
	}
	respondJSON(w, http.StatusOK, s.priceCart(req.UserID, rec))
}

func (s *Server) handlePlaceOrder(w http.ResponseWriter, r *http.Request) {
	var req struct {
		UserID int64        `json:"userId"`
		Cart   *domain.Cart `json:"cart"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.UserID <= 0 {
		respondError(w, http.StatusBadRequest, "userId must be positive")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	rec := s.cartFor(req.UserID)
	if len(rec.quantities) == 0 {
		respondError(w, http.StatusBadRequest, "cart is empty")
		return
	}

	// The order snapshots the server-side cart, not the one the client
	// sent: the submitted cart is advisory only.
	cart := s.priceCart(req.UserID, rec)
	order := domain.Order{
		OrderID:          uuid.NewString(),
		UserID:           req.UserID,
		Items:            cart.Items,
		Total:            cart.Total,
		DiscountCodeUsed: cart.DiscountCodeUsed,
		DiscountAmount:   cart.DiscountAmount,
		GrandTotal:       cart.GrandTotal,
	}
	s.orders = append(s.orders, order)

	rec.quantities = make(map[int64]int)
	rec.discountCode = ""

	respondJSON(w, http.StatusOK, order)
}

type discountMutation struct {
	UserID       int64  `json:"userId"`
	DiscountCode string `json:"discountCode"`
}

func (s *Server) handleApplyDiscount(w http.ResponseWriter, r *http.Request) {
	var req discountMutation
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.UserID <= 0 {
		respondError(w, http.StatusBadRequest, "userId must be positive")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.discountByCode(req.DiscountCode); !ok {
		respondError(w, http.StatusNotFound, fmt.Sprintf("discount code %q is not valid", req.DiscountCode))
		return
	}

	// At most one active code: applying a second replaces the first.
	rec := s.cartFor(req.UserID)
	rec.discountCode = req.DiscountCode
	respondJSON(w, http.StatusOK, s.priceCart(req.UserID, rec))
}

func (s *Server) handleRemoveDiscount(w http.ResponseWriter, r *http.Request) {
	var req discountMutation
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.UserID <= 0 {
		respondError(w, http.StatusBadRequest, "userId must be positive")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	rec := s.cartFor(req.UserID)
	if rec.discountCode == "" || rec.discountCode != req.DiscountCode {
		respondError(w, http.StatusNotFound, "no such discount code applied")
		return
	}

	rec.discountCode = ""
	respondJSON(w, http.StatusOK, s.priceCart(req.UserID, rec))
}

func (s *Server) handleInsights(w http.ResponseWriter, _ *http.Request) {
	s.mu.Lock()
	insights := s.buildInsights()
	s.mu.Unlock()
	respondJSON(w, http.StatusOK, insights)
}

func (s *Server) handleCreateDiscount(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Percentage int `json:"percentage"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.Percentage <= 0 || req.Percentage > 100 {
		respondError(w, http.StatusBadRequest, "percentage must be between 1 and 100")
		return
	}

	s.mu.Lock()
	code := fmt.Sprintf("SAVE%d-%s", req.Percentage, strings.ToUpper(uuid.NewString()[:6]))
	discount := domain.Discount{Code: code, Percentage: req.Percentage}
	s.discounts = append(s.discounts, discount)
	s.mu.Unlock()

	s.log.Info("discount created", "code", code, "percentage", req.Percentage)
	respondJSON(w, http.StatusCreated, discount)
}

// cartFor returns the user's cart record, creating it on first touch.
// Callers hold s.mu.
func (s *Server) cartFor(userID int64) *cartRecord {
	rec, ok := s.carts[userID]
	if !ok {
		rec = &cartRecord{quantities: make(map[int64]int)}
		s.carts[userID] = rec
	}
	return rec
}

// priceCart computes the authoritative view of a cart record: line totals,
// cart total, discount amount and grand total. Callers hold s.mu.
func (s *Server) priceCart(userID int64, rec *cartRecord) domain.Cart {
	cart := domain.Cart{
		UserID:                 userID,
		Items:                  []domain.CartItem{},
		AvailableDiscountCodes: append([]domain.Discount(nil), s.discounts...),
		Total:                  decimal.Zero,
		DiscountAmount:         decimal.Zero,
	}

	ids := make([]int64, 0, len(rec.quantities))
	for id := range rec.quantities {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	for _, id := range ids {
		item := s.itemsByID[id]
		qty := rec.quantities[id]
		lineTotal := item.Price.Mul(decimal.NewFromInt(int64(qty)))
		cart.Items = append(cart.Items, domain.CartItem{
			ID:         item.ID,
			Name:       item.Name,
			Price:      item.Price,
			Quantity:   qty,
			TotalPrice: lineTotal,
		})
		cart.Total = cart.Total.Add(lineTotal)
	}

	if rec.discountCode != "" {
		if d, ok := s.discountByCode(rec.discountCode); ok {
			cart.DiscountCodeUsed = d.Code
			cart.DiscountAmount = cart.Total.
				Mul(decimal.NewFromInt(int64(d.Percentage))).
				Div(decimal.NewFromInt(100)).
				Round(2)
		}
	}
	cart.GrandTotal = cart.Total.Sub(cart.DiscountAmount)

	return cart
}

// buildInsights aggregates store-wide metrics. Callers hold s.mu.
func (s *Server) buildInsights() domain.Insights {
	insights := domain.Insights{
		TotalOrders:         len(s.orders),
		TotalCarts:          len(s.carts),
		TotalItems:          len(s.items),
		TotalDiscountCodes:  len(s.discounts),
		DiscountCodes:       append([]domain.Discount(nil), s.discounts...),
		TotalRevenue:        decimal.Zero,
		AverageOrderValue:   decimal.Zero,
		AverageItemsPerCart: decimal.Zero,
		TotalDiscountAmount: decimal.Zero,
	}

	for _, o := range s.orders {
		insights.TotalRevenue = insights.TotalRevenue.Add(o.GrandTotal)
		insights.TotalDiscountAmount = insights.TotalDiscountAmount.Add(o.DiscountAmount)
		if o.DiscountCodeUsed != "" {
			insights.TotalDiscountCodesUsed++
		}
	}
	if len(s.orders) > 0 {
		insights.AverageOrderValue = insights.TotalRevenue.
			Div(decimal.NewFromInt(int64(len(s.orders)))).
			Round(2)
	}

	if len(s.carts) > 0 {
		var lines int64
		for _, rec := range s.carts {
			for _, qty := range rec.quantities {
				lines += int64(qty)
			}
		}
		insights.AverageItemsPerCart = decimal.NewFromInt(lines).
			Div(decimal.NewFromInt(int64(len(s.carts)))).
			Round(2)
	}

	return insights
}

func (s *Server) discountByCode(code string) (domain.Discount, bool) {
	for _, d := range s.discounts {
		if d.Code == code {
			return d, true
		}
	}
	return domain.Discount{}, false
}

type errorResponse struct {
	Error string `json:"error"`
}

func respondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		slog.Error("failed to encode response", "err", err)
	}
}

func respondError(w http.ResponseWriter, status int, msg string) {
	respondJSON(w, status, errorResponse{Error: msg})
}

// Package mockserver provides an in-process brokerage API server for tests.
// It implements the token, account and order endpoints the live execution
// path talks to, plus fault injection for rate limits, outages and token
// revocation.
package mockserver

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/mux"
	"github.com/keel-lab/keel-trading/internal/types"
)

// MockBrokerageServer is a stateful fake of the brokerage REST API.
// Market orders fill immediately at the configured mark price; limit and
// stop orders rest as working until cancelled.
type MockBrokerageServer struct {
	mu sync.RWMutex

	// HTTP server
	httpServer *http.Server
	listener   net.Listener

	// Credential and token state
	secret   string
	tokenTTL time.Duration
	tokens   map[string]time.Time
	tokenSeq int

	// Trading state
	accounts map[string]*Account
	orders   map[string]*BrokerOrder
	byClient map[string]*BrokerOrder
	orderSeq int

	// Market marks orders execute against
	prices map[string]float64

	// Fault injection
	rateLimitBurst int
	orderFailBurst int

	// Counters for test assertions
	tokenRequests int
	orderRequests int
	rateLimited   int
}

// Account is the server-side account record.
type Account struct {
	ID       string
	Type     string
	Currency string
	Cash     float64
}

// BrokerOrder is the server-side record of a submitted order.
type BrokerOrder struct {
	BrokerageOrderID string
	ClientOrderID    string
	AccountID        string
	Symbol           string
	Side             types.Side
	OrderType        types.OrderType
	TimeInForce      types.TimeInForce
	Quantity         float64
	Amount           float64
	LimitPrice       float64
	StopPrice        float64
	Status           string
	FilledQuantity   float64
	AveragePrice     float64
	CreatedAt        time.Time
}

// Order lifecycle statuses reported by the mock.
const (
	OrderStatusFilled    = "FILLED"
	OrderStatusWorking   = "WORKING"
	OrderStatusCancelled = "CANCELLED"
)

// ServerConfig holds configuration for the mock server.
type ServerConfig struct {
	// Secret is the credential access-token requests must present.
	Secret string
	// TokenTTL overrides the validity requested by clients. Zero keeps
	// the requested validity. Tests use short TTLs to force refreshes.
	TokenTTL time.Duration
	// Accounts seeds the account list.
	Accounts []types.Account
	// Prices seeds the per-symbol marks market orders fill at.
	Prices map[string]float64
}

// NewMockBrokerageServer creates a new mock brokerage server.
func NewMockBrokerageServer(config ServerConfig) *MockBrokerageServer {
	server := &MockBrokerageServer{
		secret:   config.Secret,
		tokenTTL: config.TokenTTL,
		tokens:   make(map[string]time.Time),
		accounts: make(map[string]*Account),
		orders:   make(map[string]*BrokerOrder),
		byClient: make(map[string]*BrokerOrder),
		orderSeq: 1000,
		prices:   make(map[string]float64),
	}

	for _, account := range config.Accounts {
		server.accounts[account.ID] = &Account{
			ID:       account.ID,
			Type:     account.Type,
			Currency: account.Currency,
			Cash:     account.Cash,
		}
	}

	for symbol, price := range config.Prices {
		server.prices[symbol] = price
	}

	return server
}

// Start starts the mock server on the given address.
// If address is empty or ":0", a random available port is used.
func (s *MockBrokerageServer) Start(address string) error {
	if address == "" {
		address = ":0"
	}

	listener, err := net.Listen("tcp", address)
	if err != nil {
		return fmt.Errorf("failed to create listener: %w", err)
	}
	s.listener = listener

	router := mux.NewRouter()

	router.HandleFunc("/access-tokens", s.handleCreateToken).Methods("POST")
	router.HandleFunc("/trading/account", s.handleListAccounts).Methods("GET")
	router.HandleFunc("/trading/account/{accountId}/orders", s.handleCreateOrder).Methods("POST")
	router.HandleFunc("/trading/account/{accountId}/orders/{orderId}", s.handleGetOrder).Methods("GET")
	router.HandleFunc("/trading/account/{accountId}/orders/{orderId}", s.handleCancelOrder).Methods("DELETE")

	s.httpServer = &http.Server{
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		if err := s.httpServer.Serve(listener); err != http.ErrServerClosed {
			fmt.Printf("HTTP server error: %v\n", err)
		}
	}()

	return nil
}

// Stop stops the mock server.
func (s *MockBrokerageServer) Stop() error {
	if s.httpServer != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return s.httpServer.Shutdown(ctx)
	}

	return nil
}

// Address returns the address the server is listening on.
func (s *MockBrokerageServer) Address() string {
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// BaseURL returns the base URL for the server.
func (s *MockBrokerageServer) BaseURL() string {
	return "http://" + s.Address()
}

// Test controls

// SetPrice sets the mark price a symbol's market orders fill at.
func (s *MockBrokerageServer) SetPrice(symbol string, price float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.prices[symbol] = price
}

// GetPrice returns the current mark price for a symbol.
func (s *MockBrokerageServer) GetPrice(symbol string) float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.prices[symbol]
}

// RateLimitNext answers the next n requests, on any endpoint, with 429.
func (s *MockBrokerageServer) RateLimitNext(n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rateLimitBurst = n
}

// FailOrdersNext answers the next n order submissions with 500.
func (s *MockBrokerageServer) FailOrdersNext(n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.orderFailBurst = n
}

// RevokeTokens invalidates every issued token, forcing clients through a
// refresh on their next call.
func (s *MockBrokerageServer) RevokeTokens() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tokens = make(map[string]time.Time)
}

// TokenRequests returns how many access-token requests the server has seen.
func (s *MockBrokerageServer) TokenRequests() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.tokenRequests
}

// OrderRequests returns how many order submissions reached the order
// handler. Requests consumed by a rate-limit burst are not counted.
func (s *MockBrokerageServer) OrderRequests() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.orderRequests
}

// RateLimited returns how many requests were answered with 429.
func (s *MockBrokerageServer) RateLimited() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.rateLimited
}

// OrderByClientID returns the order submitted under the given client order
// id, if any.
func (s *MockBrokerageServer) OrderByClientID(clientOrderID string) (BrokerOrder, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	order, ok := s.byClient[clientOrderID]
	if !ok {
		return BrokerOrder{}, false
	}
	return *order, true
}

// Orders returns a copy of every order the server has accepted.
func (s *MockBrokerageServer) Orders() []BrokerOrder {
	s.mu.RLock()
	defer s.mu.RUnlock()

	orders := make([]BrokerOrder, 0, len(s.orders))
	for _, order := range s.orders {
		orders = append(orders, *order)
	}
	return orders
}

// Cash returns the remaining cash on an account.
func (s *MockBrokerageServer) Cash(accountID string) float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if account, ok := s.accounts[accountID]; ok {
		return account.Cash
	}
	return 0
}

// intercept applies global fault injection. It reports whether the request
// was already answered.
func (s *MockBrokerageServer) intercept(w http.ResponseWriter) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.rateLimitBurst > 0 {
		s.rateLimitBurst--
		s.rateLimited++
		http.Error(w, `{"message":"too many requests"}`, http.StatusTooManyRequests)
		return true
	}

	return false
}

// authorize checks the bearer token. It reports whether the request may
// proceed, answering 401 itself when not.
func (s *MockBrokerageServer) authorize(w http.ResponseWriter, r *http.Request) bool {
	token := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")

	s.mu.RLock()
	expiry, ok := s.tokens[token]
	s.mu.RUnlock()

	if token == "" || !ok || time.Now().After(expiry) {
		http.Error(w, `{"message":"invalid or expired token"}`, http.StatusUnauthorized)
		return false
	}

	return true
}

// REST API Handlers

// handleCreateToken handles POST /access-tokens
func (s *MockBrokerageServer) handleCreateToken(w http.ResponseWriter, r *http.Request) {
	if s.intercept(w) {
		return
	}

	var req struct {
		ValidityInMinutes int    `json:"validityInMinutes"`
		Secret            string `json:"secret"`
	}

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"message":"malformed token request"}`, http.StatusBadRequest)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.tokenRequests++

	if req.Secret != s.secret {
		http.Error(w, `{"message":"invalid secret"}`, http.StatusUnauthorized)
		return
	}

	validity := time.Duration(req.ValidityInMinutes) * time.Minute
	if validity <= 0 {
		validity = time.Hour
	}
	if s.tokenTTL > 0 {
		validity = s.tokenTTL
	}

	s.tokenSeq++
	token := fmt.Sprintf("tok-%d", s.tokenSeq)
	s.tokens[token] = time.Now().Add(validity)

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"accessToken": token,
	})
}

// handleListAccounts handles GET /trading/account
func (s *MockBrokerageServer) handleListAccounts(w http.ResponseWriter, r *http.Request) {
	if s.intercept(w) {
		return
	}
	if !s.authorize(w, r) {
		return
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	accounts := make([]map[string]any, 0, len(s.accounts))
	for _, account := range s.accounts {
		accounts = append(accounts, map[string]any{
			"accountId":   account.ID,
			"accountType": account.Type,
			"currency":    account.Currency,
			"cash":        account.Cash,
		})
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"accounts": accounts,
	})
}

// handleCreateOrder handles POST /trading/account/{accountId}/orders
func (s *MockBrokerageServer) handleCreateOrder(w http.ResponseWriter, r *http.Request) {
	if s.intercept(w) {
		return
	}
	if !s.authorize(w, r) {
		return
	}

	accountID := mux.Vars(r)["accountId"]

	var req struct {
		OrderID     string            `json:"orderId"`
		Side        types.Side        `json:"side"`
		OrderType   types.OrderType   `json:"orderType"`
		TimeInForce types.TimeInForce `json:"timeInForce"`
		Instrument  struct {
			Symbol string `json:"symbol"`
			Type   string `json:"type"`
		} `json:"instrument"`
		Quantity   *float64 `json:"quantity"`
		Amount     *float64 `json:"amount"`
		LimitPrice *float64 `json:"limitPrice"`
		StopPrice  *float64 `json:"stopPrice"`
	}

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"message":"malformed order"}`, http.StatusBadRequest)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.orderRequests++

	if s.orderFailBurst > 0 {
		s.orderFailBurst--
		http.Error(w, `{"message":"order service unavailable"}`, http.StatusInternalServerError)
		return
	}

	if req.OrderID == "" || req.Instrument.Symbol == "" || req.Side == "" || req.OrderType == "" {
		http.Error(w, `{"message":"missing required order fields"}`, http.StatusBadRequest)
		return
	}

	// Replayed submissions acknowledge the original order instead of
	// filling twice. The client order id is the idempotency key.
	if existing, ok := s.byClient[req.OrderID]; ok {
		s.writeOrderAck(w, existing)
		return
	}

	account, ok := s.accounts[accountID]
	if !ok {
		http.Error(w, `{"message":"unknown account"}`, http.StatusNotFound)
		return
	}

	symbol := req.Instrument.Symbol

	s.orderSeq++
	order := &BrokerOrder{
		BrokerageOrderID: fmt.Sprintf("B-%d", s.orderSeq),
		ClientOrderID:    req.OrderID,
		AccountID:        accountID,
		Symbol:           symbol,
		Side:             req.Side,
		OrderType:        req.OrderType,
		TimeInForce:      req.TimeInForce,
		Status:           OrderStatusWorking,
		CreatedAt:        time.Now(),
	}

	if req.Quantity != nil {
		order.Quantity = *req.Quantity
	}
	if req.Amount != nil {
		order.Amount = *req.Amount
	}
	if req.LimitPrice != nil {
		order.LimitPrice = *req.LimitPrice
	}
	if req.StopPrice != nil {
		order.StopPrice = *req.StopPrice
	}

	// Market orders execute immediately at the mark; everything else
	// rests as working.
	if order.OrderType == types.OrderTypeMarket {
		price := s.prices[symbol]
		if price <= 0 {
			http.Error(w, `{"message":"no market for symbol"}`, http.StatusBadRequest)
			return
		}

		quantity := order.Quantity
		cost := quantity * price
		if quantity == 0 && order.Amount > 0 {
			cost = order.Amount
			quantity = order.Amount / price
		}

		if order.Side == types.SideBuy {
			if account.Cash < cost {
				http.Error(w, `{"message":"insufficient buying power"}`, http.StatusBadRequest)
				return
			}
			account.Cash -= cost
		} else {
			account.Cash += cost
		}

		order.Status = OrderStatusFilled
		order.FilledQuantity = quantity
		order.AveragePrice = price
	}

	s.orders[order.BrokerageOrderID] = order
	s.byClient[order.ClientOrderID] = order

	s.writeOrderAck(w, order)
}

// writeOrderAck answers an order submission. Callers hold the lock.
func (s *MockBrokerageServer) writeOrderAck(w http.ResponseWriter, order *BrokerOrder) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"orderId": order.BrokerageOrderID,
	})
}

// handleGetOrder handles GET /trading/account/{accountId}/orders/{orderId}
func (s *MockBrokerageServer) handleGetOrder(w http.ResponseWriter, r *http.Request) {
	if s.intercept(w) {
		return
	}
	if !s.authorize(w, r) {
		return
	}

	orderID := mux.Vars(r)["orderId"]

	s.mu.RLock()
	defer s.mu.RUnlock()

	order, ok := s.orders[orderID]
	if !ok {
		http.Error(w, `{"message":"order not found"}`, http.StatusNotFound)
		return
	}

	response := map[string]any{
		"orderId":        order.BrokerageOrderID,
		"status":         order.Status,
		"filledQuantity": order.FilledQuantity,
	}

	if order.Status == OrderStatusFilled {
		response["averagePrice"] = order.AveragePrice
	} else {
		response["averagePrice"] = nil
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(response)
}

// handleCancelOrder handles DELETE /trading/account/{accountId}/orders/{orderId}
func (s *MockBrokerageServer) handleCancelOrder(w http.ResponseWriter, r *http.Request) {
	if s.intercept(w) {
		return
	}
	if !s.authorize(w, r) {
		return
	}

	orderID := mux.Vars(r)["orderId"]

	s.mu.Lock()
	defer s.mu.Unlock()

	order, ok := s.orders[orderID]
	if !ok {
		http.Error(w, `{"message":"order not found"}`, http.StatusNotFound)
		return
	}

	if order.Status != OrderStatusWorking {
		http.Error(w, `{"message":"order is not cancellable"}`, http.StatusBadRequest)
		return
	}

	order.Status = OrderStatusCancelled

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"orderId": order.BrokerageOrderID,
		"status":  order.Status,
	})
}

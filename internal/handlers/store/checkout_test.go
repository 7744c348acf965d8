package store

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"gamevault_back_end/internal/checkout"
	"gamevault_back_end/internal/database"
	"gamevault_back_end/internal/models"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Doublures branchées sur les ports du moteur: les handlers sont testés
// au-dessus d'un vrai panier Redis (miniredis) et d'un règlement complet.

type stubCatalog struct{ games map[int]models.Game }

func (s stubCatalog) GamesByIDs(_ context.Context, ids []int) (map[int]models.Game, error) {
	out := make(map[int]models.Game)
	for _, id := range ids {
		if g, ok := s.games[id]; ok {
			out[id] = g
		}
	}
	return out, nil
}

type stubDiscounts struct{ codes map[string]*models.DiscountCode }

func (s stubDiscounts) ByCode(_ context.Context, code string) (models.DiscountCode, error) {
	dc, ok := s.codes[checkout.NormalizeCode(code)]
	if !ok {
		return models.DiscountCode{}, checkout.ErrCodeNotFound
	}
	return *dc, nil
}

func (s stubDiscounts) UserRedemptions(context.Context, string, string) (int, error) {
	return 0, nil
}

func (s stubDiscounts) ConsumeUsage(_ context.Context, code string, expectedUsed int) (bool, error) {
	dc := s.codes[checkout.NormalizeCode(code)]
	if dc.UsedCount != expectedUsed {
		return false, nil
	}
	dc.UsedCount++
	return true, nil
}

func (s stubDiscounts) ReleaseUsage(_ context.Context, code string) error {
	s.codes[checkout.NormalizeCode(code)].UsedCount--
	return nil
}

func (s stubDiscounts) ReserveRedemption(context.Context, string, string) (bool, error) {
	return true, nil
}

func (s stubDiscounts) ReleaseRedemption(context.Context, string, string) error {
	return nil
}

type stubWallet struct{ balance float64 }

func (s *stubWallet) Balance(context.Context, string) (float64, error) { return s.balance, nil }

func (s *stubWallet) Debit(_ context.Context, _ string, amount float64) error {
	if s.balance < amount {
		return checkout.ErrInsufficientFunds
	}
	s.balance -= amount
	return nil
}

func (s *stubWallet) Credit(_ context.Context, _ string, amount float64) error {
	s.balance += amount
	return nil
}

type stubLibrary struct{ owned map[int]bool }

func (s stubLibrary) OwnedIDs(context.Context, string) (map[int]bool, error) {
	return s.owned, nil
}

type stubPurchases struct {
	inFlight  map[string]bool
	committed map[string]models.Purchase
}

func (s *stubPurchases) ReserveRequest(_ context.Context, _, requestID string) (*models.Purchase, bool, error) {
	if p, ok := s.committed[requestID]; ok {
		return &p, false, nil
	}
	if s.inFlight[requestID] {
		return nil, false, nil
	}
	s.inFlight[requestID] = true
	return nil, true, nil
}

func (s *stubPurchases) ReleaseRequest(_ context.Context, _, requestID string) error {
	delete(s.inFlight, requestID)
	return nil
}

func (s *stubPurchases) Commit(_ context.Context, rec checkout.CommitRecord) error {
	s.committed[rec.RequestID] = rec.Purchase
	delete(s.inFlight, rec.RequestID)
	return nil
}

type checkoutFixture struct {
	router *gin.Engine
	wallet *stubWallet
	carts  *checkout.CartStore
}

func setupCheckoutRouter(t *testing.T, balance float64) *checkoutFixture {
	t.Helper()
	gin.SetMode(gin.TestMode)

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	database.Redis = rdb

	catalog := stubCatalog{games: map[int]models.Game{
		7: {ID: 7, Name: "Star Drifter", Price: 400},
		8: {ID: 8, Name: "Moss Kingdom", Price: 600},
	}}
	discounts := stubDiscounts{codes: map[string]*models.DiscountCode{
		"SAVE10": {Code: "SAVE10", Kind: models.DiscountPercent, Value: 10, Enabled: true},
	}}
	wallet := &stubWallet{balance: balance}
	library := stubLibrary{owned: map[int]bool{}}
	purchases := &stubPurchases{
		inFlight:  map[string]bool{},
		committed: map[string]models.Purchase{},
	}

	carts := checkout.NewCartStore(rdb, library)
	engine := checkout.NewEngine(catalog, discounts, wallet, library, purchases, carts)
	Init(carts, engine, checkout.NewEvaluator(discounts), wallet)

	router := gin.New()
	router.Use(func(c *gin.Context) {
		c.Set("user_id", "user-1")
	})
	router.GET("/api/cart", GetCart)
	router.GET("/api/discount/:code/quote", QuoteDiscount)
	router.POST("/api/checkout", Checkout)

	return &checkoutFixture{router: router, wallet: wallet, carts: carts}
}

func (f *checkoutFixture) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	return w
}

func TestCheckoutHandlerSettlesCart(t *testing.T) {
	f := setupCheckoutRouter(t, 5000)

	_, err := f.carts.AddLine(context.Background(), "user-1", models.Game{ID: 7, Name: "Star Drifter", Price: 400}, 1)
	require.NoError(t, err)

	w := f.do(t, http.MethodPost, "/api/checkout", gin.H{"request_id": "req-1"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp struct {
		Purchase models.Purchase `json:"purchase"`
		Balance  float64         `json:"balance"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, []int{7}, resp.Purchase.GameIDs)
	assert.Equal(t, 400.0, resp.Purchase.FinalAmount)
	assert.Equal(t, 4600.0, resp.Balance)

	// Le panier ne contient plus la ligne réglée.
	w = f.do(t, http.MethodGet, "/api/cart", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var cart struct {
		Items    []models.CartItem `json:"items"`
		Subtotal float64           `json:"subtotal"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &cart))
	assert.Empty(t, cart.Items)
}

func TestCheckoutHandlerInsufficientFunds(t *testing.T) {
	f := setupCheckoutRouter(t, 100)

	_, err := f.carts.AddLine(context.Background(), "user-1", models.Game{ID: 7, Name: "Star Drifter", Price: 400}, 1)
	require.NoError(t, err)

	w := f.do(t, http.MethodPost, "/api/checkout", gin.H{"request_id": "req-1"})
	require.Equal(t, http.StatusPaymentRequired, w.Code)

	var resp map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "INSUFFICIENT_FUNDS", resp["code"])
	assert.Equal(t, 100.0, f.wallet.balance)
}

func TestCheckoutHandlerMissingRequestID(t *testing.T) {
	f := setupCheckoutRouter(t, 5000)

	w := f.do(t, http.MethodPost, "/api/checkout", gin.H{})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestQuoteDiscountHandler(t *testing.T) {
	f := setupCheckoutRouter(t, 0)

	w := f.do(t, http.MethodGet, "/api/discount/save10/quote?subtotal=1000", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var quote models.Quote
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &quote))
	assert.Equal(t, 900.0, quote.FinalAmount)
}

func TestQuoteDiscountHandlerUnknownCode(t *testing.T) {
	f := setupCheckoutRouter(t, 0)

	w := f.do(t, http.MethodGet, "/api/discount/NOPE/quote?subtotal=1000", nil)
	require.Equal(t, http.StatusBadRequest, w.Code)

	var resp map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "CODE_NOT_FOUND", resp["code"])
}

package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/Beveren-Software-Inc/klikpos-core/internal/application/service"
	"github.com/Beveren-Software-Inc/klikpos-core/internal/domain/entity"
	"github.com/Beveren-Software-Inc/klikpos-core/internal/infrastructure/cache"
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type stubProductRepo struct {
	products map[string]entity.Product
	calls    [][]string
}

func (r *stubProductRepo) GetByCode(_ context.Context, code string) (*entity.Product, error) {
	p, ok := r.products[code]
	if !ok {
		return nil, nil
	}
	return &p, nil
}

func (r *stubProductRepo) StockLevels(_ context.Context, codes []string) ([]entity.StockLevel, error) {
	r.calls = append(r.calls, codes)
	var out []entity.StockLevel
	for _, code := range codes {
		if p, ok := r.products[code]; ok {
			out = append(out, entity.StockLevel{ItemCode: p.ItemCode, OnHand: p.OnHand})
		}
	}
	return out, nil
}

func (r *stubProductRepo) StockChangedSince(context.Context, time.Time) ([]entity.StockLevel, error) {
	return nil, nil
}

type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func newProductRouter(repo *stubProductRepo) *gin.Engine {
	h := NewProductHandler(service.NewProductService(repo, cache.NewMemoryStore(), zap.NewNop()))
	router := gin.New()
	router.GET("/items/:code", h.Get)
	router.GET("/stock", h.Stock)
	return router
}

func get(t *testing.T, router *gin.Engine, path string) (int, envelope) {
	t.Helper()
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))

	var body envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return rec.Code, body
}

func TestProductHandler(t *testing.T) {
	repo := &stubProductRepo{products: map[string]entity.Product{
		"A": {ItemCode: "A", Name: "Arabica 250g", Price: decimal.NewFromInt(100), OnHand: 12},
		"B": {ItemCode: "B", Name: "Brew Filter", Price: decimal.NewFromInt(25), OnHand: 3},
	}}
	router := newProductRouter(repo)

	t.Run("item lookup", func(t *testing.T) {
		code, body := get(t, router, "/items/A")
		require.Equal(t, http.StatusOK, code)
		assert.True(t, body.Success)

		var product entity.Product
		require.NoError(t, json.Unmarshal(body.Data, &product))
		assert.Equal(t, "Arabica 250g", product.Name)
		assert.True(t, product.Price.Equal(decimal.NewFromInt(100)))
	})

	t.Run("unknown item", func(t *testing.T) {
		code, body := get(t, router, "/items/Z")
		assert.Equal(t, http.StatusNotFound, code)
		assert.False(t, body.Success)
	})

	t.Run("stock is served from cache after the first read", func(t *testing.T) {
		code, body := get(t, router, "/stock?codes=A,%20B,,")
		require.Equal(t, http.StatusOK, code)

		var levels []entity.StockLevel
		require.NoError(t, json.Unmarshal(body.Data, &levels))
		assert.ElementsMatch(t, []entity.StockLevel{
			{ItemCode: "A", OnHand: 12},
			{ItemCode: "B", OnHand: 3},
		}, levels)
		assert.Equal(t, [][]string{{"A", "B"}}, repo.calls)

		code, _ = get(t, router, "/stock?codes=B")
		require.Equal(t, http.StatusOK, code)
		assert.Len(t, repo.calls, 1)
	})
}

func TestParamUUIDRejectsMalformedIDs(t *testing.T) {
	router := gin.New()
	router.GET("/invoices/:id", func(c *gin.Context) {
		if _, ok := paramUUID(c, "id", "invoice ID"); ok {
			c.Status(http.StatusNoContent)
		}
	})

	code, body := get(t, router, "/invoices/not-a-uuid")
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "Invalid invoice ID", body.Message)
}

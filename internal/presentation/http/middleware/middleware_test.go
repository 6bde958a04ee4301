package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/Beveren-Software-Inc/klikpos-core/internal/domain/entity"
	"github.com/Beveren-Software-Inc/klikpos-core/internal/presentation/http/dto/response"
	"github.com/Beveren-Software-Inc/klikpos-core/pkg/apperror"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type memoryIdempotencyRepo struct {
	mu   sync.Mutex
	keys map[string]*entity.IdempotencyKey
}

func newMemoryIdempotencyRepo() *memoryIdempotencyRepo {
	return &memoryIdempotencyRepo{keys: make(map[string]*entity.IdempotencyKey)}
}

func memoryKey(ikey *entity.IdempotencyKey) string {
	return ikey.TerminalID.String() + "/" + ikey.Key
}

func (r *memoryIdempotencyRepo) Reserve(_ context.Context, ikey *entity.IdempotencyKey) (*entity.IdempotencyKey, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if held, ok := r.keys[memoryKey(ikey)]; ok && !held.IsExpired() {
		copied := *held
		return &copied, nil
	}
	stored := *ikey
	r.keys[memoryKey(ikey)] = &stored
	return nil, nil
}

func (r *memoryIdempotencyRepo) Complete(_ context.Context, ikey *entity.IdempotencyKey) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored := *ikey
	r.keys[memoryKey(ikey)] = &stored
	return nil
}

func (r *memoryIdempotencyRepo) Release(_ context.Context, ikey *entity.IdempotencyKey) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if held, ok := r.keys[memoryKey(ikey)]; ok && held.IsPending() {
		delete(r.keys, memoryKey(ikey))
	}
	return nil
}

func (r *memoryIdempotencyRepo) DeleteExpired(context.Context, time.Time) (int64, error) { return 0, nil }

func serve(router *gin.Engine, method, path string, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestRequireTerminal(t *testing.T) {
	router := gin.New()
	router.Use(RequireTerminal())
	router.GET("/whoami", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"terminal": GetTerminalID(c).String()})
	})

	rec := serve(router, http.MethodGet, "/whoami", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), apperror.ErrMissingTerminal.Message)

	rec = serve(router, http.MethodGet, "/whoami", map[string]string{TerminalIDHeader: "till-1"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = serve(router, http.MethodGet, "/whoami", map[string]string{TerminalIDHeader: uuid.Nil.String()})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	terminalID := uuid.New()
	rec = serve(router, http.MethodGet, "/whoami", map[string]string{TerminalIDHeader: terminalID.String()})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"terminal":"`+terminalID.String()+`"}`, rec.Body.String())
}

func TestIdempotencyRequired(t *testing.T) {
	repo := newMemoryIdempotencyRepo()
	calls := 0
	status := http.StatusCreated

	router := gin.New()
	router.Use(RequireTerminal())
	router.POST("/submit", IdempotencyRequired(IdempotencyConfig{Repo: repo}), func(c *gin.Context) {
		calls++
		if status != http.StatusCreated {
			response.Error(c, apperror.NewUnprocessableError("nothing to submit"))
			return
		}
		response.Created(c, "Invoice submitted", gin.H{"call": calls})
	})

	terminal := uuid.New().String()
	other := uuid.New().String()

	t.Run("key is required", func(t *testing.T) {
		rec := serve(router, http.MethodPost, "/submit", map[string]string{TerminalIDHeader: terminal})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, 0, calls)
	})

	t.Run("rejected responses are not stored", func(t *testing.T) {
		status = http.StatusUnprocessableEntity
		defer func() { status = http.StatusCreated }()

		headers := map[string]string{TerminalIDHeader: terminal, IdempotencyKeyHeader: "k-rejected"}
		rec := serve(router, http.MethodPost, "/submit", headers)
		assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

		rec = serve(router, http.MethodPost, "/submit", headers)
		assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
		assert.Empty(t, rec.Header().Get("X-Idempotency-Replayed"))
		assert.Equal(t, 2, calls)
	})

	t.Run("retries replay the first response", func(t *testing.T) {
		calls = 0
		headers := map[string]string{TerminalIDHeader: terminal, IdempotencyKeyHeader: "k-1"}

		first := serve(router, http.MethodPost, "/submit", headers)
		require.Equal(t, http.StatusCreated, first.Code)

		second := serve(router, http.MethodPost, "/submit", headers)
		assert.Equal(t, http.StatusCreated, second.Code)
		assert.Equal(t, "true", second.Header().Get("X-Idempotency-Replayed"))
		assert.Equal(t, first.Body.String(), second.Body.String())
		assert.Equal(t, 1, calls)
	})

	t.Run("keys are scoped to the terminal", func(t *testing.T) {
		calls = 0
		rec := serve(router, http.MethodPost, "/submit", map[string]string{TerminalIDHeader: other, IdempotencyKeyHeader: "k-1"})
		assert.Equal(t, http.StatusCreated, rec.Code)
		assert.Empty(t, rec.Header().Get("X-Idempotency-Replayed"))
		assert.Equal(t, 1, calls)
	})
}

func TestIdempotencyRequiredBlocksConcurrentDuplicate(t *testing.T) {
	repo := newMemoryIdempotencyRepo()
	entered := make(chan struct{})
	proceed := make(chan struct{})
	var writes int32

	router := gin.New()
	router.Use(RequireTerminal())
	router.POST("/returns/submit", IdempotencyRequired(IdempotencyConfig{Repo: repo}), func(c *gin.Context) {
		atomic.AddInt32(&writes, 1)
		close(entered)
		<-proceed
		response.Created(c, "Return submitted successfully", gin.H{"return_no": "SRET-0001"})
	})

	headers := map[string]string{TerminalIDHeader: uuid.New().String(), IdempotencyKeyHeader: "ret-1"}

	firstDone := make(chan *httptest.ResponseRecorder)
	go func() {
		firstDone <- serve(router, http.MethodPost, "/returns/submit", headers)
	}()
	<-entered

	second := serve(router, http.MethodPost, "/returns/submit", headers)
	assert.Equal(t, http.StatusConflict, second.Code)
	assert.Contains(t, second.Body.String(), apperror.ErrRequestInFlight.Message)

	close(proceed)
	first := <-firstDone
	require.Equal(t, http.StatusCreated, first.Code)
	assert.EqualValues(t, 1, atomic.LoadInt32(&writes))

	third := serve(router, http.MethodPost, "/returns/submit", headers)
	assert.Equal(t, http.StatusCreated, third.Code)
	assert.Equal(t, "true", third.Header().Get("X-Idempotency-Replayed"))
	assert.Equal(t, first.Body.String(), third.Body.String())
	assert.EqualValues(t, 1, atomic.LoadInt32(&writes))
}

func TestTerminalRateLimiter(t *testing.T) {
	cfg := DefaultRateLimiterConfig()
	cfg.RequestsPerSecond = 0.001
	cfg.BurstSize = 2
	limiter := NewTerminalRateLimiter(cfg)

	router := gin.New()
	router.Use(RequireTerminal(), limiter.Middleware())
	router.GET("/ping", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	busy := map[string]string{TerminalIDHeader: uuid.New().String()}
	for i := 0; i < 2; i++ {
		rec := serve(router, http.MethodGet, "/ping", busy)
		require.Equal(t, http.StatusNoContent, rec.Code, "request %d", i)
	}

	rec := serve(router, http.MethodGet, "/ping", busy)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "1", rec.Header().Get("Retry-After"))

	rec = serve(router, http.MethodGet, "/ping", map[string]string{TerminalIDHeader: uuid.New().String()})
	assert.Equal(t, http.StatusNoContent, rec.Code)

	assert.Equal(t, 2, limiter.Stats()["active_clients"])
}

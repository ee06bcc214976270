package cache

import (
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

type countingMetrics struct {
	hits   int64
	misses int64
}

func (m *countingMetrics) IncrementCacheHit()  { atomic.AddInt64(&m.hits, 1) }
func (m *countingMetrics) IncrementCacheMiss() { atomic.AddInt64(&m.misses, 1) }

func TestCacheGetSet(t *testing.T) {
	c := NewCache(time.Minute)

	_, found := c.Get("missing")
	assert.False(t, found)

	c.Set("key", []byte("value"))
	data, found := c.Get("key")
	assert.True(t, found)
	assert.Equal(t, []byte("value"), data)

	c.Delete("key")
	_, found = c.Get("key")
	assert.False(t, found)
}

func TestCacheExpiry(t *testing.T) {
	c := NewCache(10 * time.Millisecond)
	c.Set("key", []byte("value"))

	time.Sleep(20 * time.Millisecond)

	_, found := c.Get("key")
	assert.False(t, found)
}

func TestCacheClear(t *testing.T) {
	c := NewCache(time.Minute)
	c.Set("a", []byte("1"))
	c.Set("b", []byte("2"))
	assert.Equal(t, 2, c.Size())

	c.Clear()
	assert.Equal(t, 0, c.Size())
}

func TestMiddlewareCachesAPIReads(t *testing.T) {
	gin.SetMode(gin.TestMode)

	c := NewCache(time.Minute)
	metrics := &countingMetrics{}
	var handlerCalls int64

	router := gin.New()
	router.Use(c.Middleware(metrics))
	router.GET("/api/repos", func(ctx *gin.Context) {
		atomic.AddInt64(&handlerCalls, 1)
		ctx.JSON(http.StatusOK, gin.H{"repos": []string{}})
	})

	for i := 0; i < 3; i++ {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/api/repos?category=Infrastructure", nil)
		router.ServeHTTP(w, req)
		assert.Equal(t, http.StatusOK, w.Code)
	}

	assert.Equal(t, int64(1), atomic.LoadInt64(&handlerCalls))
	assert.Equal(t, int64(2), atomic.LoadInt64(&metrics.hits))
	assert.Equal(t, int64(1), atomic.LoadInt64(&metrics.misses))
}

func TestMiddlewareKeysOnFullURI(t *testing.T) {
	gin.SetMode(gin.TestMode)

	c := NewCache(time.Minute)
	var handlerCalls int64

	router := gin.New()
	router.Use(c.Middleware(nil))
	router.GET("/api/repos", func(ctx *gin.Context) {
		atomic.AddInt64(&handlerCalls, 1)
		ctx.JSON(http.StatusOK, gin.H{"q": ctx.Query("search")})
	})

	for _, uri := range []string{"/api/repos?q=fold", "/api/repos?q=esm"} {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, uri, nil))
	}

	assert.Equal(t, int64(2), atomic.LoadInt64(&handlerCalls))
}

func TestMiddlewareSkipsNonAPIAndWrites(t *testing.T) {
	gin.SetMode(gin.TestMode)

	c := NewCache(time.Minute)
	router := gin.New()
	router.Use(c.Middleware(nil))
	router.GET("/health", func(ctx *gin.Context) { ctx.String(http.StatusOK, "ok") })
	router.POST("/api/refresh", func(ctx *gin.Context) { ctx.String(http.StatusOK, "ok") })

	router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/health", nil))
	router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/api/refresh", nil))

	assert.Equal(t, 0, c.Size())
}

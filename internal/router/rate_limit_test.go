package router

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKeyByPathParam(t *testing.T) {
	gin.SetMode(gin.TestMode)

	var got string
	r := gin.New()
	r.POST("/realtors/:id/payouts", func(c *gin.Context) {
		got = KeyByPathParam("id")(c)
	})
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/realtors/42/payouts", nil))

	if got != "42" {
		t.Fatalf("key want 42 got %s", got)
	}
}

func TestRedisRateLimitPerRealtor(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	r := gin.New()
	r.POST("/realtors/:id/payouts",
		RateLimitMiddleware(client, RateLimitRule{Prefix: "rl:payout", WindowSeconds: 60, MaxRequests: 2}, KeyByPathParam("id")),
		func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"ok": true}) },
	)

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		codes = append(codes, rateLimitStatusCode(t, r, "/realtors/1/payouts"))
	}
	assert.Equal(t, []int{0, 0, 429}, codes)
	assert.Equal(t, 0, rateLimitStatusCode(t, r, "/realtors/2/payouts"))
	assert.True(t, mr.Exists("rl:payout:1"))
}

func TestLocalRateLimitPerRealtor(t *testing.T) {
	gin.SetMode(gin.TestMode)

	r := gin.New()
	r.POST("/realtors/:id/payouts",
		LocalRateLimitMiddleware(RateLimitRule{WindowSeconds: 60, MaxRequests: 1}, KeyByPathParam("id")),
		func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"ok": true}) },
	)

	assert.Equal(t, 0, rateLimitStatusCode(t, r, "/realtors/1/payouts"))
	assert.Equal(t, 429, rateLimitStatusCode(t, r, "/realtors/1/payouts"))
	assert.Equal(t, 0, rateLimitStatusCode(t, r, "/realtors/2/payouts"))
}

func rateLimitStatusCode(t *testing.T, r *gin.Engine, path string) int {
	t.Helper()
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, path, nil))
	require.Equal(t, http.StatusOK, w.Code)
	var resp struct {
		StatusCode int `json:"status_code"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp.StatusCode
}

func TestRateLimitMiddlewareWithoutClient(t *testing.T) {
	gin.SetMode(gin.TestMode)

	r := gin.New()
	r.Use(RateLimitMiddleware(nil, RateLimitRule{WindowSeconds: 60, MaxRequests: 1}, KeyByIP))
	r.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status want 200 got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), `"ok":true`) {
		t.Fatalf("expected handler response body, got %s", w.Body.String())
	}
}

func TestToInt64(t *testing.T) {
	cases := []struct {
		name  string
		input interface{}
		want  int64
		ok    bool
	}{
		{name: "int64", input: int64(10), want: 10, ok: true},
		{name: "int", input: int(11), want: 11, ok: true},
		{name: "uint64", input: uint64(12), want: 12, ok: true},
		{name: "float64", input: float64(13.9), want: 13, ok: true},
		{name: "string", input: "bad", want: 0, ok: false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, ok := toInt64(tc.input)
			if ok != tc.ok {
				t.Fatalf("ok want %v got %v", tc.ok, ok)
			}
			if got != tc.want {
				t.Fatalf("value want %d got %d", tc.want, got)
			}
		})
	}
}

func TestRateLimitedResponseCarriesRetryAfter(t *testing.T) {
	gin.SetMode(gin.TestMode)

	r := gin.New()
	r.POST("/realtors/:id/payouts",
		LocalRateLimitMiddleware(RateLimitRule{WindowSeconds: 60, MaxRequests: 1}, KeyByPathParam("id")),
		func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"ok": true}) },
	)
	_ = rateLimitStatusCode(t, r, "/realtors/7/payouts")

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/realtors/7/payouts", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "60", w.Header().Get("Retry-After"))

	var resp struct {
		StatusCode int `json:"status_code"`
		Data       struct {
			RetryAfter int `json:"retry_after"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, 429, resp.StatusCode)
	assert.Equal(t, 60, resp.Data.RetryAfter)
}

func TestRedisRateLimitUnavailable(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr(), MaxRetries: -1})
	t.Cleanup(func() { _ = client.Close() })
	mr.Close()

	r := gin.New()
	r.POST("/realtors/:id/payouts",
		RateLimitMiddleware(client, RateLimitRule{Prefix: "rl:payout", WindowSeconds: 60, MaxRequests: 2}, KeyByPathParam("id")),
		func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"ok": true}) },
	)
	assert.Equal(t, 503, rateLimitStatusCode(t, r, "/realtors/1/payouts"))
}

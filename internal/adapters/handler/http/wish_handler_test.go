package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/evkarev/dailywish/internal/adapters/repository"
	"github.com/evkarev/dailywish/internal/core/domain"
	"github.com/evkarev/dailywish/internal/core/services"
)

func setupWishRouter(t *testing.T) (*gin.Engine, *repository.InMemoryRecordRepository) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	repo := repository.NewInMemoryRecordRepository()
	svc := services.NewWishService(repo, domain.DefaultCatalog(), nil, time.UTC, 0)

	router := gin.New()
	NewWishHandler(svc).RegisterRoutes(router.Group("/api/v1"))
	return router, repo
}

func postWish(t *testing.T, router *gin.Engine, body string) (*httptest.ResponseRecorder, grantResponse) {
	t.Helper()

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/wish", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	var resp grantResponse
	if w.Code == http.StatusOK {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	}
	return w, resp
}

func TestWishHandler_Grant(t *testing.T) {
	t.Run("First request of the day is granted", func(t *testing.T) {
		router, _ := setupWishRouter(t)

		w, resp := postWish(t, router, `{"user_id": 7, "at": "2024-01-10T12:00:00Z"}`)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.True(t, resp.Granted)
		assert.Equal(t, 1, resp.Streak)
		assert.Equal(t, 1, resp.Total)
		assert.NotEmpty(t, resp.Wish)
		assert.Contains(t, resp.Reply, resp.Wish)
		assert.Zero(t, resp.RetryInS)
	})

	t.Run("Second request of the day is denied with retry hint", func(t *testing.T) {
		router, _ := setupWishRouter(t)

		_, first := postWish(t, router, `{"user_id": 7, "at": "2024-01-10T12:00:00Z"}`)
		require.True(t, first.Granted)

		w, resp := postWish(t, router, `{"user_id": 7, "at": "2024-01-10T12:00:00Z"}`)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.False(t, resp.Granted)
		assert.Equal(t, first.Wish, resp.Wish)
		assert.Equal(t, 12*60*60, resp.RetryInS)
		assert.Contains(t, resp.Reply, "Возвращайся завтра")
	})

	t.Run("Next day extends the streak", func(t *testing.T) {
		router, _ := setupWishRouter(t)

		postWish(t, router, `{"user_id": 7, "at": "2024-01-10T12:00:00Z"}`)
		_, resp := postWish(t, router, `{"user_id": 7, "at": "2024-01-11T09:00:00Z"}`)

		assert.True(t, resp.Granted)
		assert.Equal(t, 2, resp.Streak)
		assert.Equal(t, 2, resp.Total)
	})

	t.Run("Missing user_id is a 400", func(t *testing.T) {
		router, _ := setupWishRouter(t)

		w, _ := postWish(t, router, `{"at": "2024-01-10T12:00:00Z"}`)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("Malformed at is a 400", func(t *testing.T) {
		router, _ := setupWishRouter(t)

		w, _ := postWish(t, router, `{"user_id": 7, "at": "10.01.2024"}`)
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, w.Body.String(), "RFC3339")
	})

	t.Run("Corrupt record is a 422 with a generic reply", func(t *testing.T) {
		router, repo := setupWishRouter(t)
		require.NoError(t, repo.Upsert(context.Background(), 13, &domain.UserRecord{Streak: -2}))

		w, _ := postWish(t, router, `{"user_id": 13, "at": "2024-01-10T12:00:00Z"}`)

		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
		assert.Contains(t, w.Body.String(), "record corrupt")
		assert.Contains(t, w.Body.String(), userErrorReply)
	})
}

func TestWishHandler_Stats(t *testing.T) {
	t.Run("Unknown user gets zero counters and no record is written", func(t *testing.T) {
		router, repo := setupWishRouter(t)

		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/api/v1/users/99", nil)
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)

		var body map[string]any
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
		assert.Equal(t, float64(99), body["user_id"])
		assert.Equal(t, float64(0), body["streak"])
		assert.Equal(t, float64(0), body["total"])
		assert.Equal(t, false, body["claimed_today"])

		all, err := repo.List(context.Background())
		require.NoError(t, err)
		assert.Empty(t, all)
	})

	t.Run("Counters reflect past grants", func(t *testing.T) {
		router, _ := setupWishRouter(t)
		postWish(t, router, `{"user_id": 7, "at": "2024-01-10T12:00:00Z"}`)

		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/api/v1/users/7", nil)
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)

		var body map[string]any
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
		assert.Equal(t, float64(1), body["streak"])
		assert.Equal(t, float64(1), body["total"])
		assert.NotEmpty(t, body["last_wish"])
	})

	t.Run("Non-numeric id is a 400", func(t *testing.T) {
		router, _ := setupWishRouter(t)

		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/api/v1/users/abc", nil)
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestWishHandler_Greeting(t *testing.T) {
	router, _ := setupWishRouter(t)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/greeting", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Добро пожаловать")
}

package web

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"regexp"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/goccy/go-json"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yamdb/api-yamdb/config"
	"github.com/yamdb/api-yamdb/database"
	"github.com/yamdb/api-yamdb/database/model"
	"github.com/yamdb/api-yamdb/web/controller"
	"github.com/yamdb/api-yamdb/web/service"
	"github.com/yamdb/api-yamdb/web/validator"
	"golang.org/x/crypto/bcrypt"
)

type outbox struct {
	mu   sync.Mutex
	body []string
}

func (o *outbox) Deliver(_ context.Context, _, body, _ string) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.body = append(o.body, body)
	return nil
}

var codeRe = regexp.MustCompile(`code: ([0-9A-Za-z]{16})`)

func (o *outbox) lastCode(t *testing.T) string {
	t.Helper()
	o.mu.Lock()
	defer o.mu.Unlock()
	require.NotEmpty(t, o.body)
	m := codeRe.FindStringSubmatch(o.body[len(o.body)-1])
	require.Len(t, m, 2)
	return m[1]
}

type apiFixture struct {
	engine   *gin.Engine
	services controller.Services
	mail     *outbox
	tokens   *service.JWTService
}

func setupAPI(t *testing.T, rateLimit int) *apiFixture {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := database.Open(&config.DatabaseConfig{
		Type:   config.DatabaseTypeSQLite,
		SQLite: config.SQLiteConfig{Path: config.MemoryPath},
	})
	require.NoError(t, err)
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	f := &apiFixture{mail: &outbox{}, tokens: service.NewJWTService("test-secret", time.Hour)}
	codes := service.NewRedisConfirmationStore(rdb, time.Hour, bcrypt.MinCost)
	f.services = controller.Services{
		Auth:       service.NewAuthService(db, codes, f.mail, f.tokens, time.Hour),
		Tokens:     f.tokens,
		Users:      service.NewUserService(db),
		Categories: service.NewCategoryService(db),
		Genres:     service.NewGenreService(db),
		Titles:     service.NewTitleService(db, validator.New(nil)),
		Reviews:    service.NewReviewService(db),
		Comments:   service.NewCommentService(db),
		Audit:      service.NewAuditLogService(db),
		Server:     service.NewServerService(db, rdb),
		Redis:      rdb,
		RateLimit:  rateLimit,
		PageSize:   2,
	}
	f.engine = NewEngine(f.services)
	return f
}

// login signs the user up through the API and returns a bearer token.
func (f *apiFixture) login(t *testing.T, username string) string {
	t.Helper()
	w := f.do(t, http.MethodPost, "/api/v1/auth/signup/", "", map[string]string{
		"username": username,
		"email":    username + "@example.com",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	f.services.Auth.Wait()

	w = f.do(t, http.MethodPost, "/api/v1/auth/token/", "", map[string]string{
		"username":          username,
		"confirmation_code": f.mail.lastCode(t),
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var res struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res))
	return res.Token
}

func (f *apiFixture) admin(t *testing.T) string {
	t.Helper()
	ctx := context.Background()
	_, err := f.services.Users.CreateSuperuser(ctx, "root", "root@example.com")
	require.NoError(t, err)
	u, err := f.services.Users.GetByUsername(ctx, "root")
	require.NoError(t, err)
	token, err := f.tokens.Issue(u)
	require.NoError(t, err)
	return token
}

func (f *apiFixture) do(t *testing.T, method, path, token string, body any, headers ...string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	w := httptest.NewRecorder()
	f.engine.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

func TestReviewFlow(t *testing.T) {
	f := setupAPI(t, 0)
	admin := f.admin(t)
	alice := f.login(t, "alice")
	bob := f.login(t, "bob")

	w := f.do(t, http.MethodPost, "/api/v1/categories/", admin, map[string]string{"name": "Films", "slug": "films"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	w = f.do(t, http.MethodPost, "/api/v1/genres/", admin, map[string]string{"name": "Drama", "slug": "drama"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = f.do(t, http.MethodPost, "/api/v1/titles/", admin, map[string]any{
		"name": "Mirror", "year": 1975, "genre": []string{"drama"}, "category": "films",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	title := decode(t, w)
	assert.Nil(t, title["rating"])

	w = f.do(t, http.MethodPost, "/api/v1/titles/1/reviews/", alice, map[string]any{"text": "great", "score": 8})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.Equal(t, "alice", decode(t, w)["author"])

	w = f.do(t, http.MethodPost, "/api/v1/titles/1/reviews/", alice, map[string]any{"text": "again", "score": 2})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, decode(t, w), "detail")

	w = f.do(t, http.MethodPost, "/api/v1/titles/1/reviews/", bob, map[string]any{"text": "fine", "score": 10})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = f.do(t, http.MethodGet, "/api/v1/titles/1/", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.InDelta(t, 9.0, decode(t, w)["rating"], 1e-9)

	w = f.do(t, http.MethodPost, "/api/v1/titles/1/reviews/1/comments/", bob, map[string]any{"text": "agreed"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	// bob cannot edit alice's review
	w = f.do(t, http.MethodPatch, "/api/v1/titles/1/reviews/1/", bob, map[string]any{"score": 1})
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = f.do(t, http.MethodGet, "/api/v1/titles/1/reviews/", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	page := decode(t, w)
	assert.EqualValues(t, 2, page["count"])
	assert.Nil(t, page["next"])

	w = f.do(t, http.MethodDelete, "/api/v1/titles/1/", admin, nil)
	assert.Equal(t, http.StatusNoContent, w.Code)
	w = f.do(t, http.MethodGet, "/api/v1/titles/1/reviews/1/comments/", "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = f.do(t, http.MethodGet, "/api/v1/audit/?resource=review", admin, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.EqualValues(t, 2, decode(t, w)["count"])
}

func TestErrorResponses(t *testing.T) {
	f := setupAPI(t, 0)
	admin := f.admin(t)
	alice := f.login(t, "alice")

	tests := []struct {
		name   string
		method string
		path   string
		token  string
		body   any
		status int
		field  string
	}{
		{"anonymous write", http.MethodPost, "/api/v1/categories/", "", map[string]string{"name": "A", "slug": "a"}, http.StatusUnauthorized, "detail"},
		{"user writes catalogue", http.MethodPost, "/api/v1/categories/", alice, map[string]string{"name": "A", "slug": "a"}, http.StatusForbidden, "detail"},
		{"user lists users", http.MethodGet, "/api/v1/users/", alice, nil, http.StatusForbidden, "detail"},
		{"anonymous me", http.MethodGet, "/api/v1/users/me/", "", nil, http.StatusUnauthorized, "detail"},
		{"bad token", http.MethodGet, "/api/v1/titles/", "garbage", nil, http.StatusUnauthorized, "detail"},
		{"future year", http.MethodPost, "/api/v1/titles/", admin, map[string]any{"name": "X", "year": 3000, "genre": []string{}}, http.StatusBadRequest, "year"},
		{"reserved username", http.MethodPost, "/api/v1/auth/signup/", "", map[string]string{"username": "me", "email": "me@example.com"}, http.StatusBadRequest, "username"},
		{"identity conflict", http.MethodPost, "/api/v1/auth/signup/", "", map[string]string{"username": "alice", "email": "other@example.com"}, http.StatusBadRequest, "detail"},
		{"wrong code", http.MethodPost, "/api/v1/auth/token/", "", map[string]string{"username": "alice", "confirmation_code": "nope"}, http.StatusBadRequest, "detail"},
		{"unknown user token", http.MethodPost, "/api/v1/auth/token/", "", map[string]string{"username": "ghost", "confirmation_code": "nope"}, http.StatusNotFound, "detail"},
		{"missing title", http.MethodGet, "/api/v1/titles/42/", "", nil, http.StatusNotFound, "detail"},
		{"non-numeric id", http.MethodGet, "/api/v1/titles/abc/", "", nil, http.StatusNotFound, "detail"},
		{"put is not allowed", http.MethodPut, "/api/v1/titles/1/", admin, map[string]any{}, http.StatusMethodNotAllowed, "detail"},
		{"unknown route", http.MethodGet, "/api/v1/nothing/", "", nil, http.StatusNotFound, "detail"},
		{"page past end", http.MethodGet, "/api/v1/titles/?page=5", "", nil, http.StatusNotFound, "detail"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := f.do(t, tt.method, tt.path, tt.token, tt.body)
			assert.Equal(t, tt.status, w.Code, w.Body.String())
			assert.Contains(t, decode(t, w), tt.field)
		})
	}
}

func TestLocalizedDetail(t *testing.T) {
	f := setupAPI(t, 0)
	w := f.do(t, http.MethodGet, "/api/v1/titles/42/", "", nil, "Accept-Language", "ru-RU,ru;q=0.9")
	require.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "Не найдено.", decode(t, w)["detail"])
}

func TestUsersMe(t *testing.T) {
	f := setupAPI(t, 0)
	alice := f.login(t, "alice")

	w := f.do(t, http.MethodPatch, "/api/v1/users/me/", alice, map[string]any{"bio": "hi", "role": "admin"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	me := decode(t, w)
	assert.Equal(t, "hi", me["bio"])
	assert.Equal(t, string(model.RoleUser), me["role"])

	w = f.do(t, http.MethodGet, "/api/v1/users/me/", alice, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "alice", decode(t, w)["username"])
}

func TestPaginationLinks(t *testing.T) {
	f := setupAPI(t, 0)
	admin := f.admin(t)
	for _, slug := range []string{"a", "b", "c"} {
		w := f.do(t, http.MethodPost, "/api/v1/genres/", admin, map[string]string{"name": slug, "slug": slug})
		require.Equal(t, http.StatusCreated, w.Code)
	}

	w := f.do(t, http.MethodGet, "/api/v1/genres/", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	page := decode(t, w)
	assert.EqualValues(t, 3, page["count"])
	assert.Equal(t, "http://example.com/api/v1/genres/?page=2", page["next"])
	assert.Nil(t, page["previous"])

	w = f.do(t, http.MethodGet, "/api/v1/genres/?page=2", "", nil)
	page = decode(t, w)
	assert.Nil(t, page["next"])
	assert.Equal(t, "http://example.com/api/v1/genres/", page["previous"])
}

func TestAuthRateLimit(t *testing.T) {
	f := setupAPI(t, 2)
	body := map[string]string{"username": "ghost", "confirmation_code": "x"}
	for i := 0; i < 2; i++ {
		w := f.do(t, http.MethodPost, "/api/v1/auth/token/", "", body)
		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.NotEmpty(t, w.Header().Get("X-RateLimit-Remaining"))
	}
	w := f.do(t, http.MethodPost, "/api/v1/auth/token/", "", body)
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "0", w.Header().Get("X-RateLimit-Remaining"))
}

func TestHealthAndMetrics(t *testing.T) {
	f := setupAPI(t, 0)

	w := f.do(t, http.MethodGet, "/health", "", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, service.StatusOK, decode(t, w)["status"])

	w = f.do(t, http.MethodGet, "/metrics", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "yamdb_http_requests_total")
}

func TestStartRequiresJWTSecret(t *testing.T) {
	t.Setenv("YAMDB_DEBUG", "")
	t.Setenv("YAMDB_JWT_SECRET", "")

	err := NewServer().Start()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "YAMDB_JWT_SECRET")
}

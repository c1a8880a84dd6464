package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yamdb/api-yamdb/database/model"
	"github.com/yamdb/api-yamdb/web/entity"
	"github.com/yamdb/api-yamdb/web/permission"
	"github.com/yamdb/api-yamdb/web/service"
)

type stubTokens map[string]int

func (s stubTokens) Validate(token string) (*service.Claims, error) {
	id, ok := s[token]
	if !ok {
		return nil, service.ErrInvalidToken
	}
	return &service.Claims{UserID: id}, nil
}

type stubUsers map[int]*model.User

func (s stubUsers) GetByID(_ context.Context, id int) (*model.User, error) {
	if u, ok := s[id]; ok {
		return u, nil
	}
	return nil, entity.ErrNotFound
}

type recorder struct {
	entries []service.AuditEntry
}

func (r *recorder) LogAction(_ context.Context, e service.AuditEntry) error {
	r.entries = append(r.entries, e)
	return nil
}

func newEngine(handlers ...gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	engine := gin.New()
	engine.Use(handlers...)
	return engine
}

func serve(engine *gin.Engine, method, path, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	if token != "" {
		req.Header.Set("Authorization", token)
	}
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)
	return w
}

func TestAuthenticate(t *testing.T) {
	alice := &model.User{Id: 1, Username: "alice", Role: model.RoleUser}
	engine := newEngine(Authenticate(stubTokens{"good": 1, "orphan": 2}, stubUsers{1: alice}))
	engine.GET("/", func(c *gin.Context) {
		if u := CurrentUser(c); u != nil {
			c.String(http.StatusOK, u.Username)
			return
		}
		c.String(http.StatusOK, "anonymous")
	})

	tests := []struct {
		header string
		status int
		body   string
	}{
		{"", http.StatusOK, "anonymous"},
		{"Bearer good", http.StatusOK, "alice"},
		{"bearer good", http.StatusOK, "alice"},
		{"Bearer bad", http.StatusUnauthorized, ""},
		{"Bearer orphan", http.StatusUnauthorized, ""},
		{"Basic good", http.StatusUnauthorized, ""},
		{"Bearer", http.StatusUnauthorized, ""},
	}
	for _, tt := range tests {
		w := serve(engine, http.MethodGet, "/", tt.header)
		assert.Equal(t, tt.status, w.Code, tt.header)
		if tt.body != "" {
			assert.Equal(t, tt.body, w.Body.String())
		}
	}
}

func TestRequirePolicy(t *testing.T) {
	admin := &model.User{Id: 1, Role: model.RoleAdmin}
	user := &model.User{Id: 2, Role: model.RoleUser}
	engine := newEngine(
		Authenticate(stubTokens{"admin": 1, "user": 2}, stubUsers{1: admin, 2: user}),
		RequirePolicy(permission.AdminOnly),
	)
	engine.GET("/", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	assert.Equal(t, http.StatusUnauthorized, serve(engine, http.MethodGet, "/", "").Code)
	assert.Equal(t, http.StatusForbidden, serve(engine, http.MethodGet, "/", "Bearer user").Code)
	assert.Equal(t, http.StatusNoContent, serve(engine, http.MethodGet, "/", "Bearer admin").Code)
}

func TestAudit(t *testing.T) {
	alice := &model.User{Id: 1, Username: "alice"}
	rec := &recorder{}
	engine := newEngine(Authenticate(stubTokens{"a": 1}, stubUsers{1: alice}), Audit(rec))
	engine.POST("/titles/:title_id/reviews/", func(c *gin.Context) { c.Status(http.StatusCreated) })
	engine.PATCH("/titles/:title_id/reviews/:review_id/", func(c *gin.Context) { c.Status(http.StatusForbidden) })
	engine.GET("/titles/", func(c *gin.Context) { c.Status(http.StatusOK) })

	serve(engine, http.MethodPost, "/titles/5/reviews/", "Bearer a")
	serve(engine, http.MethodPost, "/titles/5/reviews/", "")
	serve(engine, http.MethodPatch, "/titles/5/reviews/3/", "Bearer a")
	serve(engine, http.MethodGet, "/titles/", "Bearer a")

	require.Len(t, rec.entries, 1)
	e := rec.entries[0]
	assert.Equal(t, "CREATE", e.Action)
	assert.Equal(t, "review", e.Resource)
	assert.Equal(t, "5", e.ResourceKey)
	assert.Equal(t, "alice", e.Username)
}

func TestRequestID(t *testing.T) {
	engine := newEngine(RequestID())
	engine.GET("/", func(c *gin.Context) { c.String(http.StatusOK, c.GetString(requestIDKey)) })

	w := serve(engine, http.MethodGet, "/", "")
	_, err := uuid.Parse(w.Header().Get(requestIDHeader))
	require.NoError(t, err)
	assert.Equal(t, w.Header().Get(requestIDHeader), w.Body.String())

	id := uuid.NewString()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(requestIDHeader, id)
	w = httptest.NewRecorder()
	engine.ServeHTTP(w, req)
	assert.Equal(t, id, w.Header().Get(requestIDHeader))
}

func TestAllowedHost(t *testing.T) {
	engine := newEngine(AllowedHost("yamdb.test"))
	engine.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Host = "yamdb.test:8000"
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)

	assert.Equal(t, http.StatusForbidden, serve(engine, http.MethodGet, "/", "").Code)
}

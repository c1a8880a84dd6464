package locale

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestI18nLanguages(t *testing.T) {
	require.NoError(t, InitLocalizer("en"))

	assert.Equal(t, "Not found.", I18n("en", "errNotFound"))
	assert.Equal(t, "Не найдено.", I18n("ru", "errNotFound"))
	assert.Equal(t, "Не найдено.", I18n("ru-RU,ru;q=0.9,en;q=0.8", "errNotFound"))
	assert.Equal(t, "Not found.", I18n("de", "errNotFound"))
	assert.Equal(t, "noSuchKey", I18n("en", "noSuchKey"))
}

func TestI18nTemplateData(t *testing.T) {
	body := I18n("en", "confirmationBody", "Username==alice", "Code==ABC123", "TTL==24h0m0s")
	assert.Contains(t, body, "Hello, alice!")
	assert.Contains(t, body, "ABC123")
}

func TestLocalizerMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(LocalizerMiddleware())
	r.GET("/", func(c *gin.Context) { c.String(http.StatusOK, Lang(c)) })

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Accept-Language", "ru")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, "ru", w.Body.String())

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Accept-Language", "ru")
	req.AddCookie(&http.Cookie{Name: "lang", Value: "en"})
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, "en", w.Body.String())
}

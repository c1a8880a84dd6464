// Package locale renders user-facing text in the caller's language.
package locale

import (
	"embed"
	"io/fs"
	"strings"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/nicksnyder/go-i18n/v2/i18n"
	"github.com/pelletier/go-toml/v2"
	"github.com/yamdb/api-yamdb/logger"
	"golang.org/x/text/language"
)

const langKey = "lang"

//go:embed translation/*.toml
var translationFS embed.FS

var (
	bundleOnce  sync.Once
	i18nBundle  *i18n.Bundle
	bundleErr   error
	defaultLang = "en"
)

// InitLocalizer loads the embedded translations and sets the language used
// when a request names none that is supported.
func InitLocalizer(lang string) error {
	if lang != "" {
		if _, err := language.Parse(lang); err != nil {
			return err
		}
		defaultLang = lang
	}
	return loadBundle()
}

func loadBundle() error {
	bundleOnce.Do(func() {
		b := i18n.NewBundle(language.English)
		b.RegisterUnmarshalFunc("toml", toml.Unmarshal)
		bundleErr = parseTranslationFiles(translationFS, b)
		i18nBundle = b
	})
	return bundleErr
}

func parseTranslationFiles(fsys fs.FS, bundle *i18n.Bundle) error {
	return fs.WalkDir(fsys, "translation", func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		data, err := fs.ReadFile(fsys, path)
		if err != nil {
			return err
		}
		_, err = bundle.ParseMessageFileBytes(data, path)
		return err
	})
}

func createTemplateData(params []string) map[string]any {
	templateData := make(map[string]any, len(params))
	for _, param := range params {
		parts := strings.SplitN(param, "==", 2)
		if len(parts) == 2 {
			templateData[parts[0]] = parts[1]
		}
	}
	return templateData
}

// I18n localizes key for lang, which may be a tag or an Accept-Language
// value. Template params are written as "Name==value". The key itself is
// returned when no translation exists.
func I18n(lang, key string, params ...string) string {
	if err := loadBundle(); err != nil {
		logger.Warning("i18n bundle unavailable: ", err)
		return key
	}
	localizer := i18n.NewLocalizer(i18nBundle, lang, defaultLang)
	msg, err := localizer.Localize(&i18n.LocalizeConfig{
		MessageID:    key,
		TemplateData: createTemplateData(params),
	})
	if err != nil {
		logger.Warningf("failed to localize %q: %v", key, err)
		return key
	}
	return msg
}

// LocalizerMiddleware stores the request language, taken from the "lang"
// cookie or the Accept-Language header.
func LocalizerMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		lang := c.GetHeader("Accept-Language")
		if cookie, err := c.Request.Cookie(langKey); err == nil && cookie.Value != "" {
			lang = cookie.Value
		}
		c.Set(langKey, lang)
		c.Next()
	}
}

// Lang returns the language stored by LocalizerMiddleware.
func Lang(c *gin.Context) string {
	return c.GetString(langKey)
}

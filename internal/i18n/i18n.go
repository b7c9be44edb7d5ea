package i18n

import (
	"context"
	"embed"
	"encoding/json"
	"log"
	"strings"
	"sync"

	"github.com/nicksnyder/go-i18n/v2/i18n"
	"golang.org/x/text/language"
)

//go:embed locales/*.json
var localeFS embed.FS

var (
	bundle        *i18n.Bundle
	matcher       language.Matcher
	supported     []string
	loadOnce      sync.Once
	defaultLocale = "en"
)

type ctxKey struct{}

// Init loads all locale files and sets the default locale.
func Init(defLocale string) {
	if defLocale != "" {
		defaultLocale = defLocale
	}
	loadOnce.Do(load)
	log.Printf("i18n: loaded locales %v, default=%s", supported, defaultLocale)
}

func load() {
	bundle = i18n.NewBundle(language.English)
	bundle.RegisterUnmarshalFunc("json", json.Unmarshal)

	entries, err := localeFS.ReadDir("locales")
	if err != nil {
		log.Fatalf("i18n: read locales dir: %v", err)
	}
	var tags []language.Tag
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		data, err := localeFS.ReadFile("locales/" + e.Name())
		if err != nil {
			log.Fatalf("i18n: read %s: %v", e.Name(), err)
		}
		bundle.MustParseMessageFileBytes(data, e.Name())

		name := strings.TrimSuffix(e.Name(), ".json")
		tags = append(tags, language.Make(name))
		supported = append(supported, name)
	}
	matcher = language.NewMatcher(tags)
}

// Locales returns the locale names that have a message file, e.g. ["en", "th"].
func Locales() []string {
	loadOnce.Do(load)
	return append([]string(nil), supported...)
}

// Negotiate picks the best supported locale for a request. An explicit preference
// (e.g. from a cookie) wins when it is supported; otherwise the Accept-Language
// header is matched. Falls back to the default locale.
func Negotiate(preferred, acceptLanguage string) string {
	loadOnce.Do(load)

	if preferred != "" {
		for _, s := range supported {
			if s == preferred {
				return s
			}
		}
	}

	tags, _, err := language.ParseAcceptLanguage(acceptLanguage)
	if err != nil || len(tags) == 0 {
		return defaultLocale
	}
	_, idx, conf := matcher.Match(tags...)
	if conf == language.No {
		return defaultLocale
	}
	return supported[idx]
}

// WithLocale returns a new context carrying the given locale string (e.g. "th", "en").
func WithLocale(ctx context.Context, locale string) context.Context {
	return context.WithValue(ctx, ctxKey{}, locale)
}

// LocaleFromContext extracts the locale from the context.
// Returns the configured default locale if not set.
func LocaleFromContext(ctx context.Context) string {
	if v, ok := ctx.Value(ctxKey{}).(string); ok && v != "" {
		return v
	}
	return defaultLocale
}

// T translates a message ID using the locale from the context.
// Optional templateData provides values for template placeholders.
func T(ctx context.Context, messageID string, templateData ...map[string]any) string {
	loadOnce.Do(load)
	l := i18n.NewLocalizer(bundle, LocaleFromContext(ctx), defaultLocale)

	cfg := &i18n.LocalizeConfig{MessageID: messageID}
	if len(templateData) > 0 && templateData[0] != nil {
		cfg.TemplateData = templateData[0]
	}

	msg, err := l.Localize(cfg)
	if err != nil {
		return messageID
	}
	return msg
}

// Package locale resolves the request language once at entry and carries
// it on the context for the rest of the request.
package locale

import (
	"context"
	"net/http"
	"strings"
)

type ctxKey struct{}

const Default = "en"

var supported = map[string]bool{"en": true, "ja": true}

// Middleware picks the request locale from the lang query parameter or
// the Accept-Language header and stores it on the context.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		loc := Default
		if v := normalize(r.URL.Query().Get("lang")); v != "" {
			loc = v
		} else if v := normalize(r.Header.Get("Accept-Language")); v != "" {
			loc = v
		}
		ctx := context.WithValue(r.Context(), ctxKey{}, loc)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// FromContext returns the locale resolved at request entry.
func FromContext(ctx context.Context) string {
	if v, ok := ctx.Value(ctxKey{}).(string); ok {
		return v
	}
	return Default
}

func normalize(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	// "ja-JP,ja;q=0.9" -> "ja"
	raw = strings.Split(raw, ",")[0]
	raw = strings.Split(raw, ";")[0]
	raw = strings.Split(raw, "-")[0]
	raw = strings.ToLower(raw)
	if supported[raw] {
		return raw
	}
	return ""
}

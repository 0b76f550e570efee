package middleware

import (
	"net/http"
	"strings"
)

// corsAllowedMethods は管理画面と公開サイトの両方が使うメソッド。
const corsAllowedMethods = "GET, POST, PUT, DELETE, OPTIONS"

// ParseAllowedOrigins はカンマ区切りのオリジン指定を正規化して返す。
// 末尾のスラッシュと空要素は取り除く。
func ParseAllowedOrigins(raw string) []string {
	var origins []string
	for _, o := range strings.Split(raw, ",") {
		o = strings.TrimRight(strings.TrimSpace(o), "/")
		if o != "" {
			origins = append(origins, o)
		}
	}
	return origins
}

// NewCORSMiddleware は許可オリジン（カンマ区切り）に対するCORSミドルウェアを返す。
// Cookieを送るためワイルドカードは使わず、一致したOriginだけを返す。
// 一致しないOriginからのプリフライトは403とする。
func NewCORSMiddleware(allowedOrigins string) func(next http.Handler) http.Handler {
	allowed := make(map[string]bool)
	for _, o := range ParseAllowedOrigins(allowedOrigins) {
		allowed[o] = true
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")
			w.Header().Add("Vary", "Origin")

			if origin == "" {
				next.ServeHTTP(w, r)
				return
			}
			if !allowed[origin] {
				if r.Method == http.MethodOptions {
					w.WriteHeader(http.StatusForbidden)
					return
				}
				next.ServeHTTP(w, r)
				return
			}

			h := w.Header()
			h.Set("Access-Control-Allow-Origin", origin)
			h.Set("Access-Control-Allow-Credentials", "true")

			if r.Method == http.MethodOptions && r.Header.Get("Access-Control-Request-Method") != "" {
				h.Set("Access-Control-Allow-Methods", corsAllowedMethods)
				h.Set("Access-Control-Allow-Headers", "Content-Type, "+csrfHeaderName)
				h.Set("Access-Control-Max-Age", "600")
				w.WriteHeader(http.StatusNoContent)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

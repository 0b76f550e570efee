package middleware

import (
	"log/slog"
	"net/http"
	"runtime/debug"
)

// NewRecoveryMiddleware はハンドラー内のpanicを回復し、500の統一エラーを返すミドルウェアを生成する。
// ヘッダー送信後のpanicではステータスを書き換えられないため、ログのみ残す。
// http.ErrAbortHandlerは接続中断の合図なので再送出する。
func NewRecoveryMiddleware() func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tw := &trackingWriter{ResponseWriter: w}
			defer func() {
				rec := recover()
				if rec == nil {
					return
				}
				if rec == http.ErrAbortHandler {
					panic(rec)
				}

				attrs := []any{
					slog.Any("panic", rec),
					slog.String("method", r.Method),
					slog.String("path", r.URL.Path),
					slog.Bool("headers_sent", tw.wroteHeader),
					slog.String("stack", string(debug.Stack())),
				}
				if accountID, err := AccountIDFromContext(r.Context()); err == nil {
					attrs = append(attrs, slog.String("account_id", accountID))
				}
				slog.Error("panic recovered", attrs...)

				if !tw.wroteHeader {
					WriteInternalServerError(w)
				}
			}()
			next.ServeHTTP(tw, r)
		})
	}
}

// trackingWriter はヘッダーが送信済みかどうかを記録する。
type trackingWriter struct {
	http.ResponseWriter
	wroteHeader bool
}

func (tw *trackingWriter) WriteHeader(code int) {
	tw.wroteHeader = true
	tw.ResponseWriter.WriteHeader(code)
}

func (tw *trackingWriter) Write(b []byte) (int, error) {
	tw.wroteHeader = true
	return tw.ResponseWriter.Write(b)
}

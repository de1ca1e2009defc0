package middleware

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"runtime/debug"
)

// recoveryScope はpanic時のログに載せるため、内側のミドルウェアが書き戻すリクエスト情報。
type recoveryScope struct {
	deviceID string
}

var recoveryContextKey = contextKey("recovery_scope")

// NewRecoveryMiddleware はハンドラーのpanicを回復して統一形式の500を返すミドルウェアを生成する。
// ルートのロックを持ったままpanicしても、プロセスと他デバイスのルートは生き残る。
// http.ErrAbortHandlerはnet/httpの中断処理に任せるため再panicする。
func NewRecoveryMiddleware() func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			scope := &recoveryScope{}
			defer func() {
				rec := recover()
				if rec == nil {
					return
				}
				if err, ok := rec.(error); ok && errors.Is(err, http.ErrAbortHandler) {
					panic(rec)
				}

				attrs := []any{
					slog.Any("panic", rec),
					slog.String("method", r.Method),
					slog.String("path", r.URL.Path),
				}
				if scope.deviceID != "" {
					attrs = append(attrs, slog.String("device_id", scope.deviceID))
				}
				attrs = append(attrs, slog.String("stack", string(debug.Stack())))
				slog.Error("panic recovered", attrs...)

				WriteInternalServerError(w)
			}()

			next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), recoveryContextKey, scope)))
		})
	}
}

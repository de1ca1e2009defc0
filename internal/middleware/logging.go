package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"time"
)

// statusRecorder はhttp.ResponseWriterをラップし、ステータスコードを記録する。
type statusRecorder struct {
	http.ResponseWriter
	statusCode int
	written    bool
	// deviceID は内側のミドルウェアが決定したデバイスID。
	deviceID string
}

// WriteHeader はステータスコードを記録してから委譲する。
func (sr *statusRecorder) WriteHeader(code int) {
	if !sr.written {
		sr.statusCode = code
		sr.written = true
	}
	sr.ResponseWriter.WriteHeader(code)
}

// Write はデータを書き込む。WriteHeaderが未呼び出しの場合は200を記録する。
func (sr *statusRecorder) Write(b []byte) (int, error) {
	if !sr.written {
		sr.statusCode = http.StatusOK
		sr.written = true
	}
	return sr.ResponseWriter.Write(b)
}

// recorderContextKey は内側のミドルウェアがログ属性を書き戻すためのキー。
var recorderContextKey = contextKey("status_recorder")

// annotateDeviceID は外側のLogging・RecoveryミドルウェアにデバイスIDを書き戻す。
// それぞれを通過していない場合は何もしない。
func annotateDeviceID(ctx context.Context, deviceID string) {
	if rec, ok := ctx.Value(recorderContextKey).(*statusRecorder); ok {
		rec.deviceID = deviceID
	}
	if scope, ok := ctx.Value(recoveryContextKey).(*recoveryScope); ok {
		scope.deviceID = deviceID
	}
}

// NewLoggingMiddleware はリクエストごとに1行のJSON構造化ログ（http_request）を出力する。
// method、path、status、duration_ms と、決定済みならdevice_idを含む。
func NewLoggingMiddleware(logger *slog.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rec := &statusRecorder{ResponseWriter: w, statusCode: http.StatusOK}

			next.ServeHTTP(rec, r.WithContext(context.WithValue(r.Context(), recorderContextKey, rec)))

			attrs := []slog.Attr{
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.Int("status", rec.statusCode),
				slog.Float64("duration_ms", float64(time.Since(start).Microseconds())/1000),
			}
			if rec.deviceID != "" {
				attrs = append(attrs, slog.String("device_id", rec.deviceID))
			}

			logger.LogAttrs(r.Context(), levelForStatus(rec.statusCode), "http_request", attrs...)
		})
	}
}

// levelForStatus は5xxをError、4xxをWarn、それ以外をInfoにする。
func levelForStatus(code int) slog.Level {
	switch {
	case code >= 500:
		return slog.LevelError
	case code >= 400:
		return slog.LevelWarn
	default:
		return slog.LevelInfo
	}
}

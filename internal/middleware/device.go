// Package middleware はHTTPミドルウェアを提供する。
package middleware

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
)

const deviceCookieName = "aquire_device"

// contextKey はコンテキストに値を格納するための型安全なキー。
type contextKey string

// deviceIDContextKey はリクエストコンテキストにデバイスIDを格納するためのキー。
var deviceIDContextKey = contextKey("device_id")

// DeviceConfig はデバイスミドルウェアの設定。
type DeviceConfig struct {
	CookieSecure bool
	CookieDomain string
	// MaxAge はデバイスCookieの有効期間。0以下なら1年。
	MaxAge time.Duration
}

// NewDeviceMiddleware はデバイスCookieからデバイスIDを読み取り、コンテキストに注入するミドルウェアを返す。
// Cookieがない、またはUUIDとして不正な場合は新しいIDを発行してCookieに設定する。
// デバイスIDはAppStorageのキーであり、認証の有無とは無関係に全リクエストへ付与される。
func NewDeviceMiddleware(config DeviceConfig) func(next http.Handler) http.Handler {
	maxAge := config.MaxAge
	if maxAge <= 0 {
		maxAge = 365 * 24 * time.Hour
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			deviceID := ""
			if cookie, err := r.Cookie(deviceCookieName); err == nil {
				if id, err := uuid.Parse(cookie.Value); err == nil {
					deviceID = id.String()
				}
			}

			if deviceID == "" {
				deviceID = uuid.NewString()
				slog.Debug("device id issued",
					slog.String("device_id", deviceID),
				)
			}

			// 有効期限を延長するため毎回設定し直す
			http.SetCookie(w, &http.Cookie{
				Name:     deviceCookieName,
				Value:    deviceID,
				Path:     "/",
				Domain:   config.CookieDomain,
				MaxAge:   int(maxAge.Seconds()),
				HttpOnly: true,
				Secure:   config.CookieSecure,
				SameSite: http.SameSiteLaxMode,
			})

			annotateDeviceID(r.Context(), deviceID)
			next.ServeHTTP(w, r.WithContext(ContextWithDeviceID(r.Context(), deviceID)))
		})
	}
}

// DeviceIDFromContext はリクエストコンテキストからデバイスIDを取得する。
// デバイスミドルウェアを通過したリクエストでのみ有効。
func DeviceIDFromContext(ctx context.Context) (string, error) {
	deviceID, ok := ctx.Value(deviceIDContextKey).(string)
	if !ok || deviceID == "" {
		return "", fmt.Errorf("device ID not found in context")
	}
	return deviceID, nil
}

// ContextWithDeviceID はコンテキストにデバイスIDを注入する。
// テストやミドルウェア以外のコンテキスト生成で使用する。
func ContextWithDeviceID(ctx context.Context, deviceID string) context.Context {
	return context.WithValue(ctx, deviceIDContextKey, deviceID)
}

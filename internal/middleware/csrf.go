package middleware

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"encoding/hex"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/hitoshi/aquire/internal/model"
)

const (
	// csrfCookieName はCSRFトークンを保持するCookieの名前。
	// フロントエンドからJavaScriptで読み取れるよう、HttpOnlyではない。
	csrfCookieName = "csrf_token"

	csrfHeaderName = "X-CSRF-Token"

	// CSRFFormField はHTMLフォームでCSRFトークンを送るhiddenフィールドの名前。
	CSRFFormField = "csrf_token"

	csrfCookieMaxAge = 24 * time.Hour
)

var csrfTokenContextKey = contextKey("csrf_token")

// CSRFConfig はCSRFミドルウェアの設定。
type CSRFConfig struct {
	CookieSecure bool
	CookieDomain string
}

// NewCSRFMiddleware はDouble Submit Cookie方式のCSRFミドルウェアを返す。
//
// GET/HEAD/OPTIONSは検証せず、トークンCookieがなければ発行する。
// それ以外のメソッドはCookieのトークンと、X-CSRF-Tokenヘッダー（なければフォームの
// csrf_tokenフィールド）の一致を要求し、不一致はCSRF_INVALID（403）で拒否する。
// 通過したリクエストのコンテキストにはトークンが入り、テンプレートのhiddenフィールドに使われる。
func NewCSRFMiddleware(config CSRFConfig) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			var token string
			if isSafeMethod(r.Method) {
				token = ensureCSRFCookie(w, r, config)
			} else {
				var reason string
				token, reason = verifyCSRF(r)
				if reason != "" {
					slog.Warn("CSRF validation failed",
						slog.String("reason", reason),
						slog.String("method", r.Method),
						slog.String("path", r.URL.Path),
					)
					WriteAPIError(w, model.NewCSRFInvalidError())
					return
				}
			}

			next.ServeHTTP(w, r.WithContext(ContextWithCSRFToken(r.Context(), token)))
		})
	}
}

// verifyCSRF はCookieと送信されたトークンを比較する。
// 成功時はトークンと空の理由、失敗時は理由を返す。
func verifyCSRF(r *http.Request) (string, string) {
	cookie, err := r.Cookie(csrfCookieName)
	if err != nil || cookie.Value == "" {
		return "", "missing cookie token"
	}

	submitted := r.Header.Get(csrfHeaderName)
	if submitted == "" {
		submitted = r.PostFormValue(CSRFFormField)
	}
	if submitted == "" {
		return "", "missing submitted token"
	}

	if subtle.ConstantTimeCompare([]byte(cookie.Value), []byte(submitted)) != 1 {
		return "", "token mismatch"
	}
	return cookie.Value, ""
}

// NewCSRFTokenHandler はGET /api/csrf-tokenのハンドラーを返す。
// コンテキスト、既存Cookieの順にトークンを探し、どちらにもなければ発行する。
func NewCSRFTokenHandler(config CSRFConfig) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := CSRFTokenFromContext(r.Context())
		if token == "" {
			token = ensureCSRFCookie(w, r, config)
		}
		if token == "" {
			WriteInternalServerError(w)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{"token": token})
	})
}

func isSafeMethod(method string) bool {
	return method == http.MethodGet || method == http.MethodHead || method == http.MethodOptions
}

// ensureCSRFCookie は既存のトークンCookieの値を返す。なければ新しく発行してCookieに設定する。
// 乱数の取得に失敗した場合は空文字列を返す。
func ensureCSRFCookie(w http.ResponseWriter, r *http.Request, config CSRFConfig) string {
	if cookie, err := r.Cookie(csrfCookieName); err == nil && cookie.Value != "" {
		return cookie.Value
	}

	token, err := generateCSRFToken()
	if err != nil {
		slog.Error("failed to generate CSRF token", slog.String("error", err.Error()))
		return ""
	}

	http.SetCookie(w, &http.Cookie{
		Name:     csrfCookieName,
		Value:    token,
		Path:     "/",
		Domain:   config.CookieDomain,
		MaxAge:   int(csrfCookieMaxAge.Seconds()),
		Secure:   config.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
	return token
}

// CSRFTokenFromContext はCSRFミドルウェアが格納したトークンを返す。
func CSRFTokenFromContext(ctx context.Context) string {
	token, _ := ctx.Value(csrfTokenContextKey).(string)
	return token
}

// ContextWithCSRFToken はコンテキストにCSRFトークンを注入する。
func ContextWithCSRFToken(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, csrfTokenContextKey, token)
}

func generateCSRFToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

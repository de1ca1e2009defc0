package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
)

// csrfCookieFrom はレスポンスに設定されたCSRF Cookieを返す。なければnil。
func csrfCookieFrom(resp *http.Response) *http.Cookie {
	for _, c := range resp.Cookies() {
		if c.Name == csrfCookieName {
			return c
		}
	}
	return nil
}

// tokenCapture はCSRFミドルウェア越しに呼ばれたかと、コンテキストのトークンを記録する。
type tokenCapture struct {
	called bool
	token  string
}

func (c *tokenCapture) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	c.called = true
	c.token = CSRFTokenFromContext(r.Context())
	w.WriteHeader(http.StatusOK)
}

func TestCSRFMiddleware_Verification(t *testing.T) {
	tests := []struct {
		name   string
		method string
		cookie string
		header string
		form   string
		pass   bool
	}{
		{"GET without token", http.MethodGet, "", "", "", true},
		{"HEAD without token", http.MethodHead, "", "", "", true},
		{"OPTIONS without token", http.MethodOptions, "", "", "", true},
		{"POST without cookie", http.MethodPost, "", "t", "", false},
		{"POST without submitted token", http.MethodPost, "t", "", "", false},
		{"POST header mismatch", http.MethodPost, "t", "other", "", false},
		{"POST header match", http.MethodPost, "t", "t", "", true},
		{"POST form match", http.MethodPost, "t", "", "t", true},
		{"POST form mismatch", http.MethodPost, "t", "", "other", false},
		{"PUT header match", http.MethodPut, "t", "t", "", true},
		{"DELETE without token", http.MethodDelete, "", "", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			capture := &tokenCapture{}
			handler := NewCSRFMiddleware(CSRFConfig{})(capture)

			var body *strings.Reader
			if tt.form != "" {
				body = strings.NewReader(url.Values{CSRFFormField: {tt.form}, "asset": {"/a.usdz"}}.Encode())
			} else {
				body = strings.NewReader("")
			}
			req := httptest.NewRequest(tt.method, "/preview", body)
			if tt.form != "" {
				req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
			}
			if tt.cookie != "" {
				req.AddCookie(&http.Cookie{Name: csrfCookieName, Value: tt.cookie})
			}
			if tt.header != "" {
				req.Header.Set(csrfHeaderName, tt.header)
			}
			w := httptest.NewRecorder()
			handler.ServeHTTP(w, req)

			if capture.called != tt.pass {
				t.Fatalf("handler called = %v, want %v (status %d)", capture.called, tt.pass, w.Code)
			}
			if !tt.pass {
				if w.Code != http.StatusForbidden {
					t.Errorf("status = %d, want %d", w.Code, http.StatusForbidden)
				}
				var body ErrorResponseBody
				if err := json.NewDecoder(w.Body).Decode(&body); err != nil || body.Code != "CSRF_INVALID" {
					t.Errorf("body = %+v (err %v), want CSRF_INVALID", body, err)
				}
				return
			}
			if tt.cookie != "" && capture.token != tt.cookie {
				t.Errorf("context token = %q, want %q", capture.token, tt.cookie)
			}
		})
	}
}

func TestCSRFMiddleware_GET_IssuesCookieOnce(t *testing.T) {
	capture := &tokenCapture{}
	handler := NewCSRFMiddleware(CSRFConfig{CookieDomain: "example.com"})(capture)

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

	cookie := csrfCookieFrom(w.Result())
	if cookie == nil || cookie.Value == "" {
		t.Fatal("expected CSRF cookie to be issued on first GET")
	}
	if cookie.HttpOnly || cookie.SameSite != http.SameSiteLaxMode || cookie.Path != "/" || cookie.Domain != "example.com" {
		t.Errorf("cookie attributes = %+v", cookie)
	}
	if capture.token != cookie.Value {
		t.Errorf("context token = %q, cookie = %q", capture.token, cookie.Value)
	}

	// 既存Cookieがある場合は再発行せず、その値をコンテキストに渡す
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: csrfCookieName, Value: "existing"})
	w = httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	if csrfCookieFrom(w.Result()) != nil {
		t.Error("CSRF cookie should not be re-set when already present")
	}
	if capture.token != "existing" {
		t.Errorf("context token = %q, want %q", capture.token, "existing")
	}
}

func TestCSRFTokenHandler(t *testing.T) {
	decode := func(t *testing.T, w *httptest.ResponseRecorder) string {
		t.Helper()
		var body struct {
			Token string `json:"token"`
		}
		if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
			t.Fatalf("failed to decode response: %v", err)
		}
		return body.Token
	}
	h := NewCSRFTokenHandler(CSRFConfig{})

	t.Run("issues a token", func(t *testing.T) {
		w := httptest.NewRecorder()
		h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/csrf-token", nil))

		if ct := w.Header().Get("Content-Type"); ct != "application/json" {
			t.Errorf("Content-Type = %q", ct)
		}
		token := decode(t, w)
		cookie := csrfCookieFrom(w.Result())
		if token == "" || cookie == nil || cookie.Value != token {
			t.Errorf("token = %q, cookie = %+v; should match", token, cookie)
		}
	})

	t.Run("returns the existing cookie", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/csrf-token", nil)
		req.AddCookie(&http.Cookie{Name: csrfCookieName, Value: "existing-csrf-token"})
		w := httptest.NewRecorder()
		h.ServeHTTP(w, req)

		if got := decode(t, w); got != "existing-csrf-token" {
			t.Errorf("token = %q, want existing-csrf-token", got)
		}
	})

	t.Run("prefers the context token", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/csrf-token", nil)
		req = req.WithContext(ContextWithCSRFToken(req.Context(), "from-context"))
		w := httptest.NewRecorder()
		h.ServeHTTP(w, req)

		if got := decode(t, w); got != "from-context" {
			t.Errorf("token = %q, want from-context", got)
		}
	})
}

package handler

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"golang.org/x/net/html"

	"github.com/hitoshi/aquire/internal/authgate"
	"github.com/hitoshi/aquire/internal/login"
	"github.com/hitoshi/aquire/internal/middleware"
	"github.com/hitoshi/aquire/internal/model"
	"github.com/hitoshi/aquire/internal/platform"
	"github.com/hitoshi/aquire/internal/repository"
	"github.com/hitoshi/aquire/internal/security"
	"github.com/hitoshi/aquire/internal/shell"
	"github.com/hitoshi/aquire/internal/view"
)

// fakeLoginRecorder はログイン結果を記録するテスト用の実装。
type fakeLoginRecorder struct {
	mu      sync.Mutex
	results []string
}

func (f *fakeLoginRecorder) RecordLogin(result string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.results = append(f.results, result)
}

func (f *fakeLoginRecorder) last() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.results) == 0 {
		return ""
	}
	return f.results[len(f.results)-1]
}

// failingCatalog は常にエラーを返すカタログ。
type failingCatalog struct{}

func (failingCatalog) VisibleProducts(ctx context.Context, filter model.ProductFilter) ([]model.Product, error) {
	return nil, errors.New("catalog unavailable")
}

type testEnv struct {
	server   *httptest.Server
	client   *http.Client
	storage  *repository.MemoryAppStorage
	registry *shell.Registry
	logins   *fakeLoginRecorder
}

type envOptions struct {
	platform string
	accounts login.Accounts
	catalog  repository.ProductCatalog
}

func newTestEnv(t *testing.T, opts envOptions) *testEnv {
	t.Helper()

	logger := slog.New(slog.NewJSONHandler(io.Discard, nil))

	resolver, err := platform.NewResolver(opts.platform)
	if err != nil {
		t.Fatalf("failed to create resolver: %v", err)
	}
	sanitizer := security.NewContentSanitizer()
	renderer, err := view.New(sanitizer)
	if err != nil {
		t.Fatalf("failed to create renderer: %v", err)
	}

	catalog := opts.catalog
	if catalog == nil {
		catalog = repository.NewSeedProductCatalog()
	}

	storage := repository.NewMemoryAppStorage()
	registry := shell.NewRegistry(shell.DefaultRegistryConfig(), nil, logger)
	logins := &fakeLoginRecorder{}

	shellHandler := NewShellHandler(ShellHandlerDeps{
		Gate:          authgate.New(storage),
		Storage:       storage,
		Catalog:       catalog,
		Registry:      registry,
		Resolver:      resolver,
		Authenticator: login.NewAuthenticator(opts.accounts),
		Renderer:      renderer,
		Logins:        logins,
		Logger:        logger,
	})

	rateLimiter := middleware.NewRateLimiter(middleware.RateLimiterConfig{
		GeneralRate:     1000,
		GeneralBurst:    1000,
		LoginRate:       1000,
		LoginBurst:      1000,
		CleanupInterval: time.Minute,
	})
	t.Cleanup(rateLimiter.Stop)

	router := NewRouter(&RouterDeps{
		Logger:      logger,
		RateLimiter: rateLimiter,
		Shell:       shellHandler,
		API:         NewAPIHandler(shellHandler, sanitizer),
	})

	server := httptest.NewServer(router)
	t.Cleanup(server.Close)

	jar, _ := cookiejar.New(nil)
	client := &http.Client{
		Jar: jar,
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}

	return &testEnv{
		server:   server,
		client:   client,
		storage:  storage,
		registry: registry,
		logins:   logins,
	}
}

func (e *testEnv) cookie(name string) string {
	u, _ := url.Parse(e.server.URL)
	for _, c := range e.client.Jar.Cookies(u) {
		if c.Name == name {
			return c.Value
		}
	}
	return ""
}

func (e *testEnv) deviceID() string {
	return e.cookie("aquire_device")
}

func (e *testEnv) get(t *testing.T, path string) (*http.Response, *html.Node) {
	t.Helper()
	resp, err := e.client.Get(e.server.URL + path)
	if err != nil {
		t.Fatalf("GET %s: %v", path, err)
	}
	return resp, parseBody(t, resp)
}

// post はCookieのCSRFトークンをフォームに付けて送信する。
func (e *testEnv) post(t *testing.T, path string, form url.Values) (*http.Response, *html.Node) {
	t.Helper()
	if form == nil {
		form = url.Values{}
	}
	if form.Get("csrf_token") == "" {
		form.Set("csrf_token", e.cookie("csrf_token"))
	}
	resp, err := e.client.PostForm(e.server.URL+path, form)
	if err != nil {
		t.Fatalf("POST %s: %v", path, err)
	}
	return resp, parseBody(t, resp)
}

// postAndFollow はPOSTが303を返すことを確認し、リダイレクト先のページを返す。
func (e *testEnv) postAndFollow(t *testing.T, path string, form url.Values) *html.Node {
	t.Helper()
	resp, _ := e.post(t, path, form)
	if resp.StatusCode != http.StatusSeeOther {
		t.Fatalf("POST %s status = %d, want %d", path, resp.StatusCode, http.StatusSeeOther)
	}
	if loc := resp.Header.Get("Location"); loc != "/" {
		t.Fatalf("POST %s Location = %q, want /", path, loc)
	}
	_, doc := e.get(t, "/")
	return doc
}

// signIn はゲートを表示してからログインし、認証済みルートのページを返す。
func (e *testEnv) signIn(t *testing.T, email string) *html.Node {
	t.Helper()
	e.get(t, "/")
	return e.postAndFollow(t, "/login", url.Values{"email": {email}, "password": {"pw"}})
}

func parseBody(t *testing.T, resp *http.Response) *html.Node {
	t.Helper()
	defer resp.Body.Close()
	if !strings.HasPrefix(resp.Header.Get("Content-Type"), "text/html") {
		io.Copy(io.Discard, resp.Body)
		return nil
	}
	doc, err := html.Parse(resp.Body)
	if err != nil {
		t.Fatalf("failed to parse html: %v", err)
	}
	return doc
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

func hasClass(n *html.Node, class string) bool {
	for _, c := range strings.Fields(attr(n, "class")) {
		if c == class {
			return true
		}
	}
	return false
}

func findAll(n *html.Node, match func(*html.Node) bool) []*html.Node {
	var out []*html.Node
	if n == nil {
		return out
	}
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && match(n) {
			out = append(out, n)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return out
}

func byClass(class string) func(*html.Node) bool {
	return func(n *html.Node) bool { return hasClass(n, class) }
}

func byID(id string) func(*html.Node) bool {
	return func(n *html.Node) bool { return attr(n, "id") == id }
}

func textOf(n *html.Node) string {
	var sb strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			sb.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return strings.TrimSpace(sb.String())
}

// screenKind は表示中のコンテンツ画面の種別を返す。
func screenKind(t *testing.T, doc *html.Node) string {
	t.Helper()
	screens := findAll(doc, byClass("screen"))
	if len(screens) != 1 {
		t.Fatalf("found %d screens, want 1", len(screens))
	}
	return attr(screens[0], "data-screen")
}

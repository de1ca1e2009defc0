// Package handler はHTTPハンドラーを提供する。
package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/aquire/internal/authgate"
	"github.com/hitoshi/aquire/internal/login"
	"github.com/hitoshi/aquire/internal/metrics"
	"github.com/hitoshi/aquire/internal/middleware"
	"github.com/hitoshi/aquire/internal/model"
	"github.com/hitoshi/aquire/internal/platform"
	"github.com/hitoshi/aquire/internal/preview"
	"github.com/hitoshi/aquire/internal/repository"
	"github.com/hitoshi/aquire/internal/section"
	"github.com/hitoshi/aquire/internal/shell"
	"github.com/hitoshi/aquire/internal/view"
)

// GateService はハンドラーが必要とするルートゲートのインターフェース。
type GateService interface {
	Mount(ctx context.Context, deviceID string) (authgate.Subtree, *model.AppState, error)
	Logout(ctx context.Context, deviceID string) error
}

// PlatformResolver はルートのマウント時にプラットフォームを解決する。
type PlatformResolver interface {
	Resolve(r *http.Request) platform.Info
}

// Authenticator はログインフォームの照合を行う。
type Authenticator interface {
	Authenticate(creds login.Credentials) (string, error)
	OpenMode() bool
}

// LoginRecorder はログイン結果のメトリクスを記録する。
type LoginRecorder interface {
	RecordLogin(result string)
}

// ShellHandlerDeps はShellHandlerの依存関係。
type ShellHandlerDeps struct {
	Gate          GateService
	Storage       repository.AppStorage
	Catalog       repository.ProductCatalog
	Registry      *shell.Registry
	Resolver      PlatformResolver
	Authenticator Authenticator
	Renderer      *view.Renderer
	Logins        LoginRecorder
	// BrowseLimit は閲覧画面に表示する商品の最大件数。0以下なら制限しない。
	BrowseLimit int
	Logger      *slog.Logger
}

// ShellHandler はルートゲートと認証済みルートのHTTPハンドラー。
type ShellHandler struct {
	deps   ShellHandlerDeps
	logger *slog.Logger
}

// NewShellHandler はShellHandlerを生成する。
func NewShellHandler(deps ShellHandlerDeps) *ShellHandler {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &ShellHandler{deps: deps, logger: logger}
}

// request は1リクエストで読み込んだデバイスの状態。
type request struct {
	deviceID string
	subtree  authgate.Subtree
	state    *model.AppState
}

// load はデバイスIDを取り出し、ゲートで状態を読み込む。
// 失敗した場合はレスポンスを書き込んでfalseを返す。
func (h *ShellHandler) load(w http.ResponseWriter, r *http.Request) (request, bool) {
	deviceID, err := middleware.DeviceIDFromContext(r.Context())
	if err != nil {
		middleware.WriteAPIError(w, model.NewUnauthorizedError())
		return request{}, false
	}

	subtree, state, err := h.deps.Gate.Mount(r.Context(), deviceID)
	if err != nil {
		h.logger.Error("failed to load app state",
			slog.String("device_id", deviceID),
			slog.String("error", err.Error()),
		)
		middleware.WriteInternalServerError(w)
		return request{}, false
	}

	return request{deviceID: deviceID, subtree: subtree, state: state}, true
}

// mount は認証済みデバイスのルートを返す。未マウントならここでプラットフォームを解決する。
func (h *ShellHandler) mount(r *http.Request, req request) *shell.Root {
	return h.deps.Registry.Mount(req.deviceID, req.subtree.Identity, func() platform.Info {
		return h.deps.Resolver.Resolve(r)
	})
}

func (h *ShellHandler) products(r *http.Request) shell.ProductsFunc {
	filter := model.ProductFilter{
		Query: r.URL.Query().Get("q"),
		Limit: h.deps.BrowseLimit,
	}
	return func() ([]model.Product, error) {
		return h.deps.Catalog.VisibleProducts(r.Context(), filter)
	}
}

// Index はゲートが選んだサブツリーを描画する。
// GET /
func (h *ShellHandler) Index(w http.ResponseWriter, r *http.Request) {
	req, ok := h.load(w, r)
	if !ok {
		return
	}

	if !req.subtree.Authenticated() {
		h.deps.Registry.Unmount(req.deviceID)
		h.renderLogin(w, r, req, http.StatusOK, "", nil)
		return
	}

	root := h.mount(r, req)
	h.renderShell(w, r, req, root, http.StatusOK, nil)
}

// Login はログインフォームを照合し、成功したら認証フラグを保存する。
// POST /login
func (h *ShellHandler) Login(w http.ResponseWriter, r *http.Request) {
	req, ok := h.load(w, r)
	if !ok {
		return
	}
	if req.subtree.Authenticated() {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}

	creds := login.Credentials{
		Email:    r.PostFormValue("email"),
		Password: r.PostFormValue("password"),
	}

	identity, err := h.deps.Authenticator.Authenticate(creds)
	if err != nil {
		var apiErr *model.APIError
		if !errors.As(err, &apiErr) {
			h.logger.Error("login failed unexpectedly", slog.String("error", err.Error()))
			middleware.WriteInternalServerError(w)
			return
		}

		result := metrics.LoginResultFailure
		if apiErr.Code == model.ErrCodeInvalidLogin {
			result = metrics.LoginResultInvalid
		}
		h.recordLogin(result)
		h.logger.Warn("login rejected",
			slog.String("device_id", req.deviceID),
			slog.String("code", apiErr.Code),
		)
		h.renderLogin(w, r, req, middleware.StatusForAPIError(apiErr), creds.Email, apiErr)
		return
	}

	if err := req.subtree.Accept(identity); err != nil {
		h.logger.Error("failed to store login",
			slog.String("device_id", req.deviceID),
			slog.String("error", err.Error()),
		)
		middleware.WriteInternalServerError(w)
		return
	}

	h.recordLogin(metrics.LoginResultSuccess)
	h.logger.Info("login succeeded", slog.String("device_id", req.deviceID))
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// Logout は認証フラグを下ろし、ルートをアンマウントする。
// POST /logout
func (h *ShellHandler) Logout(w http.ResponseWriter, r *http.Request) {
	deviceID, err := middleware.DeviceIDFromContext(r.Context())
	if err != nil {
		middleware.WriteAPIError(w, model.NewUnauthorizedError())
		return
	}

	if err := h.deps.Gate.Logout(r.Context(), deviceID); err != nil {
		h.logger.Error("failed to store logout",
			slog.String("device_id", deviceID),
			slog.String("error", err.Error()),
		)
		middleware.WriteInternalServerError(w)
		return
	}
	h.deps.Registry.Unmount(deviceID)

	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// SelectSection はナビゲーション操作を戦略に渡す。
// セクションが空の場合は選択コントロールが未選択を報告したものとして扱う。
// POST /sections/{section}
func (h *ShellHandler) SelectSection(w http.ResponseWriter, r *http.Request) {
	req, root, ok := h.authenticatedRoot(w, r)
	if !ok {
		return
	}

	slug := chi.URLParam(r, "section")
	var reported *section.Section
	if slug != "" {
		s, ok := section.Parse(slug)
		if !ok {
			apiErr := model.NewInvalidSectionError(slug)
			h.renderShell(w, r, req, root, middleware.StatusForAPIError(apiErr), apiErr)
			return
		}
		reported = &s
	}

	root.Choose(reported)
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// Present はアセットのプレビューを開く。
// POST /preview
func (h *ShellHandler) Present(w http.ResponseWriter, r *http.Request) {
	req, root, ok := h.authenticatedRoot(w, r)
	if !ok {
		return
	}

	u, err := preview.ParseAssetURL(r.PostFormValue("asset"))
	if err != nil {
		apiErr := model.NewInvalidAssetURLError(err.Error())
		h.renderShell(w, r, req, root, middleware.StatusForAPIError(apiErr), apiErr)
		return
	}

	presented := root.Present(u)
	h.logger.Info("preview presented",
		slog.String("device_id", req.deviceID),
		slog.String("capability", string(presented.Kind)),
		slog.String("file_name", preview.FileName(u)),
	)
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// Dismiss はプレビューを閉じる。
// POST /preview/dismiss
func (h *ShellHandler) Dismiss(w http.ResponseWriter, r *http.Request) {
	_, root, ok := h.authenticatedRoot(w, r)
	if !ok {
		return
	}

	root.Dismiss()
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// ToggleDebug はデバッグオーバーレイの表示フラグを反転する。ログイン前でも操作できる。
// POST /debug/toggle
func (h *ShellHandler) ToggleDebug(w http.ResponseWriter, r *http.Request) {
	req, ok := h.load(w, r)
	if !ok {
		return
	}

	enabled := !req.state.DebugOverlayEnabled
	if err := h.deps.Storage.SetDebugOverlay(r.Context(), req.deviceID, enabled); err != nil {
		h.logger.Error("failed to store debug overlay flag",
			slog.String("device_id", req.deviceID),
			slog.String("error", err.Error()),
		)
		middleware.WriteInternalServerError(w)
		return
	}

	h.logger.Debug("debug overlay toggled",
		slog.String("device_id", req.deviceID),
		slog.Bool("enabled", enabled),
	)
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// authenticatedRoot は認証済みデバイスのルートを返す。
// 未認証の場合はゲートへリダイレクトしてfalseを返す。
func (h *ShellHandler) authenticatedRoot(w http.ResponseWriter, r *http.Request) (request, *shell.Root, bool) {
	req, ok := h.load(w, r)
	if !ok {
		return request{}, nil, false
	}
	if !req.subtree.Authenticated() {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return request{}, nil, false
	}
	return req, h.mount(r, req), true
}

func (h *ShellHandler) recordLogin(result string) {
	if h.deps.Logins != nil {
		h.deps.Logins.RecordLogin(result)
	}
}

func (h *ShellHandler) renderLogin(w http.ResponseWriter, r *http.Request, req request, status int, email string, apiErr *model.APIError) {
	page := view.LoginPage{
		CSRFToken: middleware.CSRFTokenFromContext(r.Context()),
		Email:     email,
		Error:     apiErr,
		OpenMode:  h.deps.Authenticator.OpenMode(),
		Debug:     debugOverlay(req, nil),
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := h.deps.Renderer.Login(w, page); err != nil {
		h.logger.Error("failed to render login page", slog.String("error", err.Error()))
	}
}

func (h *ShellHandler) renderShell(w http.ResponseWriter, r *http.Request, req request, root *shell.Root, status int, apiErr *model.APIError) {
	frame, err := root.Render(h.products(r))
	if err != nil {
		h.logger.Error("failed to load products",
			slog.String("device_id", req.deviceID),
			slog.String("error", err.Error()),
		)
		middleware.WriteInternalServerError(w)
		return
	}

	page := view.ShellPage{
		CSRFToken: middleware.CSRFTokenFromContext(r.Context()),
		Frame:     frame,
		Error:     apiErr,
		Debug:     debugOverlay(req, root),
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := h.deps.Renderer.Shell(w, page); err != nil {
		h.logger.Error("failed to render shell", slog.String("error", err.Error()))
	}
}

// debugOverlay はオーバーレイに表示する値を組み立てる。rootはログイン画面ではnil。
func debugOverlay(req request, root *shell.Root) view.DebugOverlay {
	overlay := view.DebugOverlay{
		Enabled:  req.state != nil && req.state.DebugOverlayEnabled,
		DeviceID: req.deviceID,
		Subtree:  string(req.subtree.Kind),
	}
	if root != nil {
		overlay.Platform = root.Platform().String()
		overlay.Strategy = string(root.Strategy())
		overlay.Section = root.Current().Slug()
	}
	return overlay
}

// Package shell は認証済みルート（ナビゲーション・コンテンツ・プレビュー）を組み立て、
// デバイスごとにその生存期間を管理する。
package shell

import (
	"log/slog"
	"net/url"
	"sync"
	"time"

	"github.com/hitoshi/aquire/internal/content"
	"github.com/hitoshi/aquire/internal/model"
	"github.com/hitoshi/aquire/internal/navigation"
	"github.com/hitoshi/aquire/internal/platform"
	"github.com/hitoshi/aquire/internal/preview"
	"github.com/hitoshi/aquire/internal/section"
	"github.com/hitoshi/aquire/internal/selection"
)

// Observer はシェルで発生したイベントを受け取る。metrics.Collectorが実装する。
type Observer interface {
	content.FallbackObserver
	preview.Observer
	RecordSectionSelected(sectionSlug, strategy string)
	RecordRootMounted()
	RecordRootUnmounted()
}

// ProductsFunc はBrowse画面の描画時にだけ呼ばれる商品一覧の取得関数。
type ProductsFunc func() ([]model.Product, error)

// Frame は1回の描画パスで必要なすべてのビューモデル。
type Frame struct {
	DeviceID string
	Identity string
	Platform platform.Info
	Chrome   navigation.Chrome
	Screen   content.Screen
	Preview  *preview.View
	// PreviewCapability は解決済みのプレビュー機能名（native / fallback）。
	PreviewCapability string
}

// Root は認証済みルート。マウント時にプラットフォームと戦略を1回だけ解決し、
// アンマウントまで選択状態とプレビューサンドボックスを保持する。
//
// 1つのRootへの操作はmuで直列化される。UIイベントループの単一実行ストリームに相当する。
type Root struct {
	mu sync.Mutex

	deviceID  string
	identity  string
	platform  platform.Info
	mountedAt time.Time

	selection *selection.Model
	strategy  navigation.Strategy
	sandbox   *preview.Sandbox
	router    *content.Router
}

// Options はRootの生成オプション。
type Options struct {
	DeviceID string
	Identity string
	Platform platform.Info
	Observer Observer
	Logger   *slog.Logger
	// TransitionDuration はカプセルバーの遷移アニメーションの長さ。0ならデフォルト値。
	TransitionDuration time.Duration
}

// NewRoot はRootを生成する。
func NewRoot(opts Options) *Root {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	var (
		fallbackObserver content.FallbackObserver
		previewObserver  preview.Observer
	)
	if opts.Observer != nil {
		fallbackObserver = opts.Observer
		previewObserver = opts.Observer
	}

	r := &Root{
		deviceID:  opts.DeviceID,
		identity:  opts.Identity,
		platform:  opts.Platform,
		mountedAt: time.Now(),
		selection: selection.New(),
		strategy:  navigation.ForPlatform(opts.Platform, navigation.NewAnimator(opts.TransitionDuration)),
		sandbox:   preview.NewSandbox(preview.ForPlatform(opts.Platform), previewObserver),
		router:    content.NewRouter(fallbackObserver),
	}

	strategy := string(r.strategy.Kind())
	r.selection.OnChange(func(prev, next section.Section) {
		logger.Debug("section selected",
			slog.String("device_id", r.deviceID),
			slog.String("from", prev.Slug()),
			slog.String("to", next.Slug()),
			slog.String("strategy", strategy),
		)
		if opts.Observer != nil {
			opts.Observer.RecordSectionSelected(next.Slug(), strategy)
		}
	})

	return r
}

// DeviceID はルートを所有するデバイスIDを返す。
func (r *Root) DeviceID() string { return r.deviceID }

// Identity はマウント時に渡されたidentityを返す。
func (r *Root) Identity() string { return r.identity }

// Platform は解決済みのプラットフォームを返す。
func (r *Root) Platform() platform.Info { return r.platform }

// Strategy は解決済みのナビゲーション戦略の種別を返す。
func (r *Root) Strategy() navigation.Kind { return r.strategy.Kind() }

// Current は現在のセクションを返す。
func (r *Root) Current() section.Section {
	return r.selection.Current()
}

// Choose はナビゲーション操作を戦略に渡し、確定したセクションを返す。
// reportedがnilの場合は選択コントロールが未選択を報告したことを表す。
func (r *Root) Choose(reported *section.Section) section.Section {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.strategy.Choose(r.selection, reported)
}

// Present はアセットのプレビューを開く。表示中のプレビューは置き換えられる。
func (r *Root) Present(u *url.URL) preview.View {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.sandbox.Present(u)
}

// Dismiss はプレビューを閉じる。
func (r *Root) Dismiss() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sandbox.Dismiss()
}

// PreviewState はサンドボックスの状態を返す。
func (r *Root) PreviewState() preview.State {
	return r.sandbox.State()
}

// Render は現在の状態から1フレームを組み立てる。
// productsはコンテンツがBrowseの場合にだけ呼ばれる。
func (r *Root) Render(products ProductsFunc) (Frame, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	current := r.selection.Current()
	contentSection := r.strategy.ContentSection(current)

	ctx := content.Context{
		Identity: r.identity,
		Platform: r.platform,
	}
	if contentSection == section.Browse && products != nil {
		list, err := products()
		if err != nil {
			return Frame{}, err
		}
		if list == nil {
			list = []model.Product{}
		}
		ctx.Products = list
	}

	frame := Frame{
		DeviceID:          r.deviceID,
		Identity:          r.identity,
		Platform:          r.platform,
		Chrome:            r.strategy.Chrome(current),
		Screen:            r.router.Resolve(contentSection, ctx),
		PreviewCapability: r.sandbox.Capability().Name(),
	}
	if view, _, ok := r.sandbox.Showing(); ok {
		frame.Preview = &view
	}
	return frame, nil
}

// close はルートが保持する資源を解放する。アンマウント時に呼ばれる。
func (r *Root) close() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sandbox.Dismiss()
}

package preview

import (
	"net/url"
	"sync"

	"github.com/hitoshi/aquire/internal/platform"
)

// FallbackMessage はネイティブビューアがないプラットフォームで表示する固定メッセージ。
const FallbackMessage = "3D preview not available on this device."

// ViewKind はプレビュービューの種別。
type ViewKind string

const (
	KindNative   ViewKind = "native"
	KindFallback ViewKind = "fallback"
)

// ViewItem はネイティブビューアに並ぶ1項目。
type ViewItem struct {
	URL      string `json:"url"`
	FileName string `json:"file_name"`
}

// View はモーダルに描画するプレビューのビューモデル。
type View struct {
	Kind     ViewKind   `json:"kind"`
	Items    []ViewItem `json:"items,omitempty"`
	Message  string     `json:"message,omitempty"`
	FileName string     `json:"file_name,omitempty"`
}

// Presentation は1回のモーダル表示。Closeで表示に紐づく資源を解放する。
type Presentation interface {
	View() View
	Close()
}

// Capability はプレビュー機能の戦略。プラットフォームごとに1回だけ解決される。
type Capability interface {
	Name() string
	Open(u *url.URL) Presentation
}

// Fallback は静的なメッセージとファイル名だけを表示する機能。失敗しない。
type Fallback struct{}

// Name は機能名を返す。
func (Fallback) Name() string { return "fallback" }

// Open は代替ビューを返す。
func (Fallback) Open(u *url.URL) Presentation {
	return staticPresentation{view: FallbackView(u)}
}

// FallbackView は代替ビューを組み立てる。純粋関数。
func FallbackView(u *url.URL) View {
	return View{Kind: KindFallback, Message: FallbackMessage, FileName: FileName(u)}
}

type staticPresentation struct {
	view View
}

func (p staticPresentation) View() View { return p.view }
func (p staticPresentation) Close()     {}

var _ Capability = Fallback{}

// ForPlatform はプラットフォームに対応するプレビュー機能を返す。
func ForPlatform(info platform.Info) Capability {
	if info.SupportsNativeViewer() {
		return NewNativeViewer(nil)
	}
	return Fallback{}
}

// State はサンドボックスの状態。
type State string

const (
	StateIdle    State = "idle"
	StateShowing State = "showing"
)

// Observer はプレビュー表示を受け取る。メトリクス記録に使う。
type Observer interface {
	RecordPreviewPresented(capability string)
}

// Sandbox はプレビュー要求を1つだけ保持する状態機械。
//
//	Idle → Present(url) → Showing(url) → Dismiss → Idle
//
// Showing中のPresentは、前の表示を閉じてIdleを経由してから次の表示を開く。
type Sandbox struct {
	capability Capability
	observer   Observer

	mu      sync.Mutex
	current Presentation
	url     *url.URL
}

// NewSandbox はSandboxを生成する。observerはnilでもよい。
func NewSandbox(capability Capability, observer Observer) *Sandbox {
	return &Sandbox{capability: capability, observer: observer}
}

// Capability は解決済みのプレビュー機能を返す。
func (s *Sandbox) Capability() Capability {
	return s.capability
}

// Present はアセットを表示する。表示中の要求は完全に置き換えられる（キューイングしない）。
func (s *Sandbox) Present(u *url.URL) View {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.dismissLocked()

	s.current = s.capability.Open(u)
	s.url = cloneURL(u)
	if s.observer != nil {
		s.observer.RecordPreviewPresented(s.capability.Name())
	}
	return s.current.View()
}

// Dismiss は表示を閉じてIdleに戻る。Idleでは何もしない。
func (s *Sandbox) Dismiss() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.dismissLocked()
}

func (s *Sandbox) dismissLocked() {
	if s.current == nil {
		return
	}
	s.current.Close()
	s.current = nil
	s.url = nil
}

// Update は表示中のURL変更要求を受け取るが、何もしない。
// ビューアはマウント後のURL差し替えに対応しないため、別のアセットを見るにはDismissしてPresentし直す。
func (s *Sandbox) Update(u *url.URL) {}

// State は現在の状態を返す。
func (s *Sandbox) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current == nil {
		return StateIdle
	}
	return StateShowing
}

// Showing は表示中のビューとURLを返す。Idleの場合はfalse。
func (s *Sandbox) Showing() (View, *url.URL, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current == nil {
		return View{}, nil, false
	}
	return s.current.View(), cloneURL(s.url), true
}

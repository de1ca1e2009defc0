package preview

import (
	"net/url"
	"sync"
	"sync/atomic"
)

// Item はビューアに渡す1つのプレビュー項目。URLを束縛するだけのラッパー。
type Item struct {
	url *url.URL
}

// URL は束縛されたURLの複製を返す。
func (i Item) URL() *url.URL {
	return cloneURL(i.url)
}

// DataSource はネイティブビューアが項目を問い合わせるためのインターフェース。
type DataSource interface {
	// ItemCount は表示する項目数を返す。
	ItemCount() int
	// ItemAt は指定位置の項目を返す。
	ItemAt(index int) Item
}

// Delegate はネイティブビューアからの通知を受けるインターフェース。
// 要求される振る舞いは存在することのみ。
type Delegate interface {
	PreviewDismissed()
}

// Viewer はデータソースから項目を読み出して描画する外部ビューア。
type Viewer interface {
	Render(ds DataSource) View
}

// Adapter はビューアのデータソース/デリゲートを兼ねる短命なブリッジ。
// 1回の表示ごとに生成され、生成時に束縛したURLは生存期間中変わらない。
type Adapter struct {
	id       uint64
	item     Item
	released atomic.Bool
}

func newAdapter(id uint64, u *url.URL) *Adapter {
	return &Adapter{id: id, item: Item{url: cloneURL(u)}}
}

// ItemCount は常に1を返す。
func (a *Adapter) ItemCount() int {
	return 1
}

// ItemAt は束縛したURLの項目を返す。項目は1つしかないためindexは参照しない。
func (a *Adapter) ItemAt(index int) Item {
	return a.item
}

// PreviewDismissed はデリゲートのフック。状態は持たない。
func (a *Adapter) PreviewDismissed() {}

// URL は束縛されたURLの複製を返す。
func (a *Adapter) URL() *url.URL {
	return a.item.URL()
}

// Released は解放済みかどうかを返す。
func (a *Adapter) Released() bool {
	return a.released.Load()
}

var (
	_ DataSource = (*Adapter)(nil)
	_ Delegate   = (*Adapter)(nil)
)

// QuickLook はAR Quick Look（iOS Safariの <a rel="ar"> リンク）として項目を描画するビューア。
type QuickLook struct{}

// Render はデータソースに項目数と各項目を問い合わせてビューを組み立てる。
func (QuickLook) Render(ds DataSource) View {
	n := ds.ItemCount()
	items := make([]ViewItem, 0, n)
	for i := 0; i < n; i++ {
		u := ds.ItemAt(i).URL()
		items = append(items, ViewItem{URL: u.String(), FileName: FileName(u)})
	}
	return View{Kind: KindNative, Items: items}
}

// NativeViewer はネイティブビューアを使うプレビュー機能。
// 生存中のアダプタを追跡し、表示の終了時に必ず解放する。
type NativeViewer struct {
	viewer Viewer

	mu     sync.Mutex
	nextID uint64
	live   map[uint64]*Adapter
}

// NewNativeViewer はNativeViewerを生成する。viewerがnilの場合はQuickLookを使う。
func NewNativeViewer(viewer Viewer) *NativeViewer {
	if viewer == nil {
		viewer = QuickLook{}
	}
	return &NativeViewer{viewer: viewer, live: make(map[uint64]*Adapter)}
}

// Name は機能名を返す。
func (n *NativeViewer) Name() string { return "native" }

// Open は新しいアダプタを生成してビューアにマウントする。
func (n *NativeViewer) Open(u *url.URL) Presentation {
	n.mu.Lock()
	n.nextID++
	adapter := newAdapter(n.nextID, u)
	n.live[adapter.id] = adapter
	n.mu.Unlock()

	return &nativePresentation{
		owner:   n,
		adapter: adapter,
		view:    n.viewer.Render(adapter),
	}
}

// LiveAdapters は解放されていないアダプタを返す。
func (n *NativeViewer) LiveAdapters() []*Adapter {
	n.mu.Lock()
	defer n.mu.Unlock()

	out := make([]*Adapter, 0, len(n.live))
	for _, a := range n.live {
		out = append(out, a)
	}
	return out
}

func (n *NativeViewer) release(a *Adapter) {
	if !a.released.CompareAndSwap(false, true) {
		return
	}
	a.PreviewDismissed()

	n.mu.Lock()
	delete(n.live, a.id)
	n.mu.Unlock()
}

type nativePresentation struct {
	owner   *NativeViewer
	adapter *Adapter
	view    View
}

func (p *nativePresentation) View() View { return p.view }

func (p *nativePresentation) Close() {
	p.owner.release(p.adapter)
}

var _ Capability = (*NativeViewer)(nil)

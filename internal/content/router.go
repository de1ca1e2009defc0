// Package content は選択中のセクションをコンテンツ画面へ対応付ける。
package content

import (
	"github.com/hitoshi/aquire/internal/model"
	"github.com/hitoshi/aquire/internal/platform"
	"github.com/hitoshi/aquire/internal/section"
)

// OrdersUnavailableMessage はOrders画面が利用できないプラットフォームで表示する固定メッセージ。
const OrdersUnavailableMessage = "Orders view requires macOS 13 or later."

// Kind はコンテンツ画面の種別。
type Kind string

const (
	KindHome        Kind = "home"
	KindInfo        Kind = "info"
	KindBrowse      Kind = "browse"
	KindWishlist    Kind = "wishlist"
	KindAcquired    Kind = "acquired"
	KindOrders      Kind = "orders"
	KindUnavailable Kind = "unavailable"
)

// Screen はコンテンツ領域に表示する1画面。
// 画面ごとに必要な外部コンテキストだけが設定される。
type Screen struct {
	Kind    Kind
	Section section.Section
	Title   string
	// Identity はhomeとinfoにのみ渡される。
	Identity string
	// Products はbrowseにのみ渡される。
	Products []model.Product
	// Message はunavailableの説明文。
	Message string
}

// Context は画面の組み立てに必要な外部コンテキスト。
type Context struct {
	Identity string
	Products []model.Product
	Platform platform.Info
}

// FallbackObserver は代替画面へ差し替えたことを受け取る。メトリクス記録に使う。
type FallbackObserver interface {
	RecordScreenFallback(sectionSlug string)
}

// Router はセクションから画面への純粋な対応付けを行う。内部状態は持たない。
type Router struct {
	observer FallbackObserver
}

// NewRouter はRouterを生成する。observerはnilでもよい。
func NewRouter(observer FallbackObserver) *Router {
	return &Router{observer: observer}
}

// Resolve はセクションに対応する画面を返す。全セクションに対して必ず画面を返し、エラーにはならない。
// 未定義の値はFeaturedとして扱う。
func (r *Router) Resolve(s section.Section, ctx Context) Screen {
	s = s.OrFeatured()
	screen := Screen{Section: s, Title: s.Title()}

	switch s {
	case section.Featured:
		screen.Kind = KindHome
		screen.Identity = ctx.Identity
	case section.Info:
		screen.Kind = KindInfo
		screen.Identity = ctx.Identity
	case section.Browse:
		screen.Kind = KindBrowse
		screen.Products = ctx.Products
	case section.Wishlist:
		screen.Kind = KindWishlist
	case section.Acquired:
		screen.Kind = KindAcquired
	case section.Orders:
		if !ctx.Platform.SupportsOrders() {
			if r.observer != nil {
				r.observer.RecordScreenFallback(s.Slug())
			}
			return Unavailable(s, OrdersUnavailableMessage)
		}
		screen.Kind = KindOrders
	}

	return screen
}

// Unavailable は説明メッセージだけを持つ固定の代替画面を返す。
func Unavailable(s section.Section, message string) Screen {
	return Screen{
		Kind:    KindUnavailable,
		Section: s,
		Title:   s.Title(),
		Message: message,
	}
}

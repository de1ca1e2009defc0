// Package repository はデータ永続化のインターフェースを定義する。
package repository

import (
	"context"
	"time"

	"github.com/hitoshi/aquire/internal/model"
)

// ProductCatalog は閲覧画面に表示する商品の取得インターフェース。
type ProductCatalog interface {
	// VisibleProducts は表示対象の商品を表示順で返す。
	// filter.Queryが空でなければ商品名の部分一致（大文字小文字を区別しない）で絞り込む。
	// filter.Limitが0以下の場合は件数を制限しない。
	VisibleProducts(ctx context.Context, filter model.ProductFilter) ([]model.Product, error)
}

// AppStorage はデバイスごとのフラグ（AppStorage相当）の永続化インターフェース。
type AppStorage interface {
	// Load はデバイスの状態を返す。保存値がない場合はゼロ値の状態を返し、nilは返さない。
	Load(ctx context.Context, deviceID string) (*model.AppState, error)

	// SetLoggedIn は認証フラグとidentityを同時に保存する。
	SetLoggedIn(ctx context.Context, deviceID string, loggedIn bool, identity string) error

	// SetDebugOverlay はデバッグオーバーレイの表示フラグを保存する。
	SetDebugOverlay(ctx context.Context, deviceID string, enabled bool) error

	// PurgeStale はretentionより長く更新のないデバイスの保存値を削除し、削除したデバイス数を返す。
	PurgeStale(ctx context.Context, retention time.Duration) (int64, error)
}

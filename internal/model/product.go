// Package model はドメインモデルを定義する。
package model

import "time"

// Product はカタログの商品を表す。
// 絞り込みや並び順はカタログ側の責務で、シェルは受け取った順に表示する。
type Product struct {
	ID          string
	Name        string
	Description string // HTML。表示前にサニタイズする
	PriceLabel  string // 表示用の価格文字列。価格計算は行わない
	ImageURL    string
	ModelURL    string // USDZなどの3Dアセット。空の場合は3Dプレビューを提供しない
	CreatedAt   time.Time
}

// HasModel は3Dプレビュー可能な商品かどうかを返す。
func (p Product) HasModel() bool {
	return p.ModelURL != ""
}

// ProductFilter はカタログの絞り込み条件。
type ProductFilter struct {
	Query string
	Limit int
}

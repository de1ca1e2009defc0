package repository

import (
	"context"
	"strings"
	"time"

	"github.com/hitoshi/aquire/internal/model"
)

// MemoryProductCatalog は固定の商品一覧を返すProductCatalog。
type MemoryProductCatalog struct {
	products []model.Product
}

// NewMemoryProductCatalog は与えられた商品一覧を表示順として保持するカタログを生成する。
func NewMemoryProductCatalog(products []model.Product) *MemoryProductCatalog {
	cp := make([]model.Product, len(products))
	copy(cp, products)
	return &MemoryProductCatalog{products: cp}
}

// NewSeedProductCatalog はDBなしで起動したときのサンプル商品を持つカタログを生成する。
func NewSeedProductCatalog() *MemoryProductCatalog {
	created := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	return NewMemoryProductCatalog([]model.Product{
		{
			ID:          "toy-biplane",
			Name:        "Toy Biplane",
			Description: "<p>A wooden biplane with a <strong>spinning propeller</strong>.</p>",
			PriceLabel:  "¥4,800",
			ModelURL:    "https://developer.apple.com/augmented-reality/quick-look/models/biplane/toy_biplane_idle.usdz",
			CreatedAt:   created,
		},
		{
			ID:          "retro-tv",
			Name:        "Retro TV",
			Description: "<p>Walnut cabinet television. Looks great on a sideboard.</p>",
			PriceLabel:  "¥32,000",
			ModelURL:    "https://developer.apple.com/augmented-reality/quick-look/models/retrotv/tv_retro.usdz",
			CreatedAt:   created,
		},
		{
			ID:          "teapot",
			Name:        "Teapot",
			Description: "<p>Glazed ceramic teapot, 600ml.</p>",
			PriceLabel:  "¥6,200",
			ModelURL:    "https://developer.apple.com/augmented-reality/quick-look/models/teapot/teapot.usdz",
			CreatedAt:   created,
		},
		{
			ID:          "gift-card",
			Name:        "Gift Card",
			Description: "<p>Digital gift card delivered by email.</p>",
			PriceLabel:  "¥5,000",
			CreatedAt:   created,
		},
	})
}

// VisibleProducts は商品名で絞り込んだ一覧を返す。
func (c *MemoryProductCatalog) VisibleProducts(ctx context.Context, filter model.ProductFilter) ([]model.Product, error) {
	query := strings.ToLower(strings.TrimSpace(filter.Query))

	result := make([]model.Product, 0, len(c.products))
	for _, p := range c.products {
		if query != "" && !strings.Contains(strings.ToLower(p.Name), query) {
			continue
		}
		result = append(result, p)
		if filter.Limit > 0 && len(result) >= filter.Limit {
			break
		}
	}
	return result, nil
}

// compile-time interface check
var _ ProductCatalog = (*MemoryProductCatalog)(nil)

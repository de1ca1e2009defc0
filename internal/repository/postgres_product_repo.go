package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/hitoshi/aquire/internal/model"
)

// PostgresProductRepo はPostgreSQLを使用した商品カタログ。
type PostgresProductRepo struct {
	db *sql.DB
}

// NewPostgresProductRepo はPostgresProductRepoを生成する。
func NewPostgresProductRepo(db *sql.DB) *PostgresProductRepo {
	return &PostgresProductRepo{db: db}
}

// VisibleProducts はvisible = trueの商品をsort_order順で返す。
func (r *PostgresProductRepo) VisibleProducts(ctx context.Context, filter model.ProductFilter) ([]model.Product, error) {
	query := `SELECT id, name, description, price_label, image_url, model_url, created_at
		 FROM products
		 WHERE visible = true`
	args := []interface{}{}

	if q := strings.TrimSpace(filter.Query); q != "" {
		args = append(args, "%"+escapeLike(q)+"%")
		query += fmt.Sprintf(" AND name ILIKE $%d", len(args))
	}
	query += " ORDER BY sort_order ASC, created_at ASC"
	if filter.Limit > 0 {
		args = append(args, filter.Limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}
	defer rows.Close()

	products := []model.Product{}
	for rows.Next() {
		var p model.Product
		if err := rows.Scan(&p.ID, &p.Name, &p.Description, &p.PriceLabel, &p.ImageURL, &p.ModelURL, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan product: %w", err)
		}
		products = append(products, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate products: %w", err)
	}
	return products, nil
}

// escapeLike はLIKEパターンのメタ文字をエスケープする。
func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}

// compile-time interface check
var _ ProductCatalog = (*PostgresProductRepo)(nil)

package repository

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/joseph-ayodele/circulars-tracker/internal/entity"
)

// Summary aggregates what is currently loaded.
type Summary struct {
	TotalItems      int64            `json:"total_items"`
	Retailers       int              `json:"retailers"`
	ItemsByRetailer map[string]int64 `json:"items_by_retailer"`
	LastUpdated     time.Time        `json:"last_updated"`
}

// CircularItemRepository is the persistence boundary for extracted circular
// items.
type CircularItemRepository interface {
	ReplaceForRetailer(ctx context.Context, retailer string, items []entity.CircularItem) (int64, error)
	List(ctx context.Context, retailer, category string, offset, limit int) ([]entity.CircularItem, error)
	Search(ctx context.Context, term, retailer string) ([]entity.CircularItem, error)
	Retailers(ctx context.Context) ([]string, error)
	CategoriesForRetailer(ctx context.Context, retailer string) ([]string, error)
	CountByRetailer(ctx context.Context, retailer string) (int64, error)
	FindPrice(ctx context.Context, itemName, retailer string) (*float64, error)
	Summary(ctx context.Context) (Summary, error)
}

const itemColumns = `id, retailer, item_name, price, regular_price, discount_percent,
	unit, category, source, valid_from, valid_until, created_at, updated_at`

type circularItemRepository struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

func NewCircularItemRepository(pool *pgxpool.Pool, logger *slog.Logger) CircularItemRepository {
	if logger == nil {
		logger = slog.Default()
	}
	return &circularItemRepository{pool: pool, logger: logger}
}

// ReplaceForRetailer swaps a retailer's items wholesale: delete then bulk
// insert in one transaction, so readers never see a half-loaded circular.
func (r *circularItemRepository) ReplaceForRetailer(ctx context.Context, retailer string, items []entity.CircularItem) (int64, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("begin replace: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	tag, err := tx.Exec(ctx, `DELETE FROM circular_items WHERE retailer = $1`, retailer)
	if err != nil {
		return 0, fmt.Errorf("clear %s items: %w", retailer, err)
	}

	rows := make([][]any, 0, len(items))
	now := time.Now().UTC()
	for _, it := range items {
		rows = append(rows, []any{
			retailer, it.ItemName, it.Price, it.RegularPrice, it.DiscountPercent,
			it.Unit, it.Category, it.Source, it.ValidFrom, it.ValidUntil, now, now,
		})
	}

	inserted, err := tx.CopyFrom(ctx,
		pgx.Identifier{"circular_items"},
		[]string{"retailer", "item_name", "price", "regular_price", "discount_percent",
			"unit", "category", "source", "valid_from", "valid_until", "created_at", "updated_at"},
		pgx.CopyFromRows(rows),
	)
	if err != nil {
		return 0, fmt.Errorf("bulk insert %s items: %w", retailer, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("commit replace: %w", err)
	}
	r.logger.Info("repo.circular.replaced", "retailer", retailer, "cleared", tag.RowsAffected(), "inserted", inserted)
	return inserted, nil
}

func (r *circularItemRepository) List(ctx context.Context, retailer, category string, offset, limit int) ([]entity.CircularItem, error) {
	if limit <= 0 {
		limit = 100
	}
	query := `SELECT ` + itemColumns + ` FROM circular_items WHERE 1=1`
	args := []any{}
	if retailer != "" {
		args = append(args, retailer)
		query += fmt.Sprintf(" AND retailer = $%d", len(args))
	}
	if category != "" {
		args = append(args, category)
		query += fmt.Sprintf(" AND category = $%d", len(args))
	}
	args = append(args, limit, offset)
	query += fmt.Sprintf(" ORDER BY id LIMIT $%d OFFSET $%d", len(args)-1, len(args))

	return r.queryItems(ctx, query, args...)
}

func (r *circularItemRepository) Search(ctx context.Context, term, retailer string) ([]entity.CircularItem, error) {
	query := `SELECT ` + itemColumns + ` FROM circular_items WHERE item_name ILIKE $1`
	args := []any{"%" + term + "%"}
	if retailer != "" {
		args = append(args, retailer)
		query += " AND retailer = $2"
	}
	query += " ORDER BY price ASC"

	return r.queryItems(ctx, query, args...)
}

func (r *circularItemRepository) queryItems(ctx context.Context, query string, args ...any) ([]entity.CircularItem, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query circular items: %w", err)
	}
	defer rows.Close()

	var items []entity.CircularItem
	for rows.Next() {
		var it entity.CircularItem
		if err := rows.Scan(
			&it.ID, &it.Retailer, &it.ItemName, &it.Price, &it.RegularPrice, &it.DiscountPercent,
			&it.Unit, &it.Category, &it.Source, &it.ValidFrom, &it.ValidUntil, &it.CreatedAt, &it.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan circular item: %w", err)
		}
		items = append(items, it)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

func (r *circularItemRepository) Retailers(ctx context.Context) ([]string, error) {
	rows, err := r.pool.Query(ctx, `SELECT DISTINCT retailer FROM circular_items ORDER BY retailer`)
	if err != nil {
		return nil, fmt.Errorf("query retailers: %w", err)
	}
	defer rows.Close()
	return scanStrings(rows)
}

func (r *circularItemRepository) CategoriesForRetailer(ctx context.Context, retailer string) ([]string, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT DISTINCT category FROM circular_items
		 WHERE retailer = $1 AND category IS NOT NULL AND category <> ''
		 ORDER BY category`, retailer)
	if err != nil {
		return nil, fmt.Errorf("query categories: %w", err)
	}
	defer rows.Close()
	return scanStrings(rows)
}

func (r *circularItemRepository) CountByRetailer(ctx context.Context, retailer string) (int64, error) {
	var count int64
	var err error
	if retailer == "" {
		err = r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM circular_items`).Scan(&count)
	} else {
		err = r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM circular_items WHERE retailer = $1`, retailer).Scan(&count)
	}
	if err != nil {
		return 0, fmt.Errorf("count circular items: %w", err)
	}
	return count, nil
}

// FindPrice returns the first matching item's price, or nil when nothing
// matches.
func (r *circularItemRepository) FindPrice(ctx context.Context, itemName, retailer string) (*float64, error) {
	query := `SELECT price FROM circular_items WHERE item_name ILIKE $1`
	args := []any{"%" + itemName + "%"}
	if retailer != "" {
		args = append(args, retailer)
		query += " AND retailer = $2"
	}
	query += " LIMIT 1"

	var price float64
	err := r.pool.QueryRow(ctx, query, args...).Scan(&price)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find price: %w", err)
	}
	return &price, nil
}

func (r *circularItemRepository) Summary(ctx context.Context) (Summary, error) {
	summary := Summary{
		ItemsByRetailer: make(map[string]int64),
		LastUpdated:     time.Now().UTC(),
	}

	rows, err := r.pool.Query(ctx,
		`SELECT retailer, COUNT(*) FROM circular_items GROUP BY retailer ORDER BY retailer`)
	if err != nil {
		return summary, fmt.Errorf("query summary: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var retailer string
		var count int64
		if err := rows.Scan(&retailer, &count); err != nil {
			return summary, err
		}
		summary.ItemsByRetailer[retailer] = count
		summary.TotalItems += count
		summary.Retailers++
	}
	return summary, rows.Err()
}

func scanStrings(rows pgx.Rows) ([]string, error) {
	var out []string
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

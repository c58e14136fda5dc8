package reports

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/rgsons/storeops/internal/platform/db"
	"github.com/rgsons/storeops/internal/voucher"
)

// Repository reads report source data from PostgreSQL.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

func priceColumn(m voucher.PricingMethod) string {
	switch m {
	case voucher.PricingPurchase:
		return "pm.purchase_price"
	case voucher.PricingSale:
		return "pm.sale_price"
	default:
		return "pm.mrp"
	}
}

// where accumulates positional filters.
type where struct {
	clauses []string
	args    []any
}

func (w *where) add(clause string, arg any) {
	w.args = append(w.args, arg)
	w.clauses = append(w.clauses, fmt.Sprintf(clause, len(w.args)))
}

func (w *where) and() string {
	if len(w.clauses) == 0 {
		return ""
	}
	return " AND " + strings.Join(w.clauses, " AND ")
}

func (r *Repository) list(ctx context.Context, query string, args ...any) ([]string, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, pgx.RowTo[string])
}

func (r *Repository) Zones(ctx context.Context) ([]string, error) {
	out, err := r.list(ctx, `SELECT DISTINCT zone FROM store WHERE zone IS NOT NULL AND zone <> '' ORDER BY zone`)
	if err != nil {
		return nil, fmt.Errorf("reports: zones: %w", err)
	}
	return out, nil
}

func (r *Repository) Districts(ctx context.Context, zone string) ([]string, error) {
	var w where
	if zone != "" {
		w.add("zone = $%d", zone)
	}
	out, err := r.list(ctx, `SELECT DISTINCT district FROM store
WHERE district IS NOT NULL AND district <> ''`+w.and()+` ORDER BY district`, w.args...)
	if err != nil {
		return nil, fmt.Errorf("reports: districts: %w", err)
	}
	return out, nil
}

func storeFilter(zone, district string) where {
	var w where
	if zone != "" {
		w.add("s.zone = $%d", zone)
	}
	if district != "" {
		w.add("s.district = $%d", district)
	}
	return w
}

// Columns lists categories with non-zero closing stock in the selected stores.
func (r *Repository) Columns(ctx context.Context, zone, district string) ([]string, error) {
	w := storeFilter(zone, district)
	out, err := r.list(ctx, `SELECT DISTINCT c.name
FROM inventory_master im
JOIN items i ON im.item_code = i.item_code
JOIN category c ON i.category_code = c.code
JOIN store s ON im.store_code = s.store_code
WHERE im.closing <> 0`+w.and()+`
ORDER BY c.name`, w.args...)
	if err != nil {
		return nil, fmt.Errorf("reports: columns: %w", err)
	}
	return out, nil
}

// ClosingStockLines aggregates closing quantity and value per district,
// store and category.
func (r *Repository) ClosingStockLines(ctx context.Context, f ClosingStockFilter) ([]StockLine, error) {
	w := storeFilter(f.Zone, f.District)
	query := `SELECT COALESCE(s.district, ''), s.store_name, c.name,
	SUM(im.closing)::float8,
	SUM(im.closing * COALESCE(` + priceColumn(f.Method) + `, 0))
FROM inventory_master im
JOIN store s ON im.store_code = s.store_code
JOIN items i ON im.item_code = i.item_code
JOIN category c ON i.category_code = c.code
LEFT JOIN price_master pm ON im.item_code = pm.item_code AND im.size_code = pm.size_code
WHERE im.closing <> 0` + w.and() + `
GROUP BY s.district, s.store_name, c.name
ORDER BY s.district, s.store_name, c.name`
	rows, err := r.pool.Query(ctx, query, w.args...)
	if err != nil {
		return nil, fmt.Errorf("reports: closing stock: %w", err)
	}
	defer rows.Close()
	var out []StockLine
	for rows.Next() {
		var l StockLine
		if err := rows.Scan(&l.District, &l.StoreName, &l.Category, &l.Qty, &l.Amount); err != nil {
			return nil, fmt.Errorf("reports: closing stock scan: %w", err)
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

// DetailLines returns item/size holdings of one store ordered by category,
// item and size order.
func (r *Repository) DetailLines(ctx context.Context, storeCode string, method voucher.PricingMethod) ([]DetailLine, error) {
	query := `SELECT COALESCE(s.district, ''), s.store_name, c.name, im.item_name, COALESCE(im.size_name, ''),
	im.closing::float8,
	COALESCE(` + priceColumn(method) + `, 0)
FROM inventory_master im
JOIN store s ON im.store_code = s.store_code
JOIN items i ON im.item_code = i.item_code
JOIN category c ON i.category_code = c.code
LEFT JOIN size sz ON im.size_code = sz.code
LEFT JOIN price_master pm ON im.item_code = pm.item_code AND im.size_code = pm.size_code
WHERE im.closing <> 0 AND im.store_code = $1
ORDER BY c.name, im.item_name, sz.short_order`
	rows, err := r.pool.Query(ctx, query, storeCode)
	if err != nil {
		return nil, fmt.Errorf("reports: detail: %w", err)
	}
	defer rows.Close()
	var out []DetailLine
	for rows.Next() {
		var l DetailLine
		if err := rows.Scan(&l.District, &l.StoreName, &l.Category, &l.ItemName, &l.SizeName, &l.Qty, &l.Rate); err != nil {
			return nil, fmt.Errorf("reports: detail scan: %w", err)
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

// SizeOrder maps size names to their display order. Sizes without an
// order are left out and sort last.
func (r *Repository) SizeOrder(ctx context.Context) (map[string]int, error) {
	rows, err := r.pool.Query(ctx, `SELECT TRIM(name), short_order FROM size WHERE name IS NOT NULL AND short_order IS NOT NULL`)
	if err != nil {
		return nil, fmt.Errorf("reports: size order: %w", err)
	}
	defer rows.Close()
	out := make(map[string]int)
	for rows.Next() {
		var (
			name  string
			order int32
		)
		if err := rows.Scan(&name, &order); err != nil {
			return nil, fmt.Errorf("reports: size order scan: %w", err)
		}
		out[name] = int(order)
	}
	return out, rows.Err()
}

// StoreName resolves a store code for report titles.
func (r *Repository) StoreName(ctx context.Context, storeCode string) (string, error) {
	var name string
	err := r.pool.QueryRow(ctx, `SELECT store_name FROM store WHERE store_code = $1`, storeCode).Scan(&name)
	if err != nil {
		if db.IsNoRows(err) {
			return "", nil
		}
		return "", fmt.Errorf("reports: store name: %w", err)
	}
	return name, nil
}

// TransferLines lists stock transfer items between two dates inclusive.
func (r *Repository) TransferLines(ctx context.Context, f TransferFilter) ([]TransferLine, error) {
	w := where{args: []any{f.From, f.To}}
	if f.FromStore != "" {
		w.add("h.from_store = $%d", f.FromStore)
	}
	if f.ToStore != "" {
		w.add("h.to_store = $%d", f.ToStore)
	}
	query := `SELECT h.sto_number, h.date, h.from_store, COALESCE(fs.store_name, ''), h.to_store, COALESCE(ts.store_name, ''),
	COALESCE(h.received_status, ''), it.item_code, COALESCE(it.item_name, ''), COALESCE(it.size_name, ''),
	it.quantity, COALESCE(it.price, 0), COALESCE(it.amount, 0)
FROM sto_head h
JOIN sto_item it ON it.sto_number = h.sto_number
LEFT JOIN store fs ON fs.store_code = h.from_store
LEFT JOIN store ts ON ts.store_code = h.to_store
WHERE h.date BETWEEN $1 AND $2` + w.and() + `
ORDER BY h.date, h.sto_number, it.id`
	rows, err := r.pool.Query(ctx, query, w.args...)
	if err != nil {
		return nil, fmt.Errorf("reports: transfers: %w", err)
	}
	defer rows.Close()
	var out []TransferLine
	for rows.Next() {
		var (
			l   TransferLine
			qty int32
		)
		if err := rows.Scan(&l.StoNumber, &l.Date, &l.FromStore, &l.FromStoreName, &l.ToStore, &l.ToStoreName,
			&l.ReceivedStatus, &l.ItemCode, &l.ItemName, &l.SizeName, &qty, &l.Price, &l.Amount); err != nil {
			return nil, fmt.Errorf("reports: transfers scan: %w", err)
		}
		l.Quantity = int(qty)
		out = append(out, l)
	}
	return out, rows.Err()
}

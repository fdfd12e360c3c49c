package sqldb

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"

	"sales_report/internal/domain"
)

const insertBatchSize = 200

const saleColumns = `id, title, description, price, date_of_sale, category, sold`

const insertSaleQuery = `
	INSERT INTO sales (
		id, title, description, price, price_text, title_fold, description_fold,
		date_of_sale, sale_month, category, sold
	) VALUES (
		:id, :title, :description, :price, :price_text, :title_fold, :description_fold,
		:date_of_sale, :sale_month, :category, :sold
	)`

// saleRow carries the columns derived at write time next to the sale itself.
// The *_fold columns hold Go-lowercased text; SQLite's LOWER folds ASCII only.
type saleRow struct {
	domain.Sale
	PriceText       string `db:"price_text"`
	TitleFold       string `db:"title_fold"`
	DescriptionFold string `db:"description_fold"`
	SaleMonth       int    `db:"sale_month"`
}

type SaleStore struct {
	db *sqlx.DB
}

func NewSaleStore(db *sqlx.DB) *SaleStore {
	return &SaleStore{db: db}
}

// ReplaceAll deletes every sale and inserts the given ones with ids 1..n in order.
// Run it inside WithTransaction so readers never see the table half rebuilt.
func (s *SaleStore) ReplaceAll(ctx context.Context, sales []domain.Sale) error {
	exec := GetExecutor(ctx, s.db)

	if _, err := exec.ExecContext(ctx, "DELETE FROM sales"); err != nil {
		return wrapDriverError("delete sales", err)
	}

	rows := make([]saleRow, len(sales))
	for i, sale := range sales {
		sale.ID = int64(i + 1)
		rows[i] = saleRow{
			Sale:      sale,
			PriceText: PriceText(sale.Price),
			SaleMonth: int(domain.MonthOf(sale.DateOfSale)),
		}
	}

	for start := 0; start < len(rows); start += insertBatchSize {
		end := min(start+insertBatchSize, len(rows))
		if _, err := sqlx.NamedExecContext(ctx, exec, insertSaleQuery, rows[start:end]); err != nil {
			return wrapDriverError(fmt.Sprintf("insert sales %d-%d", start+1, end), err)
		}
	}

	return nil
}

// PriceText renders a price the way the search matches it: shortest decimal form,
// no exponent, no trailing zeros.
func PriceText(price float64) string {
	return decimal.NewFromFloat(price).String()
}

func foldCase(s string) string {
	return strings.ToLower(s)
}

// List returns one page of matching sales. A page whose offset does not fit in an
// int is past the end of any table and yields an empty result.
func (s *SaleStore) List(ctx context.Context, q domain.ListQuery) ([]domain.Sale, error) {
	if q.PerPage > 0 && q.Page > 1 && q.Page-1 > math.MaxInt/q.PerPage {
		return []domain.Sale{}, nil
	}

	exec := GetExecutor(ctx, s.db)

	var (
		conds []string
		args  []any
	)

	if q.Month.IsSet() {
		conds = append(conds, "sale_month = ?")
		args = append(args, int(q.Month))
	}

	if q.Search != "" {
		pattern := "%" + escapeLike(foldCase(q.Search)) + "%"
		conds = append(conds, `(title_fold LIKE ? ESCAPE '\'`+
			` OR description_fold LIKE ? ESCAPE '\'`+
			` OR price_text LIKE ? ESCAPE '\')`)
		args = append(args, pattern, pattern, pattern)
	}

	var sb strings.Builder
	sb.WriteString("SELECT ")
	sb.WriteString(saleColumns)
	sb.WriteString(" FROM sales")
	if len(conds) > 0 {
		sb.WriteString(" WHERE ")
		sb.WriteString(strings.Join(conds, " AND "))
	}
	sb.WriteString(" ORDER BY id LIMIT ? OFFSET ?")
	args = append(args, q.PerPage, q.Offset())

	sales := []domain.Sale{}
	if err := sqlx.SelectContext(ctx, exec, &sales, exec.Rebind(sb.String()), args...); err != nil {
		return nil, err
	}
	return sales, nil
}

func (s *SaleStore) Statistics(ctx context.Context, month domain.Month) (*domain.Statistics, error) {
	exec := GetExecutor(ctx, s.db)
	query := `
		SELECT
			COALESCE(SUM(CASE WHEN sold THEN price ELSE 0 END), 0) AS total_sale_amount,
			COALESCE(SUM(CASE WHEN sold THEN 1 ELSE 0 END), 0) AS total_sold_items,
			COALESCE(SUM(CASE WHEN sold THEN 0 ELSE 1 END), 0) AS total_not_sold_items
		FROM sales
		WHERE sale_month = ?`

	var stats domain.Statistics
	if err := sqlx.GetContext(ctx, exec, &stats, exec.Rebind(query), int(month)); err != nil {
		return nil, err
	}
	return &stats, nil
}

// CountByPriceBucket counts the month's sales per bucket index. Buckets must be ordered
// by High with the open-ended one last; indexes without sales are absent from the map.
func (s *SaleStore) CountByPriceBucket(ctx context.Context, month domain.Month, buckets []domain.PriceBucket) (map[int]int64, error) {
	if len(buckets) == 0 {
		return map[int]int64{}, nil
	}

	exec := GetExecutor(ctx, s.db)

	var sb strings.Builder
	args := make([]any, 0, len(buckets))

	sb.WriteString("SELECT CASE")
	for i, b := range buckets[:len(buckets)-1] {
		sb.WriteString(" WHEN price <= ? THEN ")
		sb.WriteString(strconv.Itoa(i))
		args = append(args, b.High)
	}
	sb.WriteString(" ELSE ")
	sb.WriteString(strconv.Itoa(len(buckets) - 1))
	sb.WriteString(" END AS bucket, COUNT(*) AS total FROM sales WHERE sale_month = ? GROUP BY bucket")
	args = append(args, int(month))

	var rows []struct {
		Bucket int   `db:"bucket"`
		Total  int64 `db:"total"`
	}
	if err := sqlx.SelectContext(ctx, exec, &rows, exec.Rebind(sb.String()), args...); err != nil {
		return nil, err
	}

	counts := make(map[int]int64, len(rows))
	for _, r := range rows {
		counts[r.Bucket] = r.Total
	}
	return counts, nil
}

func (s *SaleStore) CountByCategory(ctx context.Context, month domain.Month) (domain.CategoryBreakdown, error) {
	exec := GetExecutor(ctx, s.db)
	query := `
		SELECT category, COUNT(*) AS total
		FROM sales
		WHERE sale_month = ?
		GROUP BY category
		ORDER BY category`

	var rows []struct {
		Category string `db:"category"`
		Total    int64  `db:"total"`
	}
	if err := sqlx.SelectContext(ctx, exec, &rows, exec.Rebind(query), int(month)); err != nil {
		return nil, err
	}

	breakdown := make(domain.CategoryBreakdown, len(rows))
	for _, r := range rows {
		breakdown[r.Category] = r.Total
	}
	return breakdown, nil
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}

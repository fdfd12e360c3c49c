package domain

import (
	"fmt"
	"time"
)

// Month is a calendar month number. The zero value means "not given".
type Month int

func (m Month) IsSet() bool { return m != 0 }

func (m Month) Valid() bool { return m >= 1 && m <= 12 }

func MonthOf(d Date) Month { return Month(d.Month()) }

func (m Month) String() string {
	if !m.Valid() {
		return fmt.Sprintf("Month(%d)", int(m))
	}
	return time.Month(m).String()
}

const (
	DefaultPage    = 1
	DefaultPerPage = 10
	MaxPerPage     = 100
)

// ListQuery filters and paginates the sale listing. Page is 1-indexed.
type ListQuery struct {
	Month   Month
	Search  string
	Page    int
	PerPage int
}

func (q ListQuery) Offset() int {
	return (q.Page - 1) * q.PerPage
}

type Statistics struct {
	TotalSaleAmount   float64 `json:"total_sale_amount" db:"total_sale_amount"`
	TotalSoldItems    int64   `json:"total_sold_items" db:"total_sold_items"`
	TotalNotSoldItems int64   `json:"total_not_sold_items" db:"total_not_sold_items"`
}

// PriceBucket is a price interval of the bar chart. A price belongs to the first bucket
// whose High it does not exceed; the open-ended bucket takes everything above.
type PriceBucket struct {
	Low       int
	High      int
	OpenEnded bool
}

func (b PriceBucket) Label() string {
	if b.OpenEnded {
		return fmt.Sprintf("%d-inf", b.Low)
	}
	return fmt.Sprintf("%d-%d", b.Low, b.High)
}

// PriceBuckets returns 0-100, 101-200, ..., 801-900, 901-inf.
func PriceBuckets() []PriceBucket {
	buckets := make([]PriceBucket, 0, 10)
	buckets = append(buckets, PriceBucket{Low: 0, High: 100})
	for low := 101; low < 901; low += 100 {
		buckets = append(buckets, PriceBucket{Low: low, High: low + 99})
	}
	return append(buckets, PriceBucket{Low: 901, OpenEnded: true})
}

type PriceRangeCount struct {
	PriceRange string `json:"price_range"`
	Count      int64  `json:"count"`
}

// CategoryBreakdown maps category name to record count. Categories without records are absent.
type CategoryBreakdown map[string]int64

type CombinedReport struct {
	Transactions []Sale            `json:"transactions"`
	Statistics   *Statistics       `json:"statistics"`
	BarChart     []PriceRangeCount `json:"bar_chart"`
	PieChart     CategoryBreakdown `json:"pie_chart"`
}

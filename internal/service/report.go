package service

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"sales_report/internal/domain"
)

// ReportService answers the listing and monthly aggregate queries.
type ReportService struct {
	sales     SaleStore
	txManager TransactionManager
	buckets   []domain.PriceBucket
	logger    *zap.Logger
}

func NewReportService(sales SaleStore, txManager TransactionManager, logger *zap.Logger) *ReportService {
	return &ReportService{
		sales:     sales,
		txManager: txManager,
		buckets:   domain.PriceBuckets(),
		logger:    logger,
	}
}

// List returns one page of sales ordered by id. Month is optional here.
func (s *ReportService) List(ctx context.Context, q domain.ListQuery) ([]domain.Sale, error) {
	q, err := normalizeListQuery(q)
	if err != nil {
		return nil, err
	}

	sales, err := s.sales.List(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("list sales: %w", err)
	}

	s.logger.Debug("listed sales",
		zap.Int("month", int(q.Month)),
		zap.String("search", q.Search),
		zap.Int("page", q.Page),
		zap.Int("per_page", q.PerPage),
		zap.Int("count", len(sales)),
	)

	return sales, nil
}

func (s *ReportService) Statistics(ctx context.Context, month domain.Month) (*domain.Statistics, error) {
	if err := requireMonth(month); err != nil {
		return nil, err
	}

	stats, err := s.sales.Statistics(ctx, month)
	if err != nil {
		return nil, fmt.Errorf("sale statistics: %w", err)
	}

	stats.TotalSaleAmount = decimal.NewFromFloat(stats.TotalSaleAmount).Round(2).InexactFloat64()
	return stats, nil
}

// PriceHistogram returns every bucket in order, including the empty ones.
func (s *ReportService) PriceHistogram(ctx context.Context, month domain.Month) ([]domain.PriceRangeCount, error) {
	if err := requireMonth(month); err != nil {
		return nil, err
	}

	counts, err := s.sales.CountByPriceBucket(ctx, month, s.buckets)
	if err != nil {
		return nil, fmt.Errorf("count by price range: %w", err)
	}

	histogram := make([]domain.PriceRangeCount, len(s.buckets))
	for i, b := range s.buckets {
		histogram[i] = domain.PriceRangeCount{
			PriceRange: b.Label(),
			Count:      counts[i],
		}
	}
	return histogram, nil
}

func (s *ReportService) CategoryBreakdown(ctx context.Context, month domain.Month) (domain.CategoryBreakdown, error) {
	if err := requireMonth(month); err != nil {
		return nil, err
	}

	breakdown, err := s.sales.CountByCategory(ctx, month)
	if err != nil {
		return nil, fmt.Errorf("count by category: %w", err)
	}

	for category, count := range breakdown {
		if count == 0 {
			delete(breakdown, category)
		}
	}
	return breakdown, nil
}

// Combined runs the listing and the three aggregates for q.Month against one read
// snapshot. Any failing part fails the whole report.
func (s *ReportService) Combined(ctx context.Context, q domain.ListQuery) (*domain.CombinedReport, error) {
	if err := requireMonth(q.Month); err != nil {
		return nil, err
	}

	var report domain.CombinedReport
	err := s.txManager.WithReadTransaction(ctx, func(txCtx context.Context) error {
		var err error
		if report.Transactions, err = s.List(txCtx, q); err != nil {
			return err
		}
		if report.Statistics, err = s.Statistics(txCtx, q.Month); err != nil {
			return err
		}
		if report.BarChart, err = s.PriceHistogram(txCtx, q.Month); err != nil {
			return err
		}
		if report.PieChart, err = s.CategoryBreakdown(txCtx, q.Month); err != nil {
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return &report, nil
}

func requireMonth(month domain.Month) error {
	if !month.IsSet() {
		return fmt.Errorf("%w: month is required", domain.ErrMissingParameter)
	}
	return validateMonth(month)
}

func validateMonth(month domain.Month) error {
	if !month.Valid() {
		return fmt.Errorf("%w: month must be between 1 and 12", domain.ErrInvalidParameter)
	}
	return nil
}

// normalizeListQuery fills in paging defaults and clamps per_page to MaxPerPage.
func normalizeListQuery(q domain.ListQuery) (domain.ListQuery, error) {
	if q.Month.IsSet() {
		if err := validateMonth(q.Month); err != nil {
			return q, err
		}
	}

	switch {
	case q.Page == 0:
		q.Page = domain.DefaultPage
	case q.Page < 0:
		return q, fmt.Errorf("%w: page must be at least 1", domain.ErrInvalidParameter)
	}

	switch {
	case q.PerPage == 0:
		q.PerPage = domain.DefaultPerPage
	case q.PerPage < 0:
		return q, fmt.Errorf("%w: per_page must be at least 1", domain.ErrInvalidParameter)
	case q.PerPage > domain.MaxPerPage:
		q.PerPage = domain.MaxPerPage
	}

	return q, nil
}

package service

//go:generate mockgen -source=interfaces.go -destination=mocks/mocks.go -package=mocks

import (
	"context"

	"sales_report/internal/domain"
)

type SaleStore interface {
	ReplaceAll(ctx context.Context, sales []domain.Sale) error
	List(ctx context.Context, q domain.ListQuery) ([]domain.Sale, error)
	Statistics(ctx context.Context, month domain.Month) (*domain.Statistics, error)
	CountByPriceBucket(ctx context.Context, month domain.Month, buckets []domain.PriceBucket) (map[int]int64, error)
	CountByCategory(ctx context.Context, month domain.Month) (domain.CategoryBreakdown, error)
}

type DatasetStateStore interface {
	Get(ctx context.Context, sourceID string) (*domain.DatasetState, error)
	Update(ctx context.Context, state *domain.DatasetState) error
}

type Source interface {
	ID() string
	Name() string
	FetchSales(ctx context.Context) (*domain.Snapshot, error)
}

type TransactionManager interface {
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
	WithReadTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

type Publisher interface {
	PublishDatasetReplaced(ctx context.Context, event domain.DatasetReplaced) error
	Close() error
}

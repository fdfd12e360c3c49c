package roxiler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"sales_report/internal/domain"
)

const (
	SourceID   = "roxiler"
	SourceName = "Roxiler product transactions"
)

var errMalformed = errors.New("malformed document")

// Config holds snapshot source configuration.
type Config struct {
	URL            string
	Timeout        time.Duration
	MaxAttempts    int
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
}

// Source fetches the product transaction snapshot over HTTP.
type Source struct {
	httpClient     *http.Client
	url            string
	maxAttempts    int
	initialBackoff time.Duration
	maxBackoff     time.Duration
	logger         *zap.Logger
}

func New(cfg Config, logger *zap.Logger) *Source {
	maxAttempts := cfg.MaxAttempts
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	return &Source{
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		url:            cfg.URL,
		maxAttempts:    maxAttempts,
		initialBackoff: cfg.InitialBackoff,
		maxBackoff:     cfg.MaxBackoff,
		logger:         logger.With(zap.String("source", SourceID)),
	}
}

func (s *Source) ID() string {
	return SourceID
}

func (s *Source) Name() string {
	return SourceName
}

// FetchSales downloads the snapshot and maps it to sales. Every failure wraps
// domain.ErrSourceUnavailable.
func (s *Source) FetchSales(ctx context.Context) (*domain.Snapshot, error) {
	items, err := s.fetch(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrSourceUnavailable, err)
	}

	sales := s.transform(items)

	s.logger.Debug("fetched snapshot",
		zap.Int("items", len(items)),
		zap.Int("sales", len(sales)),
	)

	return &domain.Snapshot{Sales: sales, Received: len(items)}, nil
}

func (s *Source) fetch(ctx context.Context) ([]Item, error) {
	var items []Item
	var err error

	attempt := 1
	for ; ; attempt++ {
		items, err = s.doRequest(ctx)
		if err == nil {
			return items, nil
		}

		if errors.Is(err, errMalformed) || attempt >= s.maxAttempts {
			break
		}

		backoff := s.calculateBackoff(attempt)
		s.logger.Warn("request failed, retrying",
			zap.Int("attempt", attempt),
			zap.Duration("backoff", backoff),
			zap.Error(err),
		)

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(backoff):
		}
	}

	return nil, fmt.Errorf("after %d attempts: %w", attempt, err)
}

func (s *Source) doRequest(ctx context.Context) ([]Item, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.url, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "SalesReport/1.0")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status: %d", resp.StatusCode)
	}

	var items []Item
	if err := json.NewDecoder(resp.Body).Decode(&items); err != nil {
		return nil, fmt.Errorf("%w: decode response: %w", errMalformed, err)
	}

	return items, nil
}

func (s *Source) calculateBackoff(attempt int) time.Duration {
	backoff := s.initialBackoff
	for i := 1; i < attempt; i++ {
		backoff *= 2
	}
	if backoff > s.maxBackoff {
		backoff = s.maxBackoff
	}
	return backoff
}

func (s *Source) transform(items []Item) []domain.Sale {
	sales := make([]domain.Sale, 0, len(items))

	for _, it := range items {
		date, err := domain.ParseDate(it.DateOfSale)
		if err != nil {
			s.logger.Warn("failed to parse date",
				zap.Int64("external_id", it.ID),
				zap.String("date", it.DateOfSale),
			)
			continue
		}

		if it.Price < 0 {
			s.logger.Warn("negative price",
				zap.Int64("external_id", it.ID),
				zap.Float64("price", it.Price),
			)
			continue
		}

		sales = append(sales, domain.Sale{
			Title:       it.Title,
			Description: it.Description,
			Price:       it.Price,
			DateOfSale:  date,
			Category:    it.Category,
			Sold:        it.Sold,
		})
	}

	return sales
}

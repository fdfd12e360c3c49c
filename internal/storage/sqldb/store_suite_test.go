package sqldb

import (
	"context"
	"errors"
	"math"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/suite"

	"sales_report/internal/domain"
)

// storeSuite holds the store tests shared by the SQLite and PostgreSQL suites.
type storeSuite struct {
	suite.Suite
	ctx context.Context
	db  *sqlx.DB
}

func sale(title string, price float64, date domain.Date, category string, sold bool) domain.Sale {
	return domain.Sale{
		Title:       title,
		Description: title + " description",
		Price:       price,
		DateOfSale:  date,
		Category:    category,
		Sold:        sold,
	}
}

func (s *storeSuite) seed(sales ...domain.Sale) {
	tm := NewTransactionManager(s.db)
	store := NewSaleStore(s.db)
	err := tm.WithTransaction(s.ctx, func(ctx context.Context) error {
		return store.ReplaceAll(ctx, sales)
	})
	s.Require().NoError(err)
}

func (s *storeSuite) exampleSales() []domain.Sale {
	return []domain.Sale{
		sale("A", 150, domain.NewDate(2024, time.March, 15), "X", true),
		sale("B", 150, domain.NewDate(2024, time.March, 20), "X", false),
		sale("C", 50, domain.NewDate(2024, time.April, 1), "Y", true),
	}
}

func (s *storeSuite) TestReplaceAll_AssignsSequentialIDs() {
	s.seed(s.exampleSales()...)

	sales, err := NewSaleStore(s.db).List(s.ctx, domain.ListQuery{Page: 1, PerPage: 10})
	s.Require().NoError(err)
	s.Require().Len(sales, 3)

	for i, sl := range sales {
		s.Equal(int64(i+1), sl.ID)
	}
	s.Equal("A", sales[0].Title)
	s.Equal("A description", sales[0].Description)
	s.Equal(150.0, sales[0].Price)
	s.Equal("2024-03-15", sales[0].DateOfSale.String())
	s.Equal("X", sales[0].Category)
	s.True(sales[0].Sold)
	s.False(sales[1].Sold)
}

func (s *storeSuite) TestReplaceAll_DiscardsPreviousSet() {
	s.seed(s.exampleSales()...)
	s.seed(sale("only", 10, domain.NewDate(2023, time.June, 1), "Z", false))

	sales, err := NewSaleStore(s.db).List(s.ctx, domain.ListQuery{Page: 1, PerPage: 10})
	s.Require().NoError(err)
	s.Require().Len(sales, 1)
	s.Equal(int64(1), sales[0].ID)
	s.Equal("only", sales[0].Title)
}

func (s *storeSuite) TestReplaceAll_LargeSetIsBatched() {
	var sales []domain.Sale
	for i := 0; i < insertBatchSize*2+7; i++ {
		sales = append(sales, sale("item", float64(i), domain.NewDate(2022, time.May, 1+i%28), "bulk", i%2 == 0))
	}
	s.seed(sales...)

	var count int
	s.Require().NoError(s.db.GetContext(s.ctx, &count, "SELECT COUNT(*) FROM sales"))
	s.Equal(len(sales), count)
}

func (s *storeSuite) TestReplaceAll_RollbackKeepsPreviousSet() {
	s.seed(s.exampleSales()...)

	tm := NewTransactionManager(s.db)
	store := NewSaleStore(s.db)
	errBoom := errors.New("boom")

	err := tm.WithTransaction(s.ctx, func(ctx context.Context) error {
		if err := store.ReplaceAll(ctx, []domain.Sale{sale("new", 1, domain.NewDate(2024, time.March, 1), "N", true)}); err != nil {
			return err
		}
		return errBoom
	})
	s.ErrorIs(err, errBoom)

	sales, err := store.List(s.ctx, domain.ListQuery{Page: 1, PerPage: 10})
	s.Require().NoError(err)
	s.Len(sales, 3)
}

func (s *storeSuite) TestWithTransaction_NestedCallJoinsOuter() {
	s.seed(s.exampleSales()...)
	tm := NewTransactionManager(s.db)
	store := NewSaleStore(s.db)
	errBoom := errors.New("boom")

	err := tm.WithTransaction(s.ctx, func(ctx context.Context) error {
		outer := GetTxFromContext(ctx)
		s.Require().NotNil(outer)

		if err := tm.WithTransaction(ctx, func(inner context.Context) error {
			s.Same(outer, GetTxFromContext(inner))
			return store.ReplaceAll(inner, nil)
		}); err != nil {
			return err
		}
		return errBoom
	})
	s.ErrorIs(err, errBoom)

	sales, err := store.List(s.ctx, domain.ListQuery{Page: 1, PerPage: 10})
	s.Require().NoError(err)
	s.Len(sales, 3)
}

func (s *storeSuite) TestList_FiltersByMonthAcrossYears() {
	s.seed(
		sale("2021", 10, domain.NewDate(2021, time.March, 1), "X", true),
		sale("2022", 10, domain.NewDate(2022, time.March, 31), "X", true),
		sale("april", 10, domain.NewDate(2022, time.April, 1), "X", true),
	)

	sales, err := NewSaleStore(s.db).List(s.ctx, domain.ListQuery{Month: 3, Page: 1, PerPage: 10})
	s.Require().NoError(err)
	s.Require().Len(sales, 2)
	s.Equal("2021", sales[0].Title)
	s.Equal("2022", sales[1].Title)
}

func (s *storeSuite) TestList_Search() {
	s.seed(
		domain.Sale{Title: "Mens Cotton Jacket", Description: "great outerwear", Price: 55.99, DateOfSale: domain.NewDate(2022, time.March, 1), Category: "men"},
		domain.Sale{Title: "Ring", Description: "Solid GOLD petite micropave", Price: 168, DateOfSale: domain.NewDate(2022, time.March, 2), Category: "jewelery"},
		domain.Sale{Title: "Backpack", Description: "fits 15 inch laptops", Price: 329.85, DateOfSale: domain.NewDate(2022, time.March, 3), Category: "men"},
		domain.Sale{Title: "100% cotton", Description: "shirt", Price: 22.3, DateOfSale: domain.NewDate(2022, time.March, 4), Category: "men"},
		domain.Sale{Title: "Élan Watch", Description: "Made in STRASSE and Straße", Price: 74, DateOfSale: domain.NewDate(2022, time.March, 5), Category: "watches"},
	)
	store := NewSaleStore(s.db)

	cases := []struct {
		search string
		titles []string
	}{
		{search: "jacket", titles: []string{"Mens Cotton Jacket"}},
		{search: "gold", titles: []string{"Ring"}},
		{search: "COTTON", titles: []string{"Mens Cotton Jacket", "100% cotton"}},
		{search: "329.8", titles: []string{"Backpack"}},
		{search: "168", titles: []string{"Ring"}},
		{search: "0%", titles: []string{"100% cotton"}},
		{search: "_", titles: []string{}},
		{search: "nothing", titles: []string{}},
		{search: "élan", titles: []string{"Élan Watch"}},
		{search: "ÉLAN", titles: []string{"Élan Watch"}},
		{search: "straße", titles: []string{"Élan Watch"}},
	}

	for _, tc := range cases {
		sales, err := store.List(s.ctx, domain.ListQuery{Search: tc.search, Page: 1, PerPage: 10})
		s.Require().NoError(err, tc.search)

		titles := make([]string, 0, len(sales))
		for _, sl := range sales {
			titles = append(titles, sl.Title)
		}
		s.Equal(tc.titles, titles, "search %q", tc.search)
	}
}

func (s *storeSuite) TestList_Pagination() {
	var sales []domain.Sale
	for i := 1; i <= 25; i++ {
		sales = append(sales, sale("item", float64(i), domain.NewDate(2022, time.July, 1), "X", true))
	}
	s.seed(sales...)
	store := NewSaleStore(s.db)

	page, err := store.List(s.ctx, domain.ListQuery{Month: 7, Page: 2, PerPage: 10})
	s.Require().NoError(err)
	s.Require().Len(page, 10)
	s.Equal(int64(11), page[0].ID)
	s.Equal(int64(20), page[9].ID)

	last, err := store.List(s.ctx, domain.ListQuery{Month: 7, Page: 3, PerPage: 10})
	s.Require().NoError(err)
	s.Len(last, 5)

	beyond, err := store.List(s.ctx, domain.ListQuery{Month: 7, Page: 4, PerPage: 10})
	s.Require().NoError(err)
	s.NotNil(beyond)
	s.Empty(beyond)

	for _, q := range []domain.ListQuery{
		{Month: 7, Page: math.MaxInt/10 + 2, PerPage: 10},
		{Month: 7, Page: math.MaxInt, PerPage: 100},
		{Page: math.MaxInt/100 + 1, PerPage: 100},
	} {
		far, err := store.List(s.ctx, q)
		s.Require().NoError(err, "page %d", q.Page)
		s.NotNil(far)
		s.Empty(far, "page %d", q.Page)
	}
}

func (s *storeSuite) TestReadTransaction_SeesOneSnapshot() {
	s.seed(s.exampleSales()...)
	tm := NewTransactionManager(s.db)
	store := NewSaleStore(s.db)

	err := tm.WithReadTransaction(s.ctx, func(ctx context.Context) error {
		before, err := store.List(ctx, domain.ListQuery{Month: 3, Page: 1, PerPage: 10})
		s.Require().NoError(err)
		s.Require().Len(before, 2)

		s.seed(sale("replacement", 999, domain.NewDate(2024, time.March, 1), "Z", true))

		stats, err := store.Statistics(ctx, 3)
		s.Require().NoError(err)
		s.Equal(int64(1), stats.TotalSoldItems)
		s.Equal(int64(1), stats.TotalNotSoldItems)

		breakdown, err := store.CountByCategory(ctx, 3)
		s.Require().NoError(err)
		s.Equal(domain.CategoryBreakdown{"X": 2}, breakdown)
		return nil
	})
	s.Require().NoError(err)

	breakdown, err := store.CountByCategory(s.ctx, 3)
	s.Require().NoError(err)
	s.Equal(domain.CategoryBreakdown{"Z": 1}, breakdown)
}

func (s *storeSuite) TestStatistics() {
	s.seed(s.exampleSales()...)
	store := NewSaleStore(s.db)

	stats, err := store.Statistics(s.ctx, 3)
	s.Require().NoError(err)
	s.Equal(150.0, stats.TotalSaleAmount)
	s.Equal(int64(1), stats.TotalSoldItems)
	s.Equal(int64(1), stats.TotalNotSoldItems)

	empty, err := store.Statistics(s.ctx, 12)
	s.Require().NoError(err)
	s.Equal(domain.Statistics{}, *empty)
}

func (s *storeSuite) TestCountByPriceBucket() {
	date := domain.NewDate(2022, time.September, 9)
	s.seed(
		sale("zero", 0, date, "X", true),
		sale("hundred", 100, date, "X", true),
		sale("between", 100.5, date, "X", true),
		sale("hundred-one", 101, date, "X", false),
		sale("nine-hundred", 900, date, "X", true),
		sale("nine-hundred-one", 901, date, "X", true),
		sale("huge", 5000, date, "X", false),
		sale("other month", 150, domain.NewDate(2022, time.October, 1), "X", true),
	)

	counts, err := NewSaleStore(s.db).CountByPriceBucket(s.ctx, 9, domain.PriceBuckets())
	s.Require().NoError(err)
	s.Equal(map[int]int64{0: 2, 1: 2, 8: 1, 9: 2}, counts)
}

func (s *storeSuite) TestCountByCategory() {
	s.seed(s.exampleSales()...)
	store := NewSaleStore(s.db)

	breakdown, err := store.CountByCategory(s.ctx, 3)
	s.Require().NoError(err)
	s.Equal(domain.CategoryBreakdown{"X": 2}, breakdown)

	empty, err := store.CountByCategory(s.ctx, 1)
	s.Require().NoError(err)
	s.Empty(empty)
}

func (s *storeSuite) TestDatasetStateStore_GetNew() {
	state, err := NewDatasetStateStore(s.db).Get(s.ctx, "new-source")
	s.NoError(err)
	s.Require().NotNil(state)
	s.Equal("new-source", state.SourceID)
	s.True(state.LastLoadedAt.IsZero())
	s.Equal(int64(0), state.TotalLoads)
}

func (s *storeSuite) TestDatasetStateStore_UpdateAndGet() {
	store := NewDatasetStateStore(s.db)
	now := time.Now().UTC().Truncate(time.Second)

	err := store.Update(s.ctx, &domain.DatasetState{SourceID: "src", LastLoadedAt: now, RecordCount: 60, TotalLoads: 1})
	s.Require().NoError(err)

	err = store.Update(s.ctx, &domain.DatasetState{SourceID: "src", LastLoadedAt: now, RecordCount: 61, TotalLoads: 2})
	s.Require().NoError(err)

	state, err := store.Get(s.ctx, "src")
	s.Require().NoError(err)
	s.Equal(int64(61), state.RecordCount)
	s.Equal(int64(2), state.TotalLoads)
	s.WithinDuration(now, state.LastLoadedAt, time.Second)
}

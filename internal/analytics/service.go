// Package analytics serves the dashboard aggregates behind a versioned
// Redis cache.
package analytics

import (
	"context"
	"time"

	"github.com/mercurio-erp/mercurio-erp/internal/shared"
)

// Dashboard is the read model behind the home screen.
type Dashboard struct {
	TotalSales      float64        `json:"total_sales"`
	TotalPurchases  float64        `json:"total_purchases"`
	TotalExpenses   float64        `json:"total_expenses"`
	Balance         float64        `json:"balance"`
	TotalDebt       float64        `json:"total_debt"`
	LowStockCount   int64          `json:"low_stock_count"`
	OutOfStockCount int64          `json:"out_of_stock_count"`
	TopProducts     []ProductSales `json:"top_products"`
	MonthlySales    []MonthTotal   `json:"monthly_sales"`
}

// ProductSales ranks a product by units sold.
type ProductSales struct {
	ProductID int64   `json:"product_id"`
	Name      string  `json:"name"`
	Quantity  int64   `json:"quantity"`
	Revenue   float64 `json:"revenue"`
}

// MonthTotal is one month's settled sales.
type MonthTotal struct {
	Period string  `json:"period"`
	Total  float64 `json:"total"`
}

// MonthlySaleRow is one settled sale as read from storage, before month
// grouping.
type MonthlySaleRow struct {
	CreatedAt time.Time
	Total     float64
}

// Repository reads the raw aggregates.
type Repository interface {
	Totals(ctx context.Context) (totalSales, totalPurchases, totalExpenses, totalDebt float64, err error)
	StockCounts(ctx context.Context) (lowStock, outOfStock int64, err error)
	TopProducts(ctx context.Context, limit int) ([]ProductSales, error)
	SettledSales(ctx context.Context) ([]MonthlySaleRow, error)
}

// Service computes the dashboard.
type Service struct {
	repo        Repository
	cache       *Cache
	localOffset time.Duration
}

// NewService builds Service.
func NewService(repo Repository, cache *Cache, localOffset time.Duration) *Service {
	return &Service{repo: repo, cache: cache, localOffset: localOffset}
}

// GetDashboard serves the cached dashboard, rebuilding it on a cold or
// bumped cache.
func (s *Service) GetDashboard(ctx context.Context) (Dashboard, error) {
	key, err := s.cache.BuildKey(ctx, "dashboard", "home")
	if err != nil {
		return Dashboard{}, err
	}
	var dashboard Dashboard
	err = s.cache.FetchJSON(ctx, key, &dashboard, func(ctx context.Context) (interface{}, error) {
		return s.build(ctx)
	})
	return dashboard, err
}

// Invalidate drops the cached dashboard; called after any committed
// mutation.
func (s *Service) Invalidate(ctx context.Context) error {
	return s.cache.Bump(ctx)
}

func (s *Service) build(ctx context.Context) (Dashboard, error) {
	totalSales, totalPurchases, totalExpenses, totalDebt, err := s.repo.Totals(ctx)
	if err != nil {
		return Dashboard{}, err
	}
	lowStock, outOfStock, err := s.repo.StockCounts(ctx)
	if err != nil {
		return Dashboard{}, err
	}
	topProducts, err := s.repo.TopProducts(ctx, 5)
	if err != nil {
		return Dashboard{}, err
	}
	settled, err := s.repo.SettledSales(ctx)
	if err != nil {
		return Dashboard{}, err
	}

	byMonth := map[string]float64{}
	order := []string{}
	for _, row := range settled {
		period := shared.Period(row.CreatedAt, s.localOffset)
		if _, ok := byMonth[period]; !ok {
			order = append(order, period)
		}
		byMonth[period] += row.Total
	}
	monthly := make([]MonthTotal, 0, len(order))
	for _, period := range order {
		monthly = append(monthly, MonthTotal{Period: period, Total: byMonth[period]})
	}

	return Dashboard{
		TotalSales:      totalSales,
		TotalPurchases:  totalPurchases,
		TotalExpenses:   totalExpenses,
		Balance:         totalSales - totalPurchases - totalExpenses,
		TotalDebt:       totalDebt,
		LowStockCount:   lowStock,
		OutOfStockCount: outOfStock,
		TopProducts:     topProducts,
		MonthlySales:    monthly,
	}, nil
}

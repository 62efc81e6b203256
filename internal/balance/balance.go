// Package balance computes the running balance: everything sold minus
// everything bought minus everything spent.
package balance

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Balance carries the three aggregates and their difference. Empty tables
// count as 0.
type Balance struct {
	Sales     float64 `json:"sales"`
	Purchases float64 `json:"purchases"`
	Expenses  float64 `json:"expenses"`
	Balance   float64 `json:"balance"`
}

// Repository reads the aggregates in one round trip.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

func (r *Repository) Totals(ctx context.Context) (Balance, error) {
	var b Balance
	err := r.pool.QueryRow(ctx, `SELECT
  COALESCE((SELECT SUM(total) FROM sales), 0),
  COALESCE((SELECT SUM(total) FROM purchases), 0),
  COALESCE((SELECT SUM(amount) FROM expenses), 0)`).Scan(&b.Sales, &b.Purchases, &b.Expenses)
	return b, err
}

// RepositoryPort abstracts storage for the service.
type RepositoryPort interface {
	Totals(ctx context.Context) (Balance, error)
}

// Service computes the balance. No caching: callers re-fetch after each
// mutation so the number always reflects the latest committed transaction.
type Service struct {
	repo RepositoryPort
}

// NewService builds Service.
func NewService(repo RepositoryPort) *Service {
	return &Service{repo: repo}
}

func (s *Service) GetBalance(ctx context.Context) (Balance, error) {
	b, err := s.repo.Totals(ctx)
	if err != nil {
		return Balance{}, err
	}
	b.Balance = b.Sales - b.Purchases - b.Expenses
	return b, nil
}

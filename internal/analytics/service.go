package analytics

import (
	"context"
	"fmt"
	"math"
	"time"

	"storefront/internal/analytics/db"
	"storefront/internal/models"
	"storefront/internal/utils"
)

const (
	MaxLimit = 100
	MaxDays  = 365
)

var (
	ErrInvalidLimit = utils.BadRequest("INVALID_LIMIT", fmt.Sprintf("limit must be between 1 and %d", MaxLimit))
	ErrInvalidDays  = utils.BadRequest("INVALID_DAYS", fmt.Sprintf("days must be between 1 and %d", MaxDays))
)

type DBLayer interface {
	Revenue(ctx context.Context, since time.Time) (float64, int, error)
	CountByStatus(ctx context.Context) (map[string]int, error)
	TopProducts(ctx context.Context, limit int) ([]models.TopProduct, error)
	RecentOrders(ctx context.Context, limit int) ([]models.Order, error)
	SalesSince(ctx context.Context, since time.Time) ([]db.SaleRow, error)
}

// Service computes the team dashboard figures. Cancelled orders never count as revenue.
type Service struct {
	DB  DBLayer
	Loc *time.Location

	now func() time.Time
}

func NewService(db DBLayer, loc *time.Location) *Service {
	if loc == nil {
		loc = time.Local
	}
	return &Service{DB: db, Loc: loc, now: time.Now}
}

// Sales → revenue for today, the last 7 and 30 days, and all time.
func (s *Service) Sales(ctx context.Context) (*models.SalesStats, error) {
	now := s.now().In(s.Loc)
	stats := &models.SalesStats{}

	windows := map[*float64]time.Time{
		&stats.Today: startOfDay(now),
		&stats.Week:  now.AddDate(0, 0, -7),
		&stats.Month: now.AddDate(0, 0, -30),
	}
	for dst, since := range windows {
		total, _, err := s.DB.Revenue(ctx, since)
		if err != nil {
			return nil, fmt.Errorf("revenue since %s: %w", since.Format(time.RFC3339), err)
		}
		*dst = roundMoney(total)
	}

	total, count, err := s.DB.Revenue(ctx, time.Time{})
	if err != nil {
		return nil, fmt.Errorf("total revenue: %w", err)
	}
	stats.Total = roundMoney(total)
	stats.TotalOrders = count
	return stats, nil
}

func (s *Service) OrderCounts(ctx context.Context) (*models.OrderCounts, error) {
	byStatus, err := s.DB.CountByStatus(ctx)
	if err != nil {
		return nil, fmt.Errorf("count orders: %w", err)
	}
	counts := &models.OrderCounts{
		Pending:   byStatus[models.StatusPending],
		Preparing: byStatus[models.StatusPreparing],
		Completed: byStatus[models.StatusCompleted],
		Cancelled: byStatus[models.StatusCancelled],
	}
	for _, n := range byStatus {
		counts.Total += n
	}
	return counts, nil
}

func (s *Service) TopProducts(ctx context.Context, limit int) ([]models.TopProduct, error) {
	if limit < 1 || limit > MaxLimit {
		return nil, ErrInvalidLimit
	}
	products, err := s.DB.TopProducts(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("top products: %w", err)
	}
	for i := range products {
		products[i].TotalRevenue = roundMoney(products[i].TotalRevenue)
	}
	return products, nil
}

func (s *Service) RecentOrders(ctx context.Context, limit int) ([]models.RecentOrder, error) {
	if limit < 1 || limit > MaxLimit {
		return nil, ErrInvalidLimit
	}
	orders, err := s.DB.RecentOrders(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("recent orders: %w", err)
	}
	recent := make([]models.RecentOrder, 0, len(orders))
	for _, o := range orders {
		recent = append(recent, models.RecentOrder{
			ID:           o.ID,
			OrderNumber:  o.OrderNumber,
			CustomerName: o.CustomerName,
			TotalAmount:  o.TotalAmount,
			Status:       o.Status,
			CreatedAt:    o.CreatedAt,
		})
	}
	return recent, nil
}

// SalesTrend returns one point per calendar day, oldest first, including days without sales.
func (s *Service) SalesTrend(ctx context.Context, days int) ([]models.SalesTrendPoint, error) {
	if days < 1 || days > MaxDays {
		return nil, ErrInvalidDays
	}
	first := startOfDay(s.now().In(s.Loc)).AddDate(0, 0, -(days - 1))

	rows, err := s.DB.SalesSince(ctx, first)
	if err != nil {
		return nil, fmt.Errorf("sales since %s: %w", first.Format(dateLayout), err)
	}

	points := make([]models.SalesTrendPoint, days)
	index := make(map[string]int, days)
	for i := range points {
		date := first.AddDate(0, 0, i).Format(dateLayout)
		points[i].Date = date
		index[date] = i
	}
	for _, r := range rows {
		i, ok := index[r.CreatedAt.In(s.Loc).Format(dateLayout)]
		if !ok {
			continue
		}
		points[i].Sales += r.TotalAmount
		points[i].OrderCount++
	}
	for i := range points {
		points[i].Sales = roundMoney(points[i].Sales)
	}
	return points, nil
}

const dateLayout = "2006-01-02"

func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

func roundMoney(v float64) float64 {
	return math.Round(v*100) / 100
}

package catalog

import (
	"context"

	"github.com/montanaflynn/stats"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
)

// Summary dashboard figures over the non-deleted catalog
type Summary struct {
	Total          int64   `json:"total"`
	Active         int64   `json:"active"`
	Inactive       int64   `json:"inactive"`
	OutOfStock     int64   `json:"out_of_stock"`
	LowStock       int64   `json:"low_stock"`
	InStock        int64   `json:"in_stock"`
	Trashed        int64   `json:"trashed"`
	TotalUnits     int64   `json:"total_units"`
	InventoryValue string  `json:"inventory_value"`
	MinPrice       float64 `json:"min_price"`
	MaxPrice       float64 `json:"max_price"`
	MeanPrice      float64 `json:"mean_price"`
	MedianPrice    float64 `json:"median_price"`
}

// Summary counts products per stock status and describes the price spread.
// Inventory value is the exact sum of price * stock, formatted for display.
func (s *Service) Summary(ctx context.Context) (*Summary, error) {
	rows, err := s.repo.Pricing(ctx)
	if err != nil {
		return nil, err
	}
	trashed, err := s.repo.CountTrashed(ctx)
	if err != nil {
		return nil, err
	}

	sum := &Summary{Total: int64(len(rows)), Trashed: trashed}
	value := decimal.Zero
	prices := make(stats.Float64Data, 0, len(rows))
	for _, row := range rows {
		if row.IsActive {
			sum.Active++
		}
		switch StockStatus(row.Stock) {
		case StockOut:
			sum.OutOfStock++
		case StockLow:
			sum.LowStock++
		default:
			sum.InStock++
		}
		sum.TotalUnits += int64(row.Stock)
		value = value.Add(row.Price.Mul(decimal.NewFromInt(int64(row.Stock))))
		prices = append(prices, row.Price.InexactFloat64())
	}
	sum.Inactive = sum.Total - sum.Active
	sum.InventoryValue = FormattedPrice(value)

	if len(prices) == 0 {
		return sum, nil
	}
	if sum.MinPrice, err = prices.Min(); err != nil {
		return nil, errors.Wrap(err, "price min")
	}
	if sum.MaxPrice, err = prices.Max(); err != nil {
		return nil, errors.Wrap(err, "price max")
	}
	if sum.MeanPrice, err = prices.Mean(); err != nil {
		return nil, errors.Wrap(err, "price mean")
	}
	if sum.MedianPrice, err = prices.Median(); err != nil {
		return nil, errors.Wrap(err, "price median")
	}
	sum.MeanPrice, _ = stats.Round(sum.MeanPrice, priceScale)
	return sum, nil
}

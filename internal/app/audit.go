package app

import (
	"context"
	"time"

	jsoniter "github.com/json-iterator/go"
	"go.uber.org/zap"

	"github.com/talkincode/toughcatalog/internal/catalog"
	"github.com/talkincode/toughcatalog/internal/domain"
	"github.com/talkincode/toughcatalog/pkg/common"
)

const auditTimeout = 5 * time.Second

type logWriter interface {
	AddLog(ctx context.Context, log *domain.CatalogLog) error
}

// auditWriter stores one CatalogLog row per product event
type auditWriter struct {
	store logWriter
}

func newAuditWriter(store logWriter) *auditWriter {
	return &auditWriter{store: store}
}

type auditDetail struct {
	Slug     string `json:"slug"`
	Price    string `json:"price"`
	Stock    int    `json:"stock"`
	IsActive bool   `json:"is_active"`
	SourceID int64  `json:"source_id,omitempty,string"`
}

func (w *auditWriter) Handle(ev *catalog.ProductEvent) {
	detail, err := jsoniter.ConfigCompatibleWithStandardLibrary.MarshalToString(auditDetail{
		Slug:     ev.Product.Slug,
		Price:    ev.Product.Price.StringFixed(2),
		Stock:    ev.Product.Stock,
		IsActive: ev.Product.IsActive,
		SourceID: ev.SourceID,
	})
	if err != nil {
		detail = common.NA
	}

	ctx, cancel := context.WithTimeout(context.Background(), auditTimeout)
	defer cancel()
	err = w.store.AddLog(ctx, &domain.CatalogLog{
		ID:          common.UUIDint64(),
		Action:      ev.Action,
		ProductID:   ev.Product.ID,
		ProductName: ev.Product.Name,
		Detail:      detail,
		CreatedAt:   ev.At,
	})
	if err != nil {
		zap.L().Error("write catalog log failed",
			zap.String("namespace", "app"),
			zap.String("action", ev.Action),
			zap.Int64("product_id", ev.Product.ID),
			zap.Error(err))
		return
	}
	zap.L().Debug("catalog log written",
		zap.String("namespace", "app"),
		zap.String("action", ev.Action),
		zap.Int64("product_id", ev.Product.ID))
}

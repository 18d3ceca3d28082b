package catalog

import (
	"context"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/360EntSecGroup-Skylar/excelize"
	"github.com/gocarina/gocsv"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/talkincode/toughcatalog/internal/domain"
)

const (
	ExportCSV  = "csv"
	ExportXLSX = "xlsx"

	exportSheet = "Products"
)

// ExportRow one exported product line
type ExportRow struct {
	ID             int64  `csv:"id"`
	Name           string `csv:"name"`
	Slug           string `csv:"slug"`
	Category       string `csv:"category"`
	Price          string `csv:"price"`
	FormattedPrice string `csv:"formatted_price"`
	Stock          int    `csv:"stock"`
	StockStatus    string `csv:"stock_status"`
	IsActive       bool   `csv:"is_active"`
	CreatedAt      string `csv:"created_at"`
	DeletedAt      string `csv:"deleted_at"`
}

var exportHeader = []string{
	"id", "name", "slug", "category", "price", "formatted_price",
	"stock", "stock_status", "is_active", "created_at", "deleted_at",
}

func newExportRow(p *domain.Product) *ExportRow {
	row := &ExportRow{
		ID:             p.ID,
		Name:           p.Name,
		Slug:           p.Slug,
		Price:          p.Price.StringFixed(priceScale),
		FormattedPrice: FormattedPrice(p.Price),
		Stock:          p.Stock,
		StockStatus:    StockStatus(p.Stock),
		IsActive:       p.IsActive,
		CreatedAt:      p.CreatedAt.Format(time.RFC3339),
	}
	if p.Category != nil {
		row.Category = p.Category.Name
	}
	if p.DeletedAt.Valid {
		row.DeletedAt = p.DeletedAt.Time.Format(time.RFC3339)
	}
	return row
}

// ParseExportFormat validates a requested export format, empty means csv
func ParseExportFormat(s string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", ExportCSV:
		return ExportCSV, nil
	case ExportXLSX:
		return ExportXLSX, nil
	default:
		return "", errors.Errorf("unsupported export format %q", s)
	}
}

// exportBatchSize rows read from the database per round trip
var exportBatchSize = 500

// Export writes every product matching q, ignoring pagination, to w
func (s *Service) Export(ctx context.Context, q ListQuery, format string, w io.Writer) (int, error) {
	format, err := ParseExportFormat(format)
	if err != nil {
		return 0, err
	}

	var sink exportSink
	switch format {
	case ExportXLSX:
		sink = newXLSXSink()
	default:
		sink = &csvSink{w: w}
	}

	total := 0
	err = s.repo.EachBatch(ctx, q, exportBatchSize, func(items []*domain.Product) error {
		rows := make([]*ExportRow, 0, len(items))
		for _, item := range items {
			rows = append(rows, newExportRow(item))
		}
		if err := sink.write(rows); err != nil {
			return errors.Wrapf(err, "write %s export", format)
		}
		total += len(rows)
		return nil
	})
	if err != nil {
		return 0, err
	}
	if err := sink.close(w); err != nil {
		return 0, errors.Wrapf(err, "write %s export", format)
	}

	zap.L().Info("products exported",
		zap.String("namespace", "catalog"),
		zap.String("format", format),
		zap.Int("rows", total))
	return total, nil
}

type exportSink interface {
	write(rows []*ExportRow) error
	close(w io.Writer) error
}

// csvSink streams each batch straight to the writer, the header goes out once
type csvSink struct {
	w      io.Writer
	headed bool
}

func (c *csvSink) write(rows []*ExportRow) error {
	if c.headed {
		return gocsv.MarshalWithoutHeaders(rows, c.w)
	}
	c.headed = true
	return gocsv.Marshal(rows, c.w)
}

func (c *csvSink) close(io.Writer) error {
	if c.headed {
		return nil
	}
	return c.write([]*ExportRow{})
}

// xlsxSink fills one sheet and writes the workbook on close
type xlsxSink struct {
	file *excelize.File
	line int
}

func newXLSXSink() *xlsxSink {
	f := excelize.NewFile()
	f.SetSheetName("Sheet1", exportSheet)
	for col, title := range exportHeader {
		f.SetCellValue(exportSheet, cellRef(col, 1), title)
	}
	return &xlsxSink{file: f, line: 1}
}

func (x *xlsxSink) write(rows []*ExportRow) error {
	for _, row := range rows {
		x.line++
		values := []interface{}{
			strconv.FormatInt(row.ID, 10), row.Name, row.Slug, row.Category, row.Price, row.FormattedPrice,
			row.Stock, row.StockStatus, row.IsActive, row.CreatedAt, row.DeletedAt,
		}
		for col, v := range values {
			x.file.SetCellValue(exportSheet, cellRef(col, x.line), v)
		}
	}
	return nil
}

func (x *xlsxSink) close(w io.Writer) error {
	return x.file.Write(w)
}

func cellRef(col, row int) string {
	return excelize.ToAlphaString(col) + strconv.Itoa(row)
}

package catalog

import (
	"strings"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/talkincode/toughcatalog/internal/domain"
)

// PageSize is the fixed listing page size
const PageSize = 15

// Trashed selects how soft-deleted products take part in a listing
type Trashed string

const (
	TrashedExclude Trashed = ""
	TrashedWith    Trashed = "with"
	TrashedOnly    Trashed = "only"
)

// ParseTrashed maps a request value onto a Trashed mode, unknown values exclude
func ParseTrashed(s string) Trashed {
	switch Trashed(strings.ToLower(strings.TrimSpace(s))) {
	case TrashedWith:
		return TrashedWith
	case TrashedOnly:
		return TrashedOnly
	default:
		return TrashedExclude
	}
}

// ListQuery optional listing filters. Zero values mean "no filter".
type ListQuery struct {
	Search     string
	CategoryID int64
	ActiveOnly bool
	InStock    bool
	MinPrice   *decimal.Decimal
	MaxPrice   *decimal.Decimal
	Trashed    Trashed
	Page       int
}

// Normalize trims the search text and clamps the page number
func (q ListQuery) Normalize() ListQuery {
	q.Search = strings.TrimSpace(q.Search)
	if q.Page < 1 {
		q.Page = 1
	}
	return q
}

// Offset of the first row of the page
func (q ListQuery) Offset() int {
	return (q.Page - 1) * PageSize
}

// Scopes returns the filter predicates for this query in a fixed order
func (q ListQuery) Scopes() []func(*gorm.DB) *gorm.DB {
	scopes := make([]func(*gorm.DB) *gorm.DB, 0, 6)
	if q.Search != "" {
		scopes = append(scopes, ScopeSearch(q.Search))
	}
	if q.CategoryID != 0 {
		scopes = append(scopes, ScopeCategory(q.CategoryID))
	}
	if q.ActiveOnly {
		scopes = append(scopes, ScopeActive)
	}
	if q.InStock {
		scopes = append(scopes, ScopeInStock)
	}
	if q.MinPrice != nil || q.MaxPrice != nil {
		scopes = append(scopes, ScopePriceRange(q.MinPrice, q.MaxPrice))
	}
	if q.Trashed == TrashedOnly {
		scopes = append(scopes, ScopeOnlyTrashed)
	}
	return scopes
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// ScopeSearch case-insensitive substring match on name
func ScopeSearch(term string) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if strings.EqualFold(db.Dialector.Name(), "postgres") {
			return db.Where(`products.name ILIKE ? ESCAPE '\'`, "%"+likeEscaper.Replace(term)+"%")
		}
		return db.Where(`products.search_name LIKE ? ESCAPE '\'`, "%"+likeEscaper.Replace(domain.SearchKey(term))+"%")
	}
}

// ScopeCategory products of one category
func ScopeCategory(categoryID int64) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.Where("products.category_id = ?", categoryID)
	}
}

// ScopeActive products with is_active set
func ScopeActive(db *gorm.DB) *gorm.DB {
	return db.Where("products.is_active = ?", true)
}

// ScopeInStock products with stock left
func ScopeInStock(db *gorm.DB) *gorm.DB {
	return db.Where("products.stock > ?", 0)
}

// ScopePriceRange inclusive price bounds, nil leaves that side open
func ScopePriceRange(lo, hi *decimal.Decimal) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if lo != nil {
			db = db.Where("products.price >= ?", *lo)
		}
		if hi != nil {
			db = db.Where("products.price <= ?", *hi)
		}
		return db
	}
}

// ScopeOnlyTrashed soft-deleted products, only meaningful on an unscoped query
func ScopeOnlyTrashed(db *gorm.DB) *gorm.DB {
	return db.Where("products.deleted_at IS NOT NULL")
}

// Page one page of a listing. From and To are 1-based positions of the first
// and last item within the whole result, both 0 when the page is empty.
type Page struct {
	Items       []*domain.Product `json:"items"`
	Total       int64             `json:"total"`
	CurrentPage int               `json:"current_page"`
	PerPage     int               `json:"per_page"`
	LastPage    int               `json:"last_page"`
	From        int               `json:"from"`
	To          int               `json:"to"`
}

func newPage(items []*domain.Product, total int64, page int) *Page {
	p := &Page{
		Items:       items,
		Total:       total,
		CurrentPage: page,
		PerPage:     PageSize,
		LastPage:    int((total + PageSize - 1) / PageSize),
	}
	if p.LastPage < 1 {
		p.LastPage = 1
	}
	if len(items) > 0 {
		p.From = (page-1)*PageSize + 1
		p.To = p.From + len(items) - 1
	}
	return p
}

// Views decorates the page items with read-time derived fields
func (p *Page) Views() []ProductView {
	views := make([]ProductView, 0, len(p.Items))
	for _, item := range p.Items {
		views = append(views, NewProductView(item))
	}
	return views
}

// ProductView product plus display fields computed at read time
type ProductView struct {
	*domain.Product
	FormattedPrice string `json:"formatted_price"`
	StockStatus    string `json:"stock_status"`
}

func NewProductView(p *domain.Product) ProductView {
	return ProductView{
		Product:        p,
		FormattedPrice: FormattedPrice(p.Price),
		StockStatus:    StockStatus(p.Stock),
	}
}

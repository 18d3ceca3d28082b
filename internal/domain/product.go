package domain

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Product catalog item. Slug is derived from Name on every write and is
// unique across all rows, soft-deleted ones included.
type Product struct {
	ID          int64           `gorm:"primaryKey;autoIncrement:false" json:"id,string"`
	Name        string          `gorm:"size:255;not null" json:"name"`
	Slug        string          `gorm:"size:255;not null;uniqueIndex" json:"slug"`
	SearchName  string          `gorm:"size:255;not null;default:'';index" json:"-"`
	Description *string         `gorm:"type:text" json:"description"`
	Price       decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"price"`
	Stock       int             `gorm:"not null" json:"stock"`
	IsActive    bool            `gorm:"not null;index" json:"is_active"`
	CategoryID  int64           `gorm:"not null;index" json:"category_id,string"`
	Category    *Category       `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"category,omitempty"`
	CreatedAt   time.Time       `gorm:"index" json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
	DeletedAt   gorm.DeletedAt  `gorm:"index" json:"deleted_at"`
}

// TableName Specify table name
func (Product) TableName() string {
	return "products"
}

// SearchKey is the lowercased form of a name that search compares against.
// SQLite LOWER() only folds ASCII, so the folding happens here.
func SearchKey(name string) string {
	return strings.ToLower(name)
}

// BeforeSave keeps SearchName in step with Name
func (p *Product) BeforeSave(tx *gorm.DB) error {
	p.SearchName = SearchKey(p.Name)
	return nil
}

// Trashed reports whether the product is soft deleted
func (p *Product) Trashed() bool {
	return p.DeletedAt.Valid
}

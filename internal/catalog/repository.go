package catalog

import (
	"context"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/talkincode/toughcatalog/internal/domain"
)

// CategoryLookup answers the referential check of the validator
type CategoryLookup interface {
	CategoryExists(ctx context.Context, id int64) (bool, error)
}

// PricingRow the columns the summary aggregates over
type PricingRow struct {
	Price    decimal.Decimal
	Stock    int
	IsActive bool
}

// Repository persistence of products and categories. Product reads exclude
// soft-deleted rows unless the method says otherwise. Missing rows surface
// as *NotFoundError, unique violations as *ConflictError.
type Repository interface {
	CategoryLookup

	// GetByID returns a non-deleted product with its category attached
	GetByID(ctx context.Context, id int64) (*domain.Product, error)

	// SlugTaken reports whether any product other than exceptID, soft-deleted
	// ones included, already uses slug
	SlugTaken(ctx context.Context, slug string, exceptID int64) (bool, error)

	Create(ctx context.Context, p *domain.Product) error

	// Update writes every client-writable column of p
	Update(ctx context.Context, p *domain.Product) error

	SoftDelete(ctx context.Context, id int64) error

	// Restore clears deleted_at of a soft-deleted product
	Restore(ctx context.Context, id int64) error

	// List returns one page and the total row count for q
	List(ctx context.Context, q ListQuery) ([]*domain.Product, int64, error)

	// EachBatch hands every row matching q, ignoring q.Page, to fn in listing
	// order, size rows at a time
	EachBatch(ctx context.Context, q ListQuery, size int, fn func([]*domain.Product) error) error

	Pricing(ctx context.Context) ([]PricingRow, error)
	CountTrashed(ctx context.Context) (int64, error)

	ListCategories(ctx context.Context) ([]*domain.Category, error)
	GetCategory(ctx context.Context, id int64) (*domain.Category, error)
	CountProducts(ctx context.Context, categoryID int64) (int64, error)
	CreateCategory(ctx context.Context, c *domain.Category) error
	UpdateCategory(ctx context.Context, c *domain.Category) error
	DeleteCategory(ctx context.Context, id int64) error

	AddLog(ctx context.Context, log *domain.CatalogLog) error
}

// GormRepository is the GORM implementation of Repository
type GormRepository struct {
	db *gorm.DB
}

// NewGormRepository creates a new GORM-based repository
func NewGormRepository(db *gorm.DB) *GormRepository {
	return &GormRepository{db: db}
}

var _ Repository = (*GormRepository)(nil)

func (r *GormRepository) CategoryExists(ctx context.Context, id int64) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&domain.Category{}).Where("id = ?", id).Count(&count).Error; err != nil {
		return false, errors.Wrap(err, "count category")
	}
	return count > 0, nil
}

func (r *GormRepository) GetByID(ctx context.Context, id int64) (*domain.Product, error) {
	var p domain.Product
	err := r.db.WithContext(ctx).Preload("Category").Where("id = ?", id).First(&p).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, productNotFound(id)
	}
	if err != nil {
		return nil, errors.Wrapf(err, "query product %d", id)
	}
	return &p, nil
}

func (r *GormRepository) SlugTaken(ctx context.Context, slug string, exceptID int64) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Unscoped().Model(&domain.Product{}).
		Where("slug = ? AND id != ?", slug, exceptID).
		Count(&count).Error
	if err != nil {
		return false, errors.Wrap(err, "count slug")
	}
	return count > 0, nil
}

func (r *GormRepository) Create(ctx context.Context, p *domain.Product) error {
	// the category is referenced by id only
	err := r.db.WithContext(ctx).Omit("Category").Create(p).Error
	return r.translateWriteError(err, p, "create product")
}

func (r *GormRepository) Update(ctx context.Context, p *domain.Product) error {
	result := r.db.WithContext(ctx).Model(p).
		Select("name", "slug", "search_name", "description", "price", "stock", "is_active", "category_id", "updated_at").
		Updates(p)
	if err := r.translateWriteError(result.Error, p, "update product"); err != nil {
		return err
	}
	if result.RowsAffected == 0 {
		return productNotFound(p.ID)
	}
	return nil
}

func (r *GormRepository) translateWriteError(err error, p *domain.Product, op string) error {
	switch {
	case err == nil:
		return nil
	case isDuplicateKey(err):
		return &ConflictError{Field: "slug", Value: p.Slug}
	case isForeignKeyViolation(err):
		ve := &ValidationError{}
		ve.Add("category_id", msgCategoryInvalid)
		return ve
	default:
		return errors.Wrap(err, op)
	}
}

func (r *GormRepository) SoftDelete(ctx context.Context, id int64) error {
	result := r.db.WithContext(ctx).Where("id = ?", id).Delete(&domain.Product{})
	if result.Error != nil {
		return errors.Wrapf(result.Error, "delete product %d", id)
	}
	if result.RowsAffected == 0 {
		return productNotFound(id)
	}
	return nil
}

func (r *GormRepository) Restore(ctx context.Context, id int64) error {
	result := r.db.WithContext(ctx).Unscoped().Model(&domain.Product{}).
		Where("id = ? AND deleted_at IS NOT NULL", id).
		Update("deleted_at", nil)
	if result.Error != nil {
		return errors.Wrapf(result.Error, "restore product %d", id)
	}
	if result.RowsAffected == 0 {
		return productNotFound(id)
	}
	return nil
}

func (r *GormRepository) listQuery(ctx context.Context, q ListQuery) *gorm.DB {
	tx := r.db.WithContext(ctx).Model(&domain.Product{})
	if q.Trashed != TrashedExclude {
		tx = tx.Unscoped()
	}
	return tx.Scopes(q.Scopes()...).Session(&gorm.Session{})
}

func (r *GormRepository) List(ctx context.Context, q ListQuery) ([]*domain.Product, int64, error) {
	q = q.Normalize()
	tx := r.listQuery(ctx, q)

	var total int64
	if err := tx.Count(&total).Error; err != nil {
		return nil, 0, errors.Wrap(err, "count products")
	}

	rows := make([]*domain.Product, 0, PageSize)
	if total == 0 {
		return rows, 0, nil
	}
	err := tx.Preload("Category").
		Order("products.created_at DESC").Order("products.id DESC").
		Offset(q.Offset()).Limit(PageSize).
		Find(&rows).Error
	if err != nil {
		return nil, 0, errors.Wrap(err, "query products")
	}
	return rows, total, nil
}

func (r *GormRepository) EachBatch(ctx context.Context, q ListQuery, size int, fn func([]*domain.Product) error) error {
	q = q.Normalize()
	if size < 1 {
		size = PageSize
	}
	tx := r.listQuery(ctx, q)
	for offset := 0; ; offset += size {
		rows := make([]*domain.Product, 0, size)
		err := tx.Preload("Category").
			Order("products.created_at DESC").Order("products.id DESC").
			Offset(offset).Limit(size).
			Find(&rows).Error
		if err != nil {
			return errors.Wrapf(err, "query products at offset %d", offset)
		}
		if len(rows) == 0 {
			return nil
		}
		if err := fn(rows); err != nil {
			return err
		}
		if len(rows) < size {
			return nil
		}
	}
}

func (r *GormRepository) Pricing(ctx context.Context) ([]PricingRow, error) {
	var rows []PricingRow
	err := r.db.WithContext(ctx).Model(&domain.Product{}).
		Select("price", "stock", "is_active").
		Find(&rows).Error
	if err != nil {
		return nil, errors.Wrap(err, "query pricing")
	}
	return rows, nil
}

func (r *GormRepository) CountTrashed(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Unscoped().Model(&domain.Product{}).
		Where("deleted_at IS NOT NULL").
		Count(&count).Error
	if err != nil {
		return 0, errors.Wrap(err, "count trashed products")
	}
	return count, nil
}

func (r *GormRepository) ListCategories(ctx context.Context) ([]*domain.Category, error) {
	var rows []*domain.Category
	if err := r.db.WithContext(ctx).Order("name ASC").Find(&rows).Error; err != nil {
		return nil, errors.Wrap(err, "query categories")
	}
	return rows, nil
}

func (r *GormRepository) CreateCategory(ctx context.Context, c *domain.Category) error {
	err := r.db.WithContext(ctx).Create(c).Error
	switch {
	case err == nil:
		return nil
	case isDuplicateKey(err):
		return &ConflictError{Field: "slug", Value: c.Slug}
	default:
		return errors.Wrap(err, "create category")
	}
}

func (r *GormRepository) GetCategory(ctx context.Context, id int64) (*domain.Category, error) {
	var c domain.Category
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&c).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, &NotFoundError{Resource: "category", ID: id}
	}
	if err != nil {
		return nil, errors.Wrapf(err, "query category %d", id)
	}
	return &c, nil
}

func (r *GormRepository) CountProducts(ctx context.Context, categoryID int64) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&domain.Product{}).
		Where("category_id = ?", categoryID).
		Count(&count).Error
	if err != nil {
		return 0, errors.Wrapf(err, "count products of category %d", categoryID)
	}
	return count, nil
}

func (r *GormRepository) UpdateCategory(ctx context.Context, c *domain.Category) error {
	result := r.db.WithContext(ctx).Model(c).Select("name", "slug", "updated_at").Updates(c)
	switch {
	case result.Error == nil && result.RowsAffected == 0:
		return &NotFoundError{Resource: "category", ID: c.ID}
	case result.Error == nil:
		return nil
	case isDuplicateKey(result.Error):
		return &ConflictError{Field: "slug", Value: c.Slug}
	default:
		return errors.Wrapf(result.Error, "update category %d", c.ID)
	}
}

func (r *GormRepository) DeleteCategory(ctx context.Context, id int64) error {
	result := r.db.WithContext(ctx).Where("id = ?", id).Delete(&domain.Category{})
	if result.Error != nil {
		return errors.Wrapf(result.Error, "delete category %d", id)
	}
	if result.RowsAffected == 0 {
		return &NotFoundError{Resource: "category", ID: id}
	}
	return nil
}

// BackfillSearchNames fills search_name on rows written before the column
// existed, returns the number of rows touched
func (r *GormRepository) BackfillSearchNames(ctx context.Context) (int, error) {
	var (
		rows    []*domain.Product
		touched int
	)
	err := r.db.WithContext(ctx).Unscoped().Select("id", "name").
		Where("search_name = ? AND name != ?", "", "").
		FindInBatches(&rows, 500, func(_ *gorm.DB, _ int) error {
			for _, p := range rows {
				err := r.db.WithContext(ctx).Unscoped().Model(&domain.Product{}).
					Where("id = ?", p.ID).
					UpdateColumn("search_name", domain.SearchKey(p.Name)).Error
				if err != nil {
					return err
				}
				touched++
			}
			return nil
		}).Error
	if err != nil {
		return touched, errors.Wrap(err, "backfill search names")
	}
	return touched, nil
}

func (r *GormRepository) AddLog(ctx context.Context, log *domain.CatalogLog) error {
	return errors.Wrap(r.db.WithContext(ctx).Create(log).Error, "create catalog log")
}

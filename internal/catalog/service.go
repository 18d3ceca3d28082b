package catalog

import (
	"context"
	"strings"
	"unicode/utf8"

	EventBus "github.com/asaskevich/EventBus"
	"go.uber.org/zap"

	"github.com/talkincode/toughcatalog/internal/domain"
	"github.com/talkincode/toughcatalog/pkg/common"
)

// CopySuffix is appended to the name of a duplicated product
const CopySuffix = " (Copy)"

// Service is the catalog query and mutation entry point used by the admin api
type Service struct {
	repo      Repository
	validator *Validator
	bus       EventBus.BusPublisher
}

type Option func(*Service)

// WithEventBus publishes a ProductEvent after each successful mutation
func WithEventBus(bus EventBus.BusPublisher) Option {
	return func(s *Service) {
		s.bus = bus
	}
}

func NewService(repo Repository, opts ...Option) *Service {
	s := &Service{
		repo:      repo,
		validator: NewValidator(repo),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// List returns one page of products matching q
func (s *Service) List(ctx context.Context, q ListQuery) (*Page, error) {
	q = q.Normalize()
	items, total, err := s.repo.List(ctx, q)
	if err != nil {
		return nil, err
	}
	return newPage(items, total, q.Page), nil
}

// Get returns a non-deleted product with its category
func (s *Service) Get(ctx context.Context, id int64) (*domain.Product, error) {
	return s.repo.GetByID(ctx, id)
}

// Create validates in and stores a new product
func (s *Service) Create(ctx context.Context, in ProductInput) (*domain.Product, error) {
	f, err := s.validator.Validate(ctx, in)
	if err != nil {
		return nil, err
	}

	p := &domain.Product{
		ID:          common.UUIDint64(),
		Name:        f.Name,
		Slug:        Slugify(f.Name),
		Description: f.Description,
		Price:       f.Price,
		Stock:       f.Stock,
		IsActive:    true,
		CategoryID:  f.CategoryID,
	}
	if f.IsActive != nil {
		p.IsActive = *f.IsActive
	}

	if err := s.insert(ctx, p); err != nil {
		return nil, err
	}
	created, err := s.repo.GetByID(ctx, p.ID)
	if err != nil {
		return nil, err
	}
	zap.L().Info("product created",
		zap.String("namespace", "catalog"),
		zap.Int64("id", created.ID),
		zap.String("slug", created.Slug))
	s.publish(ActionCreated, created, 0)
	return created, nil
}

// Update replaces the writable fields of product id with in. The slug is
// derived again when the name changes, is_active is kept when absent.
func (s *Service) Update(ctx context.Context, id int64, in ProductInput) (*domain.Product, error) {
	p, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	f, err := s.validator.Validate(ctx, in)
	if err != nil {
		return nil, err
	}

	if f.Name != p.Name {
		slug := Slugify(f.Name)
		if slug != p.Slug {
			if err := s.ensureSlugFree(ctx, slug, p.ID); err != nil {
				return nil, err
			}
		}
		p.Name = f.Name
		p.Slug = slug
	}
	p.Description = f.Description
	p.Price = f.Price
	p.Stock = f.Stock
	p.CategoryID = f.CategoryID
	if f.IsActive != nil {
		p.IsActive = *f.IsActive
	}

	if err := s.repo.Update(ctx, p); err != nil {
		return nil, err
	}
	updated, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	zap.L().Info("product updated",
		zap.String("namespace", "catalog"),
		zap.Int64("id", id),
		zap.String("slug", updated.Slug))
	s.publish(ActionUpdated, updated, 0)
	return updated, nil
}

// Delete soft-deletes product id. Deleting it again is a *NotFoundError.
func (s *Service) Delete(ctx context.Context, id int64) error {
	p, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if err := s.repo.SoftDelete(ctx, id); err != nil {
		return err
	}
	zap.L().Info("product deleted",
		zap.String("namespace", "catalog"),
		zap.Int64("id", id))
	s.publish(ActionDeleted, p, 0)
	return nil
}

// Restore brings a soft-deleted product back into listings
func (s *Service) Restore(ctx context.Context, id int64) (*domain.Product, error) {
	if err := s.repo.Restore(ctx, id); err != nil {
		return nil, err
	}
	p, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	zap.L().Info("product restored",
		zap.String("namespace", "catalog"),
		zap.Int64("id", id))
	s.publish(ActionRestored, p, 0)
	return p, nil
}

// ToggleActive flips is_active and returns the product in its new state
func (s *Service) ToggleActive(ctx context.Context, id int64) (*domain.Product, error) {
	p, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	p.IsActive = !p.IsActive
	if err := s.repo.Update(ctx, p); err != nil {
		return nil, err
	}
	zap.L().Info("product active state toggled",
		zap.String("namespace", "catalog"),
		zap.Int64("id", id),
		zap.Bool("is_active", p.IsActive))
	s.publish(ActionToggled, p, 0)
	return p, nil
}

// Duplicate stores a copy of product id named "<name> (Copy)"
func (s *Service) Duplicate(ctx context.Context, id int64) (*domain.Product, error) {
	src, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	name := src.Name + CopySuffix
	if utf8.RuneCountInString(name) > maxNameLength {
		ve := &ValidationError{}
		ve.Add("name", ruleMessage("name", "max", "255"))
		return nil, ve
	}

	var description *string
	if src.Description != nil {
		d := *src.Description
		description = &d
	}
	p := &domain.Product{
		ID:          common.UUIDint64(),
		Name:        name,
		Slug:        Slugify(name),
		Description: description,
		Price:       src.Price,
		Stock:       src.Stock,
		IsActive:    src.IsActive,
		CategoryID:  src.CategoryID,
	}
	if err := s.insert(ctx, p); err != nil {
		return nil, err
	}
	dup, err := s.repo.GetByID(ctx, p.ID)
	if err != nil {
		return nil, err
	}
	zap.L().Info("product duplicated",
		zap.String("namespace", "catalog"),
		zap.Int64("source_id", id),
		zap.Int64("id", dup.ID))
	s.publish(ActionDuplicated, dup, id)
	return dup, nil
}

func (s *Service) insert(ctx context.Context, p *domain.Product) error {
	if err := s.ensureSlugFree(ctx, p.Slug, p.ID); err != nil {
		return err
	}
	return s.repo.Create(ctx, p)
}

// ensureSlugFree is the early check, the unique index still decides races
func (s *Service) ensureSlugFree(ctx context.Context, slug string, exceptID int64) error {
	taken, err := s.repo.SlugTaken(ctx, slug, exceptID)
	if err != nil {
		return err
	}
	if taken {
		return &ConflictError{Field: "slug", Value: slug}
	}
	return nil
}

// Categories lists categories by name, for product forms
func (s *Service) Categories(ctx context.Context) ([]*domain.Category, error) {
	return s.repo.ListCategories(ctx)
}

func validateCategoryName(name string) (string, error) {
	name = strings.TrimSpace(name)
	ve := &ValidationError{}
	switch {
	case name == "":
		ve.Add("name", ruleMessage("name", "required", ""))
	case utf8.RuneCountInString(name) > maxNameLength:
		ve.Add("name", ruleMessage("name", "max", "255"))
	case Slugify(name) == "":
		ve.Add("name", "The name must contain at least one letter or digit.")
	}
	if !ve.Empty() {
		return "", ve
	}
	return name, nil
}

// CreateCategory stores a category, its slug must be unused
func (s *Service) CreateCategory(ctx context.Context, name string) (*domain.Category, error) {
	name, err := validateCategoryName(name)
	if err != nil {
		return nil, err
	}

	c := &domain.Category{
		ID:   common.UUIDint64(),
		Name: name,
		Slug: Slugify(name),
	}
	if err := s.repo.CreateCategory(ctx, c); err != nil {
		return nil, err
	}
	zap.L().Info("category created",
		zap.String("namespace", "catalog"),
		zap.Int64("id", c.ID),
		zap.String("slug", c.Slug))
	return c, nil
}

// CategoryDetail a category with the number of its non-deleted products
type CategoryDetail struct {
	*domain.Category
	ProductsCount int64 `json:"products_count"`
}

func (s *Service) GetCategory(ctx context.Context, id int64) (*CategoryDetail, error) {
	c, err := s.repo.GetCategory(ctx, id)
	if err != nil {
		return nil, err
	}
	n, err := s.repo.CountProducts(ctx, id)
	if err != nil {
		return nil, err
	}
	return &CategoryDetail{Category: c, ProductsCount: n}, nil
}

// RenameCategory changes name and slug, the new slug must be unused
func (s *Service) RenameCategory(ctx context.Context, id int64, name string) (*domain.Category, error) {
	c, err := s.repo.GetCategory(ctx, id)
	if err != nil {
		return nil, err
	}
	name, err = validateCategoryName(name)
	if err != nil {
		return nil, err
	}
	c.Name = name
	c.Slug = Slugify(name)
	if err := s.repo.UpdateCategory(ctx, c); err != nil {
		return nil, err
	}
	zap.L().Info("category renamed",
		zap.String("namespace", "catalog"),
		zap.Int64("id", c.ID),
		zap.String("slug", c.Slug))
	return c, nil
}

// DeleteCategory removes a category, the database cascades to its products
func (s *Service) DeleteCategory(ctx context.Context, id int64) error {
	if err := s.repo.DeleteCategory(ctx, id); err != nil {
		return err
	}
	zap.L().Warn("category deleted with its products",
		zap.String("namespace", "catalog"),
		zap.Int64("id", id))
	return nil
}

// StockCheck answer of CheckStock
type StockCheck struct {
	ProductID   int64  `json:"product_id,string"`
	Requested   int    `json:"requested"`
	Stock       int    `json:"stock"`
	Available   bool   `json:"available"`
	StockStatus string `json:"stock_status"`
}

// CheckStock reports whether quantity units of an active product can be
// taken from stock. Inactive products are never available.
func (s *Service) CheckStock(ctx context.Context, id int64, quantity int) (*StockCheck, error) {
	if quantity < 1 {
		ve := &ValidationError{}
		ve.Add("quantity", ruleMessage("quantity", "gte", "1"))
		return nil, ve
	}
	p, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return &StockCheck{
		ProductID:   p.ID,
		Requested:   quantity,
		Stock:       p.Stock,
		Available:   p.IsActive && p.Stock >= quantity,
		StockStatus: StockStatus(p.Stock),
	}, nil
}

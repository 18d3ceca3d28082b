package app

import (
	"context"

	"go.uber.org/zap"

	"github.com/talkincode/toughcatalog/internal/catalog"
	"github.com/talkincode/toughcatalog/internal/domain"
	"github.com/talkincode/toughcatalog/pkg/common"
)

var defaultCategories = []string{
	"Elektronik",
	"Fashion",
	"Makanan & Minuman",
	"Rumah Tangga",
	"Olahraga",
}

// checkCategories initializes the default categories on an empty database
func (a *Application) checkCategories() {
	var count int64
	if err := a.gormDB.Model(&domain.Category{}).Count(&count).Error; err != nil {
		zap.L().Error("failed to count categories", zap.Error(err))
		return
	}
	if count > 0 {
		return
	}

	for _, name := range defaultCategories {
		c := domain.Category{
			ID:   common.UUIDint64(),
			Name: name,
			Slug: catalog.Slugify(name),
		}
		if err := a.gormDB.Create(&c).Error; err != nil {
			zap.L().Error("failed to create default category", zap.String("name", name), zap.Error(err))
		} else {
			zap.L().Info("initialized default category", zap.String("name", name))
		}
	}
}

type demoProduct struct {
	category string
	input    catalog.ProductInput
}

// checkProducts initializes demo products on an empty catalog. They go
// through the catalog service so they are validated and audited.
func (a *Application) checkProducts() {
	var count int64
	if err := a.gormDB.Unscoped().Model(&domain.Product{}).Count(&count).Error; err != nil {
		zap.L().Error("failed to count products", zap.Error(err))
		return
	}
	if count > 0 {
		return
	}

	var categories []domain.Category
	if err := a.gormDB.Find(&categories).Error; err != nil {
		zap.L().Error("failed to query categories", zap.Error(err))
		return
	}
	byName := make(map[string]int64, len(categories))
	for _, c := range categories {
		byName[c.Name] = c.ID
	}

	demos := []demoProduct{
		{"Elektronik", catalog.ProductInput{Name: "Laptop Gaming X1", Price: "15000000", Stock: "12", Description: "Laptop gaming 15 inci"}},
		{"Elektronik", catalog.ProductInput{Name: "Mouse Wireless", Price: "150000", Stock: "4"}},
		{"Fashion", catalog.ProductInput{Name: "Kaos Polos Hitam", Price: "75000", Stock: "0"}},
		{"Rumah Tangga", catalog.ProductInput{Name: "Wajan Anti Lengket", Price: "120000", Stock: "40", IsActive: "0"}},
	}

	ctx := context.Background()
	for _, d := range demos {
		id, ok := byName[d.category]
		if !ok {
			continue
		}
		d.input.CategoryID = id
		p, err := a.catalog.Create(ctx, d.input)
		if err != nil {
			zap.L().Error("failed to create demo product", zap.Any("name", d.input.Name), zap.Error(err))
			continue
		}
		zap.L().Info("initialized demo product", zap.String("name", p.Name), zap.String("slug", p.Slug))
	}
}

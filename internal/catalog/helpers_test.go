package catalog

import (
	"context"
	"fmt"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/talkincode/toughcatalog/internal/domain"
	"github.com/talkincode/toughcatalog/pkg/common"
)

// setupTestDB creates an in-memory SQLite database with foreign keys on
func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:?_foreign_keys=1"), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	// every pooled connection would get its own empty memory database
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, db.AutoMigrate(domain.Tables...))
	return db
}

func setupService(t *testing.T, opts ...Option) (*Service, *GormRepository, *gorm.DB) {
	t.Helper()
	db := setupTestDB(t)
	repo := NewGormRepository(db)
	return NewService(repo, opts...), repo, db
}

func seedCategory(t *testing.T, db *gorm.DB, name string) *domain.Category {
	t.Helper()
	c := &domain.Category{ID: common.UUIDint64(), Name: name, Slug: Slugify(name)}
	require.NoError(t, db.Create(c).Error)
	return c
}

func seedProduct(t *testing.T, db *gorm.DB, cat *domain.Category, name string, price string, stock int, active bool) *domain.Product {
	t.Helper()
	p := &domain.Product{
		ID:         common.UUIDint64(),
		Name:       name,
		Slug:       Slugify(name),
		Price:      decimal.RequireFromString(price),
		Stock:      stock,
		IsActive:   active,
		CategoryID: cat.ID,
	}
	require.NoError(t, db.Omit("Category").Create(p).Error)
	return p
}

func input(name string, price, stock, categoryID interface{}) ProductInput {
	return ProductInput{
		Name:       name,
		Price:      price,
		Stock:      stock,
		CategoryID: categoryID,
	}
}

func catID(c *domain.Category) string {
	return fmt.Sprintf("%d", c.ID)
}

func mustDecimal(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

var bg = context.Background()

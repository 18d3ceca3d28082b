package app

import (
	EventBus "github.com/asaskevich/EventBus"
	"gorm.io/gorm"

	"github.com/talkincode/toughcatalog/config"
	"github.com/talkincode/toughcatalog/internal/catalog"
)

// DBProvider provides database access
type DBProvider interface {
	DB() *gorm.DB
}

// ConfigProvider provides application configuration
type ConfigProvider interface {
	Config() *config.AppConfig
}

// CatalogProvider provides the catalog service
type CatalogProvider interface {
	Catalog() *catalog.Service
}

// EventBusProvider provides the in-process event bus
type EventBusProvider interface {
	Bus() EventBus.Bus
}

// AppContext combines all provider interfaces for full application context
// Handlers should depend on specific providers or this combined interface
type AppContext interface {
	DBProvider
	ConfigProvider
	CatalogProvider
	EventBusProvider

	MigrateDB(track bool) error
}

package app

import (
	"context"
	"os"
	"runtime/debug"
	"time"
	_ "time/tzdata"

	EventBus "github.com/asaskevich/EventBus"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
	"gorm.io/gorm"

	"github.com/talkincode/toughcatalog/config"
	"github.com/talkincode/toughcatalog/internal/catalog"
	"github.com/talkincode/toughcatalog/internal/domain"
	"github.com/talkincode/toughcatalog/pkg/common"
)

type Application struct {
	appConfig *config.AppConfig
	gormDB    *gorm.DB
	bus       EventBus.Bus
	catalog   *catalog.Service
}

// Ensure Application implements all interfaces
var (
	_ DBProvider       = (*Application)(nil)
	_ ConfigProvider   = (*Application)(nil)
	_ CatalogProvider  = (*Application)(nil)
	_ EventBusProvider = (*Application)(nil)
	_ AppContext       = (*Application)(nil)
)

func NewApplication(appConfig *config.AppConfig) *Application {
	return &Application{appConfig: appConfig}
}

func (a *Application) Config() *config.AppConfig {
	return a.appConfig
}

func (a *Application) DB() *gorm.DB {
	return a.gormDB
}

func (a *Application) Bus() EventBus.Bus {
	return a.bus
}

func (a *Application) Catalog() *catalog.Service {
	return a.catalog
}

// OverrideDB replaces the application's database handle (used in tests).
// The catalog service is rebuilt on top of it.
func (a *Application) OverrideDB(db *gorm.DB) {
	a.gormDB = db
	a.wireCatalog()
}

// InitDB sets up timezone, logger, node id and the database handle only.
// Nothing is migrated or written.
func (a *Application) InitDB(cfg *config.AppConfig) {
	loc, err := time.LoadLocation(cfg.System.Location)
	if err != nil {
		zap.S().Error("timezone config error")
	} else {
		time.Local = loc
	}

	initLogger(cfg)
	common.SetNodeID(cfg.System.NodeID)

	a.gormDB = getDatabase(cfg.Database, cfg.System.Workdir)
}

func (a *Application) Init(cfg *config.AppConfig) {
	a.InitDB(cfg)

	if err := a.MigrateDB(false); err != nil {
		zap.S().Errorf("database migration failed: %v", err)
	}

	a.wireCatalog()

	a.checkCategories()
	if cfg.System.SeedDemo {
		a.checkProducts()
	}
}

func initLogger(cfg *config.AppConfig) {
	var zapConfig zap.Config
	if cfg.Logger.Mode == "production" {
		zapConfig = zap.NewProductionConfig()
	} else {
		zapConfig = zap.NewDevelopmentConfig()
	}
	zapConfig.OutputPaths = []string{"stdout"}

	var logger *zap.Logger
	if cfg.Logger.FileEnable {
		lumberJackLogger := &lumberjack.Logger{
			Filename:   cfg.Logger.Filename,
			MaxSize:    64,
			MaxBackups: 7,
			MaxAge:     7,
			Compress:   false,
		}

		core := zapcore.NewTee(
			zapcore.NewCore(
				zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig()),
				zapcore.AddSync(lumberJackLogger),
				zapConfig.Level,
			),
			zapcore.NewCore(
				zapcore.NewConsoleEncoder(zap.NewDevelopmentEncoderConfig()),
				zapcore.AddSync(os.Stdout),
				zapConfig.Level,
			),
		)
		logger = zap.New(core, zap.AddCaller())
	} else {
		var err error
		logger, err = zapConfig.Build(zap.AddCaller())
		if err != nil {
			panic(err)
		}
	}

	zap.ReplaceGlobals(logger)
}

// wireCatalog builds the event bus, the audit subscriber and the catalog
// service over the current database handle
func (a *Application) wireCatalog() {
	a.bus = EventBus.New()
	repo := catalog.NewGormRepository(a.gormDB)
	if err := a.bus.Subscribe(catalog.TopicProductChanged, newAuditWriter(repo).Handle); err != nil {
		zap.L().Error("subscribe audit writer failed", zap.Error(err))
	}
	a.catalog = catalog.NewService(repo, catalog.WithEventBus(a.bus))
}

func (a *Application) MigrateDB(track bool) (err error) {
	defer func() {
		if err1 := recover(); err1 != nil {
			if os.Getenv("GO_DEGUB_TRACE") != "" {
				debug.PrintStack()
			}
			err2, ok := err1.(error)
			if ok {
				err = err2
				zap.S().Error(err2.Error())
			}
		}
	}()
	db := a.gormDB
	if track {
		db = db.Debug()
	}
	if err = db.Migrator().AutoMigrate(domain.Tables...); err != nil {
		return err
	}
	n, err := catalog.NewGormRepository(db).BackfillSearchNames(context.Background())
	if n > 0 {
		zap.L().Info("product search names backfilled", zap.String("namespace", "app"), zap.Int("rows", n))
	}
	return err
}

// Release releases application resources
func (a *Application) Release() {
	if a.gormDB != nil {
		if sqlDB, err := a.gormDB.DB(); err == nil {
			_ = sqlDB.Close()
		}
	}
	_ = zap.L().Sync()
}

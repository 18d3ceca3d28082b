package app

import (
	"fmt"
	"path"
	"time"

	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/talkincode/toughcatalog/config"
)

// getDatabase opens the configured database, it panics when the connection
// cannot be established
func getDatabase(cfg config.DBConfig, workdir string) *gorm.DB {
	gormConfig := &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
		NowFunc: func() time.Time {
			return time.Now()
		},
	}
	if cfg.Debug {
		gormConfig.Logger = logger.Default.LogMode(logger.Info)
	}

	var dialector gorm.Dialector
	switch cfg.Type {
	case "postgres":
		dsn := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=disable",
			cfg.Host, cfg.Port, cfg.User, cfg.Passwd, cfg.Name)
		dialector = postgres.Open(dsn)
	case "sqlite", "":
		dialector = sqlite.Open(sqliteDSN(cfg.Name, workdir))
	default:
		panic(fmt.Sprintf("unsupported database type %q", cfg.Type))
	}

	db, err := gorm.Open(dialector, gormConfig)
	if err != nil {
		panic(err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		panic(err)
	}

	if cfg.Type == "postgres" {
		sqlDB.SetMaxOpenConns(cfg.MaxConn)
		sqlDB.SetMaxIdleConns(cfg.IdleConn)
		sqlDB.SetConnMaxLifetime(time.Hour)
	} else {
		// a single writer avoids SQLITE_BUSY under concurrent requests
		sqlDB.SetMaxOpenConns(1)
	}

	zap.L().Info("database connected",
		zap.String("namespace", "app"),
		zap.String("type", db.Dialector.Name()))
	return db
}

// sqliteDSN places relative database names under the data directory and
// turns on foreign keys, which the category cascade depends on
func sqliteDSN(name, workdir string) string {
	if name == "" {
		name = "toughcatalog.db"
	}
	if name != ":memory:" && !path.IsAbs(name) {
		name = path.Join(workdir, "data", name)
	}
	return name + "?_foreign_keys=1&_busy_timeout=5000"
}

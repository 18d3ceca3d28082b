package adminapi

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/talkincode/toughcatalog/internal/domain"
	"github.com/talkincode/toughcatalog/internal/webserver"
)

// TableInfo row count of one catalog table
type TableInfo struct {
	Name       string `json:"name"`
	RowCount   int64  `json:"row_count"`
	PrimaryKey string `json:"primary_key,omitempty"`
}

// Init registers every admin api route, webserver.Init must run first
func Init() {
	registerSystemRoutes()
	registerCategoryRoutes()
	registerProductRoutes()
}

func registerSystemRoutes() {
	webserver.ApiGET("/system/health", health)
	webserver.ApiGET("/system/tables", listTables)
}

func health(c echo.Context) error {
	sqlDB, err := GetDB(c).DB()
	if err == nil {
		err = sqlDB.PingContext(c.Request().Context())
	}
	if err != nil {
		return fail(c, http.StatusServiceUnavailable, "DATABASE_ERROR", "Database unavailable", err.Error())
	}
	return ok(c, map[string]interface{}{
		"status":   "ok",
		"appid":    GetAppContext(c).Config().System.Appid,
		"database": GetDB(c).Dialector.Name(),
		"time":     time.Now().Format(time.RFC3339),
	})
}

// listTables reports the migrated catalog tables, soft-deleted rows included
// in the counts
func listTables(c echo.Context) error {
	db := GetDB(c).WithContext(c.Request().Context())
	tables := make([]TableInfo, 0, len(domain.Tables))
	for _, model := range domain.Tables {
		stmt := &gorm.Statement{DB: db}
		if err := stmt.Parse(model); err != nil {
			return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to parse table model", err.Error())
		}
		info := TableInfo{Name: stmt.Schema.Table}
		if f := stmt.Schema.PrioritizedPrimaryField; f != nil {
			info.PrimaryKey = f.DBName
		}
		if !db.Migrator().HasTable(info.Name) {
			continue
		}
		if err := db.Table(info.Name).Count(&info.RowCount).Error; err != nil {
			return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to count table rows", err.Error())
		}
		tables = append(tables, info)
	}
	return ok(c, tables)
}

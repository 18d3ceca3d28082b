package adminapi

import (
	"math"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/talkincode/toughcatalog/internal/app"
	"github.com/talkincode/toughcatalog/internal/catalog"
	"github.com/talkincode/toughcatalog/internal/webserver"
	"github.com/talkincode/toughcatalog/pkg/common"
)

// Response success envelope
type Response struct {
	Code int         `json:"code"`
	Data interface{} `json:"data"`
	Meta *PageMeta   `json:"meta,omitempty"`
}

// PageMeta pagination block of a paged response
type PageMeta struct {
	Total    int64 `json:"total"`
	Page     int   `json:"page"`
	PageSize int   `json:"page_size"`
	LastPage int   `json:"last_page"`
	From     int   `json:"from"`
	To       int   `json:"to"`
}

// ErrorResponse failure envelope
type ErrorResponse struct {
	Code    string      `json:"code"`
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
}

func ok(c echo.Context, data interface{}) error {
	return c.JSON(http.StatusOK, Response{Code: 0, Data: data})
}

func created(c echo.Context, data interface{}) error {
	return c.JSON(http.StatusCreated, Response{Code: 0, Data: data})
}

func fail(c echo.Context, status int, code, message string, details interface{}) error {
	return c.JSON(status, ErrorResponse{Code: code, Message: message, Details: details})
}

func paged(c echo.Context, data interface{}, p *catalog.Page) error {
	return c.JSON(http.StatusOK, Response{Code: 0, Data: data, Meta: &PageMeta{
		Total:    p.Total,
		Page:     p.CurrentPage,
		PageSize: p.PerPage,
		LastPage: p.LastPage,
		From:     p.From,
		To:       p.To,
	}})
}

// GetAppContext returns the application context attached by the web server
func GetAppContext(c echo.Context) app.AppContext {
	return c.Get(webserver.AppContextKey).(app.AppContext)
}

func GetDB(c echo.Context) *gorm.DB {
	return GetAppContext(c).DB()
}

func getCatalog(c echo.Context) *catalog.Service {
	return GetAppContext(c).Catalog()
}

func parseIDParam(c echo.Context, name string) (int64, error) {
	id, err := common.ParseInt64(c.Param(name))
	if err != nil {
		return 0, err
	}
	if id <= 0 {
		return 0, errors.Errorf("invalid %s %d", name, id)
	}
	return id, nil
}

// parsePagination reads page, values below 1 become 1
func parsePagination(c echo.Context) int {
	page, err := common.ParseInt64(c.QueryParam("page"))
	if err != nil || page < 1 || page > math.MaxInt32 {
		return 1
	}
	return int(page)
}

// handleValidationError renders go-playground struct errors as field reasons
func handleValidationError(c echo.Context, err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Invalid request parameters", err.Error())
	}
	fields := make(map[string][]string, len(verrs))
	for _, fe := range verrs {
		field := strings.ToLower(fe.Field())
		fields[field] = append(fields[field], "The "+field+" field failed the "+fe.Tag()+" rule.")
	}
	return fail(c, http.StatusUnprocessableEntity, "VALIDATION_FAILED", "The given data was invalid.", fields)
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

// handleServiceError maps catalog errors onto statuses, anything untyped is
// a storage failure
func handleServiceError(c echo.Context, err error, action string) error {
	var (
		ve *catalog.ValidationError
		ne *catalog.NotFoundError
		ce *catalog.ConflictError
	)
	switch {
	case errors.As(err, &ve):
		zap.L().Debug("catalog validation failed",
			zap.String("namespace", "adminapi"),
			zap.String("action", action),
			zap.Any("fields", ve.Fields))
		return fail(c, http.StatusUnprocessableEntity, "VALIDATION_FAILED", "The given data was invalid.", ve.Fields)
	case errors.As(err, &ne):
		return fail(c, http.StatusNotFound, "NOT_FOUND", capitalize(ne.Resource)+" not found", ne)
	case errors.As(err, &ce):
		zap.L().Info("catalog conflict",
			zap.String("namespace", "adminapi"),
			zap.String("action", action),
			zap.String("field", ce.Field),
			zap.String("value", ce.Value))
		return fail(c, http.StatusConflict, "CONFLICT", "The "+ce.Field+" has already been taken.", ce)
	default:
		zap.L().Error("catalog storage failure",
			zap.String("namespace", "adminapi"),
			zap.String("action", action),
			zap.Error(err))
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to "+action, err.Error())
	}
}

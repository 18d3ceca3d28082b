package adminapi

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/talkincode/toughcatalog/internal/webserver"
)

type categoryPayload struct {
	Name string `json:"name" form:"name" validate:"required,max=255"`
}

func registerCategoryRoutes() {
	webserver.ApiGET("/catalog/categories", listCategories)
	webserver.ApiPOST("/catalog/categories", createCategory)
	webserver.ApiGET("/catalog/categories/:id", getCategory)
	webserver.ApiPUT("/catalog/categories/:id", updateCategory)
	webserver.ApiDELETE("/catalog/categories/:id", deleteCategory)
}

func listCategories(c echo.Context) error {
	rows, err := getCatalog(c).Categories(c.Request().Context())
	if err != nil {
		return handleServiceError(c, err, "query categories")
	}
	return ok(c, rows)
}

func createCategory(c echo.Context) error {
	var payload categoryPayload
	if err := c.Bind(&payload); err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Unable to parse category", nil)
	}
	if err := c.Validate(&payload); err != nil {
		return handleValidationError(c, err)
	}
	cat, err := getCatalog(c).CreateCategory(c.Request().Context(), payload.Name)
	if err != nil {
		return handleServiceError(c, err, "create category")
	}
	return created(c, cat)
}

func getCategory(c echo.Context) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_ID", "Invalid category ID", nil)
	}
	cat, err := getCatalog(c).GetCategory(c.Request().Context(), id)
	if err != nil {
		return handleServiceError(c, err, "query category")
	}
	return ok(c, cat)
}

func updateCategory(c echo.Context) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_ID", "Invalid category ID", nil)
	}
	var payload categoryPayload
	if err := c.Bind(&payload); err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Unable to parse category", nil)
	}
	if err := c.Validate(&payload); err != nil {
		return handleValidationError(c, err)
	}
	cat, err := getCatalog(c).RenameCategory(c.Request().Context(), id, payload.Name)
	if err != nil {
		return handleServiceError(c, err, "update category")
	}
	return ok(c, cat)
}

// deleteCategory removes the category and, through the foreign key, its products
func deleteCategory(c echo.Context) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_ID", "Invalid category ID", nil)
	}
	if err := getCatalog(c).DeleteCategory(c.Request().Context(), id); err != nil {
		return handleServiceError(c, err, "delete category")
	}
	return ok(c, map[string]interface{}{"id": id})
}

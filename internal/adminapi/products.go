package adminapi

import (
	"bytes"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/spf13/cast"

	"github.com/talkincode/toughcatalog/internal/catalog"
	"github.com/talkincode/toughcatalog/internal/domain"
	"github.com/talkincode/toughcatalog/internal/webserver"
	"github.com/talkincode/toughcatalog/pkg/common"
)

// route names the client navigates to after a mutation
const (
	routeIndex = "products.index"
	routeShow  = "products.show"
	routeEdit  = "products.edit"
	routeBack  = "back"
)

// mutationResult body of every successful product mutation
type mutationResult struct {
	Message  string               `json:"message"`
	Redirect string               `json:"redirect"`
	Product  *catalog.ProductView `json:"product,omitempty"`
}

// flexibleID takes a product id sent as a JSON string or a bare number. The
// number text is kept as is, snowflake ids do not survive a float.
type flexibleID string

func (f *flexibleID) UnmarshalJSON(b []byte) error {
	s := strings.TrimSpace(string(b))
	if unquoted, err := strconv.Unquote(s); err == nil {
		s = unquoted
	} else if s == "null" {
		s = ""
	}
	*f = flexibleID(s)
	return nil
}

type stockCheckPayload struct {
	ProductID flexibleID `json:"product_id" form:"product_id" validate:"required,numeric"`
	Quantity  int    `json:"quantity" form:"quantity" validate:"required,min=1"`
}

// registerProductRoutes registers catalog product endpoints
func registerProductRoutes() {
	webserver.ApiGET("/catalog/products", listProducts)
	webserver.ApiGET("/catalog/products/summary", productSummary)
	webserver.ApiGET("/catalog/products/export", exportProducts)
	webserver.ApiGET("/catalog/products/search", searchProducts)
	webserver.ApiPOST("/catalog/products/check-stock", checkStock)
	webserver.ApiGET("/catalog/products/:id", getProduct)
	webserver.ApiPOST("/catalog/products", createProduct)
	webserver.ApiPUT("/catalog/products/:id", updateProduct)
	webserver.ApiDELETE("/catalog/products/:id", deleteProduct)
	webserver.ApiPATCH("/catalog/products/:id/toggle-active", toggleProductActive)
	webserver.ApiPOST("/catalog/products/:id/duplicate", duplicateProduct)
	webserver.ApiPOST("/catalog/products/:id/restore", restoreProduct)
}

// parseListQuery reads listing filters, q is accepted as an alias of search
func parseListQuery(c echo.Context) (catalog.ListQuery, error) {
	q := catalog.ListQuery{
		Search:  c.QueryParam("search"),
		Trashed: catalog.ParseTrashed(c.QueryParam("trashed")),
		Page:    parsePagination(c),
	}
	if q.Search == "" {
		q.Search = c.QueryParam("q")
	}
	if v := c.QueryParam("category_id"); !common.IsEmptyOrNA(v) {
		id, err := common.ParseInt64(v)
		if err != nil {
			return q, errors.New("category_id must be an integer")
		}
		q.CategoryID = id
	}
	q.ActiveOnly = queryBool(c, "active_only")
	q.InStock = queryBool(c, "in_stock")

	var err error
	if q.MinPrice, err = queryDecimal(c, "min_price"); err != nil {
		return q, err
	}
	if q.MaxPrice, err = queryDecimal(c, "max_price"); err != nil {
		return q, err
	}
	return q, nil
}

// queryBool accepts 1/true/on style flags, anything unparsable is false
func queryBool(c echo.Context, name string) bool {
	v := strings.ToLower(strings.TrimSpace(c.QueryParam(name)))
	if v == "on" || v == "yes" {
		return true
	}
	return cast.ToBool(v)
}

func queryDecimal(c echo.Context, name string) (*decimal.Decimal, error) {
	v := strings.TrimSpace(c.QueryParam(name))
	if v == "" {
		return nil, nil
	}
	d, err := decimal.NewFromString(v)
	if err != nil {
		return nil, errors.Errorf("%s must be a number", name)
	}
	return &d, nil
}

// readProductInput decodes a JSON or form body into the allowlisted input
func readProductInput(c echo.Context) (catalog.ProductInput, error) {
	var raw map[string]interface{}
	ctype := c.Request().Header.Get(echo.HeaderContentType)
	if strings.HasPrefix(ctype, echo.MIMEApplicationJSON) {
		m, err := webserver.DecodeJSONMap(c)
		if err != nil {
			return catalog.ProductInput{}, err
		}
		raw = m
	} else {
		form, err := c.FormParams()
		if err != nil {
			return catalog.ProductInput{}, err
		}
		raw = make(map[string]interface{}, len(form))
		for k, v := range form {
			if len(v) > 0 {
				raw[k] = v[0]
			}
		}
	}
	return catalog.DecodeInput(raw)
}

func productView(p *domain.Product) *catalog.ProductView {
	v := catalog.NewProductView(p)
	return &v
}

func listProducts(c echo.Context) error {
	q, err := parseListQuery(c)
	if err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", err.Error(), nil)
	}
	page, err := getCatalog(c).List(c.Request().Context(), q)
	if err != nil {
		return handleServiceError(c, err, "query products")
	}
	return paged(c, page.Views(), page)
}

// searchProducts is the lightweight lookup behind search-as-you-type
// inputs: first page of active products only.
func searchProducts(c echo.Context) error {
	term := strings.TrimSpace(c.QueryParam("q"))
	if term == "" {
		return ok(c, []catalog.ProductView{})
	}
	page, err := getCatalog(c).List(c.Request().Context(), catalog.ListQuery{Search: term, ActiveOnly: true})
	if err != nil {
		return handleServiceError(c, err, "search products")
	}
	return ok(c, page.Views())
}

func checkStock(c echo.Context) error {
	var payload stockCheckPayload
	if err := c.Bind(&payload); err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Unable to parse stock check", nil)
	}
	if err := c.Validate(&payload); err != nil {
		return handleValidationError(c, err)
	}
	id, err := common.ParseInt64(string(payload.ProductID))
	if err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_ID", "Invalid product ID", nil)
	}
	res, err := getCatalog(c).CheckStock(c.Request().Context(), id, payload.Quantity)
	if err != nil {
		return handleServiceError(c, err, "check stock")
	}
	return ok(c, res)
}

func productSummary(c echo.Context) error {
	sum, err := getCatalog(c).Summary(c.Request().Context())
	if err != nil {
		return handleServiceError(c, err, "summarize products")
	}
	return ok(c, sum)
}

func exportProducts(c echo.Context) error {
	q, err := parseListQuery(c)
	if err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", err.Error(), nil)
	}
	format, err := catalog.ParseExportFormat(c.QueryParam("format"))
	if err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", err.Error(), nil)
	}

	var buf bytes.Buffer
	if _, err := getCatalog(c).Export(c.Request().Context(), q, format, &buf); err != nil {
		return handleServiceError(c, err, "export products")
	}

	ctype := "text/csv; charset=utf-8"
	if format == catalog.ExportXLSX {
		ctype = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	}
	filename := fmt.Sprintf("products-%s.%s", time.Now().Format("20060102-150405"), format)
	c.Response().Header().Set(echo.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", filename))
	return c.Blob(http.StatusOK, ctype, buf.Bytes())
}

func getProduct(c echo.Context) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_ID", "Invalid product ID", nil)
	}
	p, err := getCatalog(c).Get(c.Request().Context(), id)
	if err != nil {
		return handleServiceError(c, err, "query product")
	}
	return ok(c, productView(p))
}

func createProduct(c echo.Context) error {
	in, err := readProductInput(c)
	if err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Unable to parse product", nil)
	}
	p, err := getCatalog(c).Create(c.Request().Context(), in)
	if err != nil {
		return handleServiceError(c, err, "create product")
	}
	return created(c, mutationResult{
		Message:  "Product created successfully.",
		Redirect: routeShow,
		Product:  productView(p),
	})
}

func updateProduct(c echo.Context) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_ID", "Invalid product ID", nil)
	}
	in, err := readProductInput(c)
	if err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Unable to parse product", nil)
	}
	p, err := getCatalog(c).Update(c.Request().Context(), id, in)
	if err != nil {
		return handleServiceError(c, err, "update product")
	}
	return ok(c, mutationResult{
		Message:  "Product updated successfully.",
		Redirect: routeShow,
		Product:  productView(p),
	})
}

func deleteProduct(c echo.Context) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_ID", "Invalid product ID", nil)
	}
	if err := getCatalog(c).Delete(c.Request().Context(), id); err != nil {
		return handleServiceError(c, err, "delete product")
	}
	return ok(c, mutationResult{
		Message:  "Product deleted successfully.",
		Redirect: routeIndex,
	})
}

func toggleProductActive(c echo.Context) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_ID", "Invalid product ID", nil)
	}
	p, err := getCatalog(c).ToggleActive(c.Request().Context(), id)
	if err != nil {
		return handleServiceError(c, err, "toggle product")
	}
	state := "deactivated"
	if p.IsActive {
		state = "activated"
	}
	return ok(c, mutationResult{
		Message:  "Product " + state + " successfully.",
		Redirect: routeBack,
		Product:  productView(p),
	})
}

func duplicateProduct(c echo.Context) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_ID", "Invalid product ID", nil)
	}
	p, err := getCatalog(c).Duplicate(c.Request().Context(), id)
	if err != nil {
		return handleServiceError(c, err, "duplicate product")
	}
	return created(c, mutationResult{
		Message:  "Product duplicated successfully.",
		Redirect: routeEdit,
		Product:  productView(p),
	})
}

func restoreProduct(c echo.Context) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_ID", "Invalid product ID", nil)
	}
	p, err := getCatalog(c).Restore(c.Request().Context(), id)
	if err != nil {
		return handleServiceError(c, err, "restore product")
	}
	return ok(c, mutationResult{
		Message:  "Product restored successfully.",
		Redirect: routeShow,
		Product:  productView(p),
	})
}

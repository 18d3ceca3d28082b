package webserver

import (
	"net/http"

	jsoniter "github.com/json-iterator/go"
	"github.com/labstack/echo/v4"
)

// json keeps numbers as json.Number so ids and prices survive decoding
var json = jsoniter.Config{
	EscapeHTML:             true,
	SortMapKeys:            true,
	ValidateJsonRawMessage: true,
	UseNumber:              true,
}.Froze()

// JSONSerializer echo serializer backed by json-iterator
type JSONSerializer struct{}

func (JSONSerializer) Serialize(c echo.Context, i interface{}, indent string) error {
	enc := json.NewEncoder(c.Response())
	if indent != "" {
		enc.SetIndent("", indent)
	}
	return enc.Encode(i)
}

func (JSONSerializer) Deserialize(c echo.Context, i interface{}) error {
	err := json.NewDecoder(c.Request().Body).Decode(i)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Unable to parse JSON body").SetInternal(err)
	}
	return nil
}

// DecodeJSONMap reads a JSON object body into a generic map
func DecodeJSONMap(c echo.Context) (map[string]interface{}, error) {
	raw := make(map[string]interface{})
	if err := c.Echo().JSONSerializer.Deserialize(c, &raw); err != nil {
		return nil, err
	}
	return raw, nil
}

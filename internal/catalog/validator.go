package catalog

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/mitchellh/mapstructure"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/spf13/cast"
)

const (
	maxNameLength = 255
	priceScale    = 2

	msgCategoryInvalid = "The selected category is invalid."
)

// largest value a decimal(12,2) column holds
var maxPrice = decimal.RequireFromString("9999999999.99")

// ProductInput is the allowlist of client-writable product fields. Values
// are raw scalars as decoded from a form or JSON body.
type ProductInput struct {
	Name        interface{} `mapstructure:"name"`
	Description interface{} `mapstructure:"description"`
	Price       interface{} `mapstructure:"price"`
	Stock       interface{} `mapstructure:"stock"`
	CategoryID  interface{} `mapstructure:"category_id"`
	IsActive    interface{} `mapstructure:"is_active"`
}

// DecodeInput copies the allowlisted keys of raw into a ProductInput,
// every other key is dropped.
func DecodeInput(raw map[string]interface{}) (ProductInput, error) {
	var in ProductInput
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:  &in,
		TagName: "mapstructure",
	})
	if err != nil {
		return in, errors.Wrap(err, "new input decoder")
	}
	if err := dec.Decode(raw); err != nil {
		return in, errors.Wrap(err, "decode product input")
	}
	return in, nil
}

// ProductFields is a validated and normalized ProductInput. IsActive is nil
// when the input did not carry the field.
type ProductFields struct {
	Name        string
	Description *string
	Price       decimal.Decimal
	Stock       int
	CategoryID  int64
	IsActive    *bool
}

// Validator checks product payloads, collecting every failing field
type Validator struct {
	categories CategoryLookup
	validate   *validator.Validate
}

func NewValidator(categories CategoryLookup) *Validator {
	return &Validator{
		categories: categories,
		validate:   validator.New(),
	}
}

// Validate returns the normalized fields, a *ValidationError listing every
// rejected field, or a storage error from the category lookup.
func (v *Validator) Validate(ctx context.Context, in ProductInput) (*ProductFields, error) {
	ve := &ValidationError{}
	f := &ProductFields{}

	f.Name = v.name(ve, in.Name)
	f.Description = v.description(ve, in.Description)
	f.Price = v.price(ve, in.Price)
	f.Stock = v.stock(ve, in.Stock)
	f.IsActive = v.isActive(ve, in.IsActive)

	var ok bool
	if f.CategoryID, ok = v.categoryID(ve, in.CategoryID); ok {
		exists, err := v.categories.CategoryExists(ctx, f.CategoryID)
		if err != nil {
			return nil, err
		}
		if !exists {
			ve.Add("category_id", msgCategoryInvalid)
		}
	}

	if !ve.Empty() {
		return nil, ve
	}
	return f, nil
}

// checkVar runs a validator tag against one value and records its failures
func (v *Validator) checkVar(ve *ValidationError, field, label string, value interface{}, tag string) bool {
	err := v.validate.Var(value, tag)
	if err == nil {
		return true
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		ve.Add(field, fmt.Sprintf("The %s is invalid.", label))
		return false
	}
	for _, fe := range verrs {
		ve.Add(field, ruleMessage(label, fe.Tag(), fe.Param()))
	}
	return false
}

func ruleMessage(label, tag, param string) string {
	switch tag {
	case "required":
		return fmt.Sprintf("The %s field is required.", label)
	case "max":
		return fmt.Sprintf("The %s may not be greater than %s characters.", label, param)
	case "gte", "min":
		return fmt.Sprintf("The %s must be at least %s.", label, param)
	case "lte":
		return fmt.Sprintf("The %s may not be greater than %s.", label, param)
	default:
		return fmt.Sprintf("The %s is invalid.", label)
	}
}

func isBlank(raw interface{}) bool {
	if raw == nil {
		return true
	}
	s, ok := raw.(string)
	return ok && strings.TrimSpace(s) == ""
}

func (v *Validator) name(ve *ValidationError, raw interface{}) string {
	if isBlank(raw) {
		ve.Add("name", ruleMessage("name", "required", ""))
		return ""
	}
	s, ok := raw.(string)
	if !ok {
		ve.Add("name", "The name must be a string.")
		return ""
	}
	s = strings.TrimSpace(s)
	if !v.checkVar(ve, "name", "name", s, fmt.Sprintf("required,max=%d", maxNameLength)) {
		return ""
	}
	if Slugify(s) == "" {
		ve.Add("name", "The name must contain at least one letter or digit.")
		return ""
	}
	return s
}

// blank descriptions are stored as NULL
func (v *Validator) description(ve *ValidationError, raw interface{}) *string {
	if isBlank(raw) {
		return nil
	}
	s, ok := raw.(string)
	if !ok {
		ve.Add("description", "The description must be a string.")
		return nil
	}
	s = strings.TrimSpace(s)
	return &s
}

func (v *Validator) price(ve *ValidationError, raw interface{}) decimal.Decimal {
	if isBlank(raw) {
		ve.Add("price", ruleMessage("price", "required", ""))
		return decimal.Zero
	}
	if _, isBool := raw.(bool); isBool {
		ve.Add("price", "The price must be a number.")
		return decimal.Zero
	}
	s, err := cast.ToStringE(raw)
	if err != nil {
		ve.Add("price", "The price must be a number.")
		return decimal.Zero
	}
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		ve.Add("price", "The price must be a number.")
		return decimal.Zero
	}
	if d.IsNegative() {
		ve.Add("price", ruleMessage("price", "gte", "0"))
		return decimal.Zero
	}
	d = d.Round(priceScale)
	if d.GreaterThan(maxPrice) {
		ve.Add("price", ruleMessage("price", "lte", maxPrice.String()))
		return decimal.Zero
	}
	return d
}

func (v *Validator) stock(ve *ValidationError, raw interface{}) int {
	if isBlank(raw) {
		ve.Add("stock", ruleMessage("stock", "required", ""))
		return 0
	}
	n, ok := toInteger(raw)
	if !ok {
		ve.Add("stock", "The stock must be an integer.")
		return 0
	}
	if n > math.MaxInt32 {
		ve.Add("stock", ruleMessage("stock", "lte", strconv.Itoa(math.MaxInt32)))
		return 0
	}
	if !v.checkVar(ve, "stock", "stock", int(n), "gte=0") {
		return 0
	}
	return int(n)
}

func (v *Validator) categoryID(ve *ValidationError, raw interface{}) (int64, bool) {
	if isBlank(raw) {
		ve.Add("category_id", ruleMessage("category", "required", ""))
		return 0, false
	}
	n, ok := toInteger(raw)
	if !ok || n <= 0 {
		ve.Add("category_id", msgCategoryInvalid)
		return 0, false
	}
	return n, true
}

// absent stays nil so updates keep the stored flag
func (v *Validator) isActive(ve *ValidationError, raw interface{}) *bool {
	if isBlank(raw) {
		return nil
	}
	b, ok := toBool(raw)
	if !ok {
		ve.Add("is_active", "The is active field must be true or false.")
		return nil
	}
	return &b
}

// toInteger accepts integers, whole floats and base-10 integer strings
func toInteger(raw interface{}) (int64, bool) {
	switch x := raw.(type) {
	case bool:
		return 0, false
	case float64:
		if x != math.Trunc(x) || math.IsInf(x, 0) || math.Abs(x) > 1<<53 {
			return 0, false
		}
		return int64(x), true
	case float32:
		return toInteger(float64(x))
	}
	s, err := cast.ToStringE(raw)
	if err != nil {
		return 0, false
	}
	n, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil {
		return 0, false
	}
	return n, true
}

func toBool(raw interface{}) (bool, bool) {
	switch x := raw.(type) {
	case bool:
		return x, true
	case string:
		switch strings.ToLower(strings.TrimSpace(x)) {
		case "1", "true", "on", "yes":
			return true, true
		case "0", "false", "off", "no":
			return false, true
		}
		return false, false
	}
	n, ok := toInteger(raw)
	if !ok || (n != 0 && n != 1) {
		return false, false
	}
	return n == 1, true
}

package validation

import (
	"reflect"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

// decimalValue lets numeric tags such as gt=0 run against decimal fields
func decimalValue(field reflect.Value) interface{} {
	if d, ok := field.Interface().(decimal.Decimal); ok {
		f, _ := d.Float64()
		return f
	}
	return nil
}

// decimalPlaces implements decimal_places=N. The custom type func hands
// validators a float64, so the exact value is read back from the parent struct.
func decimalPlaces(fl validator.FieldLevel) bool {
	places, err := strconv.Atoi(fl.Param())
	if err != nil {
		return false
	}

	parent := reflect.Indirect(fl.Parent())
	if parent.Kind() != reflect.Struct {
		return true
	}
	field := parent.FieldByName(fl.StructFieldName())
	if !field.IsValid() || !field.CanInterface() {
		return true
	}
	d, ok := field.Interface().(decimal.Decimal)
	if !ok {
		return true
	}
	return d.Equal(d.Round(int32(places)))
}

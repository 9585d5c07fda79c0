package validation

import (
	"bytes"
	"encoding/json"
	"reflect"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

var numberType = reflect.TypeOf(Number{})

// Inputs are bounded so a short literal such as 1e-999999999 cannot expand
// into millions of digits when it is summed or encoded.
const (
	maxScale         = 12
	maxIntegerDigits = 30
)

// Number is a JSON numeric input kept as an exact decimal. Numeric strings
// such as "12.50" are accepted as well, the way HTML form values arrive.
type Number struct {
	Value decimal.Decimal
	Set   bool
}

func (n *Number) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*n = Number{}
		return nil
	}
	raw := string(data)
	value := "number " + raw
	if strings.HasPrefix(raw, `"`) {
		s, err := strconv.Unquote(raw)
		if err != nil {
			return &json.UnmarshalTypeError{Value: "string", Type: numberType}
		}
		raw = strings.TrimSpace(s)
		value = "string"
	}
	d, err := decimal.NewFromString(raw)
	if err == nil && d.IsZero() {
		d = decimal.Zero
	}
	if err != nil || raw == "" || !inRange(d) {
		return &json.UnmarshalTypeError{Value: value, Type: numberType}
	}
	n.Value = d
	n.Set = true
	return nil
}

func inRange(d decimal.Decimal) bool {
	if d.Exponent() < -maxScale {
		return false
	}
	return int64(d.NumDigits())+int64(d.Exponent()) <= maxIntegerDigits
}

// Ptr returns the value, or nil when the input was absent or null.
func (n Number) Ptr() *decimal.Decimal {
	if !n.Set {
		return nil
	}
	v := n.Value
	return &v
}

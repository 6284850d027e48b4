package adapty

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// Value is an optional, loosely typed field of an incoming event.
// Adapty sends prices as numbers or strings depending on the integration,
// so fields are kept as decoded JSON and coerced when they are rendered.
type Value struct {
	raw json.RawMessage
	v   interface{}
}

// UnmarshalJSON implements json.Unmarshaler. It never fails on valid JSON.
func (v *Value) UnmarshalJSON(data []byte) error {
	decoded, err := decodeLoose(data)
	if err != nil {
		return err
	}
	v.raw = append(v.raw[:0], data...)
	v.v = decoded
	return nil
}

// decodeLoose decodes any JSON value. Numbers beyond the float64 range
// become ±Inf instead of failing the decode.
func decodeLoose(data []byte) (interface{}, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var out interface{}
	if err := dec.Decode(&out); err != nil {
		return nil, err
	}
	return convertNumbers(out), nil
}

func convertNumbers(x interface{}) interface{} {
	switch t := x.(type) {
	case json.Number:
		// ParseFloat returns ±Inf alongside ErrRange for overflow and a
		// signed zero for underflow; both are the values wanted here.
		f, _ := strconv.ParseFloat(t.String(), 64)
		return f
	case []interface{}:
		for i, e := range t {
			t[i] = convertNumbers(e)
		}
		return t
	case map[string]interface{}:
		for k, e := range t {
			t[k] = convertNumbers(e)
		}
		return t
	default:
		return x
	}
}

// MarshalJSON re-emits the value as it was received.
func (v Value) MarshalJSON() ([]byte, error) {
	if v.raw == nil {
		return []byte("null"), nil
	}
	return v.raw, nil
}

// StringValue builds a present string Value. Mostly useful in tests.
func StringValue(s string) Value {
	raw, _ := json.Marshal(s)
	return Value{raw: raw, v: s}
}

// NumberValue builds a present numeric Value.
func NumberValue(f float64) Value {
	raw, err := json.Marshal(f)
	if err != nil {
		// NaN and ±Inf have no JSON form; keep the value present anyway.
		raw = json.RawMessage(strconv.Quote(formatNumber(f)))
	}
	return Value{raw: raw, v: f}
}

// Present reports whether the field appeared in the payload, even as null.
func (v Value) Present() bool {
	return v.raw != nil
}

// Raw returns the JSON text of the field, nil when absent.
func (v Value) Raw() json.RawMessage {
	return v.raw
}

// IsNull reports whether the field was sent as a JSON null.
func (v Value) IsNull() bool {
	return v.raw != nil && bytes.Equal(bytes.TrimSpace(v.raw), []byte("null"))
}

// Truthy reports whether the value counts as set: absent, null, false, 0, NaN and ""
// are false, everything else (including objects and arrays) is true.
func (v Value) Truthy() bool {
	switch x := v.v.(type) {
	case nil:
		return false
	case bool:
		return x
	case float64:
		return x != 0 && !math.IsNaN(x)
	case string:
		return x != ""
	default:
		return true
	}
}

// Is reports whether the field is the string s. Numbers never match.
func (v Value) Is(s string) bool {
	str, ok := v.v.(string)
	return ok && str == s
}

// String renders the value for message text. Absent fields render as
// "undefined"; objects render as "[object Object]".
func (v Value) String() string {
	if v.raw == nil {
		return "undefined"
	}
	return displayString(v.v)
}

// Or returns v when it is truthy, otherwise the fallback.
func (v Value) Or(fallback Value) Value {
	if v.Truthy() {
		return v
	}
	return fallback
}

// OrString returns v rendered when it is truthy, otherwise def.
func (v Value) OrString(def string) string {
	if v.Truthy() {
		return v.String()
	}
	return def
}

func displayString(x interface{}) string {
	switch t := x.(type) {
	case nil:
		return "null"
	case bool:
		if t {
			return "true"
		}
		return "false"
	case float64:
		return formatNumber(t)
	case string:
		return t
	case []interface{}:
		parts := make([]string, len(t))
		for i, e := range t {
			if e == nil {
				continue
			}
			parts[i] = displayString(e)
		}
		return strings.Join(parts, ",")
	default:
		return "[object Object]"
	}
}

// formatNumber prints the shortest round-trip form, switching to exponent
// notation outside [1e-6, 1e21).
func formatNumber(f float64) string {
	switch {
	case math.IsNaN(f):
		return "NaN"
	case math.IsInf(f, 1):
		return "Infinity"
	case math.IsInf(f, -1):
		return "-Infinity"
	case f == 0:
		return "0"
	}
	abs := math.Abs(f)
	if abs >= 1e21 || abs < 1e-6 {
		s := strconv.FormatFloat(f, 'e', -1, 64)
		mant, exp, _ := strings.Cut(s, "e")
		sign := exp[:1]
		digits := strings.TrimLeft(exp[1:], "0")
		if digits == "" {
			digits = "0"
		}
		return mant + "e" + sign + digits
	}
	return strconv.FormatFloat(f, 'f', -1, 64)
}

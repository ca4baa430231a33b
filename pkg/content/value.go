package content

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strconv"
	"time"
)

// ValueKind is the variant held by a Value.
type ValueKind int

// Value kinds.
const (
	NullKind ValueKind = iota
	BoolKind
	IntKind
	Int64Kind
	DoubleKind
	StringKind
	DateKind
	ArrayKind
	ObjectKind
)

func (k ValueKind) String() string {
	switch k {
	case NullKind:
		return "null"
	case BoolKind:
		return "bool"
	case IntKind:
		return "int"
	case Int64Kind:
		return "int64"
	case DoubleKind:
		return "double"
	case StringKind:
		return "string"
	case DateKind:
		return "date"
	case ArrayKind:
		return "array"
	case ObjectKind:
		return "object"
	default:
		return fmt.Sprintf("kind %d", int(k))
	}
}

// Value is a self-describing JSON value used for user-defined fields and error
// bodies whose shape is not known at compile time.
//
// Decoding picks the first matching variant in this order: object, array,
// string, bool, int (fits in 32 bits), int64, double, null. Dates therefore
// arrive as strings, numbers or objects; AsDate recognizes all three.
type Value struct {
	kind ValueKind
	b    bool
	i    int64
	f    float64
	s    string
	t    time.Time
	arr  []Value
	obj  map[string]Value
}

// NullValue returns the null value.
func NullValue() Value { return Value{} }

// BoolValue wraps a boolean.
func BoolValue(b bool) Value { return Value{kind: BoolKind, b: b} }

// IntValue wraps a 32-bit integer.
func IntValue(i int32) Value { return Value{kind: IntKind, i: int64(i)} }

// Int64Value wraps a 64-bit integer.
func Int64Value(i int64) Value { return Value{kind: Int64Kind, i: i} }

// DoubleValue wraps a float.
func DoubleValue(f float64) Value { return Value{kind: DoubleKind, f: f} }

// StringValue wraps a string.
func StringValue(s string) Value { return Value{kind: StringKind, s: s} }

// DateValue wraps a point in time.
func DateValue(t time.Time) Value { return Value{kind: DateKind, t: normalizeTime(t)} }

// ArrayValue wraps a list of values.
func ArrayValue(items ...Value) Value { return Value{kind: ArrayKind, arr: items} }

// ObjectValue wraps a set of named values.
func ObjectValue(fields map[string]Value) Value { return Value{kind: ObjectKind, obj: fields} }

// Kind returns the variant.
func (v Value) Kind() ValueKind { return v.kind }

// IsNull reports whether v is null.
func (v Value) IsNull() bool { return v.kind == NullKind }

// AsBool returns the boolean view.
func (v Value) AsBool() (bool, bool) {
	if v.kind == BoolKind {
		return v.b, true
	}

	return false, false
}

// AsString returns the string view. Dates render in canonical form.
func (v Value) AsString() (string, bool) {
	switch v.kind {
	case StringKind:
		return v.s, true
	case DateKind:
		return FormatDate(v.t), true
	default:
		return "", false
	}
}

// AsInt64 returns the integer view. Doubles truncate toward zero.
func (v Value) AsInt64() (int64, bool) {
	switch v.kind {
	case IntKind, Int64Kind:
		return v.i, true
	case DoubleKind:
		if math.IsNaN(v.f) || v.f >= math.MaxInt64 || v.f < math.MinInt64 {
			return 0, false
		}

		return int64(math.Trunc(v.f)), true
	default:
		return 0, false
	}
}

// AsInt returns the platform integer view.
func (v Value) AsInt() (int, bool) {
	i, ok := v.AsInt64()
	if !ok || i > math.MaxInt || i < math.MinInt {
		return 0, false
	}

	return int(i), true
}

// AsUint returns the unsigned view. Negative values have none.
func (v Value) AsUint() (uint, bool) {
	i, ok := v.AsInt64()
	if !ok || i < 0 || uint64(i) > math.MaxUint {
		return 0, false
	}

	return uint(i), true
}

// AsDouble returns the floating point view.
func (v Value) AsDouble() (float64, bool) {
	switch v.kind {
	case IntKind, Int64Kind:
		return float64(v.i), true
	case DoubleKind:
		return v.f, true
	default:
		return 0, false
	}
}

// AsDate returns the date view. It accepts Date values, ISO-8601 strings,
// epoch milliseconds and {"value", "timezone"} objects.
func (v Value) AsDate() (time.Time, bool) {
	switch v.kind {
	case DateKind:
		return v.t, true
	case StringKind:
		t, err := ParseDate(v.s)
		return t, err == nil
	case IntKind, Int64Kind:
		return DateFromMillis(v.i), true
	case DoubleKind:
		ms, ok := v.AsInt64()
		if !ok {
			return time.Time{}, false
		}

		return DateFromMillis(ms), true
	case ObjectKind:
		s, ok := v.Get("value").AsString()
		if !ok {
			return time.Time{}, false
		}

		tz, _ := v.Get("timezone").AsString()

		t, err := dateContainer{Value: s, Timezone: tz}.time()

		return t, err == nil
	default:
		return time.Time{}, false
	}
}

// AsArray returns the elements of an array.
func (v Value) AsArray() ([]Value, bool) {
	if v.kind == ArrayKind {
		return v.arr, true
	}

	return nil, false
}

// AsObject returns the members of an object.
func (v Value) AsObject() (map[string]Value, bool) {
	if v.kind == ObjectKind {
		return v.obj, true
	}

	return nil, false
}

// Get returns the member named key, or null.
func (v Value) Get(key string) Value {
	if v.kind != ObjectKind {
		return Value{}
	}

	return v.obj[key]
}

// Index returns the i-th element, or null.
func (v Value) Index(i int) Value {
	if v.kind != ArrayKind || i < 0 || i >= len(v.arr) {
		return Value{}
	}

	return v.arr[i]
}

// Len returns the number of elements or members.
func (v Value) Len() int {
	switch v.kind {
	case ArrayKind:
		return len(v.arr)
	case ObjectKind:
		return len(v.obj)
	default:
		return 0
	}
}

// Keys returns the sorted member names of an object.
func (v Value) Keys() []string {
	keys := make([]string, 0, len(v.obj))
	for k := range v.obj {
		keys = append(keys, k)
	}

	sort.Strings(keys)

	return keys
}

// Interface converts v into plain Go values.
func (v Value) Interface() interface{} {
	switch v.kind {
	case BoolKind:
		return v.b
	case IntKind, Int64Kind:
		return v.i
	case DoubleKind:
		return v.f
	case StringKind:
		return v.s
	case DateKind:
		return FormatDate(v.t)
	case ArrayKind:
		out := make([]interface{}, len(v.arr))
		for i, item := range v.arr {
			out[i] = item.Interface()
		}

		return out
	case ObjectKind:
		out := make(map[string]interface{}, len(v.obj))
		for k, item := range v.obj {
			out[k] = item.Interface()
		}

		return out
	default:
		return nil
	}
}

// Decode re-decodes v into target, which must be a pointer.
func (v Value) Decode(target interface{}) error {
	data, err := json.Marshal(v)
	if err != nil {
		return wrapError(KindDataConversionFailed, err, "failed to encode value")
	}

	if err := json.Unmarshal(data, target); err != nil {
		return wrapError(KindDataConversionFailed, err, fmt.Sprintf("failed to decode %s value", v.kind))
	}

	return nil
}

// String returns the JSON encoding.
func (v Value) String() string {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprintf("<%s>", v.kind)
	}

	return string(data)
}

// ValueOf converts any JSON-encodable Go value into a Value.
func ValueOf(x interface{}) (Value, error) {
	if v, ok := x.(Value); ok {
		return v, nil
	}

	data, err := json.Marshal(x)
	if err != nil {
		return Value{}, wrapError(KindDataConversionFailed, err, "failed to encode value")
	}

	var v Value
	if err := json.Unmarshal(data, &v); err != nil {
		return Value{}, err
	}

	return v, nil
}

// MarshalJSON implements json.Marshaler.
func (v Value) MarshalJSON() ([]byte, error) {
	switch v.kind {
	case NullKind:
		return []byte("null"), nil
	case BoolKind:
		return strconv.AppendBool(nil, v.b), nil
	case IntKind, Int64Kind:
		return strconv.AppendInt(nil, v.i, 10), nil
	case DoubleKind:
		return json.Marshal(v.f)
	case StringKind:
		return json.Marshal(v.s)
	case DateKind:
		return json.Marshal(FormatDate(v.t))
	case ArrayKind:
		if v.arr == nil {
			return []byte("[]"), nil
		}

		return json.Marshal(v.arr)
	case ObjectKind:
		if v.obj == nil {
			return []byte("{}"), nil
		}

		return json.Marshal(v.obj)
	default:
		return nil, newError(KindDataConversionFailed, "unknown value kind %d", int(v.kind))
	}
}

// UnmarshalJSON implements json.Unmarshaler.
func (v *Value) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return newError(KindDataConversionFailed, "empty JSON value")
	}

	switch data[0] {
	case '{':
		var raw map[string]json.RawMessage
		if err := json.Unmarshal(data, &raw); err != nil {
			return wrapError(KindDataConversionFailed, err, "invalid object")
		}

		obj := make(map[string]Value, len(raw))

		for k, r := range raw {
			var member Value
			if err := member.UnmarshalJSON(r); err != nil {
				return err
			}

			obj[k] = member
		}

		*v = ObjectValue(obj)
	case '[':
		var raw []json.RawMessage
		if err := json.Unmarshal(data, &raw); err != nil {
			return wrapError(KindDataConversionFailed, err, "invalid array")
		}

		arr := make([]Value, len(raw))

		for i, r := range raw {
			if err := arr[i].UnmarshalJSON(r); err != nil {
				return err
			}
		}

		*v = ArrayValue(arr...)
	case '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return wrapError(KindDataConversionFailed, err, "invalid string")
		}

		*v = StringValue(s)
	case 't', 'f':
		var b bool
		if err := json.Unmarshal(data, &b); err != nil {
			return wrapError(KindDataConversionFailed, err, "invalid boolean")
		}

		*v = BoolValue(b)
	case 'n':
		if !bytes.Equal(data, []byte("null")) {
			return newError(KindDataConversionFailed, "invalid literal %s", data)
		}

		*v = NullValue()
	default:
		return v.unmarshalNumber(string(data))
	}

	return nil
}

func (v *Value) unmarshalNumber(s string) error {
	if i, err := strconv.ParseInt(s, 10, 32); err == nil {
		*v = IntValue(int32(i))
		return nil
	}

	if i, err := strconv.ParseInt(s, 10, 64); err == nil {
		*v = Int64Value(i)
		return nil
	}

	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return wrapError(KindDataConversionFailed, err, fmt.Sprintf("invalid number %s", s))
	}

	*v = DoubleValue(f)

	return nil
}

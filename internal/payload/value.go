// Package payload models the dynamically-shaped value a remote function
// returns. A Value is a closed tagged union; consumers switch on Kind and
// never type-assert on interface{}.
package payload

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
)

// Kind identifies which arm of the union a Value holds.
type Kind int

const (
	KindNull Kind = iota
	KindString
	KindNumber
	KindBool
	KindSequence
	KindMapping
)

func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindString:
		return "string"
	case KindNumber:
		return "number"
	case KindBool:
		return "bool"
	case KindSequence:
		return "sequence"
	case KindMapping:
		return "mapping"
	default:
		return "unknown"
	}
}

// Value is one remote response. The zero Value is null.
type Value struct {
	kind   Kind
	str    string
	num    float64
	flag   bool
	items  []Value
	fields map[string]Value
}

// Null returns the null value.
func Null() Value { return Value{} }

// Text wraps a string.
func Text(s string) Value { return Value{kind: KindString, str: s} }

// Number wraps a float.
func Number(f float64) Value { return Value{kind: KindNumber, num: f} }

// Bool wraps a boolean.
func Bool(b bool) Value { return Value{kind: KindBool, flag: b} }

// Sequence builds an ordered sequence. The slice is copied.
func Sequence(items ...Value) Value {
	cp := make([]Value, len(items))
	copy(cp, items)
	return Value{kind: KindSequence, items: cp}
}

// Mapping builds a key-value mapping. The map is copied.
func Mapping(fields map[string]Value) Value {
	cp := make(map[string]Value, len(fields))
	for k, v := range fields {
		cp[k] = v
	}
	return Value{kind: KindMapping, fields: cp}
}

// Kind reports the arm held by v.
func (v Value) Kind() Kind { return v.kind }

// IsNull reports whether v is null.
func (v Value) IsNull() bool { return v.kind == KindNull }

// Str returns the string arm.
func (v Value) Str() (string, bool) {
	if v.kind != KindString {
		return "", false
	}
	return v.str, true
}

// Num returns the number arm.
func (v Value) Num() (float64, bool) {
	if v.kind != KindNumber {
		return 0, false
	}
	return v.num, true
}

// Float converts v to a float the way a lenient caller would: numbers pass
// through, finite numeric strings are parsed, booleans are 0 or 1. Anything
// else, including "NaN" and "Inf", reports false.
func (v Value) Float() (float64, bool) {
	switch v.kind {
	case KindNumber:
		return v.num, true
	case KindBool:
		if v.flag {
			return 1, true
		}
		return 0, true
	case KindString:
		f, err := strconv.ParseFloat(strings.TrimSpace(v.str), 64)
		if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
			return 0, false
		}
		return f, true
	default:
		return 0, false
	}
}

// Len returns the number of items in a sequence, or 0 for other kinds.
func (v Value) Len() int {
	if v.kind != KindSequence {
		return 0
	}
	return len(v.items)
}

// Index returns the i-th item of a sequence, or null when out of range.
func (v Value) Index(i int) Value {
	if v.kind != KindSequence || i < 0 || i >= len(v.items) {
		return Null()
	}
	return v.items[i]
}

// Field looks up key in a mapping.
func (v Value) Field(key string) (Value, bool) {
	if v.kind != KindMapping {
		return Null(), false
	}
	f, ok := v.fields[key]
	return f, ok
}

// Keys returns the mapping keys in sorted order.
func (v Value) Keys() []string {
	if v.kind != KindMapping {
		return nil
	}
	keys := make([]string, 0, len(v.fields))
	for k := range v.fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// String renders v as plain text. Strings render bare; every other kind
// renders as compact JSON.
func (v Value) String() string {
	if v.kind == KindString {
		return v.str
	}
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprintf("<%s>", v.kind)
	}
	return string(b)
}

// Equal reports deep equality.
func (v Value) Equal(o Value) bool {
	if v.kind != o.kind {
		return false
	}
	switch v.kind {
	case KindNull:
		return true
	case KindString:
		return v.str == o.str
	case KindNumber:
		return v.num == o.num
	case KindBool:
		return v.flag == o.flag
	case KindSequence:
		if len(v.items) != len(o.items) {
			return false
		}
		for i := range v.items {
			if !v.items[i].Equal(o.items[i]) {
				return false
			}
		}
		return true
	case KindMapping:
		if len(v.fields) != len(o.fields) {
			return false
		}
		for k, fv := range v.fields {
			ov, ok := o.fields[k]
			if !ok || !fv.Equal(ov) {
				return false
			}
		}
		return true
	}
	return false
}

// Decode parses a JSON document into a Value.
func Decode(data []byte) (Value, error) {
	var v Value
	if err := json.Unmarshal(data, &v); err != nil {
		return Null(), err
	}
	return v, nil
}

// UnmarshalJSON implements json.Unmarshaler.
func (v *Value) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var raw any
	if err := dec.Decode(&raw); err != nil {
		return fmt.Errorf("payload: decode: %w", err)
	}
	conv, err := fromJSON(raw)
	if err != nil {
		return err
	}
	*v = conv
	return nil
}

// MarshalJSON implements json.Marshaler.
func (v Value) MarshalJSON() ([]byte, error) {
	return json.Marshal(v.toJSON())
}

func fromJSON(raw any) (Value, error) {
	switch t := raw.(type) {
	case nil:
		return Null(), nil
	case string:
		return Text(t), nil
	case bool:
		return Bool(t), nil
	case json.Number:
		f, err := t.Float64()
		if err != nil {
			return Null(), fmt.Errorf("payload: number %q: %w", t.String(), err)
		}
		return Number(f), nil
	case float64:
		return Number(t), nil
	case []any:
		items := make([]Value, len(t))
		for i, el := range t {
			conv, err := fromJSON(el)
			if err != nil {
				return Null(), err
			}
			items[i] = conv
		}
		return Value{kind: KindSequence, items: items}, nil
	case map[string]any:
		fields := make(map[string]Value, len(t))
		for k, el := range t {
			conv, err := fromJSON(el)
			if err != nil {
				return Null(), err
			}
			fields[k] = conv
		}
		return Value{kind: KindMapping, fields: fields}, nil
	default:
		return Null(), fmt.Errorf("payload: unsupported JSON type %T", raw)
	}
}

func (v Value) toJSON() any {
	switch v.kind {
	case KindString:
		return v.str
	case KindNumber:
		return v.num
	case KindBool:
		return v.flag
	case KindSequence:
		out := make([]any, len(v.items))
		for i, el := range v.items {
			out[i] = el.toJSON()
		}
		return out
	case KindMapping:
		out := make(map[string]any, len(v.fields))
		for k, el := range v.fields {
			out[k] = el.toJSON()
		}
		return out
	default:
		return nil
	}
}

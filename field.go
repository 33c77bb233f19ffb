package sender

import (
	"bytes"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// FieldKind identifies which of the four line protocol field types a
// FieldValue holds.
type FieldKind uint8

const (
	invalidKind FieldKind = iota
	IntKind
	FloatKind
	StringKind
	BoolKind
)

func (k FieldKind) String() string {
	switch k {
	case IntKind:
		return "int"
	case FloatKind:
		return "float"
	case StringKind:
		return "string"
	case BoolKind:
		return "bool"
	default:
		return "invalid"
	}
}

// FieldValue is an immutable field value: an integer, a float, a string or a
// boolean. The zero FieldValue holds nothing and is rejected when encoding.
type FieldValue struct {
	kind FieldKind
	i    int64
	f    float64
	s    string
}

func Int(v int64) FieldValue { return FieldValue{kind: IntKind, i: v} }

func Float(v float64) FieldValue { return FieldValue{kind: FloatKind, f: v} }

func String(v string) FieldValue { return FieldValue{kind: StringKind, s: v} }

func Bool(v bool) FieldValue {
	fv := FieldValue{kind: BoolKind}
	if v {
		fv.i = 1
	}
	return fv
}

// Kind returns the type held by v.
func (v FieldValue) Kind() FieldKind {
	return v.kind
}

// Interface returns the Go value held by v: an int64, float64, string or bool.
// It returns nil for the zero FieldValue.
func (v FieldValue) Interface() interface{} {
	switch v.kind {
	case IntKind:
		return v.i
	case FloatKind:
		return v.f
	case StringKind:
		return v.s
	case BoolKind:
		return v.i == 1
	default:
		return nil
	}
}

var stringFieldEscaper = strings.NewReplacer(
	`\`, `\\`,
	`"`, `\"`,
)

// AppendTo appends the line protocol token for v to dst.
func (v FieldValue) AppendTo(dst []byte) []byte {
	switch v.kind {
	case IntKind:
		dst = strconv.AppendInt(dst, v.i, 10)
		return append(dst, 'i')
	case FloatKind:
		start := len(dst)
		dst = strconv.AppendFloat(dst, v.f, 'f', -1, 64)
		// whole numbers must not look like integers on the wire
		if !bytes.ContainsAny(dst[start:], ".NI") {
			dst = append(dst, '.', '0')
		}
		return dst
	case StringKind:
		dst = append(dst, '"')
		if strings.ContainsAny(v.s, `\"`) {
			dst = append(dst, stringFieldEscaper.Replace(v.s)...)
		} else {
			dst = append(dst, v.s...)
		}
		return append(dst, '"')
	case BoolKind:
		return strconv.AppendBool(dst, v.i == 1)
	default:
		return dst
	}
}

// String returns the line protocol token for v.
func (v FieldValue) String() string {
	return string(v.AppendTo(nil))
}

func (v FieldValue) validate() error {
	switch v.kind {
	case invalidKind:
		return fmt.Errorf("%w: field has no value", ErrEncoding)
	case FloatKind:
		if math.IsNaN(v.f) || math.IsInf(v.f, 0) {
			return fmt.Errorf("%w: float field value %v is not representable", ErrEncoding, v.f)
		}
	}
	return nil
}

// FieldValuer is implemented by types that know how to convert themselves
// into a FieldValue.
type FieldValuer interface {
	FieldValue() FieldValue
}

// ToFieldValue converts a Go value into a FieldValue. Signed and unsigned
// integers become IntKind (unsigned values above math.MaxInt64 are rejected),
// float32 and float64 become FloatKind, string and []byte become StringKind
// and bool becomes BoolKind. FieldValue and FieldValuer are passed through.
func ToFieldValue(v interface{}) (FieldValue, error) {
	switch t := v.(type) {
	case FieldValue:
		return t, nil
	case FieldValuer:
		return t.FieldValue(), nil
	case int:
		return Int(int64(t)), nil
	case int8:
		return Int(int64(t)), nil
	case int16:
		return Int(int64(t)), nil
	case int32:
		return Int(int64(t)), nil
	case int64:
		return Int(t), nil
	case uint:
		return fromUint(uint64(t))
	case uint8:
		return Int(int64(t)), nil
	case uint16:
		return Int(int64(t)), nil
	case uint32:
		return Int(int64(t)), nil
	case uint64:
		return fromUint(t)
	case float32:
		// widen through the shortest float32 text so 0.1 stays 0.1
		f, _ := strconv.ParseFloat(strconv.FormatFloat(float64(t), 'g', -1, 32), 64)
		return Float(f), nil
	case float64:
		return Float(t), nil
	case string:
		return String(t), nil
	case []byte:
		return String(string(t)), nil
	case bool:
		return Bool(t), nil
	default:
		return FieldValue{}, fmt.Errorf("%w: unsupported field type %T", ErrEncoding, v)
	}
}

func fromUint(v uint64) (FieldValue, error) {
	if v > math.MaxInt64 {
		return FieldValue{}, fmt.Errorf("%w: unsigned field value %d overflows int64", ErrEncoding, v)
	}
	return Int(int64(v)), nil
}

package series

import (
	stdjson "encoding/json"
	"net/netip"
	"time"

	"github.com/seriate-io/seriate/pkg/schema"
	"github.com/seriate-io/seriate/pkg/serrors"
)

// Value is the tagged scalar written by callers: null or one atom of a
// fixed kind. The tag determines which typed column the value is routed
// to.
type Value struct {
	kind schema.Kind
	b    bool
	i    int64
	u    uint64
	f    float64
	s    string
	t    time.Time
	d    time.Duration
	addr netip.Addr
	pfx  netip.Prefix
	e    uint64
}

// Null returns the null value.
func Null() Value { return Value{kind: schema.KindNull} }

// Bool returns a bool value.
func Bool(b bool) Value { return Value{kind: schema.KindBool, b: b} }

// Int returns an int64 value.
func Int(i int64) Value { return Value{kind: schema.KindInt64, i: i} }

// Uint returns a uint64 value.
func Uint(u uint64) Value { return Value{kind: schema.KindUint64, u: u} }

// Float returns a double value.
func Float(f float64) Value { return Value{kind: schema.KindDouble, f: f} }

// String returns a string value.
func String(s string) Value { return Value{kind: schema.KindString, s: s} }

// Duration returns a duration value.
func Duration(d time.Duration) Value { return Value{kind: schema.KindDuration, d: d} }

// Time returns a timestamp value.
func Time(t time.Time) Value { return Value{kind: schema.KindTime, t: t} }

// IP returns an IP address value.
func IP(a netip.Addr) Value { return Value{kind: schema.KindIP, addr: a} }

// Subnet returns an IP prefix value.
func Subnet(p netip.Prefix) Value { return Value{kind: schema.KindSubnet, pfx: p} }

// Enum returns an enumeration value holding a label index. Enumeration
// values can only be written into builders protected with an
// enumeration type, since the value alone does not carry a label set.
func Enum(index uint64) Value { return Value{kind: schema.KindEnum, e: index} }

// Kind returns the value's kind tag.
func (v Value) Kind() schema.Kind { return v.kind }

// IsNull reports whether the value is null.
func (v Value) IsNull() bool { return v.kind == schema.KindNull }

// FromAny converts a Go scalar into a Value. Integral Go types map to
// int64/uint64, floats to double, and net/netip types to ip/subnet.
// Maps and slices are not scalars and are rejected; use Data for those.
func FromAny(x interface{}) (Value, error) {
	switch v := x.(type) {
	case nil:
		return Null(), nil
	case bool:
		return Bool(v), nil
	case int:
		return Int(int64(v)), nil
	case int8:
		return Int(int64(v)), nil
	case int16:
		return Int(int64(v)), nil
	case int32:
		return Int(int64(v)), nil
	case int64:
		return Int(v), nil
	case uint:
		return Uint(uint64(v)), nil
	case uint8:
		return Uint(uint64(v)), nil
	case uint16:
		return Uint(uint64(v)), nil
	case uint32:
		return Uint(uint64(v)), nil
	case uint64:
		return Uint(v), nil
	case float32:
		return Float(float64(v)), nil
	case float64:
		return Float(v), nil
	case string:
		return String(v), nil
	case time.Time:
		return Time(v), nil
	case time.Duration:
		return Duration(v), nil
	case netip.Addr:
		return IP(v), nil
	case netip.Prefix:
		return Subnet(v), nil
	case stdjson.Number:
		// goccy's Number is an alias of encoding/json.Number, so this
		// covers both decoders.
		return fromNumber(string(v))
	}
	return Value{}, serrors.Newf(serrors.ErrorTypeData, "unsupported scalar type %T", x)
}

// fromNumber maps a JSON number literal to the narrowest matching atom:
// int64 if it fits, then uint64, then double.
func fromNumber(s string) (Value, error) {
	n := stdjson.Number(s)
	if i, err := n.Int64(); err == nil {
		return Int(i), nil
	}
	if u, err := parseUint(s); err == nil {
		return Uint(u), nil
	}
	f, err := n.Float64()
	if err != nil {
		return Value{}, serrors.Newf(serrors.ErrorTypeData, "invalid number literal %q", s)
	}
	return Float(f), nil
}

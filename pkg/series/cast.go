package series

import (
	"math"
	"net/netip"
	"strconv"
	"strings"
	"time"

	"github.com/seriate-io/seriate/pkg/schema"
	"github.com/seriate-io/seriate/pkg/serrors"
)

// castValue coerces a non-null value into a protected target type.
// Numeric kinds cast across each other when no information is lost,
// strings parse into every atom kind, and durations honor the target's
// unit attribute for bare numbers and unit-less strings.
func castValue(v Value, target schema.Type) (Value, error) {
	switch target.Kind() {
	case schema.KindBool:
		switch v.kind {
		case schema.KindBool:
			return v, nil
		case schema.KindString:
			b, err := strconv.ParseBool(v.s)
			if err != nil {
				return Value{}, castFailure(v, target)
			}
			return Bool(b), nil
		}
	case schema.KindInt64:
		switch v.kind {
		case schema.KindInt64:
			return v, nil
		case schema.KindUint64:
			if v.u > math.MaxInt64 {
				return Value{}, castFailure(v, target)
			}
			return Int(int64(v.u)), nil
		case schema.KindDouble:
			if v.f != math.Trunc(v.f) || v.f < math.MinInt64 || v.f >= math.MaxInt64 {
				return Value{}, castFailure(v, target)
			}
			return Int(int64(v.f)), nil
		case schema.KindString:
			i, err := strconv.ParseInt(strings.TrimSpace(v.s), 10, 64)
			if err != nil {
				return Value{}, castFailure(v, target)
			}
			return Int(i), nil
		}
	case schema.KindUint64:
		switch v.kind {
		case schema.KindUint64:
			return v, nil
		case schema.KindInt64:
			if v.i < 0 {
				return Value{}, castFailure(v, target)
			}
			return Uint(uint64(v.i)), nil
		case schema.KindDouble:
			if v.f != math.Trunc(v.f) || v.f < 0 || v.f >= math.MaxUint64 {
				return Value{}, castFailure(v, target)
			}
			return Uint(uint64(v.f)), nil
		case schema.KindString:
			u, err := parseUint(strings.TrimSpace(v.s))
			if err != nil {
				return Value{}, castFailure(v, target)
			}
			return Uint(u), nil
		}
	case schema.KindDouble:
		switch v.kind {
		case schema.KindDouble:
			return v, nil
		case schema.KindInt64:
			return Float(float64(v.i)), nil
		case schema.KindUint64:
			return Float(float64(v.u)), nil
		case schema.KindString:
			f, err := strconv.ParseFloat(strings.TrimSpace(v.s), 64)
			if err != nil {
				return Value{}, castFailure(v, target)
			}
			return Float(f), nil
		}
	case schema.KindDuration:
		return castDuration(v, target)
	case schema.KindTime:
		switch v.kind {
		case schema.KindTime:
			return v, nil
		case schema.KindInt64:
			return Time(time.Unix(v.i, 0).UTC()), nil
		case schema.KindUint64:
			if v.u > math.MaxInt64 {
				return Value{}, castFailure(v, target)
			}
			return Time(time.Unix(int64(v.u), 0).UTC()), nil
		case schema.KindDouble:
			sec, frac := math.Modf(v.f)
			return Time(time.Unix(int64(sec), int64(frac*1e9)).UTC()), nil
		case schema.KindString:
			for _, layout := range []string{time.RFC3339Nano, time.RFC3339, "2006-01-02"} {
				if t, err := time.Parse(layout, v.s); err == nil {
					return Time(t.UTC()), nil
				}
			}
			return Value{}, castFailure(v, target)
		}
	case schema.KindString:
		switch v.kind {
		case schema.KindString:
			return v, nil
		case schema.KindBool:
			return String(strconv.FormatBool(v.b)), nil
		case schema.KindInt64:
			return String(strconv.FormatInt(v.i, 10)), nil
		case schema.KindUint64:
			return String(strconv.FormatUint(v.u, 10)), nil
		case schema.KindDouble:
			return String(strconv.FormatFloat(v.f, 'g', -1, 64)), nil
		case schema.KindDuration:
			return String(v.d.String()), nil
		case schema.KindTime:
			return String(v.t.UTC().Format(time.RFC3339Nano)), nil
		case schema.KindIP:
			return String(v.addr.String()), nil
		case schema.KindSubnet:
			return String(v.pfx.String()), nil
		}
	case schema.KindIP:
		switch v.kind {
		case schema.KindIP:
			return v, nil
		case schema.KindString:
			a, err := netip.ParseAddr(strings.TrimSpace(v.s))
			if err != nil {
				return Value{}, castFailure(v, target)
			}
			return IP(a), nil
		}
	case schema.KindSubnet:
		switch v.kind {
		case schema.KindSubnet:
			return v, nil
		case schema.KindIP:
			return Subnet(netip.PrefixFrom(v.addr, v.addr.BitLen())), nil
		case schema.KindString:
			p, err := netip.ParsePrefix(strings.TrimSpace(v.s))
			if err != nil {
				return Value{}, castFailure(v, target)
			}
			return Subnet(p), nil
		}
	case schema.KindEnum:
		labels := target.Labels()
		switch v.kind {
		case schema.KindEnum:
			if v.e >= uint64(len(labels)) {
				return Value{}, castFailure(v, target)
			}
			return v, nil
		case schema.KindString:
			for i, l := range labels {
				if l == v.s {
					return Enum(uint64(i)), nil
				}
			}
			return Value{}, castFailure(v, target)
		case schema.KindInt64:
			if v.i < 0 || v.i >= int64(len(labels)) {
				return Value{}, castFailure(v, target)
			}
			return Enum(uint64(v.i)), nil
		case schema.KindUint64:
			if v.u >= uint64(len(labels)) {
				return Value{}, castFailure(v, target)
			}
			return Enum(v.u), nil
		}
	}
	return Value{}, serrors.Newf(serrors.ErrorTypeTypeMismatch,
		"expected %s but got %s", target.Kind(), v.kind)
}

// castDuration honors the target's unit attribute (seconds when absent):
// bare numbers scale by the unit, and strings that do not parse as a Go
// duration are parsed as a bare number and scaled by the unit.
func castDuration(v Value, target schema.Type) (Value, error) {
	unit, hasUnit := target.Attr("unit")
	if !hasUnit {
		unit = "s"
	}
	scale, err := unitDuration(unit)
	if err != nil {
		return Value{}, serrors.Wrap(err, serrors.ErrorTypeCastFailure,
			"invalid duration unit on protected type")
	}
	switch v.kind {
	case schema.KindDuration:
		return v, nil
	case schema.KindInt64:
		return Duration(time.Duration(v.i) * scale), nil
	case schema.KindUint64:
		if v.u > uint64(math.MaxInt64) {
			return Value{}, castFailure(v, target)
		}
		return Duration(time.Duration(v.u) * scale), nil
	case schema.KindDouble:
		return Duration(time.Duration(v.f * float64(scale))), nil
	case schema.KindString:
		s := strings.TrimSpace(v.s)
		if d, err := time.ParseDuration(s); err == nil {
			return Duration(d), nil
		}
		// Bare numbers scale by the declared unit.
		if f, err := strconv.ParseFloat(s, 64); err == nil {
			return Duration(time.Duration(f * float64(scale))), nil
		}
		return Value{}, castFailure(v, target)
	}
	return Value{}, castFailure(v, target)
}

// unitDuration maps a unit attribute to its length.
func unitDuration(unit string) (time.Duration, error) {
	switch unit {
	case "ns":
		return time.Nanosecond, nil
	case "us", "µs":
		return time.Microsecond, nil
	case "ms":
		return time.Millisecond, nil
	case "s":
		return time.Second, nil
	case "m", "min":
		return time.Minute, nil
	case "h":
		return time.Hour, nil
	case "d":
		return 24 * time.Hour, nil
	}
	return 0, serrors.Newf(serrors.ErrorTypeCastFailure, "unknown duration unit %q", unit)
}

func castFailure(v Value, target schema.Type) error {
	return serrors.Newf(serrors.ErrorTypeCastFailure,
		"cannot cast %s to %s", v.kind, target).
		WithDetail("target", target.String())
}

func parseUint(s string) (uint64, error) {
	return strconv.ParseUint(s, 10, 64)
}

package series

import (
	"net/netip"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/seriate-io/seriate/pkg/schema"
)

func TestCastNumeric(t *testing.T) {
	tests := []struct {
		name   string
		value  Value
		target schema.Type
		want   Value
		fails  bool
	}{
		{name: "int to double", value: Int(3), target: schema.Double(), want: Float(3)},
		{name: "uint to int", value: Uint(9), target: schema.Int64(), want: Int(9)},
		{name: "negative int to uint", value: Int(-1), target: schema.Uint64(), fails: true},
		{name: "integral double to int", value: Float(4), target: schema.Int64(), want: Int(4)},
		{name: "fractional double to int", value: Float(4.5), target: schema.Int64(), fails: true},
		{name: "string to int", value: String("12"), target: schema.Int64(), want: Int(12)},
		{name: "string to double", value: String("1.5"), target: schema.Double(), want: Float(1.5)},
		{name: "garbage to double", value: String("x"), target: schema.Double(), fails: true},
		{name: "string to bool", value: String("true"), target: schema.Bool(), want: Bool(true)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := castValue(tt.value, tt.target)
			if tt.fails {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCastDurationUnits(t *testing.T) {
	ms := schema.Duration().WithAttrs(schema.Attribute{Key: "unit", Value: "ms"})

	got, err := castValue(Int(1500), ms)
	require.NoError(t, err)
	assert.Equal(t, Duration(1500*time.Millisecond), got)

	got, err = castValue(Float(0.5), ms)
	require.NoError(t, err)
	assert.Equal(t, Duration(500*time.Microsecond), got)

	// A unit inside the string wins over the attribute.
	got, err = castValue(String("2m"), ms)
	require.NoError(t, err)
	assert.Equal(t, Duration(2*time.Minute), got)

	// A bare number scales by the attribute.
	got, err = castValue(String("250"), ms)
	require.NoError(t, err)
	assert.Equal(t, Duration(250*time.Millisecond), got)

	// No unit attribute defaults to seconds.
	got, err = castValue(Int(2), schema.Duration())
	require.NoError(t, err)
	assert.Equal(t, Duration(2*time.Second), got)
}

func TestCastTime(t *testing.T) {
	got, err := castValue(String("2024-05-01T12:30:00Z"), schema.Time())
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 5, 1, 12, 30, 0, 0, time.UTC), got.t)

	got, err = castValue(Int(1714566600), schema.Time())
	require.NoError(t, err)
	assert.Equal(t, time.Unix(1714566600, 0).UTC(), got.t)

	_, err = castValue(String("not a time"), schema.Time())
	require.Error(t, err)
}

func TestCastNetwork(t *testing.T) {
	got, err := castValue(String("192.168.0.1"), schema.IP())
	require.NoError(t, err)
	assert.Equal(t, netip.MustParseAddr("192.168.0.1"), got.addr)

	got, err = castValue(String("10.0.0.0/8"), schema.Subnet())
	require.NoError(t, err)
	assert.Equal(t, netip.MustParsePrefix("10.0.0.0/8"), got.pfx)

	got, err = castValue(IP(netip.MustParseAddr("10.1.2.3")), schema.Subnet())
	require.NoError(t, err)
	assert.Equal(t, netip.MustParsePrefix("10.1.2.3/32"), got.pfx)

	_, err = castValue(String("999.0.0.1"), schema.IP())
	require.Error(t, err)
}

func TestCastToString(t *testing.T) {
	got, err := castValue(Int(-5), schema.String_())
	require.NoError(t, err)
	assert.Equal(t, String("-5"), got)

	got, err = castValue(Bool(true), schema.String_())
	require.NoError(t, err)
	assert.Equal(t, String("true"), got)

	got, err = castValue(IP(netip.MustParseAddr("::1")), schema.String_())
	require.NoError(t, err)
	assert.Equal(t, String("::1"), got)
}

package json

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMarshalOneLine(t *testing.T) {
	s, err := MarshalOneLine(map[string]interface{}{"a": 1})
	require.NoError(t, err)
	assert.Equal(t, `{"a":1}`, s)

	s, err = MarshalOneLine("x <y>")
	require.NoError(t, err)
	assert.Equal(t, `"x <y>"`, s)

	s, err = MarshalOneLine(nil)
	require.NoError(t, err)
	assert.Equal(t, "null", s)
}

func TestDecoderUseNumber(t *testing.T) {
	dec := GetDecoder(bytes.NewReader([]byte(`{"n": 9007199254740993}`)))
	defer PutDecoder(dec)
	dec.UseNumber()

	var m map[string]interface{}
	require.NoError(t, dec.Decode(&m))
	n, ok := m["n"].(interface{ Int64() (int64, error) })
	require.True(t, ok, "expected a number, got %T", m["n"])
	v, err := n.Int64()
	require.NoError(t, err)
	assert.Equal(t, int64(9007199254740993), v)
}

func TestBufferPoolReset(t *testing.T) {
	buf := GetBuffer()
	buf.WriteString("junk")
	PutBuffer(buf)
	buf2 := GetBuffer()
	assert.Equal(t, 0, buf2.Len())
}

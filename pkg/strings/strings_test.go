package strings

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSprintf(t *testing.T) {
	assert.Equal(t, "x=1 y=two", Sprintf("x=%d y=%s", 1, "two"))
}

func TestBuilderReuse(t *testing.T) {
	sb := GetBuilder()
	sb.WriteString("junk")
	PutBuilder(sb)
	sb2 := GetBuilder()
	assert.Equal(t, 0, sb2.Len())
}

// Package strings provides pooled string builders for hot-path
// formatting, mirroring the allocation discipline used across the
// codebase.
package strings

import (
	"fmt"
	"strings"
	"sync"
)

const maxPooledBuilderCap = 64 * 1024

var builderPool = sync.Pool{
	New: func() interface{} {
		return &strings.Builder{}
	},
}

// GetBuilder returns a reset string builder from the pool.
func GetBuilder() *strings.Builder {
	sb := builderPool.Get().(*strings.Builder)
	sb.Reset()
	return sb
}

// PutBuilder returns a builder to the pool. Oversized builders are
// dropped to keep the pool footprint bounded.
func PutBuilder(sb *strings.Builder) {
	if sb.Cap() > maxPooledBuilderCap {
		return
	}
	builderPool.Put(sb)
}

// Sprintf formats using a pooled builder.
func Sprintf(format string, args ...interface{}) string {
	sb := GetBuilder()
	defer PutBuilder(sb)
	fmt.Fprintf(sb, format, args...)
	return sb.String()
}

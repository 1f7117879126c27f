package pool

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMapPoolClearsOnPut(t *testing.T) {
	m := GetMap()
	m["k"] = 1
	PutMap(m)
	m2 := GetMap()
	assert.Empty(t, m2)
}

func TestPutMapNil(t *testing.T) {
	PutMap(nil) // must not panic
}

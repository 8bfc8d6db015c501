package mempool

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type node struct {
	id   int
	next *node
}

func TestGetReturnsZeroedObjects(t *testing.T) {
	p := New[node]()

	a := p.Get()
	require.NotNil(t, a)
	assert.Equal(t, 0, a.id)
	assert.Nil(t, a.next)

	a.id = 7
	p.Put(a)

	b := p.Get()
	assert.Equal(t, 0, b.id, "recycled object must be zeroed")
}

func TestPutRecyclesObjects(t *testing.T) {
	p := New[node]()

	a := p.Get()
	p.Put(a)
	b := p.Get()

	assert.Same(t, a, b)
	assert.Equal(t, 1, p.InUse())
}

func TestInUseTracking(t *testing.T) {
	p := New[node]()

	objs := make([]*node, 10)
	for i := range objs {
		objs[i] = p.Get()
	}
	assert.Equal(t, 10, p.InUse())

	for _, o := range objs {
		p.Put(o)
	}
	assert.Equal(t, 0, p.InUse())
}

func TestSlabGrowth(t *testing.T) {
	p := New[node]()

	for i := 0; i < slabSize+1; i++ {
		p.Get()
	}
	assert.Equal(t, 2, p.Slabs())
}

func TestReset(t *testing.T) {
	p := New[node]()

	for i := 0; i < 3*slabSize; i++ {
		p.Get()
	}
	p.Reset()

	assert.Equal(t, 0, p.InUse())
	assert.Equal(t, 1, p.Slabs())

	a := p.Get()
	assert.Equal(t, 0, a.id)
	assert.Equal(t, 1, p.InUse())
}

func TestPutNilIsNoop(t *testing.T) {
	p := New[node]()
	p.Put(nil)
	assert.Equal(t, 0, p.InUse())
}

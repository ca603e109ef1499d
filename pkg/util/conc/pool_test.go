package conc

import (
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
)

func TestPool(t *testing.T) {
	pool := NewDefaultPool[int]()
	defer pool.Release()

	futures := make([]*Future[int], 0, 10)
	for i := 0; i < 10; i++ {
		i := i
		futures = append(futures, pool.Submit(func() (int, error) {
			return i * i, nil
		}))
	}
	assert.NoError(t, AwaitAll(futures...))
	for i, f := range futures {
		v, err := f.Await()
		assert.NoError(t, err)
		assert.Equal(t, i*i, v)
	}
	assert.Greater(t, pool.Cap(), 0)
}

func TestPoolError(t *testing.T) {
	pool := NewPool[string](2, WithPreAlloc(true))
	defer pool.Release()

	errBoom := errors.New("boom")
	ok := pool.Submit(func() (string, error) { return "ok", nil })
	bad := pool.Submit(func() (string, error) { return "", errBoom })

	assert.True(t, ok.OK())
	assert.Equal(t, "ok", ok.Value())
	assert.ErrorIs(t, bad.Err(), errBoom)
	assert.ErrorIs(t, AwaitAll(ok, bad), errBoom)
}

func TestGo(t *testing.T) {
	f := Go(func() (int, error) { return 7, nil })
	<-f.Inner()
	assert.Equal(t, 7, f.Value())
}

func TestPoolConcealPanic(t *testing.T) {
	pool := NewPool[int](1, WithName("test"), WithConcealPanic(true))
	defer pool.Release()

	f := pool.Submit(func() (int, error) { panic("boom") })
	_, err := f.Await()
	assert.ErrorContains(t, err, "pool test: task panicked: boom")

	assert.True(t, pool.Submit(func() (int, error) { return 1, nil }).OK())
}

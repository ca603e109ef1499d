package typeutil

import (
	"sort"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSet(t *testing.T) {
	s := NewSet("id", "name")
	s.Insert("name", "port")
	assert.Equal(t, 3, s.Len())
	assert.True(t, s.Contain("id", "port"))
	assert.False(t, s.Contain("id", "missing"))

	s.Remove("port")
	got := s.Collect()
	sort.Strings(got)
	assert.Equal(t, []string{"id", "name"}, got)
}

func TestConcurrentSet(t *testing.T) {
	s := NewConcurrentSet[string]()

	var (
		wg       sync.WaitGroup
		inserted = make(chan bool, 16)
	)
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			inserted <- s.Insert("a")
		}()
	}
	wg.Wait()
	close(inserted)

	wins := 0
	for ok := range inserted {
		if ok {
			wins++
		}
	}
	assert.Equal(t, 1, wins)
	assert.Equal(t, 1, s.Len())
	assert.True(t, s.Contain("a"))

	assert.True(t, s.Remove("a"))
	assert.False(t, s.Remove("a"))
	assert.Equal(t, 0, s.Len())
	assert.Empty(t, s.Collect())
}

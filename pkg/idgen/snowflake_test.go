package idgen

import (
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSnowflake_UniqueAndIncreasing(t *testing.T) {
	s, err := NewSnowflake(3)
	require.NoError(t, err)

	prev := int64(0)
	for i := 0; i < 10000; i++ {
		id := s.Generate()
		require.Greater(t, id, prev)
		prev = id
	}
}

func TestSnowflake_Concurrent(t *testing.T) {
	s, err := NewSnowflake(1)
	require.NoError(t, err)

	var mu sync.Mutex
	seen := make(map[int64]struct{})
	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 1000; i++ {
				id := s.Generate()
				mu.Lock()
				seen[id] = struct{}{}
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	assert.Len(t, seen, 8000)
}

func TestNewSnowflake_RejectsWorker(t *testing.T) {
	_, err := NewSnowflake(maxWorkerID + 1)
	assert.Error(t, err)
	_, err = NewSnowflake(-1)
	assert.Error(t, err)
}

func TestDocumentNo(t *testing.T) {
	a := DocumentNo(PrefixSale)
	b := DocumentNo(PrefixSale)
	assert.True(t, strings.HasPrefix(a, "SAL"))
	assert.NotEqual(t, a, b)
	assert.True(t, strings.HasPrefix(TransactionNo(), "TXN"))
}

package utils

import (
	"sync"
	"sync/atomic"
	"testing"
)

func TestSetNoDuplicates(t *testing.T) {
	s := NewSet()

	added := s.Add("THY|09:10|10:25|1250")
	if !added {
		t.Error("first Add should return true")
	}

	added = s.Add("THY|09:10|10:25|1250")
	if added {
		t.Error("second Add of same key should return false")
	}

	if s.Size() != 1 {
		t.Errorf("size: got %d, want 1", s.Size())
	}
}

func TestSetConcurrency(t *testing.T) {
	s := NewSet()
	var added int64
	var wg sync.WaitGroup

	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if s.Add("same-key") {
				atomic.AddInt64(&added, 1)
			}
		}()
	}
	wg.Wait()

	if added != 1 {
		t.Errorf("expected exactly 1 successful add, got %d", added)
	}
}

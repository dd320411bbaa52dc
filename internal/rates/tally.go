package rates

import "sync"

// Tally counts recovered sources. It is safe for concurrent use.
type Tally struct {
	hits  int
	count int
	mu    sync.Mutex
}

func (t *Tally) Add(recovered bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if recovered {
		t.hits++
	}
	t.count++
}

func (t *Tally) Hits() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.hits
}

func (t *Tally) Count() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.count
}

// Rate is the recovered fraction, 0 for an empty tally.
func (t *Tally) Rate() float64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.count == 0 {
		return 0
	}
	return float64(t.hits) / float64(t.count)
}

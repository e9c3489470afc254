package crawl

import "sync"

// visitedSet is the per-run URL dedup structure. Add is an atomic
// check-and-mark so concurrent workers can never double-process a URL.
type visitedSet struct {
	mu   sync.Mutex
	urls map[string]struct{}
}

func newVisitedSet() *visitedSet {
	return &visitedSet{urls: make(map[string]struct{})}
}

// Add marks url visited, returning false if it already was.
func (v *visitedSet) Add(url string) bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	if _, seen := v.urls[url]; seen {
		return false
	}
	v.urls[url] = struct{}{}
	return true
}

func (v *visitedSet) Len() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return len(v.urls)
}

package upload

import "sync"

// dynamicSemaphore is a counting semaphore whose capacity can be
// lowered while in use, implementing "on the first failure, shrink
// the concurrency ceiling to however many uploads were active at that
// moment" (spec.md §4.4.2 step 8).
type dynamicSemaphore struct {
	mu       sync.Mutex
	cond     *sync.Cond
	capacity int
	inUse    int
}

func newDynamicSemaphore(capacity int) *dynamicSemaphore {
	s := &dynamicSemaphore{capacity: capacity}
	s.cond = sync.NewCond(&s.mu)
	return s
}

func (s *dynamicSemaphore) acquire() {
	s.mu.Lock()
	for s.inUse >= s.capacity {
		s.cond.Wait()
	}
	s.inUse++
	s.mu.Unlock()
}

// release frees a slot, letting any waiter re-check capacity.
func (s *dynamicSemaphore) release() {
	s.mu.Lock()
	s.inUse--
	s.cond.Broadcast()
	s.mu.Unlock()
}

// activeCount returns the number of slots currently held. Caller must
// call this before releasing its own slot for an accurate snapshot.
func (s *dynamicSemaphore) activeCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.inUse
}

// shrinkTo lowers the capacity (never raises it) to at least 1, and
// wakes waiters so they re-check the new ceiling.
func (s *dynamicSemaphore) shrinkTo(newCap int) {
	if newCap < 1 {
		newCap = 1
	}
	s.mu.Lock()
	if newCap < s.capacity {
		s.capacity = newCap
	}
	s.cond.Broadcast()
	s.mu.Unlock()
}

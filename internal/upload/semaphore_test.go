package upload

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDynamicSemaphoreBoundsConcurrency(t *testing.T) {
	sem := newDynamicSemaphore(2)
	var mu sync.Mutex
	active, maxActive := 0, 0
	var wg sync.WaitGroup

	for i := 0; i < 6; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			sem.acquire()
			mu.Lock()
			active++
			if active > maxActive {
				maxActive = active
			}
			mu.Unlock()

			time.Sleep(10 * time.Millisecond)

			mu.Lock()
			active--
			mu.Unlock()
			sem.release()
		}()
	}
	wg.Wait()
	assert.LessOrEqual(t, maxActive, 2)
}

func TestDynamicSemaphoreShrinkToNeverRaisesCapacity(t *testing.T) {
	sem := newDynamicSemaphore(2)
	sem.shrinkTo(5)
	assert.Equal(t, 2, sem.capacity)
}

func TestDynamicSemaphoreShrinkToAtLeastOne(t *testing.T) {
	sem := newDynamicSemaphore(4)
	sem.shrinkTo(0)
	assert.Equal(t, 1, sem.capacity)
}

func TestDynamicSemaphoreActiveCount(t *testing.T) {
	sem := newDynamicSemaphore(3)
	sem.acquire()
	sem.acquire()
	assert.Equal(t, 2, sem.activeCount())
	sem.release()
	assert.Equal(t, 1, sem.activeCount())
	sem.release()
}

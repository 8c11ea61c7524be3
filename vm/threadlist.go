package vm

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// ThreadList is the registry of live Threads (spec §4, component C6): it
// supports bulk stop and is the point of synchronization for
// ThreadList.Stop's "happens-before VM shutdown join" guarantee (spec
// §5). Guarded by a single writer lock for add/remove/stop, per spec §5
// "Shared-resource policy".
type ThreadList struct {
	mu      sync.Mutex
	threads map[uuid.UUID]*Thread
}

// NewThreadList constructs an empty ThreadList.
func NewThreadList() *ThreadList {
	return &ThreadList{threads: make(map[uuid.UUID]*Thread)}
}

// Add registers t as live.
func (l *ThreadList) Add(t *Thread) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.threads[t.ID()] = t
}

// Remove deregisters t.
func (l *ThreadList) Remove(t *Thread) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.threads, t.ID())
}

// Stop sets the stop flag on every registered Thread (spec §5
// "Cancellation").
func (l *ThreadList) Stop() {
	l.mu.Lock()
	threads := make([]*Thread, 0, len(l.threads))
	for _, t := range l.threads {
		threads = append(threads, t)
	}
	l.mu.Unlock()

	for _, t := range threads {
		t.RequestStop()
	}
}

// StopAndWait requests every live Thread stop, then waits up to grace for
// all of them to actually terminate before returning (config.VMConfig's
// ShutdownGrace). Threads still running once grace elapses are left
// running; StopAndWait does not block past it.
func (l *ThreadList) StopAndWait(grace time.Duration) {
	l.mu.Lock()
	threads := make([]*Thread, 0, len(l.threads))
	for _, t := range l.threads {
		threads = append(threads, t)
	}
	l.mu.Unlock()

	for _, t := range threads {
		t.RequestStop()
	}

	done := make(chan struct{})
	go func() {
		for _, t := range threads {
			if join := t.JoinHandle(); join != nil {
				<-join
			}
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(grace):
	}
}

// Len reports the number of currently registered Threads.
func (l *ThreadList) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.threads)
}

package sessions

import (
	"sync"
	"time"
)

type scheduled struct {
	id    string
	timer *time.Timer
}

// Scheduler runs one deferred teardown per session key. Scheduling a key
// again replaces its pending task, and a task only runs if it is still the
// one registered for its key when it fires.
type Scheduler struct {
	mu     sync.Mutex
	tasks  map[string]scheduled
	closed bool
}

func NewScheduler() *Scheduler {
	return &Scheduler{tasks: make(map[string]scheduled)}
}

func (s *Scheduler) Schedule(key, id string, d time.Duration, fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	if prev, ok := s.tasks[key]; ok {
		prev.timer.Stop()
	}
	s.tasks[key] = scheduled{
		id: id,
		timer: time.AfterFunc(d, func() {
			if s.take(key, id) {
				fn()
			}
		}),
	}
}

// take removes the task for key if it still belongs to id.
func (s *Scheduler) take(key, id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	cur, ok := s.tasks[key]
	if !ok || cur.id != id {
		return false
	}
	delete(s.tasks, key)
	return true
}

// Cancel drops the pending task for key if it belongs to id.
func (s *Scheduler) Cancel(key, id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if cur, ok := s.tasks[key]; ok && cur.id == id {
		cur.timer.Stop()
		delete(s.tasks, key)
	}
}

func (s *Scheduler) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.tasks)
}

// Stop cancels every pending task. Later calls to Schedule are ignored.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for key, t := range s.tasks {
		t.timer.Stop()
		delete(s.tasks, key)
	}
	s.closed = true
}

package cron

import (
	"sync"

	"github.com/jasonlvhit/gocron"
)

// schedule owns a gocron scheduler shared by a job's Process and Stop, which
// run on different goroutines. Stop may come first, and may come twice.
type schedule struct {
	mu        sync.Mutex
	scheduler *gocron.Scheduler
	stopped   chan bool
	done      bool
}

// run registers the job's entries and blocks until stop is called.
func (s *schedule) run(register func(*gocron.Scheduler)) {
	s.mu.Lock()
	if s.done {
		s.mu.Unlock()
		return
	}
	s.scheduler = gocron.NewScheduler()
	register(s.scheduler)
	s.stopped = s.scheduler.Start()
	stopped := s.stopped
	s.mu.Unlock()

	<-stopped
}

func (s *schedule) stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.done {
		return
	}
	s.done = true
	// closing stopped ends gocron's ticker goroutine, which alone reads the
	// job list; the scheduler is dropped rather than cleared under it
	if s.stopped != nil {
		close(s.stopped)
	}
}

package daemons

import (
	"sync"

	"github.com/phuanduong/ledger/jobs"
)

// Worker is a long running daemon process.
type Worker interface {
	Start()
	Stop()
}

type CronJob struct {
	Jobs []jobs.Job

	wg sync.WaitGroup
}

func NewCronJob(list ...jobs.Job) *CronJob {
	return &CronJob{Jobs: list}
}

func (c *CronJob) Stop() {
	for _, job := range c.Jobs {
		job.Stop()
	}
}

// Start runs every job on its own goroutine and blocks until all of them
// have stopped.
func (c *CronJob) Start() {
	for _, job := range c.Jobs {
		c.wg.Add(1)
		go c.Process(job)
	}

	c.wg.Wait()
}

func (c *CronJob) Process(job jobs.Job) {
	defer c.wg.Done()

	job.Process()
}

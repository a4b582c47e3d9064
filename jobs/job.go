package jobs

// Job is a unit of scheduled work. Process blocks until the job's schedule
// stops.
type Job interface {
	Process()
	Stop()
}

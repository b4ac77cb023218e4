package scheduler

import (
	"context"
	"os"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// Job is a task run periodically by the scheduler
type Job struct {
	Name     string
	Interval time.Duration
	// RunOnStart runs the job once when the scheduler starts
	RunOnStart bool
	Run        func(ctx context.Context) error
}

// Scheduler manages periodic execution of maintenance jobs such as offer expiry
type Scheduler struct {
	jobs     []Job
	logger   *logrus.Logger
	stopChan chan struct{}
	wg       sync.WaitGroup
	jobMutex sync.Mutex // Ensures sequential job execution
	ctx      context.Context
	cancel   context.CancelFunc
	stopOnce sync.Once
}

// NewScheduler creates a new scheduler
func NewScheduler(logger *logrus.Logger, jobs ...Job) *Scheduler {
	if logger == nil {
		logger = logrus.New()
		logger.SetFormatter(&logrus.JSONFormatter{})
		logger.SetOutput(os.Stdout)
		logger.SetLevel(logrus.InfoLevel)
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		jobs:     jobs,
		logger:   logger,
		stopChan: make(chan struct{}),
		ctx:      ctx,
		cancel:   cancel,
	}
}

// OfferExpiryJob refuses expired offers every interval
func OfferExpiryJob(interval time.Duration, expire func(ctx context.Context) (int, error)) Job {
	return Job{
		Name:       "offer_expiry",
		Interval:   interval,
		RunOnStart: true,
		Run: func(ctx context.Context) error {
			_, err := expire(ctx)
			return err
		},
	}
}

// Start begins the scheduled tasks
func (s *Scheduler) Start() {
	for _, job := range s.jobs {
		if job.Interval <= 0 {
			s.logger.WithField("job", job.Name).Warn("Job has no interval, not scheduled")
			continue
		}
		s.wg.Add(1)
		go s.runJob(job)
	}
}

// runJob handles the ticker loop of a single job
func (s *Scheduler) runJob(job Job) {
	defer s.wg.Done()

	if job.RunOnStart {
		s.execute(job)
	}

	ticker := time.NewTicker(job.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-s.stopChan:
			return
		case <-ticker.C:
			s.execute(job)
		}
	}
}

// execute runs a job, one job at a time
func (s *Scheduler) execute(job Job) {
	s.jobMutex.Lock()
	defer s.jobMutex.Unlock()

	if s.ctx.Err() != nil {
		return
	}

	logger := s.logger.WithField("job", job.Name)
	start := time.Now()
	logger.Debug("Starting scheduled job")

	if err := job.Run(s.ctx); err != nil {
		logger.WithError(err).Error("Scheduled job failed")
		return
	}
	logger.WithField("duration_ms", time.Since(start).Milliseconds()).Debug("Scheduled job completed")
}

// Stop gracefully stops the scheduler, cancelling running jobs
func (s *Scheduler) Stop() {
	s.stopOnce.Do(func() {
		s.cancel()
		close(s.stopChan)
	})
	s.wg.Wait()
}

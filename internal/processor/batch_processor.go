package processor

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"estate/server/config"
	"estate/server/internal/estate"
	"estate/server/internal/queue"
)

// Importer creates one batch of properties atomically
type Importer interface {
	ImportProperties(ctx context.Context, inputs []estate.PropertyInput) (int, error)
}

// ImportBatch is one unit of work of the import queue
type ImportBatch struct {
	ID         string
	Properties []estate.PropertyInput
}

type BatchState string

const (
	BatchQueued    BatchState = "queued"
	BatchCompleted BatchState = "completed"
	BatchFailed    BatchState = "failed"
)

// BatchStatus reports the outcome of an import batch
type BatchStatus struct {
	ID       string     `json:"id"`
	State    BatchState `json:"state"`
	Size     int        `json:"size"`
	Created  int        `json:"created"`
	Attempts int        `json:"attempts"`
	Error    string     `json:"error,omitempty"`
}

// BatchProcessor handles the processing of import batches
type BatchProcessor struct {
	importer Importer
	logger   *logrus.Logger
	config   *config.Config
	queue    *queue.Queue[ImportBatch]
	ctx      context.Context
	cancel   context.CancelFunc

	mu       sync.RWMutex
	statuses map[string]*BatchStatus
	once     sync.Once
}

// NewBatchProcessor creates a new batch processor instance
func NewBatchProcessor(importer Importer, queue *queue.Queue[ImportBatch], config *config.Config, logger *logrus.Logger) *BatchProcessor {
	if logger == nil {
		logger = logrus.New()
		logger.SetFormatter(&logrus.JSONFormatter{})
		logger.SetOutput(os.Stdout)
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &BatchProcessor{
		importer: importer,
		queue:    queue,
		config:   config,
		logger:   logger,
		ctx:      ctx,
		cancel:   cancel,
		statuses: make(map[string]*BatchStatus),
	}
}

// Start subscribes the processor to the import queue
func (p *BatchProcessor) Start() {
	p.once.Do(func() {
		p.queue.Subscribe(func(batch ImportBatch) error {
			return p.processBatch(batch)
		})
	})
}

// Stop interrupts pending retries
func (p *BatchProcessor) Stop() {
	p.cancel()
}

// Enqueue splits the inputs into batches of at most MaxBatchSize and queues them.
// It returns the ids of the queued batches.
func (p *BatchProcessor) Enqueue(inputs []estate.PropertyInput) ([]string, error) {
	size := p.config.BatchProcessing.MaxBatchSize
	if size <= 0 {
		size = len(inputs)
	}

	var ids []string
	for start := 0; start < len(inputs); start += size {
		end := start + size
		if end > len(inputs) {
			end = len(inputs)
		}
		batch := ImportBatch{ID: uuid.New().String(), Properties: inputs[start:end]}

		p.setStatus(&BatchStatus{ID: batch.ID, State: BatchQueued, Size: len(batch.Properties)})
		if err := p.queue.Push(batch); err != nil {
			p.forget(batch.ID)
			return ids, fmt.Errorf("failed to queue import batch: %w", err)
		}
		ids = append(ids, batch.ID)
	}
	return ids, nil
}

// Status returns the status of a batch queued by this processor
func (p *BatchProcessor) Status(id string) (BatchStatus, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	status, ok := p.statuses[id]
	if !ok {
		return BatchStatus{}, false
	}
	return *status, true
}

// processBatch imports a single batch with retry logic. Business validation
// failures are final and never retried.
func (p *BatchProcessor) processBatch(batch ImportBatch) error {
	logger := p.logger.WithFields(logrus.Fields{
		"batch_id":   batch.ID,
		"batch_size": len(batch.Properties),
	})

	var err error
	attempts := 0
	for attempt := 0; attempt <= p.config.BatchProcessing.MaxRetries; attempt++ {
		if attempt > 0 {
			logger.Infof("Retrying batch processing, attempt %d of %d", attempt, p.config.BatchProcessing.MaxRetries)
			select {
			case <-time.After(time.Duration(p.config.BatchProcessing.RetryDelay) * time.Second):
			case <-p.ctx.Done():
				err = errors.Join(err, p.ctx.Err())
				p.finish(batch, 0, attempts, err)
				return fmt.Errorf("batch processing interrupted: %w", err)
			}
		}

		attempts++
		var created int
		created, err = p.importer.ImportProperties(p.ctx, batch.Properties)
		if err == nil {
			logger.Infof("Successfully processed batch of %d properties", created)
			p.finish(batch, created, attempts, nil)
			return nil
		}

		logger.WithError(err).Error("Batch processing failed")
		var bizErr *estate.Error
		if errors.As(err, &bizErr) {
			p.finish(batch, 0, attempts, err)
			return fmt.Errorf("batch rejected: %w", err)
		}
	}

	p.finish(batch, 0, attempts, err)
	return fmt.Errorf("failed to process batch after %d attempts: %w", attempts, err)
}

func (p *BatchProcessor) finish(batch ImportBatch, created, attempts int, err error) {
	status := &BatchStatus{ID: batch.ID, Size: len(batch.Properties), Created: created, Attempts: attempts, State: BatchCompleted}
	if err != nil {
		status.State = BatchFailed
		status.Error = err.Error()
	}
	p.setStatus(status)
}

func (p *BatchProcessor) setStatus(status *BatchStatus) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.statuses[status.ID] = status
}

func (p *BatchProcessor) forget(id string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.statuses, id)
}

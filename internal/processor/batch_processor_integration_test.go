package processor

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"estate/server/config"
	"estate/server/internal/database"
	"estate/server/internal/estate"
	"estate/server/internal/models"
	"estate/server/internal/queue"
)

func setupTestService(t *testing.T) *estate.Service {
	t.Helper()
	logger := logrus.New()
	logger.SetLevel(logrus.ErrorLevel)

	db, err := database.NewDatabase("sqlite", filepath.Join(t.TempDir(), "estate.db"), logger)
	require.NoError(t, err)
	require.NoError(t, db.RunMigrations())
	t.Cleanup(func() { db.Close() })

	return estate.NewService(db, nil, t.TempDir(), logger)
}

func TestBatchProcessingIntegration(t *testing.T) {
	service := setupTestService(t)
	cfg := &config.Config{}
	cfg.BatchProcessing.MaxBatchSize = 2
	cfg.BatchProcessing.MaxRetries = 1
	logger := logrus.New()
	logger.SetLevel(logrus.ErrorLevel)

	importQueue := queue.New[ImportBatch]("imports", 10, logger)
	processor := NewBatchProcessor(service, importQueue, cfg, logger)
	processor.Start()
	importQueue.Start()

	valid := inputs(3)
	city := "Amsterdam"
	valid[0].City = &city

	invalid := inputs(2)
	invalid[1].ExpectedPrice = new(float64)

	validIDs, err := processor.Enqueue(valid)
	require.NoError(t, err)
	invalidIDs, err := processor.Enqueue(invalid)
	require.NoError(t, err)

	// Close drains the queue before returning
	require.NoError(t, importQueue.Close())
	processor.Stop()

	for _, id := range validIDs {
		status, ok := processor.Status(id)
		require.True(t, ok)
		assert.Equal(t, BatchCompleted, status.State, status.Error)
	}
	status, _ := processor.Status(invalidIDs[0])
	assert.Equal(t, BatchFailed, status.State)
	assert.Contains(t, status.Error, "Property 2")

	properties, total, err := service.ListProperties(context.Background(), models.PropertyFilter{})
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
	assert.Len(t, properties, 3)
}

package main

import (
	"errors"
	"os"
	"syscall"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWaitForShutdown(t *testing.T) {
	logger := logrus.New()
	logger.SetLevel(logrus.ErrorLevel)

	t.Run("signal", func(t *testing.T) {
		quit := make(chan os.Signal, 1)
		quit <- syscall.SIGTERM
		assert.NoError(t, waitForShutdown(quit, make(chan error), logger))
	})

	t.Run("server error", func(t *testing.T) {
		listenErr := errors.New("listen tcp :5250: bind: address already in use")
		serverErr := make(chan error, 1)
		serverErr <- listenErr

		err := waitForShutdown(make(chan os.Signal), serverErr, logger)
		require.Error(t, err)
		assert.ErrorIs(t, err, listenErr)
	})

	t.Run("server closed", func(t *testing.T) {
		serverErr := make(chan error)
		close(serverErr)
		assert.NoError(t, waitForShutdown(make(chan os.Signal), serverErr, logger))
	})
}

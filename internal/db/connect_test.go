package db

import (
	"context"
	"io"
	"path/filepath"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConnect(t *testing.T) {
	logger := logrus.New()
	logger.SetOutput(io.Discard)

	store, err := Connect(context.Background(), "sqlite", filepath.Join(t.TempDir(), "connect.db"), logger,
		ConnectConfig{Attempts: 2, InitialDelay: time.Millisecond})
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	repos, err := store.ListRepositories(context.Background())
	require.NoError(t, err)
	assert.Empty(t, repos)
}

func TestConnect_GivesUp(t *testing.T) {
	logger := logrus.New()
	logger.SetOutput(io.Discard)

	store, err := Connect(context.Background(), "oracle", "", logger,
		ConnectConfig{Attempts: 2, InitialDelay: time.Millisecond})
	assert.Error(t, err)
	assert.Nil(t, store)
}

package app

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type countingMaterializer struct {
	calls atomic.Int32
	done  chan struct{}
	err   error
}

func (m *countingMaterializer) MaterializeAll(ctx context.Context) error {
	if m.calls.Add(1) == 1 {
		close(m.done)
	}
	return m.err
}

func TestScheduler_RunsImmediately(t *testing.T) {
	m := &countingMaterializer{done: make(chan struct{})}

	s, err := NewScheduler(m, "0 3 * * *", time.UTC, zap.NewNop())
	require.NoError(t, err)

	require.NoError(t, s.Start(context.Background()))

	select {
	case <-m.done:
	case <-time.After(5 * time.Second):
		t.Fatal("materialization did not run on start")
	}

	require.NoError(t, s.Stop())
	// Повторная остановка безопасна
	require.NoError(t, s.Stop())
	assert.GreaterOrEqual(t, m.calls.Load(), int32(1))
}

func TestScheduler_JobErrorDoesNotStop(t *testing.T) {
	m := &countingMaterializer{done: make(chan struct{}), err: errors.New("db down")}

	s, err := NewScheduler(m, "*/5 * * * *", nil, zap.NewNop())
	require.NoError(t, err)
	require.NoError(t, s.Start(context.Background()))

	select {
	case <-m.done:
	case <-time.After(5 * time.Second):
		t.Fatal("materialization did not run on start")
	}

	assert.NoError(t, s.Stop())
}

func TestScheduler_InvalidCron(t *testing.T) {
	_, err := NewScheduler(&countingMaterializer{}, "  ", time.UTC, zap.NewNop())
	assert.ErrorIs(t, err, ErrEmptyCronExpr)

	s, err := NewScheduler(&countingMaterializer{}, "not a cron", time.UTC, zap.NewNop())
	require.NoError(t, err)
	assert.Error(t, s.Start(context.Background()))
}

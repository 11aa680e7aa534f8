package audit

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func TestRunSkipsWhenLockHeldElsewhere(t *testing.T) {
	// db stays nil: a contended lock must short-circuit before any query
	a := &Archiver{
		lg:    zap.NewNop().Sugar(),
		clock: func() time.Time { return time.Date(2026, 3, 15, 2, 0, 0, 0, time.UTC) },
		lock: func(context.Context) (func(), bool, error) {
			return nil, false, nil
		},
	}
	n, err := a.Run(context.Background())
	assert.Zero(t, n)
	assert.ErrorIs(t, err, ErrArchiveRunning)
}

func TestRunSurfacesLockError(t *testing.T) {
	lockErr := errors.New("connection refused")
	a := &Archiver{
		lg: zap.NewNop().Sugar(),
		lock: func(context.Context) (func(), bool, error) {
			return nil, false, lockErr
		},
	}
	_, err := a.Run(context.Background())
	assert.ErrorIs(t, err, lockErr)
}

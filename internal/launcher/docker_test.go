package launcher

import (
	"context"
	"errors"
	"testing"

	"fanout/internal/apperrors"
)

func TestSpawnError(t *testing.T) {
	t.Parallel()

	cancelled, cancel := context.WithCancel(context.Background())
	cancel()

	tests := []struct {
		name string
		ctx  context.Context
		want error
	}{
		{name: "live context", ctx: context.Background(), want: apperrors.ErrSpawn},
		{name: "cancelled context", ctx: cancelled, want: apperrors.ErrInterrupted},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			err := spawnError(tt.ctx, "echo", errors.New("daemon said no"))
			if !errors.Is(err, tt.want) {
				t.Errorf("spawnError() = %v, want %v", err, tt.want)
			}
		})
	}
}

package common

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestGuard_Success(t *testing.T) {
	ctx := context.Background()

	called := 0
	err := Guard(ctx, func(ctx context.Context) error {
		called++
		return nil
	})

	assert.NoError(t, err)
	assert.Equal(t, 1, called) // 只执行一次，绝不重试
}

func TestGuard_ErrorPassthrough(t *testing.T) {
	ctx := context.Background()
	boom := errors.New("network error")

	err := Guard(ctx, func(ctx context.Context) error {
		return boom
	}, WithName("remote-function"))

	assert.Error(t, err)
	assert.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "remote-function")
}

func TestGuard_RecoversPanic(t *testing.T) {
	ctx := context.Background()

	err := Guard(ctx, func(ctx context.Context) error {
		panic("unexpected state")
	}, WithName("heuristic"))

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "panicked")
	assert.Contains(t, err.Error(), "heuristic")
	assert.Contains(t, err.Error(), "unexpected state")
}

func TestGuard_Timeout(t *testing.T) {
	ctx := context.Background()

	start := time.Now()
	err := Guard(ctx, func(ctx context.Context) error {
		select {
		case <-time.After(5 * time.Second):
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	}, WithTimeout(50*time.Millisecond))

	assert.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Less(t, time.Since(start), 2*time.Second)
}

func TestGuard_ParentContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel() // 直接取消

	err := Guard(ctx, func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	}, WithTimeout(time.Second))

	assert.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestGuard_NilFunction(t *testing.T) {
	err := Guard(context.Background(), nil)

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "cannot be nil")
}

func TestGuard_Options(t *testing.T) {
	tests := []struct {
		name string
		opts []Option
	}{
		{name: "默认配置", opts: nil},
		{name: "非法超时被忽略", opts: []Option{WithTimeout(-1)}},
		{name: "空名称被忽略", opts: []Option{WithName("")}},
		{name: "组合配置", opts: []Option{WithTimeout(time.Second), WithName("gemini-direct")}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Guard(context.Background(), func(ctx context.Context) error {
				// 每次尝试都应带截止时间
				_, ok := ctx.Deadline()
				assert.True(t, ok)
				return nil
			}, tt.opts...)

			assert.NoError(t, err)
		})
	}
}

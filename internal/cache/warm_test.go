package cache_test

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/require"

	"go-blog-list/internal/cache"
	"go-blog-list/internal/mocks"
	"go-blog-list/internal/model"
)

func TestWarm_RefreshesUntilCancelled(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	f := mocks.NewMockFetcher(ctrl)

	var calls atomic.Int32
	f.EXPECT().FetchItems(gomock.Any(), src).DoAndReturn(func(context.Context, string) ([]model.Item, error) {
		if calls.Add(1) == 2 {
			return nil, errors.New("transient")
		}
		return items("w"), nil
	}).MinTimes(3)

	l := cache.New(f, cache.Options{TTL: time.Hour})
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- l.Warm(ctx, src, 5*time.Millisecond) }()

	require.Eventually(t, func() bool { return calls.Load() >= 3 }, time.Second, time.Millisecond)
	cancel()
	require.NoError(t, <-done)

	snap, ok := l.Snapshot(src)
	require.True(t, ok)
	require.Equal(t, "w", snap.Items[0].Title)
}

func TestWarm_RejectsZeroInterval(t *testing.T) {
	l := cache.New(nil, cache.Options{})
	require.Error(t, l.Warm(context.Background(), src, 0))
}

package infra

import (
	"context"
	"testing"

	"job-throttle/scheduler/throttle/domain"

	"github.com/stretchr/testify/require"
)

func TestQueueDepth_Full(t *testing.T) {
	mr, rdb := newTestRedis(t)
	q := NewQueueDepth(rdb, WithQueuePrefix("jobs:"), WithQueueMax(2))
	full := q.Full()
	job := domain.JobRef{ClassID: "ReportJob"}
	ctx := context.Background()

	require.Equal(t, "jobs:ReportJob", q.Key("ReportJob"))

	got, err := full(ctx, job)
	require.NoError(t, err)
	require.False(t, got)

	_, err = mr.Push("jobs:ReportJob", "a")
	require.NoError(t, err)
	got, err = full(ctx, job)
	require.NoError(t, err)
	require.False(t, got)

	_, err = mr.Push("jobs:ReportJob", "b")
	require.NoError(t, err)
	got, err = full(ctx, job)
	require.NoError(t, err)
	require.True(t, got)

	got, err = full(ctx, domain.JobRef{ClassID: "ExportJob"})
	require.NoError(t, err)
	require.False(t, got)
}

func TestQueueDepth_FullPropagatesRedisError(t *testing.T) {
	mr, rdb := newTestRedis(t)
	q := NewQueueDepth(rdb)
	mr.Close()

	_, err := q.Full()(context.Background(), domain.JobRef{ClassID: "ReportJob"})
	require.Error(t, err)
}

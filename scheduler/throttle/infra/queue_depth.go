package infra

import (
	"context"
	"strings"

	"job-throttle/scheduler/throttle/domain"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
)

// QueueDepth lê o tamanho da fila pendente de uma classe (LIST no Redis).
type QueueDepth struct {
	rdb    redis.Cmdable
	prefix string
	max    int64
}

type QueueDepthOption func(*QueueDepth)

func WithQueuePrefix(prefix string) QueueDepthOption {
	return func(q *QueueDepth) { q.prefix = strings.Trim(prefix, ":") }
}

func WithQueueMax(max int64) QueueDepthOption {
	return func(q *QueueDepth) { q.max = max }
}

func NewQueueDepth(rdb redis.Cmdable, opts ...QueueDepthOption) *QueueDepth {
	q := &QueueDepth{
		rdb:    rdb,
		prefix: "jobs:queue",
		max:    1000,
	}
	for _, opt := range opts {
		opt(q)
	}
	return q
}

func (q *QueueDepth) Key(class domain.ClassID) string {
	return q.prefix + ":" + string(class)
}

func (q *QueueDepth) Depth(ctx context.Context, class domain.ClassID) (int64, error) {
	n, err := q.rdb.LLen(ctx, q.Key(class)).Result()
	if err != nil {
		return 0, errors.Wrapf(err, "queue depth %s", q.Key(class))
	}
	return n, nil
}

// Full é o predicado "fila da classe cheia" (depth >= max).
// Erro do Redis sobe para o avaliador, que não o engole.
func (q *QueueDepth) Full() domain.PredicateFunc {
	return func(ctx context.Context, job domain.Job) (bool, error) {
		n, err := q.Depth(ctx, job.Class())
		if err != nil {
			return false, err
		}
		return n >= q.max, nil
	}
}

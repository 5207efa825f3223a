package infra

import (
	"context"
	"fmt"
	"strings"
	"time"

	"job-throttle/scheduler/throttle/domain"

	"github.com/redis/go-redis/v9"
)

type RedisStatsStore struct {
	rdb redis.Cmdable

	prefix string
	// ttl aplica apenas em chaves de série temporal / por job.
	// total é cumulativo e não expira.
	ttl time.Duration

	bucket string // "minute" (padrão) ou "none"

	trackJobs bool
}

type RedisStatsOption func(*RedisStatsStore)

func WithStatsPrefix(prefix string) RedisStatsOption {
	return func(s *RedisStatsStore) {
		s.prefix = strings.Trim(prefix, ":")
	}
}

func WithStatsTTL(d time.Duration) RedisStatsOption {
	return func(s *RedisStatsStore) { s.ttl = d }
}

func WithStatsBucket(bucket string) RedisStatsOption {
	return func(s *RedisStatsStore) { s.bucket = strings.ToLower(strings.TrimSpace(bucket)) }
}

func WithStatsTrackJobs(track bool) RedisStatsOption {
	return func(s *RedisStatsStore) { s.trackJobs = track }
}

func NewRedisStatsStore(rdb redis.Cmdable, opts ...RedisStatsOption) *RedisStatsStore {
	s := &RedisStatsStore{
		rdb:    rdb,
		prefix: "throttle:stats",
		ttl:    24 * time.Hour,
		bucket: "minute",
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Record grava o disparo em hashes:
//
//	<prefix>:total              <classe> -> n
//	<prefix>:minute:<yyyymmddhhmm> <classe> -> n   (com TTL)
//	<prefix>:predicate          <classe>:<predicado> -> n
//	<prefix>:job:<id>           <classe> -> n      (se trackJobs, com TTL)
func (s *RedisStatsStore) Record(ctx context.Context, ev domain.TriggerEvent) error {
	if s == nil || s.rdb == nil {
		return nil
	}

	at := ev.At
	if at.IsZero() {
		at = time.Now()
	}

	field := string(ev.Class)
	totalKey := s.prefix + ":total"

	pipe := s.rdb.Pipeline()
	pipe.HIncrBy(ctx, totalKey, field, 1)

	if s.bucket == "minute" {
		bucketKey := fmt.Sprintf("%s:minute:%s", s.prefix, at.UTC().Format("200601021504"))
		pipe.HIncrBy(ctx, bucketKey, field, 1)
		if s.ttl > 0 {
			pipe.Expire(ctx, bucketKey, s.ttl)
		}
	}

	if p := strings.TrimSpace(ev.Predicate); p != "" {
		pipe.HIncrBy(ctx, s.prefix+":predicate", field+":"+p, 1)
	}

	if s.trackJobs {
		id := strings.TrimSpace(ev.JobID)
		if id != "" {
			jobKey := s.prefix + ":job:" + id
			pipe.HIncrBy(ctx, jobKey, field, 1)
			if s.ttl > 0 {
				pipe.Expire(ctx, jobKey, s.ttl)
			}
		}
	}

	_, err := pipe.Exec(ctx)
	return err
}

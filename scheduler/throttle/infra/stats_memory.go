package infra

import (
	"context"
	"sync"

	"job-throttle/scheduler/throttle/domain"
)

// MemoryStatsStore é uma implementação simples em memória.
// Útil para testes e desenvolvimento.
//
// Não faz expiração e não é indicada para produção.
type MemoryStatsStore struct {
	mu          sync.Mutex
	total       int64
	byClass     map[domain.ClassID]int64
	byPredicate map[string]int64
	byJob       map[string]int64

	trackJobs bool
}

type MemoryStatsOption func(*MemoryStatsStore)

func WithTrackJobs(track bool) MemoryStatsOption {
	return func(s *MemoryStatsStore) { s.trackJobs = track }
}

func NewMemoryStatsStore(opts ...MemoryStatsOption) *MemoryStatsStore {
	s := &MemoryStatsStore{
		byClass:     make(map[domain.ClassID]int64),
		byPredicate: make(map[string]int64),
		byJob:       make(map[string]int64),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *MemoryStatsStore) Record(_ context.Context, ev domain.TriggerEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.total++
	s.byClass[ev.Class]++
	s.byPredicate[predicateField(ev)]++
	if s.trackJobs && ev.JobID != "" {
		s.byJob[ev.JobID]++
	}
	return nil
}

func (s *MemoryStatsStore) Total() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.total
}

func (s *MemoryStatsStore) ByClass() map[domain.ClassID]int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[domain.ClassID]int64, len(s.byClass))
	for k, v := range s.byClass {
		out[k] = v
	}
	return out
}

// ByPredicate usa chaves no formato "<classe>:<predicado>".
func (s *MemoryStatsStore) ByPredicate() map[string]int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]int64, len(s.byPredicate))
	for k, v := range s.byPredicate {
		out[k] = v
	}
	return out
}

func (s *MemoryStatsStore) ByJob() map[string]int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]int64, len(s.byJob))
	for k, v := range s.byJob {
		out[k] = v
	}
	return out
}

func predicateField(ev domain.TriggerEvent) string {
	return string(ev.Class) + ":" + ev.Predicate
}

package infra

import (
	"context"
	"sync"

	"job-throttle/scheduler/throttle/domain"
)

type chanPool struct {
	sem chan struct{}
}

// NewChanPool cria um pool simples baseado em channel com capacidade `max`.
func NewChanPool(max int) domain.SlotPool {
	return newChanPool(max)
}

func newChanPool(max int) *chanPool {
	return &chanPool{sem: make(chan struct{}, max)}
}

func (p *chanPool) Acquire(ctx context.Context) (func(), bool) {
	select {
	case p.sem <- struct{}{}:
		var once sync.Once
		return func() { once.Do(func() { <-p.sem }) }, true
	case <-ctx.Done():
		return nil, false
	}
}

func (p *chanPool) inUse() int    { return len(p.sem) }
func (p *chanPool) capacity() int { return cap(p.sem) }

// ClassSlots mantém um chanPool por classe, criado na primeira vez que a classe aparece.
type ClassSlots struct {
	mu       sync.Mutex
	max      int
	perClass map[domain.ClassID]int
	pools    map[domain.ClassID]*chanPool
}

type ClassSlotsOption func(*ClassSlots)

// WithClassMax define uma capacidade específica para uma classe.
func WithClassMax(class domain.ClassID, max int) ClassSlotsOption {
	return func(s *ClassSlots) { s.perClass[class] = max }
}

// NewClassSlots cria pools com capacidade `max` por classe. `max <= 0` significa sem limite.
func NewClassSlots(max int, opts ...ClassSlotsOption) *ClassSlots {
	s := &ClassSlots{
		max:      max,
		perClass: make(map[domain.ClassID]int),
		pools:    make(map[domain.ClassID]*chanPool),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Pool implementa domain.ClassSlots. Retorna nil quando a classe não tem limite.
func (s *ClassSlots) Pool(class domain.ClassID) domain.SlotPool {
	if p := s.pool(class); p != nil {
		return p
	}
	return nil
}

func (s *ClassSlots) pool(class domain.ClassID) *chanPool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if p, ok := s.pools[class]; ok {
		return p
	}
	max := s.max
	if m, ok := s.perClass[class]; ok {
		max = m
	}
	if max <= 0 {
		return nil
	}
	p := newChanPool(max)
	s.pools[class] = p
	return p
}

// InUse retorna quantas vagas da classe estão ocupadas.
func (s *ClassSlots) InUse(class domain.ClassID) int {
	if p := s.pool(class); p != nil {
		return p.inUse()
	}
	return 0
}

// Saturated é o predicado "todas as vagas da classe ocupadas".
func (s *ClassSlots) Saturated() domain.PredicateFunc {
	return func(_ context.Context, job domain.Job) (bool, error) {
		p := s.pool(job.Class())
		if p == nil {
			return false, nil
		}
		return p.inUse() >= p.capacity(), nil
	}
}

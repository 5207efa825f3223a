package application

import (
	"context"
	"time"

	"job-throttle/scheduler/throttle/domain"
)

// ConcurrencyService concentra a regra de aquisição/liberação de vagas por classe
// com timeout, sem saber nada sobre HTTP.
type ConcurrencyService struct {
	Slots          domain.ClassSlots
	AcquireTimeout time.Duration
}

// Acquire tenta adquirir uma vaga da classe.
//   - Se `AcquireTimeout <= 0`, espera indefinidamente (até ctx cancelar).
//   - Se `AcquireTimeout > 0`, espera até o timeout.
//
// Retorna (release, ok). Se ok=false, nenhuma vaga foi adquirida.
func (s ConcurrencyService) Acquire(ctx context.Context, class domain.ClassID) (func(), bool) {
	if s.Slots == nil {
		return func() {}, true
	}
	pool := s.Slots.Pool(class)
	if pool == nil {
		return func() {}, true
	}

	if s.AcquireTimeout <= 0 {
		return pool.Acquire(ctx)
	}

	acqCtx, cancel := context.WithTimeout(ctx, s.AcquireTimeout)
	defer cancel()
	return pool.Acquire(acqCtx)
}

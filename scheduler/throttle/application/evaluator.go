package application

import (
	"context"
	"time"

	"job-throttle/scheduler/throttle/domain"

	"github.com/pkg/errors"
)

// Evaluator decide se um job deve ser excluído do conjunto executável.
//
// Ele não sabe nada sobre o scheduler nem sobre a query de seleção; apenas
// retorna o filtro do primeiro throttle disparado.
type Evaluator struct {
	Registry *Registry
	// Observer é opcional e só informativo.
	Observer domain.Observer
	Now      func() time.Time
}

// Evaluate percorre os throttles da classe do job do mais novo para o mais antigo.
//
// Retorna (filtro, true, nil) no primeiro predicado verdadeiro, sem avaliar os
// seguintes. Retorna (nil, false, nil) se nenhum disparou. Erros de predicado ou
// de resolvedor são devolvidos sem alteração.
func (e Evaluator) Evaluate(ctx context.Context, job domain.Job) (domain.Filter, bool, error) {
	if job == nil {
		return nil, false, errors.Wrap(domain.ErrInvalidArgument, "evaluate throttles: nil job")
	}
	if e.Registry == nil {
		return nil, false, nil
	}

	for _, t := range e.Registry.throttles(job.Class()) {
		exceeded, err := t.predicate(ctx, job)
		if err != nil {
			return nil, false, err
		}
		if !exceeded {
			continue
		}

		filter, err := t.resolve(ctx, job)
		if err != nil {
			return nil, false, err
		}
		e.notify(ctx, job, t.def.Predicate, filter)
		return filter, true, nil
	}
	return nil, false, nil
}

func (e Evaluator) notify(ctx context.Context, job domain.Job, predicate string, filter domain.Filter) {
	if e.Observer == nil {
		return
	}
	now := time.Now
	if e.Now != nil {
		now = e.Now
	}
	ev := domain.TriggerEvent{
		Class:     job.Class(),
		Predicate: predicate,
		Filter:    filter,
		At:        now(),
	}
	if id, ok := job.(domain.Identified); ok {
		ev.JobID = id.JobID()
	}
	e.Observer.ThrottleTriggered(ctx, ev)
}

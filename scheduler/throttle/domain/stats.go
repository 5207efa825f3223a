package domain

import (
	"context"
	"time"
)

// TriggerEvent representa um throttle que disparou para um job.
//
// Observação: cuidado com cardinalidade (ex.: salvar JobID sem controle pode
// explodir o número de chaves em uma base como Redis/Prometheus).
type TriggerEvent struct {
	Class     ClassID
	JobID     string
	Predicate string
	Filter    Filter

	At time.Time
}

// Observer é notificado quando um throttle dispara.
//
// É apenas informativo: o avaliador ignora o que acontece aqui e nunca
// altera o resultado por causa de um observer.
type Observer interface {
	ThrottleTriggered(ctx context.Context, ev TriggerEvent)
}

// ObserverFunc permite usar uma função simples como Observer.
type ObserverFunc func(ctx context.Context, ev TriggerEvent)

func (f ObserverFunc) ThrottleTriggered(ctx context.Context, ev TriggerEvent) { f(ctx, ev) }

// Observers repassa o evento para cada observer, em ordem.
type Observers []Observer

func (o Observers) ThrottleTriggered(ctx context.Context, ev TriggerEvent) {
	for _, obs := range o {
		if obs != nil {
			obs.ThrottleTriggered(ctx, ev)
		}
	}
}

// StatsStore é a estratégia de persistência para estatísticas de throttles disparados.
//
// Implementações podem armazenar em Redis, memória, etc.
// Quem chama deve tratar erro como best-effort.
type StatsStore interface {
	Record(ctx context.Context, ev TriggerEvent) error
}

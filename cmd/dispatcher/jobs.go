package main

import (
	"context"

	"job-throttle/scheduler/throttle/application"
	"job-throttle/scheduler/throttle/domain"
	"job-throttle/scheduler/throttle/infra"

	"github.com/doug-martin/goqu/v9"
)

// predicates reúne os predicados de infra compartilhados pelas classes.
type predicates struct {
	queue *infra.QueueDepth
	store *infra.Store
	slots *infra.ClassSlots
	load  *infra.LoadAvg
}

// registerJobs declara as classes de job do dispatcher e os seus throttles.
//
// "report" é a classe base; "export" deriva dela e herda os mesmos throttles.
// A ordem das definições importa: a última é avaliada primeiro.
func registerJobs(p predicates) (*application.Registry, error) {
	reg := application.NewRegistry()

	report := domain.Class{
		ID: "report",
		Methods: domain.Methods{
			Predicates: map[string]domain.PredicateFunc{
				"dbOverloaded?":   p.load.Overloaded(),
				"queueFull?":      p.queue.Full(),
				"rateExceeded?":   p.store.Exceeded(),
				"slotsSaturated?": p.slots.Saturated(),
			},
			Filters: map[string]domain.ResolverFunc{
				"nonUrgent": nonUrgent,
			},
		},
	}
	if err := reg.Register(report); err != nil {
		return nil, err
	}

	steps := []func() error{
		func() error { return reg.DefineThrottle("report", "dbOverloaded?") },
		func() error {
			return reg.DefineThrottleWithFilter("report", "queueFull?", domain.ByName("nonUrgent"))
		},
		func() error { return reg.DefineThrottle("report", "slotsSaturated?") },
		func() error { return reg.DefineThrottle("report", "rateExceeded?") },
		func() error { return reg.Derive(domain.Class{ID: "export"}, "report") },
	}
	for _, step := range steps {
		if err := step(); err != nil {
			return nil, err
		}
	}

	return reg, reg.Validate()
}

// nonUrgent deixa passar apenas jobs urgentes enquanto a fila estiver cheia.
func nonUrgent(context.Context, domain.Job) (domain.Filter, error) {
	return goqu.C("priority").Eq("urgent"), nil
}

package infra

import (
	"context"

	"job-throttle/scheduler/throttle/domain"

	"github.com/pkg/errors"
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/load"
)

// LoadAvg compara o load1 do host com um máximo (opcionalmente por CPU).
type LoadAvg struct {
	max    float64
	perCPU bool
	sample func(ctx context.Context, perCPU bool) (float64, error)
}

func NewLoadAvg(max float64, perCPU bool) *LoadAvg {
	return &LoadAvg{max: max, perCPU: perCPU, sample: hostLoad}
}

// Overloaded é o predicado "host sobrecarregado". max <= 0 desliga a checagem.
func (l *LoadAvg) Overloaded() domain.PredicateFunc {
	return func(ctx context.Context, _ domain.Job) (bool, error) {
		if l.max <= 0 {
			return false, nil
		}
		cur, err := l.sample(ctx, l.perCPU)
		if err != nil {
			return false, err
		}
		return cur >= l.max, nil
	}
}

func hostLoad(ctx context.Context, perCPU bool) (float64, error) {
	avg, err := load.AvgWithContext(ctx)
	if err != nil {
		return 0, errors.Wrap(err, "load avg")
	}
	if !perCPU {
		return avg.Load1, nil
	}

	n, err := cpu.CountsWithContext(ctx, true)
	if err != nil {
		return 0, errors.Wrap(err, "cpu count")
	}
	if n <= 0 {
		return avg.Load1, nil
	}
	return avg.Load1 / float64(n), nil
}

package main

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"job-throttle/scheduler/throttle/application"
	"job-throttle/scheduler/throttle/domain"
	"job-throttle/scheduler/throttle/infra"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

func newTestPredicates(t *testing.T) (*miniredis.Miniredis, predicates) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	return mr, predicates{
		queue: infra.NewQueueDepth(rdb, infra.WithQueuePrefix("jobs:queue"), infra.WithQueueMax(1)),
		store: infra.NewStore(100, 100),
		slots: infra.NewClassSlots(10),
		load:  infra.NewLoadAvg(0, false),
	}
}

func TestRegisterJobs_EvaluationOrderAndInheritance(t *testing.T) {
	_, p := newTestPredicates(t)
	reg, err := registerJobs(p)
	require.NoError(t, err)

	want := []string{"rateExceeded?", "slotsSaturated?", "queueFull?", "dbOverloaded?"}
	for _, class := range []domain.ClassID{"report", "export"} {
		var got []string
		for _, d := range reg.Definitions(class) {
			got = append(got, d.Predicate)
		}
		require.Equal(t, want, got, "class %s", class)
	}
}

func TestRegisterJobs_QueueFullOnlyThrottlesItsClass(t *testing.T) {
	mr, p := newTestPredicates(t)
	reg, err := registerJobs(p)
	require.NoError(t, err)
	ev := application.Evaluator{Registry: reg}

	_, err = mr.Push("jobs:queue:report", "job-1")
	require.NoError(t, err)

	filter, throttled, err := ev.Evaluate(context.Background(), domain.JobRef{ClassID: "report"})
	require.NoError(t, err)
	require.True(t, throttled)
	require.Equal(t, `("priority" = 'urgent')`, infra.SQLFilter{}.String(filter))

	_, throttled, err = ev.Evaluate(context.Background(), domain.JobRef{ClassID: "export"})
	require.NoError(t, err)
	require.False(t, throttled)
}

func TestSelectionHandler_MergesTriggeredFilters(t *testing.T) {
	mr, p := newTestPredicates(t)
	reg, err := registerJobs(p)
	require.NoError(t, err)

	_, err = mr.Push("jobs:queue:report", "job-1")
	require.NoError(t, err)
	// esgota as vagas de export para disparar o filtro padrão da classe
	for i := 0; i < 10; i++ {
		_, ok := p.slots.Pool("export").Acquire(context.Background())
		require.True(t, ok)
	}

	h := selectionHandler(reg, application.Evaluator{Registry: reg}, infra.SQLFilter{}, "jobs")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "http://example/selection", nil))
	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Throttled int    `json:"throttled"`
		Query     string `json:"query"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.Equal(t, 2, body.Throttled)
	require.Equal(t, `SELECT * FROM "jobs" WHERE (("job_class" != 'export') AND ("priority" = 'urgent'))`, body.Query)
}

func TestThrottlesHandler_ListsInEvaluationOrder(t *testing.T) {
	_, p := newTestPredicates(t)
	reg, err := registerJobs(p)
	require.NoError(t, err)

	w := httptest.NewRecorder()
	throttlesHandler(reg).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "http://example/throttles?class=report", nil))
	require.Equal(t, http.StatusOK, w.Code)

	var got []throttleView
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	require.Len(t, got, 4)
	require.Equal(t, throttleView{Predicate: "queueFull?", Filter: "nonUrgent"}, got[2])
	require.Equal(t, throttleView{Predicate: "dbOverloaded?", Filter: domain.ClassFilterMethod}, got[3])
}

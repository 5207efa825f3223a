package throttle

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"job-throttle/scheduler/throttle/application"
	"job-throttle/scheduler/throttle/domain"
	"job-throttle/scheduler/throttle/infra"
)

// newRateGate registra a classe "report" com o predicado de taxa do store.
func newRateGate(t *testing.T, store *infra.Store) application.Evaluator {
	t.Helper()
	reg := application.NewRegistry()
	err := reg.Register(domain.Class{
		ID: "report",
		Methods: domain.Methods{Predicates: map[string]domain.PredicateFunc{
			"rateExceeded?": store.Exceeded(),
		}},
	})
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if err := reg.DefineThrottle("report", "rateExceeded?"); err != nil {
		t.Fatalf("define: %v", err)
	}
	return application.Evaluator{Registry: reg}
}

func newDispatch(class string) *http.Request {
	r := httptest.NewRequest(http.MethodPost, "http://example/dispatch", nil)
	r.Header.Set("X-Job-Class", class)
	return r
}

func TestMiddleware_AllowsThenThrottlesSameClass(t *testing.T) {
	store := infra.NewStore(0.02, 1)

	calls := 0
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusOK)
		_, _ = io.WriteString(w, "ok")
	})

	h := Middleware(Options{
		Evaluator:          newRateGate(t, store),
		Store:              store,
		RejectStatus:       http.StatusTooManyRequests,
		RetryAfter:         1 * time.Second,
		AddThrottleHeaders: true,
	})(next)

	// 1) primeira passa
	w1 := httptest.NewRecorder()
	h.ServeHTTP(w1, newDispatch("report"))
	if w1.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w1.Code)
	}
	if got := w1.Header().Get("X-Throttle-Class"); got != "report" {
		t.Fatalf("expected X-Throttle-Class=report, got %q", got)
	}
	if got := w1.Header().Get("X-Throttle-RPS"); got != "0.02" {
		t.Fatalf("expected X-Throttle-RPS=0.02, got %q", got)
	}
	if got := w1.Header().Get("X-Throttle-Burst"); got != "1" {
		t.Fatalf("expected X-Throttle-Burst=1, got %q", got)
	}

	// 2) segunda deve ser barrada com o filtro da classe (burst=1 e rps bem baixo)
	w2 := httptest.NewRecorder()
	h.ServeHTTP(w2, newDispatch("report"))
	if w2.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", w2.Code)
	}
	if got := w2.Header().Get("Retry-After"); got != "1" {
		t.Fatalf("expected Retry-After=1, got %q", got)
	}
	if got := w2.Header().Get("X-Throttle-Filter"); got != `class != "report"` {
		t.Fatalf("expected class filter header, got %q", got)
	}

	// 3) outra classe não é afetada
	w3 := httptest.NewRecorder()
	h.ServeHTTP(w3, newDispatch("export"))
	if w3.Code != http.StatusOK {
		t.Fatalf("expected 200 for another class, got %d", w3.Code)
	}

	if calls != 2 {
		t.Fatalf("expected next handler to be called twice, got %d", calls)
	}
}

func TestMiddleware_RetryAfterUsesSecondsAndCustomFormat(t *testing.T) {
	store := infra.NewStore(0.02, 1)
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	h := Middleware(Options{
		Evaluator:    newRateGate(t, store),
		Store:        store,
		RetryAfter:   2500 * time.Millisecond,
		FormatFilter: infra.SQLFilter{}.String,
	})(next)

	h.ServeHTTP(httptest.NewRecorder(), newDispatch("report"))

	w2 := httptest.NewRecorder()
	h.ServeHTTP(w2, newDispatch("report"))
	if w2.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", w2.Code)
	}
	if got := strings.TrimSpace(w2.Header().Get("Retry-After")); got != "2" {
		// int(2.5s.Seconds()) == 2
		t.Fatalf("expected Retry-After=2, got %q", got)
	}
	if got := w2.Header().Get("X-Throttle-Filter"); got != `("job_class" != 'report')` {
		t.Fatalf("expected SQL filter header, got %q", got)
	}
}

func TestMiddleware_MissingClassIsBadRequest(t *testing.T) {
	h := Middleware(Options{})(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatalf("next must not be called")
	}))

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "http://example/dispatch", nil))
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
}

func TestMiddleware_EvaluationErrorIsServerError(t *testing.T) {
	reg := application.NewRegistry()
	_ = reg.Register(domain.Class{
		ID: "report",
		Methods: domain.Methods{Predicates: map[string]domain.PredicateFunc{
			"dbOverloaded?": func(context.Context, domain.Job) (bool, error) {
				return false, errors.New("db unreachable")
			},
		}},
	})
	_ = reg.DefineThrottle("report", "dbOverloaded?")

	h := Middleware(Options{Evaluator: application.Evaluator{Registry: reg}})(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			t.Fatalf("next must not be called")
		}),
	)

	w := httptest.NewRecorder()
	h.ServeHTTP(w, newDispatch("report"))
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "db unreachable") {
		t.Fatalf("expected the predicate error in the body, got %q", w.Body.String())
	}
}

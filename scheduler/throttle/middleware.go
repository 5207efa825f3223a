package throttle

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"job-throttle/scheduler/throttle/application"
	"job-throttle/scheduler/throttle/domain"

	"github.com/pkg/errors"
)

// ErrMissingClass indica uma requisição sem classe de job.
var ErrMissingClass = errors.New("missing job class")

type JobFunc func(r *http.Request) (domain.Job, error)

type Options struct {
	Evaluator application.Evaluator
	// Store é opcional; quando presente, cada dispatch liberado consome um token da classe.
	Store              domain.LimiterStore
	JobFn              JobFunc
	ClassHeader        string
	JobIDHeader        string
	RejectStatus       int
	RetryAfter         time.Duration
	FormatFilter       func(domain.Filter) string
	AddThrottleHeaders bool
}

type rateInfo interface {
	RPS() float64
	Burst() int
}

// DefaultJobFunc lê a classe do header (ou do query param "class") e o ID opcional.
func DefaultJobFunc(classHeader, idHeader string) JobFunc {
	return func(r *http.Request) (domain.Job, error) {
		class := strings.TrimSpace(r.Header.Get(classHeader))
		if class == "" {
			class = strings.TrimSpace(r.URL.Query().Get("class"))
		}
		if class == "" {
			return nil, ErrMissingClass
		}
		return domain.JobRef{
			ID:      strings.TrimSpace(r.Header.Get(idHeader)),
			ClassID: domain.ClassID(class),
		}, nil
	}
}

func Middleware(opts Options) func(next http.Handler) http.Handler {
	if opts.RejectStatus == 0 {
		opts.RejectStatus = http.StatusTooManyRequests
	}
	if opts.RetryAfter == 0 {
		opts.RetryAfter = 1 * time.Second
	}
	if opts.ClassHeader == "" {
		opts.ClassHeader = "X-Job-Class"
	}
	if opts.JobIDHeader == "" {
		opts.JobIDHeader = "X-Job-Id"
	}
	if opts.JobFn == nil {
		opts.JobFn = DefaultJobFunc(opts.ClassHeader, opts.JobIDHeader)
	}
	if opts.FormatFilter == nil {
		opts.FormatFilter = func(f domain.Filter) string { return fmt.Sprint(f) }
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			job, err := opts.JobFn(r)
			if err != nil {
				http.Error(w, err.Error(), http.StatusBadRequest)
				return
			}

			if opts.AddThrottleHeaders {
				w.Header().Set("X-Throttle-Class", string(job.Class()))
				if ri, ok := opts.Store.(rateInfo); ok {
					w.Header().Set("X-Throttle-RPS", formatFloat(ri.RPS()))
					w.Header().Set("X-Throttle-Burst", formatInt(ri.Burst()))
				}
			}

			filter, throttled, err := opts.Evaluator.Evaluate(r.Context(), job)
			if err != nil {
				http.Error(w, "throttle evaluation failed: "+err.Error(), http.StatusInternalServerError)
				return
			}
			if throttled {
				w.Header().Set("Retry-After", formatInt(int(opts.RetryAfter.Seconds())))
				w.Header().Set("X-Throttle-Filter", opts.FormatFilter(filter))
				http.Error(w, http.StatusText(opts.RejectStatus), opts.RejectStatus)
				return
			}

			if opts.Store != nil {
				// contabiliza o dispatch; o predicado de taxa só lê os tokens
				opts.Store.Get(job.Class()).Allow()
			}

			next.ServeHTTP(w, r)
		})
	}
}

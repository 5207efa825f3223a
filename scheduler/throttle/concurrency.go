package throttle

import (
	"net/http"
	"time"

	"job-throttle/scheduler/throttle/application"
	"job-throttle/scheduler/throttle/domain"
)

type ConcurrencyOptions struct {
	Slots          domain.ClassSlots
	JobFn          JobFunc
	ClassHeader    string
	RejectStatus   int
	AcquireTimeout time.Duration
}

// ConcurrencyMiddleware segura uma vaga da classe do job enquanto o próximo handler roda.
func ConcurrencyMiddleware(opts ConcurrencyOptions) func(next http.Handler) http.Handler {
	if opts.Slots == nil {
		return func(next http.Handler) http.Handler { return next }
	}
	if opts.RejectStatus == 0 {
		opts.RejectStatus = http.StatusServiceUnavailable
	}
	if opts.ClassHeader == "" {
		opts.ClassHeader = "X-Job-Class"
	}
	if opts.JobFn == nil {
		opts.JobFn = DefaultJobFunc(opts.ClassHeader, "")
	}

	svc := application.ConcurrencyService{
		Slots:          opts.Slots,
		AcquireTimeout: opts.AcquireTimeout,
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			job, err := opts.JobFn(r)
			if err != nil {
				http.Error(w, err.Error(), http.StatusBadRequest)
				return
			}

			release, ok := svc.Acquire(r.Context(), job.Class())
			if !ok {
				http.Error(w, http.StatusText(opts.RejectStatus), opts.RejectStatus)
				return
			}
			defer release()

			next.ServeHTTP(w, r)
		})
	}
}

package main

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"job-throttle/scheduler/throttle"
	"job-throttle/scheduler/throttle/application"
	"job-throttle/scheduler/throttle/domain"
	"job-throttle/scheduler/throttle/infra"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
)

func main() {
	logger := newLogger(os.Stderr, os.Getenv("LOG_LEVEL"), os.Getenv("LOG_HANDLER"))

	cfg, err := loadConfig(os.Getenv("THROTTLE_CONFIG_FILE"))
	if err != nil {
		logger.Error("config error", "error", err)
		os.Exit(1)
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	defer func() { _ = rdb.Close() }()

	pingCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	_, err = rdb.Ping(pingCtx).Result()
	cancel()
	if err != nil {
		logger.Error("redis ping error", "addr", cfg.RedisAddr, "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store := infra.NewStore(cfg.RateRPS, cfg.RateBurst)
	store.StartJanitor(ctx)
	slots := infra.NewClassSlots(cfg.ConcurrencyMax)

	reg, err := registerJobs(predicates{
		queue: infra.NewQueueDepth(rdb, infra.WithQueuePrefix(cfg.QueuePrefix), infra.WithQueueMax(cfg.QueueMax)),
		store: store,
		slots: slots,
		load:  infra.NewLoadAvg(cfg.MaxLoadAvg, cfg.LoadPerCPU),
	})
	if err != nil {
		logger.Error("throttle registration error", "error", err)
		os.Exit(1)
	}

	promReg := prometheus.NewRegistry()
	metrics, err := infra.NewMetricsObserver(promReg)
	if err != nil {
		logger.Error("metrics error", "error", err)
		os.Exit(1)
	}

	observers := domain.Observers{infra.NewLogObserver(logger), metrics}
	if cfg.StatsEnabled {
		observers = append(observers, infra.StatsObserver{
			Store: infra.NewRedisStatsStore(rdb,
				infra.WithStatsPrefix(cfg.StatsPrefix),
				infra.WithStatsTTL(cfg.StatsTTL),
			),
			OnError: func(err error) { logger.Warn("throttle stats error", "error", err) },
		})
	}

	sqlFilter := infra.SQLFilter{ClassColumn: cfg.FilterColumn}
	evaluator := application.Evaluator{Registry: reg, Observer: observers}

	h := http.Handler(dispatchHandler(cfg.ClassHeader))
	h = throttle.ConcurrencyMiddleware(throttle.ConcurrencyOptions{
		Slots:          slots,
		ClassHeader:    cfg.ClassHeader,
		RejectStatus:   http.StatusServiceUnavailable,
		AcquireTimeout: cfg.ConcurrencyTimeout,
	})(h)
	h = throttle.Middleware(throttle.Options{
		Evaluator:          evaluator,
		Store:              store,
		ClassHeader:        cfg.ClassHeader,
		RetryAfter:         cfg.RetryAfter,
		FormatFilter:       sqlFilter.String,
		AddThrottleHeaders: true,
	})(h)

	mux := http.NewServeMux()
	mux.Handle("/dispatch", h)
	mux.Handle("/throttles", throttlesHandler(reg))
	mux.Handle("/selection", selectionHandler(reg, evaluator, sqlFilter, cfg.FilterTable))
	mux.Handle("/metrics", promhttp.HandlerFor(promReg, promhttp.HandlerOpts{}))

	srv := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       90 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	logger.Info("dispatcher listening", "addr", cfg.ListenAddr)
	logger.Info("throttles",
		"queueMax", cfg.QueueMax,
		"rateRPS", cfg.RateRPS,
		"rateBurst", cfg.RateBurst,
		"concurrencyMax", cfg.ConcurrencyMax,
		"maxLoadAvg", cfg.MaxLoadAvg,
		"stats", cfg.StatsEnabled,
	)

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("server error", "error", err)
		os.Exit(1)
	}
}

// dispatchHandler só confirma o dispatch; chegar aqui significa que nenhum throttle disparou.
func dispatchHandler(classHeader string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusAccepted, map[string]any{
			"dispatched": true,
			"class":      r.Header.Get(classHeader),
		})
	}
}

// selectionHandler avalia cada classe registrada e monta a query de seleção de
// jobs com os filtros dos throttles disparados.
func selectionHandler(reg *application.Registry, ev application.Evaluator, f infra.SQLFilter, table string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var filters []domain.Filter
		for _, class := range reg.Classes() {
			filter, throttled, err := ev.Evaluate(r.Context(), domain.JobRef{ClassID: class})
			if err != nil {
				http.Error(w, err.Error(), http.StatusInternalServerError)
				return
			}
			if throttled {
				filters = append(filters, filter)
			}
		}

		sql, args, err := f.Select(table, filters...)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"throttled": len(filters),
			"query":     sql,
			"args":      args,
		})
	}
}

type throttleView struct {
	Predicate string `json:"predicate"`
	Filter    string `json:"filter"`
}

// throttlesHandler lista os throttles de uma classe na ordem de avaliação.
func throttlesHandler(reg *application.Registry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		class := domain.ClassID(r.URL.Query().Get("class"))
		defs := reg.Definitions(class)

		out := make([]throttleView, 0, len(defs))
		for _, d := range defs {
			v := throttleView{Predicate: d.Predicate, Filter: "callable"}
			if name, ok := d.Filter.(domain.ByName); ok {
				v.Filter = string(name)
			}
			out = append(out, v)
		}
		writeJSON(w, http.StatusOK, out)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

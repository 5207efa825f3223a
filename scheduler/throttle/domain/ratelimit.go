package domain

// Limiter representa um token bucket por classe.
//
// Tokens permite consultar sem consumir (usado pelo predicado); Allow consome
// (usado quando o job é de fato despachado).
// A camada de infra usa golang.org/x/time/rate.
type Limiter interface {
	Allow() bool
	Tokens() float64
}

// LimiterStore obtém um limiter por classe.
type LimiterStore interface {
	Get(ClassID) Limiter
}

// Package throttle fornece adapters HTTP (net/http) para o gate de dispatch de jobs.
//
// Visão geral (camadas):
//
//   - domain: contratos e tipos do domínio (sem dependência de net/http)
//   - application: registro de throttles por classe e avaliação LIFO, sem net/http
//   - infra: implementações concretas (token bucket, semáforo, Redis, load avg, SQL)
//   - throttle (este pacote): middlewares HTTP + extração do job + tradução para status/headers
//
// Fluxo no dispatcher:
//
//  1. Extrai o job da requisição (classe via header X-Job-Class)
//  2. Chama o Evaluator para obter o filtro do primeiro throttle disparado
//  3. Se houver filtro, responde 429 com X-Throttle-Filter; erro de avaliação vira 500
//  4. Caso contrário, contabiliza o dispatch e chama o próximo handler
//
// Variáveis de ambiente do binário dispatcher (cmd/dispatcher) controlam o comportamento,
// como THROTTLE_QUEUE_MAX, THROTTLE_RATE_RPS e THROTTLE_CONCURRENCY_MAX.
package throttle

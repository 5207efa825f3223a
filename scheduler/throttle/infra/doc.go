// Package infra contém implementações concretas (infraestrutura) para os contratos
// definidos no pacote domain.
//
// Exemplos:
//   - Store: token bucket por classe usando golang.org/x/time/rate (predicado Exceeded)
//   - ClassSlots: semáforo por classe para limite de concorrência (predicado Saturated)
//   - QueueDepth: tamanho da fila no Redis (predicado Full)
//   - LoadAvg: load average do host via gopsutil (predicado Overloaded)
//   - SQLFilter: traduz filtros para expressões goqu
//   - LogObserver, MetricsObserver, StatsObserver: observers de throttles disparados
package infra

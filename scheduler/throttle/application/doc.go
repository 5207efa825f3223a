// Package application contém os casos de uso de throttle de classes de job.
//
// Ele depende apenas do pacote domain e não conhece net/http nem redis.
// Ex.: Registry.DefineThrottle(class, "queueFull?") registra um throttle e
// Evaluator.Evaluate(ctx, job) retorna o filtro do primeiro throttle disparado.
package application

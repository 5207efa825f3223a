// Package domain define contratos e tipos de domínio para throttles de classes de job.
//
// Este pacote não depende de net/http nem de implementações concretas
// (redis, token bucket, SQL). A intenção é permitir testes de unidade puros e
// desacoplar a regra de avaliação dos detalhes de infraestrutura.
package domain

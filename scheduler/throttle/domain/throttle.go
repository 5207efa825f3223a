package domain

// Camada de domínio do throttle.
//
// Um throttle é um predicado nomeado + um resolvedor de filtro. Quando o predicado
// retorna true, o scheduler recebe o filtro e exclui os jobs correspondentes.

import (
	"context"

	"github.com/pkg/errors"
)

// ClassFilterMethod é o nome do resolvedor usado quando nenhum filtro é informado.
// Toda classe o possui (retorna ClassFilter da classe do job) e pode sobrescrevê-lo.
const ClassFilterMethod = "throttleClassFilter"

// PredicateFunc é um predicado já ligado à tabela de métodos da classe.
type PredicateFunc func(ctx context.Context, job Job) (bool, error)

// ResolverFunc produz o filtro de um throttle disparado.
type ResolverFunc func(ctx context.Context, job Job) (Filter, error)

// FilterResolver é um tipo soma fechado: ByName ou Callable.
type FilterResolver interface {
	filterResolver()
}

// ByName referencia um método de filtro da tabela da classe.
type ByName string

// Callable recebe o job que disparou o throttle e retorna o filtro.
type Callable func(ctx context.Context, job Job) (Filter, error)

func (ByName) filterResolver()   {}
func (Callable) filterResolver() {}

// DefaultFilter é o resolvedor aplicado por DefineThrottle.
var DefaultFilter FilterResolver = ByName(ClassFilterMethod)

// ValidateResolver garante que o resolvedor é exatamente um ByName não vazio
// ou um Callable não nil.
func ValidateResolver(r FilterResolver) error {
	switch v := r.(type) {
	case ByName:
		if v == "" {
			return errors.Wrap(ErrInvalidArgument, "filter resolver: empty method name")
		}
		return nil
	case Callable:
		if v == nil {
			return errors.Wrap(ErrInvalidArgument, "filter resolver: nil callable")
		}
		return nil
	default:
		return errors.Wrapf(ErrInvalidArgument, "filter resolver: unsupported shape %T", r)
	}
}

// Definition é imutável; uma por throttle registrado.
type Definition struct {
	Predicate string
	Filter    FilterResolver
}

// Methods é a tabela de métodos nomeados de uma classe de job.
//
// Predicados e filtros são declarados por nome em DefineThrottle e ligados a
// esta tabela uma única vez, no registro.
type Methods struct {
	Predicates map[string]PredicateFunc
	Filters    map[string]ResolverFunc
}

// Class descreve uma classe de job a ser registrada.
type Class struct {
	ID      ClassID
	Methods Methods
}

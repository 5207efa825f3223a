package application

import (
	"context"
	"sort"
	"sync"

	"job-throttle/scheduler/throttle/domain"

	"github.com/hashicorp/go-multierror"
	"github.com/pkg/errors"
)

// Registry guarda, por classe de job, a sequência de throttles registrados.
//
// A sequência fica do mais novo para o mais antigo: o último definido é o
// primeiro avaliado. Cada classe tem a sua própria sequência; Derive copia a
// do pai no momento da derivação e a partir daí elas são independentes.
type Registry struct {
	mu      sync.RWMutex
	classes map[domain.ClassID]*classEntry
}

type classEntry struct {
	id      domain.ClassID
	methods domain.Methods
	// throttles nunca é alterado in-place: cada definição cria um slice novo,
	// então quem já leu continua com um snapshot consistente.
	throttles []throttle
}

type throttle struct {
	def       domain.Definition
	predicate domain.PredicateFunc
	resolve   domain.ResolverFunc
	// unbound lista nomes que não existiam na tabela de métodos.
	unbound []string
}

func NewRegistry() *Registry {
	return &Registry{classes: make(map[domain.ClassID]*classEntry)}
}

// Register cria a sequência (vazia) de uma classe raiz.
func (r *Registry) Register(c domain.Class) error {
	return r.add(c, nil)
}

// Derive registra uma subclasse. Ela herda a tabela de métodos do pai (os
// métodos de c sobrescrevem os do pai) e começa com uma cópia dos throttles do
// pai, religados à tabela da subclasse.
func (r *Registry) Derive(c domain.Class, parent domain.ClassID) error {
	r.mu.RLock()
	p, ok := r.classes[parent]
	var snapshot classEntry
	if ok {
		snapshot = *p
	}
	r.mu.RUnlock()
	if !ok {
		return errors.Wrapf(domain.ErrUnknownClass, "derive %q from %q", c.ID, parent)
	}
	return r.add(c, &snapshot)
}

func (r *Registry) add(c domain.Class, parent *classEntry) error {
	if c.ID == "" {
		return errors.Wrap(domain.ErrInvalidArgument, "class id is empty")
	}

	ent := &classEntry{id: c.ID, methods: baseMethods()}
	if parent != nil {
		mergeMethods(&ent.methods, parent.methods)
	}
	mergeMethods(&ent.methods, c.Methods)
	if parent != nil {
		ent.throttles = make([]throttle, 0, len(parent.throttles))
		for _, t := range parent.throttles {
			ent.throttles = append(ent.throttles, ent.bind(t.def))
		}
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.classes[c.ID]; exists {
		return errors.Wrapf(domain.ErrInvalidArgument, "class %q already registered", c.ID)
	}
	r.classes[c.ID] = ent
	return nil
}

// DefineThrottle registra um throttle com o filtro padrão (exclui a classe inteira).
func (r *Registry) DefineThrottle(class domain.ClassID, predicate string) error {
	return r.DefineThrottleWithFilter(class, predicate, domain.DefaultFilter)
}

// DefineThrottleWithFilter registra um throttle com um resolvedor explícito.
// Resolvedor inválido falha aqui, no registro, e nada é adicionado.
func (r *Registry) DefineThrottleWithFilter(class domain.ClassID, predicate string, resolver domain.FilterResolver) error {
	if err := domain.ValidateResolver(resolver); err != nil {
		return errors.Wrapf(err, "define throttle %q on %q", predicate, class)
	}
	if predicate == "" {
		return errors.Wrapf(domain.ErrInvalidArgument, "define throttle on %q: empty predicate name", class)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	ent, ok := r.classes[class]
	if !ok {
		return errors.Wrapf(domain.ErrUnknownClass, "define throttle %q on %q", predicate, class)
	}

	t := ent.bind(domain.Definition{Predicate: predicate, Filter: resolver})
	next := make([]throttle, 0, len(ent.throttles)+1)
	next = append(next, t)
	next = append(next, ent.throttles...)
	ent.throttles = next
	return nil
}

// Definitions retorna uma cópia da sequência da classe, na ordem de avaliação.
func (r *Registry) Definitions(class domain.ClassID) []domain.Definition {
	ts := r.throttles(class)
	out := make([]domain.Definition, len(ts))
	for i, t := range ts {
		out[i] = t.def
	}
	return out
}

// Classes retorna os IDs registrados, em ordem alfabética.
func (r *Registry) Classes() []domain.ClassID {
	r.mu.RLock()
	out := make([]domain.ClassID, 0, len(r.classes))
	for id := range r.classes {
		out = append(out, id)
	}
	r.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Validate reporta todos os nomes de predicado/filtro que não existem na
// tabela de métodos da classe. Não é obrigatório chamar: a avaliação já
// retorna ErrMethodNotFound; aqui é só para falhar cedo no startup.
func (r *Registry) Validate() error {
	var result *multierror.Error
	for _, id := range r.Classes() {
		for _, t := range r.throttles(id) {
			for _, name := range t.unbound {
				result = multierror.Append(result, errors.Wrapf(domain.ErrMethodNotFound, "class %q: %q", id, name))
			}
		}
	}
	return result.ErrorOrNil()
}

func (r *Registry) throttles(class domain.ClassID) []throttle {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if ent, ok := r.classes[class]; ok {
		return ent.throttles
	}
	return nil
}

func (e *classEntry) bind(def domain.Definition) throttle {
	t := throttle{def: def}

	if fn, ok := e.methods.Predicates[def.Predicate]; ok {
		t.predicate = fn
	} else {
		t.unbound = append(t.unbound, def.Predicate)
		t.predicate = missingPredicate(e.id, def.Predicate)
	}

	switch res := def.Filter.(type) {
	case domain.Callable:
		t.resolve = domain.ResolverFunc(res)
	case domain.ByName:
		if fn, ok := e.methods.Filters[string(res)]; ok {
			t.resolve = fn
		} else {
			t.unbound = append(t.unbound, string(res))
			t.resolve = missingFilter(e.id, string(res))
		}
	}
	return t
}

func missingPredicate(class domain.ClassID, name string) domain.PredicateFunc {
	return func(context.Context, domain.Job) (bool, error) {
		return false, errors.Wrapf(domain.ErrMethodNotFound, "class %q: predicate %q", class, name)
	}
}

func missingFilter(class domain.ClassID, name string) domain.ResolverFunc {
	return func(context.Context, domain.Job) (domain.Filter, error) {
		return nil, errors.Wrapf(domain.ErrMethodNotFound, "class %q: filter %q", class, name)
	}
}

// baseMethods é a tabela que toda classe tem antes dos seus próprios métodos.
func baseMethods() domain.Methods {
	return domain.Methods{
		Predicates: map[string]domain.PredicateFunc{},
		Filters: map[string]domain.ResolverFunc{
			domain.ClassFilterMethod: classFilter,
		},
	}
}

// classFilter exclui todas as instâncias da classe do job, não só a instância avaliada.
func classFilter(_ context.Context, job domain.Job) (domain.Filter, error) {
	return domain.ClassFilter{Class: job.Class()}, nil
}

func mergeMethods(dst *domain.Methods, src domain.Methods) {
	for name, fn := range src.Predicates {
		dst.Predicates[name] = fn
	}
	for name, fn := range src.Filters {
		dst.Filters[name] = fn
	}
}

package infra

import (
	"fmt"
	"strings"

	"job-throttle/scheduler/throttle/domain"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres"
	_ "github.com/doug-martin/goqu/v9/dialect/sqlite3"
	"github.com/doug-martin/goqu/v9/exp"
	"github.com/pkg/errors"
)

// ErrUnsupportedFilter indica um filtro que SQLFilter não sabe traduzir.
var ErrUnsupportedFilter = errors.New("unsupported filter")

// SQLFilter traduz filtros de throttle em expressões goqu para a query de
// seleção de jobs do scheduler. Não executa nada: só monta o SQL.
type SQLFilter struct {
	Dialect     string // "postgres" (padrão) ou "sqlite3"
	ClassColumn string // padrão "job_class"
}

func (f SQLFilter) column() string {
	if f.ClassColumn == "" {
		return "job_class"
	}
	return f.ClassColumn
}

func (f SQLFilter) dialect() goqu.DialectWrapper {
	if f.Dialect == "" {
		return goqu.Dialect("postgres")
	}
	return goqu.Dialect(f.Dialect)
}

// Expression converte um filtro na condição que os jobs restantes devem satisfazer.
//
// ClassFilter vira `job_class != <classe>`; uma exp.Expression já pronta
// (ex: retornada por um Callable) passa sem alteração.
func (f SQLFilter) Expression(filter domain.Filter) (exp.Expression, error) {
	switch v := filter.(type) {
	case domain.ClassFilter:
		return goqu.C(f.column()).Neq(string(v.Class)), nil
	case *domain.ClassFilter:
		if v == nil {
			return nil, errors.Wrap(ErrUnsupportedFilter, "nil class filter")
		}
		return goqu.C(f.column()).Neq(string(v.Class)), nil
	case exp.Expression:
		return v, nil
	default:
		return nil, errors.Wrapf(ErrUnsupportedFilter, "%T", filter)
	}
}

// Select monta `SELECT * FROM <table> WHERE ...` aplicando todos os filtros.
func (f SQLFilter) Select(table string, filters ...domain.Filter) (string, []any, error) {
	where := make([]exp.Expression, 0, len(filters))
	for _, filter := range filters {
		e, err := f.Expression(filter)
		if err != nil {
			return "", nil, err
		}
		where = append(where, e)
	}
	return f.dialect().From(table).Where(where...).ToSQL()
}

// String renderiza o filtro para logs/headers: SQL quando possível, fmt caso contrário.
func (f SQLFilter) String(filter domain.Filter) string {
	e, err := f.Expression(filter)
	if err != nil {
		return fmt.Sprint(filter)
	}
	sql, _, err := f.dialect().From("t").Where(e).ToSQL()
	if err != nil {
		return fmt.Sprint(filter)
	}
	if _, where, ok := strings.Cut(sql, "WHERE "); ok {
		return where
	}
	return sql
}

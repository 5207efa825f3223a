package domain

import "github.com/pkg/errors"

var (
	// ErrInvalidArgument indica erro de configuração detectado no registro
	// (resolvedor de filtro inválido, nome de predicado vazio, classe duplicada...).
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrUnknownClass é retornado ao definir throttles em uma classe não registrada.
	ErrUnknownClass = errors.New("unknown job class")

	// ErrMethodNotFound é retornado na avaliação quando o nome do predicado ou do
	// filtro não existe na tabela de métodos da classe.
	ErrMethodNotFound = errors.New("method not found")

	// ErrJobType é retornado pelos adapters tipados quando o job não é do tipo esperado.
	ErrJobType = errors.New("unexpected job type")
)

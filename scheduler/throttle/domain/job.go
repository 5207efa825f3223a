package domain

import "fmt"

// ClassID identifica uma classe de job (ex: "ReportJob").
type ClassID string

// Job é uma instância de job candidata ao dispatch.
//
// O avaliador só precisa saber a qual classe a instância pertence; predicados e
// resolvedores de filtro recebem a instância e fazem type assertion para o tipo concreto.
type Job interface {
	Class() ClassID
}

// Identified é opcional: quando o job expõe um ID, ele aparece nos eventos de trigger.
type Identified interface {
	JobID() string
}

// Filter é um valor opaco entendido pela camada de persistência do scheduler.
// O avaliador nunca interpreta o conteúdo, apenas resolve e devolve.
type Filter any

// ClassFilter é o filtro padrão: exclui toda instância cuja classe é Class.
type ClassFilter struct {
	Class ClassID
}

// Excludes informa se uma instância da classe informada é excluída por este filtro.
func (f ClassFilter) Excludes(class ClassID) bool { return f.Class == class }

func (f ClassFilter) String() string { return fmt.Sprintf("class != %q", string(f.Class)) }

// JobRef é um job mínimo (classe + ID), útil quando só a classe importa,
// por exemplo no adapter HTTP.
type JobRef struct {
	ID      string
	ClassID ClassID
}

func (j JobRef) Class() ClassID { return j.ClassID }
func (j JobRef) JobID() string  { return j.ID }
